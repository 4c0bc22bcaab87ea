package board

import (
	"fmt"
	"storyfeed/internal/cli/scheme/colours"
	"storyfeed/internal/story/tts"

	"github.com/spf13/cobra"
)

const maxListedVoices = 10

// ConfigureSettings shows the speech settings and what this machine offers.
func (b *Board) ConfigureSettings(cmd *cobra.Command, args []string) {
	fmt.Fprintln(b.out)
	colours.Title.Fprintln(b.out, "⚙️ TTS Settings ⚙️")
	fmt.Fprintln(b.out)

	tc := b.cfg.TTS
	colours.Prompt.Fprintln(b.out, "🎤 Voice Settings:")
	fmt.Fprintf(b.out, "  • Engine: %s\n", orDefault(tc.Type, tts.EngineTypeAuto.String()))
	fmt.Fprintf(b.out, "  • Voice: %s\n", orDefault(tc.Voice, "default"))
	fmt.Fprintf(b.out, "  • Speed: %.1fx\n", tc.Speed)
	fmt.Fprintf(b.out, "  • Volume: %.0f%%\n", tc.Volume*100)
	fmt.Fprintf(b.out, "  • Audio cache: %s\n", tc.CachePath)
	fmt.Fprintln(b.out)

	colours.Info.Fprintln(b.out, "🔈 Available engines:")
	for _, e := range tts.GetAvailableEngines() {
		fmt.Fprintf(b.out, "  • %s\n", e)
	}
	fmt.Fprintln(b.out)

	engine, err := b.ttsEngine()
	if err != nil {
		b.printFailure("Failed to start speech engine", err)
		return
	}
	voices, err := engine.GetAvailableVoices()
	if err != nil {
		b.printFailure("Failed to list voices", err)
		return
	}
	colours.Info.Fprintf(b.out, "🗣️  Voices (%d):\n", len(voices))
	for i, v := range voices {
		if i == maxListedVoices {
			fmt.Fprintf(b.out, "  … and %d more\n", len(voices)-maxListedVoices)
			break
		}
		fmt.Fprintf(b.out, "  • %s\n", v)
	}
	fmt.Fprintln(b.out)
	colours.Info.Fprintln(b.out, "💡 Try one with 'storyfeed read --voice <name> --speed 1.2'")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
