package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

const defaultGoogleVoice = "en-US-Chirp3-HD-Charon"

// GoogleClassicTTSEngine synthesizes headlines with Google Cloud TTS, keeps
// the mp3 per story on disk and plays it with beep.
type GoogleClassicTTSEngine struct {
	client       *texttospeech.Client
	ctx          context.Context
	voice        string
	speed        float64
	volume       float64
	isPlaying    bool
	ctrl         *beep.Ctrl
	streamer     beep.StreamSeekCloser
	speakerRate  beep.SampleRate
	stop         chan struct{}
	mu           sync.Mutex
	cacheRootDir string
	storyID      string
}

func newGoogleClassicTTSEngine(config Config) (*GoogleClassicTTSEngine, error) {
	ctx := context.Background()
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	cacheDir := config.CachePath
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "storyfeed-audio")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	voice := config.Voice
	if voice == "" || voice == "default" {
		voice = defaultGoogleVoice
	}

	return &GoogleClassicTTSEngine{
		client:       client,
		ctx:          ctx,
		voice:        voice,
		speed:        config.Speed,
		volume:       config.Volume,
		cacheRootDir: cacheDir,
	}, nil
}

// SetStoryContext names the story the next Speak call belongs to, so its
// audio lands in that story's cache directory.
func (g *GoogleClassicTTSEngine) SetStoryContext(storyID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.storyID = storyID
}

func (g *GoogleClassicTTSEngine) cacheDirectory() string {
	if g.storyID == "" {
		return g.cacheRootDir
	}
	return storyAudioDir(g.cacheRootDir, g.storyID)
}

func (g *GoogleClassicTTSEngine) Speak(text string) error {
	g.mu.Lock()
	path, err := g.synthesize(text)
	g.mu.Unlock()
	if err != nil {
		return err
	}
	return g.play(path)
}

// synthesize returns the mp3 for text, calling the API only on a cache miss.
// Callers hold g.mu.
func (g *GoogleClassicTTSEngine) synthesize(text string) (string, error) {
	cacheDir := g.cacheDirectory()
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	contentHash := md5Sum(text + g.voice)[:8]
	path := filepath.Join(cacheDir, fmt.Sprintf("headline_%s.mp3", contentHash))
	if _, err := os.Stat(path); err == nil {
		logrus.WithField("file", path).Debug("Using cached headline audio")
		return path, nil
	}

	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}
	// Chirp voices reject speakingRate and gain
	if !strings.Contains(strings.ToLower(g.voice), "chirp") {
		audioCfg.SpeakingRate = g.speed
		audioCfg.VolumeGainDb = g.volume
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode(g.voice),
			Name:         g.voice,
		},
		AudioConfig: audioCfg,
	}
	resp, err := g.client.SynthesizeSpeech(g.ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize headline: %w", err)
	}

	if err := os.WriteFile(path, resp.AudioContent, 0644); err != nil {
		return "", fmt.Errorf("failed to write mp3 to %s: %w", path, err)
	}
	logrus.WithField("file", path).Debug("Cached headline audio")
	return path, nil
}

// play blocks until the mp3 at path has been played or Stop is called.
func (g *GoogleClassicTTSEngine) play(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cached mp3 %s: %w", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode mp3 %s: %w", path, err)
	}
	defer streamer.Close()

	g.mu.Lock()
	if g.speakerRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			g.mu.Unlock()
			return fmt.Errorf("failed to init speaker: %w", err)
		}
		g.speakerRate = format.SampleRate
	}
	done := make(chan struct{})
	stop := make(chan struct{})
	g.stop = stop
	g.streamer = streamer
	g.ctrl = &beep.Ctrl{Streamer: streamer}
	g.isPlaying = true
	speaker.Play(beep.Seq(g.ctrl, beep.Callback(func() { close(done) })))
	g.mu.Unlock()

	select {
	case <-done:
	case <-stop:
	}

	g.mu.Lock()
	g.isPlaying = false
	g.ctrl = nil
	g.streamer = nil
	g.stop = nil
	g.mu.Unlock()
	return nil
}

func (g *GoogleClassicTTSEngine) SetVoice(voice string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voice = voice
	return nil
}

func (g *GoogleClassicTTSEngine) SetSpeed(speed float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.speed = speed
	return nil
}

func (g *GoogleClassicTTSEngine) SetVolume(volume float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.volume = volume
	return nil
}

// Stop ends the current headline and releases the blocked Speak call.
func (g *GoogleClassicTTSEngine) Stop() error {
	speaker.Clear()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
	g.isPlaying = false
	return nil
}

func (g *GoogleClassicTTSEngine) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Paused = true
		speaker.Unlock()
	}
	return nil
}

func (g *GoogleClassicTTSEngine) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Paused = false
		speaker.Unlock()
	}
	return nil
}

func (g *GoogleClassicTTSEngine) IsPlaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isPlaying
}

func (g *GoogleClassicTTSEngine) GetAvailableVoices() ([]string, error) {
	resp, err := g.client.ListVoices(g.ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: "en"})
	if err != nil {
		return nil, err
	}
	voices := make([]string, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// languageCode derives "en-US" from a voice name like "en-US-Chirp3-HD-Charon".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}
