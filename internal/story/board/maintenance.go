package board

import (
	"context"
	"fmt"
	"storyfeed/internal/cli/scheme/colours"
	"storyfeed/internal/story/tts"
	"storyfeed/internal/stubapi"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ShowCacheStatus displays information about the feed and audio caches.
func (b *Board) ShowCacheStatus(cmd *cobra.Command, args []string) {
	colours.Title.Fprintln(b.out, "📊 Feed Cache Status")

	info := b.cache.Info()
	if info.Exists {
		colours.Success.Fprintln(b.out, "✅ Cache exists")
		colours.Info.Fprintf(b.out, "📁 Location: %s\n", info.Path)
		colours.Info.Fprintf(b.out, "📏 Size: %d bytes\n", info.Size)
		colours.Info.Fprintf(b.out, "🕐 Last modified: %s\n", info.LastModified.Format("2006-01-02 15:04:05"))
		if info.Fresh {
			colours.Success.Fprintln(b.out, "🔄 Cache is fresh")
		} else {
			colours.Warning.Fprintln(b.out, "⏰ Cache is stale")
		}
		colours.Info.Fprintf(b.out, "⏳ Max age: %s\n", info.MaxAge)
	} else {
		colours.Warning.Fprintln(b.out, "❌ Cache does not exist")
		colours.Info.Fprintln(b.out, "💡 Run 'storyfeed list' to create it")
	}

	stats, err := tts.ReadAudioCache(b.cfg.TTS.CachePath)
	if err != nil {
		logrus.WithError(err).Debug("Failed to read audio cache")
		return
	}
	if stats.Files == 0 {
		return
	}
	fmt.Fprintln(b.out)
	colours.Title.Fprintln(b.out, "🔊 Audio Cache")
	colours.Info.Fprintf(b.out, "📁 Location: %s\n", stats.Directory)
	colours.Info.Fprintf(b.out, "🎧 Headlines: %d across %d stories\n", stats.Files, stats.Stories)
	colours.Info.Fprintf(b.out, "📏 Size: %.2f MB\n", stats.SizeMB())
}

// ClearCache removes the feed snapshot and any cached audio.
func (b *Board) ClearCache(cmd *cobra.Command, args []string) {
	if err := b.cache.Clear(); err != nil {
		b.printFailure("Failed to clear cache", err)
		return
	}
	if err := tts.ClearAudioCache(b.cfg.TTS.CachePath); err != nil {
		b.printFailure("Failed to clear audio cache", err)
		return
	}
	colours.Success.Fprintln(b.out, "🧹 Cache cleared")
}

func (b *Board) RunStubServer(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = b.cfg.Stub.Addr
	}
	if err := b.ServeStub(addr); err != nil {
		b.printFailure("Stub API stopped", err)
	}
}

// ServeStub runs the in-memory story API on addr until the board's context
// is cancelled.
func (b *Board) ServeStub(addr string) error {
	srv := stubapi.New(stubapi.Options{Secret: b.cfg.Stub.Secret})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	colours.Success.Fprintf(b.out, "🧪 Stub story API listening on %s\n", addr)
	colours.Info.Fprintf(b.out, "💡 Point STORYFEED_API_BASE_URL at http://localhost%s\n", addr)

	select {
	case err := <-errCh:
		return err
	case <-b.ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down stub API: %w", err)
	}
	return <-errCh
}
