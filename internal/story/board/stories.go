package board

import (
	"context"
	"fmt"
	"sort"
	"storyfeed/internal/cli/scheme/colours"
	"storyfeed/internal/domain/library"
	"storyfeed/internal/domain/story"
	"storyfeed/internal/domain/storylist"
	"storyfeed/internal/story/tts"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (b *Board) ListStories(cmd *cobra.Command, args []string) {
	skip, _ := cmd.Flags().GetInt("skip")
	limit, _ := cmd.Flags().GetInt("limit")
	refresh, _ := cmd.Flags().GetBool("refresh")
	b.List(skip, limit, refresh)
}

// List prints the feed. Paged requests bypass the cache.
func (b *Board) List(skip, limit int, refresh bool) {
	var stories []story.Story
	if skip > 0 || limit > 0 {
		list, err := storylist.FetchPage(b.ctx, b.client, skip, limit)
		if err != nil {
			b.printFailure("Failed to load stories", err)
			return
		}
		stories = list.Stories
	} else {
		if refresh {
			if err := b.cache.Clear(); err != nil {
				logrus.WithError(err).Warn("Failed to clear feed cache")
			}
		}
		snap, err := b.feed()
		if err != nil {
			b.printFailure("Failed to load stories", err)
			return
		}
		stories = snap.Stories
	}

	u := b.restoreSession()

	fmt.Fprintln(b.out)
	colours.Title.Fprintln(b.out, "📰 Latest Stories 📰")
	fmt.Fprintln(b.out)
	b.printStories(stories, u, "🔍 No stories yet.")
	if len(stories) > 0 {
		fmt.Fprintln(b.out)
		colours.Success.Fprintf(b.out, "✨ %d stories\n", len(stories))
	}
}

// feed returns the cached feed, fetching it when stale.
func (b *Board) feed() (*library.Snapshot, error) {
	return b.cache.Get(b.ctx, func(ctx context.Context) ([]story.Story, error) {
		list, err := storylist.FetchAll(ctx, b.client)
		if err != nil {
			return nil, err
		}
		return list.Stories, nil
	})
}

// cachedList is the on-disk feed as a StoryList, so edits made here keep the
// snapshot in step. The returned snapshot is nil when nothing is cached.
func (b *Board) cachedList() (*storylist.StoryList, *library.Snapshot) {
	snap, err := b.cache.Load()
	if err != nil {
		return storylist.New(b.client, nil), nil
	}
	return storylist.New(b.client, snap.Stories), snap
}

func (b *Board) saveList(list *storylist.StoryList, snap *library.Snapshot) {
	if snap == nil {
		return
	}
	snap.Stories = list.Stories
	snap.TotalStories = len(list.Stories)
	if err := b.cache.Save(snap); err != nil {
		logrus.WithError(err).Warn("Failed to update feed cache")
	}
}

func (b *Board) ShowStory(cmd *cobra.Command, args []string) {
	b.Show(args[0])
}

func (b *Board) Show(storyID string) {
	resp, err := storylist.FetchStory(b.ctx, b.client, storyID)
	if err != nil {
		b.printFailure("Failed to load story", err)
		return
	}
	if resp.Error != nil {
		b.printAPIError("Story not available", resp.Error)
		return
	}

	s := resp.Data
	fmt.Fprintln(b.out)
	colours.Title.Fprintf(b.out, "📖 %s\n", s.Title)
	colours.Author.Fprintf(b.out, "✍️  by %s\n", s.Author)
	fmt.Fprintf(b.out, "🔗 %s\n", s.URL)
	fmt.Fprintf(b.out, "👤 posted by %s on %s\n", s.Username, s.CreatedAt.Format("2006-01-02 15:04"))
	colours.Info.Fprintf(b.out, "ID: %s\n", s.StoryID)
}

func (b *Board) SubmitStory(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	author, _ := cmd.Flags().GetString("author")
	url, _ := cmd.Flags().GetString("url")
	b.Submit(story.NewStory{Title: title, Author: author, URL: url})
}

// Submit posts a story, asking for any missing field.
func (b *Board) Submit(in story.NewStory) {
	u := b.requireSession()
	if u == nil {
		return
	}

	fields := []struct {
		label string
		value *string
	}{
		{"Title", &in.Title},
		{"Author", &in.Author},
		{"URL", &in.URL},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := b.ask(f.label)
		if err != nil {
			b.printFailure("Failed to read input", err)
			return
		}
		*f.value = v
	}

	if problems := in.Validate(); len(problems) > 0 {
		keys := make([]string, 0, len(problems))
		for k := range problems {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		colours.Error.Fprintln(b.out, "❌ Story not submitted:")
		for _, k := range keys {
			fmt.Fprintf(b.out, "   • %s: %s\n", k, problems[k])
		}
		return
	}

	list, snap := b.cachedList()
	resp, err := list.AddStory(b.ctx, u, in)
	if err != nil {
		b.printFailure("Failed to submit story", err)
		return
	}
	if resp.Error != nil {
		b.printAPIError("Story rejected", resp.Error)
		return
	}
	b.saveList(list, snap)

	colours.Success.Fprintf(b.out, "✅ Posted %q\n", resp.Data.Title)
	colours.Info.Fprintf(b.out, "ID: %s\n", resp.Data.StoryID)
}

func (b *Board) DeleteStory(cmd *cobra.Command, args []string) {
	b.Delete(args[0])
}

func (b *Board) Delete(storyID string) {
	u := b.requireSession()
	if u == nil {
		return
	}

	list, snap := b.cachedList()
	resp, err := list.DeleteStory(b.ctx, u, storyID)
	if err != nil {
		b.printFailure("Failed to delete story", err)
		return
	}
	if resp.Error != nil {
		b.printAPIError("Story not deleted", resp.Error)
		return
	}
	b.saveList(list, snap)
	if err := tts.ClearStoryAudio(b.cfg.TTS.CachePath, storyID); err != nil {
		logrus.WithError(err).Warn("Failed to remove cached audio for story")
	}

	colours.Success.Fprintf(b.out, "🗑️  Deleted story %s\n", resp.Data)
}

// ReadOptions tunes a read session. Zero values keep the configured engine
// settings.
type ReadOptions struct {
	Count  int
	Voice  string
	Speed  float64
	Volume float64
}

func (b *Board) ReadHeadlines(cmd *cobra.Command, args []string) {
	var opts ReadOptions
	opts.Count, _ = cmd.Flags().GetInt("count")
	opts.Voice, _ = cmd.Flags().GetString("voice")
	opts.Speed, _ = cmd.Flags().GetFloat64("speed")
	opts.Volume, _ = cmd.Flags().GetFloat64("volume")
	b.Read(opts)
}

// readEvent is sent by the speaking goroutine as each headline starts, or
// once with err set when the engine fails.
type readEvent struct {
	n     int
	story story.Story
	err   error
}

// Read speaks the newest headlines one after another. Lines typed while it
// runs control playback: p pauses or resumes, r resumes, s stops.
func (b *Board) Read(opts ReadOptions) {
	engine, err := b.ttsEngine()
	if err != nil {
		b.printFailure("Failed to start speech engine", err)
		return
	}
	if err := tune(engine, opts); err != nil {
		b.printFailure("Failed to apply speech settings", err)
		return
	}

	snap, err := b.feed()
	if err != nil {
		b.printFailure("Failed to load stories", err)
		return
	}
	stories := snap.Stories
	if opts.Count > 0 && opts.Count < len(stories) {
		stories = stories[:opts.Count]
	}
	if len(stories) == 0 {
		colours.Warning.Fprintln(b.out, "🔍 No stories to read.")
		return
	}

	fmt.Fprintln(b.out)
	colours.Success.Fprintln(b.out, "🎵 Reading headlines... 🎵")
	fmt.Fprintln(b.out, "💡 Type 'p' to pause/resume, 'r' to resume, 's' to stop")
	fmt.Fprintln(b.out)

	ctx, cancel := context.WithCancel(b.ctx)
	defer cancel()

	start := time.Now()
	events := b.speakAll(ctx, engine, stories)
	lines := b.controlLines(ctx)

	stop := func() {
		cancel()
		if err := engine.Stop(); err != nil {
			logrus.WithError(err).Debug("Failed to stop tts engine")
		}
		for range events {
		}
		colours.Warning.Fprintln(b.out, "⏹️  Stopped")
	}

	paused := false
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				logrus.WithFields(logrus.Fields{
					"stories":  len(stories),
					"duration": time.Since(start).Round(time.Millisecond),
				}).Debug("Finished reading headlines")
				colours.Success.Fprintln(b.out, "✅ That's the news!")
				return
			}
			if ev.err != nil {
				b.printFailure("TTS error", ev.err)
				return
			}
			colours.Title.Fprintf(b.out, "%d. %s\n", ev.n, ev.story.Title)

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			switch strings.ToLower(line) {
			case "p", "pause":
				if paused {
					b.resume(engine)
				} else {
					if err := engine.Pause(); err != nil {
						logrus.WithError(err).Debug("Failed to pause tts engine")
					}
					colours.Warning.Fprintln(b.out, "⏸️  Paused")
				}
				paused = !paused
			case "r", "resume":
				if paused {
					b.resume(engine)
					paused = false
				}
			case "s", "stop":
				stop()
				return
			default:
				colours.Info.Fprintln(b.out, "ℹ️  Use 'p' to pause/resume, 'r' to resume, 's' to stop")
			}

		case <-b.ctx.Done():
			stop()
			return
		}
	}
}

func (b *Board) resume(engine tts.Engine) {
	if err := engine.Resume(); err != nil {
		logrus.WithError(err).Debug("Failed to resume tts engine")
	}
	colours.Success.Fprintln(b.out, "▶️  Resumed")
}

// speakAll speaks each story in turn on its own goroutine. The channel is
// closed when it is done or ctx is cancelled.
func (b *Board) speakAll(ctx context.Context, engine tts.Engine, stories []story.Story) <-chan readEvent {
	events := make(chan readEvent)
	go func() {
		defer close(events)
		for i, s := range stories {
			select {
			case events <- readEvent{n: i + 1, story: s}:
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}
			if aware, ok := engine.(tts.StoryAwareEngine); ok {
				aware.SetStoryContext(s.StoryID)
			}
			if err := engine.Speak(tts.Headline(s)); err != nil {
				select {
				case events <- readEvent{err: err}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()
	return events
}

// controlLines feeds non-empty input lines until EOF. The goroutine can stay
// blocked on a terminal read after Read returns; nothing else reads b.in then.
func (b *Board) controlLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := b.in.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

// tune applies any non-zero read options to the engine.
func tune(engine tts.Engine, opts ReadOptions) error {
	if opts.Voice != "" {
		if err := engine.SetVoice(opts.Voice); err != nil {
			return fmt.Errorf("voice %q: %w", opts.Voice, err)
		}
	}
	if opts.Speed > 0 {
		if err := engine.SetSpeed(opts.Speed); err != nil {
			return fmt.Errorf("speed %.2f: %w", opts.Speed, err)
		}
	}
	if opts.Volume > 0 {
		if err := engine.SetVolume(opts.Volume); err != nil {
			return fmt.Errorf("volume %.2f: %w", opts.Volume, err)
		}
	}
	return nil
}
