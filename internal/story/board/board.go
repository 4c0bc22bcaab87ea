package board

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"storyfeed/internal/api"
	"storyfeed/internal/cli/scheme/colours"
	"storyfeed/internal/config"
	"storyfeed/internal/domain/library"
	"storyfeed/internal/domain/story"
	"storyfeed/internal/domain/user"
	"storyfeed/internal/store"
	"storyfeed/internal/story/tts"
	"sync"

	"github.com/sirupsen/logrus"
)

// Options configures a Board. Zero values fall back to stdin, stdout and a
// TTS engine built from the config.
type Options struct {
	Config     config.Config
	In         io.Reader
	Out        io.Writer
	Engine     tts.Engine
	HTTPClient *http.Client
}

// Board is the storyfeed CLI application.
type Board struct {
	cfg    config.Config
	client *api.Client
	cache  *library.Cache
	in     *bufio.Reader
	out    io.Writer

	engineMu  sync.Mutex
	engine    tts.Engine
	engineErr error

	ctx    context.Context
	Cancel context.CancelFunc
}

func New(opts Options) *Board {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	client := api.New(api.Options{
		BaseURL:    opts.Config.API.BaseURL,
		Timeout:    opts.Config.API.Timeout,
		RateLimit:  opts.Config.API.RateLimit,
		Burst:      opts.Config.API.Burst,
		UserAgent:  "storyfeed",
		HTTPClient: opts.HTTPClient,
	})

	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{
		cfg:    opts.Config,
		client: client,
		cache:  library.NewCache(opts.Config.Cache.Dir, client.BaseURL(), opts.Config.Cache.MaxAge),
		in:     bufio.NewReader(in),
		out:    out,
		ctx:    ctx,
		Cancel: cancel,
	}
	b.engine = opts.Engine
	return b
}

// Close stops any playback and cancels in-flight requests.
func (b *Board) Close() {
	b.Cancel()
	b.engineMu.Lock()
	engine := b.engine
	b.engineMu.Unlock()
	if engine != nil {
		if err := engine.Stop(); err != nil {
			logrus.WithError(err).Debug("Failed to stop tts engine")
		}
	}
}

func (b *Board) ShowWelcome() {
	fmt.Fprintln(b.out)
	colours.Title.Fprintln(b.out, "📰 Welcome to storyfeed! 📰")
	fmt.Fprintln(b.out)
	colours.Info.Fprintln(b.out, "📚 Available commands:")
	fmt.Fprintln(b.out, "  • storyfeed list       - Browse the latest stories")
	fmt.Fprintln(b.out, "  • storyfeed submit     - Share a story")
	fmt.Fprintln(b.out, "  • storyfeed favorites  - Show your favorite stories")
	fmt.Fprintln(b.out, "  • storyfeed read       - Listen to today's headlines")
	fmt.Fprintln(b.out, "  • storyfeed login      - Sign in to your account")
	fmt.Fprintln(b.out)
}

// ttsEngine builds the configured engine on first use. A failed build is
// remembered and not retried.
func (b *Board) ttsEngine() (tts.Engine, error) {
	b.engineMu.Lock()
	defer b.engineMu.Unlock()
	if b.engine == nil && b.engineErr == nil {
		b.engine, b.engineErr = tts.NewEngine(tts.Config{
			Type:      b.cfg.TTS.Type,
			Speed:     b.cfg.TTS.Speed,
			Volume:    b.cfg.TTS.Volume,
			Voice:     b.cfg.TTS.Voice,
			CachePath: b.cfg.TTS.CachePath,
			Out:       b.out,
		})
	}
	return b.engine, b.engineErr
}

func (b *Board) openStore() (*store.Store, error) {
	st, err := store.Open(b.ctx, b.cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return st, nil
}

// restoreSession brings back the saved login, or nil when there is none or
// the API no longer accepts it.
func (b *Board) restoreSession() *user.User {
	st, err := b.openStore()
	if err != nil {
		logrus.WithError(err).Warn("Cannot restore session")
		return nil
	}
	defer st.Close()

	creds, err := st.LoadCredentials(b.ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNoCredentials) {
			logrus.WithError(err).Warn("Failed to load stored credentials")
		}
		return nil
	}
	return user.LoginViaStoredCredentials(b.ctx, b.client, creds.Token, creds.Username)
}

// requireSession is restoreSession with the "not logged in" message.
func (b *Board) requireSession() *user.User {
	u := b.restoreSession()
	if u == nil {
		colours.Warning.Fprintln(b.out, "🔒 Not logged in. Run 'storyfeed login' first.")
	}
	return u
}

func (b *Board) printAPIError(action string, apiErr *api.APIError) {
	colours.Error.Fprintf(b.out, "❌ %s: %s\n", action, apiErr.Message)
	logrus.WithFields(logrus.Fields{
		"status": apiErr.Status,
		"title":  apiErr.Title,
	}).Debug(action)
}

func (b *Board) printFailure(action string, err error) {
	colours.Error.Fprintf(b.out, "❌ %s: %v\n", action, err)
}

// printStory renders one feed line. u may be nil.
func (b *Board) printStory(n int, s story.Story, u *user.User) {
	marker := "  "
	if u != nil && u.IsFavorite(s) {
		marker = colours.Favorite.Sprint("★ ")
	}
	fmt.Fprintf(b.out, "%s%d. ", marker, n)
	colours.Title.Fprint(b.out, s.Title)
	if host, err := s.Hostname(); err == nil {
		colours.Host.Fprintf(b.out, " (%s)", host)
	}
	fmt.Fprintln(b.out)
	fmt.Fprint(b.out, "     by ")
	colours.Author.Fprint(b.out, s.Author)
	fmt.Fprintf(b.out, " | posted by %s", s.Username)
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(b.out, " on %s", s.CreatedAt.Format("2006-01-02"))
	}
	if u != nil && u.IsOwn(s) {
		colours.Success.Fprint(b.out, " (yours)")
	}
	fmt.Fprintln(b.out)
	colours.Info.Fprintf(b.out, "     ID: %s\n", s.StoryID)
}

func (b *Board) printStories(stories []story.Story, u *user.User, empty string) {
	if len(stories) == 0 {
		colours.Warning.Fprintln(b.out, empty)
		return
	}
	for i, s := range stories {
		b.printStory(i+1, s, u)
	}
}
