package main

import (
	"fmt"
	"os"
	"os/signal"
	"storyfeed/internal/cli/scheme/colours"
	"storyfeed/internal/config"
	"storyfeed/internal/story/board"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := config.Init(); err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	cfg := config.Load()
	config.SetupLogger(cfg.Log)

	app := board.New(board.Options{Config: cfg})

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// The first signal cancels the running command; a second one exits.
	go func() {
		<-sigChan
		app.Close()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye!"))
		<-sigChan
		os.Exit(1)
	}()

	rootCmd := &cobra.Command{
		Use:   "storyfeed",
		Short: "📰 Share and read stories from the command line",
		Long: `
┌─────────────────────────────────────┐
│  📰 storyfeed                       │
│  Share links, keep favorites,       │
│  hear the headlines 🔊              │
└─────────────────────────────────────┘

storyfeed talks to the hack-or-snooze story API: browse the feed, post
and delete your own stories and keep a list of favorites.
		`,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}

	// Feed commands
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List the latest stories",
		Long:  "Display the story feed, served from the local cache while it is fresh",
		Run:   app.ListStories,
	}
	showCmd := &cobra.Command{
		Use:   "show <story-id>",
		Short: "📖 Show one story",
		Args:  cobra.ExactArgs(1),
		Run:   app.ShowStory,
	}
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "✏️  Submit a story",
		Long:  "Post a new story. Missing fields are asked for interactively",
		Run:   app.SubmitStory,
	}
	deleteCmd := &cobra.Command{
		Use:   "delete <story-id>",
		Short: "🗑️  Delete one of your stories",
		Args:  cobra.ExactArgs(1),
		Run:   app.DeleteStory,
	}
	readCmd := &cobra.Command{
		Use:   "read",
		Short: "🔊 Read the headlines aloud",
		Long:  "Read the newest headlines aloud. While reading, type p to pause or resume, r to resume and s to stop",
		Run:   app.ReadHeadlines,
	}

	// Favorites
	favoriteCmd := &cobra.Command{
		Use:   "favorite <story-id>",
		Short: "★ Add a story to your favorites",
		Args:  cobra.ExactArgs(1),
		Run:   app.FavoriteStory,
	}
	unfavoriteCmd := &cobra.Command{
		Use:   "unfavorite <story-id>",
		Short: "☆ Remove a story from your favorites",
		Args:  cobra.ExactArgs(1),
		Run:   app.UnfavoriteStory,
	}
	favoritesCmd := &cobra.Command{
		Use:   "favorites",
		Short: "★ List your favorite stories",
		Run:   app.ListFavorites,
	}
	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "📝 List the stories you posted",
		Run:   app.ListOwnStories,
	}

	// Account
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "🆕 Create an account",
		Run:   app.SignupUser,
	}
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "🔑 Log in",
		Run:   app.LoginUser,
	}
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "🚪 Forget the saved session",
		Run:   app.Logout,
	}
	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "👤 Show the logged in user",
		Run:   app.Whoami,
	}

	// Cache parent command
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "📦 Manage the local feed cache",
	}
	cacheStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache status",
		Run:   app.ShowCacheStatus,
	}
	cacheClearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🧹 Clear cached stories and audio",
		Run:   app.ClearCache,
	}
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd)

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show speech settings, engines and voices",
		Run:   app.ConfigureSettings,
	}

	stubCmd := &cobra.Command{
		Use:   "stub-server",
		Short: "🧪 Run an in-memory story API for local development",
		Run:   app.RunStubServer,
	}

	// Add flags
	listCmd.Flags().Int("skip", 0, "Number of stories to skip")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of stories to show")
	listCmd.Flags().BoolP("refresh", "r", false, "Ignore the cache and fetch the feed again")
	submitCmd.Flags().StringP("title", "t", "", "Story title")
	submitCmd.Flags().StringP("author", "a", "", "Story author")
	submitCmd.Flags().StringP("url", "u", "", "Story URL")
	readCmd.Flags().IntP("count", "c", 5, "Number of headlines to read")
	readCmd.Flags().String("voice", "", "Voice to read with (see 'storyfeed settings')")
	readCmd.Flags().Float64("speed", 0, "Speaking rate, 1.0 is normal")
	readCmd.Flags().Float64("volume", 0, "Volume between 0 and 1")
	signupCmd.Flags().StringP("username", "u", "", "Username")
	signupCmd.Flags().String("name", "", "Display name")
	loginCmd.Flags().StringP("username", "u", "", "Username")
	stubCmd.Flags().String("addr", "", "Listen address (defaults to stub.addr)")

	rootCmd.AddCommand(
		listCmd, showCmd, submitCmd, deleteCmd, readCmd,
		favoriteCmd, unfavoriteCmd, favoritesCmd, mineCmd,
		signupCmd, loginCmd, logoutCmd, whoamiCmd,
		cacheCmd, settingsCmd, stubCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}
