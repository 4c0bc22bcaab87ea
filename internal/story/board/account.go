package board

import (
	"fmt"
	"storyfeed/internal/api"
	"storyfeed/internal/cli/prompt"
	"storyfeed/internal/cli/scheme/colours"
	"storyfeed/internal/domain/story"
	"storyfeed/internal/domain/user"
	"storyfeed/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// passwordPrompt is swapped in tests to avoid touching the terminal.
var passwordPrompt = prompt.Password

func (b *Board) ask(label string) (string, error) {
	return prompt.Text(b.ctx, b.in, b.out, colours.Prompt.Sprint(label))
}

func (b *Board) askPassword() (string, error) {
	return passwordPrompt(b.ctx, b.in, b.out, colours.Prompt.Sprint("Password"))
}

func (b *Board) SignupUser(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	name, _ := cmd.Flags().GetString("name")
	b.Signup(username, name)
}

// Signup creates an account and keeps the session.
func (b *Board) Signup(username, name string) {
	var err error
	if username == "" {
		if username, err = b.ask("Username"); err != nil {
			b.printFailure("Failed to read input", err)
			return
		}
	}
	if name == "" {
		if name, err = b.ask("Name"); err != nil {
			b.printFailure("Failed to read input", err)
			return
		}
	}
	password, err := b.askPassword()
	if err != nil {
		b.printFailure("Failed to read password", err)
		return
	}

	resp, err := user.Signup(b.ctx, b.client, username, password, name)
	b.finishAuth("Signup failed", resp, err)
}

func (b *Board) LoginUser(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	b.Login(username)
}

func (b *Board) Login(username string) {
	var err error
	if username == "" {
		if username, err = b.ask("Username"); err != nil {
			b.printFailure("Failed to read input", err)
			return
		}
	}
	password, err := b.askPassword()
	if err != nil {
		b.printFailure("Failed to read password", err)
		return
	}

	resp, err := user.Login(b.ctx, b.client, username, password)
	b.finishAuth("Login failed", resp, err)
}

func (b *Board) finishAuth(action string, resp api.Response[*user.User], err error) {
	if err != nil {
		b.printFailure(action, err)
		return
	}
	if resp.Error != nil {
		b.printAPIError(action, resp.Error)
		return
	}

	u := resp.Data
	st, err := b.openStore()
	if err != nil {
		b.printFailure("Logged in but could not save session", err)
		return
	}
	defer st.Close()

	if err := st.SaveCredentials(b.ctx, store.Credentials{Token: u.LoginToken, Username: u.Username}); err != nil {
		b.printFailure("Logged in but could not save session", err)
		return
	}

	colours.Success.Fprintf(b.out, "👋 Welcome, %s!\n", displayName(u))
}

func (b *Board) Logout(cmd *cobra.Command, args []string) {
	st, err := b.openStore()
	if err != nil {
		b.printFailure("Logout failed", err)
		return
	}
	defer st.Close()

	if err := st.ClearCredentials(b.ctx); err != nil {
		b.printFailure("Logout failed", err)
		return
	}
	colours.Success.Fprintln(b.out, "👋 Logged out.")
}

func (b *Board) Whoami(cmd *cobra.Command, args []string) {
	u := b.requireSession()
	if u == nil {
		return
	}

	colours.Title.Fprintf(b.out, "👤 %s\n", displayName(u))
	fmt.Fprintf(b.out, "   username:  %s\n", u.Username)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(b.out, "   member since: %s\n", u.CreatedAt.Format("2006-01-02"))
	}
	if info, err := store.TokenClaims(u.LoginToken); err == nil && !info.IssuedAt.IsZero() {
		fmt.Fprintf(b.out, "   logged in: %s\n", info.IssuedAt.Format("2006-01-02 15:04"))
	} else if err != nil {
		logrus.WithError(err).Debug("Token is not a JWT")
	}
	fmt.Fprintf(b.out, "   favorites: %d | stories: %d\n", len(u.Favorites()), len(u.OwnStories()))
}

func (b *Board) FavoriteStory(cmd *cobra.Command, args []string) {
	b.Favorite(args[0], true)
}

func (b *Board) UnfavoriteStory(cmd *cobra.Command, args []string) {
	b.Favorite(args[0], false)
}

// Favorite adds or removes one favorite.
func (b *Board) Favorite(storyID string, add bool) {
	u := b.requireSession()
	if u == nil {
		return
	}

	s := story.Story{StoryID: storyID}
	var (
		resp api.Response[bool]
		err  error
	)
	if add {
		resp, err = u.AddFavorite(b.ctx, s)
	} else {
		resp, err = u.RemoveFavorite(b.ctx, s)
	}
	if err != nil {
		b.printFailure("Failed to update favorites", err)
		return
	}
	if resp.Error != nil {
		b.printAPIError("Favorites not updated", resp.Error)
		return
	}

	if add {
		colours.Favorite.Fprintf(b.out, "★ Added %s to favorites", storyID)
	} else {
		colours.Success.Fprintf(b.out, "☆ Removed %s from favorites", storyID)
	}
	fmt.Fprintf(b.out, " (%d total)\n", len(u.Favorites()))
}

func (b *Board) ListFavorites(cmd *cobra.Command, args []string) {
	u := b.requireSession()
	if u == nil {
		return
	}
	colours.Title.Fprintln(b.out, "★ Favorite Stories")
	b.printStories(u.Favorites(), u, "No favorites added!")
}

func (b *Board) ListOwnStories(cmd *cobra.Command, args []string) {
	u := b.requireSession()
	if u == nil {
		return
	}
	colours.Title.Fprintln(b.out, "📝 My Stories")
	b.printStories(u.OwnStories(), u, "No stories added by user yet!")
}

func displayName(u *user.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
