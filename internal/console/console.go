// Package console drives the interactive session: login, the action
// menu and the printing around the wall operations.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"wallsweep/internal/archive"
	"wallsweep/internal/authweb"
	"wallsweep/internal/config"
	"wallsweep/internal/confirm"
	"wallsweep/internal/export"
	"wallsweep/internal/vk"
	"wallsweep/internal/wall"

	"github.com/howeyc/gopass"
	"github.com/rs/zerolog"
)

// Console wires the menu loop to the wall service. The fields are a
// seam: tests swap In, Out and ReadSecret for scripted equivalents.
type Console struct {
	In         *bufio.Reader
	Out        io.Writer
	Log        zerolog.Logger
	Client     *vk.Client
	Sweeper    *wall.Service
	Store      *archive.Store
	Cfg        *config.Config
	ReadSecret func(prompt string) (string, error)
}

func New(cfg *config.Config, client *vk.Client, sweeper *wall.Service, store *archive.Store, logger zerolog.Logger) *Console {
	return &Console{
		In:      bufio.NewReader(os.Stdin),
		Out:     os.Stdout,
		Log:     logger,
		Client:  client,
		Sweeper: sweeper,
		Store:   store,
		Cfg:     cfg,
	}
}

// Run logs in and serves the menu until the user exits or the input
// ends. Only a failed login is an error.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.Out, bannerStyle.Render("wallsweep - VK wall management"))
	fmt.Fprintln(c.Out, dimStyle.Render(strings.Repeat("=", 40)))

	session, err := c.Login(ctx)
	if err != nil {
		return err
	}

	for {
		c.printMenu()

		choice, err := c.readLine("Your choice: ")
		if err != nil {
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			c.exportPosts(ctx, session)
		case "2":
			c.countPosts(ctx, session)
		case "3":
			c.quickDelete(ctx, session)
		case "4":
			c.detailDelete(ctx, session)
		case "0":
			fmt.Fprintln(c.Out, "Exiting...")
			return nil
		default:
			fmt.Fprintln(c.Out, warnStyle.Render("Invalid choice"))
		}
	}
}

// Login walks the manual token flow: print the authorization URL, read
// the token, resolve the account behind it. A token in the environment
// skips the prompt; an overridden redirect URI arms the local catcher
// before falling back to manual entry.
func (c *Console) Login(ctx context.Context) (vk.Session, error) {
	token := c.Cfg.Auth.Token

	if token == "" {
		fmt.Fprintln(c.Out, "An access_token is required.")
		fmt.Fprintln(c.Out, "Get one at:")
		fmt.Fprintln(c.Out, linkStyle.Render(vk.AuthURL(c.Cfg.Auth.ClientID, c.Cfg.Auth.RedirectURI)))
		fmt.Fprintln(c.Out, "\nAfter authorizing, copy the access_token from the address bar.")

		if c.Cfg.Auth.RedirectURI != vk.DefaultRedirectURI {
			token = c.waitForRedirect(ctx)
		}

		if token == "" {
			line, err := c.readSecret("Enter access_token (or paste the redirect URL): ")
			if err != nil {
				return vk.Session{}, fmt.Errorf("read token: %w", err)
			}
			token = line
		}
	}

	token = vk.TokenFromInput(token)
	if token == "" {
		return vk.Session{}, errors.New("empty access token")
	}

	session, err := c.Client.Authorize(ctx, token)
	if err != nil {
		return vk.Session{}, err
	}

	fmt.Fprintf(c.Out, "%s User ID: %d\n", okStyle.Render("Authorization successful!"), session.UserID)
	return session, nil
}

func (c *Console) waitForRedirect(ctx context.Context) string {
	fmt.Fprintf(c.Out, "Listening on %s for the browser redirect...\n", c.Cfg.Auth.ListenAddr)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	token, err := authweb.NewServer(c.Log).Wait(waitCtx, c.Cfg.Auth.ListenAddr)
	if err != nil {
		c.Log.Warn().Err(err).Msg("token listener gave up, falling back to manual entry")
		return ""
	}
	return token
}

func (c *Console) printMenu() {
	fmt.Fprintln(c.Out, "\nChoose an action:")
	fmt.Fprintln(c.Out, "1 - Fetch all posts and save them to a file")
	fmt.Fprintln(c.Out, "2 - Show the post count")
	fmt.Fprintln(c.Out, "3 - Delete all posts (QUICK CONFIRMATION)")
	fmt.Fprintln(c.Out, "4 - Delete all posts (DETAILED CONFIRMATION)")
	fmt.Fprintln(c.Out, "0 - Exit")
}

func (c *Console) exportPosts(ctx context.Context, session vk.Session) {
	posts := c.Sweeper.EnumerateAll(ctx, session)
	if len(posts) == 0 {
		fmt.Fprintln(c.Out, "No posts found, nothing to save.")
		return
	}
	c.Store.SavePosts(ctx, posts)

	blocks := export.Format(posts)
	if err := export.Save(c.Cfg.Export.Filename, blocks); err != nil {
		c.Log.Error().Err(err).Str("path", c.Cfg.Export.Filename).Msg("export failed")
		fmt.Fprintln(c.Out, failStyle.Render("Export failed: "+err.Error()))
		return
	}
	fmt.Fprintf(c.Out, "Saved %d posts to %s\n", len(blocks), c.Cfg.Export.Filename)
}

func (c *Console) countPosts(ctx context.Context, session vk.Session) {
	posts := c.Sweeper.EnumerateAll(ctx, session)
	c.Store.SavePosts(ctx, posts)
	fmt.Fprintf(c.Out, "Total posts on the wall: %d\n", len(posts))
}

// quickDelete confirms before touching the API at all: an abort here
// costs zero calls.
func (c *Console) quickDelete(ctx context.Context, session vk.Session) {
	gate := confirm.NewGate(c.In, c.Out)
	if !gate.Fast() {
		fmt.Fprintln(c.Out, "Operation cancelled.")
		return
	}

	posts := c.Sweeper.EnumerateAll(ctx, session)
	if len(posts) == 0 {
		fmt.Fprintln(c.Out, "No posts to delete.")
		return
	}
	c.Store.SavePosts(ctx, posts)

	fmt.Fprintf(c.Out, "Found posts to delete: %d\n", len(posts))
	c.runDelete(ctx, session, posts)
}

// detailDelete enumerates first so the gate can preview what is about
// to disappear.
func (c *Console) detailDelete(ctx context.Context, session vk.Session) {
	posts := c.Sweeper.EnumerateAll(ctx, session)
	if len(posts) == 0 {
		fmt.Fprintln(c.Out, "No posts to delete.")
		return
	}
	c.Store.SavePosts(ctx, posts)

	gate := confirm.NewGate(c.In, c.Out)
	if !gate.Thorough(posts) {
		fmt.Fprintln(c.Out, "Operation cancelled.")
		return
	}

	c.runDelete(ctx, session, posts)
}

func (c *Console) runDelete(ctx context.Context, session vk.Session, posts []vk.Post) {
	summary := c.Sweeper.DeleteAll(ctx, session, posts)
	c.Store.RecordOutcomes(ctx, session.UserID, summary.Outcomes)

	fmt.Fprintln(c.Out, "\nDeletion finished:")
	fmt.Fprintf(c.Out, "Deleted: %d\n", summary.Deleted)
	fmt.Fprintf(c.Out, "Failed: %d\n", summary.Failed)
	for _, outcome := range summary.Outcomes {
		if outcome.Err != nil {
			fmt.Fprintln(c.Out, failStyle.Render(fmt.Sprintf("  post %d: %v", outcome.PostID, outcome.Err)))
		}
	}

	if summary.AllDeleted() {
		fmt.Fprintln(c.Out, okStyle.Render("Deletion completed successfully"))
	} else {
		fmt.Fprintln(c.Out, warnStyle.Render("Deletion completed with errors"))
	}
}

func (c *Console) readLine(prompt string) (string, error) {
	fmt.Fprint(c.Out, prompt)

	line, err := c.In.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

// readSecret masks the token when a terminal is attached and falls
// back to a plain line read when it is not.
func (c *Console) readSecret(prompt string) (string, error) {
	if c.ReadSecret != nil {
		return c.ReadSecret(prompt)
	}

	fmt.Fprint(c.Out, prompt)
	if data, err := gopass.GetPasswdMasked(); err == nil {
		return string(data), nil
	}

	line, err := c.In.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
