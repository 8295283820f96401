package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/client/client"
	"github.com/dmitrijs2005/steamhub/internal/client/services"
)

// permanentYear matches the storefront: expirations past it are lifetime.
const permanentYear = 2030

// Test seams for interactive input.
var (
	readLine    = ReadLine
	getPassword = GetPassword
)

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) credentials() (string, string, error) {
	email, err := readLine(a.reader, "Email", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

// Login prompts for credentials and opens a session for this device.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}

	s, err := a.launcher.Login(ctx, email, password)
	if err != nil {
		a.printf("Login failed: %s\n", err)
		return err
	}

	a.welcome(s)
	return nil
}

// Resume logs in with the saved app token.
func (a *App) Resume(ctx context.Context) error {
	return a.resume(ctx, false)
}

func (a *App) resume(ctx context.Context, quiet bool) error {
	s, err := a.launcher.Resume(ctx)
	if err != nil {
		a.userName = ""
		if !(quiet && errors.Is(err, services.ErrNoSession)) {
			a.printf("Could not resume session: %s\n", err)
		}
		return err
	}

	a.welcome(s)
	return nil
}

// Games lists the library saved by the last login.
func (a *App) Games(ctx context.Context) error {
	games, err := a.launcher.Games(ctx)
	if err != nil {
		a.printf("%s\n", err)
		return err
	}
	a.printGames(games)
	return nil
}

// Logout closes the session on the server and forgets it locally.
func (a *App) Logout(ctx context.Context) error {
	if err := a.launcher.Logout(ctx); err != nil {
		a.printf("Logout failed: %s\n", err)
		return err
	}
	a.userName = ""
	a.printf("Logged out\n")
	return nil
}

// Download fetches the desktop installer. It needs the account password
// because the download link is issued to website sessions only.
func (a *App) Download(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}

	d, err := a.launcher.DownloadInstaller(ctx, email, password)
	if err != nil {
		a.printf("Download failed: %s\n", err)
		return err
	}

	a.printf("Saved %s (%d bytes)\nSHA-256: %s\n", d.Path, d.Size, d.SHA256)
	return nil
}

func (a *App) welcome(s *client.Session) {
	a.userName = s.UserName
	a.printf("Welcome, %s!\n", s.UserName)
	a.printGames(s.Games)
}

func (a *App) printGames(games []client.Game) {
	if len(games) == 0 {
		a.printf("No active games\n")
		return
	}
	for _, g := range games {
		a.printf("  %-32s %-20s %s\n", g.Title, g.Developer, formatExpiry(g.ExpirationDate))
	}
}

func formatExpiry(t time.Time) string {
	if t.Year() > permanentYear {
		return "permanent"
	}
	return "until " + t.UTC().Format("2006-01-02 15:04") + " UTC"
}
