// Package services contains the desktop launcher's application logic: device
// identity, app login and resume, the cached library and installer download.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/steamhub/internal/client/client"
	"github.com/dmitrijs2005/steamhub/internal/client/state"
	"github.com/dmitrijs2005/steamhub/internal/cryptox"
	"github.com/dmitrijs2005/steamhub/internal/filex"
	"github.com/dmitrijs2005/steamhub/internal/netx"
	"github.com/google/uuid"
)

const (
	downloadDir   = "downloads"
	installerName = "SteamHub.exe"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoSession   = errors.New("no saved session, log in first")
)

// API is the subset of the storefront API the launcher uses.
type API interface {
	Login(ctx context.Context, email, password, deviceID, deviceName string) (*client.Session, error)
	LoginWithToken(ctx context.Context, token, deviceID string) (*client.Session, error)
	Logout(ctx context.Context, email string) error
	WebLogin(ctx context.Context, email, password string) (string, error)
	DownloadURL(ctx context.Context, webToken string) (string, error)
}

// Download describes a fetched installer.
type Download struct {
	Path   string
	Size   int64
	SHA256 string
}

type Launcher struct {
	api        API
	state      state.Repository
	httpClient *http.Client
	baseDir    string
	hostname   func() (string, error)
	newID      func() string
}

func NewLauncher(api API, st state.Repository, httpClient *http.Client) *Launcher {
	return &Launcher{
		api:        api,
		state:      st,
		httpClient: httpClient,
		hostname:   os.Hostname,
		newID:      uuid.NewString,
	}
}

// DeviceID returns the persistent id of this installation, creating it on
// first use.
func (l *Launcher) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := l.state.Get(ctx, state.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = l.newID()
	if err := l.state.Set(ctx, state.KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

// Login opens a device session and caches the returned token and library.
func (l *Launcher) Login(ctx context.Context, email, password string) (*client.Session, error) {
	deviceID, err := l.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	deviceName, err := l.hostname()
	if err != nil || deviceName == "" {
		deviceName = "desktop"
	}

	s, err := l.api.Login(ctx, email, password, deviceID, deviceName)
	if err != nil {
		return nil, err
	}

	if err := l.state.Set(ctx, state.KeyEmail, email); err != nil {
		return nil, err
	}
	if err := l.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Resume logs in again with the saved app token. A token the server no
// longer accepts is forgotten.
func (l *Launcher) Resume(ctx context.Context) (*client.Session, error) {
	token, ok, err := l.state.Get(ctx, state.KeyAppToken)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, ErrNoSession
	}

	deviceID, err := l.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	s, err := l.api.LoginWithToken(ctx, token, deviceID)
	if err != nil {
		if errors.Is(err, client.ErrForbidden) || errors.Is(err, client.ErrUnauthorized) {
			if derr := l.forget(ctx); derr != nil {
				return nil, errors.Join(err, derr)
			}
		}
		return nil, err
	}

	if err := l.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Games returns the library cached by the last successful login.
func (l *Launcher) Games(ctx context.Context) ([]client.Game, error) {
	raw, ok, err := l.state.Get(ctx, state.KeyGames)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}

	var games []client.Game
	if err := json.Unmarshal([]byte(raw), &games); err != nil {
		return nil, fmt.Errorf("decode cached games: %w", err)
	}
	return games, nil
}

// UserName returns the display name saved at login, if any.
func (l *Launcher) UserName(ctx context.Context) string {
	name, _, err := l.state.Get(ctx, state.KeyUserName)
	if err != nil {
		return ""
	}
	return name
}

// Logout closes the account's device session and clears the cached
// session. The device id is kept.
func (l *Launcher) Logout(ctx context.Context) error {
	email, ok, err := l.state.Get(ctx, state.KeyEmail)
	if err != nil {
		return err
	}
	if !ok || email == "" {
		return ErrNotLoggedIn
	}

	if err := l.api.Logout(ctx, email); err != nil {
		return err
	}
	return l.forget(ctx)
}

// DownloadInstaller signs in on the website API, asks for a signed
// installer link and saves the installer under ./downloads.
func (l *Launcher) DownloadInstaller(ctx context.Context, email, password string) (*Download, error) {
	webToken, err := l.api.WebLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}

	url, err := l.api.DownloadURL(ctx, webToken)
	if err != nil {
		return nil, err
	}

	dir, err := filex.EnsureDir(l.baseDir, downloadDir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, installerName)

	n, err := netx.DownloadToFile(ctx, l.httpClient, url, path)
	if err != nil {
		return nil, err
	}

	sum, err := cryptox.FileSHA256(path)
	if err != nil {
		return nil, err
	}
	return &Download{Path: path, Size: n, SHA256: sum}, nil
}

func (l *Launcher) save(ctx context.Context, s *client.Session) error {
	games := s.Games
	if games == nil {
		games = []client.Game{}
	}
	b, err := json.Marshal(games)
	if err != nil {
		return err
	}

	if err := l.state.Set(ctx, state.KeyAppToken, s.AppToken); err != nil {
		return err
	}
	if err := l.state.Set(ctx, state.KeyUserName, s.UserName); err != nil {
		return err
	}
	return l.state.Set(ctx, state.KeyGames, string(b))
}

func (l *Launcher) forget(ctx context.Context) error {
	return l.state.Delete(ctx, state.KeyAppToken, state.KeyEmail, state.KeyUserName, state.KeyGames)
}
