package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/steamhub/internal/client/client"
	"github.com/dmitrijs2005/steamhub/internal/client/config"
	"github.com/dmitrijs2005/steamhub/internal/client/services"
	"github.com/dmitrijs2005/steamhub/internal/client/state"
)

// Launcher is the application surface the commands drive.
type Launcher interface {
	Login(ctx context.Context, email, password string) (*client.Session, error)
	Resume(ctx context.Context) (*client.Session, error)
	Games(ctx context.Context) ([]client.Game, error)
	UserName(ctx context.Context) string
	Logout(ctx context.Context) error
	DownloadInstaller(ctx context.Context, email, password string) (*services.Download, error)
}

type App struct {
	config   *config.Config
	launcher Launcher
	db       *sql.DB
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	db, err := client.InitDatabase(ctx, c.StateFile)
	if err != nil {
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	launcher := services.NewLauncher(api, state.NewSQLiteRepository(db), &http.Client{})

	return &App{
		config:   c,
		launcher: launcher,
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run resumes a saved session if there is one and then serves the REPL.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	a.printf("SteamHub launcher (type 'help' for commands)\n")
	a.resume(ctx, true)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return "(" + a.userName + ") "
}
