// Package server wires the storefront backend together: storage, the login
// lockout store, metrics, the REST API and the gRPC health endpoint. It
// also handles graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/api"
	"github.com/dmitrijs2005/steamhub/internal/server/auth"
	"github.com/dmitrijs2005/steamhub/internal/server/config"
	"github.com/dmitrijs2005/steamhub/internal/server/lockout"
	"github.com/dmitrijs2005/steamhub/internal/server/metrics"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/steamhub/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	gs "github.com/dmitrijs2005/steamhub/internal/server/grpc"
)

const startupTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler http.Handler
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var store lockout.Store
	client, err := lockout.Connect(ctx, c.RedisURL)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, using in-memory login lockout", "error", err)
		store = lockout.NewMemoryStore()
	} else {
		app.redis = client
		store = lockout.NewRedisStore(client)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(registry)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	library := services.NewLibraryService(db, rm, logger)

	app.handler = api.NewRouter(&api.Handler{
		Accounts:    services.NewUserService(db, rm, hasher, services.NewLogMailer(logger), c, logger),
		Catalog:     services.NewCatalogService(db, rm),
		Library:     library,
		Payments:    services.NewPaymentService(db, rm, logger),
		AppSessions: services.NewAppSessionService(db, rm, library, hasher, store, c, logger),
		Downloads:   services.NewDownloadService(db, rm, c),
		Support:     services.NewSupportService(db, rm, logger),
		Logger:      logger,
	}, api.Options{
		CORSOrigin:            c.CORSOrigin,
		LoginRateLimit:        c.LoginRateLimitPerMinute,
		SecureCookies:         isHTTPS(c.PublicBaseURL),
		Gatherer:              registry,
		RequestTimeoutSeconds: 30,
		TrustProxy:            c.TrustProxy,
	})

	return app, nil
}

func isHTTPS(baseURL string) bool {
	return strings.HasPrefix(strings.ToLower(baseURL), "https://")
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := api.NewHTTPServer(app.config.EndpointAddrHTTP, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db.PingContext)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
