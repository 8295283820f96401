// Package api exposes the storefront REST API used by the website and the
// desktop app.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/auth"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Accounts interface {
	Signup(ctx context.Context, name, email, password string) (*services.SignupResult, error)
	VerifyEmail(ctx context.Context, token string) error
	WebLogin(ctx context.Context, email, password string) (string, *models.User, error)
	Authenticate(token string) (*auth.Claims, error)
	TokenValidity() time.Duration
}

type Catalog interface {
	GetGameByID(ctx context.Context, id string) (*models.Game, error)
	ListGames(ctx context.Context) ([]models.Game, error)
	TopGames(ctx context.Context) ([]models.Game, error)
	GamesByTags(ctx context.Context, tags []string) ([]models.Game, error)
}

type Library interface {
	ReconcileAndClean(ctx context.Context, userID string) ([]models.LibraryGame, error)
	AddPlaytime(ctx context.Context, userID, gameID string, hours float64) (float64, error)
}

type Payments interface {
	Record(ctx context.Context, req services.PaymentRequest) (*models.Payment, error)
}

type AppSessions interface {
	Login(ctx context.Context, req services.AppLoginRequest) (*services.AppLoginResult, error)
	LoginWithToken(ctx context.Context, token, deviceID string) (*services.AppLoginResult, error)
	Logout(ctx context.Context, email string) error
}

type Downloads interface {
	InstallerURL(ctx context.Context, bearer string) (string, error)
}

type Support interface {
	CreateTicket(ctx context.Context, req services.TicketRequest) (*models.SupportTicket, error)
}

// Handler holds the services behind the REST endpoints.
type Handler struct {
	Accounts    Accounts
	Catalog     Catalog
	Library     Library
	Payments    Payments
	AppSessions AppSessions
	Downloads   Downloads
	Support     Support
	Logger      logging.Logger
}

type Options struct {
	CORSOrigin            string
	LoginRateLimit        int
	SecureCookies         bool
	Gatherer              prometheus.Gatherer
	RequestTimeoutSeconds int
	// TrustProxy enables chi RealIP; leave off unless a reverse proxy sets the headers.
	TrustProxy bool
}

// NewRouter builds the chi router serving every REST endpoint.
func NewRouter(h *Handler, opts Options) http.Handler {
	logger := h.Logger.With("module", "http")

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(echoRequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(observe(logger))
	r.Use(chimw.Recoverer)
	if opts.RequestTimeoutSeconds > 0 {
		r.Use(chimw.Timeout(time.Duration(opts.RequestTimeoutSeconds) * time.Second))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	limit := opts.LoginRateLimit
	if limit <= 0 {
		limit = 30
	}
	loginLimiter := httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) { return clientIP(r), nil }),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "too many requests"})
		}),
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Get("/verify-email", h.verifyEmail)
		r.With(loginLimiter).Post("/login", h.webLogin(opts.SecureCookies))

		r.Route("/games", func(r chi.Router) {
			r.Get("/", h.listGames)
			r.Get("/top", h.topGames)
			r.Get("/by-tags", h.gamesByTags)
			r.Get("/library", h.library)
			r.Put("/library/{gameId}/playtime", h.addPlaytime)
			r.Get("/{id}", h.getGame)
		})

		r.Post("/payments", h.recordPayment)

		r.Route("/app", func(r chi.Router) {
			r.With(loginLimiter).Post("/login", h.appLogin)
			r.With(loginLimiter).Post("/login-token", h.appLoginToken)
			r.Post("/logout", h.appLogout)
			r.Get("/download", h.download)
		})

		r.Post("/support/ticket", h.createTicket)
	})

	return r
}
