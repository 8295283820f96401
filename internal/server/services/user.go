package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/auth"
	"github.com/dmitrijs2005/steamhub/internal/server/config"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/repomanager"
)

// Mailer delivers account e-mails.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

// LogMailer writes verification links to the log instead of sending them.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, name, link string) error {
	m.logger.Info(ctx, "verification e-mail", "to", to, "name", name, "link", link)
	return nil
}

type SignupResult struct {
	User      *models.User
	EmailSent bool
}

// UserService manages storefront accounts and website logins.
type UserService struct {
	db               dbx.DBTX
	repomanager      repomanager.RepositoryManager
	hasher           auth.PasswordHasher
	mailer           Mailer
	jwtSecret        []byte
	tokenValidity    time.Duration
	verificationBase string
	logger           logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher, mailer Mailer,
	cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:               db,
		repomanager:      m,
		hasher:           hasher,
		mailer:           mailer,
		jwtSecret:        []byte(cfg.SecretKey),
		tokenValidity:    cfg.WebTokenValidityDuration,
		verificationBase: strings.TrimRight(cfg.PublicBaseURL, "/") + "/api/verify-email",
		logger:           logger.With("module", "users"),
	}
}

// Signup creates an unverified account and sends the verification link.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*SignupResult, error) {
	name = strings.TrimSpace(name)
	email = common.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, &common.ValidationError{
			Message: "all fields are required",
			Fields:  missingFields(map[string]string{"name": name, "email": email, "password": password}),
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	verificationToken, err := common.MakeRandHexString(common.VerificationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating verification token: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		VerificationToken: &verificationToken,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("email", "user with this email already exists")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	link := s.verificationBase + "?token=" + url.QueryEscape(verificationToken)
	sent := true
	if err := s.mailer.SendVerification(ctx, email, name, link); err != nil {
		s.logger.Error(ctx, "sending verification e-mail failed", "user_id", user.ID, "error", err)
		sent = false
	}

	return &SignupResult{User: user, EmailSent: sent}, nil
}

// VerifyEmail confirms the account owning token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return common.NewValidationError("token", "verification token is required")
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewValidationError("token", "invalid or expired verification token")
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	if err := repo.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("error verifying user: %w", err)
	}
	return nil
}

// WebLogin checks the password and issues a website token, which is also
// stored on the account as the download bearer credential.
func (s *UserService) WebLogin(ctx context.Context, email, password string) (string, *models.User, error) {
	email = common.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, &common.ValidationError{
			Message: "email and password are required",
			Fields:  missingFields(map[string]string{"email": email, "password": password}),
		}
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", nil, fmt.Errorf("error comparing password: %w", err)
	}
	if !ok {
		return "", nil, common.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, common.ErrEmailNotVerified
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", nil, fmt.Errorf("error generating token: %w", err)
	}
	if err := repo.SetToken(ctx, user.ID, token); err != nil {
		return "", nil, fmt.Errorf("error storing token: %w", err)
	}
	user.Token = &token

	return token, user, nil
}

// Authenticate decodes the identity carried by a website token.
func (s *UserService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	return auth.ParseToken(token, s.jwtSecret)
}

// TokenValidity is how long website tokens and the auth cookie live.
func (s *UserService) TokenValidity() time.Duration {
	return s.tokenValidity
}
