package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/auth"
	"github.com/dmitrijs2005/steamhub/internal/server/config"
	"github.com/dmitrijs2005/steamhub/internal/server/lockout"
	"github.com/dmitrijs2005/steamhub/internal/server/metrics"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/devicesessions"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/steamhub/internal/timex"
)

type AppLoginRequest struct {
	Email      string
	Password   string
	DeviceID   string
	DeviceName string
	IPAddress  string
}

type AppLoginResult struct {
	Token string
	User  *models.User
	Games []models.LibraryGame
}

// AppSessionService enforces one active desktop session per user.
//
// Every mutation runs in a transaction that locks the user row and moves
// users.active_session_id with a compare-and-swap, so two racing logins
// cannot both become the active session.
type AppSessionService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	inTx        dbx.TxRunner
	library     *LibraryService
	hasher      auth.PasswordHasher
	lockout     lockout.Store
	threshold   int
	window      time.Duration
	now         timex.Clock
	logger      logging.Logger
}

func NewAppSessionService(db *sql.DB, m repomanager.RepositoryManager, library *LibraryService,
	hasher auth.PasswordHasher, store lockout.Store, cfg *config.Config, logger logging.Logger) *AppSessionService {
	return &AppSessionService{
		db:          db,
		repomanager: m,
		inTx:        dbx.NewTxRunner(db, nil),
		library:     library,
		hasher:      hasher,
		lockout:     store,
		threshold:   cfg.LoginLockoutThreshold,
		window:      cfg.LoginLockoutWindow,
		now:         timex.UTCNow,
		logger:      logger.With("module", "appsession"),
	}
}

// Login authenticates with e-mail and password and opens a new session for
// the device. A second device is refused while another session is open.
func (s *AppSessionService) Login(ctx context.Context, req AppLoginRequest) (*AppLoginResult, error) {
	res, err := s.login(ctx, req)
	metrics.AppLoginsTotal.WithLabelValues("password", metrics.Result(err)).Inc()
	return res, err
}

func (s *AppSessionService) login(ctx context.Context, req AppLoginRequest) (*AppLoginResult, error) {
	email := common.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, &common.ValidationError{
			Message: "email and password are required",
			Fields:  missingFields(map[string]string{"email": email, "password": req.Password}),
		}
	}
	if req.DeviceID == "" {
		return nil, common.NewValidationError("deviceId", "deviceId is required")
	}

	now := s.now()

	state, err := s.lockout.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error reading lockout state: %w", err)
	}
	if state.Locked(now) {
		s.logger.Warn(ctx, "app login: locked out", "email", email, "until", *state.LockedUntil)
		return nil, common.ErrTooManyAttempts
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "app login: user not found", "email", email)
			s.recordFailure(ctx, email, now)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("error comparing password: %w", err)
	}
	if !ok {
		s.logger.Info(ctx, "app login: password mismatch", "user_id", user.ID)
		s.recordFailure(ctx, email, now)
		return nil, common.ErrInvalidCredentials
	}

	if err := s.lockout.Clear(ctx, email); err != nil {
		s.logger.Warn(ctx, "app login: clearing lockout state failed", "email", email, "error", err)
	}

	if !user.IsVerified {
		return nil, common.ErrEmailNotVerified
	}

	token, err := common.MakeRandHexString(common.AppTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	var result *AppLoginResult

	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		sessions := s.repomanager.DeviceSessions(tx)

		u, err := users.GetByIDForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}

		current, err := activeSession(ctx, sessions, u)
		if err != nil {
			return err
		}
		if current != nil && current.DeviceID != req.DeviceID {
			return common.ErrDeviceConflict
		}

		games, err := s.library.reconcileAndCleanTx(ctx, tx, u.ID, now)
		if err != nil {
			return err
		}
		if len(games) == 0 {
			return common.ErrNoActiveGames
		}

		if current != nil {
			if err := sessions.Close(ctx, current.ID, now); err != nil {
				return err
			}
		}

		created, err := sessions.Create(ctx, &models.DeviceSession{
			UserID:       u.ID,
			DeviceID:     req.DeviceID,
			DeviceName:   req.DeviceName,
			IPAddress:    req.IPAddress,
			SessionToken: token,
			LoginTime:    now,
		})
		if err != nil {
			return err
		}

		if err := users.SwapActiveSession(ctx, u.ID, u.ActiveSessionID, &created.ID); err != nil {
			if errors.Is(err, common.ErrVersionConflict) {
				return common.ErrDeviceConflict
			}
			return err
		}

		u.ActiveSessionID = &created.ID
		result = &AppLoginResult{Token: token, User: u, Games: games}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrDeviceConflict) {
			s.logger.Info(ctx, "app login: device conflict", "user_id", user.ID, "device_id", req.DeviceID)
		}
		return nil, err
	}

	s.logger.Info(ctx, "app login", "user_id", user.ID, "device_id", req.DeviceID)
	return result, nil
}

// LoginWithToken resumes an existing session. It never opens a new one.
func (s *AppSessionService) LoginWithToken(ctx context.Context, token, deviceID string) (*AppLoginResult, error) {
	res, err := s.loginWithToken(ctx, token, deviceID)
	metrics.AppLoginsTotal.WithLabelValues("token", metrics.Result(err)).Inc()
	return res, err
}

func (s *AppSessionService) loginWithToken(ctx context.Context, token, deviceID string) (*AppLoginResult, error) {
	if token == "" {
		return nil, common.NewValidationError("appToken", "appToken is required")
	}
	if deviceID == "" {
		return nil, common.NewValidationError("deviceId", "deviceId is required")
	}

	now := s.now()
	var result *AppLoginResult

	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		sessions := s.repomanager.DeviceSessions(tx)

		session, err := sessions.GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		if session.DeviceID != deviceID {
			return common.ErrDeviceMismatch
		}

		u, err := users.GetByIDForUpdate(ctx, session.UserID)
		if err != nil {
			return err
		}

		if !session.IsActive() {
			current, err := activeSession(ctx, sessions, u)
			if err != nil {
				return err
			}
			if current != nil {
				return common.ErrSessionOverridden
			}
			return common.ErrSessionClosed
		}
		if u.ActiveSessionID == nil || *u.ActiveSessionID != session.ID {
			return common.ErrSessionOverridden
		}

		games, err := s.library.reconcileAndCleanTx(ctx, tx, u.ID, now)
		if err != nil {
			return err
		}
		if len(games) == 0 {
			return common.ErrNoActiveGames
		}

		result = &AppLoginResult{Token: token, User: u, Games: games}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Logout closes the user's active session, if any.
func (s *AppSessionService) Logout(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)
	if email == "" {
		return common.NewValidationError("email", "email is required")
	}

	now := s.now()

	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		found, err := users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		u, err := users.GetByIDForUpdate(ctx, found.ID)
		if err != nil {
			return err
		}
		if u.ActiveSessionID == nil {
			return nil
		}

		if err := s.repomanager.DeviceSessions(tx).Close(ctx, *u.ActiveSessionID, now); err != nil {
			return err
		}
		return users.SwapActiveSession(ctx, u.ID, u.ActiveSessionID, nil)
	})
	if err != nil {
		return fmt.Errorf("error logging out: %w", err)
	}

	s.logger.Info(ctx, "app logout", "email", email)
	return nil
}

func (s *AppSessionService) recordFailure(ctx context.Context, email string, now time.Time) {
	state, err := s.lockout.RecordFailure(ctx, email, now, s.threshold, s.window)
	if err != nil {
		s.logger.Warn(ctx, "app login: recording failed attempt", "email", email, "error", err)
		return
	}
	if state.Locked(now) {
		s.logger.Warn(ctx, "app login: locking e-mail", "email", email, "failed", state.FailedCount)
	}
}

// activeSession resolves the user's session pointer. A pointer to a missing
// or closed session counts as no session.
func activeSession(ctx context.Context, sessions devicesessions.Repository, u *models.User) (*models.DeviceSession, error) {
	if u.ActiveSessionID == nil {
		return nil, nil
	}
	session, err := sessions.GetByID(ctx, *u.ActiveSessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !session.IsActive() {
		return nil, nil
	}
	return session, nil
}

func missingFields(values map[string]string) map[string]string {
	out := make(map[string]string)
	for name, v := range values {
		if v == "" {
			out[name] = name + " is required"
		}
	}
	return out
}
