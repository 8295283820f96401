package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/entitlements"
	"github.com/dmitrijs2005/steamhub/internal/server/metrics"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/steamhub/internal/timex"
)

// LibraryService maintains the per-user library, a materialized view of the
// payment ledger. Expired entries are only removed when the library is read.
type LibraryService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	inTx        dbx.TxRunner
	now         timex.Clock
	logger      logging.Logger
}

func NewLibraryService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *LibraryService {
	return &LibraryService{
		db:          db,
		repomanager: m,
		inTx:        dbx.NewTxRunner(db, nil),
		now:         timex.UTCNow,
		logger:      logger.With("module", "library"),
	}
}

// Sync rebuilds the user's library rows from the payment ledger.
func (s *LibraryService) Sync(ctx context.Context, userID string) error {
	now := s.now()
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.syncTx(ctx, tx, userID, now)
	})
	metrics.LibrarySyncsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("error syncing library: %w", err)
	}
	return nil
}

// ActiveLibrary returns the entries that have not expired yet.
func (s *LibraryService) ActiveLibrary(ctx context.Context, userID string) ([]models.LibraryGame, error) {
	games, err := s.repomanager.Libraries(s.db).ListActiveGames(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("error listing library: %w", err)
	}
	return games, nil
}

// CleanupExpired removes expired and inactive entries and reports how many
// were removed.
func (s *LibraryService) CleanupExpired(ctx context.Context, userID string) (int64, error) {
	removed, err := s.repomanager.Libraries(s.db).DeleteExpired(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("error cleaning library: %w", err)
	}
	if removed > 0 {
		s.logger.Info(ctx, "expired library entries removed", "user_id", userID, "count", removed)
	}
	return removed, nil
}

// ReconcileAndClean syncs the library, drops expired entries and returns
// what is left. It is safe to call any number of times.
func (s *LibraryService) ReconcileAndClean(ctx context.Context, userID string) ([]models.LibraryGame, error) {
	now := s.now()
	var games []models.LibraryGame
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		games, err = s.reconcileAndCleanTx(ctx, tx, userID, now)
		return err
	})
	metrics.LibrarySyncsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("error reconciling library: %w", err)
	}
	return games, nil
}

// AddPlaytime adds hours to the accumulated playtime of an owned game and
// returns the new total.
func (s *LibraryService) AddPlaytime(ctx context.Context, userID, gameID string, hours float64) (float64, error) {
	if gameID == "" {
		return 0, common.NewValidationError("gameId", "gameId is required")
	}
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, common.NewValidationError("hours", "hours must be a positive number")
	}

	total, err := s.repomanager.Libraries(s.db).AddPlaytime(ctx, userID, gameID, hours)
	if err != nil {
		return 0, fmt.Errorf("error adding playtime: %w", err)
	}
	return total, nil
}

func (s *LibraryService) syncTx(ctx context.Context, tx dbx.DBTX, userID string, now time.Time) error {
	payments, err := s.repomanager.Payments(tx).ListCompletedByUser(ctx, userID)
	if err != nil {
		return err
	}

	expirations := entitlements.Reconcile(payments)

	keep := make([]string, 0, len(expirations))
	for gameID := range expirations {
		keep = append(keep, gameID)
	}
	sort.Strings(keep)

	repo := s.repomanager.Libraries(tx)
	if _, err := repo.DeleteExcept(ctx, userID, keep); err != nil {
		return err
	}

	for _, gameID := range keep {
		expiration := expirations[gameID]
		err := repo.Upsert(ctx, &models.LibraryEntry{
			UserID:         userID,
			GameID:         gameID,
			ExpirationDate: expiration,
			IsActive:       expiration.After(now),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *LibraryService) reconcileAndCleanTx(ctx context.Context, tx dbx.DBTX, userID string, now time.Time) ([]models.LibraryGame, error) {
	if err := s.syncTx(ctx, tx, userID, now); err != nil {
		return nil, err
	}

	repo := s.repomanager.Libraries(tx)
	removed, err := repo.DeleteExpired(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		s.logger.Debug(ctx, "expired library entries removed", "user_id", userID, "count", removed)
	}

	return repo.ListActiveGames(ctx, userID, now)
}
