// Package entitlements turns the payment ledger into per-game expiration
// times. It has no I/O: the same payments always produce the same mapping.
package entitlements

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

// PermanentYear is the year after which an expiration is shown as permanent.
// It only affects presentation; reconciliation treats such dates like any other.
const PermanentYear = 2030

// Reconcile replays completed payments in purchase order and returns the
// expiration time of every game they grant.
//
// A purchase made while the game is still active extends the current
// expiration by the purchased hours; otherwise the window starts at the
// purchase time. Items without a game or with hours outside
// (0, models.MaxItemHours] are skipped, as are payments that are not completed.
func Reconcile(payments []models.Payment) map[string]time.Time {
	ordered := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if p.Status == models.PaymentCompleted {
			ordered = append(ordered, p)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	expirations := make(map[string]time.Time)
	for _, p := range ordered {
		for _, item := range p.Items {
			if item.GameID == "" || item.Hours <= 0 || item.Hours > models.MaxItemHours {
				continue
			}
			duration := time.Duration(item.Hours) * time.Hour

			current, ok := expirations[item.GameID]
			if ok && current.After(p.CreatedAt) {
				expirations[item.GameID] = current.Add(duration)
			} else {
				expirations[item.GameID] = p.CreatedAt.Add(duration)
			}
		}
	}

	return expirations
}

// IsPermanent reports whether an expiration is far enough in the future to
// be displayed as a permanent license.
func IsPermanent(expiration time.Time) bool {
	return expiration.Year() > PermanentYear
}
