// Package payments is the append-only payment ledger. Rows are inserted and
// read; nothing updates or deletes them.
package payments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the payment and its items. Callers run it inside a
// transaction so a payment is never stored without its items.
func (r *PostgresRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	query :=
		`INSERT INTO payments (user_id, total_amount, currency, status, transaction_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		payment.UserID, payment.TotalAmount.String(), payment.Currency, string(payment.Status), payment.TransactionID,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "payments_transaction_id_key") {
			return nil, common.ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	itemQuery :=
		`INSERT INTO payment_items (payment_id, position, game_id, amount, hours)
		 VALUES ($1, $2, $3, $4, $5)`

	for i, item := range payment.Items {
		if _, err := r.db.ExecContext(ctx, itemQuery,
			payment.ID, i, item.GameID, item.Amount.String(), item.Hours); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return payment, nil
}

// ListCompletedByUser returns the user's completed payments in purchase
// order. Items pointing at games missing from the catalog are left out.
func (r *PostgresRepository) ListCompletedByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	query :=
		`SELECT p.id, p.user_id, p.total_amount, p.currency, p.status, p.transaction_id, p.created_at,
		        i.game_id, i.amount, i.hours
		 FROM payments p
		 JOIN payment_items i ON i.payment_id = p.id
		 JOIN games g ON g.id = i.game_id
		 WHERE p.user_id = $1 AND p.status = 'completed'
		 ORDER BY p.created_at, p.id, i.position`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		var (
			p      models.Payment
			status string
			item   models.PaymentItem
			amount decimal.Decimal
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.TotalAmount, &p.Currency, &status, &p.TransactionID, &p.CreatedAt,
			&item.GameID, &amount, &item.Hours); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Amount = amount
		p.Status = models.PaymentStatus(status)

		if n := len(out); n > 0 && out[n-1].ID == p.ID {
			out[n-1].Items = append(out[n-1].Items, item)
			continue
		}
		p.Items = []models.PaymentItem{item}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}
