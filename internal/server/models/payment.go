package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is an immutable ledger record. Only completed payments grant
// entitlements.
type Payment struct {
	ID            string
	UserID        string
	Items         []PaymentItem
	TotalAmount   decimal.Decimal
	Currency      string
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
}

// MaxItemHours caps the hours a single payment item may grant (100 years).
const MaxItemHours = 876000

// PaymentItem grants Hours of access to GameID.
type PaymentItem struct {
	GameID string
	Amount decimal.Decimal
	Hours  int
}
