package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/metrics"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

var maxItemHours = decimal.NewFromInt(models.MaxItemHours)

type PaymentItemRequest struct {
	GameID string          `json:"gameId" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
	Hours  decimal.Decimal `json:"hours"`
}

// PaymentItems accepts either a JSON array of items or a single item object.
type PaymentItems []PaymentItemRequest

func (p *PaymentItems) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var item PaymentItemRequest
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return err
		}
		*p = PaymentItems{item}
		return nil
	}
	var items []PaymentItemRequest
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	*p = items
	return nil
}

type PaymentRequest struct {
	UserID        string          `json:"userId" validate:"required,uuid"`
	Items         PaymentItems    `json:"items" validate:"required,min=1,dive"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TransactionID string          `json:"transactionId" validate:"required,max=255"`
}

// PaymentService appends completed payments to the ledger. It never touches
// the library; libraries are rebuilt from the ledger when read.
type PaymentService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	inTx        dbx.TxRunner
	logger      logging.Logger
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PaymentService {
	return &PaymentService{
		db:          db,
		repomanager: m,
		inTx:        dbx.NewTxRunner(db, nil),
		logger:      logger.With("module", "payments"),
	}
}

// Record validates req and stores it as a completed payment.
func (s *PaymentService) Record(ctx context.Context, req PaymentRequest) (*models.Payment, error) {
	p, err := s.record(ctx, req)
	metrics.PaymentsRecordedTotal.WithLabelValues(metrics.Result(err)).Inc()
	return p, err
}

func (s *PaymentService) record(ctx context.Context, req PaymentRequest) (*models.Payment, error) {
	fields := checkAmounts(req)
	if err := validateRequest("invalid payment", req); err != nil {
		var verr *common.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return nil, &common.ValidationError{Message: "invalid payment", Fields: fields}
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("user %s: %w", req.UserID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, strings.ToLower(item.GameID))
	}
	existing, err := s.repomanager.Games(s.db).ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error searching games: %w", err)
	}
	unknown := make(map[string]string)
	for i, item := range req.Items {
		if !existing[strings.ToLower(item.GameID)] {
			unknown[fmt.Sprintf("items[%d].gameId", i)] = "game not found"
		}
	}
	if len(unknown) > 0 {
		return nil, &common.ValidationError{Message: "invalid payment", Fields: unknown}
	}

	payment := &models.Payment{
		UserID:        req.UserID,
		TotalAmount:   req.TotalAmount,
		Currency:      common.DefaultCurrency,
		Status:        models.PaymentCompleted,
		TransactionID: req.TransactionID,
	}
	for _, item := range req.Items {
		payment.Items = append(payment.Items, models.PaymentItem{
			GameID: strings.ToLower(item.GameID),
			Amount: item.Amount,
			Hours:  int(item.Hours.IntPart()),
		})
	}

	var created *models.Payment
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		created, err = s.repomanager.Payments(tx).Create(ctx, payment)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateTransaction) {
			s.logger.Warn(ctx, "duplicate payment", "transaction_id", req.TransactionID)
			return nil, err
		}
		return nil, fmt.Errorf("error creating payment: %w", err)
	}

	s.logger.Info(ctx, "payment recorded", "payment_id", created.ID, "user_id", created.UserID, "items", len(created.Items))
	return created, nil
}

func checkAmounts(req PaymentRequest) map[string]string {
	fields := make(map[string]string)
	if req.TotalAmount.IsNegative() {
		fields["totalAmount"] = "must be at least 0"
	}
	for i, item := range req.Items {
		if item.Amount.IsNegative() {
			fields[fmt.Sprintf("items[%d].amount", i)] = "must be at least 0"
		}
		key := fmt.Sprintf("items[%d].hours", i)
		switch {
		case !item.Hours.IsPositive():
			fields[key] = "must be greater than 0"
		case !item.Hours.IsInteger():
			fields[key] = "must be a whole number"
		case item.Hours.GreaterThan(maxItemHours):
			fields[key] = fmt.Sprintf("must be at most %d", models.MaxItemHours)
		}
	}
	return fields
}
