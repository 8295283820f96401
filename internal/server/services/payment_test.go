package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buyerID = "4b1d9ad2-6f1b-4c1e-9a53-2a1c0f6a7e11"

func newTestPayments(st *fakeStore) *PaymentService {
	return &PaymentService{
		repomanager: &fakeRepoManager{st: st},
		inTx:        dbx.Direct(nil),
		logger:      logging.Discard(),
	}
}

func paymentStore() *fakeStore {
	st := newFakeStore()
	st.addUser(testUser(buyerID, "buyer@example.com"))
	st.addGame(testGame("g1", "Alpha"))
	st.addGame(testGame("g2", "Beta"))
	return st
}

func validPayment() PaymentRequest {
	return PaymentRequest{
		UserID: buyerID,
		Items: PaymentItems{
			{GameID: "g1", Amount: decimal.RequireFromString("4.99"), Hours: decimal.NewFromInt(24)},
			{GameID: "g2", Amount: decimal.RequireFromString("1.50"), Hours: decimal.NewFromInt(2)},
		},
		TotalAmount:   decimal.RequireFromString("6.49"),
		TransactionID: "tx-1",
	}
}

func TestRecord_Success(t *testing.T) {
	st := paymentStore()
	svc := newTestPayments(st)

	p, err := svc.Record(context.Background(), validPayment())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.PaymentCompleted, p.Status)
	assert.Equal(t, common.DefaultCurrency, p.Currency)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "g2", p.Items[1].GameID)
	assert.True(t, p.TotalAmount.Equal(decimal.RequireFromString("6.49")))

	assert.Len(t, st.payments, 1)
	assert.Empty(t, st.library, "recording a payment must not touch the library")
}

func TestRecord_Validation(t *testing.T) {
	svc := newTestPayments(paymentStore())

	req := validPayment()
	req.UserID = ""
	req.Items[1].Hours = decimal.Zero
	req.TransactionID = ""

	_, err := svc.Record(context.Background(), req)
	require.ErrorIs(t, err, common.ErrorValidation)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["userId"])
	assert.Equal(t, "must be greater than 0", verr.Fields["items[1].hours"])
	assert.Equal(t, "is required", verr.Fields["transactionId"])
}

func TestRecord_NoItems(t *testing.T) {
	svc := newTestPayments(paymentStore())

	req := validPayment()
	req.Items = nil
	_, err := svc.Record(context.Background(), req)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items")
}

func TestRecord_NegativeAmount(t *testing.T) {
	svc := newTestPayments(paymentStore())

	req := validPayment()
	req.Items[0].Amount = decimal.NewFromInt(-1)
	_, err := svc.Record(context.Background(), req)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items[0].amount")
}

func TestRecord_HoursBounds(t *testing.T) {
	tests := []struct {
		name  string
		hours string
		want  string
	}{
		{"fractional", "1.5", "must be a whole number"},
		{"negative", "-3", "must be greater than 0"},
		{"above cap", "3000000", "must be at most 876000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := paymentStore()
			svc := newTestPayments(st)

			req := validPayment()
			req.Items[0].Hours = decimal.RequireFromString(tt.hours)
			_, err := svc.Record(context.Background(), req)

			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.want, verr.Fields["items[0].hours"])
			assert.Empty(t, st.payments)
		})
	}
}

func TestRecord_HoursAtCap(t *testing.T) {
	svc := newTestPayments(paymentStore())

	req := validPayment()
	req.Items[0].Hours = decimal.NewFromInt(models.MaxItemHours)
	p, err := svc.Record(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.MaxItemHours, p.Items[0].Hours)
}

func TestRecord_GameIDCaseInsensitive(t *testing.T) {
	st := paymentStore()
	svc := newTestPayments(st)

	req := validPayment()
	req.Items[0].GameID = "G1"
	p, err := svc.Record(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "g1", p.Items[0].GameID)
}

func TestRecord_UnknownUser(t *testing.T) {
	svc := newTestPayments(paymentStore())

	req := validPayment()
	req.UserID = "0f0f0f0f-0000-4000-8000-000000000000"
	_, err := svc.Record(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRecord_UnknownGame(t *testing.T) {
	st := paymentStore()
	svc := newTestPayments(st)

	req := validPayment()
	req.Items[1].GameID = "nope"
	_, err := svc.Record(context.Background(), req)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "game not found", verr.Fields["items[1].gameId"])
	assert.Empty(t, st.payments)
}

func TestRecord_DuplicateTransaction(t *testing.T) {
	svc := newTestPayments(paymentStore())

	_, err := svc.Record(context.Background(), validPayment())
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), validPayment())
	assert.ErrorIs(t, err, common.ErrDuplicateTransaction)
}

func TestRecord_Transaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewPaymentService(db, &fakeRepoManager{st: paymentStore()}, logging.Discard())
	_, err = svc.Record(context.Background(), validPayment())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentItems_UnmarshalJSON(t *testing.T) {
	var req PaymentRequest
	body := `{"userId":"` + buyerID + `","items":{"gameId":"g1","amount":"2.5","hours":3},"totalAmount":2.5,"transactionId":"tx"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Len(t, req.Items, 1)
	assert.Equal(t, "g1", req.Items[0].GameID)
	assert.True(t, req.Items[0].Hours.Equal(decimal.NewFromInt(3)))
	assert.True(t, req.Items[0].Amount.Equal(decimal.RequireFromString("2.5")))

	body = `{"items":[{"gameId":"g1","hours":1},{"gameId":"g2","hours":2}]}`
	req = PaymentRequest{}
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Len(t, req.Items, 2)

	assert.Error(t, json.Unmarshal([]byte(`{"items":"nope"}`), &req))
}
