package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/logging"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/repomanager"
)

type TicketRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

type SupportService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewSupportService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *SupportService {
	return &SupportService{db: db, repomanager: m, logger: logger.With("module", "support")}
}

// CreateTicket opens a support ticket, linked to the account when the
// e-mail belongs to one.
func (s *SupportService) CreateTicket(ctx context.Context, req TicketRequest) (*models.SupportTicket, error) {
	req.Email = common.NormalizeEmail(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := validateRequest("email, subject and message are required", req); err != nil {
		return nil, err
	}

	ticket := &models.SupportTicket{
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Status:  models.TicketOpen,
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		ticket.UserID = &user.ID
	case errors.Is(err, common.ErrorNotFound):
	default:
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	created, err := s.repomanager.Tickets(s.db).Create(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("error creating ticket: %w", err)
	}

	s.logger.Info(ctx, "support ticket created", "ticket_id", created.ID, "email", created.Email)
	return created, nil
}
