package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/devicesessions"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/games"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/libraries"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/payments"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the database or an
// open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Games(db dbx.DBTX) games.Repository
	Payments(db dbx.DBTX) payments.Repository
	Libraries(db dbx.DBTX) libraries.Repository
	DeviceSessions(db dbx.DBTX) devicesessions.Repository
	Tickets(db dbx.DBTX) tickets.Repository
}
