// Package repomanager vends backend-specific repository implementations and
// owns backend bootstrap: connection pool setup, the Postgres version gate,
// and schema migrations (via goose). A bootstrap failure is fatal; once Open
// returns, the backend is ready and every repository method is stateless.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/shellhist/syncd/internal/dbx"
	"github.com/shellhist/syncd/internal/server/repositories/history"
	"github.com/shellhist/syncd/internal/server/repositories/records"
	"github.com/shellhist/syncd/internal/server/repositories/users"
)

// RepositoryManager vends the three repository families bound to a DBTX, so
// services can run several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	History(db dbx.DBTX) history.Repository
	Records(db dbx.DBTX) records.Repository
}
