package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/shellhist/syncd/internal/dbx"
	sqlitemigrations "github.com/shellhist/syncd/internal/server/migrations/sqlite"
	"github.com/shellhist/syncd/internal/server/repositories/history"
	"github.com/shellhist/syncd/internal/server/repositories/records"
	"github.com/shellhist/syncd/internal/server/repositories/users"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations and
// exposes the schema migration hook.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) History(db dbx.DBTX) history.Repository {
	return history.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewSQLiteRepository(db)
}

// RunMigrations sets up goose with the embedded SQLite migrations and runs
// them against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(sqlitemigrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// OpenSQLite opens the database file (or shared in-memory DSN), applies the
// connection pragmas, runs migrations, and returns the pool with its manager.
func OpenSQLite(ctx context.Context, dsn string, maxConns int) (*sql.DB, RepositoryManager, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(maxConns)

	pragmas := []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA journal_mode = WAL;`,
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("pragma error: %w", err)
		}
	}

	m := &SQLiteRepositoryManager{}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return db, m, nil
}
