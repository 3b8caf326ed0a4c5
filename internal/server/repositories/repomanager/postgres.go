package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/shellhist/syncd/internal/dbx"
	pgmigrations "github.com/shellhist/syncd/internal/server/migrations/postgres"
	"github.com/shellhist/syncd/internal/server/repositories/history"
	"github.com/shellhist/syncd/internal/server/repositories/records"
	"github.com/shellhist/syncd/internal/server/repositories/users"
)

// minPostgresMajor is the oldest server major version the store runs against.
const minPostgresMajor = 14

// PostgresRepositoryManager vends Postgres-backed repository implementations
// and exposes the schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) History(db dbx.DBTX) history.Repository {
	return history.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded Postgres migrations and runs
// them against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(pgmigrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// checkPostgresVersion rejects servers older than minPostgresMajor. The
// check runs once at startup; failure is fatal, never retried.
func checkPostgresVersion(ctx context.Context, db *sql.DB) error {
	var versionNum int
	if err := db.QueryRowContext(ctx, `SHOW server_version_num`).Scan(&versionNum); err != nil {
		return fmt.Errorf("version query error: %w", err)
	}

	if major := versionNum / 10000; major < minPostgresMajor {
		return fmt.Errorf("postgres %d is too old, need at least %d", major, minPostgresMajor)
	}

	return nil
}

// OpenPostgres opens the bounded connection pool, gates on the server
// version, runs migrations, and returns the pool with its manager.
func OpenPostgres(ctx context.Context, dsn string, maxConns int) (*sql.DB, RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(maxConns)

	if err := checkPostgresVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return db, m, nil
}
