package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shellhist/syncd/internal/common"
	"github.com/shellhist/syncd/internal/dbx"
	"github.com/shellhist/syncd/internal/server/models"
	"github.com/shellhist/syncd/internal/timex"
)

// SQLiteRepository implements the history log against SQLite. Timestamps are
// stored as civil-normalized text in timex.CivilLayout; the layout compares
// lexicographically, so the SQL windows behave the same as on Postgres.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, entries []models.NewHistory) error {
	query :=
		`INSERT INTO history (client_id, user_id, hostname, timestamp, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING
		 `

	for _, entry := range entries {
		_, err := r.db.ExecContext(ctx, query,
			entry.ClientID, entry.UserID, entry.Hostname, timex.CivilString(entry.Timestamp), entry.Data)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func scanHistoryRow(scan func(dest ...any) error) (*models.History, error) {
	item := &models.History{}
	var timestamp, createdAt string
	var deletedAt sql.NullString

	if err := scan(
		&item.ID, &item.ClientID, &item.UserID, &item.Hostname,
		&timestamp, &item.Data, &createdAt, &deletedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if item.Timestamp, err = timex.ParseCivil(timestamp); err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", timestamp, err)
	}
	if item.CreatedAt, err = timex.ParseCivil(createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if deletedAt.Valid {
		t, err := timex.ParseCivil(deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad deleted_at %q: %w", deletedAt.String, err)
		}
		item.DeletedAt = &t
	}

	return item, nil
}

func (r *SQLiteRepository) List(ctx context.Context, user *models.User, createdAfter, since time.Time, excludeHost string, limit int) ([]models.History, error) {
	query :=
		`SELECT id, client_id, user_id, hostname, timestamp, data, created_at, deleted_at
		 FROM history
		 WHERE user_id = ?
		   AND hostname != ?
		   AND created_at >= ?
		   AND timestamp >= ?
		   AND deleted_at IS NULL
		 ORDER BY timestamp ASC
		 LIMIT ?
		 `

	rows, err := r.db.QueryContext(ctx, query,
		user.ID, excludeHost, timex.CivilString(createdAfter), timex.CivilString(since), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.History
	for rows.Next() {
		item, err := scanHistoryRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Oldest(ctx context.Context, user *models.User) (*models.History, error) {
	query :=
		`SELECT id, client_id, user_id, hostname, timestamp, data, created_at, deleted_at
		 FROM history
		 WHERE user_id = ?
		 ORDER BY timestamp ASC
		 LIMIT 1
		 `

	item, err := scanHistoryRow(r.db.QueryRowContext(ctx, query, user.ID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *SQLiteRepository) Count(ctx context.Context, user *models.User) (int64, error) {
	query := `SELECT count(1) FROM history WHERE user_id = ?`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, user.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *SQLiteRepository) CountCached(ctx context.Context, user *models.User) (int64, error) {
	query := `SELECT total FROM total_history_count_user WHERE user_id = ?`

	var count int64
	err := r.db.QueryRowContext(ctx, query, user.ID).Scan(&count)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *SQLiteRepository) CountRange(ctx context.Context, user *models.User, start, end time.Time) (int64, error) {
	query :=
		`SELECT count(1) FROM history
		 WHERE user_id = ?
		   AND timestamp >= ?
		   AND timestamp < ?
		 `

	var count int64
	err := r.db.QueryRowContext(ctx, query, user.ID, timex.CivilString(start), timex.CivilString(end)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *SQLiteRepository) TotalCount(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(sum(total), 0) FROM total_history_count_user`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, user *models.User, clientID string) error {
	query :=
		`UPDATE history SET deleted_at = ?
		 WHERE user_id = ? AND client_id = ? AND deleted_at IS NULL
		 `

	_, err := r.db.ExecContext(ctx, query, timex.CivilString(time.Now()), user.ID, clientID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Deleted(ctx context.Context, user *models.User) ([]string, error) {
	query := `SELECT client_id FROM history WHERE user_id = ? AND deleted_at IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var clientID string
		if err := rows.Scan(&clientID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, clientID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
