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

// PostgresRepository implements the history log over a dbx.DBTX. Timestamps
// are bound as civil-normalized time.Time values; the driver handles the rest.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, entries []models.NewHistory) error {
	query :=
		`INSERT INTO history (client_id, user_id, hostname, timestamp, data)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT DO NOTHING
		 `

	for _, entry := range entries {
		_, err := r.db.ExecContext(ctx, query,
			entry.ClientID, entry.UserID, entry.Hostname, timex.Civil(entry.Timestamp), entry.Data)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context, user *models.User, createdAfter, since time.Time, excludeHost string, limit int) ([]models.History, error) {
	query :=
		`SELECT id, client_id, user_id, hostname, timestamp, data, created_at, deleted_at
		 FROM history
		 WHERE user_id = $1
		   AND hostname != $2
		   AND created_at >= $3
		   AND timestamp >= $4
		   AND deleted_at IS NULL
		 ORDER BY timestamp ASC
		 LIMIT $5
		 `

	rows, err := r.db.QueryContext(ctx, query,
		user.ID, excludeHost, timex.Civil(createdAfter), timex.Civil(since), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.History
	for rows.Next() {
		var item models.History
		var deletedAt sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.ClientID, &item.UserID, &item.Hostname,
			&item.Timestamp, &item.Data, &item.CreatedAt, &deletedAt,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if deletedAt.Valid {
			item.DeletedAt = &deletedAt.Time
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Oldest(ctx context.Context, user *models.User) (*models.History, error) {
	query :=
		`SELECT id, client_id, user_id, hostname, timestamp, data, created_at, deleted_at
		 FROM history
		 WHERE user_id = $1
		 ORDER BY timestamp ASC
		 LIMIT 1
		 `

	item := &models.History{}
	var deletedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, user.ID).Scan(
		&item.ID, &item.ClientID, &item.UserID, &item.Hostname,
		&item.Timestamp, &item.Data, &item.CreatedAt, &deletedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}

	return item, nil
}

func (r *PostgresRepository) Count(ctx context.Context, user *models.User) (int64, error) {
	query := `SELECT count(1) FROM history WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, user.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) CountCached(ctx context.Context, user *models.User) (int64, error) {
	query := `SELECT total FROM total_history_count_user WHERE user_id = $1`

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

func (r *PostgresRepository) CountRange(ctx context.Context, user *models.User, start, end time.Time) (int64, error) {
	query :=
		`SELECT count(1) FROM history
		 WHERE user_id = $1
		   AND timestamp >= $2
		   AND timestamp < $3
		 `

	var count int64
	err := r.db.QueryRowContext(ctx, query, user.ID, timex.Civil(start), timex.Civil(end)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) TotalCount(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(sum(total), 0) FROM total_history_count_user`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, user *models.User, clientID string) error {
	query :=
		`UPDATE history SET deleted_at = $3
		 WHERE user_id = $1 AND client_id = $2 AND deleted_at IS NULL
		 `

	_, err := r.db.ExecContext(ctx, query, user.ID, clientID, timex.Civil(time.Now()))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Deleted(ctx context.Context, user *models.User) ([]string, error) {
	query := `SELECT client_id FROM history WHERE user_id = $1 AND deleted_at IS NOT NULL`

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
