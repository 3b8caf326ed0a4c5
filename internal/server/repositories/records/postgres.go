package records

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shellhist/syncd/internal/dbx"
	"github.com/shellhist/syncd/internal/server/models"
)

// PostgresRepository implements the record store over a dbx.DBTX.
//
// Idx and Timestamp are unsigned in the model but stored in signed bigint
// columns; the int64/uint64 conversions below are raw bit casts, never
// range checks, so high-bit values survive the round trip.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, user *models.User, records []models.Record) error {
	query :=
		`INSERT INTO store (id, client_id, host, idx, timestamp, version, tag, data, cek, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT DO NOTHING
		 `

	for _, record := range records {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("id generation error: %w", err)
		}

		_, err = r.db.ExecContext(ctx, query,
			id, record.ClientID, record.Host, int64(record.Idx), int64(record.Timestamp),
			record.Version, record.Tag, record.Data, record.ContentEncryptionKey, user.ID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) Next(ctx context.Context, user *models.User, host uuid.UUID, tag string, start, count uint64) ([]models.Record, error) {
	query :=
		`SELECT id, client_id, host, idx, timestamp, version, tag, data, cek
		 FROM store
		 WHERE user_id = $1 AND host = $2 AND tag = $3 AND idx >= $4
		 ORDER BY idx ASC
		 LIMIT $5
		 `

	rows, err := r.db.QueryContext(ctx, query, user.ID, host, tag, int64(start), int64(count))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		var item models.Record
		var idx, timestamp int64
		if err := rows.Scan(
			&item.ID, &item.ClientID, &item.Host, &idx, &timestamp,
			&item.Version, &item.Tag, &item.Data, &item.ContentEncryptionKey,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Idx = uint64(idx)
		item.Timestamp = uint64(timestamp)
		item.UserID = user.ID
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Status(ctx context.Context, user *models.User) (*models.RecordStatus, error) {
	query :=
		`SELECT host, tag, max(idx)
		 FROM store
		 WHERE user_id = $1
		 GROUP BY host, tag
		 `

	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	status := models.NewRecordStatus()
	for rows.Next() {
		var host uuid.UUID
		var tag string
		var idx int64
		if err := rows.Scan(&host, &tag, &idx); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		status.Set(host, tag, uint64(idx))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return status, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, user *models.User) error {
	query := `DELETE FROM store WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, user.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
