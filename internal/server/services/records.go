package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/shellhist/syncd/internal/dbx"
	"github.com/shellhist/syncd/internal/server/config"
	"github.com/shellhist/syncd/internal/server/models"
	"github.com/shellhist/syncd/internal/server/repositories/repomanager"
)

// RecordService fronts the generic record store.
type RecordService struct {
	db          *sql.DB
	repos       repomanager.RepositoryManager
	maxPageSize int
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *RecordService {
	return &RecordService{
		db:          db,
		repos:       m,
		maxPageSize: cfg.MaxPageSize,
	}
}

// Add writes a batch of records in one transaction. One call may mix several
// hosts and tags; a conflict on (user, host, tag, idx) skips that record,
// any other failure rolls back the whole batch.
func (s *RecordService) Add(ctx context.Context, user *models.User, records []models.Record) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Records(tx).Add(ctx, user, records)
	})
}

// Next returns the (host, tag) stream from start onward. start is optional
// on the wire and defaults to 0; count is clamped to the configured cap.
func (s *RecordService) Next(ctx context.Context, user *models.User, host uuid.UUID, tag string, start *uint64, count uint64) ([]models.Record, error) {
	var from uint64
	if start != nil {
		from = *start
	}
	if count == 0 || count > uint64(s.maxPageSize) {
		count = uint64(s.maxPageSize)
	}
	return s.repos.Records(s.db).Next(ctx, user, host, tag, from, count)
}

func (s *RecordService) Status(ctx context.Context, user *models.User) (*models.RecordStatus, error) {
	return s.repos.Records(s.db).Status(ctx, user)
}
