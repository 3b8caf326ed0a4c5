package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shellhist/syncd/internal/common"
	"github.com/shellhist/syncd/internal/dbx"
	"github.com/shellhist/syncd/internal/server/config"
	"github.com/shellhist/syncd/internal/server/models"
	"github.com/shellhist/syncd/internal/server/repositories/repomanager"
)

// HistoryService fronts the legacy history log.
type HistoryService struct {
	db          *sql.DB
	repos       repomanager.RepositoryManager
	maxPageSize int
}

func NewHistoryService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *HistoryService {
	return &HistoryService{
		db:          db,
		repos:       m,
		maxPageSize: cfg.MaxPageSize,
	}
}

// Add writes a batch of entries in one transaction. Entries whose client_id
// already exists are silently skipped, so client retries are safe.
func (s *HistoryService) Add(ctx context.Context, entries []models.NewHistory) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.History(tx).Add(ctx, entries)
	})
}

// List pages through the user's history, excluding the requesting host's own
// entries. pageSize is clamped to the configured cap.
func (s *HistoryService) List(ctx context.Context, user *models.User, createdAfter, since time.Time, excludeHost string, pageSize int) ([]models.History, error) {
	if pageSize <= 0 || pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return s.repos.History(s.db).List(ctx, user, createdAfter, since, excludeHost, pageSize)
}

func (s *HistoryService) Oldest(ctx context.Context, user *models.User) (*models.History, error) {
	return s.repos.History(s.db).Oldest(ctx, user)
}

// Count prefers the cached per-user counter and falls back to an exact count
// for users whose cache row does not exist yet.
func (s *HistoryService) Count(ctx context.Context, user *models.User) (int64, error) {
	repo := s.repos.History(s.db)

	count, err := repo.CountCached(ctx, user)
	if err == nil {
		return count, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return repo.Count(ctx, user)
	}
	return 0, err
}

func (s *HistoryService) CountExact(ctx context.Context, user *models.User) (int64, error) {
	return s.repos.History(s.db).Count(ctx, user)
}

func (s *HistoryService) CountRange(ctx context.Context, user *models.User, start, end time.Time) (int64, error) {
	return s.repos.History(s.db).CountRange(ctx, user, start, end)
}

func (s *HistoryService) TotalCount(ctx context.Context) (int64, error) {
	return s.repos.History(s.db).TotalCount(ctx)
}

func (s *HistoryService) Delete(ctx context.Context, user *models.User, clientID string) error {
	return s.repos.History(s.db).Delete(ctx, user, clientID)
}

func (s *HistoryService) Deleted(ctx context.Context, user *models.User) ([]string, error) {
	return s.repos.History(s.db).Deleted(ctx, user)
}
