// Package history provides the legacy history log: a flat per-user table of
// encrypted shell-history entries with idempotent insert, soft-delete and
// windowed retrieval, plus the trigger-maintained per-user counters.
package history

import (
	"context"
	"time"

	"github.com/shellhist/syncd/internal/server/models"
)

// Repository is the history-log contract both SQL backends implement.
type Repository interface {
	// Add inserts entries one by one on its handle, ignoring conflicts on
	// client_id so client retries are no-ops. Callers wanting all-or-nothing
	// semantics run it on a transaction.
	Add(ctx context.Context, entries []models.NewHistory) error

	// List returns non-deleted entries for user with hostname != excludeHost,
	// created_at >= createdAfter and timestamp >= since, ascending by
	// timestamp, capped at limit. The dual floor anchors pagination to server
	// arrival order even when client timestamps are backdated.
	List(ctx context.Context, user *models.User, createdAfter, since time.Time, excludeHost string, limit int) ([]models.History, error)

	// Oldest returns the entry with the smallest timestamp, or ErrNotFound.
	Oldest(ctx context.Context, user *models.User) (*models.History, error)

	Count(ctx context.Context, user *models.User) (int64, error)

	// CountCached reads the materialized per-user counter. A brand-new user
	// has no cache row yet; that surfaces as ErrNotFound, never as zero.
	CountCached(ctx context.Context, user *models.User) (int64, error)

	// CountRange counts entries with start <= timestamp < end. Both bounds
	// are normalized to civil timestamps before comparison.
	CountRange(ctx context.Context, user *models.User, start, end time.Time) (int64, error)

	// TotalCount sums the cached counters across all users.
	TotalCount(ctx context.Context) (int64, error)

	// Delete soft-deletes one entry. Calling it again is a no-op: the
	// deleted_at guard never overwrites an existing tombstone.
	Delete(ctx context.Context, user *models.User, clientID string) error

	// Deleted lists the client_ids of soft-deleted entries so clients can
	// propagate tombstones.
	Deleted(ctx context.Context, user *models.User) ([]string, error)
}
