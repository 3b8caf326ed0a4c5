// Package records provides the generic record store: append-only, per-host,
// per-tag streams of opaque encrypted payloads, indexed by a client-assigned
// cursor, plus the status-vector query that drives incremental pull sync.
package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/shellhist/syncd/internal/server/models"
)

// Repository is the record-store contract both SQL backends implement.
type Repository interface {
	// Add inserts records on its handle, assigning each a fresh time-ordered
	// server id and ignoring conflicts on (user, host, tag, idx). Callers
	// wanting all-or-nothing semantics for a batch run it on a transaction.
	Add(ctx context.Context, user *models.User, records []models.Record) error

	// Next returns up to count records of the (user, host, tag) stream with
	// idx >= start, ascending by idx. A stream with no records yields an
	// empty slice, not an error.
	Next(ctx context.Context, user *models.User, host uuid.UUID, tag string, start, count uint64) ([]models.Record, error)

	// Status reports max(idx) per (host, tag) for the user. A user with no
	// records yields an empty status.
	Status(ctx context.Context, user *models.User) (*models.RecordStatus, error)

	// DeleteAll unconditionally removes every record of the user. There is
	// no soft-delete for this table.
	DeleteAll(ctx context.Context, user *models.User) error
}
