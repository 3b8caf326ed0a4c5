// Package users provides the identity store: users and their session tokens.
package users

import (
	"context"

	"github.com/shellhist/syncd/internal/server/models"
)

// Repository is the identity contract both SQL backends implement. Lookups
// that find no row return common.ErrNotFound; every other failure is an
// opaque wrapped error.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Add(ctx context.Context, user *models.NewUser) (int64, error)
	UpdatePassword(ctx context.Context, user *models.User) error

	GetSession(ctx context.Context, token string) (*models.Session, error)
	GetSessionUser(ctx context.Context, token string) (*models.User, error)
	GetUserSession(ctx context.Context, user *models.User) (*models.Session, error)
	AddSession(ctx context.Context, session *models.NewSession) error

	// Delete removes the user together with their sessions, history rows and
	// cached counters. Callers are expected to run it inside one transaction,
	// paired with the record store purge.
	Delete(ctx context.Context, user *models.User) error
}
