// Package services implements the application services between the HTTP
// handlers and the repositories. Services own transaction boundaries: batch
// writes and cascading deletes run inside one dbx.WithTx call and commit
// exactly once, so callers always see all-or-nothing per call.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shellhist/syncd/internal/common"
	"github.com/shellhist/syncd/internal/dbx"
	"github.com/shellhist/syncd/internal/server/config"
	"github.com/shellhist/syncd/internal/server/models"
	"github.com/shellhist/syncd/internal/server/repositories/repomanager"
)

// UserService handles signup, login, session lookup and account deletion.
type UserService struct {
	db               *sql.DB
	repos            repomanager.RepositoryManager
	openRegistration bool
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:               db,
		repos:            m,
		openRegistration: cfg.OpenRegistration,
	}
}

func newSessionToken() string {
	return uuid.NewString()
}

// Register creates the user and their first session in one transaction and
// returns the session token.
func (s *UserService) Register(ctx context.Context, username, email, password string) (string, error) {
	if !s.openRegistration {
		return "", common.ErrRegistrationClosed
	}

	if _, err := s.repos.Users(s.db).GetByUsername(ctx, username); err == nil {
		return "", common.ErrUsernameTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return "", fmt.Errorf("error checking username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	token := newSessionToken()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		id, err := repo.Add(ctx, &models.NewUser{Username: username, Email: email, Password: string(hash)})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		if err := repo.AddSession(ctx, &models.NewSession{UserID: id, Token: token}); err != nil {
			return fmt.Errorf("error creating session: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// Login verifies the password and returns an existing session token, minting
// a new session when the user has none. Unknown users and bad passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("error fetching user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", common.ErrUnauthorized
	}

	session, err := repo.GetUserSession(ctx, user)
	if err == nil {
		return session.Token, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", fmt.Errorf("error fetching session: %w", err)
	}

	token := newSessionToken()
	if err := repo.AddSession(ctx, &models.NewSession{UserID: user.ID, Token: token}); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	return token, nil
}

// Get returns the user by username, ErrNotFound when absent.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	return s.repos.Users(s.db).GetByUsername(ctx, username)
}

// GetSessionUser resolves a bearer token into its user.
func (s *UserService) GetSessionUser(ctx context.Context, token string) (*models.User, error) {
	return s.repos.Users(s.db).GetSessionUser(ctx, token)
}

// UpdatePassword re-hashes and stores a new password for the user.
func (s *UserService) UpdatePassword(ctx context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	updated := *user
	updated.Password = string(hash)
	return s.repos.Users(s.db).UpdatePassword(ctx, &updated)
}

// Delete purges the account: record store, history, cached counters,
// sessions and the user row, all in one transaction.
func (s *UserService) Delete(ctx context.Context, user *models.User) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Records(tx).DeleteAll(ctx, user); err != nil {
			return fmt.Errorf("error deleting records: %w", err)
		}
		if err := s.repos.Users(tx).Delete(ctx, user); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
}
