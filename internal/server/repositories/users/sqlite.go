package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shellhist/syncd/internal/common"
	"github.com/shellhist/syncd/internal/dbx"
	"github.com/shellhist/syncd/internal/server/models"
)

// SQLiteRepository implements the identity store against SQLite. The users
// table has no verified_at column on this backend, so VerifiedAt stays nil.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, password FROM users
		 WHERE username = ?
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLiteRepository) Add(ctx context.Context, user *models.NewUser) (int64, error) {
	query :=
		`INSERT INTO users (username, email, password)
		 VALUES (?, ?, ?)
		 RETURNING id
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.Password).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET password = ?
		 WHERE id = ?
		 `

	if _, err := r.db.ExecContext(ctx, query, user.Password, user.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	query :=
		`SELECT id, user_id, token FROM sessions
		 WHERE token = ?
		 `

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&session.ID, &session.UserID, &session.Token)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

func (r *SQLiteRepository) GetSessionUser(ctx context.Context, token string) (*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.email, u.password
		 FROM users u
		 INNER JOIN sessions s ON u.id = s.user_id
		 WHERE s.token = ?
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLiteRepository) GetUserSession(ctx context.Context, user *models.User) (*models.Session, error) {
	query :=
		`SELECT id, user_id, token FROM sessions
		 WHERE user_id = ?
		 LIMIT 1
		 `

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, user.ID).Scan(&session.ID, &session.UserID, &session.Token)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

func (r *SQLiteRepository) AddSession(ctx context.Context, session *models.NewSession) error {
	query :=
		`INSERT INTO sessions (user_id, token)
		 VALUES (?, ?)
		 `

	if _, err := r.db.ExecContext(ctx, query, session.UserID, session.Token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, user *models.User) error {
	statements := []string{
		`DELETE FROM sessions WHERE user_id = ?`,
		`DELETE FROM history WHERE user_id = ?`,
		`DELETE FROM total_history_count_user WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	}

	for _, query := range statements {
		if _, err := r.db.ExecContext(ctx, query, user.ID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}
