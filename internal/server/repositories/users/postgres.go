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

// PostgresRepository implements the identity store over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, password, verified_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	var verifiedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password, &verifiedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if verifiedAt.Valid {
		user.VerifiedAt = &verifiedAt.Time
	}

	return user, nil
}

func (r *PostgresRepository) Add(ctx context.Context, user *models.NewUser) (int64, error) {
	query :=
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.Password).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET password = $1
		 WHERE id = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, user.Password, user.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	query :=
		`SELECT id, user_id, token FROM sessions
		 WHERE token = $1
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

func (r *PostgresRepository) GetSessionUser(ctx context.Context, token string) (*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.email, u.password, u.verified_at
		 FROM users u
		 INNER JOIN sessions s ON u.id = s.user_id
		 WHERE s.token = $1
		 `

	user := &models.User{}
	var verifiedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password, &verifiedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if verifiedAt.Valid {
		user.VerifiedAt = &verifiedAt.Time
	}

	return user, nil
}

func (r *PostgresRepository) GetUserSession(ctx context.Context, user *models.User) (*models.Session, error) {
	query :=
		`SELECT id, user_id, token FROM sessions
		 WHERE user_id = $1
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

func (r *PostgresRepository) AddSession(ctx context.Context, session *models.NewSession) error {
	query :=
		`INSERT INTO sessions (user_id, token)
		 VALUES ($1, $2)
		 `

	if _, err := r.db.ExecContext(ctx, query, session.UserID, session.Token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, user *models.User) error {
	statements := []string{
		`DELETE FROM sessions WHERE user_id = $1`,
		`DELETE FROM history WHERE user_id = $1`,
		`DELETE FROM total_history_count_user WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}

	for _, query := range statements {
		if _, err := r.db.ExecContext(ctx, query, user.ID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}
