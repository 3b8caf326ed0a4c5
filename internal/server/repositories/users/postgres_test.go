package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shellhist/syncd/internal/common"
	"github.com/shellhist/syncd/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestAdd_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id\s*$`

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(42))
	mock.ExpectQuery(q).
		WithArgs("alice", "alice@example.com", "hash").
		WillReturnRows(rows)

	id, err := repo.Add(context.Background(), &models.NewUser{Username: "alice", Email: "alice@example.com", Password: "hash"})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}
}

func TestAdd_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("alice", "alice@example.com", "hash").
		WillReturnError(errors.New("db down"))

	_, err := repo.Add(context.Background(), &models.NewUser{Username: "alice", Email: "alice@example.com", Password: "hash"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*password,\s*verified_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows([]string{"id", "username", "email", "password", "verified_at"}).
		AddRow(int64(1), "alice", "alice@example.com", "hash", nil)
	mock.ExpectQuery(q).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != 1 || got.Username != "alice" || got.VerifiedAt != nil {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s*username`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetSessionUser_JoinsSessions(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+u\.id,\s*u\.username,\s*u\.email,\s*u\.password,\s*u\.verified_at\s+FROM\s+users\s+u\s+INNER\s+JOIN\s+sessions\s+s\s+ON\s+u\.id\s*=\s*s\.user_id\s+WHERE\s+s\.token\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows([]string{"id", "username", "email", "password", "verified_at"}).
		AddRow(int64(7), "bob", "bob@example.com", "hash", nil)
	mock.ExpectQuery(q).
		WithArgs("tok-1").
		WillReturnRows(rows)

	got, err := repo.GetSessionUser(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("GetSessionUser error: %v", err)
	}
	if got.ID != 7 || got.Username != "bob" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s*user_id,\s*token\s+FROM\s+sessions`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSession(context.Background(), "nope")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestDelete_CascadesAllTables(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	user := &models.User{ID: 9}

	mock.ExpectExec(`DELETE\s+FROM\s+sessions\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(user.ID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+history\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(user.ID).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE\s+FROM\s+total_history_count_user\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(user.ID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(user.ID).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), user); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
