package history

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

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

func TestAdd_InsertOrIgnorePerEntry(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+history\s*\(client_id,\s*user_id,\s*hostname,\s*timestamp,\s*data\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*ON\s+CONFLICT\s+DO\s+NOTHING\s*$`

	entries := []models.NewHistory{
		{ClientID: "c1", UserID: 1, Hostname: "host-a", Timestamp: time.Unix(100, 0), Data: "enc1"},
		{ClientID: "c2", UserID: 1, Hostname: "host-a", Timestamp: time.Unix(200, 0), Data: "enc2"},
	}

	mock.ExpectExec(q).
		WithArgs("c1", int64(1), "host-a", sqlmock.AnyArg(), "enc1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("c2", int64(1), "host-a", sqlmock.AnyArg(), "enc2").
		WillReturnResult(sqlmock.NewResult(0, 0)) // duplicate, ignored

	if err := repo.Add(context.Background(), entries); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*client_id,\s*user_id,\s*hostname,\s*timestamp,\s*data,\s*created_at,\s*deleted_at\s+FROM\s+history\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+hostname\s*!=\s*\$2\s+AND\s+created_at\s*>=\s*\$3\s+AND\s+timestamp\s*>=\s*\$4\s+AND\s+deleted_at\s+IS\s+NULL\s+ORDER\s+BY\s+timestamp\s+ASC\s+LIMIT\s+\$5\s*$`

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "client_id", "user_id", "hostname", "timestamp", "data", "created_at", "deleted_at"}).
		AddRow(int64(1), "c1", int64(1), "host-b", now, "enc", now, nil)

	mock.ExpectQuery(q).
		WithArgs(int64(1), "host-a", sqlmock.AnyArg(), sqlmock.AnyArg(), 100).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), &models.User{ID: 1}, time.Time{}, time.Time{}, "host-a", 100)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 || got[0].ClientID != "c1" || got[0].DeletedAt != nil {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCountCached_NotFoundWhenNoCacheRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+total\s+FROM\s+total_history_count_user`).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.CountCached(context.Background(), &models.User{ID: 5})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestCountCached_ReadsTotal(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"total"}).AddRow(int64(12))
	mock.ExpectQuery(`SELECT\s+total\s+FROM\s+total_history_count_user\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	count, err := repo.CountCached(context.Background(), &models.User{ID: 5})
	if err != nil {
		t.Fatalf("CountCached error: %v", err)
	}
	if count != 12 {
		t.Fatalf("unexpected count: %d", count)
	}
}

func TestDelete_GuardsExistingTombstone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+history\s+SET\s+deleted_at\s*=\s*\$3\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+client_id\s*=\s*\$2\s+AND\s+deleted_at\s+IS\s+NULL\s*$`

	mock.ExpectExec(q).
		WithArgs(int64(1), "c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), &models.User{ID: 1}, "c1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOldest_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER\s+BY\s+timestamp\s+ASC\s+LIMIT\s+1`).
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Oldest(context.Background(), &models.User{ID: 1})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestTotalCount_SumsAllUsers(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(77))
	mock.ExpectQuery(`SELECT\s+COALESCE\(sum\(total\),\s*0\)\s+FROM\s+total_history_count_user`).
		WillReturnRows(rows)

	count, err := repo.TotalCount(context.Background())
	if err != nil {
		t.Fatalf("TotalCount error: %v", err)
	}
	if count != 77 {
		t.Fatalf("unexpected count: %d", count)
	}
}

func TestList_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s*client_id`).
		WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), &models.User{ID: 1}, time.Time{}, time.Time{}, "h", 10)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
