package records

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
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

func TestAdd_InsertOrIgnoreWithServerID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+store\s*\(id,\s*client_id,\s*host,\s*idx,\s*timestamp,\s*version,\s*tag,\s*data,\s*cek,\s*user_id\)\s*VALUES\s*\(\$1,.*\$10\)\s*ON\s+CONFLICT\s+DO\s+NOTHING\s*$`

	record := models.Record{
		ClientID:             uuid.New(),
		Host:                 uuid.New(),
		Idx:                  3,
		Timestamp:            1234,
		Version:              "v0",
		Tag:                  "history",
		Data:                 []byte("enc"),
		ContentEncryptionKey: []byte("cek"),
	}

	mock.ExpectExec(q).
		WithArgs(
			sqlmock.AnyArg(), // server-generated id
			record.ClientID.String(), record.Host.String(),
			int64(3), int64(1234), "v0", "history",
			[]byte("enc"), []byte("cek"), int64(1),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Add(context.Background(), &models.User{ID: 1}, []models.Record{record})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdd_PreservesHighBitIdx(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// idx above math.MaxInt64 must be stored as its raw bit pattern
	record := models.Record{
		ClientID:             uuid.New(),
		Host:                 uuid.New(),
		Idx:                  1 << 63,
		Tag:                  "history",
		Data:                 []byte("enc"),
		ContentEncryptionKey: []byte("k"),
	}

	mock.ExpectExec(`INSERT\s+INTO\s+store`).
		WithArgs(
			sqlmock.AnyArg(),
			record.ClientID.String(), record.Host.String(),
			int64(-9223372036854775808), int64(0), "", "history",
			[]byte("enc"), []byte("k"), int64(1),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Add(context.Background(), &models.User{ID: 1}, []models.Record{record})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNext_AscendingFromStart(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*client_id,\s*host,\s*idx,\s*timestamp,\s*version,\s*tag,\s*data,\s*cek\s+FROM\s+store\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+host\s*=\s*\$2\s+AND\s+tag\s*=\s*\$3\s+AND\s+idx\s*>=\s*\$4\s+ORDER\s+BY\s+idx\s+ASC\s+LIMIT\s+\$5\s*$`

	host := uuid.New()
	id1, id2 := uuid.New(), uuid.New()

	rows := sqlmock.NewRows([]string{"id", "client_id", "host", "idx", "timestamp", "version", "tag", "data", "cek"}).
		AddRow(id1.String(), uuid.New().String(), host.String(), int64(5), int64(100), "v0", "history", []byte("a"), []byte("k")).
		AddRow(id2.String(), uuid.New().String(), host.String(), int64(6), int64(101), "v0", "history", []byte("b"), []byte("k"))

	mock.ExpectQuery(q).
		WithArgs(int64(1), host.String(), "history", int64(5), int64(10)).
		WillReturnRows(rows)

	got, err := repo.Next(context.Background(), &models.User{ID: 1}, host, "history", 5, 10)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if len(got) != 2 || got[0].Idx != 5 || got[1].Idx != 6 {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[0].UserID != 1 {
		t.Fatalf("user id not set: %+v", got[0])
	}
}

func TestNext_EmptyStreamIsNotAnError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "client_id", "host", "idx", "timestamp", "version", "tag", "data", "cek"})
	mock.ExpectQuery(`SELECT\s+id,\s*client_id,\s*host`).
		WillReturnRows(rows)

	got, err := repo.Next(context.Background(), &models.User{ID: 1}, uuid.New(), "history", 0, 10)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestStatus_GroupsByHostAndTag(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+host,\s*tag,\s*max\(idx\)\s+FROM\s+store\s+WHERE\s+user_id\s*=\s*\$1\s+GROUP\s+BY\s+host,\s*tag\s*$`

	hostA, hostB := uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"host", "tag", "max"}).
		AddRow(hostA.String(), "history", int64(7)).
		AddRow(hostB.String(), "kv", int64(2))

	mock.ExpectQuery(q).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	status, err := repo.Status(context.Background(), &models.User{ID: 1})
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}

	if idx, ok := status.Get(hostA, "history"); !ok || idx != 7 {
		t.Fatalf("unexpected status for hostA: %v %v", idx, ok)
	}
	if idx, ok := status.Get(hostB, "kv"); !ok || idx != 2 {
		t.Fatalf("unexpected status for hostB: %v %v", idx, ok)
	}
}

func TestStatus_EmptyForNewUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"host", "tag", "max"})
	mock.ExpectQuery(`SELECT\s+host,\s*tag,\s*max\(idx\)`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	status, err := repo.Status(context.Background(), &models.User{ID: 1})
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if len(status.Hosts) != 0 {
		t.Fatalf("expected empty status, got %+v", status)
	}
}

func TestDeleteAll_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+store\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("db down"))

	err := repo.DeleteAll(context.Background(), &models.User{ID: 1})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
