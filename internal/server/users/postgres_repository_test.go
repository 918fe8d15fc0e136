package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akozlenkov/authgate/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	repo, err := NewPostgresRepository(db)
	if err != nil {
		t.Fatalf("NewPostgresRepository error: %v", err)
	}
	return repo, mock, db
}

var userColumns = []string{"id", "username", "email", "name", "surname", "created_at", "updated_at"}

const upsertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*name,\s*surname\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(username\)\s*DO\s+UPDATE.*RETURNING\s+id,\s*username,\s*email,\s*name,\s*surname,\s*created_at,\s*updated_at\s*$`

func TestUpsert_InsertsNewUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "jdoe", "jdoe@example.com", "John", "Doe", now, now)
	mock.ExpectQuery(upsertQuery).
		WithArgs("jdoe", "jdoe@example.com", "John", "Doe").
		WillReturnRows(rows)

	got, err := repo.Upsert(context.Background(), &User{
		Username: "jdoe", Email: "jdoe@example.com", Name: "John", Surname: "Doe",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if got.ID != "u-1" || got.Username != "jdoe" || got.Email != "jdoe@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUpsert_RefreshesExistingUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().Add(-24 * time.Hour)
	updated := time.Now()
	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "jdoe", "new@example.com", "John", "Doe", created, updated)
	mock.ExpectQuery(upsertQuery).
		WithArgs("jdoe", "new@example.com", "John", "Doe").
		WillReturnRows(rows)

	got, err := repo.Upsert(context.Background(), &User{
		Username: "jdoe", Email: "new@example.com", Name: "John", Surname: "Doe",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if got.Email != "new@example.com" {
		t.Fatalf("attributes not refreshed: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("expected updated_at after created_at: %+v", got)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQuery).
		WithArgs("jdoe", "jdoe@example.com", "John", "Doe").
		WillReturnError(errors.New("db down"))

	_, err := repo.Upsert(context.Background(), &User{
		Username: "jdoe", Email: "jdoe@example.com", Name: "John", Surname: "Doe",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*name,\s*surname,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

	now := time.Now()
	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "jdoe", "jdoe@example.com", "John", "Doe", now, now)
	mock.ExpectQuery(q).
		WithArgs("jdoe").
		WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != "u-1" || got.Username != "jdoe" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*name,\s*surname,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*name,\s*surname,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	now := time.Now()
	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "jdoe", "jdoe@example.com", "John", "Doe", now, now)
	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Username != "jdoe" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*name,\s*surname,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
