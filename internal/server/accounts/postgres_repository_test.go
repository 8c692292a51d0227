package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkovs/runbase/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRows(id, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "full_name",
		"preferred_name", "is_active", "is_staff", "is_superuser", "date_joined", "last_login",
	}).AddRow(id, email, "hash", "Test", "User", "Test User", "Test",
		true, false, false, time.Now(), nil)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(email,.*RETURNING\s+id,\s*date_joined\s*$`

	rows := sqlmock.NewRows([]string{"id", "date_joined"}).AddRow("u-1", time.Now())
	mock.ExpectQuery(q).
		WithArgs("testuser@example.com", "hash", "Test", "User", "Test User", "", true, false, false).
		WillReturnRows(rows)

	u := &User{
		Email:        "testuser@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		FullName:     "Test User",
		IsActive:     true,
	}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || got.DateJoined.IsZero() {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &User{Email: "dup@example.com", IsActive: true})
	if !errors.Is(err, common.ErrorEmailTaken) {
		t.Fatalf("expected ErrorEmailTaken, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &User{Email: "a@b.c"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`).
		WithArgs("testuser@example.com").
		WillReturnRows(userRows("u-1", "testuser@example.com"))

	got, err := repo.GetByEmail(context.Background(), "testuser@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.Email != "testuser@example.com" || got.LastLogin != nil {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetByID_LastLoginScanned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	lastLogin := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "full_name",
		"preferred_name", "is_active", "is_staff", "is_superuser", "date_joined", "last_login",
	}).AddRow("u-1", "a@b.c", "hash", "", "", "", "", true, false, false, time.Now(), lastLogin)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(lastLogin) {
		t.Fatalf("unexpected last_login: %+v", got.LastLogin)
	}
}

func TestEmailTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs("other@example.com", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.EmailTaken(context.Background(), "other@example.com", "u-1")
	if err != nil {
		t.Fatalf("EmailTaken error: %v", err)
	}
	if !taken {
		t.Fatal("expected email to be reported taken")
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+first_name\s*=\s*\$1,\s*last_name\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s+RETURNING`).
		WithArgs("Updated", "Name", "u-1").
		WillReturnRows(userRows("u-1", "testuser@example.com"))

	first, last := "Updated", "Name"
	_, err := repo.Update(context.Background(), "u-1", UpdateParams{FirstName: &first, LastName: &last})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestUpdate_NoFieldsFallsBackToGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).
		WithArgs("u-1").
		WillReturnRows(userRows("u-1", "testuser@example.com"))

	got, err := repo.Update(context.Background(), "u-1", UpdateParams{})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUpdate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+email`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	email := "dup@example.com"
	_, err := repo.Update(context.Background(), "u-1", UpdateParams{Email: &email})
	if !errors.Is(err, common.ErrorEmailTaken) {
		t.Fatalf("expected ErrorEmailTaken, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+password_hash`).
		WithArgs("newhash", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), "u-1", "newhash"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
}

func TestUpdatePassword_UnknownUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+password_hash`).
		WithArgs("newhash", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "ghost", "newhash")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+last_login`).
		WithArgs(at, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.TouchLastLogin(context.Background(), "u-1", at); err != nil {
		t.Fatalf("TouchLastLogin error: %v", err)
	}
}
