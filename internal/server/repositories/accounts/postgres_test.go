package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var (
	insertQuery = `(?s)^INSERT\s+INTO\s+accounts\s*\(id,\s*full_name,\s*email,\s*password_digest,\s*is_active,\s*role,\s*created_at,\s*last_updated_at\)\s*VALUES\s*\(\$1,.*\$8\)\s*ON\s+CONFLICT\s*\(email\)\s*DO\s+NOTHING\s*RETURNING\s+id\s*$`
	byEmailQuery = `(?s)^SELECT\s+id,\s*full_name,.*FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\s*$`
	byIDQuery    = `(?s)^SELECT\s+id,\s*full_name,.*FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`
	existsQuery  = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\)$`
	updateQuery  = `(?s)^UPDATE\s+accounts\s+SET\s+last_login_at\s*=\s*\$2,\s*last_updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`
	accountCols  = []string{"id", "full_name", "email", "password_digest", "is_active", "role", "last_login_at", "created_at", "last_updated_at"}
)

func sampleAccount() *models.Account {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Account{
		ID:             "0b6f1e9e-8c3a-4e59-9a8c-3c4f4a0d1e11",
		FullName:       "A B",
		Email:          "a@example.com",
		PasswordDigest: "c2FsdA==.a2V5",
		IsActive:       true,
		Role:           "User",
		CreatedAt:      now,
		LastUpdatedAt:  now,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a := sampleAccount()

	mock.ExpectQuery(insertQuery).
		WithArgs(a.ID, a.FullName, a.Email, a.PasswordDigest, true, "User", a.CreatedAt, a.LastUpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a.ID))

	got, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ConflictNoRows(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Create(context.Background(), sampleAccount())
	assert.ErrorIs(t, err, common.ErrDuplicateAccount)
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), sampleAccount())
	assert.ErrorIs(t, err, common.ErrDuplicateAccount)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleAccount())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(existsQuery).WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsQuery).WithArgs("b@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(existsQuery).WithArgs("c@example.com").
		WillReturnError(errors.New("conn reset"))

	ok, err := repo.ExistsByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByEmail(context.Background(), "b@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.ExistsByEmail(context.Background(), "c@example.com")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a := sampleAccount()
	last := a.CreatedAt.Add(time.Hour)

	mock.ExpectQuery(byEmailQuery).WithArgs(a.Email).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow(a.ID, a.FullName, a.Email, a.PasswordDigest, a.IsActive, a.Role, last, a.CreatedAt, a.LastUpdatedAt))

	got, err := repo.GetByEmail(context.Background(), a.Email)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.PasswordDigest, got.PasswordDigest)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, last.Equal(*got.LastLoginAt))
}

func TestGetByEmail_NullLastLogin(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a := sampleAccount()

	mock.ExpectQuery(byEmailQuery).WithArgs(a.Email).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow(a.ID, a.FullName, a.Email, a.PasswordDigest, false, "Admin", nil, a.CreatedAt, a.LastUpdatedAt))

	got, err := repo.GetByEmail(context.Background(), a.Email)
	require.NoError(t, err)
	assert.Nil(t, got.LastLoginAt)
	assert.False(t, got.IsActive)
	assert.Equal(t, "Admin", got.Role)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byEmailQuery).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byIDQuery).WithArgs("id-1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "id-1")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestUpdateLastLogin(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now().UTC()

	mock.ExpectExec(updateQuery).WithArgs("id-1", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateQuery).WithArgs("id-2", at).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(updateQuery).WithArgs("id-3", at).WillReturnError(errors.New("timeout"))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), "id-1", at))
	assert.ErrorIs(t, repo.UpdateLastLogin(context.Background(), "id-2", at), common.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateLastLogin(context.Background(), "id-3", at), common.ErrStoreUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
