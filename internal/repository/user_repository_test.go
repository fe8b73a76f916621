package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/court-reservation/internal/model"
)

var userCols = []string{"id", "username", "email", "password_hash", "role", "status", "suspended_until", "created_at", "updated_at"}

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func TestUserRepo_CreateNormalizesAndMapsDuplicates(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "juan", "juan@example.com", "hash", model.RoleUser, "ENABLED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'juan' for key 'users.uq_users_username'"})
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'juan@example.com' for key 'users.uq_users_email'"})

	u := &model.User{ID: "u1", Username: " juan ", Email: " Juan@Example.COM", PasswordHash: "hash", Role: model.RoleUser, Status: model.AccountEnabled}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, "juan@example.com", u.Email)

	assert.ErrorIs(t, repo.Create(context.Background(), u), ErrUsernameTaken)
	assert.ErrorIs(t, repo.Create(context.Background(), u), ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByLogin(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Now()
	until := now.Add(48 * time.Hour)

	mock.ExpectQuery("WHERE email=").WithArgs("juan@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "juan", "juan@example.com", "h", "USER", "SUSPENDED", until, now, now))
	mock.ExpectQuery("WHERE username=").WithArgs("juan").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "juan", "juan@example.com", "h", "USER", "ENABLED", nil, now, now))
	mock.ExpectQuery("WHERE username=").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	u, err := repo.GetByLogin(context.Background(), "JUAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.AccountSuspended, u.Status)
	require.NotNil(t, u.SuspendedUntil)
	assert.True(t, u.Blocked(now))

	u, err = repo.GetByLogin(context.Background(), "juan")
	require.NoError(t, err)
	assert.Nil(t, u.SuspendedUntil)

	_, err = repo.GetByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UpdateStatus(t *testing.T) {
	repo, mock := newUserRepo(t)
	until := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE users SET status=").WithArgs("SUSPENDED", until, "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET status=").WithArgs("ENABLED", nil, "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET status=").WithArgs("DISABLED", nil, "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("WHERE id=").WithArgs("gone").WillReturnRows(sqlmock.NewRows(userCols))

	require.NoError(t, repo.UpdateStatus(context.Background(), "u1", model.AccountSuspended, &until))
	require.NoError(t, repo.UpdateStatus(context.Background(), "u1", model.AccountEnabled, &until))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "gone", model.AccountDisabled, nil), ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	mock.ExpectQuery("FROM refresh_tokens").WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", now.Add(time.Hour), nil))
	mock.ExpectQuery("FROM refresh_tokens").WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", now.Add(-time.Hour), nil))
	mock.ExpectQuery("FROM refresh_tokens").WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", now.Add(time.Hour), now))
	mock.ExpectQuery("FROM refresh_tokens").WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(cols))

	id, err := repo.ValidateRefresh(context.Background(), "live", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	for _, h := range []string{"expired", "revoked", "unknown"} {
		_, err := repo.ValidateRefresh(context.Background(), h, now)
		assert.ErrorIs(t, err, ErrTokenInvalid, h)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepo_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAdminRepo(db)

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("reserved", 4).AddRow("cancelled", 1))
	mock.ExpectQuery("JOIN venues").WithArgs("reserved").
		WillReturnRows(sqlmock.NewRows([]string{"name", "c"}).AddRow("Cancha 1", 3))
	mock.ExpectQuery("JOIN users").WithArgs("reserved").
		WillReturnRows(sqlmock.NewRows([]string{"username", "c"}))
	mock.ExpectQuery("FROM users").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("FROM venues").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	s, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Reserved: 4, Cancelled: 1, TopVenue: "Cancha 1", MostActive: NotAvailable, Users: 7, Venues: 2}, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}
