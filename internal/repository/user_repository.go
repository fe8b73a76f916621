package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/court-reservation/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password_hash, role, status, suspended_until, created_at, updated_at"

func scanUser(s rowScanner) (model.User, error) {
	var (
		u      model.User
		status string
		until  sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &status, &until, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	u.Status = model.AccountStatus(status)
	if until.Valid {
		t := until.Time
		u.SuspendedUntil = &t
	}
	return u, nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u.  Username and email are unique.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	u.Username = strings.TrimSpace(u.Username)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, role, status) VALUES (?,?,?,?,?,?)",
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, string(u.Status))
	switch {
	case duplicateKey(err, "uq_users_username"):
		return ErrUsernameTaken
	case duplicateKey(err, "uq_users_email"):
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, "id=?", id)
}

// GetByLogin fetches a user by email when the identifier contains an @,
// by username otherwise.
func (r *UserRepo) GetByLogin(ctx context.Context, ident string) (model.User, error) {
	ident = strings.TrimSpace(ident)
	if strings.Contains(ident, "@") {
		return r.getOne(ctx, "email=?", NormalizeEmail(ident))
	}
	return r.getOne(ctx, "username=?", ident)
}

// List returns all users ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateStatus sets the account status.  until is stored only for
// SUSPENDED and cleared otherwise.
func (r *UserRepo) UpdateStatus(ctx context.Context, id string, status model.AccountStatus, until *time.Time) error {
	var suspended any
	if status == model.AccountSuspended && until != nil {
		suspended = until.UTC()
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=?, suspended_until=? WHERE id=?", string(status), suspended, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
