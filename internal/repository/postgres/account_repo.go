package postgres

import (
	"context"
	"errors"

	"github.com/and161185/accounts/internal/errs"
	"github.com/and161185/accounts/internal/model"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements AccountRepository using PostgreSQL.
// Uniqueness of username and email is enforced by table constraints.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

const selectAccount = `
SELECT id, username, email, pwd_hash, created_at
FROM accounts`

// Create inserts a new account row and returns its generated ID.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) (int64, error) {
	const q = `
INSERT INTO accounts (username, email, pwd_hash)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q, a.Username, a.Email, a.PasswordHash).Scan(&a.ID, &a.CreatedAt)
	if isUniqueViolation(err) {
		return 0, errs.ErrAlreadyExists
	}
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

// GetByUsername selects an account by username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE username=$1`, username)
}

// GetByEmail selects an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE email=$1`, email)
}

func (r *AccountRepo) getOne(ctx context.Context, q string, arg string) (*model.Account, error) {
	var a model.Account
	err := r.db.Pool.QueryRow(ctx, q, arg).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListUsernames returns every stored username.
func (r *AccountRepo) ListUsernames(ctx context.Context) (map[string]struct{}, error) {
	return r.column(ctx, `SELECT username FROM accounts`)
}

// ListEmails returns every stored email.
func (r *AccountRepo) ListEmails(ctx context.Context) (map[string]struct{}, error) {
	return r.column(ctx, `SELECT email FROM accounts`)
}

func (r *AccountRepo) column(ctx context.Context, q string) (map[string]struct{}, error) {
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var v string
		if err = rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = struct{}{}
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of an existing account.
func (r *AccountRepo) Update(ctx context.Context, a *model.Account) error {
	const q = `
UPDATE accounts
SET username = $2, email = $3, pwd_hash = $4
WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, a.ID, a.Username, a.Email, a.PasswordHash)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *AccountRepo) Ping(ctx context.Context) error { return r.db.Ping(ctx) }
