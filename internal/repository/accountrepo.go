// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/accounts/internal/model"
)

// AccountRepository provides durable access to accounts.
// Implementations must enforce username and email uniqueness atomically.
type AccountRepository interface {
	// Create inserts a new account and returns the store-assigned ID.
	// A username or email collision yields errs.ErrAlreadyExists.
	Create(ctx context.Context, a *model.Account) (int64, error)
	// GetByUsername loads an account by exact username, or errs.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	// GetByEmail loads an account by exact email, or errs.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// ListUsernames returns the set of all usernames.
	ListUsernames(ctx context.Context) (map[string]struct{}, error)
	// ListEmails returns the set of all emails.
	ListEmails(ctx context.Context) (map[string]struct{}, error)
	// Update replaces username, email and password hash of the account with a.ID.
	Update(ctx context.Context, a *model.Account) error
}
