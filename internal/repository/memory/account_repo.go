// Package memory provides an in-process AccountRepository for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/accounts/internal/errs"
	"github.com/and161185/accounts/internal/model"
)

// AccountRepo keeps accounts in maps guarded by a single mutex, so the
// uniqueness checks in Create and Update are atomic with the write.
type AccountRepo struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*model.Account
	byUsername map[string]int64
	byEmail    map[string]int64
}

// NewAccountRepo constructs an empty repository.
func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:       map[int64]*model.Account{},
		byUsername: map[string]int64{},
		byEmail:    map[string]int64{},
	}
}

// Create stores a copy of a and assigns the next ID.
func (r *AccountRepo) Create(_ context.Context, a *model.Account) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[a.Username]; ok {
		return 0, errs.ErrAlreadyExists
	}
	if _, ok := r.byEmail[a.Email]; ok {
		return 0, errs.ErrAlreadyExists
	}

	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now().UTC()

	cpy := *a
	r.byID[cpy.ID] = &cpy
	r.byUsername[cpy.Username] = cpy.ID
	r.byEmail[cpy.Email] = cpy.ID
	return cpy.ID, nil
}

// GetByUsername returns a copy of the account with the given username.
func (r *AccountRepo) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byUsername, username)
}

// GetByEmail returns a copy of the account with the given email.
func (r *AccountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byEmail, email)
}

func (r *AccountRepo) lookup(index map[string]int64, key string) (*model.Account, error) {
	id, ok := index[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

// ListUsernames returns a snapshot of all usernames.
func (r *AccountRepo) ListUsernames(_ context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.byUsername), nil
}

// ListEmails returns a snapshot of all emails.
func (r *AccountRepo) ListEmails(_ context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.byEmail), nil
}

func keys(m map[string]int64) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// Update replaces the mutable fields of the stored account with a.ID.
func (r *AccountRepo) Update(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if id, ok := r.byUsername[a.Username]; ok && id != a.ID {
		return errs.ErrAlreadyExists
	}
	if id, ok := r.byEmail[a.Email]; ok && id != a.ID {
		return errs.ErrAlreadyExists
	}

	delete(r.byUsername, cur.Username)
	delete(r.byEmail, cur.Email)
	cur.Username = a.Username
	cur.Email = a.Email
	cur.PasswordHash = a.PasswordHash
	r.byUsername[cur.Username] = cur.ID
	r.byEmail[cur.Email] = cur.ID
	return nil
}

// Ping always succeeds; present so the repository can back health checks.
func (r *AccountRepo) Ping(context.Context) error { return nil }
