// Package model defines domain entities used by services and repositories.
package model

import "time"

// Account is a persisted user identity. Username and Email are unique across accounts.
type Account struct {
	ID           int64  // assigned by the store, immutable
	Username     string // unique, case-sensitive
	Email        string // unique
	PasswordHash string // encoded one-way hash, never the plaintext
	CreatedAt    time.Time
}
