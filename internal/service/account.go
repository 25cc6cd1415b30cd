// Package service contains the account management core: registration,
// authentication and profile updates.
package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/and161185/accounts/internal/errs"
	"github.com/and161185/accounts/internal/model"
	"github.com/and161185/accounts/internal/repository"
	"github.com/and161185/accounts/internal/validate"
)

// MinPasswordLen is the shortest accepted password, in characters.
const MinPasswordLen = 6

// Hasher is a one-way password transform with a matching verifier.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer mints bearer tokens for an account.
type TokenIssuer interface {
	Issue(accountID int64) (string, error)
}

// RegisterRequest carries the fields of a registration.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Username string
	Password string
}

// UpdateRequest authenticates with Username/Password and changes at most one
// field. NewUsername wins over NewEmail, which wins over NewPassword; the
// lower-priority fields are ignored.
type UpdateRequest struct {
	Username    string
	Password    string
	NewUsername string
	NewEmail    string
	NewPassword string
}

// AccountService defines the account use cases.
type AccountService interface {
	// Register creates a new account.
	Register(ctx context.Context, req RegisterRequest) Outcome
	// Authenticate verifies credentials and issues an access token.
	Authenticate(ctx context.Context, req LoginRequest) Outcome
	// UpdateProfile changes one of username, email or password.
	UpdateProfile(ctx context.Context, req UpdateRequest) Outcome
}

// AccountServiceImpl is the default AccountService. It holds no mutable
// state and is safe for concurrent use.
type AccountServiceImpl struct {
	accounts repository.AccountRepository
	hasher   Hasher
	tokens   TokenIssuer
}

var _ AccountService = (*AccountServiceImpl)(nil)

// NewAccountService constructs AccountService with required dependencies.
func NewAccountService(accounts repository.AccountRepository, hasher Hasher, tokens TokenIssuer) *AccountServiceImpl {
	return &AccountServiceImpl{accounts: accounts, hasher: hasher, tokens: tokens}
}

func blank(s string) bool { return strings.Trim(s, " ") == "" }

// Register validates the request and persists a new account.
func (s *AccountServiceImpl) Register(ctx context.Context, req RegisterRequest) Outcome {
	switch {
	case blank(req.Username) || len(req.Password) == 0:
		return result(KindEmptyField, MsgEmptyField)
	case utf8.RuneCountInString(req.Password) < MinPasswordLen:
		return result(KindWeakPassword, MsgWeakPassword)
	}

	userFound, err := s.exists(ctx, s.accounts.GetByUsername, req.Username)
	if err != nil {
		return fault(KindInternalError, err)
	}
	emailFound, err := s.exists(ctx, s.accounts.GetByEmail, req.Email)
	if err != nil {
		return fault(KindInternalError, err)
	}

	kind := registerDecision(userFound, emailFound, validate.IsValidEmail(req.Email))
	switch kind {
	case KindCreated:
		return s.create(ctx, req)
	case KindInvalidEmail:
		return result(kind, MsgInvalidEmail)
	case KindEmailTaken:
		return result(kind, MsgEmailRegistered)
	default:
		return result(KindUserExists, MsgUserExists)
	}
}

// registerDecision maps the lookup results of a registration to its outcome kind.
// An existing username short-circuits every other check.
func registerDecision(userFound, emailFound, emailValid bool) Kind {
	switch {
	case userFound:
		return KindUserExists
	case emailFound:
		return KindEmailTaken
	case !emailValid:
		return KindInvalidEmail
	default:
		return KindCreated
	}
}

func (s *AccountServiceImpl) create(ctx context.Context, req RegisterRequest) Outcome {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fault(KindInternalError, err)
	}
	a := &model.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if _, err := s.accounts.Create(ctx, a); err != nil {
		return fault(KindStoreError, err)
	}
	return result(KindCreated, MsgRegistered)
}

func (s *AccountServiceImpl) exists(
	ctx context.Context, get func(context.Context, string) (*model.Account, error), key string,
) (bool, error) {
	_, err := get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errs.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Authenticate checks the credentials and returns an access token on success.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AccountServiceImpl) Authenticate(ctx context.Context, req LoginRequest) Outcome {
	if blank(req.Username) || req.Password == "" {
		return result(KindEmptyField, MsgEmptyField)
	}

	a, out, ok := s.authenticate(ctx, req.Username, req.Password)
	if !ok {
		return out
	}

	access, err := s.tokens.Issue(a.ID)
	if err != nil {
		return fault(KindInternalError, err)
	}
	return Outcome{
		Kind:        KindAuthSuccess,
		Message:     MsgLoggedIn,
		AccessToken: access,
		Username:    a.Username,
		Email:       a.Email,
	}
}

// authenticate loads the account and verifies password. When ok is false the
// returned Outcome is the one to report.
func (s *AccountServiceImpl) authenticate(ctx context.Context, username, password string) (*model.Account, Outcome, bool) {
	a, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, result(KindInvalidCredentials, MsgInvalidCredentials), false
		}
		return nil, fault(KindInternalError, err), false
	}
	if !s.hasher.Verify(password, a.PasswordHash) {
		return nil, result(KindInvalidCredentials, MsgInvalidCredentials), false
	}
	return a, Outcome{}, true
}

// UpdateProfile authenticates the caller and applies the highest-priority
// non-empty change. Uniqueness is checked against a snapshot taken before
// the mutation; the store remains the final arbiter.
func (s *AccountServiceImpl) UpdateProfile(ctx context.Context, req UpdateRequest) Outcome {
	if blank(req.Username) || req.Password == "" {
		return result(KindEmptyField, MsgEmptyField)
	}

	usernames, err := s.accounts.ListUsernames(ctx)
	if err != nil {
		return fault(KindInternalError, err)
	}
	emails, err := s.accounts.ListEmails(ctx)
	if err != nil {
		return fault(KindInternalError, err)
	}

	a, out, ok := s.authenticate(ctx, req.Username, req.Password)
	if !ok {
		return out
	}

	switch {
	case req.NewUsername != "":
		return s.changeUsername(ctx, a, req.NewUsername, usernames)
	case req.NewEmail != "":
		return s.changeEmail(ctx, a, req.NewEmail, emails)
	case req.NewPassword != "":
		return s.changePassword(ctx, a, req.NewPassword)
	default:
		return result(KindNoFieldProvided, MsgNoFieldProvided)
	}
}

func (s *AccountServiceImpl) changeUsername(ctx context.Context, a *model.Account, newUsername string, taken map[string]struct{}) Outcome {
	name := strings.Trim(newUsername, " ")
	if name == "" {
		return result(KindEmptyField, MsgEmptyField)
	}
	if _, ok := taken[name]; ok {
		return result(KindUsernameTaken, MsgUsernameTaken)
	}

	a.Username = name
	if out, ok := s.save(ctx, a, KindUsernameTaken, MsgUsernameTaken); !ok {
		return out
	}
	return Outcome{Kind: KindUsernameChanged, Message: MsgUsernameChanged, Username: name}
}

func (s *AccountServiceImpl) changeEmail(ctx context.Context, a *model.Account, newEmail string, taken map[string]struct{}) Outcome {
	_, inUse := taken[newEmail]
	switch emailDecision(inUse, validate.IsValidEmail(newEmail)) {
	case KindEmailTaken:
		return result(KindEmailTaken, MsgEmailTaken)
	case KindInvalidEmail:
		return result(KindInvalidEmail, MsgInvalidEmail)
	}

	a.Email = newEmail
	if out, ok := s.save(ctx, a, KindEmailTaken, MsgEmailTaken); !ok {
		return out
	}
	return Outcome{Kind: KindEmailChanged, Message: MsgEmailChanged, Email: newEmail}
}

// emailDecision maps an email change request to its outcome kind.
func emailDecision(inUse, valid bool) Kind {
	switch {
	case inUse:
		return KindEmailTaken
	case !valid:
		return KindInvalidEmail
	default:
		return KindEmailChanged
	}
}

func (s *AccountServiceImpl) changePassword(ctx context.Context, a *model.Account, newPassword string) Outcome {
	if s.hasher.Verify(newPassword, a.PasswordHash) {
		return result(KindPasswordUnchanged, MsgPasswordUnchanged)
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLen {
		return result(KindWeakPassword, MsgWeakPassword)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fault(KindInternalError, err)
	}
	a.PasswordHash = hash
	if out, ok := s.save(ctx, a, KindInternalError, ""); !ok {
		return out
	}
	return result(KindPasswordChanged, MsgPasswordChanged)
}

// save persists a. A uniqueness violation raised by the store is reported as
// conflict/conflictMsg; any other failure is an InternalError.
func (s *AccountServiceImpl) save(ctx context.Context, a *model.Account, conflict Kind, conflictMsg string) (Outcome, bool) {
	err := s.accounts.Update(ctx, a)
	switch {
	case err == nil:
		return Outcome{}, true
	case errors.Is(err, errs.ErrAlreadyExists) && !conflict.Fault():
		return result(conflict, conflictMsg), false
	default:
		return fault(KindInternalError, err), false
	}
}
