package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/accounts/internal/crypto"
	"github.com/and161185/accounts/internal/repository/memory"
	"github.com/and161185/accounts/internal/service"
	"github.com/and161185/accounts/internal/token"
)

type reply struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Email       string `json:"email"`
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	hasher := pkgcrypto.NewArgon2Hasher(pkgcrypto.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	svc := service.NewAccountService(memory.NewAccountRepo(), hasher, token.NewIssuer([]byte("secret"), time.Minute))
	return New(svc, zaptest.NewLogger(t)).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, reply) {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NotEmpty(t, w.Header().Get(HeaderRequestID))
	var res reply
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	return w.Code, res
}

const userData = `{"username": "robley", "email": "robley.gori@andela.com", "password": "test_password"}`

func TestRegistration(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	code, res := do(t, h, http.MethodPost, "/auth/register", userData)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "You registered successfully. Log in.", res.Message)
}

func TestDoubleRegistration(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	code, _ := do(t, h, http.MethodPost, "/auth/register/", userData)
	require.Equal(t, http.StatusCreated, code)

	code, res := do(t, h, http.MethodPost, "/auth/register/", userData)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "User already exists. Please login", res.Message)
}

func TestRegistration_BadInput(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	tests := []struct {
		body     string
		wantCode int
		wantMsg  string
	}{
		{`{"username": "", "password": "new_password"}`, http.StatusBadRequest, "Error. The username or password cannot be empty"},
		{`{"username": "robley", "password": ""}`, http.StatusBadRequest, "Error. The username or password cannot be empty"},
		{`{"username": "robley", "email": "r@b.com", "password": "abc"}`, http.StatusBadRequest, "Error. The password should be at least 6 characters"},
		{`{"username": "robley", "email": "a@b", "password": "abcdef"}`, http.StatusBadRequest, "Invalid email. Please try again"},
		{`invalid request`, http.StatusBadRequest, msgBadBody},
		{`["robley"]`, http.StatusBadRequest, msgBadBody},
		{`{"username": 5}`, http.StatusBadRequest, msgBadBody},
	}
	for _, tt := range tests {
		code, res := do(t, h, http.MethodPost, "/auth/register/", tt.body)
		require.Equal(t, tt.wantCode, code, tt.body)
		require.Equal(t, tt.wantMsg, res.Message, tt.body)
	}
}

func TestRegistration_EmailTaken(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	code, _ := do(t, h, http.MethodPost, "/auth/register/", userData)
	require.Equal(t, http.StatusCreated, code)

	code, res := do(t, h, http.MethodPost, "/auth/register/",
		`{"username": "someone", "email": "robley.gori@andela.com", "password": "test_password"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "Email is already registered. try again", res.Message)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	code, _ := do(t, h, http.MethodPost, "/auth/register/", userData)
	require.Equal(t, http.StatusCreated, code)

	code, res := do(t, h, http.MethodPost, "/auth/login/", userData)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "You logged in successfully.", res.Message)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, "robley", res.Username)
	require.Equal(t, "robley.gori@andela.com", res.Email)
}

func TestLogin_Rejections(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	code, _ := do(t, h, http.MethodPost, "/auth/register/", userData)
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		body     string
		wantCode int
		wantMsg  string
	}{
		{`{"username": "nonuser", "email": "nonuser@email.com", "password": "invalidpassword"}`, http.StatusUnauthorized, "Invalid username or password. Please try again."},
		{`{"username": "robley", "password": "wrong_password"}`, http.StatusUnauthorized, "Invalid username or password. Please try again."},
		{`{"username": "robley", "password": ""}`, http.StatusBadRequest, "Error. The username or password cannot be empty"},
		{`{"username": "", "password": "test_password"}`, http.StatusBadRequest, "Error. The username or password cannot be empty"},
	}
	for _, tt := range tests {
		code, res := do(t, h, http.MethodPost, "/auth/login/", tt.body)
		require.Equal(t, tt.wantCode, code, tt.body)
		require.Equal(t, tt.wantMsg, res.Message, tt.body)
		require.Empty(t, res.AccessToken)
	}
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	code, _ := do(t, h, http.MethodPost, "/auth/register/", userData)
	require.Equal(t, http.StatusCreated, code)
	code, _ = do(t, h, http.MethodPost, "/auth/register/", `{"username": "other", "email": "other@andela.com", "password": "test_password"}`)
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		body     string
		wantCode int
		wantMsg  string
		wantUser string
		wantMail string
	}{
		{`{"username": "robley", "password": "test_password", "new_password": "test_password"}`, http.StatusConflict, "Password cannot be the same as the old one. Try again", "", ""},
		{`{"username": "robley", "password": "test_password", "new_password": "abc"}`, http.StatusBadRequest, "Error. The password should be at least 6 characters", "", ""},
		{`{"username": "robley", "password": "test_password", "new_username": "other"}`, http.StatusConflict, "Username already taken. Try another one", "", ""},
		{`{"username": "robley", "password": "test_password", "new_email": "other@andela.com"}`, http.StatusConflict, "Email already registered. Try another one", "", ""},
		{`{"username": "robley", "password": "test_password", "new_email": "nope"}`, http.StatusBadRequest, "Invalid email. Please try again", "", ""},
		{`{"username": "robley", "password": "test_password"}`, http.StatusBadRequest, "All fields cannot be empty", "", ""},
		{`{"username": "robley", "password": "bad_password", "new_email": "x@y.com"}`, http.StatusUnauthorized, "Invalid username or password. Please try again.", "", ""},
		{`{"username": "robley", "password": "test_password", "new_email": "fresh@andela.com"}`, http.StatusCreated, "Email changed successfully", "", "fresh@andela.com"},
		{`{"username": "robley", "password": "test_password", "new_password": "new_secret"}`, http.StatusCreated, "Password changed successfully", "", ""},
		{`{"username": "robley", "password": "new_secret", "new_username": "gori"}`, http.StatusCreated, "Username changed successfully", "gori", ""},
	}
	for _, tt := range tests {
		code, res := do(t, h, http.MethodPut, "/auth/user/", tt.body)
		require.Equal(t, tt.wantCode, code, tt.body)
		require.Equal(t, tt.wantMsg, res.Message, tt.body)
		require.Equal(t, tt.wantUser, res.Username, tt.body)
		require.Equal(t, tt.wantMail, res.Email, tt.body)
	}

	code, _ = do(t, h, http.MethodPost, "/auth/login/", `{"username": "gori", "password": "test_password"}`)
	require.Equal(t, http.StatusUnauthorized, code)
	code, res := do(t, h, http.MethodPost, "/auth/login/", `{"username": "gori", "password": "new_secret"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "fresh@andela.com", res.Email)
}

func TestRouting_UnknownAndWrongMethod(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	code, res := do(t, h, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "not found", res.Message)

	code, res = do(t, h, http.MethodGet, "/auth/login/", "")
	require.Equal(t, http.StatusMethodNotAllowed, code)
	require.Equal(t, "method not allowed", res.Message)
}

type stubService struct {
	out   service.Outcome
	panic bool
}

func (s stubService) result() service.Outcome {
	if s.panic {
		panic("boom")
	}
	return s.out
}

func (s stubService) Register(context.Context, service.RegisterRequest) service.Outcome {
	return s.result()
}
func (s stubService) Authenticate(context.Context, service.LoginRequest) service.Outcome {
	return s.result()
}
func (s stubService) UpdateProfile(context.Context, service.UpdateRequest) service.Outcome {
	return s.result()
}

func TestFaultOutcome_ReturnsMessageVerbatim(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	svc := stubService{out: service.Outcome{Kind: service.KindStoreError, Message: cause.Error(), Err: cause}}
	h := New(svc, zaptest.NewLogger(t)).Handler()

	code, res := do(t, h, http.MethodPost, "/auth/register/", userData)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "connection refused", res.Message)
}

func TestPanic_IsRecoveredAsInternalError(t *testing.T) {
	t.Parallel()

	h := New(stubService{panic: true}, zaptest.NewLogger(t)).Handler()

	code, res := do(t, h, http.MethodPost, "/auth/login/", userData)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "internal error", res.Message)
}
