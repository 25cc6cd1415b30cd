// Package httpserver exposes the account service over JSON/HTTP.
package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/and161185/accounts/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

const msgBadBody = "invalid request body"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	NewUsername string `json:"new_username"`
	NewEmail    string `json:"new_email"`
	NewPassword string `json:"new_password"`
}

// response is the JSON body of every reply.
type response struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Server wires the account service into HTTP handlers.
type Server struct {
	accounts service.AccountService
	log      *zap.Logger
}

// New constructs a Server with injected dependencies.
func New(accounts service.AccountService, log *zap.Logger) *Server {
	return &Server{accounts: accounts, log: log}
}

// Handler returns the routed handler wrapped in request-id, logging and
// panic-recovery middleware.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.RedirectTrailingSlash = false

	for _, p := range []string{"/auth/register/", "/auth/register"} {
		router.HandlerFunc(http.MethodPost, p, s.register)
	}
	for _, p := range []string{"/auth/login/", "/auth/login"} {
		router.HandlerFunc(http.MethodPost, p, s.login)
	}
	for _, p := range []string{"/auth/user/", "/auth/user"} {
		router.HandlerFunc(http.MethodPut, p, s.updateUser)
	}
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, response{Message: "not found"})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, response{Message: "method not allowed"})
	})

	return RequestID(Logging(s.log)(Recover(s.log)(router)))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	out := s.accounts.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	s.reply(w, r, out)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	out := s.accounts.Authenticate(r.Context(), service.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	s.reply(w, r, out)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decode(w, r, &req) {
		return
	}
	out := s.accounts.UpdateProfile(r.Context(), service.UpdateRequest{
		Username:    req.Username,
		Password:    req.Password,
		NewUsername: req.NewUsername,
		NewEmail:    req.NewEmail,
		NewPassword: req.NewPassword,
	})
	s.reply(w, r, out)
}

// reply encodes out. Faults are logged with their cause; payloads never are.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, out service.Outcome) {
	if out.Kind.Fault() {
		s.log.Error("account operation failed",
			zap.String("kind", out.Kind.String()),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromCtx(r.Context())),
			zap.Error(out.Err),
		)
	}
	writeJSON(w, out.Status(), response{
		Message:     out.Message,
		AccessToken: out.AccessToken,
		Username:    out.Username,
		Email:       out.Email,
	})
}

// decode reads a JSON object into dst, replying 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: msgBadBody})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
