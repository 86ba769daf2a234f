package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// AuthService is the business API behind the HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, claims *auth.Claims) (*services.Profile, error)
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	LastLogin string `json:"lastLogin,omitempty"`
}

const maxBodyBytes = 1 << 20

type AuthHandler struct {
	svc AuthService
	log logging.Logger
}

func NewAuthHandler(svc AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error, credentialStatus int) {
	status, msg := statusForError(err, credentialStatus)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "request_id", GetRequestID(r.Context()), "error", err)
	}
	writeMessage(w, status, msg)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.svc.Register(r.Context(), services.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), ClaimsFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err, http.StatusUnauthorized)
		return
	}

	resp := profileResponse{
		UserID:   p.UserID,
		Email:    p.Email,
		Name:     p.Name,
		Role:     p.Role,
		IsActive: p.IsActive,
	}
	if p.LastLogin != nil {
		resp.LastLogin = p.LastLogin.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Admin handles GET /api/auth/admin.
func (h *AuthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Welcome, Admin")
}
