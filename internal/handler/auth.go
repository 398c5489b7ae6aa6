package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/xenking/coffee-shop/internal/domain/user"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=100,username"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r *registerRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *loginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func newSessionResponse(s *user.Session) sessionResponse {
	return sessionResponse{
		User: userResponse{
			ID:       s.User.ID,
			Email:    s.User.Email,
			Username: s.User.Username,
		},
		Token: s.Token,
	}
}

// Register creates an account and returns a bearer token for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bind(w, r, &req) {
		return
	}

	s, err := h.users.Register(r.Context(), user.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "User registered successfully", newSessionResponse(s))
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind(w, r, &req) {
		return
	}

	s, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Login successful", newSessionResponse(s))
}

type claimsKey struct{}

// claimsFrom returns the claims stored by Authenticate. Routes behind
// Authenticate always have them.
func claimsFrom(ctx context.Context) *user.Claims {
	c, _ := ctx.Value(claimsKey{}).(*user.Claims)
	return c
}

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the token claims in the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		claims, err := h.users.Authenticate(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
