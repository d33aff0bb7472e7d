package handlers

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"liveclass-backend/internal/middleware"
	"liveclass-backend/internal/models"
	"liveclass-backend/internal/repository"
)

// AuthHandler issues the JWT that establishes connection identity. Account
// management itself lives outside this service.
type AuthHandler struct {
	users   *repository.UserRepo
	jwtAuth *middleware.JWTAuth
}

func NewAuthHandler(users *repository.UserRepo, jwtAuth *middleware.JWTAuth) *AuthHandler {
	return &AuthHandler{users: users, jwtAuth: jwtAuth}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Email and password required", r))
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Login failed", r))
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid email or password", r))
		return
	}
	if !user.IsActive {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Account is deactivated", r))
		return
	}

	token, err := h.jwtAuth.GenerateAccessToken(user.ID, user.Role, models.DisplayNameOf(user))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Login failed", r))
		return
	}

	// Best effort; a failed timestamp update should not fail the login.
	_ = h.users.TouchLastLogin(r.Context(), user.Email)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
		"tokens": models.AuthTokens{
			AccessToken: token,
			ExpiresIn:   12 * 60 * 60,
		},
	})
}
