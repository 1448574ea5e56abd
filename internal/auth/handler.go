package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront-api/internal/httputil"
	"storefront-api/internal/logging"
	"storefront-api/internal/ratelimit"
	"storefront-api/internal/user"
)

// Handler contains HTTP handlers for the account endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Team     bool   `json:"team"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents a partial profile update; absent fields
// are left untouched
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Team     *bool   `json:"team"`
}

// ChangePasswordRequest represents the change-password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// DeleteAccountRequest carries the password confirmation for deletion
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// UserResponse wraps a user public view with a message
type UserResponse struct {
	Message string     `json:"message"`
	User    *user.User `json:"user"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    *user.User `json:"user"`
}

// MessageResponse is a bare confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles user registration
// @Summary      Register a new account
// @Description  Create a new user account with username, email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      201 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Missing or malformed fields"
// @Failure      409 {object} ErrorResponse "Username or email already taken"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimited(w, r, "register") {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	newUser, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, req.Team)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("registration failed: username taken")
			respondError(w, "username already taken", httputil.CodeUsernameTaken, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email registered")
			respondError(w, "email already registered", httputil.CodeEmailTaken, http.StatusConflict)
		case errors.Is(err, ErrUsernameRequired):
			respondError(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrUsernameTooLong), errors.Is(err, ErrEmailTooLong):
			respondError(w, err.Error(), httputil.CodeFieldTooLong, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)

	respondJSON(w, UserResponse{Message: "Account created", User: newUser}, http.StatusCreated)
}

// Login handles user login
// @Summary      Log in
// @Description  Authenticate with email and password and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} ErrorResponse "Missing credentials"
// @Failure      401 {object} ErrorResponse "Invalid email or password"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimited(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	token, loggedIn, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrCredentialsRequired):
			respondError(w, "email and password are required", httputil.CodeCredentialsRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in", "user_id", loggedIn.ID)

	respondJSON(w, LoginResponse{Message: "Login successful", Token: token, User: loggedIn}, http.StatusOK)
}

// GetProfile returns the authenticated user's public view
// @Summary      Get profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.User
// @Failure      401 {object} ErrorResponse "Invalid or expired token"
// @Failure      404 {object} ErrorResponse "User no longer exists"
// @Router       /api/auth/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("profile lookup failed: user gone", "user_id", userID)
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("profile lookup failed: internal error", "error", err.Error())
		respondError(w, "failed to get profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, profile, http.StatusOK)
}

// UpdateProfile applies a partial update to the authenticated user
// @Summary      Edit profile
// @Description  Update any of username, email or team flag; only supplied fields change
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to update"
// @Success      200 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Malformed fields"
// @Failure      401 {object} ErrorResponse "Invalid or expired token"
// @Failure      404 {object} ErrorResponse "User no longer exists"
// @Failure      409 {object} ErrorResponse "Username or email already taken"
// @Router       /api/auth/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	patch := user.UpdatePatch{
		Username: req.Username,
		Email:    req.Email,
		Team:     req.Team,
	}

	updated, err := h.service.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("profile update failed: username taken")
			respondError(w, "username already taken", httputil.CodeUsernameTaken, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("profile update failed: email registered")
			respondError(w, "email already registered", httputil.CodeEmailTaken, http.StatusConflict)
		case errors.Is(err, ErrUsernameRequired):
			respondError(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrUsernameTooLong), errors.Is(err, ErrEmailTooLong):
			respondError(w, err.Error(), httputil.CodeFieldTooLong, http.StatusBadRequest)
		default:
			logger.Error("profile update failed: internal error", "error", err.Error())
			respondError(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("profile updated", "user_id", userID)

	respondJSON(w, UserResponse{Message: "Profile updated", User: updated}, http.StatusOK)
}

// ChangePassword replaces the authenticated user's password
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Current and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Missing fields or new password too short"
// @Failure      401 {object} ErrorResponse "Current password incorrect"
// @Failure      404 {object} ErrorResponse "User no longer exists"
// @Router       /api/auth/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change-password body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordsRequired):
			respondError(w, "current and new password are required", httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrCurrentPasswordWrong):
			logger.Warn("change password failed: current password incorrect", "user_id", userID)
			respondError(w, "current password is incorrect", httputil.CodeCurrentPasswordWrong, http.StatusUnauthorized)
		case errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		default:
			logger.Error("change password failed: internal error", "error", err.Error())
			respondError(w, "failed to change password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, MessageResponse{Message: "Password changed successfully"}, http.StatusOK)
}

// DeleteAccount permanently deletes the authenticated user
// @Summary      Delete account
// @Description  Permanently delete the account after password confirmation
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body DeleteAccountRequest true "Password confirmation"
// @Success      200 {object} MessageResponse
// @Failure      401 {object} ErrorResponse "Missing or incorrect password confirmation"
// @Failure      404 {object} ErrorResponse "User no longer exists"
// @Router       /api/auth/delete [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	// Body may be absent entirely; a missing password still fails the
	// confirmation check below.
	var req DeleteAccountRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := h.service.DeleteAccount(r.Context(), userID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrPasswordConfirmation):
			logger.Warn("account deletion failed: password confirmation", "user_id", userID)
			respondError(w, "password confirmation required", httputil.CodePasswordConfirmRequired, http.StatusUnauthorized)
		default:
			logger.Error("account deletion failed: internal error", "error", err.Error())
			respondError(w, "failed to delete account", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("account deleted", "user_id", userID)

	respondJSON(w, MessageResponse{Message: "Account deleted"}, http.StatusOK)
}

// rateLimited checks and records the per-IP limit for an unauthenticated
// endpoint; a limiter failure is logged but never blocks the request.
func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return false
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port"
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
