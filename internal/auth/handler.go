package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/moviehub/theater-api/internal/httputil"
	"github.com/moviehub/theater-api/internal/logging"
	"github.com/moviehub/theater-api/internal/password"
	"github.com/moviehub/theater-api/internal/ratelimit"
	"github.com/moviehub/theater-api/internal/user"
)

// Handler contains HTTP handlers for the account endpoints.
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
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ActivateRequest carries the emailed activation token
type ActivateRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// EmailRequest is the body for resend-activation and reset-request
type EmailRequest struct {
	Email string `json:"email"`
}

// CompleteResetRequest carries the emailed reset token and the new password
type CompleteResetRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh and logout request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangeGroupRequest represents the admin group change request body
type ChangeGroupRequest struct {
	Group string `json:"group"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// MessageResponse is a plain informational response
type MessageResponse struct {
	Message string `json:"message"`
}

// AccessTokenResponse is returned by the refresh endpoint
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an inactive user account. An activation email is sent.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration credentials"
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /accounts/register/ [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		httputil.RespondError(w, "Too many requests, please try again later.", http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			httputil.RespondError(w, "A user with this email already exists.", http.StatusConflict)
			return
		}
		if isValidationError(err) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondError(w, capitalize(err.Error()), http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to register user.", http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, UserResponse{
		ID:    newUser.ID,
		Email: newUser.Email,
	}, http.StatusCreated)
}

// Activate handles account activation via emailed token
// @Summary      Activate an account
// @Description  Activate a user account using the token sent via email
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body ActivateRequest true "Email and activation token"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid, expired, or already used token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /accounts/activate/ [post]
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid activation request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	if err := h.service.Activate(r.Context(), req.Email, req.Token); err != nil {
		if errors.Is(err, ErrAlreadyActive) {
			logger.Warn("activation failed: already active")
			httputil.RespondError(w, "User account is already active.", http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidActivationToken) {
			logger.Warn("activation failed: invalid or expired token")
			httputil.RespondError(w, "Invalid or expired activation token.", http.StatusBadRequest)
			return
		}
		logger.Error("activation failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to activate account.", http.StatusInternalServerError)
		return
	}

	logger.Info("account activated successfully")

	httputil.RespondJSON(w, MessageResponse{Message: "Account activated successfully."}, http.StatusOK)
}

// ResendActivation handles resending the activation email
// @Summary      Resend activation email
// @Description  Send a fresh activation token. Always returns success to prevent email enumeration.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /accounts/activate/resend/ [post]
func (h *Handler) ResendActivation(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend activation request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	if limited := h.checkEmailEndpointLimits(w, r, req.Email); limited {
		return
	}

	_ = h.service.ResendActivation(r.Context(), req.Email)

	httputil.RespondJSON(w, MessageResponse{
		Message: "If your email is registered and not yet active, a new activation link has been sent.",
	}, http.StatusOK)
}

// RequestPasswordReset handles password reset requests
// @Summary      Request password reset
// @Description  Send a password reset link. Always returns success to prevent email enumeration.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /accounts/password-reset/request/ [post]
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid password reset request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	if limited := h.checkEmailEndpointLimits(w, r, req.Email); limited {
		return
	}

	_ = h.service.RequestPasswordReset(r.Context(), req.Email)

	httputil.RespondJSON(w, MessageResponse{
		Message: "If an account exists with that email, a password reset link has been sent.",
	}, http.StatusOK)
}

// CompletePasswordReset handles setting a new password with a reset token
// @Summary      Complete password reset
// @Description  Set a new password using a valid reset token
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body CompleteResetRequest true "Email, reset token and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid email, token, or password"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /accounts/reset-password/complete/ [post]
func (h *Handler) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CompleteResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset completion request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	if err := h.service.CompletePasswordReset(r.Context(), req.Email, req.Token, req.Password); err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			logger.Warn("password reset failed: invalid email or token")
			httputil.RespondError(w, "Invalid email or token.", http.StatusBadRequest)
			return
		}
		if isValidationError(err) {
			logger.Warn("password reset failed: validation error", "error", err.Error())
			httputil.RespondError(w, capitalize(err.Error()), http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to reset password.", http.StatusInternalServerError)
		return
	}

	logger.Info("password reset completed successfully")

	httputil.RespondJSON(w, MessageResponse{
		Message: "Password reset successfully. You can now log in with your new password.",
	}, http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and receive an access/refresh token pair
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      201 {object} TokenPair
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Account not activated"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /accounts/login/ [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		httputil.RespondError(w, "Too many requests, please try again later.", http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondError(w, "Invalid email or password.", http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrAccountInactive) {
			logger.Warn("login failed: account not activated")
			httputil.RespondError(w, "User account is not activated.", http.StatusForbidden)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to log in.", http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	httputil.RespondJSON(w, tokens, http.StatusCreated)
}

// Refresh handles access token refresh
// @Summary      Refresh access token
// @Description  Exchange a valid refresh token for a new access token. The refresh token is not rotated.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} AccessTokenResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired refresh token"
// @Failure      401 {object} httputil.ErrorResponse "Refresh token revoked"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /accounts/refresh/ [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		logger.Warn("refresh token missing from request body")
		httputil.RespondError(w, "Refresh token required.", http.StatusBadRequest)
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) || errors.Is(err, ErrRefreshTokenExpired) {
			logger.Warn("token refresh failed: invalid or expired token", "error", err.Error())
			httputil.RespondError(w, "Invalid or expired refresh token.", http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrRefreshTokenNotFound) {
			logger.Warn("token refresh failed: token not found")
			httputil.RespondError(w, "Refresh token not found.", http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("token refresh failed: user not found")
			httputil.RespondError(w, "User not found.", http.StatusNotFound)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to refresh token.", http.StatusInternalServerError)
		return
	}

	logger.Info("access token refreshed successfully")

	httputil.RespondJSON(w, AccessTokenResponse{AccessToken: accessToken}, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Close the session identified by the refresh token. Idempotent.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid refresh token"
// @Router       /accounts/logout/ [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid logout request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	if err := h.service.Logout(r.Context(), strings.TrimSpace(req.RefreshToken)); err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) || errors.Is(err, ErrRefreshTokenExpired) {
			logger.Warn("logout failed: invalid or expired token", "error", err.Error())
			httputil.RespondError(w, "Invalid or expired refresh token.", http.StatusBadRequest)
			return
		}
		logger.Error("logout failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to log out.", http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out successfully")

	httputil.RespondJSON(w, MessageResponse{Message: "Logged out."}, http.StatusOK)
}

// ChangePassword handles password changes for authenticated users
// @Summary      Change password
// @Description  Update the password of the authenticated user
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Old and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Wrong old password or policy violation"
// @Failure      401 {object} httputil.ErrorResponse "Not authenticated"
// @Router       /accounts/change-password/ [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Authentication required.", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), currentUser.ID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrWrongOldPassword) {
			logger.Warn("password change failed: wrong old password", "user_id", currentUser.ID)
			httputil.RespondError(w, "Old password is incorrect.", http.StatusBadRequest)
			return
		}
		if isValidationError(err) {
			logger.Warn("password change failed: validation error", "error", err.Error())
			httputil.RespondError(w, capitalize(err.Error()), http.StatusBadRequest)
			return
		}
		logger.Error("password change failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to change password.", http.StatusInternalServerError)
		return
	}

	logger.Info("password changed successfully", "user_id", currentUser.ID)

	httputil.RespondJSON(w, MessageResponse{Message: "Password changed successfully."}, http.StatusOK)
}

// AdminActivate handles direct activation by an administrator
// @Summary      Activate a user (admin)
// @Description  Activate a user account without an emailed token
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Already active"
// @Failure      403 {object} httputil.ErrorResponse "Insufficient permissions"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /accounts/admin/users/{userID}/activate/ [post]
func (h *Handler) AdminActivate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.RespondError(w, "Invalid user ID.", http.StatusBadRequest)
		return
	}

	if err := h.service.AdminActivate(r.Context(), userID); err != nil {
		if errors.Is(err, ErrAlreadyActive) {
			httputil.RespondError(w, "User account is already active.", http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrUserNotFound) {
			httputil.RespondError(w, "User not found.", http.StatusNotFound)
			return
		}
		logger.Error("admin activation failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to activate user.", http.StatusInternalServerError)
		return
	}

	logger.Info("user activated by admin", "user_id", userID)

	httputil.RespondJSON(w, MessageResponse{Message: "User activated."}, http.StatusOK)
}

// ChangeGroup handles moving a user into another group
// @Summary      Change a user's group (admin)
// @Description  Assign the user to one of the groups: user, moderator, admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Param        request body ChangeGroupRequest true "Target group"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Unknown group"
// @Failure      403 {object} httputil.ErrorResponse "Insufficient permissions"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /accounts/admin/users/{userID}/change-group/ [post]
func (h *Handler) ChangeGroup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.RespondError(w, "Invalid user ID.", http.StatusBadRequest)
		return
	}

	var req ChangeGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change group request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	role, ok := user.ParseRole(req.Group)
	if !ok {
		httputil.RespondError(w, "Unknown group.", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangeRole(r.Context(), userID, role); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httputil.RespondError(w, "User not found.", http.StatusNotFound)
			return
		}
		logger.Error("group change failed: internal error", "error", err.Error())
		httputil.RespondError(w, "Failed to change group.", http.StatusInternalServerError)
		return
	}

	logger.Info("user group changed", "user_id", userID, "group", req.Group)

	httputil.RespondJSON(w, MessageResponse{Message: "User group changed."}, http.StatusOK)
}

// checkEmailEndpointLimits applies the shared IP window and per-email
// cooldown used by the endpoints that trigger outbound email. Returns
// true when the response has already been written.
func (h *Handler) checkEmailEndpointLimits(w http.ResponseWriter, r *http.Request, email string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		httputil.RespondError(w, "Too many requests, please try again later.", http.StatusTooManyRequests)
		return true
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", email)
		httputil.RespondError(w, "Please wait before requesting another email.", http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	return false
}

// isValidationError reports whether the error is an input validation
// failure that should surface as a 400 with its own message.
func isValidationError(err error) bool {
	return errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, password.ErrTooShort) ||
		errors.Is(err, password.ErrMissingUpper) ||
		errors.Is(err, password.ErrMissingLower) ||
		errors.Is(err, password.ErrMissingDigit) ||
		errors.Is(err, password.ErrMissingSpecial)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
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

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
