package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RevokeRequest represents the token revocation request body
type RevokeRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register godoc
// @Summary Register a user
// @Description Create an account and return an access and refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} SuccessResponse{data=service.AuthResult}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	result, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return respondError(c, err, "register user")
	}
	return NewSuccess(c, http.StatusCreated, "User registered", result)
}

// Login godoc
// @Summary Log in
// @Description Check credentials and return a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} SuccessResponse{data=service.AuthResult}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return NewValidationError(c, "Validation failed", "email and password are required")
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "log in")
	}
	log.Info().Int32("user_id", result.User.ID).Msg("User logged in")
	return NewSuccess(c, http.StatusOK, "Login successful", result)
}

// Refresh godoc
// @Summary Rotate tokens
// @Description Exchange an active refresh token and its (possibly expired) access token for a new pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Current token pair"
// @Success 200 {object} SuccessResponse{data=service.AuthResult}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		return NewValidationError(c, "Validation failed", "accessToken and refreshToken are required")
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return respondError(c, err, "refresh token")
	}
	return NewSuccess(c, http.StatusOK, "Token refreshed", result)
}

// Revoke godoc
// @Summary Revoke a refresh token
// @Description Invalidate one of the caller's refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RevokeRequest true "Token to revoke"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/revoke [post]
func (h *AuthHandler) Revoke(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req RevokeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return NewValidationError(c, "Validation failed", "refreshToken is required")
	}

	if err := h.authService.Revoke(c.Request().Context(), ownerID, req.RefreshToken); err != nil {
		return respondError(c, err, "revoke token")
	}
	return NewSuccess(c, http.StatusOK, "Token revoked", nil)
}

// Me godoc
// @Summary Current user
// @Description Get the authenticated user's profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=domain.User}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	user, err := h.authService.Me(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, err, "get current user")
	}
	return NewSuccess(c, http.StatusOK, "Current user", user)
}
