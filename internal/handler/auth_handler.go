package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/middleware"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/response"
	"github.com/sihmvp/dropout-monitor/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

func bindLogin(c *gin.Context) (model.LoginRequest, bool) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrCredentialsRequired)
		return req, false
	}
	req.Username = strings.TrimSpace(req.Username)
	return req, true
}

// Login godoc
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		internalError(c, h.log, err, "Login failed")
		return
	}

	h.log.Info().Str("username", resp.Username).Str("role", string(resp.Role)).Msg("Login")
	response.Success(c, http.StatusOK, resp)
}

// StudentLogin godoc
// POST /api/student-login
// Only accounts with the student role may log in here.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	resp, err := h.authService.StudentLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrNotStudentAccount) {
			response.Fail(c, http.StatusUnauthorized, response.ErrNotStudentAccount)
			return
		}
		internalError(c, h.log, err, "Student login failed")
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Logout godoc
// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		internalError(c, h.log, err, "Logout failed")
		return
	}
	response.Message(c, http.StatusOK, "Logged out successfully.")
}
