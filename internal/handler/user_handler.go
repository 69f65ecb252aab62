package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/middleware"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/response"
	"github.com/sihmvp/dropout-monitor/internal/service"
	"github.com/sihmvp/dropout-monitor/internal/validator"
)

// UserHandler handles account administration.
type UserHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log.With().Str("component", "user_handler").Logger(),
	}
}

// ListUsers godoc
// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		internalError(c, h.log, err, "List users failed")
		return
	}
	response.Success(c, http.StatusOK, users)
}

// Register godoc
// POST /api/register
func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	fields := validator.Bind(c, &req)
	if req.Username == "" || req.Password == "" || req.Role == "" {
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, "All fields required")
		return
	}
	if _, badRole := fields["role"]; badRole {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRole)
		return
	}
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.userService.Register(c.Request.Context(), middleware.Actor(c), req); err != nil {
		if errors.Is(err, service.ErrDuplicateUser) {
			response.Fail(c, http.StatusConflict, response.ErrUsernameTaken)
			return
		}
		internalError(c, h.log, err, "Register failed")
		return
	}
	response.Message(c, http.StatusCreated, "User registered successfully!")
}

// UpdateUser godoc
// POST /api/user/update
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req model.UpdateUserRequest
	_ = c.ShouldBindJSON(&req)
	if req.Username == "" || req.Role == "" {
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, "Username and role are required.")
		return
	}
	if !req.Role.Valid() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRole)
		return
	}

	if err := h.userService.UpdateRole(c.Request.Context(), middleware.Actor(c), req.Username, req.Role); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.FailWithMessage(c, http.StatusNotFound, response.ErrUserNotFound,
				fmt.Sprintf("User %s not found.", req.Username))
			return
		}
		internalError(c, h.log, err, "Update user failed")
		return
	}
	response.Message(c, http.StatusOK, fmt.Sprintf("User %s role updated to %s.", req.Username, req.Role))
}

// DeleteUser godoc
// DELETE /api/user/delete/:username
func (h *UserHandler) DeleteUser(c *gin.Context) {
	username := c.Param("username")
	if err := h.userService.Delete(c.Request.Context(), middleware.Actor(c), username); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.FailWithMessage(c, http.StatusNotFound, response.ErrUserNotFound,
				fmt.Sprintf("User %s not found.", username))
			return
		}
		internalError(c, h.log, err, "Delete user failed")
		return
	}
	response.Message(c, http.StatusOK, fmt.Sprintf("User %s deleted successfully.", username))
}
