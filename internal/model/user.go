package model

import "time"

// User is a login account. The password hash never leaves the server.
type User struct {
	Username     string    `json:"username" db:"username"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

// LoginRequest is the body of both login endpoints.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Message  string `json:"message"`
	Role     Role   `json:"role"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64"`
	Password string `json:"password" binding:"required,min=1,max=128"`
	Role     Role   `json:"role" binding:"required,role"`
}

// UpdateUserRequest is the body of POST /api/user/update.
type UpdateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
}

// MessageResponse is the body of every successful mutation.
type MessageResponse struct {
	Message string `json:"message"`
}
