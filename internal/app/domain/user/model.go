// Package user defines account profiles.
package user

import "time"

// Role grants admin review capabilities.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is a registered participant or administrator.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	PasswordHash   string    `json:"-"`
	TelegramHandle string    `json:"telegram_handle,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
