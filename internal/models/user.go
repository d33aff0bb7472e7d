package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values for platform users.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAssistant  = "assistant"
	RoleAdmin      = "admin"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Nickname     *string    `json:"nickname"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// Participant is the immutable identity a connection carries for its lifetime.
// It holds only what the engine needs: id, role, display name.
type Participant struct {
	ID          uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"username"`
}

func (p Participant) IsStudent() bool    { return p.Role == RoleStudent }
func (p Participant) IsInstructor() bool { return p.Role == RoleInstructor }
func (p Participant) IsAssistant() bool  { return p.Role == RoleAssistant }
func (p Participant) IsAdmin() bool      { return p.Role == RoleAdmin }

// DisplayNameOf prefers the nickname when one is set.
func DisplayNameOf(u *User) string {
	if u.Nickname != nil && *u.Nickname != "" {
		return *u.Nickname
	}
	return u.FullName
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
