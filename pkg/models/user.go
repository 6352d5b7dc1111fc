package models

import (
	"time"

	"stockatelier/pkg/roles"
)

type User struct {
	ID           int        `json:"id" db:"id"`
	FullName     string     `json:"full_name" db:"full_name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         roles.Role `json:"role" db:"role"`
	Active       bool       `json:"active" db:"active"`
	IsTeamLead   bool       `json:"is_team_lead" db:"is_team_lead"`
	IsOwner      bool       `json:"is_owner" db:"is_owner"`
	TokenVersion int        `json:"-" db:"token_version"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Agent is the public projection of a user exposed on the work board.
type Agent struct {
	ID         int        `json:"id" db:"id"`
	FullName   string     `json:"full_name" db:"full_name"`
	Role       roles.Role `json:"role" db:"role"`
	IsTeamLead bool       `json:"is_team_lead" db:"is_team_lead"`
	Active     bool       `json:"active" db:"active"`
}

// Principal is the resolved caller identity. It is passed explicitly into
// every service operation instead of being read from request-scoped globals.
type Principal struct {
	ID           int
	Role         roles.Role
	Active       bool
	IsTeamLead   bool
	IsOwner      bool
	TokenVersion int
}

func (p Principal) IsAdmin() bool {
	return p.Role == roles.Admin
}

// IsWorkManager gates equipment mutation and full task editing.
func (p Principal) IsWorkManager() bool {
	return p.Role == roles.Admin || p.IsTeamLead
}

func (p Principal) IsSelfOrAdmin(userID int) bool {
	return p.ID == userID || p.IsAdmin()
}

type CreateUserRequest struct {
	FullName string `json:"full_name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=2,max=120"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Active   *bool   `json:"active"`
}

type UserChanges struct {
	FullName         *string
	Email            *string
	Active           *bool
	PasswordHash     *string
	IsTeamLead       *bool
	BumpTokenVersion bool
}

func (c *UserChanges) HasChanges() bool {
	return c.FullName != nil || c.Email != nil || c.Active != nil ||
		c.PasswordHash != nil || c.IsTeamLead != nil || c.BumpTokenVersion
}
