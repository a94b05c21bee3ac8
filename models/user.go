package models

import (
	"strings"
	"time"
)

// Built-in role names
const (
	RoleAdmin         = "admin"
	RoleAdministrator = "administrator"
	RoleUser          = "user"
)

// Built-in permission names
const (
	PermissionRead   = "read"
	PermissionWrite  = "write"
	PermissionDelete = "delete"
)

// User represents an account that can log in and receive tokens
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Roles        []string  `json:"roles" db:"roles"`
	Permissions  []string  `json:"permissions" db:"permissions"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance. The id is assigned by the store.
// Emails are stored lower-cased.
func NewUser(email, username, passwordHash string, roles, permissions []string) *User {
	now := time.Now().UTC()
	return &User{
		Email:        NormalizeEmail(email),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		Roles:        roles,
		Permissions:  permissions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail lower-cases and trims an email address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin returns true if the user holds an admin role
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin || r == RoleAdministrator {
			return true
		}
	}
	return false
}
