package token

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/upb/hotel-booking-api/services"
)

// TokenType distinguishes access tokens from refresh tokens
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Identifier is a user id that accepts either a JSON string or a JSON number
// and always holds the canonical string form.
type Identifier string

// UnmarshalJSON implements json.Unmarshaler
func (id *Identifier) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch raw.(type) {
	case nil, string, json.Number:
		*id = Identifier(CanonicalID(raw))
		return nil
	default:
		return fmt.Errorf("user id must be a string or number")
	}
}

// RoleSet accepts a single role string or an array of roles on the wire
type RoleSet []string

// UnmarshalJSON implements json.Unmarshaler
func (r *RoleSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = NormalizeRoles(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("roles must be a string or an array of strings")
	}
	*r = NormalizeRoles(many...)
	return nil
}

// UserClaims is the identity block embedded in every token
type UserClaims struct {
	ID       Identifier `json:"id"`
	Email    string     `json:"email,omitempty"`
	Username string     `json:"username,omitempty"`
}

// Claims is the signed token payload
type Claims struct {
	User        *UserClaims `json:"user,omitempty"`
	Roles       RoleSet     `json:"roles,omitempty"`
	Role        string      `json:"role,omitempty"` // legacy single-role claim, merged into Roles
	Permissions []string    `json:"permissions,omitempty"`
	Type        TokenType   `json:"type"`
	jwt.RegisteredClaims
}

// AllRoles merges the roles array with the legacy single role claim
func (c *Claims) AllRoles() []string {
	if c.Role == "" {
		return NormalizeRoles(c.Roles...)
	}
	return NormalizeRoles(append(append([]string{}, c.Roles...), c.Role)...)
}

// Principal builds the identity carried by the claims.
// Claims without a user id are rejected.
func (c *Claims) Principal() (*Principal, error) {
	if c == nil || c.User == nil || c.User.ID == "" {
		return nil, services.NewDomainError(services.ErrorTypeInvalidSignature, "invalid token", errMissingPrincipal)
	}
	perms := make([]string, len(c.Permissions))
	copy(perms, c.Permissions)
	return &Principal{
		ID:          string(c.User.ID),
		Email:       c.User.Email,
		Username:    c.User.Username,
		Roles:       c.AllRoles(),
		Permissions: perms,
	}, nil
}

// newClaims builds the payload for a principal
func newClaims(p *Principal, typ TokenType) *Claims {
	perms := make([]string, len(p.Permissions))
	copy(perms, p.Permissions)
	return &Claims{
		User: &UserClaims{
			ID:       Identifier(CanonicalID(p.ID)),
			Email:    p.Email,
			Username: p.Username,
		},
		Roles:       NormalizeRoles(p.Roles...),
		Permissions: perms,
		Type:        typ,
	}
}

// Decode parses a token WITHOUT verifying its signature or validity window.
// It is meant for debugging and logging and must never back an
// authorization decision.
func Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}
