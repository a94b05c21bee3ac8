package token

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalID(t *testing.T) {
	id := uuid.MustParse("6f1c2a4e-8a4b-4d7e-9b1f-2c3d4e5f6a7b")

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "5", "5"},
		{"padded string", " 5 ", "5"},
		{"decimal string", "5.0", "5"},
		{"leading zero", "05", "5"},
		{"plus sign", "+5", "5"},
		{"negative", "-5", "-5"},
		{"int", 5, "5"},
		{"int64", int64(5), "5"},
		{"float", 5.0, "5"},
		{"fractional float", 5.5, "5.5"},
		{"json number", json.Number("5"), "5"},
		{"json number with fraction", json.Number("5.0"), "5"},
		{"identifier", Identifier("7"), "7"},
		{"uuid", id, id.String()},
		{"slug", "user-abc", "user-abc"},
		{"unsupported", []int{1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalID(tt.in))
		})
	}
}

func TestNormalizeRoles(t *testing.T) {
	assert.Equal(t, []string{"admin", "user"}, NormalizeRoles("admin", " user ", "admin", ""))
	assert.Empty(t, NormalizeRoles())
}

func TestPrincipal_Roles(t *testing.T) {
	p := &Principal{ID: "1", Roles: []string{"user"}, Permissions: []string{"read"}}

	assert.True(t, p.HasRole("user"))
	assert.False(t, p.HasRole("admin"))
	assert.True(t, p.HasAnyRole("admin", "user"))
	assert.False(t, p.HasAnyRole())
	assert.True(t, p.HasPermission("read"))
	assert.False(t, p.HasPermission("delete"))

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasRole("user"))
	assert.False(t, nilPrincipal.HasPermission("read"))
}
