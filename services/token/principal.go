package token

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Principal is the authenticated identity resolved from a verified access token.
// It is built fresh for every verification and never mutated afterwards.
type Principal struct {
	ID          string   `json:"id"`
	Email       string   `json:"email,omitempty"`
	Username    string   `json:"username,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasRole checks if the principal carries the given role
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the principal carries at least one of the given roles
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// HasPermission checks if the principal carries the given permission
func (p *Principal) HasPermission(permission string) bool {
	if p == nil {
		return false
	}
	for _, perm := range p.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

// NormalizeRoles trims, drops empty entries and removes duplicates while
// keeping first-seen order.
func NormalizeRoles(roles ...string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// CanonicalID renders a user identifier in the single string form used for
// ownership comparisons. Integral numbers lose any fractional zero, so 5,
// 5.0, json.Number("5") and "5" all become "5".
func CanonicalID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return canonicalString(id)
	case Identifier:
		return canonicalString(string(id))
	case json.Number:
		return canonicalString(id.String())
	case int:
		return strconv.FormatInt(int64(id), 10)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case float32:
		return canonicalFloat(float64(id))
	case float64:
		return canonicalFloat(id)
	case interface{ String() string }:
		return canonicalString(id.String())
	default:
		return ""
	}
}

func canonicalString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	// "5.0" style numerics collapse to their integer form; anything else
	// (uuids, slugs) is compared verbatim.
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if c := canonicalFloat(f); c != "" {
				return c
			}
		}
	}
	return s
}

func canonicalFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
