package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/hotel-booking-api/internal/observability"
	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/services/authz"
	"github.com/upb/hotel-booking-api/services/token"
	"github.com/upb/hotel-booking-api/utils"
)

// MockTokenVerifier is a mock implementation of TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(raw string) (*token.Principal, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Principal), args.Error(1)
}

func okHandler(t *testing.T, check func(p *token.Principal)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipalFromContext(r.Context())
		if check != nil {
			check(p)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func failHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()
	alice := &token.Principal{ID: "5", Email: "alice@example.com", Roles: []string{"user"}}

	t.Run("valid token in Authorization header allows request", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "valid-token").Return(alice, nil)

		handler := m.RequireAuth(okHandler(t, func(p *token.Principal) {
			require.NotNil(t, p)
			assert.Equal(t, "5", p.ID)
			assert.Equal(t, "alice@example.com", p.Email)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		verifier.AssertExpectations(t)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "valid-token").Return(alice, nil)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "bearer valid-token")
		w := httptest.NewRecorder()
		m.RequireAuth(okHandler(t, nil)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	tests := []struct {
		name       string
		header     string
		verifyErr  error
		wantStatus int
		wantCode   string
	}{
		{name: "missing header returns 401", wantStatus: http.StatusUnauthorized, wantCode: "missing_credential"},
		{name: "wrong scheme returns 401", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized, wantCode: "malformed_credential"},
		{name: "scheme without token returns 401", header: "Bearer", wantStatus: http.StatusUnauthorized, wantCode: "malformed_credential"},
		{name: "blank token returns 401", header: "Bearer    ", wantStatus: http.StatusUnauthorized, wantCode: "malformed_credential"},
		{name: "expired token returns 403", header: "Bearer t", verifyErr: services.ErrExpiredToken, wantStatus: http.StatusForbidden, wantCode: "expired_token"},
		{name: "bad signature returns 403", header: "Bearer t", verifyErr: services.ErrInvalidSignature, wantStatus: http.StatusForbidden, wantCode: "invalid_signature"},
		{name: "refresh token returns 403", header: "Bearer t", verifyErr: services.ErrInvalidTokenType, wantStatus: http.StatusForbidden, wantCode: "invalid_token_type"},
		{name: "unexpected verifier failure returns 500", header: "Bearer t", verifyErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_verification_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockTokenVerifier)
			m := NewAuthMiddleware(verifier, logger)
			if tt.verifyErr != nil {
				verifier.On("Verify", "t").Return(nil, tt.verifyErr)
			}

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			m.RequireAuth(failHandler(t)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantCode, body.Error)
			if tt.verifyErr == nil {
				verifier.AssertNotCalled(t, "Verify", mock.Anything)
			}
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, body.Message, "boom")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		roles      []string
		allowed    []string
		wantStatus int
	}{
		{name: "admin passes admin gate", roles: []string{"admin"}, allowed: authz.AdminRoles, wantStatus: http.StatusOK},
		{name: "administrator passes admin gate", roles: []string{"administrator"}, allowed: authz.AdminRoles, wantStatus: http.StatusOK},
		{name: "user blocked from admin gate", roles: []string{"user"}, allowed: authz.AdminRoles, wantStatus: http.StatusForbidden},
		{name: "user passes user-or-admin gate", roles: []string{"user"}, allowed: authz.UserOrAdminRoles, wantStatus: http.StatusOK},
		{name: "guest blocked from user-or-admin gate", roles: []string{"guest"}, allowed: authz.UserOrAdminRoles, wantStatus: http.StatusForbidden},
		{name: "no roles configured admits any principal", roles: nil, allowed: nil, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockTokenVerifier)
			m := NewAuthMiddleware(verifier, logger)
			verifier.On("Verify", "tok").Return(&token.Principal{ID: "1", Roles: tt.roles}, nil)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer tok")
			w := httptest.NewRecorder()
			m.RequireRole(tt.allowed...)(okHandler(t, nil)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("denial lists required and actual roles", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "tok").Return(&token.Principal{ID: "1", Roles: []string{"user"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		m.RequireRole("admin", "administrator")(failHandler(t)).ServeHTTP(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "insufficient_role", body.Error)
		assert.Equal(t, "insufficient permissions", body.Message)
		assert.ElementsMatch(t, []interface{}{"admin", "administrator"}, body.Details["required_roles"])
		assert.ElementsMatch(t, []interface{}{"user"}, body.Details["user_roles"])
	})

	t.Run("missing token is rejected before role check", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		w := httptest.NewRecorder()
		m.RequireRole("admin")(failHandler(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("reuses principal from outer RequireAuth", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "tok").Return(&token.Principal{ID: "1", Roles: []string{"admin"}}, nil).Once()

		handler := m.RequireAuth(m.RequireRole("admin")(okHandler(t, nil)))
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		verifier.AssertNumberOfCalls(t, "Verify", 1)
	})
}

func TestRequireOwnership(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		principal  *token.Principal
		path       string
		wantStatus int
	}{
		{name: "owner may access own resource", principal: &token.Principal{ID: "5", Roles: []string{"user"}}, path: "/users/5/profile", wantStatus: http.StatusOK},
		{name: "non-owner is rejected", principal: &token.Principal{ID: "5", Roles: []string{"user"}}, path: "/users/7/profile", wantStatus: http.StatusForbidden},
		{name: "admin may access any resource", principal: &token.Principal{ID: "1", Roles: []string{"admin"}}, path: "/users/7/profile", wantStatus: http.StatusOK},
		{name: "numeric forms compare equal", principal: &token.Principal{ID: "5", Roles: []string{"user"}}, path: "/users/5.0/profile", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockTokenVerifier)
			m := NewAuthMiddleware(verifier, logger)
			verifier.On("Verify", "tok").Return(tt.principal, nil)

			r := chi.NewRouter()
			r.With(m.RequireOwnership(OwnerFromURLParam("userId"))).
				Put("/users/{userId}/profile", okHandler(t, nil).ServeHTTP)

			req := httptest.NewRequest(http.MethodPut, tt.path, nil)
			req.Header.Set("Authorization", "Bearer tok")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, "ownership_violation", decodeError(t, w).Error)
			}
		})
	}

	t.Run("owner from body when param absent", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "tok").Return(&token.Principal{ID: "5", Roles: []string{"user"}}, nil)

		handler := m.RequireOwnership(OwnerFromParamOrBody("userId", "userId"))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "Alice", body["name"])
				w.WriteHeader(http.StatusOK)
			}))

		req := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(`{"userId":5,"name":"Alice"}`))
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing owner is rejected for non-admin", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "tok").Return(&token.Principal{ID: "5", Roles: []string{"user"}}, nil)

		req := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		m.RequireOwnership(OwnerFromBody("userId"))(failHandler(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("custom admin roles override", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger, WithOwnershipGuard(authz.NewOwnershipGuard("superuser")))
		verifier.On("Verify", "tok").Return(&token.Principal{ID: "1", Roles: []string{"admin"}}, nil)

		req := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(`{"userId":"9"}`))
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		m.RequireOwnership(OwnerFromBody("userId"))(failHandler(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	logger := zap.NewNop()
	alice := &token.Principal{ID: "5", Roles: []string{"user"}}

	tests := []struct {
		name      string
		header    string
		verifyErr error
		wantUser  bool
	}{
		{name: "no header continues anonymously"},
		{name: "malformed header continues anonymously", header: "Token abc"},
		{name: "expired token continues anonymously", header: "Bearer t", verifyErr: services.ErrExpiredToken},
		{name: "valid token attaches principal", header: "Bearer t", wantUser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockTokenVerifier)
			m := NewAuthMiddleware(verifier, logger)
			if tt.wantUser {
				verifier.On("Verify", "t").Return(alice, nil)
			} else if tt.verifyErr != nil {
				verifier.On("Verify", "t").Return(nil, tt.verifyErr)
			}

			req := httptest.NewRequest(http.MethodGet, "/public", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			m.OptionalAuth(okHandler(t, func(p *token.Principal) {
				if tt.wantUser {
					require.NotNil(t, p)
					assert.Equal(t, "5", p.ID)
				} else {
					assert.Nil(t, p)
				}
			})).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestAuthMiddleware_WithRealTokens(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "hotel-booking-api",
		Audience:      "hotel-booking-users",
		Algorithm:     "HS256",
		Now:           func() time.Time { return now },
	}
	issuer, err := token.NewIssuer(cfg)
	require.NoError(t, err)
	verifier, err := token.NewVerifier(cfg)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	m := NewAuthMiddleware(verifier, zap.NewNop(), WithMetrics(metrics))

	pair, err := issuer.IssueTokenPair(&token.Principal{ID: "5", Roles: []string{"user"}})
	require.NoError(t, err)

	send := func(raw string) int {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		w := httptest.NewRecorder()
		m.RequireAuth(okHandler(t, nil)).ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(pair.AccessToken))
	assert.Equal(t, http.StatusForbidden, send(pair.RefreshToken))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, http.StatusForbidden, send(pair.AccessToken))

	reg := metrics.Registry()
	require.NotNil(t, reg)
	count, err := testutil.GatherAndCount(reg, "auth_token_verifications_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
