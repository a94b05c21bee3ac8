package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/upb/hotel-booking-api/internal/observability"
	"github.com/upb/hotel-booking-api/models"
	"github.com/upb/hotel-booking-api/repositories/memory"
	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/services/credentials"
	"github.com/upb/hotel-booking-api/services/token"
)

type fixture struct {
	handler  *Handler
	verifier *token.Verifier
	metrics  *observability.Metrics
}

func newFixture(t *testing.T, reissuePair bool) *fixture {
	t.Helper()
	cfg := token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "hotel-booking-api",
		Audience:      "hotel-booking-users",
		Algorithm:     "HS256",
	}
	issuer, err := token.NewIssuer(cfg)
	require.NoError(t, err)
	verifier, err := token.NewVerifier(cfg)
	require.NoError(t, err)

	creds := credentials.NewService(memory.NewUserRepository(), bcrypt.MinCost, zap.NewNop())
	require.NoError(t, creds.SeedDemoAccounts(context.Background()))

	metrics := observability.NewMetrics()
	return &fixture{
		handler:  NewHandler(creds, issuer, token.NewRefresher(verifier, issuer, reissuePair), metrics, zap.NewNop()),
		verifier: verifier,
		metrics:  metrics,
	}
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleLogin(t *testing.T) {
	f := newFixture(t, true)

	t.Run("valid credentials return a token pair", func(t *testing.T) {
		w := post(f.handler.HandleLogin, `{"email":"admin@example.com","password":"admin123"}`)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		assert.Equal(t, "Login successful", resp.Message)
		assert.Equal(t, token.BearerType, resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)
		require.NotNil(t, resp.User)
		assert.Equal(t, "1", resp.User.ID)
		assert.ElementsMatch(t, []string{"admin", "user"}, resp.User.Roles)

		p, err := f.verifier.Verify(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "1", p.ID)
		assert.Equal(t, []string{"read", "write", "delete"}, p.Permissions)
		assert.NotEmpty(t, resp.RefreshToken)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "wrong password", body: `{"email":"admin@example.com","password":"wrong"}`, wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "unknown user", body: `{"email":"ghost@example.com","password":"admin123"}`, wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "missing password", body: `{"email":"admin@example.com"}`, wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{name: "invalid email", body: `{"email":"nope","password":"x"}`, wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{name: "malformed json", body: `{"email":`, wantStatus: http.StatusBadRequest, wantError: "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(f.handler.HandleLogin, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestHandleRegister(t *testing.T) {
	f := newFixture(t, true)

	w := post(f.handler.HandleRegister, `{"email":"new@example.com","username":"newbie","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "3", resp.User.ID)
	assert.Equal(t, []string{"user"}, resp.User.Roles)

	p, err := f.verifier.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := post(f.handler.HandleRegister, `{"email":"new@example.com","username":"other","password":"secret123"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		w := post(f.handler.HandleRegister, `{"email":"x@example.com","username":"xyz","password":"short"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		details := body["details"].(map[string]interface{})
		assert.Contains(t, details, "password")
	})

	t.Run("multibyte password over 72 bytes fails validation", func(t *testing.T) {
		body, err := json.Marshal(RegisterRequest{
			Email:    "accent@example.com",
			Username: "accent",
			Password: strings.Repeat("é", 40),
		})
		require.NoError(t, err)

		w := post(f.handler.HandleRegister, string(body))
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "validation", resp["error"])
	})
}

func TestHandleRefresh(t *testing.T) {
	login := func(t *testing.T, f *fixture) Response {
		w := post(f.handler.HandleLogin, `{"email":"user@example.com","password":"user123"}`)
		require.Equal(t, http.StatusOK, w.Code)
		return decodeResponse(t, w)
	}

	t.Run("refresh token yields a new pair", func(t *testing.T) {
		f := newFixture(t, true)
		pair := login(t, f)

		w := post(f.handler.HandleRefresh, `{"refreshToken":"`+pair.RefreshToken+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "Token refreshed successfully", resp.Message)
		assert.NotEmpty(t, resp.RefreshToken)

		p, err := f.verifier.Verify(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "2", p.ID)
		assert.Equal(t, []string{"user"}, p.Roles)
	})

	t.Run("access-only policy omits refresh token", func(t *testing.T) {
		f := newFixture(t, false)
		pair := login(t, f)

		w := post(f.handler.HandleRefresh, `{"refreshToken":"`+pair.RefreshToken+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Empty(t, resp.RefreshToken)
	})

	t.Run("access token is rejected as refresh token", func(t *testing.T) {
		f := newFixture(t, true)
		pair := login(t, f)

		w := post(f.handler.HandleRefresh, `{"refreshToken":"`+pair.AccessToken+`"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_token_type")
	})

	t.Run("missing refresh token returns 401", func(t *testing.T) {
		f := newFixture(t, true)
		w := post(f.handler.HandleRefresh, `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "refresh token required")
	})

	t.Run("garbage refresh token returns 403", func(t *testing.T) {
		f := newFixture(t, true)
		w := post(f.handler.HandleRefresh, `{"refreshToken":"not.a.jwt"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthenticator) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	args := m.Called(ctx, email, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestHandleLogin_InternalErrorIsGeneric(t *testing.T) {
	authn := new(MockAuthenticator)
	authn.On("Authenticate", mock.Anything, "a@example.com", "pw").
		Return(nil, services.WrapInternal("failed to get user", errors.New("dial tcp 10.0.0.5:5432: refused")))

	h := NewHandler(authn, nil, nil, nil, zap.NewNop())
	w := post(h.HandleLogin, `{"email":"a@example.com","password":"pw"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	authn.AssertExpectations(t)
}
