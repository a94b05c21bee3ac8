package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/hotel-booking-api/internal/observability"
	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/services/authz"
	"github.com/upb/hotel-booking-api/services/token"
	"github.com/upb/hotel-booking-api/utils"
)

// TokenVerifier defines the interface for validating access tokens
type TokenVerifier interface {
	// Verify validates an access token and returns its principal
	Verify(raw string) (*token.Principal, error)
}

// OwnerExtractor returns the owner id of the resource a request targets.
// An empty string means no owner could be determined.
type OwnerExtractor func(r *http.Request) string

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier  TokenVerifier
	roles     *authz.RoleAuthorizer
	ownership *authz.OwnershipGuard
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// Option configures an AuthMiddleware
type Option func(*AuthMiddleware)

// WithRoleAuthorizer sets the role authorizer
func WithRoleAuthorizer(a *authz.RoleAuthorizer) Option {
	return func(m *AuthMiddleware) { m.roles = a }
}

// WithOwnershipGuard sets the ownership guard
func WithOwnershipGuard(g *authz.OwnershipGuard) Option {
	return func(m *AuthMiddleware) { m.ownership = g }
}

// WithMetrics records verification and authorization outcomes
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *AuthMiddleware) { m.metrics = metrics }
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger, opts ...Option) *AuthMiddleware {
	m := &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.roles == nil {
		m.roles = authz.NewRoleAuthorizer()
	}
	if m.ownership == nil {
		m.ownership = authz.NewOwnershipGuard()
	}
	return m
}

// RequireAuth is a middleware that requires a valid access token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.principal(r)
		if err != nil {
			m.deny(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole is a middleware that requires any of the given roles.
// With no roles it behaves like RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := m.principal(r)
			if err != nil {
				m.deny(w, r, err)
				return
			}

			decision := m.roles.Authorize(p, roles...)
			m.metrics.RecordDecision("role", string(decision.Reason))
			if !decision.Allowed {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("user_id", p.ID),
					zap.Strings("required_roles", decision.RequiredRoles),
					zap.Strings("user_roles", decision.ActualRoles))
				m.deny(w, r, decision.Err())
				return
			}

			m.logger.Debug("role check passed",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("user_id", p.ID),
				zap.String("reason", string(decision.Reason)))

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireOwnership is a middleware that only lets the resource owner or an
// admin through. The owner id is read with extract.
func (m *AuthMiddleware) RequireOwnership(extract OwnerExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := m.principal(r)
			if err != nil {
				m.deny(w, r, err)
				return
			}

			owner := extract(r)
			decision := m.ownership.AuthorizeOwnership(p, owner)
			m.metrics.RecordDecision("ownership", string(decision.Reason))
			if !decision.Allowed {
				m.logger.Warn("ownership check failed",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("user_id", p.ID),
					zap.String("resource_owner", owner))
				m.deny(w, r, decision.Err())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth attaches a principal when the request carries a valid token
// and otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := m.Resolve(r); p != nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// Resolve returns the principal for a request, or nil when the request has
// no usable credential. It never fails the request.
func (m *AuthMiddleware) Resolve(r *http.Request) *token.Principal {
	p, err := m.principal(r)
	if err != nil {
		m.logger.Debug("optional auth: continuing anonymously",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("reason", string(services.GetErrorType(err))))
		return nil
	}
	return p
}

// principal returns the principal already attached by an outer middleware,
// or verifies the bearer token.
func (m *AuthMiddleware) principal(r *http.Request) (*token.Principal, error) {
	if p := GetPrincipalFromContext(r.Context()); p != nil {
		return p, nil
	}

	raw, err := extractBearerToken(r)
	if err != nil {
		m.metrics.RecordVerification(string(services.GetErrorType(err)))
		return nil, err
	}

	p, err := m.verifier.Verify(raw)
	if err != nil {
		if t := services.GetErrorType(err); t == "" || t == services.ErrorTypeInternal {
			err = services.NewDomainError(services.ErrorTypeInternalVerification, "token verification failed", err)
		}
		m.metrics.RecordVerification(string(services.GetErrorType(err)))
		return nil, err
	}
	m.metrics.RecordVerification("ok")
	return p, nil
}

// deny writes the error response for a rejected request
func (m *AuthMiddleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	fields := []zap.Field{
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.String("reason", string(services.GetErrorType(err))),
	}
	if utils.StatusForError(err) >= http.StatusInternalServerError {
		m.logger.Error("token verification error", append(fields, zap.Error(err))...)
	} else {
		m.logger.Debug("request denied", fields...)
	}
	if werr := utils.WriteServiceError(w, err); werr != nil {
		m.logger.Error("failed to write auth error response", zap.Error(werr))
	}
}

// extractBearerToken extracts the Bearer token from the Authorization header.
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", services.ErrMissingCredential
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", services.ErrMalformedCredential
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", services.ErrMalformedCredential
	}
	return raw, nil
}
