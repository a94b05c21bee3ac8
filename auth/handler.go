// Package auth serves the login, registration and refresh endpoints.
package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/hotel-booking-api/internal/observability"
	"github.com/upb/hotel-booking-api/models"
	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/services/credentials"
	"github.com/upb/hotel-booking-api/services/token"
	"github.com/upb/hotel-booking-api/utils"
)

// Authenticator checks credentials and creates accounts
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, email, username, password string) (*models.User, error)
}

// TokenIssuer issues access/refresh token pairs
type TokenIssuer interface {
	IssueTokenPair(p *token.Principal) (*token.TokenPair, error)
}

// TokenRefresher exchanges a refresh token for new tokens
type TokenRefresher interface {
	Refresh(raw string) (*token.TokenPair, error)
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RefreshRequest is the body of POST /api/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Response is returned by every endpoint in this package
type Response struct {
	Message string           `json:"message"`
	User    *token.Principal `json:"user,omitempty"`
	token.TokenPair
}

var errRefreshTokenRequired = services.NewDomainError(services.ErrorTypeMissingCredential, "refresh token required", nil)

// Handler handles credential login and token refresh
type Handler struct {
	authenticator Authenticator
	issuer        TokenIssuer
	refresher     TokenRefresher
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewHandler creates a new auth handler. metrics may be nil.
func NewHandler(authenticator Authenticator, issuer TokenIssuer, refresher TokenRefresher, metrics *observability.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		authenticator: authenticator,
		issuer:        issuer,
		refresher:     refresher,
		metrics:       metrics,
		logger:        logger,
	}
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin("failure")
		h.writeError(w, err)
		return
	}
	h.metrics.RecordLogin("success")

	principal := credentials.ToPrincipal(user)
	pair, err := h.issue(principal)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("user logged in", zap.String("user_id", principal.ID))
	_ = utils.WriteJSON(w, http.StatusOK, Response{
		Message:   "Login successful",
		User:      principal,
		TokenPair: *pair,
	})
}

// HandleRegister handles POST /api/auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.authenticator.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	principal := credentials.ToPrincipal(user)
	pair, err := h.issue(principal)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_ = utils.WriteJSON(w, http.StatusCreated, Response{
		Message:   "Registration successful",
		User:      principal,
		TokenPair: *pair,
	})
}

// HandleRefresh handles POST /api/auth/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if req.RefreshToken == "" {
		h.writeError(w, errRefreshTokenRequired)
		return
	}

	pair, err := h.refresher.Refresh(req.RefreshToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.metrics.RecordIssued(string(token.TypeAccess), 1)
	if pair.RefreshToken != "" {
		h.metrics.RecordIssued(string(token.TypeRefresh), 1)
	}

	_ = utils.WriteJSON(w, http.StatusOK, Response{
		Message:   "Token refreshed successfully",
		TokenPair: *pair,
	})
}

func (h *Handler) issue(p *token.Principal) (*token.TokenPair, error) {
	pair, err := h.issuer.IssueTokenPair(p)
	if err != nil {
		return nil, err
	}
	h.metrics.RecordIssued(string(token.TypeAccess), 1)
	h.metrics.RecordIssued(string(token.TypeRefresh), 1)
	return pair, nil
}

// decode reads and validates a request body, writing a 400 on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		var ve *utils.ValidationError
		if errors.As(err, &ve) {
			_ = utils.WriteBadRequest(w, "Validation failed", ve.Details())
			return false
		}
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if services.IsInternalError(err) {
		h.logger.Error("auth request failed", zap.Error(err))
	} else {
		h.logger.Debug("auth request rejected", zap.String("reason", string(services.GetErrorType(err))))
	}
	if werr := utils.WriteServiceError(w, err); werr != nil {
		h.logger.Error("failed to write error response", zap.Error(werr))
	}
}
