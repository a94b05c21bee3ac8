package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/upb/hotel-booking-api/services"
)

// Verifier validates tokens produced by Issuer.
//
// The secret used to check a signature is chosen from the token's declared
// type, so a refresh token is only ever checked against the refresh secret
// and an access token against the access secret. A genuine token presented in
// the wrong context therefore fails with invalid_token_type rather than a
// signature error.
type Verifier struct {
	cfg    Config
	parser *jwt.Parser
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg Config) (*Verifier, error) {
	method, err := cfg.signingMethod()
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}

	return &Verifier{cfg: cfg, parser: jwt.NewParser(opts...)}, nil
}

// Verify validates an access token and returns its principal
func (v *Verifier) Verify(raw string) (*Principal, error) {
	claims, err := v.ParseClaims(raw, TypeAccess)
	if err != nil {
		return nil, err
	}
	return claims.Principal()
}

// ParseClaims validates a token of the expected type and returns its claims.
//
// Checks run in order: structure and algorithm, signature, expiry and the
// other registered claims, token type, then principal fields.
func (v *Verifier) ParseClaims(raw string, expected TokenType) (claims *Claims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = services.NewDomainError(services.ErrorTypeInternalVerification,
				"token verification failed", fmt.Errorf("panic: %v", r))
		}
	}()

	parsed := &Claims{}
	if _, err := v.parser.ParseWithClaims(raw, parsed, v.keyFunc); err != nil {
		return nil, classify(err)
	}

	if parsed.Type != expected {
		return nil, services.NewDomainError(services.ErrorTypeInvalidTokenType, "invalid token type",
			fmt.Errorf("expected %s token, got %q", expected, parsed.Type))
	}
	if parsed.User == nil || parsed.User.ID == "" {
		return nil, services.NewDomainError(services.ErrorTypeInvalidSignature, "invalid token", errMissingPrincipal)
	}

	return parsed, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (interface{}, error) {
	claims, ok := t.Claims.(*Claims)
	if !ok {
		return nil, errUnknownTokenType
	}
	return v.cfg.secretFor(claims.Type)
}

// classify maps a jwt parse failure onto the verification taxonomy
func classify(err error) error {
	switch {
	case errors.Is(err, errMissingKey),
		errors.Is(err, jwt.ErrInvalidKey),
		errors.Is(err, jwt.ErrInvalidKeyType):
		return services.NewDomainError(services.ErrorTypeInternalVerification, "token verification failed", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return services.NewDomainError(services.ErrorTypeExpiredToken, "token has expired", err)
	default:
		return services.NewDomainError(services.ErrorTypeInvalidSignature, "invalid token", err)
	}
}
