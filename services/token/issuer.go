package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/upb/hotel-booking-api/services"
)

// BearerType is the token_type reported with every issued pair
const BearerType = "Bearer"

var (
	errMissingKey       = errors.New("signing key not configured")
	errUnknownTokenType = errors.New("unknown token type")
	errMissingPrincipal = errors.New("token is missing principal fields")
)

// Config holds signing and validation settings shared by Issuer and Verifier
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Algorithm     string // HS256, HS384 or HS512

	// Now overrides the clock, for tests
	Now func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) signingMethod() (jwt.SigningMethod, error) {
	alg := c.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	switch alg {
	case "HS256", "HS384", "HS512":
		return jwt.GetSigningMethod(alg), nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
}

// secretFor returns the signing secret bound to a token type
func (c Config) secretFor(typ TokenType) ([]byte, error) {
	var secret string
	switch typ {
	case TypeAccess:
		secret = c.AccessSecret
	case TypeRefresh:
		secret = c.RefreshSecret
	default:
		return nil, errUnknownTokenType
	}
	if secret == "" {
		return nil, errMissingKey
	}
	return []byte(secret), nil
}

// Options tweaks a single issuance
type Options struct {
	// ExpiresIn overrides the configured lifetime when positive
	ExpiresIn time.Duration
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime in seconds
}

// Issuer signs access and refresh tokens
type Issuer struct {
	cfg    Config
	method jwt.SigningMethod
}

// NewIssuer creates a new token issuer
func NewIssuer(cfg Config) (*Issuer, error) {
	method, err := cfg.signingMethod()
	if err != nil {
		return nil, err
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	return &Issuer{cfg: cfg, method: method}, nil
}

// AccessTTL returns the default access token lifetime
func (i *Issuer) AccessTTL() time.Duration {
	return i.cfg.AccessTTL
}

// IssueAccessToken signs a short-lived access token with the access secret
func (i *Issuer) IssueAccessToken(p *Principal, opts Options) (string, error) {
	return i.issue(p, TypeAccess, i.ttl(opts, i.cfg.AccessTTL))
}

// IssueRefreshToken signs a long-lived refresh token with the refresh secret
func (i *Issuer) IssueRefreshToken(p *Principal, opts Options) (string, error) {
	return i.issue(p, TypeRefresh, i.ttl(opts, i.cfg.RefreshTTL))
}

// IssueTokenPair issues both tokens with default lifetimes. Either both are
// returned or neither.
func (i *Issuer) IssueTokenPair(p *Principal) (*TokenPair, error) {
	access, err := i.IssueAccessToken(p, Options{})
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefreshToken(p, Options{})
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    BearerType,
		ExpiresIn:    int64(i.cfg.AccessTTL / time.Second),
	}, nil
}

func (i *Issuer) ttl(opts Options, fallback time.Duration) time.Duration {
	if opts.ExpiresIn > 0 {
		return opts.ExpiresIn
	}
	return fallback
}

func (i *Issuer) issue(p *Principal, typ TokenType, ttl time.Duration) (string, error) {
	if p == nil || CanonicalID(p.ID) == "" {
		return "", services.ErrInvalidIdentity
	}

	key, err := i.cfg.secretFor(typ)
	if err != nil {
		return "", services.NewDomainError(services.ErrorTypeInternal, "failed to issue token", err)
	}

	now := i.cfg.now()
	claims := newClaims(p, typ)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    i.cfg.Issuer,
		Subject:   string(claims.User.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if i.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{i.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(key)
	if err != nil {
		return "", services.NewDomainError(services.ErrorTypeInternal, "failed to issue token", err)
	}
	return signed, nil
}
