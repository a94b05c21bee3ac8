package token

import "time"

// Refresher exchanges a valid refresh token for new credentials.
// Roles and permissions are carried forward from the refresh token; the
// user store is not consulted. The presented refresh token is not revoked.
type Refresher struct {
	verifier    *Verifier
	issuer      *Issuer
	reissuePair bool
}

// NewRefresher creates a refresher. With reissuePair set, every refresh
// returns a new refresh token alongside the access token.
func NewRefresher(verifier *Verifier, issuer *Issuer, reissuePair bool) *Refresher {
	return &Refresher{verifier: verifier, issuer: issuer, reissuePair: reissuePair}
}

// Refresh verifies raw as a refresh token and issues new credentials
func (r *Refresher) Refresh(raw string) (*TokenPair, error) {
	claims, err := r.verifier.ParseClaims(raw, TypeRefresh)
	if err != nil {
		return nil, err
	}
	p, err := claims.Principal()
	if err != nil {
		return nil, err
	}

	if r.reissuePair {
		return r.issuer.IssueTokenPair(p)
	}

	access, err := r.issuer.IssueAccessToken(p, Options{})
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken: access,
		TokenType:   BearerType,
		ExpiresIn:   int64(r.issuer.AccessTTL() / time.Second),
	}, nil
}
