package handlers

import (
	"net/http"

	"github.com/upb/hotel-booking-api/config"
	"github.com/upb/hotel-booking-api/utils"
)

// Version is the API version reported by the status endpoint
const Version = "1.0.0"

// StatusResponse describes the running service. It never includes secrets.
type StatusResponse struct {
	Version     string      `json:"version"`
	Environment string      `json:"environment"`
	UserStore   string      `json:"user_store"`
	Token       TokenStatus `json:"token"`
}

// TokenStatus is the public part of the token configuration
type TokenStatus struct {
	Issuer            string `json:"issuer"`
	Audience          string `json:"audience"`
	Algorithm         string `json:"algorithm"`
	AccessTTLSeconds  int64  `json:"access_ttl_seconds"`
	RefreshTTLSeconds int64  `json:"refresh_ttl_seconds"`
}

// StatusHandler returns application status information
func StatusHandler(cfg *config.Config) http.HandlerFunc {
	resp := StatusResponse{
		Version:     Version,
		Environment: cfg.Environment,
		UserStore:   cfg.Auth.UserStore,
		Token: TokenStatus{
			Issuer:            cfg.JWT.Issuer,
			Audience:          cfg.JWT.Audience,
			Algorithm:         cfg.JWT.Algorithm,
			AccessTTLSeconds:  int64(cfg.JWT.AccessTTL.Seconds()),
			RefreshTTLSeconds: int64(cfg.JWT.RefreshTTL.Seconds()),
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, resp)
	}
}
