package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/upb/hotel-booking-api/services/token"
)

const maxOwnerBodyBytes = 1 << 20

// OwnerFromURLParam reads the owner id from a chi URL parameter
func OwnerFromURLParam(name string) OwnerExtractor {
	return func(r *http.Request) string {
		return token.CanonicalID(chi.URLParam(r, name))
	}
}

// OwnerFromBody reads the owner id from a top-level field of a JSON body.
// The body is restored so the handler can decode it again.
func OwnerFromBody(field string) OwnerExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		buf, err := io.ReadAll(io.LimitReader(r.Body, maxOwnerBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		if err != nil || len(buf) == 0 {
			return ""
		}

		var body map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return ""
		}
		return token.CanonicalID(body[field])
	}
}

// OwnerFromParamOrBody prefers the URL parameter and falls back to the body field
func OwnerFromParamOrBody(param, field string) OwnerExtractor {
	fromParam := OwnerFromURLParam(param)
	fromBody := OwnerFromBody(field)
	return func(r *http.Request) string {
		if owner := fromParam(r); owner != "" {
			return owner
		}
		return fromBody(r)
	}
}
