package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/upb/hotel-booking-api/services"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with optional data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteMessage writes a 200 OK response carrying a message and optional data
func WriteMessage(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data, Message: message})
}

// WriteBadRequest writes a 400 Bad Request response with error details
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: message,
		Details: details,
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

// WriteNotImplemented writes a 501 Not Implemented response
func WriteNotImplemented(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Not implemented"
	}
	return WriteJSON(w, http.StatusNotImplemented, ErrorResponse{
		Error:   "not_implemented",
		Message: message,
	})
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: message,
	})
}

// StatusForError maps a domain error to its HTTP status.
//
//	401  missing or malformed credential, bad login
//	403  expired, invalid signature, invalid type, role or ownership denial
//	500  internal failures and anything unclassified
func StatusForError(err error) int {
	switch services.GetErrorType(err) {
	case services.ErrorTypeMissingCredential,
		services.ErrorTypeMalformedCredential,
		services.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorTypeExpiredToken,
		services.ErrorTypeInvalidSignature,
		services.ErrorTypeInvalidTokenType,
		services.ErrorTypeInsufficientRole,
		services.ErrorTypeOwnershipViolation,
		services.ErrorTypeForbidden:
		return http.StatusForbidden
	case services.ErrorTypeNotFound:
		return http.StatusNotFound
	case services.ErrorTypeValidation:
		return http.StatusBadRequest
	case services.ErrorTypeConflict:
		return http.StatusConflict
	case services.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes the JSON body for a domain error. Internal
// failures get a generic message; details of the cause never leave the
// process.
func WriteServiceError(w http.ResponseWriter, err error) error {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		code := "internal_error"
		if services.GetErrorType(err) == services.ErrorTypeInternalVerification {
			code = string(services.ErrorTypeInternalVerification)
		}
		return WriteJSON(w, status, ErrorResponse{
			Error:   code,
			Message: "An internal error occurred",
		})
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}
	return WriteJSON(w, status, ErrorResponse{
		Error:   string(services.GetErrorType(err)),
		Message: services.GetErrorMessage(err),
		Details: details,
	})
}

// DecodeJSON reads a JSON request body into dst, rejecting unknown fields
// and trailing data.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
