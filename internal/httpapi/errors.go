package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

var (
	ErrUnauthorized   = errors.New("httpapi: sign in required")
	ErrSessionMissing = errors.New("httpapi: oauth session missing or expired")
)

// HTTPError is an error with everything needed to render it. Err is logged,
// never shown to the client.
type HTTPError struct {
	Err       error  `json:"-"`
	Code      int    `json:"-"`
	ErrorCode string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Unwrap() error { return e.Err }

// toHTTPError maps domain errors to statuses.
func toHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	e := &HTTPError{Err: err, Code: http.StatusInternalServerError, ErrorCode: "internal", Message: "internal server error"}

	var (
		callbackErr *oauth.CallbackError
		validErr    *identity.ValidationError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		e.Code, e.ErrorCode, e.Message = http.StatusUnauthorized, "unauthorized", "sign in required"
	case errors.Is(err, ErrSessionMissing):
		e.Code, e.ErrorCode, e.Message = http.StatusForbidden, "session_missing", "authorization session missing or expired"
	case errors.Is(err, oauth.ErrUnknownProvider):
		e.Code, e.ErrorCode, e.Message = http.StatusNotFound, "unknown_provider", "unknown provider"
	case errors.Is(err, oauth.ErrCSRF):
		e.Code, e.ErrorCode, e.Message = http.StatusForbidden, "csrf", "authorization state mismatch"
	case errors.As(err, &callbackErr):
		e.Code, e.ErrorCode, e.Message = http.StatusUnauthorized, "callback_error", callbackErr.Code
		if callbackErr.Description != "" {
			e.Message = callbackErr.Code + ": " + callbackErr.Description
		}
	case errors.Is(err, oauth.ErrUnreachable),
		errors.Is(err, oauth.ErrInvalidServerResponse),
		errors.Is(err, oauth.ErrUnexpectedResponse),
		errors.Is(err, oauth.ErrDecodeFailed):
		e.Code, e.ErrorCode, e.Message = http.StatusBadGateway, "provider_error", "provider request failed"
	case errors.Is(err, identity.ErrBoundToDifferentUser):
		e.Code, e.ErrorCode, e.Message = http.StatusConflict, "bound_to_different_user", "identity is linked to another user"
	case errors.Is(err, identity.ErrNoPassword):
		e.Code, e.ErrorCode, e.Message = http.StatusConflict, "no_password", "cannot remove the last sign-in method"
	case errors.As(err, &validErr):
		e.Code, e.ErrorCode = http.StatusUnprocessableEntity, "invalid_user"
		e.Message, e.Field = validErr.Field+" "+validErr.Message, validErr.Field
	case errors.Is(err, identity.ErrNotFound):
		e.Code, e.ErrorCode, e.Message = http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, oauth.ErrConfiguration):
		e.ErrorCode, e.Message = "provider_misconfigured", "provider is not configured correctly"
	}
	return e
}

type errorResponse struct {
	Error *HTTPError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
