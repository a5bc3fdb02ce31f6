package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration is returned when a strategy is called with missing or invalid configuration.
	ErrConfiguration = errors.New("oauth: invalid configuration")

	// ErrCSRF is returned when the callback state does not match the session state.
	ErrCSRF = errors.New("oauth: CSRF detected")

	// ErrCallback is returned when the provider redirected back with an OAuth error.
	ErrCallback = errors.New("oauth: provider returned an error")

	// ErrUnreachable is returned when the provider could not be reached at all.
	ErrUnreachable = errors.New("oauth: provider unreachable")

	// ErrInvalidServerResponse is returned when the provider responds with a non-2xx status.
	ErrInvalidServerResponse = errors.New("oauth: invalid server response")

	// ErrUnexpectedResponse is returned when a 2xx response lacks the expected fields.
	ErrUnexpectedResponse = errors.New("oauth: unexpected response")

	// ErrDecodeFailed is returned when a response body does not parse per its content type.
	ErrDecodeFailed = errors.New("oauth: failed to decode response")

	// ErrUnknownProvider is returned by the registry for unregistered provider names.
	ErrUnknownProvider = errors.New("oauth: unknown provider")

	// ErrMissingUID is returned when a normalized profile has no uid.
	ErrMissingUID = errors.New("oauth: normalized profile is missing uid")
)

// ConfigurationError reports a missing or malformed configuration key.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("oauth: configuration %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("oauth: configuration %s is missing", e.Field)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// CallbackCSRFError is returned when the state round-tripped through the
// provider does not match the state stored with the session.
type CallbackCSRFError struct {
	Key string
}

func (e *CallbackCSRFError) Error() string {
	return fmt.Sprintf("oauth: CSRF detected with param key %q", e.Key)
}

func (e *CallbackCSRFError) Is(target error) bool { return target == ErrCSRF }

// CallbackError carries the OAuth error response the provider redirected with.
type CallbackError struct {
	Code        string
	Description string
	URI         string
}

func (e *CallbackError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: callback error %s: %s", e.Code, e.Description)
	}
	return "oauth: callback error " + e.Code
}

func (e *CallbackError) Is(target error) bool { return target == ErrCallback }

// RequestErrorKind classifies request failures.
type RequestErrorKind string

const (
	ErrorUnreachable           RequestErrorKind = "unreachable"
	ErrorInvalidServerResponse RequestErrorKind = "invalid_server_response"
	ErrorUnexpectedResponse    RequestErrorKind = "unexpected_response"
)

// RequestError describes a failed outbound request. Status, Headers and Body
// are populated when a response was received.
type RequestError struct {
	Kind    RequestErrorKind
	Message string
	Status  int
	Headers http.Header
	Body    any
	Err     error
}

func (e *RequestError) Error() string {
	msg := "oauth: " + string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status=%d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool {
	switch e.Kind {
	case ErrorUnreachable:
		return target == ErrUnreachable
	case ErrorInvalidServerResponse:
		return target == ErrInvalidServerResponse
	case ErrorUnexpectedResponse:
		return target == ErrUnexpectedResponse
	}
	return false
}

func invalidServerResponse(msg string, resp *Response) *RequestError {
	return &RequestError{
		Kind:    ErrorInvalidServerResponse,
		Message: msg,
		Status:  resp.Status,
		Headers: resp.Headers,
		Body:    resp.Body,
	}
}

func unexpectedResponse(msg string, resp *Response) *RequestError {
	e := &RequestError{Kind: ErrorUnexpectedResponse, Message: msg}
	if resp != nil {
		e.Status = resp.Status
		e.Headers = resp.Headers
		e.Body = resp.Body
	}
	return e
}

// DecodeError is returned when a body does not parse per its declared content type.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("oauth: failed to decode %s body: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecodeFailed }
