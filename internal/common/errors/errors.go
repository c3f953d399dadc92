// Package errors provides the standardized error taxonomy shared by the
// service clients, the session store and the controller.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure for retry and presentation decisions.
type Kind string

const (
	// KindNetwork covers timeouts and connection failures. Retryable only
	// inside the login flow.
	KindNetwork Kind = "NETWORK"
	// KindAuth covers rejected credentials and invalid or expired tokens.
	// Never retried.
	KindAuth Kind = "AUTH"
	// KindValidation covers field-level rejections returned by the server
	// or produced by client-side schema checks.
	KindValidation Kind = "VALIDATION"
	// KindServer covers 5xx and any response the client cannot interpret.
	KindServer Kind = "SERVER"
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ClientError is the one error type that crosses package boundaries.
type ClientError struct {
	Kind      Kind         `json:"kind"`
	Message   string       `json:"message"`
	Details   string       `json:"details,omitempty"`
	Retryable bool         `json:"retryable"`
	Fields    []FieldError `json:"fields,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("ClientError[%s]: %s", e.Kind, e.Message)
}

// NewNetworkError creates a retryable network error.
func NewNetworkError(message string, err error) *ClientError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &ClientError{
		Kind:      KindNetwork,
		Message:   message,
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError creates a non-retryable authentication error.
func NewAuthError(message string) *ClientError {
	return &ClientError{
		Kind:      KindAuth,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable error carrying field-level
// failures.
func NewValidationError(message string, fields []FieldError) *ClientError {
	return &ClientError{
		Kind:      KindValidation,
		Message:   message,
		Retryable: false,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewServerError creates a non-retryable server error.
func NewServerError(message string, details string) *ClientError {
	return &ClientError{
		Kind:      KindServer,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// AsClientError unwraps err into a *ClientError. Unknown errors are wrapped
// as server errors so downstream code never re-inspects raw error shapes.
func AsClientError(err error) *ClientError {
	if err == nil {
		return nil
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce
	}
	return NewServerError("Unexpected error", err.Error())
}

// IsRetryable reports whether err may be retried. Only network-class
// failures qualify.
func IsRetryable(err error) bool {
	ce := AsClientError(err)
	return ce != nil && ce.Kind == KindNetwork && ce.Retryable
}

// IsKind reports whether err is a ClientError of the given kind.
func IsKind(err error, kind Kind) bool {
	ce := AsClientError(err)
	return ce != nil && ce.Kind == kind
}
