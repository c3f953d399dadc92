// Package api holds the typed clients for the external Auth, Records,
// Preset and Users services. Responses are decoded exactly once here; no
// caller ever inspects a raw response shape.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/models"
)

// envelope is the wire shape every service endpoint responds with.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	User    *models.Principal `json:"user,omitempty"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Errors  []wireFieldError  `json:"errors,omitempty"`
}

type wireFieldError struct {
	Field   string `json:"path"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

func (w wireFieldError) toFieldError() clierrors.FieldError {
	msg := w.Msg
	if msg == "" {
		msg = w.Message
	}
	return clierrors.FieldError{Field: w.Field, Message: msg}
}

// decodeEnvelope reads and classifies a response. A nil error means the
// envelope reported success; everything else comes back as a ClientError of
// the appropriate kind.
func decodeEnvelope(resp *http.Response) (*envelope, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, clierrors.NewNetworkError("Failed to read response", err)
	}

	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if resp.StatusCode >= 500 {
				return nil, clierrors.NewServerError("Server error", string(body))
			}
			return nil, clierrors.NewServerError("Unreadable response", err.Error())
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && env.Success {
		return &env, nil
	}

	message := env.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, clierrors.NewAuthError(message)
	case len(env.Errors) > 0:
		fields := make([]clierrors.FieldError, 0, len(env.Errors))
		for _, fe := range env.Errors {
			fields = append(fields, fe.toFieldError())
		}
		return nil, clierrors.NewValidationError(message, fields)
	case resp.StatusCode >= 500:
		return nil, clierrors.NewServerError(message, "")
	case resp.StatusCode >= 400:
		// 4xx without field errors: the server rejected the request as a
		// whole. Login endpoints treat this as an auth failure; everything
		// else surfaces the message.
		return nil, clierrors.NewServerError(message, "")
	default:
		// 2xx with success=false
		return nil, clierrors.NewServerError(message, "")
	}
}

func decodeData(env *envelope, out interface{}) error {
	if len(env.Data) == 0 {
		return clierrors.NewServerError("Response carried no data", "")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return clierrors.NewServerError("Failed to decode response data", err.Error())
	}
	return nil
}
