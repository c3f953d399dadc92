package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/common/transport"
	"ats-client/internal/models"
)

const serviceAuth = "auth"

// AuthClient talks to the auth service. Token attachment is owned by the
// shared transport; this client only moves credentials and tokens across
// the wire.
type AuthClient struct {
	transport *transport.Client
}

func NewAuthClient(t *transport.Client) *AuthClient {
	return &AuthClient{transport: t}
}

// Health probes the backend. Used best-effort to wake a sleeping server
// before login; callers are free to ignore the error.
func (c *AuthClient) Health(ctx context.Context) error {
	req, err := c.transport.NewRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.transport.Do(serviceAuth, "health", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return clierrors.NewServerError("Health check failed", resp.Status)
	}
	return nil
}

// LoginResult is the decoded outcome of a successful login call.
type LoginResult struct {
	Token     string
	Principal models.Principal
}

// Login exchanges credentials for a token. Credential rejections come back
// as auth errors with the server's message intact.
func (c *AuthClient) Login(ctx context.Context, userID, password string) (*LoginResult, error) {
	payload, _ := json.Marshal(map[string]string{
		"userid":   userID,
		"password": password,
	})

	req, err := c.transport.NewRequest(ctx, http.MethodPost, "/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.transport.Do(serviceAuth, "login", req)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		// A login rejection is an auth failure regardless of the exact
		// status the server chose, as long as it was not transport-level.
		ce := clierrors.AsClientError(err)
		if ce.Kind == clierrors.KindServer && ce.Message != "" {
			return nil, clierrors.NewAuthError(ce.Message)
		}
		return nil, err
	}

	if env.Token == "" || env.User == nil {
		return nil, clierrors.NewServerError("Login response missing token or user", "")
	}

	return &LoginResult{Token: env.Token, Principal: *env.User}, nil
}

// Verify checks the bearer token currently held by the transport and
// returns the principal it belongs to.
func (c *AuthClient) Verify(ctx context.Context) (*models.Principal, error) {
	req, err := c.transport.NewRequest(ctx, http.MethodGet, "/auth/verify", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(serviceAuth, "verify", req)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, clierrors.NewServerError("Verify response missing user", "")
	}
	return env.User, nil
}

// ChangePassword updates the current user's password.
func (c *AuthClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	payload, _ := json.Marshal(map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	})

	req, err := c.transport.NewRequest(ctx, http.MethodPut, "/auth/change-password", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.transport.Do(serviceAuth, "change_password", req)
	if err != nil {
		return err
	}

	_, err = decodeEnvelope(resp)
	return err
}
