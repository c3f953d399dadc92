package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"ats-client/internal/common/transport"
	"ats-client/internal/models"
)

const serviceUsers = "users"

// UsersClient covers the admin-only account management endpoints.
// Authorization is enforced server-side; the client only relays calls.
type UsersClient struct {
	transport *transport.Client
}

func NewUsersClient(t *transport.Client) *UsersClient {
	return &UsersClient{transport: t}
}

func (c *UsersClient) List(ctx context.Context) ([]models.User, error) {
	req, err := c.transport.NewRequest(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Do(serviceUsers, "list", req)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := decodeData(env, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *UsersClient) Create(ctx context.Context, userID, password, role string) error {
	return c.write(ctx, http.MethodPost, "/users", "create", map[string]string{
		"userid":   userID,
		"password": password,
		"role":     role,
	})
}

// Update changes a user's role and, when password is non-empty, resets it.
func (c *UsersClient) Update(ctx context.Context, userID, password, role string) error {
	payload := map[string]string{"role": role}
	if password != "" {
		payload["password"] = password
	}
	return c.write(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), "update", payload)
}

func (c *UsersClient) Delete(ctx context.Context, userID string) error {
	return c.write(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), "delete", nil)
}

func (c *UsersClient) write(ctx context.Context, method, path, operation string, payload map[string]string) error {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := c.transport.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.Do(serviceUsers, operation, req)
	if err != nil {
		return err
	}

	_, err = decodeEnvelope(resp)
	return err
}
