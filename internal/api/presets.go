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

const servicePresets = "presets"

// PresetsClient serves the company and position preset lists consumed by the
// record form, plus the admin-only management endpoints.
type PresetsClient struct {
	transport *transport.Client
}

func NewPresetsClient(t *transport.Client) *PresetsClient {
	return &PresetsClient{transport: t}
}

func (c *PresetsClient) Companies(ctx context.Context) ([]models.Company, error) {
	env, err := c.get(ctx, "/companies", "list_companies")
	if err != nil {
		return nil, err
	}
	var out struct {
		Companies []models.Company `json:"companies"`
	}
	if err := decodeData(env, &out); err != nil {
		return nil, err
	}
	return out.Companies, nil
}

func (c *PresetsClient) Positions(ctx context.Context) ([]models.Position, error) {
	env, err := c.get(ctx, "/positions", "list_positions")
	if err != nil {
		return nil, err
	}
	var out struct {
		Positions []models.Position `json:"positions"`
	}
	if err := decodeData(env, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

func (c *PresetsClient) CreateCompany(ctx context.Context, name string) error {
	return c.write(ctx, http.MethodPost, "/companies", "create_company", map[string]string{"companyName": name})
}

func (c *PresetsClient) UpdateCompany(ctx context.Context, id, name string) error {
	return c.write(ctx, http.MethodPut, "/companies/"+url.PathEscape(id), "update_company", map[string]string{"companyName": name})
}

func (c *PresetsClient) DeleteCompany(ctx context.Context, id string) error {
	return c.write(ctx, http.MethodDelete, "/companies/"+url.PathEscape(id), "delete_company", nil)
}

func (c *PresetsClient) CreatePosition(ctx context.Context, name string) error {
	return c.write(ctx, http.MethodPost, "/positions", "create_position", map[string]string{"positionName": name})
}

func (c *PresetsClient) UpdatePosition(ctx context.Context, id, name string) error {
	return c.write(ctx, http.MethodPut, "/positions/"+url.PathEscape(id), "update_position", map[string]string{"positionName": name})
}

func (c *PresetsClient) DeletePosition(ctx context.Context, id string) error {
	return c.write(ctx, http.MethodDelete, "/positions/"+url.PathEscape(id), "delete_position", nil)
}

func (c *PresetsClient) get(ctx context.Context, path, operation string) (*envelope, error) {
	req, err := c.transport.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Do(servicePresets, operation, req)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(resp)
}

func (c *PresetsClient) write(ctx context.Context, method, path, operation string, payload map[string]string) error {
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

	resp, err := c.transport.Do(servicePresets, operation, req)
	if err != nil {
		return err
	}

	_, err = decodeEnvelope(resp)
	return err
}
