package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/common/transport"
	"ats-client/internal/models"
)

const serviceRecords = "records"

const dateLayout = "2006-01-02"

// RecordsClient talks to the applicant records service.
type RecordsClient struct {
	transport *transport.Client
}

func NewRecordsClient(t *transport.Client) *RecordsClient {
	return &RecordsClient{transport: t}
}

// List fetches the complete applicant list.
func (c *RecordsClient) List(ctx context.Context) ([]models.ApplicantRecord, error) {
	req, err := c.transport.NewRequest(ctx, http.MethodGet, "/applicants", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(serviceRecords, "list", req)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var records []models.ApplicantRecord
	if err := decodeData(env, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Create submits a new applicant. Field-level rejections surface as a
// validation error with one entry per field.
func (c *RecordsClient) Create(ctx context.Context, fields models.ApplicantFields, resume *models.ResumeUpload) (*models.ApplicantRecord, error) {
	return c.submit(ctx, http.MethodPost, "/applicants", "create", fields, resume)
}

// Update replaces the applicant identified by id.
func (c *RecordsClient) Update(ctx context.Context, id string, fields models.ApplicantFields, resume *models.ResumeUpload) (*models.ApplicantRecord, error) {
	return c.submit(ctx, http.MethodPut, "/applicants/"+url.PathEscape(id), "update", fields, resume)
}

func (c *RecordsClient) submit(ctx context.Context, method, path, operation string, fields models.ApplicantFields, resume *models.ResumeUpload) (*models.ApplicantRecord, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writeApplicantFields(writer, fields); err != nil {
		return nil, clierrors.NewServerError("Failed to encode applicant fields", err.Error())
	}
	if resume != nil {
		part, err := writer.CreateFormFile("resume", resume.Filename)
		if err != nil {
			return nil, clierrors.NewServerError("Failed to attach resume", err.Error())
		}
		if _, err := part.Write(resume.Content); err != nil {
			return nil, clierrors.NewServerError("Failed to attach resume", err.Error())
		}
	}
	if err := writer.Close(); err != nil {
		return nil, clierrors.NewServerError("Failed to finalize request body", err.Error())
	}

	req, err := c.transport.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.transport.Do(serviceRecords, operation, req)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var record models.ApplicantRecord
	if err := decodeData(env, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func writeApplicantFields(writer *multipart.Writer, fields models.ApplicantFields) error {
	values := map[string]string{
		"fullName":          fields.FullName,
		"email":             fields.Email,
		"phone":             fields.Phone,
		"position":          fields.Position,
		"company":           fields.Company,
		"annualCTC":         strconv.FormatInt(fields.AnnualCTC, 10),
		"location":          fields.Location,
		"status":            fields.Status,
		"dateOfApplication": fields.DateOfApplication.Format(dateLayout),
		"notes":             fields.Notes,
	}
	if fields.InterviewDate != nil {
		values["interviewDate"] = fields.InterviewDate.Format(dateLayout)
	}

	for key, value := range values {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	return nil
}

// Delete removes an applicant. The admin password is re-entered by the
// operator and travels in the body, separate from the session token.
func (c *RecordsClient) Delete(ctx context.Context, id, adminPassword string) error {
	payload, _ := json.Marshal(map[string]string{"adminPassword": adminPassword})

	req, err := c.transport.NewRequest(ctx, http.MethodDelete, "/applicants/"+url.PathEscape(id), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.transport.Do(serviceRecords, "delete", req)
	if err != nil {
		return err
	}

	_, err = decodeEnvelope(resp)
	return err
}

// Export streams the server-side spreadsheet export for the given filter
// parameters. The caller owns the returned reader.
func (c *RecordsClient) Export(ctx context.Context, params url.Values) (io.ReadCloser, error) {
	path := "/applicants/export"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	req, err := c.transport.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(serviceRecords, "export", req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		// Error responses to the export endpoint are JSON envelopes.
		_, err := decodeEnvelope(resp)
		if err == nil {
			err = clierrors.NewServerError("Export failed", resp.Status)
		}
		return nil, err
	}

	return resp.Body, nil
}
