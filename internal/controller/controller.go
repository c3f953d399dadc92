// Package controller wires the session store, record cache and filter
// engine together and mediates every user action. It is the only layer that
// turns errors into operator-visible text.
package controller

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ats-client/internal/cache"
	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/common/logger"
	"ats-client/internal/common/observability"
	"ats-client/internal/filter"
	"ats-client/internal/models"
	"ats-client/internal/session"
	"ats-client/internal/validation"
)

// RecordsAPI is the slice of the records service the controller drives.
type RecordsAPI interface {
	Create(ctx context.Context, fields models.ApplicantFields, resume *models.ResumeUpload) (*models.ApplicantRecord, error)
	Update(ctx context.Context, id string, fields models.ApplicantFields, resume *models.ResumeUpload) (*models.ApplicantRecord, error)
	Delete(ctx context.Context, id, adminPassword string) error
	Export(ctx context.Context, params url.Values) (io.ReadCloser, error)
}

// AccountAPI covers the self-service account operation.
type AccountAPI interface {
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}

type Controller struct {
	session *session.Store
	cache   *cache.RecordCache
	records RecordsAPI
	account AccountAPI
	obs     *observability.Observability
	log     logger.Logger

	exportDir string

	mu       sync.Mutex
	criteria filter.Criteria
}

func New(sess *session.Store, recordCache *cache.RecordCache, records RecordsAPI, account AccountAPI, obs *observability.Observability, exportDir string, log logger.Logger) *Controller {
	return &Controller{
		session:   sess,
		cache:     recordCache,
		records:   records,
		account:   account,
		obs:       obs,
		exportDir: exportDir,
		log:       log.WithFields(map[string]interface{}{"component": "controller"}),
	}
}

// Bootstrap restores a persisted session if one exists and, once
// authenticated, performs the initial record load. Returning false means the
// operator has to log in.
func (c *Controller) Bootstrap(ctx context.Context) (bool, error) {
	if err := c.session.Verify(ctx); err != nil {
		// Fail-closed: the session store has already logged out.
		c.log.Info("stored session rejected", map[string]interface{}{
			"reason": clierrors.AsClientError(err).Message,
		})
		return false, nil
	}
	if !c.session.IsAuthenticated() {
		return false, nil
	}
	if err := c.cache.Load(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Login runs the retrying login flow and, on success, loads the records.
func (c *Controller) Login(ctx context.Context, userID, password string, onProgress session.ProgressFunc) error {
	if err := c.session.AttemptLogin(ctx, userID, password, onProgress); err != nil {
		return err
	}
	return c.cache.Load(ctx)
}

// Logout ends the session.
func (c *Controller) Logout(ctx context.Context) {
	c.session.Logout(ctx)
}

// Session exposes the session store for read-only queries (state, IsAdmin).
func (c *Controller) Session() *session.Store {
	return c.session
}

// Refresh re-fetches the record list. A failed refresh leaves the prior
// cache intact.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.cache.Load(ctx)
}

// SetCriteria replaces the filter criteria. The visible view is derived on
// demand, so no recompute happens here.
func (c *Controller) SetCriteria(criteria filter.Criteria) {
	c.mu.Lock()
	c.criteria = criteria
	c.mu.Unlock()
}

// Criteria returns the current filter criteria.
func (c *Controller) Criteria() filter.Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// Visible projects the cached records through the current criteria.
func (c *Controller) Visible() []models.ApplicantRecord {
	return filter.Project(c.cache.Records(), c.Criteria())
}

// SubmitRecord creates (empty id) or updates an applicant. The cache is
// mutated only after the server confirms the write.
func (c *Controller) SubmitRecord(ctx context.Context, id string, fields models.ApplicantFields, resume *models.ResumeUpload) (*models.ApplicantRecord, error) {
	if err := validation.CheckApplicant(fields); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		record *models.ApplicantRecord
		err    error
		op     string
	)
	if id == "" {
		op = "create"
		record, err = c.records.Create(ctx, fields, resume)
	} else {
		op = "update"
		record, err = c.records.Update(ctx, id, fields, resume)
	}
	c.recordCall(ctx, op, start, err)
	if err != nil {
		return nil, err
	}

	c.cache.Upsert(*record)
	c.log.Info("record saved", map[string]interface{}{"id": record.ID, "operation": op})
	return record, nil
}

// DeleteRecord removes an applicant. The operator re-enters the admin
// password; it travels with the request and is distinct from the session
// token. The cache entry survives any failure.
func (c *Controller) DeleteRecord(ctx context.Context, id, adminPassword string) error {
	start := time.Now()
	err := c.records.Delete(ctx, id, adminPassword)
	c.recordCall(ctx, "delete", start, err)
	if err != nil {
		return err
	}
	c.cache.Remove(id)
	c.log.Info("record deleted", map[string]interface{}{"id": id})
	return nil
}

// Export streams the server-side spreadsheet for the records currently
// visible: the active criteria travel as query parameters so the export
// matches the filtered view. Returns the written file path.
func (c *Controller) Export(ctx context.Context) (string, error) {
	start := time.Now()
	stream, err := c.records.Export(ctx, c.Criteria().QueryValues())
	c.recordCall(ctx, "export", start, err)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	name := fmt.Sprintf("applicants_export_%s.xlsx", time.Now().Format("2006-01-02"))
	path := filepath.Join(c.exportDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", clierrors.NewServerError("Failed to create export file", err.Error())
	}
	defer out.Close()

	if _, err := io.Copy(out, stream); err != nil {
		os.Remove(path)
		return "", clierrors.NewServerError("Failed to write export file", err.Error())
	}

	c.log.Info("export written", map[string]interface{}{"path": path})
	return path, nil
}

// ChangePassword updates the current operator's password.
func (c *Controller) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	start := time.Now()
	err := c.account.ChangePassword(ctx, currentPassword, newPassword)
	c.recordCall(ctx, "change_password", start, err)
	return err
}

func (c *Controller) recordCall(ctx context.Context, operation string, start time.Time, err error) {
	if c.obs == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(clierrors.AsClientError(err).Kind)
	}
	c.obs.RecordCall(ctx, operation, outcome)
	c.obs.RecordCallDuration(ctx, operation, time.Since(start))
}

// RenderError flattens an error into the lines shown to the operator:
// the top-level message first, then one line per field-level failure.
func RenderError(err error) []string {
	ce := clierrors.AsClientError(err)
	if ce == nil {
		return nil
	}
	lines := []string{ce.Message}
	for _, fe := range ce.Fields {
		lines = append(lines, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return lines
}
