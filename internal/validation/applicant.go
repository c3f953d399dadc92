// Package validation performs client-side schema checks on applicant fields
// before they are submitted, so obvious mistakes fail fast without a round
// trip. The server remains the authority; passing here guarantees nothing.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/models"
)

const applicantSchema = `{
	"type": "object",
	"required": ["fullName", "email", "position", "company", "location", "status", "dateOfApplication"],
	"properties": {
		"fullName":          {"type": "string", "minLength": 1, "maxLength": 200},
		"email":             {"type": "string", "format": "email"},
		"phone":             {"type": "string", "pattern": "^[0-9+\\-() ]{7,20}$"},
		"position":          {"type": "string", "minLength": 1},
		"company":           {"type": "string", "minLength": 1},
		"annualCTC":         {"type": "integer", "minimum": 0},
		"location":          {"type": "string", "minLength": 1},
		"status":            {"type": "string", "enum": ["Applied", "Interviewed", "Hired", "Rejected"]},
		"dateOfApplication": {"type": "string", "minLength": 1},
		"interviewDate":     {"type": "string"},
		"notes":             {"type": "string", "maxLength": 2000}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(applicantSchema)

// CheckApplicant validates fields against the applicant schema and returns a
// validation error carrying one entry per failing field.
func CheckApplicant(fields models.ApplicantFields) error {
	doc := map[string]interface{}{
		"fullName":          fields.FullName,
		"email":             fields.Email,
		"position":          fields.Position,
		"company":           fields.Company,
		"annualCTC":         fields.AnnualCTC,
		"location":          fields.Location,
		"status":            fields.Status,
		"dateOfApplication": formatDate(fields),
	}
	if fields.Phone != "" {
		doc["phone"] = fields.Phone
	}
	if fields.Notes != "" {
		doc["notes"] = fields.Notes
	}
	if fields.InterviewDate != nil {
		doc["interviewDate"] = fields.InterviewDate.Format("2006-01-02")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return clierrors.NewServerError("Schema validation failed to run", err.Error())
	}
	if result.Valid() {
		return nil
	}

	fieldErrs := make([]clierrors.FieldError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		fieldErrs = append(fieldErrs, clierrors.FieldError{
			Field:   re.Field(),
			Message: re.Description(),
		})
	}
	return clierrors.NewValidationError(
		fmt.Sprintf("%d field(s) failed validation", len(fieldErrs)), fieldErrs)
}

func formatDate(fields models.ApplicantFields) string {
	if fields.DateOfApplication.IsZero() {
		return ""
	}
	return fields.DateOfApplication.Format("2006-01-02")
}
