// Package filter derives the visible subset of the record cache from the
// five-axis filter criteria. Projection is a pure function: no state, no
// side effects, stable order.
package filter

import (
	"net/url"
	"strings"
	"time"

	"ats-client/internal/models"
)

// Criteria narrows the visible record set. Empty string or zero time on an
// axis means no constraint on that axis. Criteria is a value object;
// equality is structural.
type Criteria struct {
	SearchQuery     string
	Role            string
	Status          string
	ApplicationDate time.Time
	InterviewDate   time.Time
}

// IsEmpty reports whether no axis is constrained.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.SearchQuery) == "" &&
		c.Role == "" &&
		c.Status == "" &&
		c.ApplicationDate.IsZero() &&
		c.InterviewDate.IsZero()
}

// QueryValues encodes the criteria as export query parameters so the
// server-side export matches the currently visible set.
func (c Criteria) QueryValues() url.Values {
	values := url.Values{}
	if q := strings.TrimSpace(c.SearchQuery); q != "" {
		values.Set("searchQuery", q)
	}
	if c.Role != "" {
		values.Set("role", c.Role)
	}
	if c.Status != "" {
		values.Set("status", c.Status)
	}
	if !c.ApplicationDate.IsZero() {
		values.Set("applicationDate", c.ApplicationDate.Format("2006-01-02"))
	}
	if !c.InterviewDate.IsZero() {
		values.Set("interviewDate", c.InterviewDate.Format("2006-01-02"))
	}
	return values
}

// Project returns exactly the records of records that satisfy every
// constrained axis of c, preserving their relative order.
func Project(records []models.ApplicantRecord, c Criteria) []models.ApplicantRecord {
	if c.IsEmpty() {
		out := make([]models.ApplicantRecord, len(records))
		copy(out, records)
		return out
	}

	out := make([]models.ApplicantRecord, 0, len(records))
	for _, record := range records {
		if Matches(record, c) {
			out = append(out, record)
		}
	}
	return out
}

// Matches reports whether record satisfies every constrained axis of c.
func Matches(record models.ApplicantRecord, c Criteria) bool {
	if q := strings.TrimSpace(c.SearchQuery); q != "" && !matchesQuery(record, q) {
		return false
	}
	if c.Role != "" && !strings.EqualFold(record.Position, c.Role) {
		return false
	}
	if c.Status != "" && !strings.EqualFold(record.Status, c.Status) {
		return false
	}
	if !c.ApplicationDate.IsZero() && !sameDay(record.DateOfApplication, c.ApplicationDate) {
		return false
	}
	if !c.InterviewDate.IsZero() {
		// A record with no interview date never matches a date constraint.
		if record.InterviewDate == nil || !sameDay(*record.InterviewDate, c.InterviewDate) {
			return false
		}
	}
	return true
}

// matchesQuery is a case-insensitive substring match across name, email,
// position and status (OR across fields).
func matchesQuery(record models.ApplicantRecord, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(record.FullName), q) ||
		strings.Contains(strings.ToLower(record.Email), q) ||
		strings.Contains(strings.ToLower(record.Position), q) ||
		strings.Contains(strings.ToLower(record.Status), q)
}

// sameDay compares calendar days, ignoring time of day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
