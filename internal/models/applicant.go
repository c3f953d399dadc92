package models

import "time"

// Status values issued by the records service.
const (
	StatusApplied     = "Applied"
	StatusInterviewed = "Interviewed"
	StatusHired       = "Hired"
	StatusRejected    = "Rejected"
)

// Statuses lists the valid applicant statuses in display order.
var Statuses = []string{StatusApplied, StatusInterviewed, StatusHired, StatusRejected}

// ApplicantRecord is one applicant as held by the records service. The ID is
// server-issued and immutable; the client never fabricates one.
type ApplicantRecord struct {
	ID                string     `json:"id"`
	FullName          string     `json:"fullName"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone,omitempty"`
	Position          string     `json:"position"`
	Company           string     `json:"company"`
	AnnualCTC         int64      `json:"annualCTC"`
	Location          string     `json:"location"`
	Status            string     `json:"status"`
	DateOfApplication time.Time  `json:"dateOfApplication"`
	InterviewDate     *time.Time `json:"interviewDate,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	ResumeFilename    string     `json:"resumeFilename,omitempty"`
}

// ApplicantFields is the mutable field set submitted on create/update.
// The resume file travels separately as a multipart part.
type ApplicantFields struct {
	FullName          string     `json:"fullName"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone,omitempty"`
	Position          string     `json:"position"`
	Company           string     `json:"company"`
	AnnualCTC         int64      `json:"annualCTC"`
	Location          string     `json:"location"`
	Status            string     `json:"status"`
	DateOfApplication time.Time  `json:"dateOfApplication"`
	InterviewDate     *time.Time `json:"interviewDate,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// ResumeUpload is an optional attachment for create/update.
type ResumeUpload struct {
	Filename string
	Content  []byte
}
