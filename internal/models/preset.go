package models

// Company is a preset company name offered in the record form. The core
// treats the value as an opaque string.
type Company struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
}

// Position is a preset job position offered in the record form.
type Position struct {
	ID           string `json:"id"`
	PositionName string `json:"positionName"`
}
