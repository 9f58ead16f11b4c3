package postgres

import "github.com/propplyai/propply-ai/pkg/model"

// Violation is the shared row shape for nyc_hpd_violations and
// nyc_dob_violations.
type Violation struct {
	ViolationID     string `db:"violation_id"`
	NYCPropertyID   string `db:"nyc_property_id"`
	BIN             string `db:"bin"`
	BBL             string `db:"bbl"`
	IssueDate       string `db:"issue_date"`
	InspectionDate  string `db:"inspection_date"`
	DispositionDate string `db:"disposition_date"`
	Status          string `db:"status"`
	Category        string `db:"category"`
	Description     string `db:"description"`
}

// NewViolation builds the db row for a normalized ViolationRecord.
func NewViolation(propertyID string, v model.ViolationRecord) *Violation {
	return &Violation{
		ViolationID:     v.ViolationID,
		NYCPropertyID:   propertyID,
		BIN:             v.BIN,
		BBL:             v.BBL,
		IssueDate:       v.IssueDate,
		InspectionDate:  v.InspectionDate,
		DispositionDate: v.DispositionDate,
		Status:          string(v.Status),
		Category:        v.Category,
		Description:     v.Description,
	}
}
