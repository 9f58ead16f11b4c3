package postgres

import "github.com/propplyai/propply-ai/pkg/model"

// Complaint is the row shape for nyc_311_complaints.
type Complaint struct {
	UniqueKey     string `db:"unique_key"`
	NYCPropertyID string `db:"nyc_property_id"`
	CreatedDate   string `db:"created_date"`
	ComplaintType string `db:"complaint_type"`
	Status        string `db:"status"`
	Address       string `db:"address"`
}

// NewComplaint builds the db row for a normalized ComplaintRecord.
func NewComplaint(propertyID string, c model.ComplaintRecord) *Complaint {
	return &Complaint{
		UniqueKey:     c.UniqueKey,
		NYCPropertyID: propertyID,
		CreatedDate:   c.CreatedDate,
		ComplaintType: c.ComplaintType,
		Status:        c.Status,
		Address:       c.Address,
	}
}
