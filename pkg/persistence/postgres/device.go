package postgres

import "github.com/propplyai/propply-ai/pkg/model"

// Device is the shared row shape for the equipment tables (elevator,
// boiler, electrical permit).
type Device struct {
	NYCPropertyID        string `db:"nyc_property_id"`
	DeviceNumber         string `db:"device_number"`
	DeviceType           string `db:"device_type"`
	DeviceStatus         string `db:"device_status"`
	LatestInspectionDate string `db:"latest_inspection_date"`
	TotalInspections     int    `db:"total_inspections"`
	DefectsExist         string `db:"defects_exist"`
	FilingStatus         string `db:"filing_status"`
}

// NewDevice builds the db row for a grouped DeviceRecord.
func NewDevice(propertyID string, d model.DeviceRecord) *Device {
	return &Device{
		NYCPropertyID:        propertyID,
		DeviceNumber:         d.DeviceID,
		DeviceType:           d.DeviceType,
		DeviceStatus:         d.DeviceStatus,
		LatestInspectionDate: d.LatestInspectionDate,
		TotalInspections:     d.TotalInspections,
		DefectsExist:         d.DefectsExist,
		FilingStatus:         d.FilingStatus,
	}
}
