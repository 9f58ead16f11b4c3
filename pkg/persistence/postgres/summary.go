package postgres

import "github.com/propplyai/propply-ai/pkg/model"

// Summary is the row shape for nyc_compliance_summary.
type Summary struct {
	NYCPropertyID    string  `db:"nyc_property_id"`
	HPDScore         float64 `db:"hpd_score"`
	DOBScore         float64 `db:"dob_score"`
	ElevatorScore    float64 `db:"elevator_score"`
	ElectricalScore  float64 `db:"electrical_score"`
	OverallScore     float64 `db:"overall_score"`
	RiskLevel        string  `db:"risk_level"`
	HPDActive        int     `db:"hpd_active"`
	HPDTotal         int     `db:"hpd_total"`
	DOBActive        int     `db:"dob_active"`
	DOBTotal         int     `db:"dob_total"`
	ElevatorActive   int     `db:"elevator_active"`
	ElevatorTotal    int     `db:"elevator_total"`
	BoilerActive     int     `db:"boiler_active"`
	BoilerTotal      int     `db:"boiler_total"`
	ElectricalActive int     `db:"electrical_active"`
	ElectricalTotal  int     `db:"electrical_total"`
	DataSources      string  `db:"data_sources"`
}

// NewSummary builds the db row for one ComplianceRecord's scores and counts.
func NewSummary(propertyID string, record model.ComplianceRecord) *Summary {
	return &Summary{
		NYCPropertyID:    propertyID,
		HPDScore:         record.HPDScore,
		DOBScore:         record.DOBScore,
		ElevatorScore:    record.ElevatorScore,
		ElectricalScore:  record.ElectricalScore,
		OverallScore:     record.OverallScore,
		RiskLevel:        string(record.RiskLevel),
		HPDActive:        record.HPDViolations.Active,
		HPDTotal:         record.HPDViolations.Total,
		DOBActive:        record.DOBViolations.Active,
		DOBTotal:         record.DOBViolations.Total,
		ElevatorActive:   record.ElevatorDevices.Active,
		ElevatorTotal:    record.ElevatorDevices.Total,
		BoilerActive:     record.BoilerDevices.Active,
		BoilerTotal:      record.BoilerDevices.Total,
		ElectricalActive: record.ElectricalPermits.Active,
		ElectricalTotal:  record.ElectricalPermits.Total,
		DataSources:      record.DataSources,
	}
}
