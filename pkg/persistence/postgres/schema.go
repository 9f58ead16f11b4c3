package postgres // import "github.com/propplyai/propply-ai/pkg/persistence/postgres"

// PropertiesSchema returns the query to create the nyc_properties table.
func PropertiesSchema() string {
	return `
		CREATE TABLE IF NOT EXISTS nyc_properties(
			property_id TEXT PRIMARY KEY,
			address TEXT,
			bin TEXT,
			bbl TEXT,
			borough TEXT,
			block TEXT,
			lot TEXT,
			zip_code TEXT,
			first_synced_at TIMESTAMPTZ,
			last_synced_at TIMESTAMPTZ
		);
		CREATE UNIQUE INDEX IF NOT EXISTS nyc_properties_bin_idx ON nyc_properties(bin) WHERE bin <> '';
	`
}

// ViolationsSchemaString returns the query to create a violations table
// (shared shape for both HPD and DOB violations, per spec.md §4.10).
func ViolationsSchemaString(tableName string) string {
	return `
		CREATE TABLE IF NOT EXISTS ` + tableName + `(
			violation_id TEXT PRIMARY KEY,
			nyc_property_id TEXT NOT NULL REFERENCES nyc_properties(property_id),
			bin TEXT,
			bbl TEXT,
			issue_date TEXT,
			inspection_date TEXT,
			disposition_date TEXT,
			status TEXT,
			category TEXT,
			description TEXT
		);
	`
}

// DevicesSchemaString returns the query to create an equipment table
// (shared shape for elevator, boiler, and electrical-permit devices).
func DevicesSchemaString(tableName string) string {
	return `
		CREATE TABLE IF NOT EXISTS ` + tableName + `(
			nyc_property_id TEXT NOT NULL REFERENCES nyc_properties(property_id),
			device_number TEXT NOT NULL,
			device_type TEXT,
			device_status TEXT,
			latest_inspection_date TEXT,
			total_inspections INT,
			defects_exist TEXT,
			filing_status TEXT,
			updated_at TIMESTAMPTZ,
			PRIMARY KEY (nyc_property_id, device_number)
		);
	`
}

// ComplaintsSchema returns the query to create the nyc_311_complaints table.
func ComplaintsSchema() string {
	return `
		CREATE TABLE IF NOT EXISTS nyc_311_complaints(
			unique_key TEXT PRIMARY KEY,
			nyc_property_id TEXT NOT NULL REFERENCES nyc_properties(property_id),
			created_date TEXT,
			complaint_type TEXT,
			status TEXT,
			address TEXT
		);
	`
}

// SummarySchema returns the query to create the nyc_compliance_summary table.
func SummarySchema() string {
	return `
		CREATE TABLE IF NOT EXISTS nyc_compliance_summary(
			nyc_property_id TEXT PRIMARY KEY,
			hpd_score DOUBLE PRECISION,
			dob_score DOUBLE PRECISION,
			elevator_score DOUBLE PRECISION,
			electrical_score DOUBLE PRECISION,
			overall_score DOUBLE PRECISION,
			risk_level TEXT,
			hpd_active INT,
			hpd_total INT,
			dob_active INT,
			dob_total INT,
			elevator_active INT,
			elevator_total INT,
			boiler_active INT,
			boiler_total INT,
			electrical_active INT,
			electrical_total INT,
			data_sources TEXT,
			last_calculated TIMESTAMPTZ
		);
	`
}

const (
	// HPDViolationsTable is the nyc_hpd_violations table name.
	HPDViolationsTable = "nyc_hpd_violations"
	// DOBViolationsTable is the nyc_dob_violations table name.
	DOBViolationsTable = "nyc_dob_violations"
	// ElevatorDevicesTable is the nyc_elevator_inspections table name.
	ElevatorDevicesTable = "nyc_elevator_inspections"
	// BoilerDevicesTable is the nyc_boiler_inspections table name.
	BoilerDevicesTable = "nyc_boiler_inspections"
	// ElectricalPermitsTable holds electrical-permit device rows; it reuses
	// the equipment table shape since a filing number behaves like a device.
	ElectricalPermitsTable = "nyc_electrical_permits"
)
