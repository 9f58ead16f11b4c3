// Package postgres implements the C10 persistence layer against a Postgres
// database via sqlx and lib/pq, following the schema-string/db-tagged-struct
// split this codebase uses elsewhere for relational mapping.
package postgres // import "github.com/propplyai/propply-ai/pkg/persistence/postgres"

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// driver for postgresql
	_ "github.com/lib/pq"

	"github.com/propplyai/propply-ai/pkg/model"
)

const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = time.Hour
)

// Persister holds the DB connection and implements persistence.Store.
type Persister struct {
	db *sqlx.DB
}

// NewPersister connects to connString (a standard Postgres DSN) and ensures
// every table this package owns exists.
func NewPersister(ctx context.Context, connString string) (*Persister, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %v", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	p := &Persister{db: db}
	if err := p.createTables(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Persister) createTables(ctx context.Context) error {
	schemas := []string{
		PropertiesSchema(),
		ViolationsSchemaString(HPDViolationsTable),
		ViolationsSchemaString(DOBViolationsTable),
		DevicesSchemaString(ElevatorDevicesTable),
		DevicesSchemaString(BoilerDevicesTable),
		DevicesSchemaString(ElectricalPermitsTable),
		ComplaintsSchema(),
		SummarySchema(),
	}
	for _, schema := range schemas {
		if _, err := p.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("creating schema: %v", err)
		}
	}
	return nil
}

// ListProperties returns every row currently in nyc_properties, for callers
// (the scheduled re-sync entrypoint) that need to re-run the orchestrator
// against properties already on file rather than a fresh address.
func (p *Persister) ListProperties(ctx context.Context) ([]Property, error) {
	var rows []Property
	const query = `SELECT property_id, address, bin, bbl, borough, block, lot, zip_code FROM nyc_properties;`
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing properties: %v", err)
	}
	return rows, nil
}

// Close releases the underlying connection pool.
func (p *Persister) Close() error {
	return p.db.Close()
}

// PersistRecord writes one ComplianceRecord following the order spec.md §5
// requires: property, then child tables in any order, then the summary row
// as the commit point.
func (p *Persister) PersistRecord(ctx context.Context, record model.ComplianceRecord) error {
	propertyID, err := p.upsertProperty(ctx, record)
	if err != nil {
		return fmt.Errorf("upserting property: %v", err)
	}

	for _, v := range record.HPDViolationRecords {
		if err := p.insertViolation(ctx, HPDViolationsTable, propertyID, v); err != nil {
			return fmt.Errorf("inserting hpd violation %s: %v", v.ViolationID, err)
		}
	}
	for _, v := range record.DOBViolationRecords {
		if err := p.insertViolation(ctx, DOBViolationsTable, propertyID, v); err != nil {
			return fmt.Errorf("inserting dob violation %s: %v", v.ViolationID, err)
		}
	}
	for _, d := range record.ElevatorDeviceRecords {
		if err := p.upsertDevice(ctx, ElevatorDevicesTable, propertyID, d); err != nil {
			return fmt.Errorf("upserting elevator device %s: %v", d.DeviceID, err)
		}
	}
	for _, d := range record.BoilerDeviceRecords {
		if err := p.upsertDevice(ctx, BoilerDevicesTable, propertyID, d); err != nil {
			return fmt.Errorf("upserting boiler device %s: %v", d.DeviceID, err)
		}
	}
	for _, d := range record.ElectricalPermitRecords {
		if err := p.upsertDevice(ctx, ElectricalPermitsTable, propertyID, d); err != nil {
			return fmt.Errorf("upserting electrical permit %s: %v", d.DeviceID, err)
		}
	}
	for _, c := range record.ComplaintRecords {
		if err := p.insertComplaint(ctx, propertyID, c); err != nil {
			return fmt.Errorf("inserting complaint %s: %v", c.UniqueKey, err)
		}
	}

	if err := p.upsertSummary(ctx, propertyID, record); err != nil {
		return fmt.Errorf("upserting summary: %v", err)
	}
	return nil
}

// upsertProperty implements the nyc_properties contract: insert if absent,
// else return the existing row, updating only last_synced_at.
func (p *Persister) upsertProperty(ctx context.Context, record model.ComplianceRecord) (string, error) {
	row := NewProperty(record)
	now := time.Now().UTC()

	const query = `
		INSERT INTO nyc_properties
			(property_id, address, bin, bbl, borough, block, lot, zip_code, first_synced_at, last_synced_at)
		VALUES
			(:property_id, :address, :bin, :bbl, :borough, :block, :lot, :zip_code, :first_synced_at, :last_synced_at)
		ON CONFLICT (property_id) DO UPDATE SET last_synced_at = EXCLUDED.last_synced_at;
	`
	params := map[string]interface{}{
		"property_id":      row.PropertyID,
		"address":          row.Address,
		"bin":              row.BIN,
		"bbl":              row.BBL,
		"borough":          row.Borough,
		"block":            row.Block,
		"lot":              row.Lot,
		"zip_code":         row.ZIPCode,
		"first_synced_at":  now,
		"last_synced_at":   now,
	}
	if _, err := p.db.NamedExecContext(ctx, query, params); err != nil {
		return "", err
	}
	return row.PropertyID, nil
}

// insertViolation implements the violation-table contract: unique key
// (violation_id); on conflict, skip — historical violations are never
// updated.
func (p *Persister) insertViolation(ctx context.Context, table, propertyID string, v model.ViolationRecord) error {
	row := NewViolation(propertyID, v)
	query := fmt.Sprintf(`
		INSERT INTO %s
			(violation_id, nyc_property_id, bin, bbl, issue_date, inspection_date, disposition_date, status, category, description)
		VALUES
			(:violation_id, :nyc_property_id, :bin, :bbl, :issue_date, :inspection_date, :disposition_date, :status, :category, :description)
		ON CONFLICT (violation_id) DO NOTHING;
	`, table)
	_, err := p.db.NamedExecContext(ctx, query, row)
	return err
}

// upsertDevice implements the equipment-table contract: unique key
// (nyc_property_id, device_number); on conflict, update the latest-snapshot
// fields and updated_at.
func (p *Persister) upsertDevice(ctx context.Context, table, propertyID string, d model.DeviceRecord) error {
	row := NewDevice(propertyID, d)
	query := fmt.Sprintf(`
		INSERT INTO %s
			(nyc_property_id, device_number, device_type, device_status, latest_inspection_date, total_inspections, defects_exist, filing_status, updated_at)
		VALUES
			(:nyc_property_id, :device_number, :device_type, :device_status, :latest_inspection_date, :total_inspections, :defects_exist, :filing_status, :updated_at)
		ON CONFLICT (nyc_property_id, device_number) DO UPDATE SET
			device_type = EXCLUDED.device_type,
			device_status = EXCLUDED.device_status,
			latest_inspection_date = EXCLUDED.latest_inspection_date,
			total_inspections = EXCLUDED.total_inspections,
			defects_exist = EXCLUDED.defects_exist,
			filing_status = EXCLUDED.filing_status,
			updated_at = EXCLUDED.updated_at;
	`, table)
	params := map[string]interface{}{
		"nyc_property_id":        row.NYCPropertyID,
		"device_number":          row.DeviceNumber,
		"device_type":            row.DeviceType,
		"device_status":          row.DeviceStatus,
		"latest_inspection_date": row.LatestInspectionDate,
		"total_inspections":      row.TotalInspections,
		"defects_exist":          row.DefectsExist,
		"filing_status":          row.FilingStatus,
		"updated_at":             time.Now().UTC(),
	}
	_, err := p.db.NamedExecContext(ctx, query, params)
	return err
}

// insertComplaint implements the 311-complaint contract: unique key
// (unique_key); on conflict, skip.
func (p *Persister) insertComplaint(ctx context.Context, propertyID string, c model.ComplaintRecord) error {
	row := NewComplaint(propertyID, c)
	const query = `
		INSERT INTO nyc_311_complaints
			(unique_key, nyc_property_id, created_date, complaint_type, status, address)
		VALUES
			(:unique_key, :nyc_property_id, :created_date, :complaint_type, :status, :address)
		ON CONFLICT (unique_key) DO NOTHING;
	`
	_, err := p.db.NamedExecContext(ctx, query, row)
	return err
}

// upsertSummary implements the nyc_compliance_summary contract: unique key
// (nyc_property_id); on conflict, replace all score/count fields and
// last_calculated. This is the record's commit point.
func (p *Persister) upsertSummary(ctx context.Context, propertyID string, record model.ComplianceRecord) error {
	row := NewSummary(propertyID, record)
	const query = `
		INSERT INTO nyc_compliance_summary
			(nyc_property_id, hpd_score, dob_score, elevator_score, electrical_score, overall_score, risk_level,
			 hpd_active, hpd_total, dob_active, dob_total, elevator_active, elevator_total, boiler_active, boiler_total,
			 electrical_active, electrical_total, data_sources, last_calculated)
		VALUES
			(:nyc_property_id, :hpd_score, :dob_score, :elevator_score, :electrical_score, :overall_score, :risk_level,
			 :hpd_active, :hpd_total, :dob_active, :dob_total, :elevator_active, :elevator_total, :boiler_active, :boiler_total,
			 :electrical_active, :electrical_total, :data_sources, :last_calculated)
		ON CONFLICT (nyc_property_id) DO UPDATE SET
			hpd_score = EXCLUDED.hpd_score,
			dob_score = EXCLUDED.dob_score,
			elevator_score = EXCLUDED.elevator_score,
			electrical_score = EXCLUDED.electrical_score,
			overall_score = EXCLUDED.overall_score,
			risk_level = EXCLUDED.risk_level,
			hpd_active = EXCLUDED.hpd_active,
			hpd_total = EXCLUDED.hpd_total,
			dob_active = EXCLUDED.dob_active,
			dob_total = EXCLUDED.dob_total,
			elevator_active = EXCLUDED.elevator_active,
			elevator_total = EXCLUDED.elevator_total,
			boiler_active = EXCLUDED.boiler_active,
			boiler_total = EXCLUDED.boiler_total,
			electrical_active = EXCLUDED.electrical_active,
			electrical_total = EXCLUDED.electrical_total,
			data_sources = EXCLUDED.data_sources,
			last_calculated = EXCLUDED.last_calculated;
	`
	params := structToParams(row)
	params["last_calculated"] = time.Now().UTC()
	_, err := p.db.NamedExecContext(ctx, query, params)
	return err
}

func structToParams(s *Summary) map[string]interface{} {
	return map[string]interface{}{
		"nyc_property_id":   s.NYCPropertyID,
		"hpd_score":         s.HPDScore,
		"dob_score":         s.DOBScore,
		"elevator_score":    s.ElevatorScore,
		"electrical_score":  s.ElectricalScore,
		"overall_score":     s.OverallScore,
		"risk_level":        s.RiskLevel,
		"hpd_active":        s.HPDActive,
		"hpd_total":         s.HPDTotal,
		"dob_active":        s.DOBActive,
		"dob_total":         s.DOBTotal,
		"elevator_active":   s.ElevatorActive,
		"elevator_total":    s.ElevatorTotal,
		"boiler_active":     s.BoilerActive,
		"boiler_total":      s.BoilerTotal,
		"electrical_active": s.ElectricalActive,
		"electrical_total":  s.ElectricalTotal,
		"data_sources":      s.DataSources,
	}
}
