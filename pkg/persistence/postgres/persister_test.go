package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/propplyai/propply-ai/pkg/model"
)

func newMockPersister(t *testing.T) (*Persister, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	db := sqlx.NewDb(mockDB, "sqlmock")
	return &Persister{db: db}, mock, func() { _ = mockDB.Close() }
}

func sampleRecord() model.ComplianceRecord {
	return model.ComplianceRecord{
		Address: "1662 Park Ave",
		BIN:     "1058037",
		BBL:     "1016420029",
		Borough: model.BoroughManhattan,
		HPDViolationRecords: []model.ViolationRecord{
			{ViolationID: "V1", Source: model.SourceHPD, Status: model.StatusOpen},
		},
		ElevatorDeviceRecords: []model.DeviceRecord{
			{DeviceID: "E1", DeviceStatus: "Active", TotalInspections: 2},
		},
		ComplaintRecords: []model.ComplaintRecord{
			{UniqueKey: "C1", ComplaintType: "HEAT/HOT WATER"},
		},
		HPDScore:     85,
		DOBScore:     100,
		OverallScore: 92,
		RiskLevel:    model.RiskLow,
		DataSources:  "hpd_violations:BIN",
	}
}

func TestPersistRecordWritesInOrder(t *testing.T) {
	p, mock, closeDB := newMockPersister(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO nyc_properties").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO " + HPDViolationsTable).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO " + ElevatorDevicesTable).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO nyc_311_complaints").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO nyc_compliance_summary").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.PersistRecord(context.Background(), sampleRecord()); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPersistRecordPropertyIDPrefersBIN(t *testing.T) {
	record := sampleRecord()
	row := NewProperty(record)
	if row.PropertyID != "bin:1058037" {
		t.Fatalf("expected bin-based property id, got %q", row.PropertyID)
	}
}

func TestListPropertiesReturnsRows(t *testing.T) {
	p, mock, closeDB := newMockPersister(t)
	defer closeDB()

	cols := []string{"property_id", "address", "bin", "bbl", "borough", "block", "lot", "zip_code"}
	mock.ExpectQuery("SELECT property_id, address, bin, bbl, borough, block, lot, zip_code FROM nyc_properties").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("bin:1058037", "1662 Park Ave", "1058037", "1016420029", "Manhattan", "1642", "29", "10035"))

	rows, err := p.ListProperties(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].PropertyID != "bin:1058037" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestPersistRecordFailurePropagates(t *testing.T) {
	p, mock, closeDB := newMockPersister(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO nyc_properties").WillReturnError(sqlmock.ErrCancelled)

	if err := p.PersistRecord(context.Background(), sampleRecord()); err == nil {
		t.Fatal("expected error from property upsert to propagate")
	}
}
