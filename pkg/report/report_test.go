package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/propplyai/propply-ai/pkg/model"
)

func TestMarshalEmitsNumericScoresAndStableKeys(t *testing.T) {
	record := model.ComplianceRecord{
		Address:      "1662 Park Ave",
		BIN:          "1058037",
		OverallScore: 92.5,
		RiskLevel:    model.RiskLow,
		ProcessedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		DataSources:  "hpd_violations:BIN",
	}

	body, err := Marshal(record)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	score, ok := decoded["overall_compliance_score"].(float64)
	if !ok || score != 92.5 {
		t.Fatalf("expected numeric overall_compliance_score 92.5, got %v (%T)", decoded["overall_compliance_score"], decoded["overall_compliance_score"])
	}
	if decoded["bin"] != "1058037" {
		t.Fatalf("expected bin field preserved, got %v", decoded["bin"])
	}
}

func TestFileNameIsUTCStamped(t *testing.T) {
	got := FileName(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	want := "comprehensive_compliance_report_20260102T030405Z.json"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriteFileWritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	record := model.ComplianceRecord{
		Address:     "1662 Park Ave",
		ProcessedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	path, err := WriteFile(dir, record)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected file under %q, got %q", dir, path)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.ComplianceRecord
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Address != record.Address {
		t.Fatalf("round-tripped address mismatch: %q", decoded.Address)
	}
}
