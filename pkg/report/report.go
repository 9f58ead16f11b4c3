// Package report implements C11: serializing a ComplianceRecord to a stable
// JSON document for external consumers (spec.md §4.11).
package report // import "github.com/propplyai/propply-ai/pkg/report"

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/propplyai/propply-ai/pkg/model"
)

// Marshal serializes record to indented JSON. Per-domain arrays are emitted
// verbatim; numeric scores are numbers, not strings; no field is dropped —
// explicit null is written where the Go zero value means "unknown" rather
// than "absent" (spec.md §4.11).
func Marshal(record model.ComplianceRecord) ([]byte, error) {
	return json.MarshalIndent(record, "", "  ")
}

// FileName returns the file-sink name spec.md §6 specifies: a single JSON
// document stamped with the UTC time the report was generated.
func FileName(generatedAt time.Time) string {
	return fmt.Sprintf("comprehensive_compliance_report_%s.json", generatedAt.UTC().Format("20060102T150405Z"))
}

// WriteFile marshals record and writes it under dir, returning the full
// path written to.
func WriteFile(dir string, record model.ComplianceRecord) (string, error) {
	body, err := Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshaling compliance record: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %v", err)
	}
	path := filepath.Join(dir, FileName(record.ProcessedAt))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("writing report file: %v", err)
	}
	return path, nil
}
