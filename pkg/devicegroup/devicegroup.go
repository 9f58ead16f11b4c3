// Package devicegroup implements C7: collapsing per-inspection rows into
// per-device records with ordered inspection history (spec.md §4.7).
package devicegroup // import "github.com/propplyai/propply-ai/pkg/devicegroup"

import (
	"sort"

	"github.com/propplyai/propply-ai/pkg/model"
	"github.com/propplyai/propply-ai/pkg/normalize"
)

func stringField(row model.Row, field string) string {
	v, ok := row[field]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Group partitions rows by deviceIDField, drops rows with a missing/empty
// device id, and for each partition builds a DeviceRecord whose latest
// snapshot comes from the row with the maximum parsed dateField, and whose
// Inspections are sorted newest-first (unparseable dates sort last).
// Devices are returned ordered by LatestInspectionDate descending.
func Group(rows []model.Row, deviceIDField, dateField string) []model.DeviceRecord {
	order := make([]string, 0)
	partitions := make(map[string][]model.Row)

	for _, row := range rows {
		id := stringField(row, deviceIDField)
		if id == "" {
			continue
		}
		if _, seen := partitions[id]; !seen {
			order = append(order, id)
		}
		partitions[id] = append(partitions[id], row)
	}

	records := make([]model.DeviceRecord, 0, len(order))
	for _, id := range order {
		group := partitions[id]
		normalize.SortByDateDescThenID(group, dateField, deviceIDField)

		latest := group[0]
		record := model.DeviceRecord{
			DeviceID:         id,
			DeviceType:       firstNonEmpty(stringField(latest, "device_type"), "Unknown"),
			DeviceStatus:     firstNonEmpty(stringField(latest, "device_status"), "Unknown"),
			DefectsExist:     firstNonEmpty(stringField(latest, "defects_exist"), "No"),
			FilingStatus:     firstNonEmpty(stringField(latest, "filing_status"), "Unknown"),
			Inspections:      group,
			TotalInspections: len(group),
		}
		if parsed, ok := normalize.ParseDate(stringField(latest, dateField)); ok {
			record.LatestInspectionDate = parsed.Format("2006-01-02")
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		di, oki := normalize.ParseDate(records[i].LatestInspectionDate)
		dj, okj := normalize.ParseDate(records[j].LatestInspectionDate)
		if oki != okj {
			return oki
		}
		if oki && okj && !di.Equal(dj) {
			return di.After(dj)
		}
		return records[i].DeviceID < records[j].DeviceID
	})
	return records
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// TotalInspectionCount sums TotalInspections across records, used to verify
// the spec.md §4.7 invariant that no input row is lost or duplicated.
func TotalInspectionCount(records []model.DeviceRecord) int {
	total := 0
	for _, r := range records {
		total += r.TotalInspections
	}
	return total
}
