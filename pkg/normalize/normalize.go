// Package normalize implements C6: null/NaN coercion, date canonicalization,
// field aliasing, and stable sorting of dataset rows. Normalization is pure:
// no network calls, no randomness (spec.md §4.6).
package normalize // import "github.com/propplyai/propply-ai/pkg/normalize"

import (
	"sort"
	"strings"
	"time"

	"github.com/propplyai/propply-ai/pkg/model"
)

var nullSentinels = map[string]bool{
	"":             true,
	"nan":          true,
	"null":         true,
	"invalid date": true,
	"n/a":          true,
}

var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02T15:04:05.000",
}

const minValidYear = 1900

// IsNullSentinel reports whether s is one of the recognized null placeholders.
func IsNullSentinel(s string) bool {
	return nullSentinels[strings.ToLower(strings.TrimSpace(s))]
}

// looksLikeDateField reports whether a column name should be treated as a date.
func looksLikeDateField(field string) bool {
	lower := strings.ToLower(field)
	if strings.Contains(lower, "date") {
		return true
	}
	switch lower {
	case "inspectiondate", "issuedate", "created", "lastupdated":
		return true
	}
	return false
}

// CanonicalDate parses raw using the formats spec.md §4.6 allows and returns
// it as YYYY-MM-DD, or "" if raw is null/unparseable/pre-1900.
func CanonicalDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if IsNullSentinel(raw) {
		return ""
	}
	t, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	if t.Year() < minValidYear {
		return ""
	}
	return t.Format("2006-01-02")
}

// ParseDate tries every format spec.md §4.6 allows, returning the first match.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	candidate := raw
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, true
		}
	}
	if len(candidate) >= 10 {
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, candidate[:10]); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Row returns a normalized copy of one dataset row (the input is left
// unchanged): null sentinels become absent keys, and any field whose name
// looks like a date is canonicalized.
func Row(row model.Row) model.Row {
	out := make(model.Row, len(row))
	for k, v := range row {
		s, isString := v.(string)
		if isString && IsNullSentinel(s) {
			continue
		}
		if isString && looksLikeDateField(k) {
			canon := CanonicalDate(s)
			if canon == "" {
				continue
			}
			out[k] = canon
			continue
		}
		out[k] = v
	}
	return out
}

// Rows normalizes every row in rows. Normalization is idempotent:
// Rows(Rows(x)) == Rows(x).
func Rows(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		out[i] = Row(r)
	}
	return out
}

func stringField(row model.Row, field string) string {
	v, ok := row[field]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// NormalizeDOBAliases ensures both "issue_date"/"issuedate" are present
// (picking whichever the source provided) and that "status" exists,
// deriving it from violation_category when absent (spec.md §4.6).
func NormalizeDOBAliases(row model.Row) model.Row {
	issue := stringField(row, "issue_date")
	if issue == "" {
		issue = stringField(row, "issuedate")
	}
	if issue != "" {
		row["issue_date"] = issue
		row["issuedate"] = issue
	}
	if stringField(row, "status") == "" {
		category := strings.ToUpper(stringField(row, "violation_category"))
		switch {
		case strings.Contains(category, "ACTIVE"):
			row["status"] = string(model.StatusOpen)
		case strings.Contains(category, "RESOLVED"), strings.Contains(category, "CLOSED"), strings.Contains(category, "DISMISSED"):
			row["status"] = string(model.StatusResolved)
		}
	}
	return row
}

// SortByDateDescThenID sorts rows by dateField descending, falling back to
// idField ascending as a tiebreaker (spec.md §4.6). Rows with an
// unparseable/missing date sort last.
func SortByDateDescThenID(rows []model.Row, dateField, idField string) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, oki := ParseDate(stringField(rows[i], dateField))
		tj, okj := ParseDate(stringField(rows[j], dateField))
		if oki != okj {
			return oki
		}
		if oki && okj && !ti.Equal(tj) {
			return ti.After(tj)
		}
		return stringField(rows[i], idField) < stringField(rows[j], idField)
	})
}
