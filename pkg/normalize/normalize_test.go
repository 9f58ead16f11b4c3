package normalize

import (
	"testing"

	"github.com/propplyai/propply-ai/pkg/model"
)

func TestCanonicalDate(t *testing.T) {
	cases := map[string]string{
		"2024-05-01":          "2024-05-01",
		"05/01/2024":          "2024-05-01",
		"05-01-2024":          "2024-05-01",
		"2024/05/01":          "2024-05-01",
		"":                    "",
		"nan":                 "",
		"NULL":                "",
		"invalid date":        "",
		"1899-12-31":          "",
		"not a date at all":   "",
	}
	for in, want := range cases {
		if got := CanonicalDate(in); got != want {
			t.Errorf("CanonicalDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalDateMatchesPattern(t *testing.T) {
	got := CanonicalDate("05/01/2024")
	if len(got) != 10 || got[4] != '-' || got[7] != '-' {
		t.Fatalf("date %q does not match YYYY-MM-DD", got)
	}
}

func TestRowNullCoercion(t *testing.T) {
	in := model.Row{"status": "nan", "description": "ok", "keep": "value"}
	out := Row(in)
	if _, ok := out["status"]; ok {
		t.Fatalf("expected null sentinel field dropped, got %+v", out)
	}
	if out["description"] != "ok" || out["keep"] != "value" {
		t.Fatalf("unexpected row contents: %+v", out)
	}
}

func TestRowIdempotent(t *testing.T) {
	in := model.Row{"issue_date": "05/01/2024", "other": "x"}
	once := Row(in)
	twice := Row(once)
	if once["issue_date"] != twice["issue_date"] || once["other"] != twice["other"] {
		t.Fatalf("normalize not idempotent: %+v vs %+v", once, twice)
	}
}

func TestNormalizeDOBAliases(t *testing.T) {
	row := model.Row{"issuedate": "2024-01-01", "violation_category": "ACTIVE"}
	NormalizeDOBAliases(row)
	if row["issue_date"] != "2024-01-01" {
		t.Fatalf("expected issue_date aliased, got %+v", row)
	}
	if row["status"] != string(model.StatusOpen) {
		t.Fatalf("expected derived OPEN status, got %+v", row)
	}
}

func TestSortByDateDescThenID(t *testing.T) {
	rows := []model.Row{
		{"id": "b", "date": "2022-01-01"},
		{"id": "a", "date": "2024-01-01"},
		{"id": "c", "date": ""},
	}
	SortByDateDescThenID(rows, "date", "id")
	order := []string{rows[0]["id"].(string), rows[1]["id"].(string), rows[2]["id"].(string)}
	want := []string{"a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("sort order = %v, want %v", order, want)
		}
	}
}
