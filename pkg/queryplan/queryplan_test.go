package queryplan

import (
	"strings"
	"testing"

	"github.com/propplyai/propply-ai/pkg/dataset"
	"github.com/propplyai/propply-ai/pkg/model"
)

func TestBuildOrdersBINBeforeBBLBeforeBlockLot(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyDOBViolations)
	ids := model.PropertyIdentifiers{BIN: "1058037", BBL: "1016420029", Block: "1642", Lot: "29"}

	plan := Build(d, ids, Options{})
	if len(plan) != 3 {
		t.Fatalf("expected 3 attempts (BIN, BBL, BlockLot), got %d: %+v", len(plan), plan)
	}
	if plan[0].Strategy != StrategyBIN {
		t.Fatalf("expected first attempt BIN, got %s", plan[0].Strategy)
	}
	if plan[1].Strategy != StrategyBBL {
		t.Fatalf("expected second attempt BBL, got %s", plan[1].Strategy)
	}
	if plan[2].Strategy != StrategyBlockLot {
		t.Fatalf("expected third attempt BlockLot, got %s", plan[2].Strategy)
	}
}

func TestBuildHPDFallsBackToBlockLot(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyHPDViolations)
	ids := model.PropertyIdentifiers{BIN: "1058037", Block: "1642", Lot: "29"}

	plan := Build(d, ids, Options{})
	if len(plan) != 2 {
		t.Fatalf("expected BIN + BlockLot attempts, got %d: %+v", len(plan), plan)
	}
	if plan[0].Strategy != StrategyBIN || plan[1].Strategy != StrategyBlockLot {
		t.Fatalf("unexpected strategies: %+v", plan)
	}
	if !plan[1].UsedCoarseKey {
		t.Fatal("block/lot attempt must be flagged UsedCoarseKey")
	}
}

func TestBuildBoilerRequiresBIN(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyBoilerInspections)

	if plan := Build(d, model.PropertyIdentifiers{Block: "1642", Lot: "29"}, Options{}); plan != nil {
		t.Fatalf("expected nil plan without BIN, got %+v", plan)
	}

	plan := Build(d, model.PropertyIdentifiers{BIN: "1058037"}, Options{})
	if len(plan) != 1 || plan[0].Strategy != StrategyBIN {
		t.Fatalf("expected single BIN attempt, got %+v", plan)
	}
}

func TestBuildFireSafetyUsesAddressStrategy(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyFireSafetyInspections)
	ids := model.PropertyIdentifiers{Block: "1642", Lot: "29", Borough: model.BoroughManhattan, Address: "1662 Park Ave"}

	plan := Build(d, ids, Options{})
	if len(plan) != 2 {
		t.Fatalf("expected BlockLot + Address attempts, got %d: %+v", len(plan), plan)
	}
	if plan[1].Strategy != StrategyAddress {
		t.Fatalf("expected final attempt Address, got %s", plan[1].Strategy)
	}
	if !strings.Contains(plan[1].Where, "borough = '1'") {
		t.Fatalf("expected borough code 1 in predicate, got %q", plan[1].Where)
	}
	if plan[1].Limit != 100 {
		t.Fatalf("expected FDNY limit 100, got %d", plan[1].Limit)
	}
}

func TestBuildActivePredicateWrapsHPDAndDOB(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyHPDViolations)
	ids := model.PropertyIdentifiers{BIN: "1058037"}

	plan := Build(d, ids, Options{RestrictActive: true})
	if !strings.Contains(plan[0].Where, "violationstatus = 'Open'") {
		t.Fatalf("expected active predicate appended, got %q", plan[0].Where)
	}

	dob, _ := dataset.Lookup(dataset.KeyDOBViolations)
	dobPlan := Build(dob, ids, Options{RestrictActive: true})
	if !strings.Contains(dobPlan[0].Where, "violation_category LIKE '%ACTIVE%'") {
		t.Fatalf("expected DOB active predicate appended, got %q", dobPlan[0].Where)
	}
}

func TestBuildComplaints311UsesAddressOnlyStrategy(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyComplaints311)
	ids := model.PropertyIdentifiers{BIN: "1058037", Address: "1662 Park Ave"}

	plan := Build(d, ids, Options{})
	if len(plan) != 1 {
		t.Fatalf("expected a single address attempt, got %d: %+v", len(plan), plan)
	}
	if plan[0].Strategy != StrategyAddress {
		t.Fatalf("expected Address strategy, got %s", plan[0].Strategy)
	}
	if !plan[0].UsedCoarseKey {
		t.Fatal("address-only attempt must be flagged UsedCoarseKey")
	}
	if !strings.Contains(plan[0].Where, "incident_address LIKE '1662 %'") {
		t.Fatalf("expected house-number prefix predicate, got %q", plan[0].Where)
	}
}

func TestBuildComplaints311EmptyWithoutUsableAddress(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyComplaints311)
	if plan := Build(d, model.PropertyIdentifiers{Address: "1662"}, Options{}); plan != nil {
		t.Fatalf("expected nil plan for a single-word address, got %+v", plan)
	}
}

func TestBuildEmptyWithoutAnyKey(t *testing.T) {
	d, _ := dataset.Lookup(dataset.KeyDOBViolations)
	plan := Build(d, model.PropertyIdentifiers{}, Options{})
	if len(plan) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}
