// Package queryplan implements C4: for a dataset and a set of property
// identifiers, build an ordered list of search attempts (spec.md §4.4).
package queryplan // import "github.com/propplyai/propply-ai/pkg/queryplan"

import (
	"fmt"
	"strings"

	"github.com/propplyai/propply-ai/pkg/dataset"
	"github.com/propplyai/propply-ai/pkg/model"
)

// StrategyName identifies which key an Attempt used, for provenance/logging.
type StrategyName string

const (
	StrategyBIN      StrategyName = "BIN"
	StrategyBBL      StrategyName = "BBL"
	StrategyBlockLot StrategyName = "BlockLot"
	StrategyAddress  StrategyName = "Address"
)

// Attempt is one candidate query within a dataset's search plan.
type Attempt struct {
	Strategy StrategyName
	Where    string
	Select   string
	OrderBy  string
	Limit    int
	// UsedCoarseKey marks attempts built from block/lot, FDNY-style
	// borough/block/lot, or address text, so the search engine knows to apply
	// the coarse-key post-filter (spec.md §4.5.c) when a BIN is known.
	UsedCoarseKey bool
}

// Plan is the ordered list of attempts for one dataset.
type Plan []Attempt

// Options controls plan construction.
type Options struct {
	// RestrictActive wraps each attempt's predicate with the dataset's
	// active_predicate (spec.md §4.4: HPD/DOB violations domains).
	RestrictActive bool
}

// Build constructs the ordered attempt list for d given ids, per the rules
// in spec.md §4.4. The boiler dataset (BIN-only) returns an empty plan when
// no BIN is known.
func Build(d dataset.Descriptor, ids model.PropertyIdentifiers, opts Options) Plan {
	// Boiler-style datasets expose only BIN: no other key is valid.
	boilerOnly := d.SupportsKey(dataset.SearchKeyBIN) && !d.SupportsKey(dataset.SearchKeyBBL) &&
		!d.SupportsKey(dataset.SearchKeyBlockLot) && !isFDNYStyle(d)
	if boilerOnly {
		if !ids.HasBIN() {
			return nil
		}
		return Plan{binAttempt(d, ids, opts)}
	}

	var plan Plan
	if d.SupportsKey(dataset.SearchKeyBIN) && ids.HasBIN() {
		plan = append(plan, binAttempt(d, ids, opts))
	}
	if d.SupportsKey(dataset.SearchKeyBBL) && ids.HasBBL() {
		plan = append(plan, bblAttempt(d, ids, opts))
	}
	if d.SupportsKey(dataset.SearchKeyBlockLot) && ids.HasBlockLot() {
		plan = append(plan, blockLotAttempt(d, ids, opts))
	}
	if isFDNYStyle(d) {
		if a, ok := fdnyAttempt(d, ids, opts); ok {
			plan = append(plan, a)
		}
	} else if isAddressOnly(d) {
		if a, ok := addressOnlyAttempt(d, ids, opts); ok {
			plan = append(plan, a)
		}
	}
	return plan
}

// isAddressOnly reports whether d has no BIN, BBL, or block/lot column at
// all (the 311 complaints family: street-address text search is the only
// way in).
func isAddressOnly(d dataset.Descriptor) bool {
	return !d.SupportsKey(dataset.SearchKeyBIN) && !d.SupportsKey(dataset.SearchKeyBBL) &&
		!d.SupportsKey(dataset.SearchKeyBlockLot) && d.SupportsKey(dataset.SearchKeyAddress)
}

// isFDNYStyle reports whether d has no BIN column (FDNY family: block/lot +
// address, per spec.md §4.4 rule 4).
func isFDNYStyle(d dataset.Descriptor) bool {
	return !d.SupportsKey(dataset.SearchKeyBIN) && d.SupportsKey(dataset.SearchKeyBlockLot)
}

func wrapActive(d dataset.Descriptor, predicate string, opts Options) string {
	if opts.RestrictActive && d.ActivePredicate != "" {
		return fmt.Sprintf("(%s) AND %s", predicate, d.ActivePredicate)
	}
	return predicate
}

func limitFor(d dataset.Descriptor) int {
	if d.Quirks.MaxPageSize > 0 {
		return d.Quirks.MaxPageSize
	}
	if d.DefaultLimit > 0 {
		return d.DefaultLimit
	}
	return 500
}

func binAttempt(d dataset.Descriptor, ids model.PropertyIdentifiers, opts Options) Attempt {
	col := d.SearchFields[dataset.SearchKeyBIN]
	predicate := fmt.Sprintf("%s = '%s'", col, ids.BIN)
	return Attempt{
		Strategy: StrategyBIN,
		Where:    wrapActive(d, predicate, opts),
		Select:   d.SelectColumns,
		OrderBy:  d.OrderBy,
		Limit:    limitFor(d),
	}
}

func bblAttempt(d dataset.Descriptor, ids model.PropertyIdentifiers, opts Options) Attempt {
	col := d.SearchFields[dataset.SearchKeyBBL]
	predicate := fmt.Sprintf("%s = '%s'", col, ids.BBL)
	return Attempt{
		Strategy: StrategyBBL,
		Where:    wrapActive(d, predicate, opts),
		Select:   d.SelectColumns,
		OrderBy:  d.OrderBy,
		Limit:    limitFor(d),
	}
}

func blockLotAttempt(d dataset.Descriptor, ids model.PropertyIdentifiers, opts Options) Attempt {
	predicate := fmt.Sprintf("%s = '%s' AND %s = '%s'", d.BlockColumn, ids.Block, d.LotColumn, ids.Lot)
	return Attempt{
		Strategy:      StrategyBlockLot,
		Where:         wrapActive(d, predicate, opts),
		Select:        d.SelectColumns,
		OrderBy:       d.OrderBy,
		Limit:         limitFor(d),
		UsedCoarseKey: true,
	}
}

func fdnyAttempt(d dataset.Descriptor, ids model.PropertyIdentifiers, opts Options) (Attempt, bool) {
	if !ids.HasBlockLot() || ids.Borough == "" {
		return Attempt{}, false
	}
	boroughCode, ok := model.CodeForBorough(ids.Borough)
	if !ok {
		boroughCode = string(ids.Borough)
	}
	predicate := fmt.Sprintf("borough = '%s' AND %s = '%s' AND %s = '%s'",
		boroughCode, d.BlockColumn, ids.BlockPadded5(), d.LotColumn, ids.LotPadded4())
	if ids.Address != "" {
		rest := addressRemainder(ids.Address)
		if rest != "" {
			predicate += fmt.Sprintf(" AND house_number = '%s' AND UPPER(street) LIKE '%%%s%%'", houseNumber(ids.Address), strings.ToUpper(rest))
		}
	}
	return Attempt{
		Strategy:      StrategyAddress,
		Where:         wrapActive(d, predicate, opts),
		Select:        d.SelectColumns,
		OrderBy:       d.OrderBy,
		Limit:         limitFor(d),
		UsedCoarseKey: true,
	}, true
}

// addressOnlyAttempt builds a house-number/street-name match against an
// address-only dataset's single text column (spec.md §4.4 rule 4's
// address fallback, applied without a borough/block/lot prefix since none
// exists on this dataset family).
func addressOnlyAttempt(d dataset.Descriptor, ids model.PropertyIdentifiers, opts Options) (Attempt, bool) {
	rest := addressRemainder(ids.Address)
	if ids.Address == "" || rest == "" {
		return Attempt{}, false
	}
	col := d.SearchFields[dataset.SearchKeyAddress]
	predicate := fmt.Sprintf("%s LIKE '%s %%' AND UPPER(%s) LIKE '%%%s%%'",
		col, houseNumber(ids.Address), col, strings.ToUpper(rest))
	return Attempt{
		Strategy:      StrategyAddress,
		Where:         wrapActive(d, predicate, opts),
		Select:        d.SelectColumns,
		OrderBy:       d.OrderBy,
		Limit:         limitFor(d),
		UsedCoarseKey: true,
	}, true
}

func houseNumber(address string) string {
	parts := strings.Fields(address)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func addressRemainder(address string) string {
	parts := strings.Fields(address)
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}
