package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Borough is one of NYC's five boroughs, keyed by the digit code used in BBLs.
type Borough string

const (
	BoroughManhattan     Borough = "Manhattan"
	BoroughBronx         Borough = "Bronx"
	BoroughBrooklyn      Borough = "Brooklyn"
	BoroughQueens        Borough = "Queens"
	BoroughStatenIsland  Borough = "Staten Island"
)

// boroughCodes maps the single-digit BBL borough code to its name, and back.
var boroughCodes = map[string]Borough{
	"1": BoroughManhattan,
	"2": BoroughBronx,
	"3": BoroughBrooklyn,
	"4": BoroughQueens,
	"5": BoroughStatenIsland,
}

var boroughToCode = func() map[Borough]string {
	m := make(map[Borough]string, len(boroughCodes))
	for code, name := range boroughCodes {
		m[name] = code
	}
	return m
}()

// BoroughFromCode resolves a single-digit BBL borough code to its Borough name.
func BoroughFromCode(code string) (Borough, bool) {
	b, ok := boroughCodes[code]
	return b, ok
}

// CodeForBorough returns the single-digit BBL borough code for a Borough name.
func CodeForBorough(b Borough) (string, bool) {
	code, ok := boroughToCode[b]
	return code, ok
}

// PropertyIdentifiers are the canonical keys for one building, resolved once
// per orchestrator run and never mutated afterward.
type PropertyIdentifiers struct {
	Address string  `json:"address"`
	BIN     string  `json:"bin,omitempty"`
	BBL     string  `json:"bbl,omitempty"`
	Borough Borough `json:"borough,omitempty"`
	Block   string  `json:"block,omitempty"`
	Lot     string  `json:"lot,omitempty"`
	ZIPCode string  `json:"zip_code,omitempty"`
}

// HasBIN reports whether a BIN is known.
func (p PropertyIdentifiers) HasBIN() bool { return p.BIN != "" }

// HasBBL reports whether a BBL is known.
func (p PropertyIdentifiers) HasBBL() bool { return p.BBL != "" }

// HasBlockLot reports whether both block and lot are known.
func (p PropertyIdentifiers) HasBlockLot() bool { return p.Block != "" && p.Lot != "" }

// BlockPadded5 zero-pads Block to 5 digits, as used inside a BBL.
func (p PropertyIdentifiers) BlockPadded5() string { return ZeroPad(p.Block, 5) }

// LotPadded4 zero-pads Lot to 4 digits, as used inside a BBL.
func (p PropertyIdentifiers) LotPadded4() string { return ZeroPad(p.Lot, 4) }

// ZeroPad left-pads digits with '0' to the given width, stripping any
// leading zeros already present first so repeated padding is idempotent.
func ZeroPad(digits string, width int) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if len(trimmed) >= width {
		return trimmed
	}
	return strings.Repeat("0", width-len(trimmed)) + trimmed
}

// BuildBBL constructs a 10-digit BBL from a borough code digit, a block, and
// a lot, zero-padding block to 5 digits and lot to 4.
func BuildBBL(boroughCode, block, lot string) string {
	return boroughCode + ZeroPad(block, 5) + ZeroPad(lot, 4)
}

// ParseBBL splits a 10-digit BBL into its borough code, block, and lot
// (leading zeros stripped from block/lot), per spec: digits 2-6 are the
// block, digits 7-10 are the lot.
func ParseBBL(bbl string) (boroughCode, block, lot string, err error) {
	if len(bbl) != 10 {
		return "", "", "", fmt.Errorf("invalid BBL length %d: %q", len(bbl), bbl)
	}
	boroughCode = bbl[0:1]
	blockPadded := bbl[1:6]
	lotPadded := bbl[6:10]
	if _, err := strconv.Atoi(boroughCode); err != nil {
		return "", "", "", fmt.Errorf("invalid BBL borough digit: %q", bbl)
	}
	return boroughCode, strings.TrimLeft(blockPadded, "0"), strings.TrimLeft(lotPadded, "0"), nil
}

// PropertyID derives the stable natural key C10 persists properties under:
// the BIN when known, else the BBL, else a normalized form of the address.
// Two resolutions of the same building must yield the same PropertyID so
// repeated runs upsert rather than duplicate.
func PropertyID(p PropertyIdentifiers) string {
	switch {
	case p.BIN != "":
		return "bin:" + p.BIN
	case p.BBL != "":
		return "bbl:" + p.BBL
	default:
		return "addr:" + strings.ToLower(strings.Join(strings.Fields(p.Address), "-"))
	}
}

// ValidateBBL checks the spec.md §3/§8 invariant: given a BBL, the borough
// code joined with the zero-padded block (5) and lot (4) must reconstruct
// it, and the supplied block/lot must agree with the BBL after stripping
// leading zeros.
func ValidateBBL(p PropertyIdentifiers) error {
	if p.BBL == "" {
		return nil
	}
	code, block, lot, err := ParseBBL(p.BBL)
	if err != nil {
		return err
	}
	if BuildBBL(code, block, lot) != p.BBL {
		return fmt.Errorf("BBL %q does not round-trip through borough/block/lot", p.BBL)
	}
	if p.Block != "" && strings.TrimLeft(p.Block, "0") != block {
		return fmt.Errorf("BBL %q block %q disagrees with identifiers.block %q", p.BBL, block, p.Block)
	}
	if p.Lot != "" && strings.TrimLeft(p.Lot, "0") != lot {
		return fmt.Errorf("BBL %q lot %q disagrees with identifiers.lot %q", p.BBL, lot, p.Lot)
	}
	return nil
}
