// Package dataset holds the static registry mapping dataset keys to their
// NYC Open Data endpoint id, column names, search-key capabilities, and
// per-dataset quirks (spec.md §4.2, C2). Adding a dataset is one table
// entry here. The orchestrator (pkg/orchestrator) still branches on domain
// names to choose the active-record restriction, the record mapping, and
// the device-grouping fields for each domain.
package dataset // import "github.com/propplyai/propply-ai/pkg/dataset"

import "time"

// Key identifies a dataset in the registry.
type Key string

const (
	KeyDOBViolations           Key = "dob_violations"
	KeyHPDViolations           Key = "hpd_violations"
	KeyHPDRegistrations        Key = "hpd_registrations"
	KeyElevatorInspections     Key = "elevator_inspections"
	KeyBoilerInspections       Key = "boiler_inspections"
	KeyComplaints311           Key = "complaints_311"
	KeyBuildingComplaints      Key = "building_complaints"
	KeyFireSafetyInspections  Key = "fire_safety_inspections"
	KeyCoolingTowerRegistrations Key = "cooling_tower_registrations"
	KeyCoolingTowerInspections   Key = "cooling_tower_inspections"
	KeyElectricalPermits       Key = "electrical_permits"
	KeyCertificateOfOccupancy Key = "certificate_of_occupancy"
)

// SearchKey is a semantic identifier kind a dataset's predicate can be built on.
type SearchKey string

const (
	SearchKeyBIN      SearchKey = "BIN"
	SearchKeyBBL      SearchKey = "BBL"
	SearchKeyBlockLot SearchKey = "BlockLot"
	SearchKeyAddress  SearchKey = "Address"
)

// Quirks captures per-dataset fetch behavior that deviates from the default.
type Quirks struct {
	// Flaky datasets get 3 fetch attempts instead of 1 (spec.md §4.1).
	Flaky bool
	// MaxPageSize caps the $limit parameter (0 means use the caller's limit).
	MaxPageSize int
	// TimeoutOverride overrides the default 30s per-request timeout when nonzero.
	TimeoutOverride time.Duration
	// SimplifiedSelect, if non-empty, replaces $select on a 400 response and
	// is retried once (spec.md §4.1).
	SimplifiedSelect string
}

// Descriptor is one dataset's compile-time metadata.
type Descriptor struct {
	Key Key
	// EndpointID is the Socrata resource id used to form the URL
	// https://data.cityofnewyork.us/resource/<EndpointID>.json
	EndpointID string
	Name       string
	// SearchFields maps a semantic SearchKey to this dataset's column name.
	// Block/lot columns are not listed here; they live in BlockColumn and
	// LotColumn.
	SearchFields map[SearchKey]string
	BlockColumn  string
	LotColumn    string
	SelectColumns string
	OrderBy       string
	Quirks        Quirks
	// ActivePredicate restricts results to open/active records; empty if the
	// dataset has no notion of active/inactive.
	ActivePredicate string
	// DefaultLimit is the $limit used when the query planner doesn't override it.
	DefaultLimit int
}

// SupportsKey reports whether this dataset has a column mapped for key.
func (d Descriptor) SupportsKey(key SearchKey) bool {
	if key == SearchKeyBlockLot {
		return d.BlockColumn != "" && d.LotColumn != ""
	}
	_, ok := d.SearchFields[key]
	return ok
}

const defaultLimit = 500
const fdnyLimit = 100

// Registry is the compile-time table of all known datasets.
var Registry = map[Key]Descriptor{
	KeyHPDViolations: {
		Key:          KeyHPDViolations,
		EndpointID:   "wvxf-dwi5",
		Name:         "HPD Violations",
		SearchFields: map[SearchKey]string{SearchKeyBIN: "buildingid", SearchKeyAddress: "housenumber"},
		BlockColumn:  "block",
		LotColumn:    "lot",
		SelectColumns: "violationid, buildingid, boroid, housenumber, streetname, block, lot, zip, " +
			"inspectiondate, approveddate, novissueddate, currentstatus, currentstatusdate, " +
			"violationstatus, novdescription",
		OrderBy:         "inspectiondate DESC",
		ActivePredicate: "violationstatus = 'Open'",
		DefaultLimit:    defaultLimit,
	},
	KeyDOBViolations: {
		Key:          KeyDOBViolations,
		EndpointID:   "3h2n-5cm9",
		Name:         "DOB Violations",
		SearchFields: map[SearchKey]string{SearchKeyBIN: "bin", SearchKeyBBL: "bbl"},
		BlockColumn:  "block",
		LotColumn:    "lot",
		SelectColumns: "isn_dob_bis_viol, bin, bbl, block, lot, boro, issue_date, violation_category, " +
			"violation_type, description, disposition_date, disposition_comments",
		OrderBy:         "issue_date DESC",
		ActivePredicate: "violation_category LIKE '%ACTIVE%'",
		DefaultLimit:    defaultLimit,
		Quirks:          Quirks{TimeoutOverride: 45 * time.Second},
	},
	KeyHPDRegistrations: {
		Key:           KeyHPDRegistrations,
		EndpointID:    "tesw-yqqr",
		Name:          "HPD Registrations",
		SearchFields:  map[SearchKey]string{SearchKeyBBL: "bbl"},
		BlockColumn:   "block",
		LotColumn:     "lot",
		SelectColumns: "registrationid, bin, bbl, block, lot, housenumber, streetname, zip, lastregistrationdate",
		OrderBy:       "lastregistrationdate DESC",
		DefaultLimit:  defaultLimit,
	},
	KeyElevatorInspections: {
		Key:          KeyElevatorInspections,
		EndpointID:   "ju4y-gjjz",
		Name:         "Elevator Inspections",
		SearchFields: map[SearchKey]string{SearchKeyBIN: "bin"},
		SelectColumns: "device_number, device_type, device_status, status_date, latest_periodic_inspection, " +
			"defects_exist, filing_status, bin, house_number, street_name",
		OrderBy:      "status_date DESC",
		DefaultLimit: defaultLimit,
	},
	KeyBoilerInspections: {
		Key:          KeyBoilerInspections,
		EndpointID:   "yb3y-jj3p",
		Name:         "Boiler Inspections",
		// Boiler dataset only exposes bin_number: BBL, block/lot are never valid search keys here.
		SearchFields:  map[SearchKey]string{SearchKeyBIN: "bin_number"},
		SelectColumns: "boiler_id, report_type, inspection_date, defects_exist, bin_number, device_status",
		OrderBy:       "inspection_date DESC",
		DefaultLimit:  defaultLimit,
	},
	KeyComplaints311: {
		Key:           KeyComplaints311,
		EndpointID:    "erm2-nwe9",
		Name:          "311 Complaints",
		SearchFields:  map[SearchKey]string{SearchKeyAddress: "incident_address"},
		BlockColumn:   "",
		LotColumn:     "",
		SelectColumns: "unique_key, created_date, complaint_type, status, incident_address, bbl",
		OrderBy:       "created_date DESC",
		DefaultLimit:  defaultLimit,
	},
	KeyBuildingComplaints: {
		Key:           KeyBuildingComplaints,
		EndpointID:    "eabe-havv",
		Name:          "Building Complaints",
		SearchFields:  map[SearchKey]string{SearchKeyBIN: "bin"},
		SelectColumns: "complaint_number, bin, date_entered, status, complaint_category",
		OrderBy:       "date_entered DESC",
		DefaultLimit:  defaultLimit,
	},
	KeyFireSafetyInspections: {
		Key:        KeyFireSafetyInspections,
		EndpointID: "tb8h-r8xh",
		Name:       "Fire Safety Inspections",
		// FDNY-style dataset: no BIN column, use (borough, block, lot) + address fallback.
		SearchFields:  map[SearchKey]string{SearchKeyAddress: "street_name"},
		BlockColumn:   "block",
		LotColumn:     "lot",
		SelectColumns: "inspection_number, borough, block, lot, house_number, street_name, inspection_date, result",
		OrderBy:       "inspection_date DESC",
		DefaultLimit:  fdnyLimit,
		Quirks:        Quirks{Flaky: true, MaxPageSize: fdnyLimit},
	},
	KeyCoolingTowerRegistrations: {
		Key:           KeyCoolingTowerRegistrations,
		EndpointID:    "zjjz-xg8w",
		Name:          "Cooling Tower Registrations",
		SearchFields:  map[SearchKey]string{SearchKeyBIN: "bin"},
		SelectColumns: "tower_id, bin, registration_date",
		OrderBy:       "registration_date DESC",
		DefaultLimit:  defaultLimit,
	},
	KeyCoolingTowerInspections: {
		Key:           KeyCoolingTowerInspections,
		EndpointID:    "vhfd-45yz",
		Name:          "Cooling Tower Inspections",
		SearchFields:  map[SearchKey]string{SearchKeyBIN: "bin"},
		SelectColumns: "tower_id, bin, inspection_date, compliance_status",
		OrderBy:       "inspection_date DESC",
		DefaultLimit:  defaultLimit,
	},
	KeyElectricalPermits: {
		Key:          KeyElectricalPermits,
		EndpointID:   "ipu4-2q9a",
		Name:         "Electrical Permits",
		SearchFields: map[SearchKey]string{SearchKeyBIN: "bin"},
		BlockColumn:  "block",
		LotColumn:    "lot",
		SelectColumns: "filing_number, filing_date, filing_status, job_description, bin, block, lot, " +
			"borough, completion_date, amount_paid",
		OrderBy:      "filing_date DESC",
		DefaultLimit: defaultLimit,
		Quirks: Quirks{
			Flaky:            true,
			TimeoutOverride:  60 * time.Second,
			SimplifiedSelect: "filing_number, filing_date, filing_status, bin",
		},
	},
	KeyCertificateOfOccupancy: {
		Key:        KeyCertificateOfOccupancy,
		EndpointID: "pkdm-hqz6",
		Name:       "Certificate of Occupancy",
		// Advisory-only domain (spec.md §9 Design Note): never scored, BIN/BBL search only.
		SearchFields:  map[SearchKey]string{SearchKeyBIN: "bin", SearchKeyBBL: "bbl"},
		SelectColumns: "job_number, c_of_o_issue_date, occupancy_type, bin, bbl",
		OrderBy:       "c_of_o_issue_date DESC",
		DefaultLimit:  defaultLimit,
	},
}

// Lookup returns the descriptor for key, and whether it was found.
func Lookup(key Key) (Descriptor, bool) {
	d, ok := Registry[key]
	return d, ok
}
