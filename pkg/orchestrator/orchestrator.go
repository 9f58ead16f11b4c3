// Package orchestrator implements C9: driving C3 (geocoder) through C8
// (scoring) for one address and assembling the final ComplianceRecord
// (spec.md §4.9). Domain collection fans out across a bounded worker pool
// (spec.md §5); nothing in this package blocks on I/O directly, that only
// happens inside the fetcher calls issued by the search engine.
package orchestrator // import "github.com/propplyai/propply-ai/pkg/orchestrator"

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/golang/glog"

	"github.com/propplyai/propply-ai/pkg/dataset"
	"github.com/propplyai/propply-ai/pkg/devicegroup"
	"github.com/propplyai/propply-ai/pkg/geocoder"
	"github.com/propplyai/propply-ai/pkg/model"
	"github.com/propplyai/propply-ai/pkg/normalize"
	"github.com/propplyai/propply-ai/pkg/scoring"
	"github.com/propplyai/propply-ai/pkg/search"
)

// DefaultDeadline is the per-run deadline applied when the caller does not
// override it (spec.md §5), configurable via RUN_DEADLINE_SECONDS.
const DefaultDeadline = 120 * time.Second

// maxWorkers bounds the fan-out pool regardless of how many domains are
// enabled (spec.md §5: min(num_domains, 8)).
const maxWorkers = 8

// Orchestrator wires the geocoder and search engine together to produce one
// ComplianceRecord per address.
type Orchestrator struct {
	Geocoder *geocoder.Resolver
	Fetcher  search.Fetcher
	Deadline time.Duration
}

// New builds an Orchestrator. A zero Deadline is replaced by DefaultDeadline.
func New(g *geocoder.Resolver, f search.Fetcher, deadline time.Duration) *Orchestrator {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Orchestrator{Geocoder: g, Fetcher: f, Deadline: deadline}
}

type domainOutcome struct {
	domain   string
	strategy string
	err      error

	violations []model.ViolationRecord
	devices    []model.DeviceRecord
	complaints []model.ComplaintRecord
	occupancy  []model.OccupancyRecord
}

// Run executes the full C3→C8 pipeline for address/borough under cfg and
// returns the assembled ComplianceRecord. A geocoder failure is not a Go
// error: per spec.md §4.9 step 1, it yields an empty record tagged "FAILED".
func (o *Orchestrator) Run(ctx context.Context, address, borough string, cfg model.RunConfig) (model.ComplianceRecord, error) {
	ids, err := o.Geocoder.Resolve(ctx, address, borough)
	if err != nil {
		log.Warningf("orchestrator: could not resolve %q: %v", address, err)
		return model.ComplianceRecord{
			Address:     address,
			ProcessedAt: time.Now().UTC(),
			DataSources: "FAILED",
		}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, o.Deadline)
	defer cancel()

	domains := cfg.Domains()
	outcomes := o.collect(runCtx, domains, ids)

	record := o.assemble(ids, address, outcomes, runCtx.Err() != nil)
	return record, nil
}

// collect fans the enabled domains out to min(len(domains), 8) worker
// goroutines, and gathers every result before returning.
func (o *Orchestrator) collect(ctx context.Context, domains []string, ids model.PropertyIdentifiers) []domainOutcome {
	workers := len(domains)
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers == 0 {
		return nil
	}

	jobs := make(chan string, len(domains))
	for _, d := range domains {
		jobs <- d
	}
	close(jobs)

	results := make([]domainOutcome, len(domains))
	indexOf := make(map[string]int, len(domains))
	for i, d := range domains {
		indexOf[d] = i
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for domain := range jobs {
				outcome := o.runDomain(ctx, domain, ids)
				mu.Lock()
				results[indexOf[domain]] = outcome
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) runDomain(ctx context.Context, domain string, ids model.PropertyIdentifiers) domainOutcome {
	key := dataset.Key(domain)
	d, ok := dataset.Lookup(key)
	if !ok {
		return domainOutcome{domain: domain, err: fmt.Errorf("no dataset registered for domain %q", domain)}
	}

	restrictActive := domain == "hpd_violations" || domain == "dob_violations"
	result, err := search.Run(ctx, o.Fetcher, d, ids, restrictActive)
	if err != nil {
		return domainOutcome{domain: domain, err: err}
	}
	if len(result.Rows) == 0 {
		return domainOutcome{domain: domain, strategy: string(result.Strategy)}
	}

	rows := normalize.Rows(result.Rows)
	outcome := domainOutcome{domain: domain, strategy: string(result.Strategy)}

	switch domain {
	case "hpd_violations":
		outcome.violations = toViolations(rows, model.SourceHPD)
	case "dob_violations":
		for i := range rows {
			rows[i] = normalize.NormalizeDOBAliases(rows[i])
		}
		outcome.violations = toViolations(rows, model.SourceDOB)
	case "elevator_inspections":
		outcome.devices = devicegroup.Group(rows, "device_number", "status_date")
	case "boiler_inspections":
		outcome.devices = devicegroup.Group(rows, "boiler_id", "inspection_date")
	case "electrical_permits":
		outcome.devices = devicegroup.Group(rows, "filing_number", "filing_date")
	case "complaints_311":
		outcome.complaints = toComplaints(rows)
	case "certificate_of_occupancy":
		outcome.occupancy = toOccupancy(rows)
	}
	return outcome
}

func toViolations(rows []model.Row, source model.Source) []model.ViolationRecord {
	out := make([]model.ViolationRecord, 0, len(rows))
	for _, row := range rows {
		status := violationStatus(row)
		out = append(out, model.ViolationRecord{
			ViolationID:     firstOf(row, "violationid", "isn_dob_bis_viol"),
			Source:          source,
			BIN:             firstOf(row, "bin", "buildingid"),
			BBL:             str(row["bbl"]),
			IssueDate:       firstOf(row, "issue_date", "issuedate"),
			InspectionDate:  str(row["inspectiondate"]),
			DispositionDate: str(row["disposition_date"]),
			Status:          status,
			Category:        firstOf(row, "violation_category", "violationstatus"),
			Description:     firstOf(row, "description", "novdescription"),
			Raw:             row,
		})
	}
	return out
}

// violationStatus resolves a row's normalized status: DOB rows carry it
// under "status" (set by normalize.NormalizeDOBAliases), HPD rows carry the
// raw "Open"/"Close(d)" value under "violationstatus".
func violationStatus(row model.Row) model.Status {
	if s := strings.ToUpper(str(row["status"])); s != "" {
		return model.Status(s)
	}
	switch strings.ToUpper(str(row["violationstatus"])) {
	case "OPEN":
		return model.StatusOpen
	case "CLOSE", "CLOSED", "RESOLVED", "DISMISSED":
		return model.StatusResolved
	default:
		return model.StatusUnknown
	}
}

func toComplaints(rows []model.Row) []model.ComplaintRecord {
	out := make([]model.ComplaintRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.ComplaintRecord{
			UniqueKey:     str(row["unique_key"]),
			CreatedDate:   str(row["created_date"]),
			ComplaintType: str(row["complaint_type"]),
			Status:        str(row["status"]),
			Address:       str(row["incident_address"]),
			Raw:           row,
		})
	}
	return out
}

func toOccupancy(rows []model.Row) []model.OccupancyRecord {
	out := make([]model.OccupancyRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.OccupancyRecord{
			JobNumber:     str(row["job_number"]),
			COIssueDate:   str(row["c_of_o_issue_date"]),
			OccupancyType: str(row["occupancy_type"]),
			Raw:           row,
		})
	}
	return out
}

func firstOf(row model.Row, fields ...string) string {
	for _, f := range fields {
		if v := str(row[f]); v != "" {
			return v
		}
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// assemble builds the final ComplianceRecord from per-domain outcomes,
// computing counts and scores and deciding data_sources per spec.md §4.9/§5.
func (o *Orchestrator) assemble(ids model.PropertyIdentifiers, address string, outcomes []domainOutcome, deadlineHit bool) model.ComplianceRecord {
	record := model.ComplianceRecord{
		Address:     firstNonEmpty(ids.Address, address),
		BIN:         ids.BIN,
		BBL:         ids.BBL,
		Borough:     ids.Borough,
		Block:       ids.Block,
		Lot:         ids.Lot,
		ZIPCode:     ids.ZIPCode,
		ProcessedAt: time.Now().UTC(),
	}

	var anyFailed, anySucceeded bool
	var strategies []string

	for _, outcome := range outcomes {
		if outcome.err != nil {
			anyFailed = true
			log.Warningf("orchestrator: domain %s failed: %v", outcome.domain, outcome.err)
			continue
		}
		anySucceeded = true
		if outcome.strategy != "" {
			strategies = append(strategies, fmt.Sprintf("%s:%s", outcome.domain, outcome.strategy))
		}

		switch outcome.domain {
		case "hpd_violations":
			record.HPDViolationRecords = outcome.violations
			record.HPDViolations = countViolations(outcome.violations)
		case "dob_violations":
			record.DOBViolationRecords = outcome.violations
			record.DOBViolations = countViolations(outcome.violations)
		case "elevator_inspections":
			record.ElevatorDeviceRecords = outcome.devices
			record.ElevatorDevices = countActiveDevices(outcome.devices)
		case "boiler_inspections":
			record.BoilerDeviceRecords = outcome.devices
			record.BoilerDevices = countActiveDevices(outcome.devices)
		case "electrical_permits":
			record.ElectricalPermitRecords = outcome.devices
			record.ElectricalPermits = countActiveFilings(outcome.devices)
		case "complaints_311":
			record.ComplaintRecords = outcome.complaints
		case "certificate_of_occupancy":
			record.OccupancyRecords = outcome.occupancy
		}
	}

	record.HPDScore = scoring.HPDScore(record.HPDViolations.Active)
	record.DOBScore = scoring.DOBScore(record.DOBViolations.Active)
	record.ElevatorScore = scoring.ElevatorScore(record.ElevatorDevices.Total, record.ElevatorDevices.Active)
	record.ElectricalScore = electricalScoreFor(record.ElectricalPermitRecords)
	record.OverallScore = scoring.OverallScore(record.HPDScore, record.DOBScore, record.ElevatorScore, record.ElectricalScore)
	record.RiskLevel = scoring.RiskLevelFor(record.OverallScore)

	sort.Strings(strategies)
	switch {
	case deadlineHit:
		record.DataSources = "PARTIAL"
	case anyFailed && anySucceeded:
		record.DataSources = "PARTIAL"
	case anyFailed && !anySucceeded:
		record.DataSources = "FAILED"
	default:
		record.DataSources = strings.Join(strategies, ",")
	}
	return record
}

func countViolations(records []model.ViolationRecord) model.DomainCounts {
	counts := model.DomainCounts{Total: len(records)}
	for _, r := range records {
		if r.Status == model.StatusOpen {
			counts.Active++
		}
	}
	return counts
}

func countActiveDevices(records []model.DeviceRecord) model.DomainCounts {
	counts := model.DomainCounts{Total: len(records)}
	for _, r := range records {
		if strings.EqualFold(r.DeviceStatus, "Active") {
			counts.Active++
		}
	}
	return counts
}

func countActiveFilings(permits []model.DeviceRecord) model.DomainCounts {
	counts := model.DomainCounts{Total: len(permits)}
	for _, p := range permits {
		if scoring.ActiveFilingStatuses[p.FilingStatus] {
			counts.Active++
		}
	}
	return counts
}

func electricalScoreFor(permits []model.DeviceRecord) float64 {
	currentYear := time.Now().UTC().Year()
	recent := 0
	for _, p := range permits {
		if t, ok := normalize.ParseDate(p.LatestInspectionDate); ok && scoring.IsRecentFilingYear(t.Year(), currentYear) {
			recent++
		}
	}
	active := countActiveFilings(permits)
	return scoring.ElectricalScore(active.Total, recent, active.Active)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
