// Package search implements C5: executing a dataset's query plan in order,
// applying the coarse-key post-filter, and stopping at the first
// identifier-consistent non-empty result (spec.md §4.5).
package search // import "github.com/propplyai/propply-ai/pkg/search"

import (
	"context"
	"fmt"

	log "github.com/golang/glog"

	"github.com/propplyai/propply-ai/pkg/dataset"
	"github.com/propplyai/propply-ai/pkg/fetcher"
	"github.com/propplyai/propply-ai/pkg/model"
	"github.com/propplyai/propply-ai/pkg/queryplan"
)

// Fetcher is the subset of *fetcher.Client the search engine depends on,
// narrowed so this package's tests can supply a stub.
type Fetcher interface {
	Fetch(ctx context.Context, opts fetcher.FetchOptions, q fetcher.Query) ([]model.Row, error)
}

// Result is one dataset's search outcome, tagged with the strategy that
// produced it for provenance/logging.
type Result struct {
	Rows     []model.Row
	Strategy queryplan.StrategyName
}

// Run executes d's query plan against ids in order, returning the first
// attempt whose result is non-empty and (when the attempt used a coarse key)
// consistent with ids.BIN. It surfaces an error only when every attempt in
// the plan failed outright; an attempt that merely returned zero matching
// rows is not an error, the engine simply moves to the next attempt.
func Run(ctx context.Context, f Fetcher, d dataset.Descriptor, ids model.PropertyIdentifiers, restrictActive bool) (Result, error) {
	plan := queryplan.Build(d, ids, queryplan.Options{RestrictActive: restrictActive})
	if len(plan) == 0 {
		return Result{}, nil
	}

	binColumn := d.SearchFields[dataset.SearchKeyBIN]

	maxAttempts := 1
	timeout := d.Quirks.TimeoutOverride
	if d.Quirks.Flaky {
		maxAttempts = 3
	}

	var lastErr error
	attemptsFailed := 0
	for _, attempt := range plan {
		rows, err := f.Fetch(ctx, fetcher.FetchOptions{
			EndpointID:       d.EndpointID,
			Timeout:          timeout,
			MaxAttempts:      maxAttempts,
			SimplifiedSelect: d.Quirks.SimplifiedSelect,
		}, fetcher.Query{
			Where:  attempt.Where,
			Select: attempt.Select,
			Order:  attempt.OrderBy,
			Limit:  attempt.Limit,
		})
		if err != nil {
			log.Warningf("search: %s attempt %s failed: %v", d.Key, attempt.Strategy, err)
			lastErr = err
			attemptsFailed++
			continue
		}

		if attempt.UsedCoarseKey && binColumn != "" && ids.HasBIN() {
			rows = filterByBIN(rows, binColumn, ids.BIN)
		}
		if len(rows) == 0 {
			continue
		}
		return Result{Rows: rows, Strategy: attempt.Strategy}, nil
	}

	if attemptsFailed == len(plan) {
		return Result{}, model.NewError(model.ErrorKindRemote, fmt.Sprintf("all search attempts failed for dataset %s", d.Key), lastErr)
	}
	return Result{}, nil
}

// filterByBIN discards rows whose bin column disagrees with want, the
// coarse-key post-filter required whenever an attempt matched on block/lot
// or address rather than the precise BIN (spec.md §4.5.c).
func filterByBIN(rows []model.Row, binColumn, want string) []model.Row {
	kept := rows[:0:0]
	for _, row := range rows {
		got, _ := row[binColumn].(string)
		if got != "" && got == want {
			kept = append(kept, row)
		}
	}
	return kept
}
