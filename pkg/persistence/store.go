// Package persistence contains components to interact with the DB (C10,
// spec.md §4.10). Idempotent upserts of property, child rows (violations,
// inspections, permits, complaints), and the compliance summary into a
// relational store.
package persistence // import "github.com/propplyai/propply-ai/pkg/persistence"

import (
	"context"

	"github.com/propplyai/propply-ai/pkg/model"
)

// Store persists one ComplianceRecord at a time. Implementations must honor
// the write order in spec.md §5: property, then child tables (any order),
// then the summary row as the commit point.
type Store interface {
	PersistRecord(ctx context.Context, record model.ComplianceRecord) error
	Close() error
}

// NullStore discards every write. Handy for the CLI and for tests that only
// exercise the orchestrator.
type NullStore struct{}

// PersistRecord does nothing and never fails.
func (n *NullStore) PersistRecord(ctx context.Context, record model.ComplianceRecord) error {
	return nil
}

// Close does nothing.
func (n *NullStore) Close() error {
	return nil
}
