// Package cache holds computed balance summaries so repeated reads of an unchanged group
// skip the recomputation.
//
// Entries are keyed by a per-group version. Every write to a group bumps the version
// through Invalidate, and a reader only looks up the entry for the version it read before
// loading the group, so a summary computed from data older than the latest write is
// never served.
package cache

import (
	"context"

	"github.com/mmynk/splitledger/internal/calculator"
)

// BalanceCache stores one summary per group version.
type BalanceCache interface {
	// Version returns the group's current version, zero if the group was never invalidated.
	Version(ctx context.Context, groupID string) (int64, error)

	// Get returns the summary stored for the given version.
	Get(ctx context.Context, groupID string, version int64) (*calculator.Summary, bool, error)

	// Set stores a summary computed from data read at the given version.
	Set(ctx context.Context, groupID string, version int64, summary *calculator.Summary) error

	// Invalidate bumps the group's version.
	Invalidate(ctx context.Context, groupID string) error
}
