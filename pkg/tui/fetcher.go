// Package tui provides the live terminal dashboard for a running node pair.
package tui

import (
	"context"
	"time"

	"github.com/salahayoub/ethup/pkg/config"
	"github.com/salahayoub/ethup/pkg/status"
)

// SnapshotFetcher retrieves one status snapshot.
// Abstracted as an interface so tests can feed the dashboard canned snapshots.
type SnapshotFetcher interface {
	Fetch(ctx context.Context) (status.Snapshot, error)
}

// AggregatorFetcher queries a node pair through a status.Aggregator.
type AggregatorFetcher struct {
	Aggregator *status.Aggregator
	Execution  config.ExecutionConfig
	Consensus  config.ConsensusConfig

	// Timeout bounds one fetch. Zero means no deadline.
	Timeout time.Duration
}

// Fetch implements SnapshotFetcher.
func (f *AggregatorFetcher) Fetch(ctx context.Context) (status.Snapshot, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	return f.Aggregator.Status(ctx, f.Execution, f.Consensus)
}
