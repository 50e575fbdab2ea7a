package status

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/salahayoub/ethup/pkg/config"
)

// Aggregator issues the execution and consensus status queries over one
// shared HTTP client.
type Aggregator struct {
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

// NewAggregator returns an Aggregator. A nil client means http.DefaultClient.
// Deadlines come from the caller's context.
func NewAggregator(client *http.Client, log zerolog.Logger) *Aggregator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Aggregator{
		client: client,
		log:    log.With().Str("component", "status").Logger(),
		now:    time.Now,
	}
}

// Status queries both nodes concurrently. On error the returned Snapshot still
// holds whichever side resolved.
func (a *Aggregator) Status(ctx context.Context, el config.ExecutionConfig, cl config.ConsensusConfig) (Snapshot, error) {
	snap := Snapshot{TakenAt: a.now()}

	// No shared cancellation: one side failing must not abort the other.
	var g errgroup.Group
	g.Go(func() error {
		st, err := a.ExecutionStatus(ctx, el)
		if err != nil {
			a.log.Debug().Err(err).Msg("execution status failed")
			return err
		}
		snap.Execution = st
		return nil
	})
	g.Go(func() error {
		st, err := a.ConsensusStatus(ctx, cl)
		if err != nil {
			a.log.Debug().Err(err).Msg("consensus status failed")
			return err
		}
		snap.Consensus = st
		return nil
	})

	err := g.Wait()
	return snap, err
}
