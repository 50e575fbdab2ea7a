package tui

import (
	"time"

	"github.com/salahayoub/ethup/pkg/status"
)

// Model holds the dashboard state.
type Model struct {
	Chain string

	// Last good view of each node. A side keeps its old value when a refresh
	// fails for it and is then marked stale.
	Execution *status.ExecutionStatus
	Consensus *status.ConsensusStatus

	ExecutionStale bool
	ConsensusStale bool

	ErrorMessage string
	LastUpdated  time.Time
	Refreshes    int

	// Configuration
	RefreshInterval time.Duration
}

// NewModel creates a Model with default values.
func NewModel(chain string, interval time.Duration) *Model {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Model{
		Chain:           chain,
		RefreshInterval: interval,
	}
}

// Apply folds one fetch result into the model. Sides present in snap are
// replaced; on error, sides missing from snap keep their last value and are
// marked stale.
func (m *Model) Apply(snap status.Snapshot, err error) {
	m.Refreshes++

	if snap.Execution != nil {
		m.Execution = snap.Execution
		m.ExecutionStale = false
	} else if err != nil {
		m.ExecutionStale = m.Execution != nil
	}

	if snap.Consensus != nil {
		m.Consensus = snap.Consensus
		m.ConsensusStale = false
	} else if err != nil {
		m.ConsensusStale = m.Consensus != nil
	}

	if err != nil {
		m.ErrorMessage = err.Error()
		return
	}

	m.ErrorMessage = ""
	m.LastUpdated = snap.TakenAt
}

// Stale reports whether anything on screen is out of date.
func (m *Model) Stale() bool {
	return m.ExecutionStale || m.ConsensusStale
}
