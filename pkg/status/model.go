// Package status queries a running execution/consensus node pair and folds the
// answers into one display-ready snapshot.
package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExecutionStatus is the normalized execution node view.
type ExecutionStatus struct {
	Version   string    `json:"version"`
	ChainID   uint64    `json:"chain_id"`
	HeadBlock uint64    `json:"head_block"`
	Sync      SyncState `json:"sync"`
}

// SyncState is either FullySynced or Syncing.
type SyncState interface {
	fmt.Stringer
	isSyncState()
}

// FullySynced means eth_syncing answered false.
type FullySynced struct{}

func (FullySynced) isSyncState() {}

func (FullySynced) String() string { return "Fully synced" }

// MarshalJSON tags the variant so JSON consumers can tell the two apart.
func (FullySynced) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		State string `json:"state"`
	}{State: "synced"})
}

// Syncing carries the progress object of eth_syncing.
type Syncing struct {
	StartingBlock uint64  `json:"starting_block"`
	CurrentBlock  uint64  `json:"current_block"`
	HighestBlock  uint64  `json:"highest_block"`
	Percent       float64 `json:"percent"`
}

func (Syncing) isSyncState() {}

// NewSyncing computes Percent as current/highest*100. A zero highest block
// means execution has not started and yields 0.
func NewSyncing(starting, current, highest uint64) Syncing {
	var percent float64
	if highest != 0 {
		percent = float64(current) / float64(highest) * 100
	}
	return Syncing{
		StartingBlock: starting,
		CurrentBlock:  current,
		HighestBlock:  highest,
		Percent:       percent,
	}
}

// NotStarted reports whether the node does not know the chain head yet.
func (s Syncing) NotStarted() bool {
	return s.HighestBlock == 0
}

func (s Syncing) String() string {
	if s.NotStarted() {
		return "execution not started yet"
	}
	return fmt.Sprintf("%d → %d / %d (%.2f%%)", s.StartingBlock, s.CurrentBlock, s.HighestBlock, s.Percent)
}

// MarshalJSON adds the variant tag.
func (s Syncing) MarshalJSON() ([]byte, error) {
	type plain Syncing
	return json.Marshal(struct {
		State string `json:"state"`
		plain
	}{State: "syncing", plain: plain(s)})
}

// HealthState is the classification of the beacon health endpoint.
type HealthState int

const (
	HealthUnknown HealthState = iota
	Healthy
	HealthSyncing
	Unhealthy
)

// Health is a HealthState plus the status code it came from.
type Health struct {
	State HealthState
	Code  int
}

// ClassifyHealth maps the eth/v1/node/health status code. The body is never consulted.
func ClassifyHealth(code int) Health {
	switch code {
	case 200:
		return Health{State: Healthy, Code: code}
	case 206:
		return Health{State: HealthSyncing, Code: code}
	case 503:
		return Health{State: Unhealthy, Code: code}
	default:
		return Health{State: HealthUnknown, Code: code}
	}
}

func (h Health) String() string {
	switch h.State {
	case Healthy:
		return "healthy"
	case HealthSyncing:
		return "syncing"
	case Unhealthy:
		return "unhealthy"
	default:
		return fmt.Sprintf("unknown (%d)", h.Code)
	}
}

// MarshalText renders the health as its display string.
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// ConsensusStatus is the normalized beacon node view.
type ConsensusStatus struct {
	Version  string `json:"version"`
	HeadSlot uint64 `json:"head_slot"`
	// FinalizedEpoch is nil when the node does not report one. Nil is not zero.
	FinalizedEpoch *uint64 `json:"finalized_epoch,omitempty"`
	SyncDistance   *uint64 `json:"sync_distance,omitempty"`
	IsSyncing      bool    `json:"is_syncing"`
	IsOptimistic   *bool   `json:"is_optimistic,omitempty"`
	ELOffline      *bool   `json:"el_offline,omitempty"`
	Health         Health  `json:"health"`
}

// Snapshot is one status call's result. On failure the side that did resolve
// is still set.
type Snapshot struct {
	Execution *ExecutionStatus `json:"execution,omitempty"`
	Consensus *ConsensusStatus `json:"consensus,omitempty"`
	TakenAt   time.Time        `json:"taken_at"`
}
