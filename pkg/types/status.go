// Package types holds shared data structures used across ethup packages.
// Wire shapes of the node APIs live here so the aggregator and its tests agree on them.
package types

// Role identifies which half of the node pair a process or query belongs to.
type Role string

const (
	// Execution is the execution-layer node (reth).
	Execution Role = "execution"
	// Consensus is the consensus-layer beacon node (lighthouse).
	Consensus Role = "consensus"
)

// Tag returns the short log prefix for the role ("EL" or "CL").
func (r Role) Tag() string {
	switch r {
	case Execution:
		return "EL"
	case Consensus:
		return "CL"
	default:
		return "??"
	}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// SyncProgress is the object form of an eth_syncing result.
// Every field is a 0x-prefixed hex quantity on the wire.
type SyncProgress struct {
	StartingBlock string `json:"startingBlock"`
	CurrentBlock  string `json:"currentBlock"`
	HighestBlock  string `json:"highestBlock"`
}

// BeaconResponse is the {"data": ...} envelope every beacon node endpoint uses.
type BeaconResponse[T any] struct {
	Data T `json:"data"`
}

// BeaconVersion is the payload of GET eth/v1/node/version.
type BeaconVersion struct {
	Version string `json:"version"`
}

// BeaconSyncing is the payload of GET eth/v1/node/syncing.
// Numeric fields are decimal strings on the wire. FinalizedEpoch is not part of the
// standard response and is only present on some clients.
type BeaconSyncing struct {
	HeadSlot       string  `json:"head_slot"`
	SyncDistance   string  `json:"sync_distance,omitempty"`
	IsSyncing      bool    `json:"is_syncing"`
	IsOptimistic   *bool   `json:"is_optimistic,omitempty"`
	ELOffline      *bool   `json:"el_offline,omitempty"`
	FinalizedEpoch *string `json:"finalized_epoch,omitempty"`
}
