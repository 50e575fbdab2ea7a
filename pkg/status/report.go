package status

import "strconv"

// Field is one labelled line of a status report.
type Field struct {
	Label string
	Value string
}

// Fields lists the execution report lines in display order.
func (e *ExecutionStatus) Fields() []Field {
	return []Field{
		{"Version", e.Version},
		{"Chain ID", strconv.FormatUint(e.ChainID, 10)},
		{"Executed Blocks", strconv.FormatUint(e.HeadBlock, 10)},
		{"Sync", e.Sync.String()},
	}
}

// Fields lists the consensus report lines in display order. Optional values
// the node did not report are left out.
func (c *ConsensusStatus) Fields() []Field {
	fields := []Field{
		{"Version", c.Version},
		{"Head slot", strconv.FormatUint(c.HeadSlot, 10)},
	}
	if c.FinalizedEpoch != nil {
		fields = append(fields, Field{"Finalized epoch", strconv.FormatUint(*c.FinalizedEpoch, 10)})
	}
	if c.SyncDistance != nil {
		fields = append(fields, Field{"Sync distance", strconv.FormatUint(*c.SyncDistance, 10)})
	}

	syncing := "not syncing"
	if c.IsSyncing {
		syncing = "syncing"
	}
	fields = append(fields, Field{"Sync", syncing})

	if c.IsOptimistic != nil && *c.IsOptimistic {
		fields = append(fields, Field{"Optimistic", "yes"})
	}
	if c.ELOffline != nil && *c.ELOffline {
		fields = append(fields, Field{"Execution", "offline"})
	}

	return append(fields, Field{"Health", c.Health.String()})
}
