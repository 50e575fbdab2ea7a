package status

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseQuantity(t *testing.T) {
	v, err := ParseQuantity("head_block", "0xff")
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v)

	v, err = ParseQuantity("head_block", "0x0")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	v, err = ParseQuantity("head_block", "0x0001")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	v, err = ParseQuantity("head_block", "0x00ff")
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v)

	for _, bad := range []string{"0xzz", "ff", "", "0x", "0x00zz", "0x010000000000000000"} {
		_, err := ParseQuantity("chain_id", bad)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr, "input %q", bad)
		assert.Equal(t, "chain_id", decodeErr.Field)
		assert.Equal(t, bad, decodeErr.Value)
	}
}

func TestParseQuantityRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64().Draw(t, "n")
		got, err := ParseQuantity("n", fmt.Sprintf("%#x", n))
		if err != nil {
			t.Fatalf("ParseQuantity(%#x): %v", n, err)
		}
		if got != n {
			t.Fatalf("got %d, want %d", got, n)
		}
	})
}

func TestParseDecimal(t *testing.T) {
	v, err := ParseDecimal("head_slot", "123456")
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), v)

	_, err = ParseDecimal("head_slot", "0x10")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "head_slot", decodeErr.Field)
}

func TestParseSyncState(t *testing.T) {
	st, err := ParseSyncState(json.RawMessage(`false`))
	require.NoError(t, err)
	assert.Equal(t, FullySynced{}, st)
	assert.Equal(t, "Fully synced", st.String())

	st, err = ParseSyncState(json.RawMessage(`true`))
	require.NoError(t, err)
	assert.Equal(t, FullySynced{}, st)

	st, err = ParseSyncState(json.RawMessage(`{"startingBlock":"0x1","currentBlock":"0x2","highestBlock":"0x3"}`))
	require.NoError(t, err)
	syncing, ok := st.(Syncing)
	require.True(t, ok)
	assert.Equal(t, uint64(1), syncing.StartingBlock)
	assert.Equal(t, uint64(2), syncing.CurrentBlock)
	assert.Equal(t, uint64(3), syncing.HighestBlock)
}

func TestParseSyncStateRejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"string", `"0xzz"`, "sync"},
		{"number", `12`, "sync"},
		{"array", `[]`, "sync"},
		{"null", `null`, "sync"},
		{"bad current", `{"startingBlock":"0x1","currentBlock":"zz","highestBlock":"0x3"}`, "currentBlock"},
		{"missing highest", `{"startingBlock":"0x1","currentBlock":"0x2"}`, "highestBlock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSyncState(json.RawMessage(tt.raw))
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tt.field, decodeErr.Field)
		})
	}
}

func TestSyncingPercent(t *testing.T) {
	s := NewSyncing(0, 50, 200)
	assert.InDelta(t, 25.0, s.Percent, 1e-9)
	assert.Equal(t, "0 → 50 / 200 (25.00%)", s.String())

	s = NewSyncing(0, 0, 0)
	assert.Equal(t, 0.0, s.Percent)
	assert.True(t, s.NotStarted())
	assert.Equal(t, "execution not started yet", s.String())
}

func TestSyncingPercentBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		highest := rapid.Uint64Range(1, 1<<40).Draw(t, "highest")
		current := rapid.Uint64Range(0, highest).Draw(t, "current")
		s := NewSyncing(0, current, highest)
		if s.Percent < 0 || s.Percent > 100 {
			t.Fatalf("percent %f out of range for %d/%d", s.Percent, current, highest)
		}
	})
}

func TestClassifyHealth(t *testing.T) {
	tests := []struct {
		code  int
		state HealthState
		text  string
	}{
		{200, Healthy, "healthy"},
		{206, HealthSyncing, "syncing"},
		{503, Unhealthy, "unhealthy"},
		{404, HealthUnknown, "unknown (404)"},
		{500, HealthUnknown, "unknown (500)"},
	}

	for _, tt := range tests {
		h := ClassifyHealth(tt.code)
		assert.Equal(t, tt.state, h.State, "code %d", tt.code)
		assert.Equal(t, tt.code, h.Code)
		assert.Equal(t, tt.text, h.String())
	}
}

func TestSyncStateJSON(t *testing.T) {
	b, err := json.Marshal(FullySynced{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"synced"}`, string(b))

	b, err = json.Marshal(NewSyncing(1, 2, 4))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"syncing","starting_block":1,"current_block":2,"highest_block":4,"percent":50}`, string(b))
}

func TestReportFields(t *testing.T) {
	el := &ExecutionStatus{Version: "reth/v1", ChainID: 560048, HeadBlock: 255, Sync: FullySynced{}}
	assert.Equal(t, []Field{
		{"Version", "reth/v1"},
		{"Chain ID", "560048"},
		{"Executed Blocks", "255"},
		{"Sync", "Fully synced"},
	}, el.Fields())

	epoch := uint64(7)
	offline := true
	cl := &ConsensusStatus{
		Version:        "Lighthouse/v7",
		HeadSlot:       4242,
		FinalizedEpoch: &epoch,
		IsSyncing:      true,
		ELOffline:      &offline,
		Health:         ClassifyHealth(206),
	}
	assert.Equal(t, []Field{
		{"Version", "Lighthouse/v7"},
		{"Head slot", "4242"},
		{"Finalized epoch", "7"},
		{"Sync", "syncing"},
		{"Execution", "offline"},
		{"Health", "syncing"},
	}, cl.Fields())
}
