package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/salahayoub/ethup/pkg/types"
)

// maxValueEcho bounds how much of a bad value is copied into a DecodeError.
const maxValueEcho = 64

var errUnknownSyncShape = errors.New("neither a boolean nor a sync progress object")

// ParseQuantity decodes a 0x-prefixed hex quantity into a uint64. Leading
// zeros are tolerated even though canonical quantities never carry them.
func ParseQuantity(field, s string) (uint64, error) {
	v, err := hexutil.DecodeUint64(s)
	if errors.Is(err, hexutil.ErrLeadingZero) {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	}
	if err != nil {
		return 0, &DecodeError{Field: field, Value: echo(s), Err: err}
	}
	return v, nil
}

// ParseDecimal decodes a base-10 string such as a beacon head_slot.
func ParseDecimal(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &DecodeError{Field: field, Value: echo(s), Err: err}
	}
	return v, nil
}

// ParseSyncState discriminates the eth_syncing result by shape. A boolean is
// FullySynced; an object is decoded as progress; anything else is a DecodeError.
func ParseSyncState(raw json.RawMessage) (SyncState, error) {
	raw = bytes.TrimSpace(raw)

	if bytes.Equal(raw, []byte("false")) || bytes.Equal(raw, []byte("true")) {
		return FullySynced{}, nil
	}

	if len(raw) == 0 || raw[0] != '{' {
		return nil, &DecodeError{Field: "sync", Value: echo(string(raw)), Err: errUnknownSyncShape}
	}

	var progress types.SyncProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, &DecodeError{Field: "sync", Value: echo(string(raw)), Err: err}
	}

	starting, err := ParseQuantity("startingBlock", progress.StartingBlock)
	if err != nil {
		return nil, err
	}
	current, err := ParseQuantity("currentBlock", progress.CurrentBlock)
	if err != nil {
		return nil, err
	}
	highest, err := ParseQuantity("highestBlock", progress.HighestBlock)
	if err != nil {
		return nil, err
	}

	return NewSyncing(starting, current, highest), nil
}

func echo(s string) string {
	if len(s) > maxValueEcho {
		return s[:maxValueEcho] + "..."
	}
	return s
}
