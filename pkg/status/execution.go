package status

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/salahayoub/ethup/pkg/config"
	"github.com/salahayoub/ethup/pkg/types"
)

// JSON-RPC methods queried on the execution node.
const (
	MethodClientVersion = "web3_clientVersion"
	MethodChainID       = "eth_chainId"
	MethodBlockNumber   = "eth_blockNumber"
	MethodSyncing       = "eth_syncing"
)

// ExecutionStatus runs the four execution queries concurrently and decodes them.
func (a *Aggregator) ExecutionStatus(ctx context.Context, el config.ExecutionConfig) (*ExecutionStatus, error) {
	client, err := rpc.DialOptions(ctx, el.RPCURL(), rpc.WithHTTPClient(a.client))
	if err != nil {
		return nil, &TransportError{Role: types.Execution, Query: "dial", Err: err}
	}
	defer client.Close()

	var (
		version           string
		chainHex, headHex string
		syncRaw           json.RawMessage
	)

	url := el.RPCURL()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.call(gctx, client, url, &version, MethodClientVersion, "version") })
	g.Go(func() error { return a.call(gctx, client, url, &chainHex, MethodChainID, "chain_id") })
	g.Go(func() error { return a.call(gctx, client, url, &headHex, MethodBlockNumber, "head_block") })
	g.Go(func() error { return a.call(gctx, client, url, &syncRaw, MethodSyncing, "sync") })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chainID, err := ParseQuantity("chain_id", chainHex)
	if err != nil {
		return nil, withSource(err, types.Execution, MethodChainID)
	}
	head, err := ParseQuantity("head_block", headHex)
	if err != nil {
		return nil, withSource(err, types.Execution, MethodBlockNumber)
	}
	sync, err := ParseSyncState(syncRaw)
	if err != nil {
		return nil, withSource(err, types.Execution, MethodSyncing)
	}

	return &ExecutionStatus{
		Version:   version,
		ChainID:   chainID,
		HeadBlock: head,
		Sync:      sync,
	}, nil
}

// call performs one JSON-RPC round trip and sorts failures into the error taxonomy.
func (a *Aggregator) call(ctx context.Context, client *rpc.Client, url string, result any, method, field string) error {
	a.log.Debug().Str("method", method).Msg("execution query")

	err := client.CallContext(ctx, result, method)
	if err == nil {
		return nil
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return &HTTPStatusError{
			Role:       types.Execution,
			Query:      method,
			URL:        url,
			StatusCode: httpErr.StatusCode,
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &RPCError{Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}

	if errors.Is(err, rpc.ErrNoResult) {
		return &DecodeError{Role: types.Execution, Query: method, Field: field, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &DecodeError{Role: types.Execution, Query: method, Field: field, Err: err}
	}

	return &TransportError{Role: types.Execution, Query: method, Err: err}
}

// withSource stamps role and query onto a DecodeError produced by a parser.
func withSource(err error, role types.Role, query string) error {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		decodeErr.Role = role
		decodeErr.Query = query
	}
	return err
}
