package status

import (
	"fmt"

	"github.com/salahayoub/ethup/pkg/types"
)

// TransportError means a node's API could not be reached or the exchange broke
// off before a response was read.
type TransportError struct {
	Role  types.Role
	Query string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Role, e.Query, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a response arrived but a field could not be decoded.
// Field names the offending value; Query and Role are filled in by the aggregator.
type DecodeError struct {
	Role  types.Role
	Query string
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %q", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" (%q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Query != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Role, e.Query, msg)
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx answer to a query that must succeed.
// The health probe never produces one.
type HTTPStatusError struct {
	Role       types.Role
	Query      string
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: endpoint %s returned HTTP %d", e.Role, e.Query, e.URL, e.StatusCode)
}

// RPCError is a JSON-RPC error object returned by the execution node.
type RPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("execution %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}
