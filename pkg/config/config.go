// Package config describes how to invoke the execution and consensus nodes and
// how to reach their APIs.
//
// Configs are plain values. Nothing in this package touches the filesystem or
// the environment; directory roots come in through a layout.Layout.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/salahayoub/ethup/pkg/types"
)

// Validation errors.
var (
	// ErrSecretMismatch is returned when the two nodes point at different JWT files.
	ErrSecretMismatch = errors.New("execution and consensus nodes must share the same jwt secret")
	// ErrEndpointMismatch is returned when the consensus node does not target the EL auth API.
	ErrEndpointMismatch = errors.New("consensus execution endpoint must be the execution auth rpc url")
	// ErrPortConflict is returned when two listeners would bind the same host port.
	ErrPortConflict = errors.New("port conflict")
)

// Invocation is everything needed to start a node process.
type Invocation struct {
	Binary  string
	Args    []string
	DataDir string
}

// ExecutionConfig describes the execution-layer node.
type ExecutionConfig struct {
	Name        string
	Bin         string
	Chain       string
	DataDir     string
	HTTPAddr    string
	HTTPPort    uint16
	AuthRPCAddr string
	AuthRPCPort uint16
	JWTPath     string
}

// Role implements supervisor.Node.
func (c ExecutionConfig) Role() types.Role { return types.Execution }

// RPCURL is the JSON-RPC endpoint used for status queries.
func (c ExecutionConfig) RPCURL() string {
	return httpURL(c.HTTPAddr, c.HTTPPort)
}

// AuthRPCURL is the authenticated engine API endpoint the consensus node connects to.
func (c ExecutionConfig) AuthRPCURL() string {
	return httpURL(c.AuthRPCAddr, c.AuthRPCPort)
}

// Args builds the reth argument vector. The order is fixed.
func (c ExecutionConfig) Args() []string {
	return []string{
		"node",
		"--chain", c.Chain,
		"--datadir", c.DataDir,
		"--authrpc.addr", c.AuthRPCAddr,
		"--authrpc.port", strconv.Itoa(int(c.AuthRPCPort)),
		"--authrpc.jwtsecret", c.JWTPath,
		"--http",
		"--http.addr", c.HTTPAddr,
		"--http.port", strconv.Itoa(int(c.HTTPPort)),
		"--http.api", "all",
	}
}

// Invocation implements supervisor.Node.
func (c ExecutionConfig) Invocation() Invocation {
	return Invocation{Binary: c.Bin, Args: c.Args(), DataDir: c.DataDir}
}

// ConsensusConfig describes the consensus-layer beacon node.
type ConsensusConfig struct {
	Name              string
	Bin               string
	Chain             string
	DataDir           string
	HTTPAddr          string
	HTTPPort          uint16
	ExecutionEndpoint string
	ExecutionJWT      string
	// CheckpointSyncURL is optional; empty means sync from genesis.
	CheckpointSyncURL string
}

// Role implements supervisor.Node.
func (c ConsensusConfig) Role() types.Role { return types.Consensus }

// HTTPURL is the beacon REST API base URL.
func (c ConsensusConfig) HTTPURL() string {
	return httpURL(c.HTTPAddr, c.HTTPPort)
}

// Args builds the lighthouse argument vector. --checkpoint-sync-url is appended
// only when configured.
func (c ConsensusConfig) Args() []string {
	args := []string{
		"bn",
		"--network", c.Chain,
		"--datadir", c.DataDir,
		"--execution-endpoint", c.ExecutionEndpoint,
		"--execution-jwt", c.ExecutionJWT,
		"--http",
		"--http-address", c.HTTPAddr,
		"--http-port", strconv.Itoa(int(c.HTTPPort)),
	}
	if c.CheckpointSyncURL != "" {
		args = append(args, "--checkpoint-sync-url", c.CheckpointSyncURL)
	}
	return args
}

// Invocation implements supervisor.Node.
func (c ConsensusConfig) Invocation() Invocation {
	return Invocation{Binary: c.Bin, Args: c.Args(), DataDir: c.DataDir}
}

// Pair is the execution + consensus configuration for one run.
type Pair struct {
	Execution ExecutionConfig
	Consensus ConsensusConfig
}

// Validate checks that the pair can run together on one host.
// All problems are reported at once.
func (p Pair) Validate() error {
	var errs []string

	el, cl := p.Execution, p.Consensus
	if el.Bin == "" {
		errs = append(errs, "execution: missing binary path")
	}
	if cl.Bin == "" {
		errs = append(errs, "consensus: missing binary path")
	}
	if el.DataDir == "" {
		errs = append(errs, "execution: missing data directory")
	}
	if cl.DataDir == "" {
		errs = append(errs, "consensus: missing data directory")
	}
	if el.Chain == "" || cl.Chain == "" {
		errs = append(errs, "missing chain")
	}
	if el.HTTPPort == 0 || el.AuthRPCPort == 0 || cl.HTTPPort == 0 {
		errs = append(errs, "ports must be non-zero")
	}
	if el.JWTPath == "" {
		errs = append(errs, "execution: missing jwt secret path")
	} else if el.JWTPath != cl.ExecutionJWT {
		errs = append(errs, ErrSecretMismatch.Error())
	}
	if cl.ExecutionEndpoint != el.AuthRPCURL() {
		errs = append(errs, fmt.Sprintf("%s (got %q, want %q)", ErrEndpointMismatch, cl.ExecutionEndpoint, el.AuthRPCURL()))
	}
	if err := checkPorts(p); err != nil {
		errs = append(errs, err.Error())
	}
	if cl.CheckpointSyncURL != "" {
		u, err := url.Parse(cl.CheckpointSyncURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("consensus: invalid checkpoint sync url %q", cl.CheckpointSyncURL))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// checkPorts rejects two listeners on the same address and port.
func checkPorts(p Pair) error {
	type listener struct {
		name string
		addr string
		port uint16
	}
	ls := []listener{
		{"execution http", p.Execution.HTTPAddr, p.Execution.HTTPPort},
		{"execution authrpc", p.Execution.AuthRPCAddr, p.Execution.AuthRPCPort},
		{"consensus http", p.Consensus.HTTPAddr, p.Consensus.HTTPPort},
	}
	for i := 0; i < len(ls); i++ {
		for j := i + 1; j < len(ls); j++ {
			if ls[i].port != ls[j].port || ls[i].port == 0 {
				continue
			}
			if ls[i].addr == ls[j].addr || isWildcard(ls[i].addr) || isWildcard(ls[j].addr) {
				return fmt.Errorf("%w: %s and %s both use port %d", ErrPortConflict, ls[i].name, ls[j].name, ls[i].port)
			}
		}
	}
	return nil
}

func isWildcard(addr string) bool {
	return addr == "0.0.0.0" || addr == "::" || addr == ""
}

func httpURL(addr string, port uint16) string {
	return "http://" + net.JoinHostPort(addr, strconv.Itoa(int(port)))
}
