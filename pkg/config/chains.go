package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/salahayoub/ethup/pkg/layout"
)

// ErrUnknownChain is returned by Profile for chains without a built-in profile.
var ErrUnknownChain = errors.New("unknown chain")

// Default listeners. Everything binds loopback; the pair is co-located.
const (
	DefaultAddr       = "127.0.0.1"
	DefaultELHTTPPort = 8545
	DefaultELAuthPort = 8551
	DefaultCLHTTPPort = 5052
	DefaultELName     = "reth"
	DefaultCLName     = "lighthouse"
	JWTFileName       = "jwt.hex"
)

// checkpointSync maps a chain to its public checkpoint sync provider.
var checkpointSync = map[string]string{
	"hoodi":   "https://checkpoint-sync.hoodi.ethpandaops.io",
	"mainnet": "https://mainnet.checkpoint.sigp.io",
	"sepolia": "https://checkpoint-sync.sepolia.ethpandaops.io",
}

// Chains returns the names of the built-in profiles, sorted.
func Chains() []string {
	names := make([]string, 0, len(checkpointSync))
	for name := range checkpointSync {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile builds the reth + lighthouse pair for chain under the given layout.
func Profile(chain string, l layout.Layout) (Pair, error) {
	checkpoint, ok := checkpointSync[chain]
	if !ok {
		return Pair{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownChain, chain, Chains())
	}

	jwt := filepath.Join(l.SecretDir(), JWTFileName)

	el := ExecutionConfig{
		Name:        DefaultELName,
		Bin:         filepath.Join(l.BinDir(), DefaultELName),
		Chain:       chain,
		DataDir:     filepath.Join(l.DataDir(), DefaultELName+"-"+chain),
		HTTPAddr:    DefaultAddr,
		HTTPPort:    DefaultELHTTPPort,
		AuthRPCAddr: DefaultAddr,
		AuthRPCPort: DefaultELAuthPort,
		JWTPath:     jwt,
	}

	cl := ConsensusConfig{
		Name:              DefaultCLName,
		Bin:               filepath.Join(l.BinDir(), DefaultCLName),
		Chain:             chain,
		DataDir:           filepath.Join(l.DataDir(), DefaultCLName+"-"+chain),
		HTTPAddr:          DefaultAddr,
		HTTPPort:          DefaultCLHTTPPort,
		ExecutionEndpoint: el.AuthRPCURL(),
		ExecutionJWT:      jwt,
		CheckpointSyncURL: checkpoint,
	}

	return Pair{Execution: el, Consensus: cl}, nil
}

// Overrides are operator adjustments applied on top of a profile.
// Zero values leave the profile untouched.
type Overrides struct {
	ELHTTPPort            uint16
	ELAuthRPCPort         uint16
	CLHTTPPort            uint16
	CheckpointSyncURL     string
	DisableCheckpointSync bool
}

// Apply returns a copy of p with o applied. The consensus execution endpoint
// follows the execution auth port.
func (p Pair) Apply(o Overrides) Pair {
	if o.ELHTTPPort != 0 {
		p.Execution.HTTPPort = o.ELHTTPPort
	}
	if o.ELAuthRPCPort != 0 {
		p.Execution.AuthRPCPort = o.ELAuthRPCPort
	}
	if o.CLHTTPPort != 0 {
		p.Consensus.HTTPPort = o.CLHTTPPort
	}
	if o.CheckpointSyncURL != "" {
		p.Consensus.CheckpointSyncURL = o.CheckpointSyncURL
	}
	if o.DisableCheckpointSync {
		p.Consensus.CheckpointSyncURL = ""
	}
	p.Consensus.ExecutionEndpoint = p.Execution.AuthRPCURL()
	return p
}
