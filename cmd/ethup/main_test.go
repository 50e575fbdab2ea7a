package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salahayoub/ethup/pkg/config"
	"github.com/salahayoub/ethup/pkg/journal"
	"github.com/salahayoub/ethup/pkg/layout"
	"github.com/salahayoub/ethup/pkg/secret"
	"github.com/salahayoub/ethup/pkg/status"
	"github.com/salahayoub/ethup/pkg/supervisor"
	"github.com/salahayoub/ethup/pkg/types"
)

func init() {
	pterm.DisableStyling()
}

func testFlags(home string) *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("home", home, "")
	f.String("config", "", "")
	f.String("chain", "hoodi", "")
	f.Uint("el-http-port", 0, "")
	f.Uint("el-authrpc-port", 0, "")
	f.Uint("cl-http-port", 0, "")
	f.String("checkpoint-sync-url", "", "")
	f.Bool("no-checkpoint-sync", false, "")
	return f
}

func TestInitConfigPrecedence(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("chain: mainnet\ncl-http-port: 6052\n"), 0o644))

	v := viper.New()
	require.NoError(t, initConfig(v, testFlags(home)))
	assert.Equal(t, "mainnet", v.GetString("chain"))
	assert.Equal(t, uint(6052), v.GetUint("cl-http-port"))

	t.Setenv("ETHUP_CHAIN", "sepolia")
	v = viper.New()
	require.NoError(t, initConfig(v, testFlags(home)))
	assert.Equal(t, "sepolia", v.GetString("chain"))

	f := testFlags(home)
	require.NoError(t, f.Set("chain", "hoodi"))
	v = viper.New()
	require.NoError(t, initConfig(v, f))
	assert.Equal(t, "hoodi", v.GetString("chain"))
}

func TestInitConfigMissingFile(t *testing.T) {
	v := viper.New()
	require.NoError(t, initConfig(v, testFlags(t.TempDir())))
	assert.Equal(t, "hoodi", v.GetString("chain"))

	f := testFlags(t.TempDir())
	require.NoError(t, f.Set("config", filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, initConfig(viper.New(), f))
}

func TestLoadSettings(t *testing.T) {
	home := t.TempDir()
	v := viper.New()
	v.Set("home", home)
	v.Set("chain", "mainnet")
	v.Set("el-http-port", 18545)
	v.Set("el-authrpc-port", 18551)
	v.Set("no-checkpoint-sync", true)

	s, err := loadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, home, s.Layout.Root)

	pair, err := s.pair()
	require.NoError(t, err)
	assert.Equal(t, uint16(18545), pair.Execution.HTTPPort)
	assert.Equal(t, "http://127.0.0.1:18551", pair.Consensus.ExecutionEndpoint)
	assert.Empty(t, pair.Consensus.CheckpointSyncURL)
	assert.Equal(t, uint16(config.DefaultCLHTTPPort), pair.Consensus.HTTPPort)
}

func TestLoadSettingsRejects(t *testing.T) {
	v := viper.New()
	v.Set("home", t.TempDir())
	v.Set("chain", "hoodi")
	v.Set("cl-http-port", 70000)
	_, err := loadSettings(v)
	require.Error(t, err)

	v.Set("cl-http-port", 0)
	v.Set("chain", "goerli")
	s, err := loadSettings(v)
	require.NoError(t, err)
	_, err = s.pair()
	require.ErrorIs(t, err, config.ErrUnknownChain)

	v.Set("chain", "hoodi")
	v.Set("el-http-port", 5052)
	s, err = loadSettings(v)
	require.NoError(t, err)
	_, err = s.pair()
	require.ErrorContains(t, err, "port conflict")
}

func TestDurationRejectsNegative(t *testing.T) {
	v := viper.New()
	v.Set("timeout", "-1s")
	_, err := duration(v, "timeout")
	require.Error(t, err)

	v.Set("timeout", "3s")
	d, err := duration(v, "timeout")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn", true)
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"message":"shown"`)

	assert.Equal(t, zerolog.InfoLevel, newLogger(&buf, "bogus", true).GetLevel())
}

func TestRunResult(t *testing.T) {
	assert.Equal(t, journal.Result{Outcome: journal.Stopped}, runResult(nil))

	exitErr := &supervisor.UnexpectedExitError{Role: types.Execution, ExitCode: 1, Status: "exit status 1"}
	res := runResult(exitErr)
	assert.Equal(t, journal.Failed, res.Outcome)
	assert.Equal(t, types.Execution, res.FailedRole)
	assert.Equal(t, 1, res.ExitCode)

	res = runResult(errors.New("boom"))
	assert.Equal(t, journal.Failed, res.Outcome)
	assert.Empty(t, res.FailedRole)
}

func TestWriteInvocations(t *testing.T) {
	s := settings{Layout: layout.New("/srv/ethup"), Chain: "hoodi"}
	pair, err := s.pair()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeInvocations(&buf, pair))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "/srv/ethup/bin/reth node --chain hoodi"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "/srv/ethup/bin/lighthouse bn --network hoodi"), lines[1])
	assert.Contains(t, lines[1], "--execution-endpoint http://127.0.0.1:8551")
}

func TestWriteReport(t *testing.T) {
	snap := status.Snapshot{
		Execution: &status.ExecutionStatus{Version: "reth/v1.3.0", ChainID: 560048, HeadBlock: 255, Sync: status.FullySynced{}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, snap))

	out := buf.String()
	assert.Contains(t, out, "Execution (reth)")
	assert.Contains(t, out, "560048")
	assert.Contains(t, out, "Fully synced")
	assert.NotContains(t, out, "Consensus")
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHistory(&buf, nil))
	assert.Equal(t, "no runs recorded\n", buf.String())

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []journal.Run{
		{ID: 2, Chain: "hoodi", Started: started, Ended: started.Add(90 * time.Second), Outcome: journal.Failed, FailedRole: types.Consensus, ExitCode: 137},
		{ID: 1, Chain: "hoodi", Started: started, Outcome: journal.Running},
	}
	buf.Reset()
	require.NoError(t, writeHistory(&buf, runs))

	out := buf.String()
	assert.Contains(t, out, "consensus exited with code 137")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "running")
}

func TestPrepareRejectsDamagedSecret(t *testing.T) {
	s := settings{Layout: layout.New(t.TempDir()), Chain: "hoodi"}
	require.NoError(t, s.Layout.Ensure())
	jwt := filepath.Join(s.Layout.SecretDir(), secret.FileName)
	require.NoError(t, os.WriteFile(jwt, []byte("abc123\n"), 0o600))

	_, err := prepare(context.Background(), s, false)
	require.ErrorIs(t, err, secret.ErrMalformed)
}

func TestPrepareCreatesSecret(t *testing.T) {
	s := settings{Layout: layout.New(t.TempDir()), Chain: "hoodi"}

	pair, err := prepare(context.Background(), s, false)
	require.NoError(t, err)

	key, err := secret.Read(pair.Execution.JWTPath)
	require.NoError(t, err)
	assert.Len(t, key, secret.Size)
	assert.Equal(t, pair.Execution.JWTPath, pair.Consensus.ExecutionJWT)
}

func TestShutdownTimeoutDefaultsToSingleRequest(t *testing.T) {
	f := runCmd.Flags().Lookup("shutdown-timeout")
	require.NotNil(t, f)
	assert.Equal(t, "0s", f.DefValue)
}
