package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/salahayoub/ethup/pkg/config"
	"github.com/salahayoub/ethup/pkg/install"
	"github.com/salahayoub/ethup/pkg/journal"
	"github.com/salahayoub/ethup/pkg/monitor"
	"github.com/salahayoub/ethup/pkg/secret"
	"github.com/salahayoub/ethup/pkg/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run reth and lighthouse until interrupted or until one of them exits",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.Bool("quiet", false, "do not relay node output")
	f.Bool("skip-install", false, "do not download missing binaries")
	f.Duration("shutdown-timeout", 0, "kill nodes that have not stopped this long after the termination request (0 waits forever)")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	f.String("health-addr", "", "serve the gRPC health protocol on this address")
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	shutdownTimeout, err := duration(v, "shutdown-timeout")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pair, err := prepare(ctx, s, !v.GetBool("skip-install"))
	if err != nil {
		return err
	}

	observers, stopServing, err := startMonitors(log, v.GetString("metrics-addr"), v.GetString("health-addr"))
	if err != nil {
		return err
	}
	defer stopServing()

	j, err := journal.Open(s.Layout.JournalFile())
	if err != nil {
		return err
	}
	defer j.Close()

	id, err := j.Begin(s.Chain)
	if err != nil {
		return err
	}
	log := log.With().Uint64("run", id).Str("chain", s.Chain).Logger()

	el, cl, err := supervisor.SpawnPair(pair.Execution, pair.Consensus, v.GetBool("quiet"))
	if err != nil {
		res := journal.Result{Outcome: journal.SpawnFailed, Err: err}
		var spawnErr *supervisor.SpawnError
		if errors.As(err, &spawnErr) {
			res.FailedRole = spawnErr.Role
		}
		finish(log, j, id, res)
		return err
	}

	sup := supervisor.New(supervisor.Options{
		Logger:          log,
		Output:          cmd.OutOrStdout(),
		ShutdownTimeout: shutdownTimeout,
		Observers:       observers,
	})
	err = sup.Run(ctx, el, cl)
	finish(log, j, id, runResult(err))
	return err
}

// prepare provisions everything a run needs and returns the pair to launch.
func prepare(ctx context.Context, s settings, installMissing bool) (config.Pair, error) {
	if err := s.Layout.Ensure(); err != nil {
		return config.Pair{}, err
	}
	jwt, err := secret.Ensure(s.Layout.SecretDir())
	if err != nil {
		return config.Pair{}, err
	}
	// Both nodes would refuse a damaged secret; fail before spawning either.
	if _, err := secret.Read(jwt); err != nil {
		return config.Pair{}, fmt.Errorf("jwt secret %s: %w", jwt, err)
	}

	pair, err := s.pair()
	if err != nil {
		return config.Pair{}, err
	}
	if !installMissing {
		return pair, nil
	}

	elBin, err := install.New(install.Reth, s.Layout, log).Ensure(ctx)
	if err != nil {
		return config.Pair{}, fmt.Errorf("failed to install %s: %w", install.Reth.Name, err)
	}
	clBin, err := install.New(install.Lighthouse, s.Layout, log).Ensure(ctx)
	if err != nil {
		return config.Pair{}, fmt.Errorf("failed to install %s: %w", install.Lighthouse.Name, err)
	}
	pair.Execution.Bin = elBin
	pair.Consensus.Bin = clBin
	return pair, nil
}

// startMonitors opens the optional metrics and health listeners. Listening
// happens before any node is spawned so a busy port fails the run early.
func startMonitors(log zerolog.Logger, metricsAddr, healthAddr string) ([]supervisor.Observer, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	var observers []supervisor.Observer

	if metricsAddr != "" {
		lis, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("failed to listen for metrics on %s: %w", metricsAddr, err)
		}
		m := monitor.NewMetrics(log)
		observers = append(observers, m)
		go func() {
			if err := m.ServeMetrics(ctx, lis); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if healthAddr != "" {
		lis, err := net.Listen("tcp", healthAddr)
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("failed to listen for health checks on %s: %w", healthAddr, err)
		}
		h := monitor.NewHealth(log)
		observers = append(observers, h)
		go func() {
			if err := h.ServeHealth(ctx, lis); err != nil {
				log.Error().Err(err).Msg("health server stopped")
			}
		}()
	}

	return observers, cancel, nil
}

// runResult maps the supervisor result to a journal outcome.
func runResult(err error) journal.Result {
	if err == nil {
		return journal.Result{Outcome: journal.Stopped}
	}
	res := journal.Result{Outcome: journal.Failed, Err: err}
	var exitErr *supervisor.UnexpectedExitError
	if errors.As(err, &exitErr) {
		res.FailedRole = exitErr.Role
		res.ExitCode = exitErr.ExitCode
	}
	return res
}

func finish(log zerolog.Logger, j *journal.Journal, id uint64, res journal.Result) {
	if err := j.Finish(id, res); err != nil {
		log.Warn().Err(err).Msg("failed to record run outcome")
	}
}
