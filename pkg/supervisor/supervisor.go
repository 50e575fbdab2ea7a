package supervisor

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/salahayoub/ethup/pkg/types"
)

// Observer is notified of node lifecycle events during Run. Calls are made from
// the Run goroutine and must not block.
type Observer interface {
	NodeStarted(role types.Role, pid int)
	NodeExited(role types.Role, exitCode int)
	ShutdownStarted()
}

// Options configures a Supervisor.
type Options struct {
	Logger zerolog.Logger

	// Output receives relayed node output. Defaults to os.Stdout.
	Output io.Writer

	// ShutdownTimeout bounds how long Run waits for signalled nodes to exit
	// before killing them. Zero waits indefinitely.
	ShutdownTimeout time.Duration

	Observers []Observer

	// Terminate delivers the termination request. Defaults to SIGTERM
	// (Kill on Windows).
	Terminate func(*Process) error
}

// Supervisor runs one execution/consensus pair to completion.
type Supervisor struct {
	log             zerolog.Logger
	out             io.Writer
	shutdownTimeout time.Duration
	observers       []Observer
	terminate       func(*Process) error
}

// New creates a Supervisor from opts.
func New(opts Options) *Supervisor {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	terminate := opts.Terminate
	if terminate == nil {
		terminate = func(p *Process) error { return requestTermination(p.cmd.Process) }
	}
	return &Supervisor{
		log:             opts.Logger.With().Str("component", "supervisor").Logger(),
		out:             &lockedWriter{w: out},
		shutdownTimeout: opts.ShutdownTimeout,
		observers:       opts.Observers,
		terminate:       terminate,
	}
}

// Run relays node output and waits for the first of: ctx cancellation (the
// operator interrupt), the execution node exiting, or the consensus node
// exiting. It commits to that event only.
//
// On interrupt both nodes are asked to terminate and Run returns nil. When a
// node exits first, the other is asked to terminate and Run returns an
// *UnexpectedExitError naming the node that exited. Signal failures are logged
// and never change the result.
func (s *Supervisor) Run(ctx context.Context, el, cl *Process) error {
	for _, p := range []*Process{el, cl} {
		if p.output != nil {
			go relay(p.output, s.out, p.Role)
		}
		s.log.Info().
			Str("role", string(p.Role)).
			Int("pid", p.PID).
			Str("binary", p.Binary).
			Msg("node running")
		for _, o := range s.observers {
			o.NodeStarted(p.Role, p.PID)
		}
	}

	var exited, survivor *Process
	select {
	case <-ctx.Done():
		s.log.Info().Msg("interrupt received, stopping both nodes")
		s.shutdownStarted()

		var result *multierror.Error
		for _, p := range []*Process{el, cl} {
			if err := s.signal(p); err != nil {
				result = multierror.Append(result, err)
			}
		}
		if err := result.ErrorOrNil(); err != nil {
			s.log.Warn().Err(err).Msg("shutdown was not clean")
		}
		s.reap(el, cl)
		return nil

	case <-el.Done():
		exited, survivor = el, cl
	case <-cl.Done():
		exited, survivor = cl, el
	}

	exitErr := &UnexpectedExitError{
		Role:     exited.Role,
		ExitCode: exited.ExitCode(),
		Status:   exited.Status(),
	}
	s.log.Error().
		Str("role", string(exited.Role)).
		Int("exit_code", exitErr.ExitCode).
		Str("status", exitErr.Status).
		Msg("node exited unexpectedly, stopping its pair")
	s.nodeExited(exited)
	s.shutdownStarted()

	if err := s.signal(survivor); err != nil {
		s.log.Warn().Err(err).Msg("shutdown was not clean")
	}
	s.reap(survivor)

	return exitErr
}

// signal sends one termination request. A process that is already gone is not
// an error.
func (s *Supervisor) signal(p *Process) error {
	s.log.Info().Str("role", string(p.Role)).Int("pid", p.PID).Msg("requesting termination")

	err := s.terminate(p)
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return &SignalError{Role: p.Role, PID: p.PID, Err: err}
}

// reap waits for signalled processes to exit. Once ShutdownTimeout elapses,
// every process still running is killed.
func (s *Supervisor) reap(procs ...*Process) {
	var deadline <-chan time.Time
	if s.shutdownTimeout > 0 {
		timer := time.NewTimer(s.shutdownTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	expired := false
	for _, p := range procs {
		if !expired {
			select {
			case <-p.Done():
			case <-deadline:
				expired = true
			}
		}
		if expired && !p.Exited() {
			s.log.Warn().
				Str("role", string(p.Role)).
				Dur("timeout", s.shutdownTimeout).
				Msg("node did not stop in time, killing")
			if err := p.kill(); err != nil {
				s.log.Error().Err(err).Str("role", string(p.Role)).Msg("kill failed")
			}
			<-p.Done()
		}
		s.log.Info().Str("role", string(p.Role)).Str("status", p.Status()).Msg("node stopped")
		s.nodeExited(p)
	}
}

func (s *Supervisor) nodeExited(p *Process) {
	for _, o := range s.observers {
		o.NodeExited(p.Role, p.ExitCode())
	}
}

func (s *Supervisor) shutdownStarted() {
	for _, o := range s.observers {
		o.ShutdownStarted()
	}
}
