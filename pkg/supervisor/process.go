// Package supervisor starts the execution and consensus node processes and keeps
// them alive together: when one exits, the other is stopped.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/salahayoub/ethup/pkg/config"
	"github.com/salahayoub/ethup/pkg/types"
)

// Node is anything that knows its role and how it is invoked.
// config.ExecutionConfig and config.ConsensusConfig implement it.
type Node interface {
	Role() types.Role
	Invocation() config.Invocation
}

// Process is a running node. It is reaped by a background wait started in Spawn.
type Process struct {
	Role    types.Role
	Binary  string
	PID     int
	Started time.Time

	cmd    *exec.Cmd
	output io.ReadCloser // merged stdout/stderr, nil when quiet
	done   chan struct{}
	state  *os.ProcessState
	err    error
}

// Spawn creates the node's data directory and starts its binary with the exact
// argument vector from its configuration. When quiet, both output streams are
// discarded; otherwise they are merged into one pipe for the relay.
func Spawn(node Node, quiet bool) (*Process, error) {
	inv := node.Invocation()
	role := node.Role()

	if inv.DataDir != "" {
		if err := os.MkdirAll(inv.DataDir, 0755); err != nil {
			return nil, &SpawnError{Role: role, Binary: inv.Binary, Err: fmt.Errorf("create data directory: %w", err)}
		}
	}

	cmd := exec.Command(inv.Binary, inv.Args...)
	cmd.SysProcAttr = sysProcAttr()

	var (
		reader *os.File
		writer *os.File
	)
	if !quiet {
		var err error
		reader, writer, err = os.Pipe()
		if err != nil {
			return nil, &SpawnError{Role: role, Binary: inv.Binary, Err: err}
		}
		cmd.Stdout = writer
		cmd.Stderr = writer
	}

	if err := cmd.Start(); err != nil {
		if reader != nil {
			reader.Close()
			writer.Close()
		}
		return nil, &SpawnError{Role: role, Binary: inv.Binary, Err: err}
	}

	p := &Process{
		Role:    role,
		Binary:  inv.Binary,
		PID:     cmd.Process.Pid,
		Started: time.Now(),
		cmd:     cmd,
		done:    make(chan struct{}),
	}
	if writer != nil {
		// The child holds its own copy; ours must go so the reader sees EOF.
		writer.Close()
		p.output = reader
	}

	go func() {
		p.err = cmd.Wait()
		p.state = cmd.ProcessState
		close(p.done)
	}()

	return p, nil
}

// SpawnPair starts the execution node, then the consensus node. If the second
// spawn fails the first process is killed and reaped, so a pair never runs half.
func SpawnPair(el, cl Node, quiet bool) (*Process, *Process, error) {
	elProc, err := Spawn(el, quiet)
	if err != nil {
		return nil, nil, err
	}

	clProc, err := Spawn(cl, quiet)
	if err != nil {
		_ = elProc.kill()
		<-elProc.Done()
		elProc.closeOutput()
		return nil, nil, err
	}

	return elProc, clProc, nil
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has already been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode is the process exit code, or -1 while running or when the process
// was ended by a signal.
func (p *Process) ExitCode() int {
	if !p.Exited() || p.state == nil {
		return -1
	}
	return p.state.ExitCode()
}

// Status describes how the process ended, e.g. "exit status 1".
func (p *Process) Status() string {
	if !p.Exited() {
		return "running"
	}
	if p.state != nil {
		return p.state.String()
	}
	if p.err != nil {
		return p.err.Error()
	}
	return "unknown"
}

func (p *Process) kill() error {
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (p *Process) closeOutput() {
	if p.output != nil {
		p.output.Close()
	}
}
