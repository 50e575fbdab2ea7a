package supervisor

import (
	"fmt"

	"github.com/salahayoub/ethup/pkg/types"
)

// SpawnError means a node could not be started: its data directory could not be
// created or its binary could not be executed. It is never retried.
type SpawnError struct {
	Role   types.Role
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s node (%s): %v", e.Role, e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// SignalError means a termination request could not be delivered.
type SignalError struct {
	Role types.Role
	PID  int
	Err  error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("failed to signal %s node (pid %d): %v", e.Role, e.PID, e.Err)
}

func (e *SignalError) Unwrap() error { return e.Err }

// UnexpectedExitError is returned by Run when a node exits without an operator
// request. A zero exit code is still a failure.
type UnexpectedExitError struct {
	Role     types.Role
	ExitCode int
	Status   string
}

func (e *UnexpectedExitError) Error() string {
	return fmt.Sprintf("%s node exited unexpectedly: %s", e.Role, e.Status)
}
