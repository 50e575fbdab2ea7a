//go:build !windows

package supervisor

import (
	"os"
	"syscall"
)

// requestTermination sends SIGTERM so the node can flush its database.
func requestTermination(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// sysProcAttr puts each node in its own process group so a terminal Ctrl+C
// reaches only ethup, which then stops the nodes itself.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
