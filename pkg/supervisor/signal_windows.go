//go:build windows

package supervisor

import (
	"os"
	"syscall"
)

// requestTermination kills the process. Windows has no SIGTERM equivalent
// that can be delivered to a console child.
func requestTermination(p *os.Process) error {
	return p.Kill()
}

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
