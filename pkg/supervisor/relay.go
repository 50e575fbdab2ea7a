package supervisor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pterm/pterm"

	"github.com/salahayoub/ethup/pkg/types"
)

// maxLineSize bounds one relayed line.
const maxLineSize = 1024 * 1024

// truncatedMark ends a relayed line that was cut at maxLineSize.
const truncatedMark = " [truncated]"

var roleStyles = map[types.Role]*pterm.Style{
	types.Execution: pterm.NewStyle(pterm.FgLightBlue, pterm.Bold),
	types.Consensus: pterm.NewStyle(pterm.FgLightMagenta, pterm.Bold),
}

// Prefix returns the colored "[EL]" or "[CL]" tag for a role.
func Prefix(role types.Role) string {
	tag := "[" + role.Tag() + "]"
	if style, ok := roleStyles[role]; ok {
		return style.Sprint(tag)
	}
	return tag
}

// relay copies lines from r to w, each prefixed with the role tag, until r
// reaches EOF. Lines longer than maxLineSize are cut and marked; the rest of
// such a line is read and dropped. It closes r on return.
func relay(r io.ReadCloser, w io.Writer, role types.Role) {
	defer r.Close()

	prefix := Prefix(role)
	br := bufio.NewReaderSize(r, maxLineSize)
	skipping := false
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if !skipping {
				fmt.Fprintf(w, "%s %s%s\n", prefix, line, truncatedMark)
				skipping = true
			}
			continue
		}
		if len(line) > 0 && !skipping {
			fmt.Fprintf(w, "%s %s\n", prefix, bytes.TrimRight(line, "\r\n"))
		}
		skipping = false

		if err != nil {
			// The node may still hold the write end; keep it from blocking
			// or hitting a closed pipe.
			_, _ = io.Copy(io.Discard, r)
			return
		}
	}
}

// lockedWriter serializes whole-line writes from the two relays.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
