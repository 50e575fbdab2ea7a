package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// ProgressBar renders execution sync progress as a bar.
type ProgressBar struct {
	width int
}

// NewProgressBar creates a bar of width cells, excluding brackets and label.
func NewProgressBar(width int) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{width: width}
}

// Render outputs "[████████░░] 80.00%" for the given percentage.
func (p *ProgressBar) Render(percent float64) string {
	percent = clamp(percent)
	filled := p.filled(percent)

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strings.Repeat("█", filled))
	sb.WriteString(strings.Repeat("░", p.width-filled))
	sb.WriteString("]")
	sb.WriteString(fmt.Sprintf(" %.2f%%", percent))
	return sb.String()
}

// Draw paints the bar into buf at (x, y) and returns the column after it.
func (p *ProgressBar) Draw(buf *Buffer, x, y int, percent float64) int {
	percent = clamp(percent)
	filled := p.filled(percent)
	style := p.Style(percent)

	buf.Set(x, y, '[', CurrentStyles.Muted)
	buf.FillRect(x+1, y, filled, 1, '█', style)
	buf.FillRect(x+1+filled, y, p.width-filled, 1, '░', CurrentStyles.BarEmpty)
	buf.Set(x+1+p.width, y, ']', CurrentStyles.Muted)
	return buf.DrawString(x+p.width+3, y, fmt.Sprintf("%.2f%%", percent), CurrentStyles.Normal)
}

// Style picks the bar color: red below 50%, yellow below 99%, green above.
func (p *ProgressBar) Style(percent float64) tcell.Style {
	switch {
	case percent < 50:
		return CurrentStyles.Error
	case percent < 99:
		return CurrentStyles.Warning
	default:
		return CurrentStyles.Success
	}
}

func (p *ProgressBar) filled(percent float64) int {
	n := int(percent / 100 * float64(p.width))
	if n > p.width {
		n = p.width
	}
	return n
}

func clamp(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
