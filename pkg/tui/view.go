package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/salahayoub/ethup/pkg/status"
)

const labelWidth = 18

// View renders a Model into a Buffer.
type View struct {
	header *HeaderBar
	footer *FooterBar
}

// NewView creates a View.
func NewView() *View {
	return &View{
		header: NewHeaderBar(),
		footer: NewFooterBar(80),
	}
}

// Render draws the whole dashboard for a width x height terminal.
func (v *View) Render(m *Model, width, height int) *Buffer {
	buf := NewBuffer(width, height)
	if width < 20 || height < 6 {
		buf.DrawString(0, 0, "terminal too small", CurrentStyles.Warning)
		return buf
	}

	headerStyle := CurrentStyles.Header
	if m.Stale() {
		headerStyle = CurrentStyles.Warning.Bold(true)
	}
	buf.DrawStringAligned(0, 0, width, v.header.Render(m), headerStyle, AlignLeft)

	y := 2
	y = v.drawExecution(buf, m, y, width)
	y++
	v.drawConsensus(buf, m, y, width)

	if m.ErrorMessage != "" {
		buf.DrawStringAligned(0, height-2, width, "error: "+m.ErrorMessage, CurrentStyles.Error, AlignLeft)
	}
	v.footer.SetWidth(width)
	buf.DrawStringAligned(0, height-1, width, v.footer.Render(m), CurrentStyles.Muted, AlignLeft)

	return buf
}

func (v *View) drawExecution(buf *Buffer, m *Model, y, width int) int {
	title := "Execution"
	if m.ExecutionStale {
		title += " (stale)"
	}

	var fields []status.Field
	var syncing *status.Syncing
	if m.Execution != nil {
		fields = m.Execution.Fields()
		if s, ok := m.Execution.Sync.(status.Syncing); ok && !s.NotStarted() {
			syncing = &s
		}
	}

	rows := len(fields)
	if rows == 0 {
		rows = 1
	}
	if syncing != nil {
		rows++
	}

	h := rows + 2
	buf.DrawBox(0, y, width, h, title, CurrentStyles.Border, CurrentStyles.Execution)
	row := y + 1
	if m.Execution == nil {
		buf.DrawString(2, row, "no data", CurrentStyles.Muted)
		return y + h
	}
	row = drawFields(buf, fields, row, width)
	if syncing != nil {
		barWidth := width - labelWidth - 16
		if barWidth > 40 {
			barWidth = 40
		}
		NewProgressBar(barWidth).Draw(buf, 2+labelWidth, row, syncing.Percent)
	}
	return y + h
}

func (v *View) drawConsensus(buf *Buffer, m *Model, y, width int) int {
	title := "Consensus"
	if m.ConsensusStale {
		title += " (stale)"
	}

	var fields []status.Field
	if m.Consensus != nil {
		fields = m.Consensus.Fields()
	}
	rows := len(fields)
	if rows == 0 {
		rows = 1
	}

	h := rows + 2
	buf.DrawBox(0, y, width, h, title, CurrentStyles.Border, CurrentStyles.Consensus)
	if m.Consensus == nil {
		buf.DrawString(2, y+1, "no data", CurrentStyles.Muted)
		return y + h
	}
	drawFields(buf, fields, y+1, width)
	return y + h
}

func drawFields(buf *Buffer, fields []status.Field, row, width int) int {
	for _, f := range fields {
		buf.DrawString(2, row, f.Label+":", CurrentStyles.Muted)
		buf.DrawStringAligned(2+labelWidth, row, width-labelWidth-4, f.Value, valueStyle(f), AlignLeft)
		row++
	}
	return row
}

func valueStyle(f status.Field) tcell.Style {
	switch f.Value {
	case "healthy", "Fully synced":
		return CurrentStyles.Success
	case "unhealthy", "offline":
		return CurrentStyles.Error
	case "syncing", "execution not started yet":
		return CurrentStyles.Warning
	}
	return CurrentStyles.Normal
}
