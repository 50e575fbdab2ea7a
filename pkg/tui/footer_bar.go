package tui

import "fmt"

// FooterBar renders the keyboard shortcuts footer.
type FooterBar struct {
	terminalWidth int
}

// NewFooterBar creates a footer bar renderer.
func NewFooterBar(width int) *FooterBar {
	return &FooterBar{terminalWidth: width}
}

// SetWidth updates the terminal width for the footer bar.
func (f *FooterBar) SetWidth(width int) {
	f.terminalWidth = width
}

// Render outputs the footer bar content.
// Full (width >= 60): "r: Refresh | q: Quit | every 2s"
// Abbreviated: "r:Ref q:Quit"
func (f *FooterBar) Render(m *Model) string {
	if f.terminalWidth < 60 {
		return "r:Ref q:Quit"
	}
	return fmt.Sprintf("r: Refresh | q: Quit | every %s", m.RefreshInterval)
}
