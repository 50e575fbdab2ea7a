package tui

import "github.com/gdamore/tcell/v2"

// Theme defines the color palette for the dashboard.
type Theme struct {
	Primary    tcell.Color
	Background tcell.Color
	Text       tcell.Color
	Muted      tcell.Color
	Success    tcell.Color
	Warning    tcell.Color
	Error      tcell.Color
	Execution  tcell.Color
	Consensus  tcell.Color
}

// DefaultTheme defines the dark mode colors.
var DefaultTheme = Theme{
	Primary:    tcell.NewRGBColor(99, 102, 241),  // Indigo
	Background: tcell.NewRGBColor(15, 23, 42),    // Slate 900
	Text:       tcell.NewRGBColor(226, 232, 240), // Slate 200
	Muted:      tcell.NewRGBColor(148, 163, 184), // Slate 400
	Success:    tcell.NewRGBColor(34, 197, 94),   // Green 500
	Warning:    tcell.NewRGBColor(234, 179, 8),   // Yellow 500
	Error:      tcell.NewRGBColor(239, 68, 68),   // Red 500
	Execution:  tcell.NewRGBColor(56, 189, 248),  // Sky 400
	Consensus:  tcell.NewRGBColor(217, 70, 239),  // Fuchsia 500
}

// Styles container for dashboard styles.
type Styles struct {
	Normal    tcell.Style
	Bold      tcell.Style
	Muted     tcell.Style
	Success   tcell.Style
	Warning   tcell.Style
	Error     tcell.Style
	Header    tcell.Style
	Border    tcell.Style
	Execution tcell.Style
	Consensus tcell.Style
	BarEmpty  tcell.Style
}

// GetStyles returns the style definitions for a theme.
func GetStyles(theme Theme) Styles {
	base := tcell.StyleDefault.Background(theme.Background).Foreground(theme.Text)

	return Styles{
		Normal:    base,
		Bold:      base.Bold(true),
		Muted:     base.Foreground(theme.Muted),
		Success:   base.Foreground(theme.Success),
		Warning:   base.Foreground(theme.Warning),
		Error:     base.Foreground(theme.Error),
		Header:    base.Foreground(theme.Primary).Bold(true),
		Border:    base.Foreground(theme.Muted),
		Execution: base.Foreground(theme.Execution).Bold(true),
		Consensus: base.Foreground(theme.Consensus).Bold(true),
		BarEmpty:  base.Foreground(theme.Muted),
	}
}

// CurrentStyles holds the global styles instance.
var CurrentStyles = GetStyles(DefaultTheme)
