package tui

import (
	"fmt"
	"time"
)

// HeaderBar renders the dashboard title line.
type HeaderBar struct{}

// NewHeaderBar creates a header bar renderer.
func NewHeaderBar() *HeaderBar {
	return &HeaderBar{}
}

// Render outputs the header text.
// Format: "ethup · hoodi | updated 15:04:05" with " | STALE" appended when
// part of the data is out of date.
func (h *HeaderBar) Render(m *Model) string {
	updated := "waiting for first refresh"
	if !m.LastUpdated.IsZero() {
		updated = "updated " + m.LastUpdated.Local().Format(time.TimeOnly)
	}

	text := fmt.Sprintf("ethup · %s | %s", m.Chain, updated)
	if m.Stale() {
		text += " | STALE"
	}
	return text
}
