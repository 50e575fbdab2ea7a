package tui

import (
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Alignment for DrawStringAligned.
const (
	AlignLeft = iota
	AlignCenter
	AlignRight
)

// Cell represents a single character in the terminal.
type Cell struct {
	Rune  rune
	Style tcell.Style
}

// Buffer is an off-screen render target. Drawing outside it is clipped.
type Buffer struct {
	Cells  [][]Cell
	Width  int
	Height int
}

// NewBuffer creates a buffer filled with blanks in the normal style.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
		for x := range cells[y] {
			cells[y][x] = Cell{Rune: ' ', Style: CurrentStyles.Normal}
		}
	}
	return &Buffer{Cells: cells, Width: width, Height: height}
}

// ApplyToScreen copies the buffer onto screen.
func (b *Buffer) ApplyToScreen(screen tcell.Screen) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cell := b.Cells[y][x]
			screen.SetContent(x, y, cell.Rune, nil, cell.Style)
		}
	}
}

// Set writes a rune at (x, y).
func (b *Buffer) Set(x, y int, r rune, style tcell.Style) {
	if x >= 0 && x < b.Width && y >= 0 && y < b.Height {
		b.Cells[y][x] = Cell{Rune: r, Style: style}
	}
}

// DrawString writes s starting at (x, y) and returns the column after it.
func (b *Buffer) DrawString(x, y int, s string, style tcell.Style) int {
	col := x
	for _, r := range s {
		b.Set(col, y, r, style)
		col++
	}
	return col
}

// DrawStringAligned writes s within [x, x+width), truncating it if needed.
func (b *Buffer) DrawStringAligned(x, y, width int, s string, style tcell.Style, align int) {
	n := utf8.RuneCountInString(s)
	if n > width {
		s = string([]rune(s)[:width])
		n = width
	}

	spaces := width - n
	switch align {
	case AlignCenter:
		x += spaces / 2
	case AlignRight:
		x += spaces
	}
	b.DrawString(x, y, s, style)
}

// DrawBox draws a rounded border with an optional title in the top edge.
func (b *Buffer) DrawBox(x, y, w, h int, title string, style, titleStyle tcell.Style) {
	if w < 2 || h < 2 {
		return
	}

	b.Set(x, y, '╭', style)
	b.Set(x+w-1, y, '╮', style)
	b.Set(x, y+h-1, '╰', style)
	b.Set(x+w-1, y+h-1, '╯', style)

	for i := 1; i < w-1; i++ {
		b.Set(x+i, y, '─', style)
		b.Set(x+i, y+h-1, '─', style)
	}
	for i := 1; i < h-1; i++ {
		b.Set(x, y+i, '│', style)
		b.Set(x+w-1, y+i, '│', style)
	}

	if title != "" && w > 4 {
		b.DrawStringAligned(x+2, y, w-4, " "+title+" ", titleStyle, AlignLeft)
	}
}

// FillRect fills a rectangle with r.
func (b *Buffer) FillRect(x, y, w, h int, r rune, style tcell.Style) {
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			b.Set(x+j, y+i, r, style)
		}
	}
}

// Line returns row y as plain text. Used by tests.
func (b *Buffer) Line(y int) string {
	if y < 0 || y >= b.Height {
		return ""
	}
	runes := make([]rune, b.Width)
	for x, cell := range b.Cells[y] {
		runes[x] = cell.Rune
	}
	return string(runes)
}
