// Package screen is the styled output sink the boot menu paints through:
// cursor addressing, palette slots and box glyph runs over a single
// exclusively owned terminal writer.
package screen

import (
	"bufio"
	"io"
	"strings"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/terminalio"
)

const noStyle Style = -1

// Screen buffers output until Flush. The first write error sticks and is
// reported by Flush.
type Screen struct {
	w       *bufio.Writer
	mode    ansi.OutputMode
	palette Palette
	cur     Style // style last emitted, noStyle when unknown
}

// New creates a screen writing to w. mode must already be resolved.
func New(w io.Writer, mode ansi.OutputMode, palette Palette) *Screen {
	return &Screen{
		w:       bufio.NewWriterSize(terminalio.NewWriter(w, mode), 4096),
		mode:    mode,
		palette: palette,
		cur:     noStyle,
	}
}

// Mode returns the output mode glyphs are drawn in.
func (s *Screen) Mode() ansi.OutputMode {
	return s.mode
}

// Clear selects the charsets, hides the cursor and clears the whole screen
// in the screen style.
func (s *Screen) Clear() {
	s.w.WriteString(ansi.CharsetInit(s.mode))
	s.SetStyle(StyleScreen)
	s.w.WriteString(ansi.HideCursor())
	s.w.WriteString(ansi.ClearScreen())
}

// MoveTo positions the cursor (1-based row and column).
func (s *Screen) MoveTo(row, col int) {
	s.w.WriteString(ansi.MoveCursor(row, col))
}

// SetStyle makes st the active style. Nothing is written when it already is.
func (s *Screen) SetStyle(st Style) {
	if st == s.cur {
		return
	}
	s.w.WriteString(ansi.SGR(s.palette[st]))
	s.cur = st
}

// Put writes text in style st.
func (s *Screen) Put(st Style, text string) {
	s.SetStyle(st)
	s.w.WriteString(text)
}

// PutRune writes a single rune in style st.
func (s *Screen) PutRune(st Style, r rune) {
	s.SetStyle(st)
	s.w.WriteRune(r)
}

// Glyphs draws box glyphs in style st.
func (s *Screen) Glyphs(st Style, glyphs ...ansi.Glyph) {
	s.SetStyle(st)
	s.w.WriteString(ansi.GlyphRun(s.mode, glyphs...))
}

// HLine draws left, inner horizontal bars and right as one glyph run.
func (s *Screen) HLine(st Style, left ansi.Glyph, inner int, right ansi.Glyph) {
	run := make([]ansi.Glyph, 0, inner+2)
	run = append(run, left)
	for i := 0; i < inner; i++ {
		run = append(run, ansi.GlyphHorizontal)
	}
	run = append(run, right)
	s.Glyphs(st, run...)
}

// Spaces writes n blanks in style st.
func (s *Screen) Spaces(st Style, n int) {
	if n <= 0 {
		return
	}
	s.Put(st, strings.Repeat(" ", n))
}

// EraseLine clears from the cursor to the end of the line; the cleared
// cells take the background of st.
func (s *Screen) EraseLine(st Style) {
	s.SetStyle(st)
	s.w.WriteString(ansi.EraseLine())
}

// RubOut erases n cells to the left of the cursor with backspace, space,
// backspace.
func (s *Screen) RubOut(st Style, n int) {
	if n <= 0 {
		return
	}
	s.Put(st, strings.Repeat("\b \b", n))
}

// ShowCursor toggles cursor visibility.
func (s *Screen) ShowCursor(visible bool) {
	if visible {
		s.w.WriteString(ansi.ShowCursor())
	} else {
		s.w.WriteString(ansi.HideCursor())
	}
}

// Reset returns the terminal to its default attributes.
func (s *Screen) Reset() {
	s.w.WriteString(ansi.Reset())
	s.cur = noStyle
}

// Flush sends buffered output to the terminal.
func (s *Screen) Flush() error {
	return s.w.Flush()
}
