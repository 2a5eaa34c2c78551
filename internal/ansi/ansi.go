// Package ansi holds the escape sequences and glyph tables used to paint the
// boot menu on a character-cell terminal.
package ansi

import (
	"fmt"
	"strings"
)

// OutputMode defines how line-drawing glyphs and text reach the terminal.
type OutputMode int

const (
	OutputModeAuto  OutputMode = iota // Detect from TERM / LANG
	OutputModeUTF8                    // Unicode box drawing, UTF-8 text
	OutputModeCP437                   // Unicode box drawing transcoded to CP437 bytes
	OutputModeVT100                   // DEC special graphics on G1, shifted in with SO/SI
)

func (m OutputMode) String() string {
	switch m {
	case OutputModeUTF8:
		return "utf8"
	case OutputModeCP437:
		return "cp437"
	case OutputModeVT100:
		return "vt100"
	default:
		return "auto"
	}
}

// ParseOutputMode maps a flag or config value to an OutputMode.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return OutputModeAuto, nil
	case "utf8", "utf-8":
		return OutputModeUTF8, nil
	case "cp437", "ansi":
		return OutputModeCP437, nil
	case "vt100", "dec":
		return OutputModeVT100, nil
	}
	return OutputModeAuto, fmt.Errorf("invalid output mode %q (want auto, utf8, cp437 or vt100)", s)
}

// Resolve turns OutputModeAuto into a concrete mode using the TERM and LANG
// values of the session. Concrete modes are returned unchanged.
func (m OutputMode) Resolve(term, lang string) OutputMode {
	if m != OutputModeAuto {
		return m
	}
	l := strings.ToLower(lang)
	if strings.Contains(l, "utf-8") || strings.Contains(l, "utf8") {
		return OutputModeUTF8
	}
	switch t := strings.ToLower(term); {
	case t == "ansi", t == "pcansi", t == "scoansi", strings.HasPrefix(t, "ansi-bbs"):
		return OutputModeCP437
	}
	return OutputModeVT100
}

// Glyph identifies a box drawing cell.
type Glyph int

const (
	GlyphHorizontal Glyph = iota
	GlyphVertical
	GlyphTopLeft
	GlyphTopRight
	GlyphBottomLeft
	GlyphBottomRight
	GlyphLeftTee
	GlyphRightTee
	GlyphShade
)

// DEC special graphics characters, selected on G1 and shifted in with SO.
var vt100Glyphs = [...]byte{
	GlyphHorizontal:  'q',
	GlyphVertical:    'x',
	GlyphTopLeft:     'l',
	GlyphTopRight:    'k',
	GlyphBottomLeft:  'm',
	GlyphBottomRight: 'j',
	GlyphLeftTee:     't',
	GlyphRightTee:    'u',
	GlyphShade:       'a',
}

// Unicode equivalents. Every one of them has a CP437 code point, so the
// CP437 writer can transcode them.
var unicodeGlyphs = [...]rune{
	GlyphHorizontal:  '─',
	GlyphVertical:    '│',
	GlyphTopLeft:     '┌',
	GlyphTopRight:    '┐',
	GlyphBottomLeft:  '└',
	GlyphBottomRight: '┘',
	GlyphLeftTee:     '├',
	GlyphRightTee:    '┤',
	GlyphShade:       '▒',
}

const (
	shiftOut = "\x0e" // SO: switch to G1
	shiftIn  = "\x0f" // SI: back to G0
)

// GlyphRun returns the bytes that draw glyphs in order. In VT100 mode the
// whole run is wrapped in a single SO/SI pair.
func GlyphRun(mode OutputMode, glyphs ...Glyph) string {
	var b strings.Builder
	if mode == OutputModeVT100 {
		b.WriteString(shiftOut)
		for _, g := range glyphs {
			b.WriteByte(vt100Glyphs[g])
		}
		b.WriteString(shiftIn)
		return b.String()
	}
	for _, g := range glyphs {
		b.WriteRune(unicodeGlyphs[g])
	}
	return b.String()
}

// CharsetInit returns the sequence that puts the terminal's character sets
// into the state GlyphRun expects: ASCII on G0 and, for VT100 mode, DEC
// graphics on G1. G1 is designated first so the Linux console is not confused.
func CharsetInit(mode OutputMode) string {
	switch mode {
	case OutputModeVT100:
		return "\x1b%@\x1b)0\x1b(B"
	case OutputModeUTF8:
		return "\x1b(B"
	}
	return ""
}

// ClearScreen clears the whole screen and homes the cursor.
func ClearScreen() string {
	return "\x1b[2J\x1b[H"
}

// MoveCursor returns an ANSI escape sequence to move the cursor to the specified row and column.
// Rows and columns are 1-indexed (1,1 is top-left).
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

// EraseLine clears from the cursor to the end of the line.
func EraseLine() string {
	return "\x1b[K"
}

// HideCursor and ShowCursor toggle cursor visibility (DECTCEM).
func HideCursor() string { return "\x1b[?25l" }
func ShowCursor() string { return "\x1b[?25h" }

// Reset returns all attributes to the terminal default.
func Reset() string {
	return "\x1b[0m"
}

// SGR builds a Select Graphic Rendition sequence from a parameter list such
// as "1;36;44". Attributes are reset first so nothing leaks from the
// previous style.
func SGR(params string) string {
	if params == "" {
		return Reset()
	}
	return "\x1b[0;" + params + "m"
}
