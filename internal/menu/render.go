package menu

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/screen"
)

// Align selects where AlignText places text inside its field.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

const tabMessage = "Press [Tab] to edit options"

// AlignText fits text into a field width cells wide, truncating and
// padding with spaces. It returns false and no text when width is not
// below MaxLineLen.
func AlignText(text string, align Align, width int) (string, bool) {
	if width >= MaxLineLen || width < 0 {
		return "", false
	}
	t := runewidth.Truncate(text, width, "")
	n := runewidth.StringWidth(t)
	p := ((width - n) * int(align)) >> 1
	return strings.Repeat(" ", p) + t + strings.Repeat(" ", width-n-p), true
}

// scrollbar is the thumb position in screen rows. The zero value leaves
// the scrollbar column alone.
type scrollbar struct {
	top, bot int
}

// thumb returns the length and offset of the scrollbar thumb for n entries
// in a window of rows starting at entry top. Both are 0 when no scrollbar
// is needed.
func thumb(n, rows, top int) (length, offset int) {
	if n <= rows {
		return 0, 0
	}
	length = rows * rows / n
	offset = (rows - length + 1) * top / (n - rows + 1)
	return length, offset
}

func scrollbarFor(n, rows, top int) scrollbar {
	if n <= rows {
		return scrollbar{}
	}
	length, offset := thumb(n, rows, top)
	return scrollbar{top: firstRow + offset, bot: firstRow + offset + length - 1}
}

// innerWidth is the number of cells available to an entry's text.
func (s *session) innerWidth() int {
	return s.params.Width - 2*s.params.Margin - 4
}

// drawEntry writes the entry's display text into a field of width cells.
// The hotkey is drawn in hot; everything else, including the padding, in
// normal, which is also the active style on return.
func (s *session) drawEntry(e Entry, normal, hot screen.Style, width int) {
	s.scr.SetStyle(normal)
	rs := []rune(e.Display)
	i := 0
	for width > 0 {
		if i >= len(rs) {
			s.scr.Spaces(normal, width)
			return
		}
		r := rs[i]
		if r == HotkeyMarker {
			i++
			if i < len(rs) && unicode.ToUpper(rs[i]) == e.Hotkey {
				w := runewidth.RuneWidth(rs[i])
				if w > width {
					break
				}
				s.scr.PutRune(hot, rs[i])
				s.scr.SetStyle(normal)
				width -= w
				i++
			}
			continue
		}
		w := runewidth.RuneWidth(r)
		if w > width {
			break
		}
		s.scr.PutRune(normal, r)
		width -= w
		i++
	}
	s.scr.Spaces(normal, width)
}

// drawRow paints screen row y for the window starting at top.
func (s *session) drawRow(y, sel, top int, sb scrollbar) {
	i := y - firstRow + top
	normal, hot := screen.StyleUnsel, screen.StyleHotkey
	if i == sel {
		normal, hot = screen.StyleSel, screen.StyleHotSel
	}

	s.scr.MoveTo(y, s.params.Margin+1)
	s.scr.Glyphs(screen.StyleBorder, ansi.GlyphVertical)
	s.scr.Put(normal, " ")

	if i < 0 || i >= len(s.cfg.Entries) {
		s.scr.Spaces(normal, s.innerWidth())
	} else {
		s.drawEntry(s.cfg.Entries[i], normal, hot, s.innerWidth())
	}

	s.scr.Put(normal, " ")
	switch {
	case len(s.cfg.Entries) <= s.params.Rows:
		s.scr.Glyphs(screen.StyleBorder, ansi.GlyphVertical)
	case sb.top > 0:
		if y >= sb.top && y <= sb.bot {
			s.scr.Glyphs(screen.StyleScrollbar, ansi.GlyphShade)
		} else {
			s.scr.Glyphs(screen.StyleBorder, ansi.GlyphVertical)
		}
	}
}

// drawMenu paints the whole frame. A sel of -1 highlights nothing.
func (s *session) drawMenu(sel, top int, editLine bool) {
	p := s.params
	bar := p.Width - 2*p.Margin - 2
	sb := scrollbarFor(len(s.cfg.Entries), p.Rows, top)

	s.scr.MoveTo(1, p.Margin+1)
	s.scr.HLine(screen.StyleBorder, ansi.GlyphTopLeft, bar, ansi.GlyphTopRight)

	s.scr.MoveTo(2, p.Margin+1)
	s.scr.Glyphs(screen.StyleBorder, ansi.GlyphVertical)
	if title, ok := AlignText(s.cfg.Title, AlignCenter, s.innerWidth()); ok {
		s.scr.Put(screen.StyleTitle, " "+title+" ")
	}
	s.scr.Glyphs(screen.StyleBorder, ansi.GlyphVertical)

	s.scr.MoveTo(3, p.Margin+1)
	s.scr.HLine(screen.StyleBorder, ansi.GlyphLeftTee, bar, ansi.GlyphRightTee)

	y := firstRow
	for ; y < firstRow+p.Rows; y++ {
		s.drawRow(y, sel, top, sb)
	}

	s.scr.MoveTo(y, p.Margin+1)
	s.scr.HLine(screen.StyleBorder, ansi.GlyphBottomLeft, bar, ansi.GlyphBottomRight)

	if editLine && s.cfg.AllowEdit && s.cfg.MasterPassword == "" {
		if msg, ok := AlignText(tabMessage, AlignCenter, p.Width); ok {
			s.scr.MoveTo(p.TabMsgRow, 1)
			s.scr.Put(screen.StyleTabMsg, msg)
		}
	}

	s.scr.SetStyle(screen.StyleScreen)
	s.scr.MoveTo(p.EndRow, 1)
}

// drawCountdown shows the auto-boot message centered on the timeout row.
func (s *session) drawCountdown(secs int) {
	n := len(fmt.Sprintf(" Automatic boot in %d seconds ", secs))
	s.scr.MoveTo(s.params.TimeoutRow, 1+((s.params.Width-n)>>1))
	s.scr.Put(screen.StyleTimeoutMsg, " Automatic boot in ")
	s.scr.Put(screen.StyleTimeout, strconv.Itoa(secs))
	s.scr.Put(screen.StyleTimeoutMsg, " seconds ")
}

// clearRow blanks a whole screen row in the screen style.
func (s *session) clearRow(row int) {
	s.scr.MoveTo(row, 1)
	s.scr.EraseLine(screen.StyleScreen)
}
