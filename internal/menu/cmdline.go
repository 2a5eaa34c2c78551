package menu

import (
	"log"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/stlalpha/bootmenu/internal/keys"
	"github.com/stlalpha/bootmenu/internal/screen"
)

// EditBuffer is a bounded single-line text buffer with a cursor. It always
// holds 0 <= Cursor <= Len < Cap.
type EditBuffer struct {
	buf    []rune
	cursor int
	cap    int
}

// NewEditBuffer returns a buffer holding text with the cursor at the end.
// Text that does not fit is cut to capacity-1 runes and ErrLineFull is
// returned along with the buffer.
func NewEditBuffer(text string, capacity int) (*EditBuffer, error) {
	if capacity < 1 {
		capacity = 1
	}
	var err error
	rs := []rune(text)
	if len(rs) > capacity-1 {
		rs = rs[:capacity-1]
		err = ErrLineFull
	}
	buf := make([]rune, len(rs), capacity)
	copy(buf, rs)
	return &EditBuffer{buf: buf, cursor: len(buf), cap: capacity}, err
}

func (b *EditBuffer) Len() int       { return len(b.buf) }
func (b *EditBuffer) Cap() int       { return b.cap }
func (b *EditBuffer) Cursor() int    { return b.cursor }
func (b *EditBuffer) String() string { return string(b.buf) }

// AtEnd reports whether the cursor is past the last character.
func (b *EditBuffer) AtEnd() bool { return b.cursor == len(b.buf) }

// Insert puts r at the cursor and advances it.
func (b *EditBuffer) Insert(r rune) error {
	if len(b.buf) >= b.cap-1 {
		return ErrLineFull
	}
	b.buf = append(b.buf, 0)
	copy(b.buf[b.cursor+1:], b.buf[b.cursor:])
	b.buf[b.cursor] = r
	b.cursor++
	return nil
}

// DeleteLeft removes the character before the cursor.
func (b *EditBuffer) DeleteLeft() bool {
	if b.cursor == 0 {
		return false
	}
	b.buf = append(b.buf[:b.cursor-1], b.buf[b.cursor:]...)
	b.cursor--
	return true
}

// DeleteRight removes the character under the cursor.
func (b *EditBuffer) DeleteRight() bool {
	if b.cursor >= len(b.buf) {
		return false
	}
	b.buf = append(b.buf[:b.cursor], b.buf[b.cursor+1:]...)
	return true
}

// Clear empties the line.
func (b *EditBuffer) Clear() bool {
	if len(b.buf) == 0 {
		return false
	}
	b.buf = b.buf[:0]
	b.cursor = 0
	return true
}

// KillWordLeft deletes the blanks before the cursor and the word before them.
func (b *EditBuffer) KillWordLeft() bool {
	if b.cursor == 0 {
		return false
	}
	end := b.cursor
	for b.cursor > 0 && unicode.IsSpace(b.buf[b.cursor-1]) {
		b.cursor--
	}
	for b.cursor > 0 && !unicode.IsSpace(b.buf[b.cursor-1]) {
		b.cursor--
	}
	b.buf = append(b.buf[:b.cursor], b.buf[end:]...)
	return true
}

// KillToEnd truncates the line at the cursor.
func (b *EditBuffer) KillToEnd() bool {
	if b.cursor >= len(b.buf) {
		return false
	}
	b.buf = b.buf[:b.cursor]
	return true
}

// Left moves the cursor back one character.
func (b *EditBuffer) Left() bool {
	if b.cursor == 0 {
		return false
	}
	b.cursor--
	return true
}

// Right moves the cursor forward one character and returns the character
// it moved over.
func (b *EditBuffer) Right() (rune, bool) {
	if b.cursor >= len(b.buf) {
		return 0, false
	}
	r := b.buf[b.cursor]
	b.cursor++
	return r, true
}

// Home moves the cursor to the start of the line.
func (b *EditBuffer) Home() bool {
	if b.cursor == 0 {
		return false
	}
	b.cursor = 0
	return true
}

// End moves the cursor past the last character.
func (b *EditBuffer) End() bool {
	if b.cursor == len(b.buf) {
		return false
	}
	b.cursor = len(b.buf)
	return true
}

// widthTo returns the cell width of the text before the cursor.
func (b *EditBuffer) widthTo() int {
	return runewidth.StringWidth(string(b.buf[:b.cursor]))
}

type redraw int

const (
	redrawNone redraw = iota
	redrawLine
	redrawAll
)

// editCmdline runs the line editor on the command line row, starting from
// text. It returns the edited line and true on confirm, or false when the
// edit was cancelled. The menu is expected to be on screen already.
func (s *session) editCmdline(text string) (string, bool, error) {
	b, err := NewEditBuffer(text, MaxLineLen)
	if err != nil {
		log.Printf("WARN: menu: command line longer than %d characters, editing the first %d", MaxLineLen-1, b.Len())
	}
	row := s.params.CmdlineRow
	state := redrawLine
	prevWidth := 0

	for {
		if state == redrawAll {
			s.scr.Clear()
			s.drawMenu(-1, s.top, true)
			prevWidth = 0
		}

		if state != redrawNone {
			line := b.String()
			w := runewidth.StringWidth(line)
			s.scr.ShowCursor(false)
			s.scr.MoveTo(row, 1)
			s.scr.Put(screen.StyleCmdMark, "> ")
			s.scr.Put(screen.StyleCmdLine, line)
			s.scr.Spaces(screen.StyleCmdLine, prevWidth-w)
			s.scr.MoveTo(row, 3+b.widthTo())
			s.scr.ShowCursor(true)
			prevWidth = w
			state = redrawNone
		}

		key, err := s.nextKey(0)
		if err != nil {
			return "", false, err
		}

		switch key {
		case keys.Ctrl('L'):
			state = redrawAll

		case keys.Enter, keys.Ctrl('J'):
			return b.String(), true, nil

		case keys.Esc, keys.Ctrl('C'):
			return "", false, nil

		case keys.Backspace, keys.Del:
			if b.DeleteLeft() {
				state = redrawLine
			}

		case keys.Ctrl('D'), keys.Delete:
			if b.DeleteRight() {
				state = redrawLine
			}

		case keys.Ctrl('U'):
			if b.Clear() {
				state = redrawLine
			}

		case keys.Ctrl('W'):
			if b.KillWordLeft() {
				state = redrawLine
			}

		case keys.Ctrl('K'):
			if b.KillToEnd() {
				state = redrawLine
			}

		case keys.Left, keys.Ctrl('B'):
			if b.Left() {
				state = redrawLine
			}

		case keys.Right, keys.Ctrl('F'):
			if r, ok := b.Right(); ok {
				s.scr.PutRune(screen.StyleCmdLine, r)
			}

		case keys.Home, keys.Ctrl('A'):
			if b.Home() {
				state = redrawLine
			}

		case keys.End, keys.Ctrl('E'):
			if b.End() {
				state = redrawLine
			}

		default:
			if !key.IsPrintable() {
				break
			}
			atEnd := b.AtEnd()
			if err := b.Insert(rune(key)); err != nil {
				break
			}
			if atEnd {
				s.scr.PutRune(screen.StyleCmdLine, rune(key))
				prevWidth += runewidth.RuneWidth(rune(key))
			} else {
				state = redrawLine
			}
		}
	}
}
