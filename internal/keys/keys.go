// Package keys turns the byte stream from a terminal into key codes.
package keys

import "fmt"

// Key is a decoded keypress. Printable keys carry their rune value; special
// keys live above the Unicode range so the two never collide.
type Key rune

// None is returned by a timed read when no key arrived in time.
const None Key = -1

// Control characters.
const (
	Backspace Key = 0x08
	Tab       Key = 0x09
	Enter     Key = 0x0D
	Esc       Key = 0x1B
	Del       Key = 0x7F // DEL byte, sent by most terminals for Backspace
)

// Special keys decoded from escape sequences.
const (
	Up Key = 0x110000 + iota
	Down
	Left
	Right
	PageUp
	PageDown
	Home
	End
	Insert
	Delete  // the Delete key, not the DEL byte
	Unknown // an escape sequence that maps to nothing
)

// Ctrl returns the key produced by holding Ctrl with the letter c.
func Ctrl(c byte) Key {
	return Key(c & 0x1f)
}

// IsPrintable reports whether k inserts text.
func (k Key) IsPrintable() bool {
	return k >= ' ' && k != Del && k < 0x110000 && !(k >= 0x80 && k < 0xA0)
}

var specialNames = map[Key]string{
	None:      "None",
	Backspace: "Backspace",
	Tab:       "Tab",
	Enter:     "Enter",
	Esc:       "Escape",
	Del:       "DEL",
	Up:        "Up",
	Down:      "Down",
	Left:      "Left",
	Right:     "Right",
	PageUp:    "PgUp",
	PageDown:  "PgDn",
	Home:      "Home",
	End:       "End",
	Insert:    "Insert",
	Delete:    "Delete",
	Unknown:   "Unknown",
}

// String returns a human-readable name for a key code
func (k Key) String() string {
	if name, ok := specialNames[k]; ok {
		return name
	}
	if k >= 0 && k < ' ' {
		return fmt.Sprintf("Ctrl+%c", rune(k)+'@')
	}
	if k.IsPrintable() {
		return string(rune(k))
	}
	return fmt.Sprintf("Key(%#x)", int(k))
}
