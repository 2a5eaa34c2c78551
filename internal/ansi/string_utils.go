package ansi

import (
	"strings"
)

// StripAnsi removes CSI sequences, charset designations and SO/SI shifts,
// leaving the text a viewer would see (DEC graphics bytes stay as their
// ASCII letters).
func StripAnsi(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 0x0e || c == 0x0f:
			// shift in / shift out
		case c == 0x1b && i+1 < len(s) && s[i+1] == '[':
			i += 2
			for i < len(s) && !(s[i] >= '@' && s[i] <= '~') {
				i++
			}
		case c == 0x1b && i+2 < len(s) && strings.IndexByte("()%", s[i+1]) >= 0:
			i += 2
		case c == 0x1b:
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// VisibleLength returns the number of visible bytes in s once escape
// sequences are removed.
func VisibleLength(s string) int {
	return len(StripAnsi(s))
}
