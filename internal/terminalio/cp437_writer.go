package terminalio

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ansiState tracks the parser state for escape sequences.
type ansiState int

const (
	ansiStateGround  ansiState = iota // Normal text processing
	ansiStateEscape                   // Saw ESC (\x1b)
	ansiStateCSI                      // Saw ESC [ (Control Sequence Introducer)
	ansiStateCharset                  // Saw ESC ( , ESC ) or ESC %: one more byte follows
)

// CP437Writer encodes printable UTF-8 text to CP437 while passing escape
// sequences and control bytes through unmodified. Runes without a CP437 code
// point are written as '?'.
type CP437Writer struct {
	w     io.Writer
	state ansiState
	out   bytes.Buffer // bytes ready for the underlying writer
	text  bytes.Buffer // pending text, may end in an incomplete rune
}

// NewCP437Writer creates a new selective CP437 writer.
func NewCP437Writer(w io.Writer) *CP437Writer {
	return &CP437Writer{w: w}
}

// Write implements io.Writer. A rune split across two calls is held back
// until the rest of it arrives.
func (cw *CP437Writer) Write(p []byte) (int, error) {
	for _, b := range p {
		switch cw.state {
		case ansiStateGround:
			if b == 0x1b {
				cw.flushText()
				cw.out.WriteByte(b)
				cw.state = ansiStateEscape
				continue
			}
			cw.text.WriteByte(b)

		case ansiStateEscape:
			cw.out.WriteByte(b)
			switch b {
			case '[':
				cw.state = ansiStateCSI
			case '(', ')', '%':
				cw.state = ansiStateCharset
			default:
				cw.state = ansiStateGround
			}

		case ansiStateCSI:
			cw.out.WriteByte(b)
			if b >= '@' && b <= '~' {
				cw.state = ansiStateGround
			}

		case ansiStateCharset:
			cw.out.WriteByte(b)
			cw.state = ansiStateGround
		}
	}
	cw.flushText()

	if cw.out.Len() > 0 {
		_, err := cw.w.Write(cw.out.Bytes())
		cw.out.Reset()
		if err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// flushText encodes the pending text into the output buffer. A trailing
// partial rune stays pending.
func (cw *CP437Writer) flushText() {
	data := cw.text.Bytes()
	keep := partialRuneLen(data)
	chunk := data[:len(data)-keep]
	for len(chunk) > 0 {
		r, size := utf8.DecodeRune(chunk)
		chunk = chunk[size:]
		if r < utf8.RuneSelf {
			cw.out.WriteByte(byte(r))
			continue
		}
		if b, ok := charmap.CodePage437.EncodeRune(r); ok && r != utf8.RuneError {
			cw.out.WriteByte(b)
		} else {
			cw.out.WriteByte('?')
		}
	}
	rest := append([]byte(nil), data[len(data)-keep:]...)
	cw.text.Reset()
	cw.text.Write(rest)
}

// partialRuneLen reports how many bytes at the end of data form the start of
// a UTF-8 sequence that is not complete yet.
func partialRuneLen(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if !utf8.RuneStart(b) {
			continue
		}
		if b < utf8.RuneSelf {
			return 0
		}
		if utf8.FullRune(data[len(data)-i:]) {
			return 0
		}
		return i
	}
	return 0
}
