package keys

import (
	"context"
	"io"
	"time"
	"unicode/utf8"
)

// DefaultEscapeTimeout bounds the wait between the bytes of one escape
// sequence. Terminals send a sequence in a single burst, so a lone ESC is
// recognised once this much time passes without a follow-up byte.
const DefaultEscapeTimeout = 100 * time.Millisecond

type chunk struct {
	data []byte
	err  error
}

// Reader decodes keys from an io.Reader. A background goroutine pumps raw
// input into a channel so that every read can be bounded by a timeout, which
// a plain blocking Read on a terminal or SSH channel cannot offer.
type Reader struct {
	chunks        chan chunk
	buf           []byte
	err           error
	EscapeTimeout time.Duration
}

// NewReader starts pumping r. The goroutine exits when r returns an error.
func NewReader(r io.Reader) *Reader {
	kr := &Reader{
		chunks:        make(chan chunk, 16),
		EscapeTimeout: DefaultEscapeTimeout,
	}
	go kr.pump(r)
	return kr
}

func (kr *Reader) pump(r io.Reader) {
	defer close(kr.chunks)
	p := make([]byte, 256)
	for {
		n, err := r.Read(p)
		if n > 0 || err != nil {
			kr.chunks <- chunk{data: append([]byte(nil), p[:n]...), err: err}
		}
		if err != nil {
			return
		}
	}
}

// ReadKey waits up to timeout for one key; a timeout of zero or less waits
// forever. It returns None when the timeout elapses first.
func (kr *Reader) ReadKey(ctx context.Context, timeout time.Duration) (Key, error) {
	b, ok, err := kr.readByte(ctx, timeout)
	if err != nil {
		return None, err
	}
	if !ok {
		return None, nil
	}
	return kr.decode(ctx, b), nil
}

// Pending reports whether input is available within window. The input is
// left in place for the next ReadKey.
func (kr *Reader) Pending(ctx context.Context, window time.Duration) bool {
	if len(kr.buf) > 0 {
		return true
	}
	b, ok, err := kr.readByte(ctx, window)
	if err != nil || !ok {
		return false
	}
	kr.unread(b)
	return true
}

func (kr *Reader) unread(b byte) {
	kr.buf = append([]byte{b}, kr.buf...)
}

// readByte returns the next input byte. ok is false when the timeout
// elapsed first.
func (kr *Reader) readByte(ctx context.Context, timeout time.Duration) (b byte, ok bool, err error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	for len(kr.buf) == 0 {
		if kr.err != nil {
			return 0, false, kr.err
		}
		select {
		case c, open := <-kr.chunks:
			if !open {
				kr.err = io.EOF
				continue
			}
			kr.buf = append(kr.buf, c.data...)
			if c.err != nil {
				kr.err = c.err
			}
		case <-expired:
			return 0, false, nil
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}

	b = kr.buf[0]
	kr.buf = kr.buf[1:]
	return b, true, nil
}

// next reads a follow-up byte of a sequence already in progress.
func (kr *Reader) next(ctx context.Context) (byte, bool) {
	b, ok, err := kr.readByte(ctx, kr.EscapeTimeout)
	if err != nil {
		return 0, false
	}
	return b, ok
}

func (kr *Reader) decode(ctx context.Context, b byte) Key {
	switch {
	case b == byte(Esc):
		peek, ok := kr.next(ctx)
		if !ok {
			return Esc
		}
		switch peek {
		case '[':
			return kr.parseCSI(ctx)
		case 'O':
			return kr.parseSS3(ctx)
		}
		// ESC followed by something else: deliver the ESC now and the
		// byte on the next read.
		kr.unread(peek)
		return Esc

	case b >= 0xC0:
		return kr.decodeUTF8(ctx, b)
	}
	return Key(b)
}

// decodeUTF8 collects the continuation bytes of a multi-byte rune. Input
// that is not valid UTF-8 is delivered byte by byte as Latin-1.
func (kr *Reader) decodeUTF8(ctx context.Context, lead byte) Key {
	seq := []byte{lead}
	for !utf8.FullRune(seq) {
		c, ok := kr.next(ctx)
		if !ok {
			break
		}
		seq = append(seq, c)
	}
	r, size := utf8.DecodeRune(seq)
	if r == utf8.RuneError {
		for i := len(seq) - 1; i >= 1; i-- {
			kr.unread(seq[i])
		}
		return Key(lead)
	}
	for i := len(seq) - 1; i >= size; i-- {
		kr.unread(seq[i])
	}
	return Key(r)
}

// parseCSI parses ANSI CSI escape sequences (ESC[...)
func (kr *Reader) parseCSI(ctx context.Context) Key {
	sequence := make([]byte, 0, 8)
	for len(sequence) < 16 {
		b, ok := kr.next(ctx)
		if !ok {
			break
		}
		sequence = append(sequence, b)

		// Linux console function keys: ESC [ [ A .. ESC [ [ E
		if len(sequence) == 1 && b == '[' {
			kr.next(ctx)
			return Unknown
		}
		if b >= '@' && b <= '~' {
			break
		}
	}

	if len(sequence) == 0 {
		return Esc
	}

	final := sequence[len(sequence)-1]
	switch final {
	case 'A':
		return Up
	case 'B':
		return Down
	case 'C':
		return Right
	case 'D':
		return Left
	case 'H':
		return Home
	case 'F':
		return End
	case '~':
		// Sequences ending with ~ (like 5~ for Page Up); modifiers follow a ';'
		param := sequence[:len(sequence)-1]
		for i, c := range param {
			if c == ';' {
				param = param[:i]
				break
			}
		}
		switch string(param) {
		case "1", "7":
			return Home
		case "2":
			return Insert
		case "3":
			return Delete
		case "4", "8":
			return End
		case "5":
			return PageUp
		case "6":
			return PageDown
		}
	}
	return Unknown
}

// parseSS3 parses SS3 sequences (ESC O...) used by some terminals for cursor keys.
func (kr *Reader) parseSS3(ctx context.Context) Key {
	b, ok := kr.next(ctx)
	if !ok {
		return Esc
	}
	switch b {
	case 'A':
		return Up
	case 'B':
		return Down
	case 'C':
		return Right
	case 'D':
		return Left
	case 'H':
		return Home
	case 'F':
		return End
	}
	return Unknown
}
