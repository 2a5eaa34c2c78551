package menu

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/keys"
)

func TestEditBuffer_KillWordLeft(t *testing.T) {
	b, _ := NewEditBuffer("boot linux quiet", MaxLineLen)
	if !b.KillWordLeft() {
		t.Fatal("KillWordLeft reported no change")
	}
	if b.String() != "boot linux " || b.Cursor() != 11 {
		t.Errorf("got %q cursor %d, want %q cursor 11", b.String(), b.Cursor(), "boot linux ")
	}

	// Trailing blanks go together with the word before them.
	if !b.KillWordLeft() || b.String() != "boot " || b.Cursor() != 5 {
		t.Errorf("second kill: got %q cursor %d", b.String(), b.Cursor())
	}
}

func TestEditBuffer_KillWordLeftMidLine(t *testing.T) {
	b, _ := NewEditBuffer("root=/dev/sda1 ro", MaxLineLen)
	b.Left()
	b.Left()
	b.Left()
	b.KillWordLeft()
	if b.String() != " ro" || b.Cursor() != 0 {
		t.Errorf("got %q cursor %d", b.String(), b.Cursor())
	}
}

func TestEditBuffer_Operations(t *testing.T) {
	testCases := []struct {
		name       string
		initial    string
		op         func(b *EditBuffer)
		wantText   string
		wantCursor int
	}{
		{"insert at end", "ab", func(b *EditBuffer) { b.Insert('c') }, "abc", 3},
		{"insert mid", "ac", func(b *EditBuffer) { b.Left(); b.Insert('b') }, "abc", 2},
		{"delete left", "abc", func(b *EditBuffer) { b.DeleteLeft() }, "ab", 2},
		{"delete left at start", "abc", func(b *EditBuffer) { b.Home(); b.DeleteLeft() }, "abc", 0},
		{"delete right", "abc", func(b *EditBuffer) { b.Home(); b.DeleteRight() }, "bc", 0},
		{"delete right at end", "abc", func(b *EditBuffer) { b.DeleteRight() }, "abc", 3},
		{"clear", "abc", func(b *EditBuffer) { b.Clear() }, "", 0},
		{"kill to end", "abcdef", func(b *EditBuffer) { b.Home(); b.Right(); b.Right(); b.KillToEnd() }, "ab", 2},
		{"home end", "abc", func(b *EditBuffer) { b.Home(); b.End() }, "abc", 3},
		{"right at end", "abc", func(b *EditBuffer) { b.Right() }, "abc", 3},
		{"multibyte", "né", func(b *EditBuffer) { b.DeleteLeft(); b.Insert('o') }, "no", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, _ := NewEditBuffer(tc.initial, MaxLineLen)
			tc.op(b)
			if b.String() != tc.wantText || b.Cursor() != tc.wantCursor {
				t.Errorf("got %q cursor %d, want %q cursor %d", b.String(), b.Cursor(), tc.wantText, tc.wantCursor)
			}
			if b.Cursor() < 0 || b.Cursor() > b.Len() || b.Len() >= b.Cap() {
				t.Errorf("bounds broken: cursor %d len %d cap %d", b.Cursor(), b.Len(), b.Cap())
			}
		})
	}
}

func TestEditBuffer_Full(t *testing.T) {
	b, err := NewEditBuffer("abc", 4)
	if err != nil {
		t.Fatalf("NewEditBuffer: %v", err)
	}
	if err := b.Insert('d'); !errors.Is(err, ErrLineFull) {
		t.Fatalf("Insert into full buffer = %v, want ErrLineFull", err)
	}
	if b.String() != "abc" {
		t.Errorf("buffer changed to %q", b.String())
	}

	long, err := NewEditBuffer(strings.Repeat("x", MaxLineLen+10), MaxLineLen)
	if !errors.Is(err, ErrLineFull) {
		t.Errorf("seeding an over-long line = %v, want ErrLineFull", err)
	}
	if long.Len() != MaxLineLen-1 || long.Cursor() != long.Len() {
		t.Errorf("seeded buffer len %d cursor %d", long.Len(), long.Cursor())
	}
}

// lastPaint returns the visible text of the last full paint of row, from
// the move to its first column up to the next cursor move.
func lastPaint(out string, row int) string {
	start := ansi.MoveCursor(row, 1)
	i := strings.LastIndex(out, start)
	if i < 0 {
		return ""
	}
	rest := out[i+len(start):]
	if j := strings.Index(rest, "\x1b["+strconv.Itoa(row)+";"); j >= 0 {
		rest = rest[:j]
	}
	return ansi.StripAnsi(rest)
}

func TestEditCmdline_ShorterLineIsPadded(t *testing.T) {
	h := newHarness(t, testConfig(), press(keys.Tab, keys.Ctrl('W'), keys.Enter))
	h.run(t)

	out := h.out.String()
	if got, want := lastPaint(out, 18), "> boot linux "+strings.Repeat(" ", 5); got != want {
		t.Errorf("row 18 painted as %q, want %q", got, want)
	}
	if !strings.Contains(out, ansi.MoveCursor(18, 3+len("boot linux "))) {
		t.Error("cursor not placed after the shortened line")
	}
}
