package terminalio

import (
	"bytes"
	"testing"

	"github.com/stlalpha/bootmenu/internal/ansi"
)

func TestCP437Writer_EncodesBoxDrawing(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, ansi.OutputModeCP437)

	if _, err := w.Write([]byte("┌─┐")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	want := []byte{0xDA, 0xC4, 0xBF}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("unexpected output: got % x want % x", out.Bytes(), want)
	}
}

func TestCP437Writer_PreservesEscapes(t *testing.T) {
	var out bytes.Buffer
	w := NewCP437Writer(&out)

	input := "\x1b[0;37;44m│\x1b(B\x1b[4;11H▒"
	if _, err := w.Write([]byte(input)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	want := "\x1b[0;37;44m\xB3\x1b(B\x1b[4;11H\xB1"
	if out.String() != want {
		t.Fatalf("unexpected output: got %q want %q", out.String(), want)
	}
}

func TestCP437Writer_SplitRune(t *testing.T) {
	var out bytes.Buffer
	w := NewCP437Writer(&out)

	r := []byte("é")
	w.Write(r[:1])
	if out.Len() != 0 {
		t.Fatalf("partial rune should be held back, got % x", out.Bytes())
	}
	w.Write(r[1:])
	if !bytes.Equal(out.Bytes(), []byte{0x82}) {
		t.Fatalf("unexpected output: got % x", out.Bytes())
	}
}

func TestCP437Writer_UnsupportedRune(t *testing.T) {
	var out bytes.Buffer
	w := NewCP437Writer(&out)
	w.Write([]byte("a☃b"))

	if out.String() != "a?b" {
		t.Fatalf("unexpected output: got %q", out.String())
	}
}

func TestNewWriter_UTF8Passthrough(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, ansi.OutputModeUTF8)
	w.Write([]byte("Hello π"))

	if out.String() != "Hello π" {
		t.Fatalf("valid UTF-8 should pass through unchanged: got %q", out.String())
	}
}
