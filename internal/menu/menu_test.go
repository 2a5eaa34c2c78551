package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/keys"
)

func TestNew_Errors(t *testing.T) {
	ks := &scriptedKeys{clock: &fakeClock{}}

	if _, err := New(&Config{Params: DefaultParams()}, io.Discard, ansi.OutputModeUTF8, ks); !errors.Is(err, ErrNoEntries) {
		t.Errorf("New without entries = %v, want ErrNoEntries", err)
	}

	cfg := testConfig()
	cfg.Default = len(cfg.Entries)
	if _, err := New(cfg, io.Discard, ansi.OutputModeUTF8, ks); err == nil {
		t.Error("expected error for default entry out of range")
	}

	cfg = testConfig()
	cfg.Params.Margin = 40
	if _, err := New(cfg, io.Discard, ansi.OutputModeUTF8, ks); err == nil {
		t.Error("expected error for a layout with no room for entries")
	}
}

func TestRun_Select(t *testing.T) {
	testCases := []struct {
		name  string
		steps []step
		want  string
	}{
		{"enter on default", press(keys.Enter), "boot linux quiet"},
		{"ctrl-j confirms", press(keys.Ctrl('J')), "boot linux quiet"},
		{"down", press(keys.Down, keys.Enter), "boot linux single"},
		{"down clamps at end", press(keys.Down, keys.Down, keys.Down, keys.Down, keys.Down, keys.Enter), ".localboot 0x80"},
		{"up clamps at start", press(keys.Up, keys.Ctrl('P'), keys.Enter), "boot linux quiet"},
		{"end then up", press(keys.End, keys.Up, keys.Up, keys.Ctrl('N'), keys.Ctrl('N'), keys.Enter), ".localboot 0x80"},
		{"home", press(keys.End, keys.Home, keys.Enter), "boot linux quiet"},
		{"page down clamps", press(keys.PageDown, keys.Enter), ".localboot 0x80"},
		{"space pages", press(' ', '<', keys.Enter), "boot linux quiet"},
		{"plus and minus", press('+', '+', '+', '-', keys.Enter), "memtest-unreachable"},
		{"hotkey", press('h', keys.Enter), ".localboot 0x80"},
		{"hotkey upper case", press('R', keys.Enter), "boot linux single"},
		{"unknown key ignored", press('z', keys.Unknown, keys.Insert, keys.Enter), "boot linux quiet"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			// Keep the protected entry out of the way of plain selection.
			cfg.Entries[2] = NewEntry("memtest", "^Memtest86+", "memtest-unreachable", "")
			h := newHarness(t, cfg, tc.steps)

			line, ok := h.run(t)
			if !ok || line != tc.want {
				t.Errorf("Run() = %q, %v; want %q, true", line, ok, tc.want)
			}
		})
	}
}

func TestNavigate_WindowInvariant(t *testing.T) {
	navKeys := []keys.Key{
		keys.Up, keys.Down, keys.PageUp, keys.PageDown, keys.Left, keys.Right,
		keys.Home, keys.End, '<', '>', ' ', '+', '-', 'a', 'b', 'q',
		keys.Ctrl('P'), keys.Ctrl('N'), keys.Ctrl('A'), keys.Ctrl('E'),
	}
	rng := rand.New(rand.NewSource(1))

	for n := 1; n <= 30; n++ {
		for rows := 1; rows <= 14; rows++ {
			cfg := testConfig()
			cfg.Entries = nil
			for i := 0; i < n; i++ {
				cfg.Entries = append(cfg.Entries, NewEntry("e", "^"+string(rune('a'+i%26))+"entry", "cmd", ""))
			}
			cfg.Params.Rows = rows
			s := newTestSession(cfg, io.Discard)

			for i := 0; i < 200; i++ {
				s.navigate(navKeys[rng.Intn(len(navKeys))])
				s.normalize()

				if n > rows {
					if s.top < 0 || s.top > s.sel || s.sel > s.top+rows-1 {
						t.Fatalf("n=%d rows=%d: top=%d sel=%d breaks the window", n, rows, s.top, s.sel)
					}
				} else if s.top != 0 {
					t.Fatalf("n=%d rows=%d: top=%d, want 0", n, rows, s.top)
				}
				if s.sel < 0 || s.sel >= n {
					t.Fatalf("n=%d rows=%d: sel=%d out of range", n, rows, s.sel)
				}
			}
		}
	}
}

func TestNavigate_HotkeyIdempotent(t *testing.T) {
	s := newTestSession(testConfig(), io.Discard)

	s.navigate('r')
	s.normalize()
	first := s.sel
	s.navigate('r')
	s.normalize()

	if first != 1 || s.sel != first {
		t.Errorf("hotkey jumps: first %d, second %d; want 1 both times", first, s.sel)
	}
}

func TestHotkeys_LastEntryWins(t *testing.T) {
	cfg := testConfig()
	cfg.Entries = append(cfg.Entries, NewEntry("later", "^rebuild", "rebuild", ""))

	if i := cfg.Hotkeys()['R']; i != len(cfg.Entries)-1 {
		t.Errorf("hotkey R maps to %d, want %d", i, len(cfg.Entries)-1)
	}
}

func TestHotkeyOf(t *testing.T) {
	testCases := []struct {
		display string
		want    rune
	}{
		{"^Linux", 'L'},
		{"Boot from ^hard disk", 'H'},
		{"no marker", 0},
		{"trailing ^", 0},
		{"^ space", 0},
		{"^émigré", 'É'},
	}
	for _, tc := range testCases {
		if got := HotkeyOf(tc.display); got != tc.want {
			t.Errorf("HotkeyOf(%q) = %q, want %q", tc.display, got, tc.want)
		}
	}
}

func TestRun_Edit(t *testing.T) {
	testCases := []struct {
		name  string
		steps []step
		want  string
		ok    bool
	}{
		{"unchanged", press(keys.Tab, keys.Enter), "boot linux quiet", true},
		{"kill word", press(keys.Tab, keys.Ctrl('W'), keys.Enter), "boot linux ", true},
		{"append", script(press(keys.Tab), typed(" nomodeset"), press(keys.Enter)), "boot linux quiet nomodeset", true},
		{"insert at start", script(press(keys.Tab, keys.Home), typed("x "), press(keys.Enter)), "x boot linux quiet", true},
		{"backspace", press(keys.Tab, keys.Backspace, keys.Del, keys.Enter), "boot linux qui", true},
		{"kill to end", press(keys.Tab, keys.Ctrl('A'), keys.Right, keys.Right, keys.Right, keys.Right, keys.Ctrl('K'), keys.Enter), "boot", true},
		{"delete right", press(keys.Tab, keys.Home, keys.Delete, keys.Ctrl('D'), keys.Enter), "ot linux quiet", true},
		{"cleared line is a result", press(keys.Tab, keys.Ctrl('U'), keys.Enter), "", true},
		{"redraw keeps text", press(keys.Tab, keys.Ctrl('L'), keys.Ctrl('E'), keys.Enter), "boot linux quiet", true},
		{"cancel returns to menu", press(keys.Tab, keys.Ctrl('U'), keys.Esc, keys.Down, keys.Enter), "boot linux single", true},
		{"edit selected entry", press(keys.Down, keys.Tab, keys.Ctrl('W'), keys.Enter), "boot linux ", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			h := newHarness(t, cfg, tc.steps)

			line, ok := h.run(t)
			if ok != tc.ok || line != tc.want {
				t.Errorf("Run() = %q, %v; want %q, %v", line, ok, tc.want, tc.ok)
			}
			if cfg.Entries[0].Cmdline != "boot linux quiet" || cfg.Entries[1].Cmdline != "boot linux single" {
				t.Error("editing changed the stored command lines")
			}
		})
	}
}

func TestRun_EditNotAllowed(t *testing.T) {
	cfg := testConfig()
	cfg.AllowEdit = false
	h := newHarness(t, cfg, press(keys.Tab, keys.Esc, keys.Ctrl('C'), keys.Down, keys.Enter))

	line, ok := h.run(t)
	if !ok || line != "boot linux single" {
		t.Errorf("Run() = %q, %v; want Tab and Esc ignored", line, ok)
	}
	if strings.Contains(ansi.StripAnsi(h.out.String()), tabMessage) {
		t.Error("tab message shown although editing is off")
	}
}

func TestRun_Abort(t *testing.T) {
	for _, k := range []keys.Key{keys.Esc, keys.Ctrl('C')} {
		h := newHarness(t, testConfig(), press(keys.Down, k))
		line, ok := h.run(t)
		if ok || line != "" {
			t.Errorf("%v: Run() = %q, %v; want no selection", k, line, ok)
		}
	}
}

func TestRun_MasterPassword(t *testing.T) {
	testCases := []struct {
		name  string
		steps []step
		want  string
		ok    bool
	}{
		{"abort with password", script(press(keys.Esc), typed("pw"), press(keys.Enter)), "", false},
		{"abort with wrong password", script(press(keys.Esc), typed("no"), press(keys.Enter, keys.Enter)), "boot linux quiet", true},
		{"edit with password", script(press(keys.Tab), typed("pw"), press(keys.Enter, keys.Ctrl('W'), keys.Enter)), "boot linux ", true},
		{"edit with wrong password", script(press(keys.Tab), typed("px"), press(keys.Enter, keys.Down, keys.Enter)), "boot linux single", true},
		{"master unlocks entry", script(press(keys.Down, keys.Down, keys.Enter), typed("pw"), press(keys.Enter)), "memtest", true},
		{"entry password still works", script(press(keys.Down, keys.Down, keys.Enter), typed("abc"), press(keys.Enter)), "memtest", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MasterPassword = "pw"
			h := newHarness(t, cfg, tc.steps)

			line, ok := h.run(t)
			if ok != tc.ok || line != tc.want {
				t.Errorf("Run() = %q, %v; want %q, %v", line, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestRun_EntryPassword(t *testing.T) {
	testCases := []struct {
		name  string
		steps []step
		want  string
	}{
		{"correct", script(press(keys.Down, keys.Down, keys.Enter), typed("abc"), press(keys.Enter)), "memtest"},
		{"wrong", script(press(keys.Down, keys.Down, keys.Enter), typed("abd"), press(keys.Enter, keys.Up, keys.Enter)), "boot linux single"},
		{"empty", press(keys.Down, keys.Down, keys.Enter, keys.Enter, keys.Up, keys.Enter), "boot linux single"},
		{"cancelled", script(press(keys.Down, keys.Down, keys.Enter), typed("abc"), press(keys.Esc, keys.Up, keys.Enter)), "boot linux single"},
		{"backspace", script(press(keys.Down, keys.Down, keys.Enter), typed("abx"), press(keys.Backspace), typed("c"), press(keys.Enter)), "memtest"},
		{"kill line", script(press(keys.Down, keys.Down, keys.Enter), typed("zzz"), press(keys.Ctrl('U')), typed("abc"), press(keys.Enter)), "memtest"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, testConfig(), tc.steps)

			line, ok := h.run(t)
			if !ok || line != tc.want {
				t.Errorf("Run() = %q, %v; want %q", line, ok, tc.want)
			}
			if strings.Contains(h.out.String(), "abc") {
				t.Error("password echoed to the terminal")
			}
		})
	}
}

func TestRun_SessionTimeout(t *testing.T) {
	testCases := []struct {
		name  string
		steps []step
	}{
		{"idle", nil},
		{"after moving", press(keys.Down, keys.Down, keys.Down)},
		{"inside password prompt", script(press(keys.Down, keys.Down, keys.Enter), typed("ab"))},
		{"inside editor", script(press(keys.Down, keys.Tab), typed("xyz"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.TotalTimeout = 5 * tick
			h := newHarness(t, cfg, tc.steps)

			line, ok := h.run(t)
			if !ok || line != "boot linux quiet" {
				t.Errorf("Run() = %q, %v; want the default entry", line, ok)
			}
			if h.elapsed() != 5*tick {
				t.Errorf("resolved after %v, want %v", h.elapsed(), 5*tick)
			}
		})
	}
}

func TestRun_OnTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 3 * tick
	cfg.OnTimeout = "fallback"
	h := newHarness(t, cfg, nil)

	line, ok := h.run(t)
	if !ok || line != "fallback" {
		t.Errorf("Run() = %q, %v; want the ontimeout command", line, ok)
	}
	if h.elapsed() != 3*tick {
		t.Errorf("resolved after %v, want %v", h.elapsed(), 3*tick)
	}
}

func TestRun_KeyTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Default = 1
	cfg.Timeout = 10 * tick
	h := newHarness(t, cfg, nil)

	line, ok := h.run(t)
	if !ok || line != "boot linux single" {
		t.Errorf("Run() = %q, %v; want the default entry", line, ok)
	}
	if h.elapsed() != 10*tick {
		t.Errorf("resolved after %v, want %v", h.elapsed(), 10*tick)
	}

	text := ansi.StripAnsi(h.out.String())
	for _, want := range []string{"Automatic boot in 10 seconds", "Automatic boot in 1 seconds"} {
		if !strings.Contains(text, want) {
			t.Errorf("countdown never showed %q", want)
		}
	}
}

func TestRun_KeyTimeoutCancelledByNavigation(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * tick
	steps := script(
		press(keys.Down, keys.Up),
		[]step{{key: keys.Down, after: 15 * tick}},
		press(keys.Enter),
	)
	h := newHarness(t, cfg, steps)

	line, ok := h.run(t)
	if !ok || line != "boot linux single" {
		t.Errorf("Run() = %q, %v; the countdown fired after navigation", line, ok)
	}
}

func TestRun_KeyTimeoutRestartsOnOtherKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * tick
	h := newHarness(t, cfg, []step{{key: 'z', after: 5 * tick}})

	line, ok := h.run(t)
	if !ok || line != "boot linux quiet" {
		t.Errorf("Run() = %q, %v; want the default entry", line, ok)
	}
	if h.elapsed() != 15*tick {
		t.Errorf("resolved after %v, want %v", h.elapsed(), 15*tick)
	}
}

func TestRun_ShiftKey(t *testing.T) {
	cfg := testConfig()
	cfg.ShiftKey = true
	cfg.Default = 3

	h := newHarness(t, cfg, nil, WithModifierProbe(ModifierProbeFunc(func() bool { return false })))
	line, ok := h.run(t)
	if !ok || line != ".localboot 0x80" {
		t.Errorf("Run() = %q, %v; want the default entry", line, ok)
	}
	if h.out.Len() != 0 || h.keys.reads != 0 {
		t.Errorf("fast path drew %d bytes and read %d keys", h.out.Len(), h.keys.reads)
	}

	h = newHarness(t, cfg, press(keys.Home, keys.Enter), WithModifierProbe(ModifierProbeFunc(func() bool { return true })))
	line, ok = h.run(t)
	if !ok || line != "boot linux quiet" {
		t.Errorf("Run() with modifier held = %q, %v", line, ok)
	}
}

func TestRun_Errors(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	if _, _, err := h.menu.Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Run on a closed key source = %v, want EOF", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h = newHarness(t, testConfig(), press(keys.Enter))
	if _, _, err := h.menu.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run with a cancelled context = %v, want context.Canceled", err)
	}
}

func TestRun_Redraw(t *testing.T) {
	h := newHarness(t, testConfig(), press(keys.Down, keys.Ctrl('L'), keys.Enter))
	h.run(t)
	out := h.out.String()

	if n := strings.Count(out, ansi.ClearScreen()); n != 2 {
		t.Errorf("screen cleared %d times, want 2", n)
	}
	// Moving within the window repaints rows, not the frame.
	if n := strings.Count(out, "┌"); n != 2 {
		t.Errorf("frame drawn %d times, want 2", n)
	}
	if !bytes.HasSuffix(h.out.Bytes(), []byte(ansi.ShowCursor()+ansi.MoveCursor(24, 1)+ansi.Reset())) {
		t.Errorf("cursor not restored on exit: %q", out[max(0, len(out)-40):])
	}
}

func TestRun_RefusedMasterPasswordRedrawsOnce(t *testing.T) {
	cfg := testConfig()
	cfg.MasterPassword = "pw"
	h := newHarness(t, cfg, script(press(keys.Tab), typed("px"), press(keys.Enter, keys.Down, keys.Enter)))

	if line, ok := h.run(t); !ok || line != "boot linux single" {
		t.Fatalf("Run() = %q, %v", line, ok)
	}
	// Once at start, once after the password box closes.
	if n := strings.Count(h.out.String(), ansi.ClearScreen()); n != 2 {
		t.Errorf("screen cleared %d times, want 2", n)
	}
}
