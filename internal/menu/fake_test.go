package menu

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/keys"
	"github.com/stlalpha/bootmenu/internal/screen"
)

// tick is the time unit used by the scripted tests.
const tick = time.Second

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// step delivers key once after has elapsed since the previous key.
type step struct {
	key   keys.Key
	after time.Duration
}

// scriptedKeys replays steps against a fake clock. Once the script is used
// up it idles: timed reads let the time pass, untimed reads fail with EOF.
type scriptedKeys struct {
	clock *fakeClock
	steps []step
	reads int
}

func press(ks ...keys.Key) []step {
	steps := make([]step, len(ks))
	for i, k := range ks {
		steps[i] = step{key: k}
	}
	return steps
}

func typed(s string) []step {
	var ks []keys.Key
	for _, r := range s {
		ks = append(ks, keys.Key(r))
	}
	return press(ks...)
}

func script(parts ...[]step) []step {
	var all []step
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

func (k *scriptedKeys) ReadKey(ctx context.Context, timeout time.Duration) (keys.Key, error) {
	k.reads++
	if err := ctx.Err(); err != nil {
		return keys.None, err
	}
	if len(k.steps) == 0 {
		if timeout <= 0 {
			return keys.None, io.EOF
		}
		k.clock.now = k.clock.now.Add(timeout)
		return keys.None, nil
	}
	st := &k.steps[0]
	if timeout > 0 && st.after > timeout {
		st.after -= timeout
		k.clock.now = k.clock.now.Add(timeout)
		return keys.None, nil
	}
	k.clock.now = k.clock.now.Add(st.after)
	k.steps = k.steps[1:]
	return st.key, nil
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testEntries() []Entry {
	return []Entry{
		NewEntry("linux", "^Linux", "boot linux quiet", ""),
		NewEntry("rescue", "^Rescue shell", "boot linux single", ""),
		NewEntry("memtest", "^Memtest86+", "memtest", "abc"),
		NewEntry("local", "Boot from ^hard disk", ".localboot 0x80", ""),
	}
}

func testConfig() *Config {
	return &Config{
		Title:     "Boot Menu",
		Entries:   testEntries(),
		AllowEdit: true,
		Params:    DefaultParams(),
		Palette:   screen.DefaultPalette(),
	}
}

type harness struct {
	clock *fakeClock
	keys  *scriptedKeys
	out   bytes.Buffer
	menu  *Menu
}

func newHarness(t *testing.T, cfg *Config, steps []step, opts ...Option) *harness {
	t.Helper()
	h := &harness{clock: &fakeClock{now: epoch}}
	h.keys = &scriptedKeys{clock: h.clock, steps: steps}
	opts = append([]Option{WithClock(h.clock)}, opts...)
	m, err := New(cfg, &h.out, ansi.OutputModeUTF8, h.keys, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.menu = m
	return h
}

func (h *harness) run(t *testing.T) (string, bool) {
	t.Helper()
	line, ok, err := h.menu.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return line, ok
}

func (h *harness) elapsed() time.Duration {
	return h.clock.now.Sub(epoch)
}

// newTestSession returns a session drawing into out, for exercising the
// rendering and navigation pieces directly.
func newTestSession(cfg *Config, out io.Writer) *session {
	m := &Menu{cfg: cfg, mode: ansi.OutputModeUTF8, clock: systemClock{}, hotkeys: cfg.Hotkeys()}
	return &session{
		Menu:   m,
		ctx:    context.Background(),
		scr:    screen.New(out, ansi.OutputModeUTF8, cfg.Palette),
		params: cfg.Params,
		to:     timeouts{clock: systemClock{}, unlimited: true},
		sel:    cfg.Default,
	}
}
