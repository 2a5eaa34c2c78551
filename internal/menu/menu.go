// Package menu is the interactive boot menu: it draws the entry list,
// handles navigation, the auto-boot countdown, password prompts and command
// line editing, and resolves to the command line to boot.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/keys"
	"github.com/stlalpha/bootmenu/internal/logging"
	"github.com/stlalpha/bootmenu/internal/screen"
)

// ModifierProbe reports whether the operator is holding a modifier key
// when the menu starts. It is only asked when Config.ShiftKey is set.
type ModifierProbe interface {
	ModifierHeld() bool
}

// ModifierProbeFunc adapts a function to ModifierProbe.
type ModifierProbeFunc func() bool

func (f ModifierProbeFunc) ModifierHeld() bool { return f() }

// Option customizes a Menu.
type Option func(*Menu)

// WithClock replaces the system clock used for timeouts.
func WithClock(c Clock) Option {
	return func(m *Menu) { m.clock = c }
}

// WithModifierProbe sets the probe consulted in shift-key mode.
func WithModifierProbe(p ModifierProbe) Option {
	return func(m *Menu) { m.probe = p }
}

// Menu runs interactive sessions over one terminal.
type Menu struct {
	cfg     *Config
	out     io.Writer
	mode    ansi.OutputMode
	keys    KeySource
	clock   Clock
	probe   ModifierProbe
	hotkeys map[rune]int
}

// New prepares a menu for cfg. Output goes to out in the given mode (Auto
// is resolved from the environment); keystrokes come from ks.
func New(cfg *Config, out io.Writer, mode ansi.OutputMode, ks KeySource, opts ...Option) (*Menu, error) {
	if len(cfg.Entries) == 0 {
		return nil, ErrNoEntries
	}
	if cfg.Default < 0 || cfg.Default >= len(cfg.Entries) {
		return nil, fmt.Errorf("menu: default entry %d out of range (%d entries)", cfg.Default, len(cfg.Entries))
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	m := &Menu{
		cfg:     cfg,
		out:     out,
		mode:    mode.Resolve(os.Getenv("TERM"), os.Getenv("LANG")),
		keys:    ks,
		clock:   systemClock{},
		hotkeys: cfg.Hotkeys(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// session is the state of one Run.
type session struct {
	*Menu
	ctx    context.Context
	scr    *screen.Screen
	params Params
	to     timeouts
	sel    int
	top    int
}

// Run shows the menu until the operator picks an entry, aborts, or a
// timeout fires. It returns the command line to boot and true, or false
// when the operator left the menu without choosing.
func (m *Menu) Run(ctx context.Context) (string, bool, error) {
	def := m.cfg.DefaultEntry()
	if m.cfg.ShiftKey && (m.probe == nil || !m.probe.ModifierHeld()) {
		logging.Debug("menu: no modifier held, booting default %q", def.Label)
		return def.Cmdline, true, nil
	}

	s := &session{
		Menu:   m,
		ctx:    ctx,
		scr:    screen.New(m.out, m.mode, m.cfg.Palette),
		params: m.cfg.Params,
		to: timeouts{
			clock:     m.clock,
			total:     m.cfg.TotalTimeout,
			unlimited: m.cfg.TotalTimeout <= 0,
		},
		sel: m.cfg.Default,
	}

	line, ok, err := s.browse()
	if errors.Is(err, errSessionTimeout) {
		line, ok, err = s.timedOut(), true, nil
	}

	s.scr.ShowCursor(true)
	s.scr.MoveTo(s.params.EndRow, 1)
	s.scr.Reset()
	if ferr := s.scr.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("write to terminal: %w", ferr)
	}
	if err != nil {
		return "", false, err
	}
	return line, ok, nil
}

// timedOut selects the default entry, shows it and returns the command line
// to boot.
func (s *session) timedOut() string {
	s.sel = s.cfg.Default
	s.top = window(s.sel, s.top, len(s.cfg.Entries), s.params.Rows)
	if s.cfg.OnTimeout != "" {
		log.Printf("INFO: menu: timeout, running ontimeout command")
		s.drawMenu(-1, s.top, true)
		return s.cfg.OnTimeout
	}
	log.Printf("INFO: menu: timeout, booting default entry %q", s.cfg.DefaultEntry().Label)
	s.drawMenu(s.sel, s.top, true)
	return s.cfg.DefaultEntry().Cmdline
}

// window returns the first visible entry for a selection so that the
// selection is visible and the window stays inside the list.
func window(sel, top, n, rows int) int {
	switch {
	case top < 0 || top < sel-rows+1:
		return max(0, sel-rows+1)
	case top > sel || top > max(0, n-rows):
		return min(sel, max(0, n-rows))
	}
	return top
}

// browse is the navigation loop.
func (s *session) browse() (string, bool, error) {
	keyTimeout := s.cfg.Timeout
	timeoutLeft := keyTimeout
	prevSel, prevTop := -1, -1
	repaint := true

	for {
		s.normalize()

		if repaint {
			s.scr.Clear()
			repaint = false
			prevSel, prevTop = -1, -1
		}

		if s.top != prevTop {
			s.drawMenu(s.sel, s.top, true)
		} else if s.sel != prevSel {
			s.drawRow(prevSel-s.top+firstRow, s.sel, s.top, scrollbar{})
			s.drawRow(s.sel-s.top+firstRow, s.sel, s.top, scrollbar{})
		}
		prevSel, prevTop = s.sel, s.top

		if s.sel != s.cfg.Default {
			keyTimeout = 0
		}

		countdown := keyTimeout > 0
		wait := keyTimeout
		if countdown {
			s.drawCountdown(int(timeoutLeft / countdownQuantum))
			wait = min(timeoutLeft, countdownQuantum)
		}

		key, err := s.nextKey(wait)
		if err != nil {
			return "", false, err
		}

		if key != keys.None {
			timeoutLeft = keyTimeout
			if countdown {
				s.clearRow(s.params.TimeoutRow)
			}
		}

		switch key {
		case keys.None:
			if keyTimeout > 0 {
				if timeoutLeft <= wait {
					return "", false, errSessionTimeout
				}
				timeoutLeft -= wait
			}

		case keys.Ctrl('L'):
			repaint = true

		case keys.Enter, keys.Ctrl('J'):
			keyTimeout = 0
			e := s.cfg.Entries[s.sel]
			if e.Password == "" {
				logging.Debug("menu: selected %q", e.Label)
				return e.Cmdline, true, nil
			}
			repaint = true
			ok, err := s.askPassword(e.Password)
			if err != nil {
				return "", false, err
			}
			if ok {
				logging.Debug("menu: selected %q after password", e.Label)
				return e.Cmdline, true, nil
			}

		case keys.Tab:
			if !s.cfg.AllowEdit {
				break
			}
			keyTimeout = 0
			line, ok, edited, err := s.edit()
			if err != nil {
				return "", false, err
			}
			if ok {
				logging.Debug("menu: booting edited command line for %q", s.cfg.Entries[s.sel].Label)
				return line, true, nil
			}
			// A refused master password leaves the frame already redrawn.
			repaint = edited

		case keys.Esc, keys.Ctrl('C'):
			if !s.cfg.AllowEdit {
				break
			}
			keyTimeout = 0
			repaint = true
			s.drawRow(s.sel-s.top+firstRow, -1, s.top, scrollbar{})
			if s.cfg.MasterPassword == "" {
				logging.Debug("menu: aborted")
				return "", false, nil
			}
			ok, err := s.askPassword("")
			if err != nil {
				return "", false, err
			}
			if ok {
				logging.Debug("menu: aborted after password")
				return "", false, nil
			}

		default:
			if s.navigate(key) {
				keyTimeout = 0
			}
		}
	}
}

// navigate applies a movement or hotkey to the selection and window. It
// returns false for keys that are neither. The result may be out of range
// until normalize runs.
func (s *session) navigate(key keys.Key) bool {
	n := len(s.cfg.Entries)
	rows := s.params.Rows

	switch key {
	case keys.Up, keys.Ctrl('P'):
		if s.sel > 0 {
			s.sel--
			if s.sel < s.top {
				s.top -= rows
			}
		}

	case keys.Down, keys.Ctrl('N'):
		if s.sel < n-1 {
			s.sel++
			if s.sel >= s.top+rows {
				s.top += rows
			}
		}

	case keys.PageUp, keys.Left, keys.Ctrl('B'), '<':
		s.sel -= rows
		s.top -= rows

	case keys.PageDown, keys.Right, keys.Ctrl('F'), '>', ' ':
		s.sel += rows
		s.top += rows

	case '-':
		s.sel--
		s.top--

	case '+':
		s.sel++
		s.top++

	case keys.Home, keys.Ctrl('A'):
		s.sel, s.top = 0, 0

	case keys.End, keys.Ctrl('E'):
		s.sel = n - 1
		s.top = max(0, n-rows)

	default:
		if !key.IsPrintable() {
			return false
		}
		i, ok := s.hotkeys[toUpper(key)]
		if !ok {
			return false
		}
		s.sel = i
	}
	return true
}

// normalize clamps the selection to the list and moves the window so the
// selection is visible.
func (s *session) normalize() {
	s.sel = min(max(s.sel, 0), len(s.cfg.Entries)-1)
	s.top = window(s.sel, s.top, len(s.cfg.Entries), s.params.Rows)
}

// edit asks for the master password when one is set, then opens the
// editor on the selected entry's command line. edited reports whether the
// editor ran; when it did not, the menu has been redrawn already.
func (s *session) edit() (line string, ok, edited bool, err error) {
	s.drawRow(s.sel-s.top+firstRow, -1, s.top, scrollbar{})

	if s.cfg.MasterPassword != "" {
		ok, err := s.askPassword("")
		if err != nil {
			return "", false, false, err
		}
		s.scr.Clear()
		s.drawMenu(-1, s.top, false)
		if !ok {
			s.drawRow(s.sel-s.top+firstRow, s.sel, s.top, scrollbar{})
			return "", false, false, nil
		}
	} else {
		s.clearRow(s.params.TabMsgRow)
	}

	line, ok, err = s.editCmdline(s.cfg.Entries[s.sel].Cmdline)
	return line, ok, true, err
}
