package menu

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/stlalpha/bootmenu/internal/keys"
	"github.com/stlalpha/bootmenu/internal/screen"
)

// MaxLineLen is the capacity of the command line buffer and the widest
// field AlignText will produce.
const MaxLineLen = 1024

// firstRow is the screen row of the first menu entry; rows 1-3 hold the
// top border, the title and the separator.
const firstRow = 4

// HotkeyMarker precedes the highlighted character in an entry's display text.
const HotkeyMarker = '^'

var (
	// ErrNoEntries is returned by New when the configuration has no entries.
	ErrNoEntries = errors.New("menu: no entries")
	// ErrLineFull is returned by EditBuffer.Insert when the buffer is at capacity.
	ErrLineFull = errors.New("menu: command line full")
)

// Entry is one selectable boot option.
type Entry struct {
	Label    string // Name of the entry in configuration and logs
	Display  string // Menu text, may contain one HotkeyMarker
	Hotkey   rune   // Upper-cased hotkey, 0 when the display has no marker
	Cmdline  string
	Password string // Optional, plaintext or hash form
}

// NewEntry builds an entry, deriving the hotkey from the display text. An
// empty display falls back to the label.
func NewEntry(label, display, cmdline, password string) Entry {
	if display == "" {
		display = label
	}
	return Entry{
		Label:    label,
		Display:  display,
		Hotkey:   HotkeyOf(display),
		Cmdline:  cmdline,
		Password: password,
	}
}

// HotkeyOf returns the upper-cased character following the first hotkey
// marker in display, or 0.
func HotkeyOf(display string) rune {
	i := strings.IndexRune(display, HotkeyMarker)
	if i < 0 {
		return 0
	}
	r, size := utf8.DecodeRuneInString(display[i+1:])
	if size == 0 || r == utf8.RuneError || unicode.IsSpace(r) {
		return 0
	}
	return unicode.ToUpper(r)
}

// Params are the layout parameters of the menu. Rows are 1-based screen rows.
type Params struct {
	Width          int
	Margin         int
	PasswordMargin int
	Rows           int // Visible entry rows
	TabMsgRow      int
	CmdlineRow     int
	EndRow         int
	PasswordRow    int
	TimeoutRow     int
}

// ParamNames lists the configuration names of the parameters in Params order.
var ParamNames = []string{
	"width", "margin", "passwordmargin", "rows", "tabmsgrow",
	"cmdlinerow", "endrow", "passwordrow", "timeoutrow",
}

// DefaultParams returns the stock layout for an 80x24 screen.
func DefaultParams() Params {
	return Params{
		Width:          80,
		Margin:         10,
		PasswordMargin: 3,
		Rows:           12,
		TabMsgRow:      18,
		CmdlineRow:     18,
		EndRow:         24,
		PasswordRow:    11,
		TimeoutRow:     20,
	}
}

func (p *Params) field(name string) *int {
	switch strings.ToLower(name) {
	case "width":
		return &p.Width
	case "margin":
		return &p.Margin
	case "passwordmargin":
		return &p.PasswordMargin
	case "rows":
		return &p.Rows
	case "tabmsgrow":
		return &p.TabMsgRow
	case "cmdlinerow":
		return &p.CmdlineRow
	case "endrow":
		return &p.EndRow
	case "passwordrow":
		return &p.PasswordRow
	case "timeoutrow":
		return &p.TimeoutRow
	}
	return nil
}

// Set assigns a parameter by its configuration name.
func (p *Params) Set(name string, v int) error {
	f := p.field(name)
	if f == nil {
		return fmt.Errorf("unknown menu parameter %q", name)
	}
	*f = v
	return nil
}

// Get reads a parameter by its configuration name.
func (p Params) Get(name string) (int, bool) {
	f := p.field(name)
	if f == nil {
		return 0, false
	}
	return *f, true
}

// Normalize resolves relative values against the physical screen. Negative
// row values count from the bottom; a negative width counts from the right
// edge and a zero width means the full screen width.
func (p Params) Normalize(screenRows, screenCols int) Params {
	fromBottom := func(v int) int {
		if v < 0 {
			return max(v+screenRows, 0)
		}
		return v
	}
	p.Margin = fromBottom(p.Margin)
	p.PasswordMargin = fromBottom(p.PasswordMargin)
	p.Rows = fromBottom(p.Rows)
	p.TabMsgRow = fromBottom(p.TabMsgRow)
	p.CmdlineRow = fromBottom(p.CmdlineRow)
	p.EndRow = fromBottom(p.EndRow)
	p.PasswordRow = fromBottom(p.PasswordRow)
	p.TimeoutRow = fromBottom(p.TimeoutRow)
	if p.Width < 0 {
		p.Width = max(p.Width+screenCols, 0)
	}
	if p.Width == 0 {
		p.Width = screenCols
	}
	return p
}

// Validate reports layouts the menu cannot be drawn in.
func (p Params) Validate() error {
	if p.Rows < 1 {
		return fmt.Errorf("menu: rows must be at least 1, got %d", p.Rows)
	}
	if inner := p.Width - 2*p.Margin - 4; inner < 1 || p.Width >= MaxLineLen {
		return fmt.Errorf("menu: width %d with margin %d leaves no room for entries", p.Width, p.Margin)
	}
	if p.Width-2*p.PasswordMargin-5 < 1 {
		return fmt.Errorf("menu: width %d with password margin %d leaves no room for a password", p.Width, p.PasswordMargin)
	}
	return nil
}

// Config is everything the menu needs for one session. It is not modified
// by the menu.
type Config struct {
	Title          string
	Entries        []Entry
	Default        int           // Index of the default entry
	Timeout        time.Duration // Auto-boot delay for the default entry, 0 for none
	TotalTimeout   time.Duration // Hard limit on the whole session, 0 for none
	AllowEdit      bool
	MasterPassword string
	OnTimeout      string // Command line used instead of the default on timeout
	ShiftKey       bool   // Boot the default at once unless a modifier is held
	Params         Params // Already normalized
	Palette        screen.Palette
}

// DefaultEntry returns the entry booted on timeout.
func (c *Config) DefaultEntry() Entry {
	return c.Entries[c.Default]
}

// Hotkeys maps each upper-cased hotkey to the index of the last entry
// carrying it.
func (c *Config) Hotkeys() map[rune]int {
	m := make(map[rune]int)
	for i, e := range c.Entries {
		if e.Hotkey != 0 {
			m[e.Hotkey] = i
		}
	}
	return m
}

func toUpper(k keys.Key) rune {
	return unicode.ToUpper(rune(k))
}
