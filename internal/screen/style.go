package screen

import (
	"fmt"
	"strings"
)

// Style names one slot of the palette. The menu picks slots symbolically;
// the palette decides what they look like.
type Style int

const (
	StyleScreen     Style = iota // Rest of the screen
	StyleBorder                  // Border area
	StyleTitle                   // Title bar
	StyleUnsel                   // Unselected menu item
	StyleHotkey                  // Unselected hotkey
	StyleSel                     // Selection bar
	StyleHotSel                  // Selected hotkey
	StyleScrollbar               // Scroll bar
	StyleTabMsg                  // Press [Tab] message
	StyleCmdMark                 // Command line marker
	StyleCmdLine                 // Command line
	StylePwdBorder               // Password box border
	StylePwdHeader               // Password box header
	StylePwdEntry                // Password box contents
	StyleTimeoutMsg              // Timeout message
	StyleTimeout                 // Timeout counter

	NumStyles
)

var styleNames = [NumStyles]string{
	"screen", "border", "title", "unsel", "hotkey", "sel", "hotsel", "scrollbar",
	"tabmsg", "cmdmark", "cmdline", "pwdborder", "pwdheader", "pwdentry",
	"timeout_msg", "timeout",
}

func (s Style) String() string {
	if s < 0 || s >= NumStyles {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle looks a slot up by its configuration name.
func ParseStyle(name string) (Style, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range styleNames {
		if n == name {
			return Style(i), true
		}
	}
	return 0, false
}

// Palette maps every style slot to SGR parameters such as "1;36;44".
type Palette [NumStyles]string

// DefaultPalette returns the stock blue menu colors.
func DefaultPalette() Palette {
	return Palette{
		StyleScreen:     "37;40",
		StyleBorder:     "30;44",
		StyleTitle:      "1;36;44",
		StyleUnsel:      "37;44",
		StyleHotkey:     "1;37;44",
		StyleSel:        "7;37;40",
		StyleHotSel:     "1;7;37;40",
		StyleScrollbar:  "30;44",
		StyleTabMsg:     "31;40",
		StyleCmdMark:    "1;36;40",
		StyleCmdLine:    "37;40",
		StylePwdBorder:  "30;47",
		StylePwdHeader:  "31;47",
		StylePwdEntry:   "30;47",
		StyleTimeoutMsg: "37;40",
		StyleTimeout:    "1;37;40",
	}
}

// Set overrides one slot by name. The value must be a list of numeric SGR
// parameters separated by ';'.
func (p *Palette) Set(name, sgr string) error {
	st, ok := ParseStyle(name)
	if !ok {
		return fmt.Errorf("unknown style %q", name)
	}
	sgr = strings.TrimSpace(sgr)
	for _, part := range strings.Split(sgr, ";") {
		if part == "" {
			return fmt.Errorf("style %s: empty SGR parameter in %q", name, sgr)
		}
		for _, c := range part {
			if c < '0' || c > '9' {
				return fmt.Errorf("style %s: invalid SGR parameter %q", name, part)
			}
		}
	}
	p[st] = sgr
	return nil
}
