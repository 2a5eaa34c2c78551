package menu

import (
	"log"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/keys"
	"github.com/stlalpha/bootmenu/internal/passwd"
	"github.com/stlalpha/bootmenu/internal/screen"
)

const passwordTitle = "Password required"

// askPassword draws the password box and reads a masked password. It
// succeeds when the input matches the master password or entrySecret.
// Cancelling counts as empty input, which never matches.
func (s *session) askPassword(entrySecret string) (bool, error) {
	p := s.params
	bar := p.Width - 2*p.PasswordMargin - 2
	maxLen := p.Width - 2*p.PasswordMargin - 5

	s.scr.MoveTo(p.PasswordRow, p.PasswordMargin+1)
	s.scr.HLine(screen.StylePwdBorder, ansi.GlyphTopLeft, bar, ansi.GlyphTopRight)
	s.scr.MoveTo(p.PasswordRow+1, p.PasswordMargin+1)
	s.scr.Glyphs(screen.StylePwdBorder, ansi.GlyphVertical)
	s.scr.Spaces(screen.StylePwdBorder, bar)
	s.scr.Glyphs(screen.StylePwdBorder, ansi.GlyphVertical)
	s.scr.MoveTo(p.PasswordRow+2, p.PasswordMargin+1)
	s.scr.HLine(screen.StylePwdBorder, ansi.GlyphBottomLeft, bar, ansi.GlyphBottomRight)

	s.scr.MoveTo(p.PasswordRow, (p.Width-len(passwordTitle)-2)/2)
	s.scr.Put(screen.StylePwdHeader, " "+passwordTitle+" ")
	s.scr.MoveTo(p.PasswordRow+1, p.PasswordMargin+3)
	s.scr.SetStyle(screen.StylePwdEntry)

	var input []rune
	for done := false; !done; {
		key, err := s.nextKey(0)
		if err != nil {
			return false, err
		}

		switch key {
		case keys.Enter, keys.Ctrl('J'):
			done = true
		case keys.Esc, keys.Ctrl('C'):
			input = input[:0]
			done = true
		case keys.Backspace, keys.Del, keys.Delete:
			if len(input) > 0 {
				s.scr.RubOut(screen.StylePwdEntry, 1)
				input = input[:len(input)-1]
			}
		case keys.Ctrl('U'):
			s.scr.RubOut(screen.StylePwdEntry, len(input))
			input = input[:0]
		default:
			if key.IsPrintable() && len(input) < maxLen {
				input = append(input, rune(key))
				s.scr.Put(screen.StylePwdEntry, "*")
			}
		}
	}

	ok := s.checkPassword(string(input), entrySecret)
	if !ok {
		log.Printf("WARN: menu: password rejected")
	}
	return ok, nil
}

// checkPassword matches candidate against the master password and the
// entry's own secret, whichever are set.
func (s *session) checkPassword(candidate, entrySecret string) bool {
	if candidate == "" {
		return false
	}
	if s.cfg.MasterPassword != "" && passwd.Verify(s.cfg.MasterPassword, candidate) {
		return true
	}
	return entrySecret != "" && passwd.Verify(entrySecret, candidate)
}
