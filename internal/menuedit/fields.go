package menuedit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/config"
	"github.com/stlalpha/bootmenu/internal/menu"
	"github.com/stlalpha/bootmenu/internal/passwd"
)

// fieldKind selects how a field is edited and shown.
type fieldKind int

const (
	kindText fieldKind = iota
	kindSecret
	kindBool
	kindInt
)

// field is one editable value of the menu file. idx is the entry index
// for entry fields and ignored for menu fields.
type field struct {
	Name        string
	Description string
	Kind        fieldKind
	get         func(f *config.MenuFile, idx int) string
	set         func(f *config.MenuFile, idx int, v string) error
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseCount(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative number", v)
	}
	return n, nil
}

// hashSecret stores v as a salted hash. Values already in a '$' form are
// kept as typed so hashes can be pasted in.
func hashSecret(v string) (string, error) {
	if v == "" || passwd.IsHashed(v) {
		return v, nil
	}
	return passwd.Hash(passwd.SchemeSHA1, v)
}

// secretSummary never shows the secret itself.
func secretSummary(stored string) string {
	if stored == "" {
		return "(none)"
	}
	return "(set, " + passwd.SchemeOf(stored).String() + ")"
}

var settingFields = []field{
	{
		Name: "Title", Description: "Heading shown in the menu frame",
		get: func(f *config.MenuFile, _ int) string { return f.Title },
		set: func(f *config.MenuFile, _ int, v string) error { f.Title = v; return nil },
	},
	{
		Name: "Default", Description: "Label of the entry selected when the menu opens",
		get: func(f *config.MenuFile, _ int) string { return f.Default },
		set: func(f *config.MenuFile, _ int, v string) error {
			if v != "" && labelIndex(f, v) < 0 {
				return fmt.Errorf("no entry is labelled %q", v)
			}
			f.Default = v
			return nil
		},
	},
	{
		Name: "Timeout", Description: "Tenths of a second before the default boots (0 waits forever)", Kind: kindInt,
		get: func(f *config.MenuFile, _ int) string { return strconv.Itoa(f.Timeout) },
		set: func(f *config.MenuFile, _ int, v string) error {
			n, err := parseCount(v)
			if err == nil {
				f.Timeout = n
			}
			return err
		},
	},
	{
		Name: "Total timeout", Description: "Tenths of a second the whole session may last (0 for no limit)", Kind: kindInt,
		get: func(f *config.MenuFile, _ int) string { return strconv.Itoa(f.TotalTimeout) },
		set: func(f *config.MenuFile, _ int, v string) error {
			n, err := parseCount(v)
			if err == nil {
				f.TotalTimeout = n
			}
			return err
		},
	},
	{
		Name: "No edit", Description: "Forbid editing command lines with Tab", Kind: kindBool,
		get: func(f *config.MenuFile, _ int) string { return yesNo(f.NoEdit) },
		set: func(f *config.MenuFile, _ int, _ string) error { f.NoEdit = !f.NoEdit; return nil },
	},
	{
		Name: "Master password", Description: "Required before any command line can be edited", Kind: kindSecret,
		get: func(f *config.MenuFile, _ int) string { return f.MasterPassword },
		set: func(f *config.MenuFile, _ int, v string) error {
			h, err := hashSecret(v)
			if err == nil {
				f.MasterPassword = h
			}
			return err
		},
	},
	{
		Name: "On timeout", Description: "Command booted when a timeout expires instead of the default",
		get: func(f *config.MenuFile, _ int) string { return f.OnTimeout },
		set: func(f *config.MenuFile, _ int, v string) error { f.OnTimeout = v; return nil },
	},
	{
		Name: "On error", Description: "Command tried once after a boot fails",
		get: func(f *config.MenuFile, _ int) string { return f.OnError },
		set: func(f *config.MenuFile, _ int, v string) error { f.OnError = v; return nil },
	},
	{
		Name: "Shift key", Description: "Boot the default at once unless a key is held at start", Kind: kindBool,
		get: func(f *config.MenuFile, _ int) string { return yesNo(f.ShiftKey) },
		set: func(f *config.MenuFile, _ int, _ string) error { f.ShiftKey = !f.ShiftKey; return nil },
	},
	{
		Name: "Output mode", Description: "auto, utf8, cp437 or vt100",
		get: func(f *config.MenuFile, _ int) string { return f.OutputMode },
		set: func(f *config.MenuFile, _ int, v string) error {
			if _, err := ansi.ParseOutputMode(v); err != nil {
				return err
			}
			f.OutputMode = strings.ToLower(strings.TrimSpace(v))
			return nil
		},
	},
}

// menuFields are the menu-wide settings followed by the layout parameters.
var menuFields = append(settingFields, paramFields()...)

// paramFields has one field per layout parameter. An empty value leaves
// the parameter at its default.
func paramFields() []field {
	defaults := menu.DefaultParams()
	defaults.Width = 0

	fields := make([]field, 0, len(menu.ParamNames))
	for _, name := range menu.ParamNames {
		def, _ := defaults.Get(name)
		desc := fmt.Sprintf("Layout: empty for the default (%d); negative rows count from the bottom", def)
		if name == "width" {
			desc = "Layout: menu width, empty or 0 follows the screen, negative is relative to it"
		}
		fields = append(fields, field{
			Name:        "Param " + name,
			Description: desc,
			Kind:        kindInt,
			get: func(f *config.MenuFile, _ int) string {
				if v, ok := f.Params[name]; ok {
					return strconv.Itoa(v)
				}
				return ""
			},
			set: func(f *config.MenuFile, _ int, v string) error {
				v = strings.TrimSpace(v)
				if v == "" {
					delete(f.Params, name)
					return nil
				}
				n, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("%q is not a number", v)
				}
				if f.Params == nil {
					f.Params = make(map[string]int)
				}
				f.Params[name] = n
				return nil
			},
		})
	}
	return fields
}

var entryFields = []field{
	{
		Name: "Label", Description: "Unique name of the entry",
		get: func(f *config.MenuFile, i int) string { return f.Entries[i].Label },
		set: func(f *config.MenuFile, i int, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return fmt.Errorf("label must not be empty")
			}
			if j := labelIndex(f, v); j >= 0 && j != i {
				return fmt.Errorf("label %q is already used", v)
			}
			if f.Default == f.Entries[i].Label {
				f.Default = v
			}
			f.Entries[i].Label = v
			return nil
		},
	},
	{
		Name: "Menu label", Description: "Text shown in the menu; ^ marks the hotkey",
		get: func(f *config.MenuFile, i int) string { return f.Entries[i].MenuLabel },
		set: func(f *config.MenuFile, i int, v string) error { f.Entries[i].MenuLabel = v; return nil },
	},
	{
		Name: "Kernel", Description: "Kernel image; .localboot N hands over to local boot",
		get: func(f *config.MenuFile, i int) string { return f.Entries[i].Kernel },
		set: func(f *config.MenuFile, i int, v string) error { f.Entries[i].Kernel = v; return nil },
	},
	{
		Name: "Append", Description: "Arguments appended to the kernel",
		get: func(f *config.MenuFile, i int) string { return f.Entries[i].Append },
		set: func(f *config.MenuFile, i int, v string) error { f.Entries[i].Append = v; return nil },
	},
	{
		Name: "Command", Description: "Full command line, overrides Kernel and Append",
		get: func(f *config.MenuFile, i int) string { return f.Entries[i].Command },
		set: func(f *config.MenuFile, i int, v string) error { f.Entries[i].Command = v; return nil },
	},
	{
		Name: "Password", Description: "Asked before the entry boots; stored hashed", Kind: kindSecret,
		get: func(f *config.MenuFile, i int) string { return f.Entries[i].Password },
		set: func(f *config.MenuFile, i int, v string) error {
			h, err := hashSecret(v)
			if err == nil {
				f.Entries[i].Password = h
			}
			return err
		},
	},
	{
		Name: "Default", Description: "Selected when the menu opens", Kind: kindBool,
		get: func(f *config.MenuFile, i int) string { return yesNo(f.DefaultIndex() == i) },
		set: func(f *config.MenuFile, i int, _ string) error {
			for j := range f.Entries {
				f.Entries[j].Default = false
			}
			f.Default = f.Entries[i].Label
			return nil
		},
	},
}

func labelIndex(f *config.MenuFile, label string) int {
	for i, e := range f.Entries {
		if e.Label == label {
			return i
		}
	}
	return -1
}

// newLabel returns the first free label of the form entryN.
func newLabel(f *config.MenuFile) string {
	for n := len(f.Entries) + 1; ; n++ {
		l := fmt.Sprintf("entry%d", n)
		if labelIndex(f, l) < 0 {
			return l
		}
	}
}
