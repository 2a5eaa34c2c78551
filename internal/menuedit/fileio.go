package menuedit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/stlalpha/bootmenu/internal/config"
)

// starterMenu is what a missing file opens as. It is only written on save.
func starterMenu() *config.MenuFile {
	return &config.MenuFile{
		Title: "Boot Menu",
		Entries: []config.EntryConfig{
			{Label: "linux", MenuLabel: "^Linux", Kernel: "vmlinuz", Append: "quiet"},
			{Label: "local", MenuLabel: "Boot from ^local disk", Kernel: ".localboot 0x80"},
		},
	}
}

// loadMenu reads path without validating it so a broken menu can still be
// opened and repaired.
func loadMenu(path string) (*config.MenuFile, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return starterMenu(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := config.Parse(data, config.FormatOf(path))
	if err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, false, nil
}

// save validates f and writes it atomically.
func save(path string, f *config.MenuFile) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return config.Save(path, f)
}
