package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/menu"
	"github.com/stlalpha/bootmenu/internal/passwd"
	"github.com/stlalpha/bootmenu/internal/screen"
)

// ErrNoEntries is returned by Validate for a menu without entries.
var ErrNoEntries = errors.New("no LABEL entries found in menu file")

// TimeoutUnit is the unit of Timeout and TotalTimeout: tenths of a second.
const TimeoutUnit = 100 * time.Millisecond

// Format is the encoding of a menu file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the encoding from the file extension; anything that is
// not .yaml or .yml is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// MenuFile is the on-disk menu definition.
type MenuFile struct {
	Title          string            `json:"title" yaml:"title"`
	Default        string            `json:"default,omitempty" yaml:"default,omitempty"`
	Timeout        int               `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	TotalTimeout   int               `json:"totalTimeout,omitempty" yaml:"totalTimeout,omitempty"`
	NoEdit         bool              `json:"noEdit,omitempty" yaml:"noEdit,omitempty"`
	MasterPassword string            `json:"masterPassword,omitempty" yaml:"masterPassword,omitempty"`
	OnTimeout      string            `json:"onTimeout,omitempty" yaml:"onTimeout,omitempty"`
	OnError        string            `json:"onError,omitempty" yaml:"onError,omitempty"`
	ShiftKey       bool              `json:"shiftKey,omitempty" yaml:"shiftKey,omitempty"`
	OutputMode     string            `json:"outputMode,omitempty" yaml:"outputMode,omitempty"`
	Params         map[string]int    `json:"params,omitempty" yaml:"params,omitempty"`
	Colors         map[string]string `json:"colors,omitempty" yaml:"colors,omitempty"`
	Entries        []EntryConfig     `json:"entries" yaml:"entries"`
}

// EntryConfig is one LABEL of the menu.
type EntryConfig struct {
	Label     string `json:"label" yaml:"label"`
	MenuLabel string `json:"menuLabel,omitempty" yaml:"menuLabel,omitempty"`
	Kernel    string `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Append    string `json:"append,omitempty" yaml:"append,omitempty"`
	Command   string `json:"command,omitempty" yaml:"command,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	Default   bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

// Cmdline is the command line handed to the executor for this entry:
// Command if set, else Kernel and Append, else the label itself.
func (e EntryConfig) Cmdline() string {
	switch {
	case e.Command != "":
		return e.Command
	case e.Kernel != "":
		return strings.TrimSpace(e.Kernel + " " + e.Append)
	}
	return e.Label
}

// Load reads and validates a menu file.
func Load(path string) (*MenuFile, error) {
	log.Printf("INFO: Loading menu from %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file %s: %w", path, err)
	}
	f, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid menu file %s: %w", path, err)
	}
	log.Printf("INFO: Loaded %d menu entries from %s", len(f.Entries), path)
	return f, nil
}

// Parse decodes a menu file without validating it. Unknown fields are
// rejected so typos do not pass silently.
func Parse(data []byte, format Format) (*MenuFile, error) {
	var f MenuFile
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// Marshal encodes f in the given format.
func Marshal(f *MenuFile, format Format) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes f to path in the format its extension selects. The file is
// replaced atomically so a running watcher never sees half a menu.
func Save(path string, f *MenuFile) error {
	data, err := Marshal(f, FormatOf(path))
	if err != nil {
		return fmt.Errorf("encoding menu: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Validate checks everything Build relies on.
func (f *MenuFile) Validate() error {
	if len(f.Entries) == 0 {
		return ErrNoEntries
	}

	seen := make(map[string]bool, len(f.Entries))
	defaults := 0
	for i, e := range f.Entries {
		if strings.TrimSpace(e.Label) == "" {
			return fmt.Errorf("entry %d has no label", i+1)
		}
		if seen[e.Label] {
			return fmt.Errorf("duplicate entry label %q", e.Label)
		}
		seen[e.Label] = true
		if e.Default {
			defaults++
		}
		if passwd.SchemeOf(e.Password) == passwd.SchemeUnknown {
			log.Printf("WARN: entry %q uses an unsupported password scheme and can never be unlocked", e.Label)
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d entries are marked default", defaults)
	}
	if f.Default != "" && !seen[f.Default] {
		return fmt.Errorf("default entry %q does not exist", f.Default)
	}

	if f.Timeout < 0 || f.TotalTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if _, err := ansi.ParseOutputMode(f.OutputMode); err != nil {
		return err
	}

	var p menu.Params
	for name, v := range f.Params {
		if err := p.Set(name, v); err != nil {
			return err
		}
	}
	pal := screen.DefaultPalette()
	for name, sgr := range f.Colors {
		if err := pal.Set(name, sgr); err != nil {
			return err
		}
	}
	return nil
}

// DefaultIndex returns the index of the default entry: the one named by
// Default, else the first entry marked default, else the first entry.
func (f *MenuFile) DefaultIndex() int {
	for i, e := range f.Entries {
		if f.Default != "" && e.Label == f.Default {
			return i
		}
	}
	for i, e := range f.Entries {
		if e.Default {
			return i
		}
	}
	return 0
}

// Mode returns the configured output mode.
func (f *MenuFile) Mode() ansi.OutputMode {
	m, _ := ansi.ParseOutputMode(f.OutputMode)
	return m
}

// Build turns a validated menu file into the menu's configuration for a
// screen of the given size.
func (f *MenuFile) Build(screenRows, screenCols int) (*menu.Config, error) {
	if len(f.Entries) == 0 {
		return nil, ErrNoEntries
	}

	params := menu.DefaultParams()
	// Width follows the screen unless set explicitly.
	params.Width = 0
	for name, v := range f.Params {
		if err := params.Set(name, v); err != nil {
			return nil, err
		}
	}
	params = params.Normalize(screenRows, screenCols)

	palette := screen.DefaultPalette()
	for name, sgr := range f.Colors {
		if err := palette.Set(name, sgr); err != nil {
			return nil, err
		}
	}

	entries := make([]menu.Entry, len(f.Entries))
	for i, e := range f.Entries {
		entries[i] = menu.NewEntry(e.Label, e.MenuLabel, e.Cmdline(), e.Password)
	}

	return &menu.Config{
		Title:          f.Title,
		Entries:        entries,
		Default:        f.DefaultIndex(),
		Timeout:        time.Duration(f.Timeout) * TimeoutUnit,
		TotalTimeout:   time.Duration(f.TotalTimeout) * TimeoutUnit,
		AllowEdit:      !f.NoEdit,
		MasterPassword: f.MasterPassword,
		OnTimeout:      f.OnTimeout,
		ShiftKey:       f.ShiftKey,
		Params:         params,
		Palette:        palette,
	}, nil
}
