// Command bootmenu-edit is a full-screen editor for boot menu files.
//
// Usage:
//
//	bootmenu-edit [-config path/to/menu.json]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stlalpha/bootmenu/internal/menuedit"
)

func main() {
	configPath := flag.String("config", "bootmenu.json", "Path to the menu definition (.json, .yaml or .yml)")
	flag.Parse()

	path := *configPath
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: directory does not exist: %s\n", dir)
		os.Exit(1)
	}

	model, err := menuedit.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing editor: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
