// Command bootmenu shows the boot menu on the controlling terminal and
// boots the operator's choice by replacing itself with the chosen command.
//
// Usage:
//
//	bootmenu [-config menu.json] [-dry-run] [-watch] [-log file]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/boot"
	"github.com/stlalpha/bootmenu/internal/config"
	"github.com/stlalpha/bootmenu/internal/keys"
	"github.com/stlalpha/bootmenu/internal/logging"
	"github.com/stlalpha/bootmenu/internal/menu"
)

// shiftWindow is how long a key typed at startup counts as a held shift key.
const shiftWindow = 300 * time.Millisecond

func main() {
	configPath := flag.String("config", "bootmenu.json", "Path to the menu definition (.json, .yaml or .yml)")
	outputModeFlag := flag.String("output-mode", "", "Terminal output mode: auto, utf8, cp437 or vt100 (default: from the menu file)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logPath := flag.String("log", "", "Log file (\"-\" for stderr, empty to discard)")
	dryRun := flag.Bool("dry-run", false, "Print the chosen command line instead of running it")
	watch := flag.Bool("watch", false, "Reload the menu file when it changes")
	flag.Parse()

	if *debug || os.Getenv("DEBUG") == "1" {
		logging.DebugEnabled = true
	}

	logCloser, err := logging.Redirect(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(*configPath, *outputModeFlag, *dryRun, *watch); err != nil {
		log.Printf("ERROR: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(configPath, outputMode string, dryRun, watch bool) error {
	f, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mode := f.Mode()
	if outputMode != "" {
		if mode, err = ansi.ParseOutputMode(outputMode); err != nil {
			return err
		}
	}

	inFd := int(os.Stdin.Fd())
	if !term.IsTerminal(inFd) {
		return fmt.Errorf("standard input is not a terminal")
	}
	if err := ansi.EnableVirtualTerminal(os.Stdout); err != nil {
		log.Printf("WARN: %v", err)
	}

	rows, cols, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || rows <= 0 || cols <= 0 {
		logging.Debug("terminal size unknown (%v), assuming 24x80", err)
		rows, cols = 24, 80
	}

	oldState, err := term.MakeRaw(inFd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	raw := true
	restore := func() {
		if raw {
			term.Restore(inFd, oldState)
			raw = false
		}
	}
	resume := func() {
		if raw {
			return
		}
		if _, err := term.MakeRaw(inFd); err != nil {
			log.Printf("WARN: failed to re-enter raw mode: %v", err)
			return
		}
		raw = true
	}
	defer restore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kr := keys.NewReader(os.Stdin)
	probe := menu.ModifierProbeFunc(func() bool {
		return kr.Pending(ctx, shiftWindow)
	})

	build := func(f *config.MenuFile) (boot.Runner, string, error) {
		cfg, err := f.Build(rows, cols)
		if err != nil {
			return nil, "", err
		}
		m, err := menu.New(cfg, os.Stdout, mode, kr, menu.WithModifierProbe(probe))
		if err != nil {
			return nil, "", err
		}
		return m, f.OnError, nil
	}

	runner, onError, err := build(f)
	if err != nil {
		return err
	}

	var executor boot.Executor = &boot.ExecExecutor{Restore: restore, Resume: resume}
	if dryRun {
		executor = &boot.PrintExecutor{W: os.Stdout}
	}

	loop := &boot.Loop{
		Runner:   runner,
		Executor: executor,
		OnError:  onError,
		Failed: func(cmdline string, err error) {
			fmt.Fprintf(os.Stdout, "\r\n\x1b[0mBoot failed: %v\r\n", err)
		},
	}

	if watch {
		w, err := config.NewWatcher(configPath)
		if err != nil {
			log.Printf("WARN: Menu reload disabled: %v", err)
		} else {
			defer w.Stop()
			loop.Changed = w.Changed
			loop.Reload = func() (boot.Runner, string, error) {
				f, err := config.Load(configPath)
				if err != nil {
					return nil, "", err
				}
				return build(f)
			}
		}
	}

	log.Printf("INFO: Menu %q with %d entries on a %dx%d %s terminal", f.Title, len(f.Entries), cols, rows, mode)
	return loop.Run(ctx)
}
