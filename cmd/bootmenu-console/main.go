// Command bootmenu-console serves the boot menu over SSH. Every selection
// is appended to a JSON-lines log for the boot stage to pick up.
//
// Clients must give the password in BOOTMENU_PASSWORD when it is set; the
// value may be a hash made by bootmenu-passwd.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gliderlabs/ssh"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/boot"
	"github.com/stlalpha/bootmenu/internal/config"
	"github.com/stlalpha/bootmenu/internal/console"
	"github.com/stlalpha/bootmenu/internal/logging"
	"github.com/stlalpha/bootmenu/internal/menu"
)

func main() {
	configPath := flag.String("config", "bootmenu.json", "Path to the menu definition")
	hostKeyPath := flag.String("host-key", "ssh_host_ed25519_key", "SSH host key, generated when missing")
	host := flag.String("host", "", "Address to listen on")
	port := flag.Int("port", 2222, "Port to listen on")
	legacy := flag.Bool("legacy-ssh", false, "Offer older key exchanges and ciphers")
	maxSessions := flag.Int("max-sessions", 4, "Concurrent console sessions (0 for no limit)")
	outputModeFlag := flag.String("output-mode", "", "Output mode: auto, utf8, cp437 or vt100 (default: from the menu file)")
	recordPath := flag.String("record", "selections.jsonl", "File the selections are appended to")
	logPath := flag.String("log", "-", "Log file (\"-\" for stderr, empty to discard)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	watch := flag.Bool("watch", true, "Reload the menu file when it changes")
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

	f, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	mode := f.Mode()
	if *outputModeFlag != "" {
		if mode, err = ansi.ParseOutputMode(*outputModeFlag); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
	}

	var current atomic.Pointer[config.MenuFile]
	current.Store(f)
	build := func(rows, cols int) (*menu.Config, string, error) {
		f := current.Load()
		cfg, err := f.Build(rows, cols)
		return cfg, f.OnError, err
	}

	if *watch {
		w, err := config.NewWatcher(*configPath)
		if err != nil {
			log.Printf("WARN: Menu reload disabled: %v", err)
		} else {
			defer w.Stop()
			go func() {
				for range w.Notify() {
					if !w.Changed() {
						continue
					}
					f, err := config.Load(*configPath)
					if err != nil {
						log.Printf("ERROR: Failed to reload menu, keeping the previous one: %v", err)
						continue
					}
					current.Store(f)
					log.Printf("INFO: Menu reloaded for new sessions")
				}
			}()
		}
	}

	record, err := os.OpenFile(*recordPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.Fatalf("FATAL: Failed to open selection log: %v", err)
	}
	defer record.Close()

	if err := console.EnsureHostKey(*hostKeyPath); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	srv, err := console.NewServer(console.Config{
		HostKeyPath:         *hostKeyPath,
		Host:                *host,
		Port:                *port,
		LegacySSHAlgorithms: *legacy,
		Password:            os.Getenv("BOOTMENU_PASSWORD"),
		MaxSessions:         *maxSessions,
		OutputMode:          mode,
	}, build, boot.NewRecordExecutor(record, "console"))
	if err != nil {
		log.Fatalf("FATAL: Failed to create SSH server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Printf("INFO: Shutting down, %d sessions active", len(srv.Registry().ListActive()))
		srv.Close()
	}()

	log.Printf("INFO: SSH console ready - connect via: ssh -t <user>@%s -p %d", *host, *port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Printf("ERROR: SSH server error: %v", err)
		os.Exit(1)
	}
}
