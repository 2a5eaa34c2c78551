// Package console serves the boot menu over SSH so a remote operator can
// pick the next boot entry. Each PTY session gets its own menu sized to
// its window; the choice goes to a shared executor, normally a selection
// log.
package console

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	gossh "golang.org/x/crypto/ssh"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/boot"
	"github.com/stlalpha/bootmenu/internal/keys"
	"github.com/stlalpha/bootmenu/internal/logging"
	"github.com/stlalpha/bootmenu/internal/menu"
	"github.com/stlalpha/bootmenu/internal/passwd"
)

// ShiftWindow is how long a session waits for a keystroke when the menu
// is in shift-key mode. A key typed in that time counts as a held modifier.
const ShiftWindow = 300 * time.Millisecond

// MenuBuilder builds the menu for a terminal of the given size. It also
// returns the onerror command line.
type MenuBuilder func(rows, cols int) (*menu.Config, string, error)

// Config holds SSH console configuration.
type Config struct {
	HostKeyPath         string
	Host                string
	Port                int
	LegacySSHAlgorithms bool
	// Password, when set, is required from every client. It may be in any
	// form passwd.Verify accepts.
	Password    string
	MaxSessions int
	OutputMode  ansi.OutputMode
	Version     string // SSH server banner version (default: "bootmenu")
}

// Server wraps a gliderlabs/ssh server.
type Server struct {
	inner    *ssh.Server
	registry *Registry
	build    MenuBuilder
	exec     *boot.RecordExecutor
	mode     ansi.OutputMode
}

// NewServer creates and configures a new SSH console.
func NewServer(cfg Config, build MenuBuilder, exec *boot.RecordExecutor) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	// Read host key
	keyBytes, err := os.ReadFile(cfg.HostKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read host key %s: %w", cfg.HostKeyPath, err)
	}
	signer, err := gossh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse host key: %w", err)
	}

	version := cfg.Version
	if version == "" {
		version = "bootmenu"
	}

	s := &Server{
		registry: NewRegistry(cfg.MaxSessions),
		build:    build,
		exec:     exec,
		mode:     cfg.OutputMode,
	}

	srv := &ssh.Server{
		Addr:        addr,
		Handler:     s.handle,
		HostSigners: []ssh.Signer{signer},
		Version:     version,
		ConnectionFailedCallback: func(conn net.Conn, err error) {
			log.Printf("WARN: SSH connection failed from %s: %v", conn.RemoteAddr(), err)
		},
	}
	if cfg.Password != "" {
		secret := cfg.Password
		srv.PasswordHandler = func(ctx ssh.Context, password string) bool {
			ok := passwd.Verify(secret, password)
			if !ok {
				log.Printf("WARN: SSH password auth failed for %s from %s", ctx.User(), ctx.RemoteAddr())
			}
			return ok
		}
	}

	// Older algorithms for serial-console bridges and embedded clients.
	legacy := cfg.LegacySSHAlgorithms
	srv.ServerConfigCallback = func(ctx ssh.Context) *gossh.ServerConfig {
		sc := &gossh.ServerConfig{}
		if legacy {
			logging.Debug("SSH legacy algorithms enabled")
			sc.Config.KeyExchanges = []string{
				"curve25519-sha256",
				"curve25519-sha256@libssh.org",
				"ecdh-sha2-nistp256",
				"diffie-hellman-group14-sha256",
				"diffie-hellman-group14-sha1",
				"diffie-hellman-group1-sha1",
			}
			sc.Config.Ciphers = []string{
				"chacha20-poly1305@openssh.com",
				"aes128-gcm@openssh.com",
				"aes128-ctr",
				"aes256-ctr",
				"aes128-cbc",
				"3des-cbc",
			}
			sc.Config.MACs = []string{
				"hmac-sha2-256-etm@openssh.com",
				"hmac-sha2-256",
				"hmac-sha1",
			}
		}
		return sc
	}

	s.inner = srv
	return s, nil
}

// Registry returns the active session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// ListenAndServe binds to the configured address and serves SSH connections.
// It blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	return s.inner.ListenAndServe()
}

// Serve starts serving on an existing listener. Blocks until closed.
func (s *Server) Serve(l net.Listener) error {
	return s.inner.Serve(l)
}

// Close shuts down the server and all active connections.
func (s *Server) Close() error {
	return s.inner.Close()
}

func (s *Server) handle(sess ssh.Session) {
	pty, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintf(sess, "bootmenu needs a terminal, connect with ssh -t\r\n")
		sess.Exit(1)
		return
	}

	info := &Session{
		ID:         uuid.New().String(),
		User:       sess.User(),
		RemoteAddr: sess.RemoteAddr().String(),
		Term:       pty.Term,
		StartTime:  time.Now(),
	}
	if !s.registry.Register(info) {
		log.Printf("INFO: Rejecting SSH console from %s: too many sessions", info.RemoteAddr)
		fmt.Fprintf(sess, "\r\nToo many console sessions, try again later.\r\n")
		sess.Exit(1)
		return
	}
	defer s.registry.Unregister(info.ID)
	log.Printf("INFO: Console session %s opened by %s from %s (%s %dx%d)", info.ID, info.User, info.RemoteAddr, pty.Term, pty.Window.Width, pty.Window.Height)

	// The menu keeps the size it started with.
	go func() {
		for win := range winCh {
			logging.Debug("console %s: window now %dx%d", info.ID, win.Width, win.Height)
		}
	}()

	if err := s.serve(sess, pty, info); err != nil {
		log.Printf("ERROR: Console session %s: %v", info.ID, err)
		fmt.Fprintf(sess, "\r\n\x1b[0merror: %v\r\n", err)
		sess.Exit(1)
		return
	}
	log.Printf("INFO: Console session %s closed", info.ID)
	sess.Exit(0)
}

func (s *Server) serve(sess ssh.Session, pty ssh.Pty, info *Session) error {
	cfg, onError, err := s.build(pty.Window.Height, pty.Window.Width)
	if err != nil {
		return err
	}

	mode := s.mode.Resolve(pty.Term, envValue(sess.Environ(), "LANG"))
	kr := keys.NewReader(sess)
	ctx := sess.Context()

	probe := menu.ModifierProbeFunc(func() bool {
		return kr.Pending(ctx, ShiftWindow)
	})
	m, err := menu.New(cfg, sess, mode, kr, menu.WithModifierProbe(probe))
	if err != nil {
		return err
	}

	record := s.exec.WithSource("ssh:" + info.User)
	loop := &boot.Loop{
		Runner: m,
		Executor: boot.ExecutorFunc(func(ctx context.Context, cmdline string) error {
			if err := record.Execute(ctx, cmdline); err != nil {
				return err
			}
			fmt.Fprintf(sess, "\r\n\x1b[0mNext boot: %s\r\n", cmdline)
			return nil
		}),
		OnError: onError,
		Failed: func(cmdline string, err error) {
			fmt.Fprintf(sess, "\r\n\x1b[0mFailed to record %q: %v\r\n", cmdline, err)
		},
	}
	return loop.Run(ctx)
}

func envValue(env []string, name string) string {
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, name+"="); ok {
			return v
		}
	}
	return ""
}
