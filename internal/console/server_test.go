package console

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gossh "golang.org/x/crypto/ssh"

	"github.com/stlalpha/bootmenu/internal/ansi"
	"github.com/stlalpha/bootmenu/internal/boot"
	"github.com/stlalpha/bootmenu/internal/menu"
	"github.com/stlalpha/bootmenu/internal/screen"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeHostKey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys", "host_key")
	if err := EnsureHostKey(path); err != nil {
		t.Fatalf("EnsureHostKey: %v", err)
	}
	return path
}

func TestEnsureHostKeyKeepsExisting(t *testing.T) {
	path := writeHostKey(t)
	before, _ := os.ReadFile(path)
	if err := EnsureHostKey(path); err != nil {
		t.Fatalf("EnsureHostKey: %v", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("existing host key was replaced")
	}
	if _, err := gossh.ParsePrivateKey(after); err != nil {
		t.Errorf("generated key does not parse: %v", err)
	}
}

func testBuilder(rows, cols int) (*menu.Config, string, error) {
	params := menu.DefaultParams()
	params.Width = 0
	return &menu.Config{
		Title: "Console",
		Entries: []menu.Entry{
			menu.NewEntry("linux", "^Linux", "vmlinuz quiet", ""),
			menu.NewEntry("rescue", "^Rescue", "vmlinuz single", ""),
		},
		AllowEdit: true,
		Params:    params.Normalize(rows, cols),
		Palette:   screen.DefaultPalette(),
	}, "", nil
}

func startServer(t *testing.T, cfg Config) (string, *syncBuffer) {
	t.Helper()
	cfg.HostKeyPath = writeHostKey(t)
	cfg.OutputMode = ansi.OutputModeUTF8

	log := &syncBuffer{}
	srv, err := NewServer(cfg, testBuilder, boot.NewRecordExecutor(log, "console"))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })
	return l.Addr().String(), log
}

func dial(addr, password string) (*gossh.Client, error) {
	return gossh.Dial("tcp", addr, &gossh.ClientConfig{
		User:            "operator",
		Auth:            []gossh.AuthMethod{gossh.Password(password)},
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
}

func waitSession(t *testing.T, sess *gossh.Session) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- sess.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish")
		return nil
	}
}

func TestServer_RecordsSelection(t *testing.T) {
	addr, log := startServer(t, Config{Password: "pw"})

	client, err := dial(addr, "pw")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	var out syncBuffer
	sess.Stdout = &out
	if err := sess.RequestPty("xterm", 24, 80, gossh.TerminalModes{}); err != nil {
		t.Fatalf("RequestPty: %v", err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		t.Fatalf("StdinPipe: %v", err)
	}
	if err := sess.Shell(); err != nil {
		t.Fatalf("Shell: %v", err)
	}

	// Down arrow, then Enter.
	stdin.Write([]byte("\x1b[B"))
	time.Sleep(50 * time.Millisecond)
	stdin.Write([]byte("\r"))

	if err := waitSession(t, sess); err != nil {
		t.Fatalf("session ended with %v", err)
	}

	var sel boot.Selection
	if err := json.Unmarshal([]byte(strings.TrimSpace(log.String())), &sel); err != nil {
		t.Fatalf("selection log %q: %v", log.String(), err)
	}
	if sel.Cmdline != "vmlinuz single" || sel.Source != "ssh:operator" {
		t.Errorf("recorded %+v", sel)
	}
	if !strings.Contains(ansi.StripAnsi(out.String()), "Next boot: vmlinuz single") {
		t.Errorf("no confirmation in output")
	}
}

func TestServer_RequiresPty(t *testing.T) {
	addr, _ := startServer(t, Config{})

	client, err := dial(addr, "")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	var out syncBuffer
	sess.Stdout = &out
	if err := sess.Shell(); err != nil {
		t.Fatalf("Shell: %v", err)
	}

	err = waitSession(t, sess)
	var exitErr *gossh.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitStatus() != 1 {
		t.Errorf("session ended with %v, want exit status 1", err)
	}
	if !strings.Contains(out.String(), "needs a terminal") {
		t.Errorf("output %q", out.String())
	}
}

func TestServer_WrongPassword(t *testing.T) {
	addr, _ := startServer(t, Config{Password: "pw"})

	if client, err := dial(addr, "nope"); err == nil {
		client.Close()
		t.Error("login succeeded with the wrong password")
	}
}

func TestEnvValue(t *testing.T) {
	env := []string{"TERM=xterm", "LANG=en_US.UTF-8"}
	if got := envValue(env, "LANG"); got != "en_US.UTF-8" {
		t.Errorf("envValue = %q", got)
	}
	if got := envValue(env, "LC_ALL"); got != "" {
		t.Errorf("envValue(LC_ALL) = %q", got)
	}
}
