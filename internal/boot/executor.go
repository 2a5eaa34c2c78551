// Package boot hands resolved command lines to whatever starts the next
// stage and re-enters the menu when that fails.
package boot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anmitsu/go-shlex"
	"github.com/google/uuid"
)

// LocalBootCommand is the pseudo kernel that asks for a local boot. Its
// argument is a drive number in C notation (".localboot 0x80").
const LocalBootCommand = ".localboot"

var (
	// ErrEmptyCommand is returned for a command line with nothing to run.
	ErrEmptyCommand = errors.New("empty command line")
	// ErrReturned is returned when a boot that should not come back did.
	ErrReturned = errors.New("boot command returned")
)

// Executor starts a command line. On success control normally leaves the
// program; a returned error means the boot failed and the menu should run
// again.
type Executor interface {
	Execute(ctx context.Context, cmdline string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, cmdline string) error

func (f ExecutorFunc) Execute(ctx context.Context, cmdline string) error { return f(ctx, cmdline) }

// Split breaks a command line into arguments with shell quoting rules.
func Split(cmdline string) ([]string, error) {
	argv, err := shlex.Split(cmdline, true)
	if err != nil {
		return nil, fmt.Errorf("parsing command line %q: %w", cmdline, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

// ParseLocalBoot reports whether argv is a local boot request and returns
// its drive argument (0 when none is given).
func ParseLocalBoot(argv []string) (int64, bool, error) {
	if len(argv) == 0 || argv[0] != LocalBootCommand {
		return 0, false, nil
	}
	if len(argv) < 2 {
		return 0, true, nil
	}
	n, err := strconv.ParseInt(argv[1], 0, 64)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s argument %q: %w", LocalBootCommand, argv[1], err)
	}
	return n, true, nil
}

// ExecExecutor replaces the running program with the command. The hooks
// are optional.
type ExecExecutor struct {
	// Restore gives the terminal back before control leaves.
	Restore func()
	// Resume takes the terminal again after an exec that failed, so the
	// menu can be shown once more.
	Resume func()
	// LocalBoot handles ".localboot N". When nil the program exits with
	// status 0 so the caller continues with its local boot.
	LocalBoot func(drive int64) error
	// Env is the environment of the new program; nil means the current one.
	Env []string
	// Exit ends the program; nil means os.Exit.
	Exit func(code int)

	exec func(path string, argv []string, env []string) error
}

func (x *ExecExecutor) Execute(ctx context.Context, cmdline string) error {
	argv, err := Split(cmdline)
	if err != nil {
		return err
	}

	drive, local, err := ParseLocalBoot(argv)
	if err != nil {
		return err
	}
	if local {
		if x.LocalBoot != nil {
			return x.LocalBoot(drive)
		}
		x.restore()
		x.exit(0)
		return ErrReturned
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("boot %s: %w", argv[0], err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	env := x.Env
	if env == nil {
		env = os.Environ()
	}
	run := x.exec
	if run == nil {
		run = x.execProcess
	}

	x.restore()
	if err := run(path, argv, env); err != nil {
		x.resume()
		return fmt.Errorf("boot %s: %w", argv[0], err)
	}
	return nil
}

func (x *ExecExecutor) restore() {
	if x.Restore != nil {
		x.Restore()
	}
}

func (x *ExecExecutor) resume() {
	if x.Resume != nil {
		x.Resume()
	}
}

func (x *ExecExecutor) exit(code int) {
	if x.Exit != nil {
		x.Exit(code)
		return
	}
	os.Exit(code)
}

// PrintExecutor only shows what would be booted.
type PrintExecutor struct {
	W io.Writer
}

func (p *PrintExecutor) Execute(ctx context.Context, cmdline string) error {
	_, err := fmt.Fprintf(p.W, "\n\x1b[0m>>> %s\n", cmdline)
	return err
}

// Selection is one line of a selection log.
type Selection struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Source  string    `json:"source,omitempty"`
	Cmdline string    `json:"cmdline"`
}

// RecordExecutor appends each selection as a JSON line, for a boot stage
// that picks up the operator's choice later. It is safe for concurrent use.
type RecordExecutor struct {
	mu     sync.Mutex
	w      io.Writer
	source string
	now    func() time.Time
}

// NewRecordExecutor records to w, tagging entries with source.
func NewRecordExecutor(w io.Writer, source string) *RecordExecutor {
	return &RecordExecutor{w: w, source: source, now: time.Now}
}

// WithSource returns an executor writing to the same log with another tag.
func (r *RecordExecutor) WithSource(source string) Executor {
	return ExecutorFunc(func(ctx context.Context, cmdline string) error {
		return r.record(source, cmdline)
	})
}

func (r *RecordExecutor) Execute(ctx context.Context, cmdline string) error {
	return r.record(r.source, cmdline)
}

func (r *RecordExecutor) record(source, cmdline string) error {
	if strings.TrimSpace(cmdline) == "" {
		return ErrEmptyCommand
	}
	sel := Selection{
		ID:      uuid.New().String(),
		Time:    r.now().UTC(),
		Source:  source,
		Cmdline: cmdline,
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("encoding selection: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("recording selection: %w", err)
	}
	return nil
}
