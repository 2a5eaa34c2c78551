package boot

import (
	"context"
	"fmt"
	"log"

	"github.com/stlalpha/bootmenu/internal/logging"
)

// Runner runs one menu interaction and returns the command line to boot,
// or false when the operator left without choosing.
type Runner interface {
	Run(ctx context.Context) (string, bool, error)
}

// Loop runs the menu, boots the choice, and comes back to the menu when the
// boot fails.
type Loop struct {
	Runner   Runner
	Executor Executor
	// OnError is tried once after a failed boot before the menu returns.
	OnError string
	// Changed and Reload, when both set, rebuild the menu before it is
	// shown again after its definition changed.
	Changed func() bool
	Reload  func() (Runner, string, error)
	// Failed is told about every failed boot, e.g. to show it on screen.
	Failed func(cmdline string, err error)
}

// Run loops until a boot hands control away, the operator leaves the menu,
// or the menu itself fails.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.reload()

		cmdline, ok, err := l.Runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("menu: %w", err)
		}
		if !ok {
			log.Printf("INFO: Menu exited without a selection")
			return nil
		}

		if err := l.boot(ctx, cmdline); err == nil {
			return nil
		}
		if l.OnError != "" {
			log.Printf("INFO: Trying onerror command")
			if err := l.boot(ctx, l.OnError); err == nil {
				return nil
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		logging.Debug("boot: re-entering menu")
	}
}

func (l *Loop) boot(ctx context.Context, cmdline string) error {
	log.Printf("INFO: Booting %q", cmdline)
	err := l.Executor.Execute(ctx, cmdline)
	if err != nil {
		log.Printf("ERROR: Boot of %q failed: %v", cmdline, err)
		if l.Failed != nil {
			l.Failed(cmdline, err)
		}
	}
	return err
}

func (l *Loop) reload() {
	if l.Changed == nil || l.Reload == nil || !l.Changed() {
		return
	}
	r, onError, err := l.Reload()
	if err != nil {
		log.Printf("ERROR: Failed to reload menu, keeping the previous one: %v", err)
		return
	}
	l.Runner, l.OnError = r, onError
	log.Printf("INFO: Menu reloaded")
}
