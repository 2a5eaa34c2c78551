package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stlalpha/bootmenu/internal/keys"
)

// countdownQuantum is how often the auto-boot countdown is redrawn.
const countdownQuantum = time.Second

// errSessionTimeout unwinds every nested prompt when the session budget runs
// out, and ends browsing when the auto-boot countdown expires. Run resolves
// it to the default entry; it never leaves the package.
var errSessionTimeout = errors.New("menu: session timed out")

// Clock is the time source of the timeout controller.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// KeySource delivers keystrokes. ReadKey waits at most timeout (forever when
// timeout <= 0) and returns keys.None when it elapses.
type KeySource interface {
	ReadKey(ctx context.Context, timeout time.Duration) (keys.Key, error)
}

// timeouts tracks the session budget across every wait of one Run.
type timeouts struct {
	clock     Clock
	total     time.Duration // Remaining session budget
	unlimited bool
}

// nextKey flushes pending output and waits for a key for at most timeout
// (0 = no limit). Elapsed time is charged to the session budget;
// errSessionTimeout is returned as soon as it is spent, key or not.
func (s *session) nextKey(timeout time.Duration) (keys.Key, error) {
	if err := s.scr.Flush(); err != nil {
		return keys.None, fmt.Errorf("write to terminal: %w", err)
	}

	if s.to.unlimited {
		return s.readKey(timeout)
	}

	for {
		wait := s.to.total
		if timeout > 0 {
			wait = min(wait, timeout)
		}

		t0 := s.to.clock.Now()
		key, err := s.readKey(wait)
		elapsed := s.to.clock.Now().Sub(t0)
		if err != nil {
			return keys.None, err
		}

		if s.to.total <= elapsed {
			return keys.None, errSessionTimeout
		}
		s.to.total -= elapsed

		if key != keys.None {
			return key, nil
		}

		if timeout > 0 {
			if timeout <= elapsed {
				return keys.None, nil
			}
			timeout -= elapsed
		}
	}
}

func (s *session) readKey(timeout time.Duration) (keys.Key, error) {
	key, err := s.keys.ReadKey(s.ctx, timeout)
	if err != nil {
		return keys.None, fmt.Errorf("read key: %w", err)
	}
	return key, nil
}
