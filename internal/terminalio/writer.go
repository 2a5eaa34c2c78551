package terminalio

import (
	"io"

	"github.com/stlalpha/bootmenu/internal/ansi"
)

// NewWriter wraps w for the given output mode. CP437 terminals get a
// transcoding writer; every other mode receives UTF-8 unchanged.
func NewWriter(w io.Writer, mode ansi.OutputMode) io.Writer {
	if mode == ansi.OutputModeCP437 {
		return NewCP437Writer(w)
	}
	return w
}
