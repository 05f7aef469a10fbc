package vview

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Debug enables verbose diagnostics on the log output.
var Debug bool

var (
	logMu  sync.Mutex
	logOut io.Writer = os.Stderr
)

// SetLogOutput redirects diagnostics. Pass io.Discard to silence them.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	logOut = w
	logMu.Unlock()
}

// logf prints a diagnostic line prefixed with [vview].
func logf(format string, args ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	_, _ = fmt.Fprintf(logOut, "[vview] "+format+"\n", args...)
}

// debugf is logf gated by Debug.
func debugf(format string, args ...any) {
	if Debug {
		logf(format, args...)
	}
}
