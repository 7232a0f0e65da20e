package handler

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	dimColor   = color.New(color.Faint)
	eventColor = color.New(color.FgMagenta)
)

// say writes one colored chunk in a single Write so concurrent views do not interleave.
func say(w io.Writer, c *color.Color, format string, args ...any) {
	fmt.Fprint(w, c.Sprintf(format, args...))
}

func printError(w io.Writer, err error) {
	say(w, errColor, "[error] %v\n", err)
}

// lockedWriter serializes writes from the REPL and the event printer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
