// Package logging builds the ll loggers the library packages trace through.
// Loggers are quiet unless enabled; failures reach callers as outcomes and
// errors, so a disabled logger loses nothing a caller needs.
package logging

import (
	"io"

	"github.com/olekukonko/ll"
	"github.com/olekukonko/ll/lh"
)

// New returns a text logger for namespace writing to w.
func New(namespace string, w io.Writer, enabled bool) *ll.Logger {
	l := ll.New(namespace).Handler(lh.NewTextHandler(w))
	if enabled {
		l.Enable()
	} else {
		l.Disable()
	}
	return l
}

// Discard returns a disabled logger for namespace.
func Discard(namespace string) *ll.Logger {
	return New(namespace, io.Discard, false)
}
