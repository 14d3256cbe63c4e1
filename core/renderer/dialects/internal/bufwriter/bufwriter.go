// Package bufwriter is a small line-oriented buffer used by the dialect renderers.
package bufwriter

import (
	"fmt"
	"strings"
)

// Writer accumulates SQL text.
type Writer struct {
	b strings.Builder
}

// WriteString appends s.
func (w *Writer) WriteString(s string) {
	w.b.WriteString(s)
}

// WriteLinef appends a formatted line terminated by a newline.
func (w *Writer) WriteLinef(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

// String returns the accumulated text.
func (w *Writer) String() string {
	return w.b.String()
}

// Reset discards the accumulated text.
func (w *Writer) Reset() {
	w.b.Reset()
}
