package bufwriter

import (
	"fmt"
	"strings"
)

// Writer accumulates SQL text line by line.
type Writer struct {
	buf strings.Builder
}

func (w *Writer) WriteString(s string) {
	w.buf.WriteString(s)
}

func (w *Writer) WriteStringf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *Writer) WriteLinef(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

// WriteColumns writes defs as an indented, comma separated list, one per line.
func (w *Writer) WriteColumns(defs []string) {
	for i, def := range defs {
		w.buf.WriteString("    ")
		w.buf.WriteString(def)
		if i < len(defs)-1 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteByte('\n')
	}
}

func (w *Writer) String() string {
	return w.buf.String()
}
