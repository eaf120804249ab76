package codegen

import (
	"fmt"
	"strings"
)

// Writer accumulates source text with indentation.
type Writer struct {
	buf    strings.Builder
	unit   string
	indent int
}

// NewWriter returns a Writer that indents with unit per level.
func NewWriter(unit string) *Writer {
	return &Writer{unit: unit}
}

// Line writes text as one indented line.
func (w *Writer) Line(text string) {
	if text == "" {
		w.buf.WriteByte('\n')
		return
	}
	w.buf.WriteString(strings.Repeat(w.unit, w.indent))
	w.buf.WriteString(text)
	w.buf.WriteByte('\n')
}

// Linef formats according to format and writes the result with Line.
func (w *Writer) Linef(format string, args ...any) {
	w.Line(fmt.Sprintf(format, args...))
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.buf.WriteByte('\n') }

// Raw writes text verbatim; multi-line templates use it.
func (w *Writer) Raw(text string) { w.buf.WriteString(text) }

func (w *Writer) Indent() { w.indent++ }

func (w *Writer) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

// Block writes open, the indented body and close.
func (w *Writer) Block(open, close string, body func()) {
	w.Line(open)
	w.Indent()
	body()
	w.Dedent()
	w.Line(close)
}

func (w *Writer) String() string { return w.buf.String() }
