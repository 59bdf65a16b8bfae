package diag

import (
	"fmt"
	"io"
	"strings"

	wordwrap "github.com/mitchellh/go-wordwrap"
	"golang.org/x/crypto/ssh/terminal"
)

// A Writer writes diagnostics as human readable text.
//
// If a TTY is attached, output is colorized and wraps at the terminal width.
// Otherwise wrapping occurs at 78 characters and no ANSI escape characters
// are emitted.
type Writer struct {
	out   io.Writer
	width uint
	color bool
}

// NewWriter creates a writer that writes to out, detecting terminal width and
// color support from stdin.
func NewWriter(out io.Writer) *Writer {
	cols, _, err := terminal.GetSize(0)
	if err != nil || cols <= 0 {
		cols = 78
	}
	return &Writer{
		out:   out,
		width: uint(cols),
		color: terminal.IsTerminal(0),
	}
}

// WriteDiagnostics writes all diagnostics in order.
func (w *Writer) WriteDiagnostics(diags Diagnostics) error {
	for _, d := range diags {
		if err := w.WriteDiagnostic(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteDiagnostic writes a single diagnostic.
func (w *Writer) WriteDiagnostic(d *Diagnostic) error {
	label := d.Severity.String()
	if w.color {
		switch d.Severity {
		case Error:
			label = "\x1b[31m" + label + "\x1b[0m"
		case Warning:
			label = "\x1b[33m" + label + "\x1b[0m"
		}
	}

	loc := d.Source
	if d.Subject != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Source, d.Subject.Line, d.Subject.Column)
	}

	head := fmt.Sprintf("%s: %s", label, d.Summary)
	if loc != "" {
		head += fmt.Sprintf(" (%s)", loc)
	}
	if _, err := fmt.Fprintln(w.out, head); err != nil {
		return err
	}

	if d.Detail != "" {
		width := w.width
		if width > 4 {
			width -= 4
		}
		for _, line := range strings.Split(wordwrap.WrapString(d.Detail, width), "\n") {
			if _, err := fmt.Fprintf(w.out, "    %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}
