package diag

import (
	"fmt"
)

// Severity indicates how severe a diagnostic is.
type Severity int

const (
	// Error indicates that a construct could not be converted at all. The
	// surrounding file is still processed.
	Error Severity = iota

	// Warning indicates a best-effort conversion that should be reviewed,
	// such as an opaque value or an unresolved cross-file reference.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// A Pos is a position within a source file. Lines and columns are 1-based.
type Pos struct {
	Line   int
	Column int
}

// Ptr returns a pointer to a copy of the position, for setting a Subject on a
// diagnostic from a value.
func (p Pos) Ptr() *Pos { return &p }

// A Diagnostic is a single message produced during conversion. Diagnostics
// accumulate alongside results; they never replace them.
type Diagnostic struct {
	Severity Severity
	Summary  string
	Detail   string

	// Source is the identifier of the file the diagnostic refers to. It is
	// used only for display.
	Source string

	// Subject points at the construct the diagnostic is about, if known.
	Subject *Pos
}

func (d *Diagnostic) Error() string {
	if d.Subject != nil {
		return fmt.Sprintf("%s:%d,%d: %s; %s", d.Source, d.Subject.Line, d.Subject.Column, d.Summary, d.Detail)
	}
	return fmt.Sprintf("%s: %s; %s", d.Source, d.Summary, d.Detail)
}

// Diagnostics is a list of diagnostics.
type Diagnostics []*Diagnostic

// Append appends more diagnostics, returning the combined list.
func (d Diagnostics) Append(more ...*Diagnostic) Diagnostics {
	return append(d, more...)
}

// Extend appends another diagnostics list.
func (d Diagnostics) Extend(more Diagnostics) Diagnostics {
	return append(d, more...)
}

// HasErrors returns true if any diagnostic has Error severity.
func (d Diagnostics) HasErrors() bool {
	for _, dd := range d {
		if dd.Severity == Error {
			return true
		}
	}
	return false
}

// Errs returns only the diagnostics with Error severity.
func (d Diagnostics) Errs() Diagnostics {
	var out Diagnostics
	for _, dd := range d {
		if dd.Severity == Error {
			out = append(out, dd)
		}
	}
	return out
}

func (d Diagnostics) Error() string {
	switch len(d) {
	case 0:
		return "no diagnostics"
	case 1:
		return d[0].Error()
	default:
		return fmt.Sprintf("%s, and %d other diagnostics", d[0].Error(), len(d)-1)
	}
}
