package guard

import (
	"fmt"
	"strings"
)

// A BoolExpr is a boolean condition in the target system's expression
// dialect. The set of implementations is closed.
type BoolExpr interface {
	// Render returns the condition as a target expression string.
	Render() string

	boolExprVariant()
}

// PathExists tests that a path exists on the managed host.
type PathExists struct{ Path string }

// PathIsDir tests that a path exists and is a directory.
type PathIsDir struct{ Path string }

// PathIsSymlink tests that a path exists and is a symbolic link.
type PathIsSymlink struct{ Path string }

// CommandAvailable tests that an executable is resolvable on PATH.
type CommandAvailable struct{ Command string }

// ServiceActive tests that a system service is currently running.
type ServiceActive struct{ Service string }

// ServiceEnabled tests that a system service is enabled at boot.
type ServiceEnabled struct{ Service string }

// PackageInstalled tests that a package is present.
type PackageInstalled struct{ Package string }

// FileContains tests that a file's content matches a pattern.
type FileContains struct {
	Path    string
	Pattern string
}

// Not negates a condition. NotIf guards always wrap the translated condition
// in Not rather than re-deriving a separate rule.
type Not struct{ X BoolExpr }

// And combines conditions; all must hold. Order follows declaration order.
type And struct{ All []BoolExpr }

// OpaqueCond is a condition that could not be translated. The original guard
// text is preserved for manual review.
type OpaqueCond struct {
	Raw     string
	Negated bool
}

func (PathExists) boolExprVariant()       {}
func (PathIsDir) boolExprVariant()        {}
func (PathIsSymlink) boolExprVariant()    {}
func (CommandAvailable) boolExprVariant() {}
func (ServiceActive) boolExprVariant()    {}
func (ServiceEnabled) boolExprVariant()   {}
func (PackageInstalled) boolExprVariant() {}
func (FileContains) boolExprVariant()     {}
func (Not) boolExprVariant()              {}
func (And) boolExprVariant()              {}
func (OpaqueCond) boolExprVariant()       {}

func (e PathExists) Render() string {
	return fmt.Sprintf("%s is exists", quote(e.Path))
}

func (e PathIsDir) Render() string {
	return fmt.Sprintf("%s is directory", quote(e.Path))
}

func (e PathIsSymlink) Render() string {
	return fmt.Sprintf("%s is link", quote(e.Path))
}

func (e CommandAvailable) Render() string {
	return fmt.Sprintf("lookup('pipe', 'command -v %s || true') != ''", e.Command)
}

func (e ServiceActive) Render() string {
	return fmt.Sprintf("ansible_facts.services[%s].state == 'running'", quote(e.Service))
}

func (e ServiceEnabled) Render() string {
	return fmt.Sprintf("ansible_facts.services[%s].status == 'enabled'", quote(e.Service))
}

func (e PackageInstalled) Render() string {
	return fmt.Sprintf("%s in ansible_facts.packages", quote(e.Package))
}

func (e FileContains) Render() string {
	return fmt.Sprintf("lookup('file', %s) is search(%s)", quote(e.Path), quote(e.Pattern))
}

func (e Not) Render() string {
	return fmt.Sprintf("not (%s)", e.X.Render())
}

func (e And) Render() string {
	parts := make([]string, len(e.All))
	for i, x := range e.All {
		parts[i] = x.Render()
	}
	return strings.Join(parts, " and ")
}

func (e OpaqueCond) Render() string {
	if e.Negated {
		return fmt.Sprintf("not (UNTRANSLATED: %s)", e.Raw)
	}
	return fmt.Sprintf("UNTRANSLATED: %s", e.Raw)
}

// Combine AND-combines conditions in the given order. A single condition is
// returned unwrapped. Returns nil for an empty list.
func Combine(conds []BoolExpr) BoolExpr {
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return And{All: conds}
	}
}

func quote(s string) string {
	return "'" + strings.Replace(s, "'", "\\'", -1) + "'"
}
