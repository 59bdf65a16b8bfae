// Package attr implements the six-level attribute precedence model.
//
// Many assignments may target the same key path at different precedence
// levels; resolution produces exactly one effective value per key path. The
// precedence ranking is a total order with an explicit tie-break (last
// declared wins) so results never depend on map iteration order.
package attr

import (
	"fmt"
	"strings"

	"github.com/recipeshift/recipeshift/expr"
)

// Precedence is an attribute precedence level. Values are ordered by rank:
// a higher value always wins over a lower one.
type Precedence int

const (
	Default Precedence = iota
	Normal
	ForceDefault
	Override
	ForceOverride
	Automatic
)

func (p Precedence) String() string {
	switch p {
	case Default:
		return "default"
	case Normal:
		return "normal"
	case ForceDefault:
		return "force_default"
	case Override:
		return "override"
	case ForceOverride:
		return "force_override"
	case Automatic:
		return "automatic"
	default:
		return fmt.Sprintf("Precedence(%d)", int(p))
	}
}

// PrecedenceFromKeyword maps an attribute-file scope keyword to its level.
// The legacy "set" keyword is an alias for normal.
func PrecedenceFromKeyword(kw string) (Precedence, bool) {
	switch kw {
	case "default":
		return Default, true
	case "normal", "set":
		return Normal, true
	case "force_default":
		return ForceDefault, true
	case "override":
		return Override, true
	case "force_override":
		return ForceOverride, true
	case "automatic":
		return Automatic, true
	}
	return 0, false
}

// An Assignment is one attribute-assignment statement from an attribute
// file. Index is the declaration index across the whole scan and breaks ties
// between assignments at the same precedence.
type Assignment struct {
	Precedence Precedence
	KeyPath    []string
	Value      expr.Expr
	Index      int
}

// An Effective is the single resolved value for one key path.
type Effective struct {
	KeyPath           []string
	Value             expr.Expr
	WinningPrecedence Precedence
}

// Resolve selects one effective value per key path. Within each key path the
// assignment with the highest precedence rank wins; on a rank tie the
// greatest declaration index wins. Output order follows the first
// declaration of each key path.
//
// Resolve has no failure mode: unresolvable values are carried through as
// the expressions they already are, including Opaque.
func Resolve(assignments []Assignment) []Effective {
	type slot struct {
		winner Assignment
	}
	byPath := make(map[string]*slot)
	var order []string

	for _, a := range assignments {
		key := JoinPath(a.KeyPath)
		s, ok := byPath[key]
		if !ok {
			byPath[key] = &slot{winner: a}
			order = append(order, key)
			continue
		}
		w := s.winner
		if a.Precedence > w.Precedence || (a.Precedence == w.Precedence && a.Index >= w.Index) {
			s.winner = a
		}
	}

	out := make([]Effective, 0, len(order))
	for _, key := range order {
		w := byPath[key].winner
		out = append(out, Effective{
			KeyPath:           w.KeyPath,
			Value:             w.Value,
			WinningPrecedence: w.Precedence,
		})
	}
	return out
}

// JoinPath renders a key path as a dotted string for grouping and display.
func JoinPath(keys []string) string {
	return strings.Join(keys, ".")
}

// A Table is a resolved attribute set supporting lookups by key path. It is
// computed once per cookbook and is safe for concurrent reads.
type Table struct {
	entries map[string]Effective
	order   []string
}

// NewTable builds a lookup table from resolved attributes.
func NewTable(attrs []Effective) *Table {
	t := &Table{entries: make(map[string]Effective, len(attrs))}
	for _, a := range attrs {
		key := JoinPath(a.KeyPath)
		if _, ok := t.entries[key]; !ok {
			t.order = append(t.order, key)
		}
		t.entries[key] = a
	}
	return t
}

// Lookup returns the effective attribute for an exact key path. A key path
// may extend a declared parent path or stop short of declared children; only
// exact leaf matches return a value.
func (t *Table) Lookup(keys []string) (Effective, bool) {
	e, ok := t.entries[JoinPath(keys)]
	return e, ok
}

// HasPrefix reports whether any declared key path starts with the given
// path, meaning the path names an attribute subtree rather than a leaf.
func (t *Table) HasPrefix(keys []string) bool {
	prefix := JoinPath(keys) + "."
	for _, k := range t.order {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// All returns all effective attributes in first-declared order.
func (t *Table) All() []Effective {
	out := make([]Effective, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.entries[k])
	}
	return out
}

// Len returns the number of effective attributes.
func (t *Table) Len() int { return len(t.order) }
