// Package guard translates recipe guard clauses (only_if / not_if) into
// boolean expressions for the target system.
//
// Translation is best effort: a recognized command or block pattern
// maps to a structured condition; anything else becomes an opaque condition
// carrying the original text and a review warning. Translation never fails.
package guard

import (
	"github.com/recipeshift/recipeshift/diag"
)

// Kind distinguishes the two guard clauses.
type Kind int

const (
	// OnlyIf gates the action on the condition holding.
	OnlyIf Kind = iota

	// NotIf gates the action on the condition not holding.
	NotIf
)

func (k Kind) String() string {
	if k == NotIf {
		return "not_if"
	}
	return "only_if"
}

// A Guard is a single conditional clause attached to a resource. Exactly one
// of Command or Block is set: Command for string-form guards (a shell
// command whose exit status decides), Block for closure-form guards (raw
// source text of the block body).
type Guard struct {
	Kind    Kind
	Command string
	Block   string
	Span    diag.Pos
}
