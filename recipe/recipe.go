package recipe

import (
	"fmt"

	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/guard"
	"github.com/recipeshift/recipeshift/notify"
)

// PropertyKind says how a property's raw text should be interpreted.
type PropertyKind int

const (
	// Value is a plain value expression on the property line.
	Value PropertyKind = iota

	// Heredoc is a resolved heredoc body; Raw holds the final string content.
	Heredoc

	// Block is the raw source of a nested block argument, preserved verbatim.
	Block
)

// A Property is one property statement inside a resource body. Values are
// extracted as raw text; normalization into expressions is a later stage.
type Property struct {
	Name string
	Kind PropertyKind
	Raw  string
	Span diag.Pos
}

// A Declaration is the extracted shell of one resource declaration: its
// type, raw name expression, and everything found in its body. Declarations
// are immutable once the extractor returns them.
//
// Multiple declarations with the same type and name are not collapsed; each
// occurrence is returned separately in source order.
type Declaration struct {
	Type    string
	RawName string

	// Actions lists the action symbols declared with an action property, in
	// order. Empty means the resource type's default action.
	Actions []string

	Properties    []Property
	Guards        []guard.Guard
	Notifications []notify.Notification

	Span   diag.Pos
	Source string

	// Body is the raw body text, kept for diagnostics.
	Body string
}

// Ref returns the "type[name]" reference other resources use in
// notifications. The raw name is used verbatim minus its quoting; names that
// are not simple string literals keep their source form.
func (d *Declaration) Ref() string {
	return fmt.Sprintf("%s[%s]", d.Type, unquote(d.RawName))
}

// unquote strips matching single or double quotes from a simple literal.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
