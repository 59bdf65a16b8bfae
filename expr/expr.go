// Package expr models recipe property values as a closed set of expression
// variants.
//
// The source language is dynamically typed and never executed, so values are
// recovered lexically. Every recognizer is total: input that matches no
// production is preserved as an Opaque expression that round-trips to the
// original text. Downstream consumers switch over the variant types instead
// of inspecting runtime types.
package expr

import (
	"github.com/zclconf/go-cty/cty"
)

// An Expr is a recipe value expression. The set of implementations is closed:
// Literal, AttributePath, Interpolation and Opaque.
type Expr interface {
	// Source returns the original source text of the expression.
	Source() string

	exprVariant()
}

// A Literal is a value fully known at conversion time: a string, number,
// bool, nil, or a list of literals (from array or word-array syntax).
type Literal struct {
	Val cty.Value
	Raw string
}

// An AttributePath is a node attribute lookup such as node['app']['port'].
// Keys are normalized; bracket and symbol notation produce identical paths.
type AttributePath struct {
	// Scope is the lookup root: "node" for attribute roots (including forms
	// like node.default) or "new_resource" for a resource self-reference.
	Scope string
	Keys  []string
	Raw   string
}

// An Interpolation is a double-quoted string containing #{...} segments.
// Literal text between segments is kept as Literal expressions so the
// original string can be reassembled.
type Interpolation struct {
	Segments []Expr
	Raw      string
}

// An Opaque expression did not match any recognized production. The raw text
// is preserved verbatim for diagnostics and manual review.
type Opaque struct {
	Raw string
}

func (l *Literal) Source() string       { return l.Raw }
func (a *AttributePath) Source() string { return a.Raw }
func (i *Interpolation) Source() string { return i.Raw }
func (o *Opaque) Source() string        { return o.Raw }

func (*Literal) exprVariant()       {}
func (*AttributePath) exprVariant() {}
func (*Interpolation) exprVariant() {}
func (*Opaque) exprVariant()       {}

// String returns the literal as a Go string if it holds a cty string value.
func (l *Literal) String() (string, bool) {
	if l.Val.Type() == cty.String && !l.Val.IsNull() {
		return l.Val.AsString(), true
	}
	return "", false
}

// IsStatic reports whether e can be rendered without any runtime lookup.
func IsStatic(e Expr) bool {
	switch v := e.(type) {
	case *Literal:
		return true
	case *Interpolation:
		for _, s := range v.Segments {
			if !IsStatic(s) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
