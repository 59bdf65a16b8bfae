package task

import (
	"fmt"
	"strings"

	"github.com/recipeshift/recipeshift/attr"
	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/expr"
	"github.com/zclconf/go-cty/cty"
)

// selfScope resolves new_resource references against the resource's own
// normalized properties.
type selfScope struct {
	name  string
	props map[string]expr.Expr
}

// renderValue converts a normalized expression into a target parameter
// value. Attribute paths resolve against the effective attribute table;
// unresolved paths keep their source text and produce a warning.
func renderValue(e expr.Expr, attrs *attr.Table, self *selfScope, source string, span diag.Pos) (interface{}, diag.Diagnostics) {
	return renderDepth(e, attrs, self, source, span, 0)
}

func renderDepth(e expr.Expr, attrs *attr.Table, self *selfScope, source string, span diag.Pos, depth int) (interface{}, diag.Diagnostics) {
	if depth > 10 {
		// An attribute whose value refers back into the attribute tree deep
		// enough to hit this is cyclic; keep the text.
		return e.Source(), nil
	}

	switch v := e.(type) {
	case *expr.Literal:
		return ctyToGo(v.Val), nil

	case *expr.AttributePath:
		if v.Scope == "new_resource" && self != nil {
			if len(v.Keys) == 1 {
				if v.Keys[0] == "name" {
					return self.name, nil
				}
				if p, ok := self.props[v.Keys[0]]; ok {
					return renderDepth(p, attrs, self, source, span, depth+1)
				}
			}
			return unresolved(v.Raw, v.Keys, source, span)
		}
		if attrs != nil {
			if eff, ok := attrs.Lookup(v.Keys); ok {
				return renderDepth(eff.Value, attrs, self, source, span, depth+1)
			}
		}
		return unresolved(v.Raw, v.Keys, source, span)

	case *expr.Interpolation:
		var sb strings.Builder
		var diags diag.Diagnostics
		for _, seg := range v.Segments {
			val, more := renderDepth(seg, attrs, self, source, span, depth+1)
			diags = diags.Extend(more)
			sb.WriteString(stringify(val))
		}
		return sb.String(), diags

	case *expr.Opaque:
		// The normalizer already warned when it produced the Opaque.
		return v.Raw, nil

	default:
		return e.Source(), nil
	}
}

func unresolved(raw string, keys []string, source string, span diag.Pos) (interface{}, diag.Diagnostics) {
	return raw, diag.Diagnostics{{
		Severity: diag.Warning,
		Summary:  "Unresolved attribute reference",
		Detail:   fmt.Sprintf("No effective attribute exists for %s. The reference is kept verbatim for cross-file resolution.", attr.JoinPath(keys)),
		Source:   source,
		Subject:  span.Ptr(),
	}}
}

// ctyToGo lowers a cty value into the plain Go shape the emitter expects.
func ctyToGo(v cty.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i
		}
		f, _ := bf.Float64()
		return f
	case t.IsTupleType() || t.IsListType():
		var out []interface{}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ctyToGo(ev))
		}
		return out
	default:
		return v.GoString()
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
