// Package schema parses property schemas from custom-resource and legacy
// resource definition files.
//
// Two declaration syntaxes are recognized and may coexist in one file:
//
//	property :port, Integer, default: 80
//	property :config_path, String, name_property: true
//
//	attribute :port, kind_of: Integer, default: 80
//	attribute :config_path, kind_of: String, name_attribute: true
//
// Actions come from explicit action blocks, a consolidated actions list, or
// both; the forms are unioned.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/expr"
	"github.com/recipeshift/recipeshift/recipe"
)

// A PropertySchema describes one declared property of a resource type.
type PropertySchema struct {
	Name           string
	TypeConstraint string // source type name such as String or Integer; empty if untyped
	IsNameProperty bool
	Default        expr.Expr // nil when no default is declared
	Required       bool
	Span           diag.Pos
}

// A Resource is the parsed schema of a custom or legacy resource type.
type Resource struct {
	// Name is the declared resource name (resource_name or provides), empty
	// when the file declares none; callers usually fall back to the file
	// name.
	Name string

	Properties []PropertySchema

	// Actions holds all action names in declaration order, unioning explicit
	// action blocks with consolidated actions lists.
	Actions []string

	DefaultAction string
}

// NameProperty returns the property designated as the resource's name. If no
// property is explicitly marked, ok is false and the resource's own name
// expression serves as the implicit name property.
func (r *Resource) NameProperty() (PropertySchema, bool) {
	for _, p := range r.Properties {
		if p.IsNameProperty {
			return p, true
		}
	}
	return PropertySchema{}, false
}

// Property looks up a property schema by name.
func (r *Resource) Property(name string) (PropertySchema, bool) {
	for _, p := range r.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertySchema{}, false
}

var (
	propertyDeclRe = regexp.MustCompile(`^(property|attribute)\s*\(?\s*:([a-z_][a-z0-9_]*)\s*(?:,\s*(.*?))?\)?\s*$`)
	resourceNameRe = regexp.MustCompile(`^(?:resource_name|provides)\s*\(?\s*:([a-z_][a-z0-9_]*)\)?\s*$`)
	actionsListRe  = regexp.MustCompile(`^actions\s*\(?\s*(.+?)\)?\s*$`)
	defaultActRe   = regexp.MustCompile(`^default_action\s*\(?\s*:([a-z_][a-z0-9_]*)\)?\s*$`)
	actionBlockRe  = regexp.MustCompile(`^action\s+:([a-z_][a-z0-9_]*)\s+do\s*$`)
	typeNameRe     = regexp.MustCompile(`^(?:::)?[A-Z][A-Za-z]*$`)
)

// Parse extracts the property schema and actions from a resource definition
// file. Lines that are neither schema declarations nor action blocks (helper
// methods, load_current_value, coerce blocks) are skipped; only a second
// name property is a schema violation, and even that degrades to a warning.
func Parse(src, source string) (*Resource, diag.Diagnostics) {
	lines, _ := recipe.ScanText(src)

	res := &Resource{}
	var diags diag.Diagnostics
	seenActions := make(map[string]bool)
	addAction := func(name string) {
		if !seenActions[name] {
			seenActions[name] = true
			res.Actions = append(res.Actions, name)
		}
	}

	i := 0
	for i < len(lines) {
		ln := lines[i]
		if ln.Skip || strings.TrimSpace(ln.Text) == "" {
			i++
			continue
		}
		text := strings.TrimSpace(ln.Text)

		if m := actionBlockRe.FindStringSubmatch(text); m != nil {
			addAction(m[1])
			i = skipBlock(lines, i)
			continue
		}

		if m := actionsListRe.FindStringSubmatch(text); m != nil && strings.HasPrefix(text, "actions") {
			for _, part := range strings.Split(m[1], ",") {
				part = strings.TrimSpace(part)
				if strings.HasPrefix(part, ":") {
					addAction(part[1:])
				}
			}
			i++
			continue
		}

		if m := defaultActRe.FindStringSubmatch(text); m != nil {
			res.DefaultAction = m[1]
			addAction(m[1])
			i++
			continue
		}

		if m := resourceNameRe.FindStringSubmatch(text); m != nil {
			if res.Name == "" {
				res.Name = m[1]
			}
			i++
			continue
		}

		if m := propertyDeclRe.FindStringSubmatch(text); m != nil {
			p, more := parseProperty(m[1], m[2], m[3], source, diag.Pos{Line: ln.Num, Column: 1})
			diags = diags.Extend(more)

			if p.IsNameProperty {
				if _, ok := res.NameProperty(); ok {
					diags = diags.Append(&diag.Diagnostic{
						Severity: diag.Warning,
						Summary:  "Duplicate name property",
						Detail:   fmt.Sprintf("Property %q is marked as the name property, but another property already is. Only the first designation is kept.", p.Name),
						Source:   source,
						Subject:  p.Span.Ptr(),
					})
					p.IsNameProperty = false
				}
			}
			res.Properties = append(res.Properties, p)
			i++
			continue
		}

		// Helper code inside the definition is not part of the schema.
		i = skipBlock(lines, i)
	}

	return res, diags
}

// parseProperty decodes the argument list of one property or attribute
// declaration. The legacy attribute form spells its constraint and flags as
// kind_of: / name_attribute: options.
func parseProperty(form, name, args, source string, pos diag.Pos) (PropertySchema, diag.Diagnostics) {
	p := PropertySchema{Name: name, Span: pos}
	var diags diag.Diagnostics

	for argIdx, arg := range splitOptions(args) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		key, val := splitOption(arg)
		switch {
		case key == "":
			// Positional argument: the modern form's type constraint.
			if form == "property" && argIdx == 0 && typeNameRe.MatchString(arg) {
				p.TypeConstraint = strings.TrimPrefix(arg, "::")
			}
		case key == "kind_of":
			p.TypeConstraint = strings.TrimPrefix(strings.TrimSpace(val), "::")
		case key == "default":
			d, more := expr.Parse(val, source, pos)
			diags = diags.Extend(more)
			p.Default = d
		case key == "required":
			p.Required = strings.TrimSpace(val) == "true"
		case key == "name_property" || key == "name_attribute":
			p.IsNameProperty = strings.TrimSpace(val) == "true"
		}
	}

	return p, diags
}

// splitOptions splits the declaration's argument list on top-level commas.
func splitOptions(s string) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, s[start:])
	}
	return out
}

// splitOption splits one keyword option in either hashrocket or label form:
// :kind_of => String, kind_of: String.
func splitOption(arg string) (key, val string) {
	if strings.HasPrefix(arg, ":") {
		if idx := strings.Index(arg, "=>"); idx > 0 {
			return strings.TrimSpace(arg[1:idx]), strings.TrimSpace(arg[idx+2:])
		}
		return "", arg
	}
	if idx := strings.Index(arg, ":"); idx > 0 && !strings.ContainsAny(arg[:idx], "'\" ([") {
		return arg[:idx], strings.TrimSpace(arg[idx+1:])
	}
	return "", arg
}

// skipBlock advances past the line at i, consuming a block if it opens one.
func skipBlock(lines []recipe.Line, at int) int {
	depth := recipe.BlockDelta(lines[at].Masked)
	j := at + 1
	for depth > 0 && j < len(lines) {
		if !lines[j].Skip {
			depth += recipe.BlockDelta(lines[j].Masked)
		}
		j++
	}
	return j
}
