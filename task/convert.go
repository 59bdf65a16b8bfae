package task

import (
	"fmt"

	"github.com/recipeshift/recipeshift/attr"
	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/expr"
	"github.com/recipeshift/recipeshift/guard"
	"github.com/recipeshift/recipeshift/notify"
	"github.com/recipeshift/recipeshift/recipe"
	"github.com/recipeshift/recipeshift/schema"
	"github.com/zclconf/go-cty/cty"
)

// A Converter maps one recipe at a time onto target tasks. The attribute
// table and schemas are read-only and may be shared across concurrent
// conversions.
type Converter struct {
	// Attributes is the effective attribute table for the cookbook. May be
	// nil, in which case every attribute reference is unresolved.
	Attributes *attr.Table

	// Schemas maps custom resource type names to their parsed schemas.
	Schemas map[string]*schema.Resource
}

// Convert runs the full pipeline over one recipe: extract, normalize,
// resolve, map, emit. The result is always usable; diagnostics accumulate
// alongside it and never replace it.
func (c *Converter) Convert(src, source string) Result {
	decls, diags := recipe.Parse(src, source)

	nb := notify.NewBuilder()
	for _, d := range decls {
		nb.AddResource(d.Ref(), d.Span)
	}
	for _, d := range decls {
		for _, n := range d.Notifications {
			nb.AddNotification(d.Ref(), n)
		}
	}

	declByRef := make(map[string]*recipe.Declaration)
	for _, d := range decls {
		if _, ok := declByRef[d.Ref()]; !ok {
			declByRef[d.Ref()] = d
		}
	}

	res := Result{}
	for _, d := range decls {
		actions := c.effectiveActions(d)
		if len(actions) == 0 {
			// action :nothing resources emit nothing of their own; they are
			// still valid notification targets.
			continue
		}

		tasks, more := c.declTasks(d, actions, source)
		diags = diags.Extend(more)
		if len(tasks) == 0 {
			continue
		}

		// Wiring attaches to the declaration's last task so it fires after
		// the final action completes.
		last := &tasks[len(tasks)-1]
		for _, h := range nb.Delayed(d.Ref()) {
			last.NotifyRefs = append(last.NotifyRefs, h.Name())
		}
		for _, h := range nb.Immediate(d.Ref()) {
			post, more := c.targetTask(h, declByRef, source)
			diags = diags.Extend(more)
			last.Post = append(last.Post, post)
		}

		res.Tasks = append(res.Tasks, tasks...)
	}

	for _, h := range nb.Handlers() {
		t, more := c.targetTask(h, declByRef, source)
		diags = diags.Extend(more)
		res.Handlers = append(res.Handlers, Handler{Name: h.Name(), Task: t})
	}

	diags = diags.Extend(nb.Finish(source))
	res.Diags = diags
	return res
}

// effectiveActions returns the actions to emit tasks for, with :nothing
// filtered out.
func (c *Converter) effectiveActions(d *recipe.Declaration) []string {
	actions := d.Actions
	if len(actions) == 0 {
		actions = []string{c.defaultAction(d.Type)}
	}
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if a != "nothing" {
			out = append(out, a)
		}
	}
	return out
}

func (c *Converter) defaultAction(typ string) string {
	if m, ok := typeTable[typ]; ok {
		return m.defaultAction
	}
	if s, ok := c.Schemas[typ]; ok && s.DefaultAction != "" {
		return s.DefaultAction
	}
	return "create"
}

// targetTask builds the task for one notification target action. Targets
// not declared in the recipe produce a placeholder carrying the reference
// for cross-file resolution.
func (c *Converter) targetTask(h notify.Handler, declByRef map[string]*recipe.Declaration, source string) (Task, diag.Diagnostics) {
	if d, ok := declByRef[h.TargetRef]; ok {
		tasks, diags := c.declTasks(d, []string{h.Action}, source)
		if len(tasks) > 0 {
			t := tasks[0]
			t.Name = h.Name()
			return t, diags
		}
		return Task{}, diags
	}
	w := fmt.Sprintf("Notification target %s is not declared in this recipe.", h.TargetRef)
	return Task{
		Name:     h.Name(),
		Module:   "command",
		Warnings: []string{w},
	}, nil
}

// A normProp is one property after value normalization.
type normProp struct {
	name  string
	value expr.Expr
	span  diag.Pos
}

// declTasks normalizes and maps one declaration into one task per action.
func (c *Converter) declTasks(d *recipe.Declaration, actions []string, source string) ([]Task, diag.Diagnostics) {
	var diags diag.Diagnostics

	nameExpr, more := expr.Parse(d.RawName, source, d.Span)
	diags = diags.Extend(more)

	self := &selfScope{props: make(map[string]expr.Expr, len(d.Properties))}
	props := make([]normProp, 0, len(d.Properties))
	for _, p := range d.Properties {
		var e expr.Expr
		switch p.Kind {
		case recipe.Heredoc:
			e = &expr.Literal{Val: cty.StringVal(p.Raw), Raw: p.Raw}
		case recipe.Block:
			e = &expr.Opaque{Raw: p.Raw}
		default:
			var pd diag.Diagnostics
			e, pd = expr.Parse(p.Raw, source, p.Span)
			diags = diags.Extend(pd)
		}
		props = append(props, normProp{name: p.Name, value: e, span: p.Span})
		self.props[p.Name] = e
	}

	nameVal, more := renderValue(nameExpr, c.Attributes, nil, source, d.Span)
	diags = diags.Extend(more)
	self.name = stringify(nameVal)

	// Translate guards once; all of the declaration's tasks share the
	// condition.
	cond, more := guard.TranslateAll(d.Guards, source)
	diags = diags.Extend(more)

	renderProp := func(p normProp) Param {
		val, more := renderValue(p.value, c.Attributes, self, source, p.span)
		diags = diags.Extend(more)
		return Param{Name: p.name, Value: val}
	}

	m, known := typeTable[d.Type]
	sch, hasSchema := c.Schemas[d.Type]

	var tasks []Task
	for _, action := range actions {
		t := Task{
			Name:      d.Ref(),
			Condition: cond,
			Span:      d.Span,
		}
		if len(actions) > 1 {
			t.Name = fmt.Sprintf("%s (%s)", d.Ref(), action)
		}

		warn := func(pos diag.Pos, summary, detail string) {
			t.Warnings = append(t.Warnings, detail)
			diags = diags.Append(&diag.Diagnostic{
				Severity: diag.Warning,
				Summary:  summary,
				Detail:   detail,
				Source:   source,
				Subject:  pos.Ptr(),
			})
		}

		switch {
		case known:
			t.Module = m.module

			// Explicitly set properties override the name-derived parameter.
			explicit := make(map[string]bool)
			for _, p := range props {
				if dropped(m.dropProps, p.name) {
					continue
				}
				target := p.name
				if renamed, ok := m.propParams[p.name]; ok {
					target = renamed
				}
				explicit[target] = true
			}

			if m.nameParam != "" && !explicit[m.nameParam] {
				t.Parameters = append(t.Parameters, Param{Name: m.nameParam, Value: nameVal})
			}
			for _, p := range props {
				if dropped(m.dropProps, p.name) {
					continue
				}
				pp := renderProp(p)
				if renamed, ok := m.propParams[p.name]; ok {
					pp.Name = renamed
				}
				t.Parameters = append(t.Parameters, pp)
			}

			if fixed, ok := m.actionParams[action]; ok {
				t.Parameters = append(t.Parameters, fixed...)
			} else {
				warn(d.Span, "Unrecognized action",
					fmt.Sprintf("Action :%s is not recognized for %s resources; it was passed through as a state.", action, d.Type))
				t.Parameters = append(t.Parameters, Param{Name: "state", Value: action})
			}

		case hasSchema:
			t.Module = d.Type
			c.schemaParams(&t, d, sch, props, nameVal, renderProp, warn, source)
			if len(sch.Actions) > 0 && !contains(sch.Actions, action) {
				warn(d.Span, "Unrecognized action",
					fmt.Sprintf("Action :%s is not declared by resource type %s.", action, d.Type))
			}
			t.Parameters = append(t.Parameters, Param{Name: "action", Value: action})

		default:
			// Generic fallback: run an arbitrary command. Never fatal.
			t.Module = "command"
			detail := fmt.Sprintf("Resource type %q has no target mapping; a generic command task was emitted.", d.Type)
			if s := suggestType(d.Type, c.schemaNames()); s != "" {
				detail += fmt.Sprintf(" Did you mean %q?", s)
			}
			warn(d.Span, "Unknown resource type", detail)
			t.Parameters = append(t.Parameters, Param{Name: "cmd", Value: self.name})
			for _, p := range props {
				t.Parameters = append(t.Parameters, renderProp(p))
			}
		}

		tasks = append(tasks, t)
	}

	return tasks, diags
}

// schemaParams maps properties against a custom resource schema: required
// and typed entries are validated, missing defaults are filled, and
// conflicting values are warned about but always passed through unmodified
// so no data is silently lost.
func (c *Converter) schemaParams(t *Task, d *recipe.Declaration, sch *schema.Resource, props []normProp, nameVal interface{}, renderProp func(normProp) Param, warn func(diag.Pos, string, string), source string) {
	nameParam := "name"
	if np, ok := sch.NameProperty(); ok {
		nameParam = np.Name
	}

	provided := make(map[string]bool, len(props))
	for _, p := range props {
		provided[p.name] = true
	}

	if !provided[nameParam] {
		t.Parameters = append(t.Parameters, Param{Name: nameParam, Value: nameVal})
		provided[nameParam] = true
	}

	for _, p := range props {
		ps, declared := sch.Property(p.name)
		pp := renderProp(p)
		if !declared {
			warn(p.span, "Undeclared property",
				fmt.Sprintf("Property %q is not declared by resource type %s. The value is passed through unmodified.", p.name, d.Type))
		} else if ps.TypeConstraint != "" && !typeMatches(ps.TypeConstraint, pp.Value) {
			warn(p.span, "Property type mismatch",
				fmt.Sprintf("Property %q expects %s. The value is passed through unmodified.", p.name, ps.TypeConstraint))
		}
		t.Parameters = append(t.Parameters, pp)
	}

	// Schema-declared properties that were not provided: fill defaults,
	// report missing required values.
	for _, ps := range sch.Properties {
		if provided[ps.Name] {
			continue
		}
		if ps.Default != nil {
			// Diagnostics for schema defaults were reported when the schema
			// file itself was parsed.
			val, _ := renderValue(ps.Default, c.Attributes, nil, source, d.Span)
			t.Parameters = append(t.Parameters, Param{Name: ps.Name, Value: val})
			continue
		}
		if ps.Required {
			warn(d.Span, "Missing required property",
				fmt.Sprintf("Resource type %s requires property %q.", d.Type, ps.Name))
		}
	}
}

// typeMatches checks a rendered value against a source type constraint name.
// Unknown constraint names always match.
func typeMatches(constraint string, v interface{}) bool {
	switch constraint {
	case "String":
		_, ok := v.(string)
		return ok
	case "Integer", "Fixnum":
		_, ok := v.(int64)
		return ok
	case "Float", "Numeric":
		switch v.(type) {
		case int64, float64:
			return true
		}
		return false
	case "Array":
		_, ok := v.([]interface{})
		return ok
	case "TrueClass", "FalseClass", "Boolean":
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}

func (c *Converter) schemaNames() []string {
	names := make([]string, 0, len(c.Schemas))
	for name := range c.Schemas {
		names = append(names, name)
	}
	return names
}

func dropped(drop []string, name string) bool {
	for _, d := range drop {
		if d == name {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
