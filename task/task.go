// Package task maps extracted resource declarations onto target tasks.
//
// The mapper is the pipeline driver: it normalizes property values, resolves
// attribute references against the effective attribute table, translates
// guards, attaches notification wiring, and selects a target module from a
// static lookup table. Output order always matches source declaration order;
// the target executes tasks sequentially, so order is part of the contract.
package task

import (
	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/guard"
)

// A Param is one named task parameter. Parameters keep declaration order.
type Param struct {
	Name string

	// Value is a rendered target value: string, bool, int64, float64,
	// []interface{} for lists, or a raw source string for opaque values.
	Value interface{}
}

// A Task is one converted target task. Tasks are immutable once created and
// consumed by orchestration as read-only records.
type Task struct {
	// Name is the task's display name, derived from the source resource.
	Name string

	// Module is the target module or type the task invokes.
	Module string

	Parameters []Param

	// Condition gates execution; nil when the resource had no guards.
	Condition guard.BoolExpr

	// NotifyRefs names the delayed handlers this task triggers.
	NotifyRefs []string

	// Post holds tasks to run inline right after this one, from immediate
	// notifications. They bypass handler coalescing.
	Post []Task

	// Warnings carries the task's own review notes; the same messages also
	// appear in the result diagnostics.
	Warnings []string

	// Span is the source location of the originating declaration.
	Span diag.Pos
}

// A Handler is one deferred, deduplicated unit of work invoked at most once
// per run when notified.
type Handler struct {
	Name string
	Task Task
}

// A Result is the complete conversion of one recipe. Diagnostics accompany
// the best-effort result; they never replace it.
type Result struct {
	Tasks    []Task
	Handlers []Handler
	Diags    diag.Diagnostics
}

// Param lookup by name; ok is false when the parameter is absent.
func (t *Task) Param(name string) (interface{}, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}
