// Package notify builds the cross-resource notification graph for one recipe
// and derives the target system's handler wiring from it.
//
// Nodes are resources, edges are notifications labeled with an action and a
// timing. Delayed notifications collapse into one handler per (target,
// action) pair, matching the source system's notify coalescing. Immediate
// notifications are resolved inline at the declaration point and never
// collapse.
package notify

import (
	"fmt"

	"github.com/recipeshift/recipeshift/diag"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// Timing describes when a notification fires.
type Timing int

const (
	// Delayed defers the target action to end of run, coalescing with other
	// delayed notifications to the same target and action.
	Delayed Timing = iota

	// Immediately runs the target action inline at the declaration point.
	Immediately
)

func (t Timing) String() string {
	if t == Immediately {
		return "immediately"
	}
	return "delayed"
}

// A Notification is a single notifies/subscribes declaration on a resource.
type Notification struct {
	Action    string
	TargetRef string // "service[nginx]"
	Timing    Timing

	// Subscribe is true when the declaration was a subscribes clause: the
	// declaring resource is the listener and TargetRef the trigger, so the
	// edge direction is flipped when building the graph.
	Subscribe bool

	Span diag.Pos
}

// A Handler identifies one deferred unit of work: an action invoked once on
// a target at end of run.
type Handler struct {
	TargetRef string
	Action    string
}

// Name returns the handler's name in the emitted output.
func (h Handler) Name() string {
	return fmt.Sprintf("%s %s", h.Action, h.TargetRef)
}

type resourceNode struct {
	graph.Node
	ref      string
	declared bool
	span     diag.Pos
}

type notifyLine struct {
	graph.Line
	action string
	timing Timing
}

// A Builder accumulates the notification graph for one recipe.
type Builder struct {
	g       *multi.DirectedGraph
	nodes   map[string]*resourceNode
	pending []*resourceNode // placeholder nodes in first-seen order

	handlers    []Handler
	handlerSeen map[Handler]bool

	immediate map[string][]Handler
	delayed   map[string][]Handler
}

// NewBuilder creates an empty notification graph.
func NewBuilder() *Builder {
	return &Builder{
		g:           multi.NewDirectedGraph(),
		nodes:       make(map[string]*resourceNode),
		handlerSeen: make(map[Handler]bool),
		immediate:   make(map[string][]Handler),
		delayed:     make(map[string][]Handler),
	}
}

// AddResource registers a resource declared in the recipe. Refs are of the
// form "type[name]". Re-declaring a ref is allowed; the first span wins.
func (b *Builder) AddResource(ref string, span diag.Pos) {
	if n, ok := b.nodes[ref]; ok {
		n.declared = true
		return
	}
	n := &resourceNode{Node: b.g.NewNode(), ref: ref, declared: true, span: span}
	b.g.AddNode(n)
	b.nodes[ref] = n
}

// node returns the node for ref, creating an undeclared placeholder if the
// ref has not been seen. Placeholders represent cross-file targets.
func (b *Builder) node(ref string) *resourceNode {
	if n, ok := b.nodes[ref]; ok {
		return n
	}
	n := &resourceNode{Node: b.g.NewNode(), ref: ref}
	b.g.AddNode(n)
	b.nodes[ref] = n
	b.pending = append(b.pending, n)
	return n
}

// AddNotification records one notification declared on the resource fromRef.
// Subscribe declarations flip direction: the declaring resource listens for
// the target instead of triggering it.
func (b *Builder) AddNotification(fromRef string, n Notification) {
	trigger, target := fromRef, n.TargetRef
	if n.Subscribe {
		trigger, target = n.TargetRef, fromRef
	}

	from := b.node(trigger)
	to := b.node(target)
	b.g.SetLine(notifyLine{Line: b.g.NewLine(from, to), action: n.Action, timing: n.Timing})

	h := Handler{TargetRef: target, Action: n.Action}
	switch n.Timing {
	case Immediately:
		// Inline at the trigger, never coalesced.
		b.immediate[trigger] = append(b.immediate[trigger], h)
	default:
		b.delayed[trigger] = append(b.delayed[trigger], h)
		if !b.handlerSeen[h] {
			b.handlerSeen[h] = true
			b.handlers = append(b.handlers, h)
		}
	}
}

// Delayed returns the delayed handlers the given resource triggers, in
// declaration order.
func (b *Builder) Delayed(ref string) []Handler {
	return b.delayed[ref]
}

// Handlers returns the collapsed delayed handlers in first-seen order. Each
// handler appears exactly once no matter how many resources notify it.
func (b *Builder) Handlers() []Handler {
	out := make([]Handler, len(b.handlers))
	copy(out, b.handlers)
	return out
}

// Immediate returns the inline actions triggered by the given resource, in
// declaration order.
func (b *Builder) Immediate(ref string) []Handler {
	return b.immediate[ref]
}

// Notified reports whether the resource is the target of any notification.
func (b *Builder) Notified(ref string) bool {
	n, ok := b.nodes[ref]
	if !ok {
		return false
	}
	return b.g.To(n.ID()).Len() > 0
}

// Finish returns warnings for every notification target that was never
// declared in the recipe. Such targets may live in another file; they are
// retained for an external linking pass rather than treated as fatal.
func (b *Builder) Finish(source string) diag.Diagnostics {
	var diags diag.Diagnostics
	for _, n := range b.pending {
		if n.declared {
			continue
		}
		diags = diags.Append(&diag.Diagnostic{
			Severity: diag.Warning,
			Summary:  "Unresolved notification target",
			Detail:   fmt.Sprintf("Resource %q is notified but not declared in this recipe. The reference is kept for cross-file resolution.", n.ref),
			Source:   source,
		})
	}
	return diags
}
