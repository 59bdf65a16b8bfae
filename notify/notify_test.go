package notify_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/notify"
)

func TestBuilder_coalescesDelayed(t *testing.T) {
	b := notify.NewBuilder()
	b.AddResource("template[site]", diag.Pos{Line: 1})
	b.AddResource("template[upstream]", diag.Pos{Line: 10})
	b.AddResource("service[nginx]", diag.Pos{Line: 20})

	// Two resources notify the same target action; one handler results.
	b.AddNotification("template[site]", notify.Notification{
		Action: "reload", TargetRef: "service[nginx]", Timing: notify.Delayed,
	})
	b.AddNotification("template[upstream]", notify.Notification{
		Action: "reload", TargetRef: "service[nginx]", Timing: notify.Delayed,
	})

	want := []notify.Handler{{TargetRef: "service[nginx]", Action: "reload"}}
	if diff := cmp.Diff(want, b.Handlers()); diff != "" {
		t.Errorf("Handlers() (-want +got)\n%s", diff)
	}

	// Both triggers still reference the handler.
	for _, ref := range []string{"template[site]", "template[upstream]"} {
		if diff := cmp.Diff(want, b.Delayed(ref)); diff != "" {
			t.Errorf("Delayed(%s) (-want +got)\n%s", ref, diff)
		}
	}

	if diags := b.Finish("test.rb"); len(diags) != 0 {
		t.Errorf("Finish() = %v, want none", diags)
	}
}

func TestBuilder_distinctActionsDistinctHandlers(t *testing.T) {
	b := notify.NewBuilder()
	b.AddResource("template[a]", diag.Pos{})
	b.AddResource("service[nginx]", diag.Pos{})

	b.AddNotification("template[a]", notify.Notification{
		Action: "reload", TargetRef: "service[nginx]", Timing: notify.Delayed,
	})
	b.AddNotification("template[a]", notify.Notification{
		Action: "restart", TargetRef: "service[nginx]", Timing: notify.Delayed,
	})

	want := []notify.Handler{
		{TargetRef: "service[nginx]", Action: "reload"},
		{TargetRef: "service[nginx]", Action: "restart"},
	}
	if diff := cmp.Diff(want, b.Handlers()); diff != "" {
		t.Errorf("Handlers() (-want +got)\n%s", diff)
	}
}

func TestBuilder_immediateIsInline(t *testing.T) {
	b := notify.NewBuilder()
	b.AddResource("execute[load-module]", diag.Pos{})
	b.AddResource("service[nginx]", diag.Pos{})

	b.AddNotification("execute[load-module]", notify.Notification{
		Action: "restart", TargetRef: "service[nginx]", Timing: notify.Immediately,
	})

	if got := b.Handlers(); len(got) != 0 {
		t.Errorf("Handlers() = %v, immediate notifications must not coalesce", got)
	}
	want := []notify.Handler{{TargetRef: "service[nginx]", Action: "restart"}}
	if diff := cmp.Diff(want, b.Immediate("execute[load-module]")); diff != "" {
		t.Errorf("Immediate() (-want +got)\n%s", diff)
	}
}

func TestBuilder_subscribeFlipsDirection(t *testing.T) {
	b := notify.NewBuilder()
	b.AddResource("template[conf]", diag.Pos{})
	b.AddResource("service[app]", diag.Pos{})

	// service[app] subscribes to template[conf]: the template triggers it.
	b.AddNotification("service[app]", notify.Notification{
		Action: "restart", TargetRef: "template[conf]", Timing: notify.Delayed, Subscribe: true,
	})

	want := []notify.Handler{{TargetRef: "service[app]", Action: "restart"}}
	if diff := cmp.Diff(want, b.Delayed("template[conf]")); diff != "" {
		t.Errorf("Delayed(template[conf]) (-want +got)\n%s", diff)
	}
	if got := b.Delayed("service[app]"); len(got) != 0 {
		t.Errorf("Delayed(service[app]) = %v, want none", got)
	}
	if !b.Notified("service[app]") {
		t.Errorf("Notified(service[app]) = false, want true")
	}
}

func TestBuilder_undeclaredTargetWarns(t *testing.T) {
	b := notify.NewBuilder()
	b.AddResource("template[conf]", diag.Pos{})

	b.AddNotification("template[conf]", notify.Notification{
		Action: "restart", TargetRef: "service[other]", Timing: notify.Delayed,
	})

	diags := b.Finish("test.rb")
	if len(diags) != 1 {
		t.Fatalf("Finish() = %v, want one warning", diags)
	}
	if diags[0].Severity != diag.Warning {
		t.Errorf("Finish() severity = %v, want warning", diags[0].Severity)
	}

	// The handler still exists so the reference survives into the output.
	want := []notify.Handler{{TargetRef: "service[other]", Action: "restart"}}
	if diff := cmp.Diff(want, b.Handlers()); diff != "" {
		t.Errorf("Handlers() (-want +got)\n%s", diff)
	}
}

func TestBuilder_lateDeclarationResolvesPlaceholder(t *testing.T) {
	b := notify.NewBuilder()
	b.AddResource("template[conf]", diag.Pos{})
	b.AddNotification("template[conf]", notify.Notification{
		Action: "restart", TargetRef: "service[app]", Timing: notify.Delayed,
	})
	// Declared after being referenced; no warning results.
	b.AddResource("service[app]", diag.Pos{Line: 30})

	if diags := b.Finish("test.rb"); len(diags) != 0 {
		t.Errorf("Finish() = %v, want none", diags)
	}
}

func TestHandlerName(t *testing.T) {
	h := notify.Handler{TargetRef: "service[nginx]", Action: "reload"}
	if got, want := h.Name(), "reload service[nginx]"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
}
