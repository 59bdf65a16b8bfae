package diag_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/recipeshift/recipeshift/diag"
)

func TestDiagnosticError(t *testing.T) {
	tests := []struct {
		name string
		d    *diag.Diagnostic
		want string
	}{
		{
			"WithSubject",
			&diag.Diagnostic{
				Severity: diag.Error,
				Summary:  "Unbalanced resource block",
				Detail:   "The block is never closed.",
				Source:   "recipes/default.rb",
				Subject:  &diag.Pos{Line: 4, Column: 1},
			},
			"recipes/default.rb:4,1: Unbalanced resource block; The block is never closed.",
		},
		{
			"NoSubject",
			&diag.Diagnostic{
				Severity: diag.Warning,
				Summary:  "Unresolved notification target",
				Detail:   "Kept for cross-file resolution.",
				Source:   "recipes/default.rb",
			},
			"recipes/default.rb: Unresolved notification target; Kept for cross-file resolution.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiagnostics(t *testing.T) {
	var diags diag.Diagnostics
	if diags.HasErrors() {
		t.Errorf("empty list has errors")
	}

	diags = diags.Append(&diag.Diagnostic{Severity: diag.Warning, Summary: "w"})
	if diags.HasErrors() {
		t.Errorf("warnings count as errors")
	}

	diags = diags.Extend(diag.Diagnostics{
		{Severity: diag.Error, Summary: "e1"},
		{Severity: diag.Warning, Summary: "w2"},
	})
	if !diags.HasErrors() {
		t.Errorf("HasErrors() = false after appending an error")
	}
	if errs := diags.Errs(); len(errs) != 1 || errs[0].Summary != "e1" {
		t.Errorf("Errs() = %v", errs)
	}
	if len(diags) != 3 {
		t.Errorf("len = %d, want 3", len(diags))
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := diag.NewWriter(&buf)

	err := w.WriteDiagnostics(diag.Diagnostics{
		{
			Severity: diag.Warning,
			Summary:  "Guard requires manual review",
			Detail:   "The guard has no recognized translation.",
			Source:   "recipes/app.rb",
			Subject:  &diag.Pos{Line: 3, Column: 5},
		},
	})
	if err != nil {
		t.Fatalf("WriteDiagnostics() error: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q, want head and detail lines", out)
	}
	if !strings.Contains(lines[0], "Guard requires manual review (recipes/app.rb:3:5)") {
		t.Errorf("head = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    The guard") {
		t.Errorf("detail = %q, want indented detail", lines[1])
	}
}
