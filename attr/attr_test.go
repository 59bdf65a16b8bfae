package attr_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/recipeshift/recipeshift/attr"
	"github.com/recipeshift/recipeshift/expr"
	"github.com/zclconf/go-cty/cty"
)

func strVal(s string) expr.Expr {
	return &expr.Literal{Val: cty.StringVal(s), Raw: "'" + s + "'"}
}

var ctyComparer = cmp.Comparer(func(a, b cty.Value) bool {
	return a.RawEquals(b)
})

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		assignments []attr.Assignment
		want        []attr.Effective
	}{
		{
			name: "HighestPrecedenceWins",
			assignments: []attr.Assignment{
				{Precedence: attr.Default, KeyPath: []string{"app", "port"}, Value: strVal("80"), Index: 0},
				{Precedence: attr.Normal, KeyPath: []string{"app", "port"}, Value: strVal("8080"), Index: 1},
				{Precedence: attr.ForceOverride, KeyPath: []string{"app", "port"}, Value: strVal("443"), Index: 2},
			},
			want: []attr.Effective{
				{KeyPath: []string{"app", "port"}, Value: strVal("443"), WinningPrecedence: attr.ForceOverride},
			},
		},
		{
			name: "AutomaticWinsRegardlessOfOrder",
			assignments: []attr.Assignment{
				{Precedence: attr.Automatic, KeyPath: []string{"platform"}, Value: strVal("ubuntu"), Index: 0},
				{Precedence: attr.ForceOverride, KeyPath: []string{"platform"}, Value: strVal("centos"), Index: 1},
			},
			want: []attr.Effective{
				{KeyPath: []string{"platform"}, Value: strVal("ubuntu"), WinningPrecedence: attr.Automatic},
			},
		},
		{
			name: "OverrideBeatsForceDefault",
			assignments: []attr.Assignment{
				{Precedence: attr.Override, KeyPath: []string{"x"}, Value: strVal("o"), Index: 0},
				{Precedence: attr.ForceDefault, KeyPath: []string{"x"}, Value: strVal("fd"), Index: 1},
			},
			want: []attr.Effective{
				{KeyPath: []string{"x"}, Value: strVal("o"), WinningPrecedence: attr.Override},
			},
		},
		{
			name: "LastDeclaredWinsTie",
			assignments: []attr.Assignment{
				{Precedence: attr.Default, KeyPath: []string{"x"}, Value: strVal("first"), Index: 0},
				{Precedence: attr.Default, KeyPath: []string{"x"}, Value: strVal("second"), Index: 1},
			},
			want: []attr.Effective{
				{KeyPath: []string{"x"}, Value: strVal("second"), WinningPrecedence: attr.Default},
			},
		},
		{
			name: "OutputFollowsFirstDeclaration",
			assignments: []attr.Assignment{
				{Precedence: attr.Default, KeyPath: []string{"b"}, Value: strVal("1"), Index: 0},
				{Precedence: attr.Default, KeyPath: []string{"a"}, Value: strVal("2"), Index: 1},
				{Precedence: attr.Override, KeyPath: []string{"b"}, Value: strVal("3"), Index: 2},
			},
			want: []attr.Effective{
				{KeyPath: []string{"b"}, Value: strVal("3"), WinningPrecedence: attr.Override},
				{KeyPath: []string{"a"}, Value: strVal("2"), WinningPrecedence: attr.Default},
			},
		},
		{
			name: "DistinctPathsAreIndependent",
			assignments: []attr.Assignment{
				{Precedence: attr.Default, KeyPath: []string{"app", "port"}, Value: strVal("80"), Index: 0},
				{Precedence: attr.Override, KeyPath: []string{"app", "host"}, Value: strVal("web"), Index: 1},
			},
			want: []attr.Effective{
				{KeyPath: []string{"app", "port"}, Value: strVal("80"), WinningPrecedence: attr.Default},
				{KeyPath: []string{"app", "host"}, Value: strVal("web"), WinningPrecedence: attr.Override},
			},
		},
		{
			name:        "Empty",
			assignments: nil,
			want:        []attr.Effective{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := attr.Resolve(tt.assignments)
			if diff := cmp.Diff(tt.want, got, ctyComparer); diff != "" {
				t.Errorf("Resolve() (-want +got)\n%s", diff)
			}
		})
	}
}

func TestPrecedenceFromKeyword(t *testing.T) {
	tests := []struct {
		kw     string
		want   attr.Precedence
		wantOK bool
	}{
		{"default", attr.Default, true},
		{"normal", attr.Normal, true},
		{"set", attr.Normal, true},
		{"force_default", attr.ForceDefault, true},
		{"override", attr.Override, true},
		{"force_override", attr.ForceOverride, true},
		{"automatic", attr.Automatic, true},
		{"bogus", 0, false},
	}

	for _, tt := range tests {
		got, ok := attr.PrecedenceFromKeyword(tt.kw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("PrecedenceFromKeyword(%q) = (%v, %v), want (%v, %v)", tt.kw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTable(t *testing.T) {
	table := attr.NewTable([]attr.Effective{
		{KeyPath: []string{"app", "port"}, Value: strVal("80"), WinningPrecedence: attr.Default},
		{KeyPath: []string{"app", "dirs", "log"}, Value: strVal("/var/log"), WinningPrecedence: attr.Default},
	})

	if eff, ok := table.Lookup([]string{"app", "port"}); !ok {
		t.Errorf("Lookup(app.port) not found")
	} else if eff.WinningPrecedence != attr.Default {
		t.Errorf("Lookup(app.port) precedence = %v", eff.WinningPrecedence)
	}

	if _, ok := table.Lookup([]string{"app"}); ok {
		t.Errorf("Lookup(app) found a value for a non-leaf path")
	}
	if !table.HasPrefix([]string{"app"}) {
		t.Errorf("HasPrefix(app) = false, want true")
	}
	if table.HasPrefix([]string{"app", "port"}) {
		t.Errorf("HasPrefix(app.port) = true for a leaf")
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
}
