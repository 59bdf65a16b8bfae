package guard_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/recipeshift/recipeshift/guard"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		g    guard.Guard
		want guard.BoolExpr
	}{
		{
			"TestFile",
			guard.Guard{Kind: guard.OnlyIf, Command: "test -f /etc/nginx/nginx.conf"},
			guard.PathExists{Path: "/etc/nginx/nginx.conf"},
		},
		{
			"TestExists",
			guard.Guard{Kind: guard.OnlyIf, Command: "test -e /opt/app"},
			guard.PathExists{Path: "/opt/app"},
		},
		{
			"BracketDir",
			guard.Guard{Kind: guard.OnlyIf, Command: "[ -d /var/www ]"},
			guard.PathIsDir{Path: "/var/www"},
		},
		{
			"Symlink",
			guard.Guard{Kind: guard.OnlyIf, Command: "test -L /etc/alternatives/java"},
			guard.PathIsSymlink{Path: "/etc/alternatives/java"},
		},
		{
			"Which",
			guard.Guard{Kind: guard.OnlyIf, Command: "which docker"},
			guard.CommandAvailable{Command: "docker"},
		},
		{
			"CommandV",
			guard.Guard{Kind: guard.OnlyIf, Command: "command -v git"},
			guard.CommandAvailable{Command: "git"},
		},
		{
			"SystemctlActive",
			guard.Guard{Kind: guard.OnlyIf, Command: "systemctl is-active --quiet nginx"},
			guard.ServiceActive{Service: "nginx"},
		},
		{
			"SystemctlEnabled",
			guard.Guard{Kind: guard.OnlyIf, Command: "systemctl is-enabled nginx"},
			guard.ServiceEnabled{Service: "nginx"},
		},
		{
			"DpkgInstalled",
			guard.Guard{Kind: guard.NotIf, Command: "dpkg -s nginx"},
			guard.Not{X: guard.PackageInstalled{Package: "nginx"}},
		},
		{
			"RpmInstalled",
			guard.Guard{Kind: guard.OnlyIf, Command: "rpm -q httpd"},
			guard.PackageInstalled{Package: "httpd"},
		},
		{
			"Grep",
			guard.Guard{Kind: guard.OnlyIf, Command: "grep -q 'PermitRootLogin no' /etc/ssh/sshd_config"},
			guard.FileContains{Path: "/etc/ssh/sshd_config", Pattern: "PermitRootLogin no"},
		},
		{
			"NotIfNegates",
			guard.Guard{Kind: guard.NotIf, Command: "test -f /etc/app.lock"},
			guard.Not{X: guard.PathExists{Path: "/etc/app.lock"}},
		},
		{
			"BlockFileExist",
			guard.Guard{Kind: guard.OnlyIf, Block: "::File.exist?('/etc/hosts')"},
			guard.PathExists{Path: "/etc/hosts"},
		},
		{
			"BlockDirectory",
			guard.Guard{Kind: guard.NotIf, Block: "File.directory?('/opt/data')"},
			guard.Not{X: guard.PathIsDir{Path: "/opt/data"}},
		},
		{
			"OpaqueCommand",
			guard.Guard{Kind: guard.OnlyIf, Command: "curl -sf http://localhost/health"},
			guard.OpaqueCond{Raw: "curl -sf http://localhost/health"},
		},
		{
			"OpaqueNegated",
			guard.Guard{Kind: guard.NotIf, Block: "node['skip_setup']"},
			guard.OpaqueCond{Raw: "node['skip_setup']", Negated: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags := guard.Translate(tt.g, "test.rb")
			if diags.HasErrors() {
				t.Fatalf("Translate() returned errors: %v", diags)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Translate() (-want +got)\n%s", diff)
			}
			_, isOpaque := tt.want.(guard.OpaqueCond)
			if isOpaque && len(diags) == 0 {
				t.Errorf("Translate() produced an opaque condition without a warning")
			}
			if !isOpaque && len(diags) != 0 {
				t.Errorf("Translate() diags = %v, want none", diags)
			}
		})
	}
}

// A not_if guard must render as the negation of what only_if renders for the
// same condition, including conditions that only translate opaquely.
func TestTranslate_negationSymmetry(t *testing.T) {
	conds := []guard.Guard{
		{Command: "test -f /tmp/x"},
		{Command: "systemctl is-active nginx"},
		{Command: "some custom check"},
	}
	for _, c := range conds {
		only := c
		only.Kind = guard.OnlyIf
		not := c
		not.Kind = guard.NotIf

		pos, _ := guard.Translate(only, "test.rb")
		neg, _ := guard.Translate(not, "test.rb")

		want := "not (" + pos.Render() + ")"
		if got := neg.Render(); got != want {
			t.Errorf("not_if render = %q, want %q", got, want)
		}
	}
}

func TestTranslateAll(t *testing.T) {
	guards := []guard.Guard{
		{Kind: guard.OnlyIf, Command: "test -d /var/www"},
		{Kind: guard.NotIf, Command: "dpkg -s nginx"},
	}
	cond, diags := guard.TranslateAll(guards, "test.rb")
	if len(diags) != 0 {
		t.Fatalf("TranslateAll() diags = %v, want none", diags)
	}
	want := "'/var/www' is directory and not ('nginx' in ansible_facts.packages)"
	if got := cond.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	if got := guard.Combine(nil); got != nil {
		t.Errorf("Combine(nil) = %v, want nil", got)
	}
}
