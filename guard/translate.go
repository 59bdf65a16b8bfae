package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/recipeshift/recipeshift/diag"
)

// A commandPattern pairs a recognized shell command idiom with its structured
// condition. Because conditions are structured, the negation-safe form comes
// for free: a not_if guard wraps the same condition in Not.
type commandPattern struct {
	re    *regexp.Regexp
	build func(m []string) BoolExpr
}

var commandPatterns = []commandPattern{
	{
		re:    regexp.MustCompile(`^(?:test\s+-[ef]|\[\s+-[ef])\s+(\S+?)\s*\]?$`),
		build: func(m []string) BoolExpr { return PathExists{Path: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^(?:test\s+-d|\[\s+-d)\s+(\S+?)\s*\]?$`),
		build: func(m []string) BoolExpr { return PathIsDir{Path: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^(?:test\s+-[Lh]|\[\s+-[Lh])\s+(\S+?)\s*\]?$`),
		build: func(m []string) BoolExpr { return PathIsSymlink{Path: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^(?:which|command\s+-v|type)\s+(\S+)$`),
		build: func(m []string) BoolExpr { return CommandAvailable{Command: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^systemctl\s+(?:--quiet\s+)?is-active\s+(?:--quiet\s+)?(\S+)$`),
		build: func(m []string) BoolExpr { return ServiceActive{Service: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^systemctl\s+(?:--quiet\s+)?is-enabled\s+(?:--quiet\s+)?(\S+)$`),
		build: func(m []string) BoolExpr { return ServiceEnabled{Service: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^(?:dpkg\s+-s|dpkg-query\s+-W|rpm\s+-q)\s+(\S+)$`),
		build: func(m []string) BoolExpr { return PackageInstalled{Package: m[1]} },
	},
	{
		re: regexp.MustCompile(`^grep\s+(?:-\S+\s+)*?-q\s+(?:-\S+\s+)*'?([^']\S*|[^']*)'?\s+(\S+)$`),
		build: func(m []string) BoolExpr {
			return FileContains{Path: m[2], Pattern: strings.Trim(m[1], `"'`)}
		},
	},
}

// Block-form guards whose body is a single structural comparison translate
// the same way. Anything more elaborate is opaque.
var blockPatterns = []commandPattern{
	{
		re:    regexp.MustCompile(`^(?:::)?File\.exists?\?\(\s*['"]([^'"]+)['"]\s*\)$`),
		build: func(m []string) BoolExpr { return PathExists{Path: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^(?:::)?(?:File|Dir)\.directory\?\(\s*['"]([^'"]+)['"]\s*\)$`),
		build: func(m []string) BoolExpr { return PathIsDir{Path: m[1]} },
	},
	{
		re:    regexp.MustCompile(`^(?:::)?File\.symlink\?\(\s*['"]([^'"]+)['"]\s*\)$`),
		build: func(m []string) BoolExpr { return PathIsSymlink{Path: m[1]} },
	},
}

// Translate converts one guard into a target boolean expression.
//
// A not_if guard produces the logical negation of the expression the same
// condition would produce under only_if. Unrecognized guards produce an
// opaque condition plus a warning, never an error.
func Translate(g Guard, source string) (BoolExpr, diag.Diagnostics) {
	cond, ok := recognize(g)
	if ok {
		if g.Kind == NotIf {
			return Not{X: cond}, nil
		}
		return cond, nil
	}

	raw := g.Command
	form := "command"
	if raw == "" {
		raw = strings.TrimSpace(g.Block)
		form = "block"
	}
	warn := diag.Diagnostics{{
		Severity: diag.Warning,
		Summary:  "Guard requires manual review",
		Detail:   fmt.Sprintf("The %s %s guard %q has no recognized translation. The original text is preserved in the condition.", g.Kind, form, raw),
		Source:   source,
		Subject:  g.Span.Ptr(),
	}}
	return OpaqueCond{Raw: raw, Negated: g.Kind == NotIf}, warn
}

// TranslateAll translates guards in declaration order and AND-combines them.
// The order is preserved for diagnostic reproducibility.
func TranslateAll(guards []Guard, source string) (BoolExpr, diag.Diagnostics) {
	var diags diag.Diagnostics
	conds := make([]BoolExpr, 0, len(guards))
	for _, g := range guards {
		cond, more := Translate(g, source)
		diags = diags.Extend(more)
		conds = append(conds, cond)
	}
	return Combine(conds), diags
}

func recognize(g Guard) (BoolExpr, bool) {
	if g.Command != "" {
		cmd := strings.TrimSpace(g.Command)
		for _, p := range commandPatterns {
			if m := p.re.FindStringSubmatch(cmd); m != nil {
				return p.build(m), true
			}
		}
		return nil, false
	}
	body := strings.TrimSpace(g.Block)
	for _, p := range blockPatterns {
		if m := p.re.FindStringSubmatch(body); m != nil {
			return p.build(m), true
		}
	}
	return nil, false
}
