package recipe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/guard"
	"github.com/recipeshift/recipeshift/notify"
)

var (
	blockOpenRe  = regexp.MustCompile(`^\s*([a-z_][a-z0-9_]*)\s+(.+?)\s+(do|\{)\s*(\|[^|]*\|)?\s*$`)
	bareRe       = regexp.MustCompile(`^\s*([a-z_][a-z0-9_]*)\s+(['":%].+?|node\[.+?|\[.+?)\s*$`)
	assignRe     = regexp.MustCompile(`^\s*[A-Za-z_@$][\w.\['":\]]*\s*=[^=~>]`)
	propertyRe   = regexp.MustCompile(`^([a-z_][a-z0-9_?]*)[\s(](.*)$`)
	propBlockRe  = regexp.MustCompile(`^([a-z_][a-z0-9_]*)(\s+.*?)?\s+do\s*(\|[^|]*\|)?\s*$`)
	guardBlockRe = regexp.MustCompile(`^(only_if|not_if)\s*(?:do|\{)\s*(\|[^|]*\|)?$`)
	guardLineRe  = regexp.MustCompile(`^(only_if|not_if)\s*[({]?\s*(.+?)[)}]?\s*$`)
)

// Statement keywords that can head a top-level line but never declare a
// resource.
var nonResourceKeywords = map[string]bool{
	"if": true, "unless": true, "case": true, "while": true, "until": true,
	"begin": true, "def": true, "class": true, "module": true, "end": true,
	"else": true, "elsif": true, "when": true, "return": true, "puts": true,
	"require": true, "require_relative": true, "include_recipe": true,
	"raise": true, "next": true, "break": true,
}

// Parse extracts resource declarations from recipe text.
//
// Extraction is structural: the text is never executed. Block delimiters are
// balanced with awareness of strings, comments and heredocs. An unbalanced
// block produces a StructuralParseError-style diagnostic pointing at the
// unmatched opener, and extraction resynchronizes at the next top-level
// resource keyword so one malformed resource does not abort the file.
// Top-level code that is not a resource declaration is reported as a warning
// and preserved nowhere; the caller decides whether that blocks a workflow.
func Parse(src, source string) ([]*Declaration, diag.Diagnostics) {
	lines, heredocs := ScanText(src)

	var (
		decls []*Declaration
		diags diag.Diagnostics
	)

	i := 0
	for i < len(lines) {
		ln := lines[i]
		if ln.Skip || strings.TrimSpace(ln.Text) == "" {
			i++
			continue
		}

		if assignRe.MatchString(ln.Masked) {
			diags = diags.Append(topLevelWarning(ln, source, "variable assignment"))
			i++
			continue
		}

		if m := blockOpenRe.FindStringSubmatch(ln.Text); m != nil && !nonResourceKeywords[m[1]] {
			end, ok := findBlockEnd(lines, i)
			if !ok {
				diags = diags.Append(&diag.Diagnostic{
					Severity: diag.Error,
					Summary:  "Unbalanced resource block",
					Detail:   fmt.Sprintf("The %s block opened here is never closed. The resource was skipped and extraction resumed at the next resource declaration.", m[1]),
					Source:   source,
					Subject:  &diag.Pos{Line: ln.Num, Column: indentCol(ln.Text)},
				})
				i = resync(lines, i+1)
				continue
			}

			decl, more := parseBody(m[1], m[2], lines[i+1:end], heredocs, source, diag.Pos{Line: ln.Num, Column: indentCol(ln.Text)})
			diags = diags.Extend(more)
			decls = append(decls, decl)
			i = end + 1
			continue
		}

		if m := bareRe.FindStringSubmatch(ln.Text); m != nil && !nonResourceKeywords[m[1]] {
			decls = append(decls, &Declaration{
				Type:    m[1],
				RawName: strings.TrimSpace(m[2]),
				Span:    diag.Pos{Line: ln.Num, Column: indentCol(ln.Text)},
				Source:  source,
			})
			i++
			continue
		}

		// Anything else is imperative logic the converter does not attempt.
		diags = diags.Append(topLevelWarning(ln, source, "top-level code"))
		i = skipStatement(lines, i)
	}

	return decls, diags
}

// findBlockEnd returns the index of the line closing the block opened at
// open. ok is false when the block never closes.
func findBlockEnd(lines []Line, open int) (int, bool) {
	depth := BlockDelta(lines[open].Masked)
	if depth <= 0 {
		// Opener and closer on one line.
		return open, true
	}
	for j := open + 1; j < len(lines); j++ {
		if lines[j].Skip {
			continue
		}
		depth += BlockDelta(lines[j].Masked)
		if depth <= 0 {
			return j, true
		}
	}
	return 0, false
}

// resync advances to the next line that opens a top-level resource block.
func resync(lines []Line, from int) int {
	for j := from; j < len(lines); j++ {
		if lines[j].Skip {
			continue
		}
		if m := blockOpenRe.FindStringSubmatch(lines[j].Text); m != nil && !nonResourceKeywords[m[1]] {
			return j
		}
	}
	return len(lines)
}

// skipStatement advances past a top-level statement, consuming any block it
// opens so nested code is not misread as resources.
func skipStatement(lines []Line, at int) int {
	depth := BlockDelta(lines[at].Masked)
	j := at + 1
	for depth > 0 && j < len(lines) {
		if !lines[j].Skip {
			depth += BlockDelta(lines[j].Masked)
		}
		j++
	}
	return j
}

// parseBody extracts properties, actions, guards and notifications from the
// body lines of a resource block.
func parseBody(typ, rawName string, body []Line, heredocs map[int][]HeredocBody, source string, span diag.Pos) (*Declaration, diag.Diagnostics) {
	decl := &Declaration{
		Type:    typ,
		RawName: strings.TrimSpace(rawName),
		Span:    span,
		Source:  source,
		Body:    joinBody(body),
	}
	var diags diag.Diagnostics

	i := 0
	for i < len(body) {
		ln := body[i]
		if ln.Skip || strings.TrimSpace(ln.Text) == "" {
			i++
			continue
		}
		text := strings.TrimSpace(ln.Text)
		pos := diag.Pos{Line: ln.Num, Column: indentCol(ln.Text)}

		// Guard with a multi-line block body.
		if m := guardBlockRe.FindStringSubmatch(text); m != nil {
			end, inner := captureBlock(body, i)
			decl.Guards = append(decl.Guards, guard.Guard{
				Kind:  guardKind(m[1]),
				Block: inner,
				Span:  pos,
			})
			i = end + 1
			continue
		}

		// Guard on a single line: string command or inline block.
		if strings.HasPrefix(text, "only_if") || strings.HasPrefix(text, "not_if") {
			g, ok := parseGuardLine(text, pos)
			if ok {
				decl.Guards = append(decl.Guards, g)
			} else {
				diags = diags.Append(&diag.Diagnostic{
					Severity: diag.Warning,
					Summary:  "Unrecognized guard clause",
					Detail:   fmt.Sprintf("The guard %q could not be extracted.", text),
					Source:   source,
					Subject:  pos.Ptr(),
				})
			}
			i++
			continue
		}

		if strings.HasPrefix(text, "action ") || strings.HasPrefix(text, "action(") {
			decl.Actions = append(decl.Actions, parseActions(text[len("action"):])...)
			i++
			continue
		}

		if strings.HasPrefix(text, "notifies") || strings.HasPrefix(text, "subscribes") {
			n, ok := parseNotification(text, pos)
			if ok {
				decl.Notifications = append(decl.Notifications, n)
			} else {
				diags = diags.Append(&diag.Diagnostic{
					Severity: diag.Warning,
					Summary:  "Unrecognized notification",
					Detail:   fmt.Sprintf("The declaration %q could not be extracted.", text),
					Source:   source,
					Subject:  pos.Ptr(),
				})
			}
			i++
			continue
		}

		// Property with a nested block argument, such as ruby_block's block.
		if m := propBlockRe.FindStringSubmatch(text); m != nil && BlockDelta(ln.Masked) > 0 {
			end, inner := captureBlock(body, i)
			decl.Properties = append(decl.Properties, Property{
				Name: m[1],
				Kind: Block,
				Raw:  inner,
				Span: pos,
			})
			diags = diags.Append(&diag.Diagnostic{
				Severity: diag.Warning,
				Summary:  "Block property preserved verbatim",
				Detail:   fmt.Sprintf("The %s block on resource %s is arbitrary code and was kept as opaque text.", m[1], decl.Ref()),
				Source:   source,
				Subject:  pos.Ptr(),
			})
			i = end + 1
			continue
		}

		if m := propertyRe.FindStringSubmatch(text); m != nil {
			raw := strings.TrimSpace(m[2])
			if text[len(m[1])] == '(' {
				// The separator consumed the opening paren of a call form.
				raw = "(" + raw
			}
			raw = stripOuterParens(raw)

			// Join continuation lines while brackets stay open.
			depth := bracketDelta(ln.Masked)
			for depth > 0 && i+1 < len(body) {
				i++
				if body[i].Skip {
					continue
				}
				raw += "\n" + strings.TrimSpace(body[i].Text)
				depth += bracketDelta(body[i].Masked)
			}

			prop := Property{Name: m[1], Kind: Value, Raw: raw, Span: pos}
			if hd, ok := takeHeredoc(heredocs, ln.Num, raw); ok {
				prop.Kind = Heredoc
				prop.Raw = hd
			}
			decl.Properties = append(decl.Properties, prop)
			i++
			continue
		}

		diags = diags.Append(&diag.Diagnostic{
			Severity: diag.Warning,
			Summary:  "Unconverted resource body line",
			Detail:   fmt.Sprintf("The line %q inside resource %s was not recognized and was skipped.", text, decl.Ref()),
			Source:   source,
			Subject:  pos.Ptr(),
		})
		i = skipStatement(body, i)
	}

	return decl, diags
}

// captureBlock returns the index of the line closing the block opened at
// open, plus the raw inner text. When the block is a single line, the inner
// text between the delimiters is returned.
func captureBlock(body []Line, open int) (end int, inner string) {
	if BlockDelta(body[open].Masked) <= 0 {
		text := strings.TrimSpace(body[open].Text)
		if a := strings.IndexByte(text, '{'); a >= 0 {
			if b := strings.LastIndexByte(text, '}'); b > a {
				return open, strings.TrimSpace(text[a+1 : b])
			}
		}
		return open, ""
	}
	endIdx, ok := findBlockEnd(body, open)
	if !ok {
		endIdx = len(body) - 1
	}
	var sb strings.Builder
	for j := open + 1; j < endIdx; j++ {
		if body[j].Skip {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.TrimSpace(body[j].Text))
	}
	return endIdx, sb.String()
}

// parseGuardLine handles only_if/not_if with a string command or an inline
// braced block.
func parseGuardLine(text string, pos diag.Pos) (guard.Guard, bool) {
	if a := strings.IndexByte(text, '{'); a >= 0 && strings.HasSuffix(text, "}") {
		return guard.Guard{
			Kind:  guardKind(text),
			Block: strings.TrimSpace(text[a+1 : len(text)-1]),
			Span:  pos,
		}, true
	}
	m := guardLineRe.FindStringSubmatch(text)
	if m == nil {
		return guard.Guard{}, false
	}
	args := splitArgs(m[2])
	if len(args) == 0 {
		return guard.Guard{}, false
	}
	cmd, ok := stringLiteral(args[0])
	if !ok {
		return guard.Guard{}, false
	}
	return guard.Guard{Kind: guardKind(m[1]), Command: cmd, Span: pos}, true
}

func guardKind(kw string) guard.Kind {
	if strings.HasPrefix(kw, "not_if") {
		return guard.NotIf
	}
	return guard.OnlyIf
}

// parseActions handles action :install and action [:enable, :start].
func parseActions(rest string) []string {
	rest = stripOuterParens(strings.TrimSpace(rest))
	rest = strings.Trim(rest, "[]")
	var out []string
	for _, part := range splitArgs(rest) {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, ":") {
			out = append(out, part[1:])
		}
	}
	return out
}

// parseNotification handles notifies/subscribes declarations:
//
//	notifies :reload, 'service[nginx]', :delayed
//	subscribes :restart, 'template[/etc/app.conf]', :immediately
//
// The timing argument is optional and defaults to delayed.
func parseNotification(text string, pos diag.Pos) (notify.Notification, bool) {
	subscribe := strings.HasPrefix(text, "subscribes")
	rest := strings.TrimPrefix(strings.TrimPrefix(text, "subscribes"), "notifies")
	rest = stripOuterParens(strings.TrimSpace(rest))

	args := splitArgs(rest)
	if len(args) < 2 {
		return notify.Notification{}, false
	}

	action := strings.TrimSpace(args[0])
	if !strings.HasPrefix(action, ":") {
		return notify.Notification{}, false
	}
	target, ok := stringLiteral(args[1])
	if !ok {
		return notify.Notification{}, false
	}

	timing := notify.Delayed
	if len(args) >= 3 {
		switch strings.TrimSpace(args[2]) {
		case ":immediately", ":immediate":
			timing = notify.Immediately
		case ":delayed":
			timing = notify.Delayed
		}
	}

	return notify.Notification{
		Action:    action[1:],
		TargetRef: target,
		Timing:    timing,
		Subscribe: subscribe,
		Span:      pos,
	}, true
}

// takeHeredoc consumes the next heredoc opened on the given line when the
// raw value references one.
func takeHeredoc(heredocs map[int][]HeredocBody, line int, raw string) (string, bool) {
	if !strings.Contains(raw, "<<") {
		return "", false
	}
	hds := heredocs[line]
	if len(hds) == 0 {
		return "", false
	}
	heredocs[line] = hds[1:]
	return hds[0].Body, true
}

// splitArgs splits on commas outside quotes, brackets and braces.
func splitArgs(s string) []string {
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
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		out = append(out, last)
	}
	return out
}

// stringLiteral unwraps a simple quoted string argument.
func stringLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1], true
		}
	}
	return "", false
}

func stripOuterParens(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && bracketDelta(s[1:len(s)-1]) == 0 {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner != "" {
			return inner
		}
	}
	return s
}

func indentCol(text string) int {
	return len(text) - len(strings.TrimLeft(text, " \t")) + 1
}

func joinBody(body []Line) string {
	var sb strings.Builder
	for _, ln := range body {
		if ln.Skip {
			continue
		}
		sb.WriteString(ln.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func topLevelWarning(ln Line, source, what string) *diag.Diagnostic {
	return &diag.Diagnostic{
		Severity: diag.Warning,
		Summary:  "Unconverted " + what,
		Detail:   fmt.Sprintf("The line %q is not a resource declaration and was preserved only in this diagnostic.", strings.TrimSpace(ln.Text)),
		Source:   source,
		Subject:  &diag.Pos{Line: ln.Num, Column: indentCol(ln.Text)},
	}
}
