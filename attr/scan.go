package attr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/expr"
)

var assignRe = regexp.MustCompile(`^(?:node\.)?(default|force_default|normal|set|override|force_override|automatic)((?:\[[^\]]*\])+)\s*=\s*(.+)$`)

// Scan extracts attribute assignments from one attribute file. startIndex is
// the declaration index of the first assignment, letting the caller scan
// several files into one index sequence so cross-file ties resolve by file
// order.
//
// Lines that are not attribute assignments (helper methods, conditionals on
// dynamic data) are reported as warnings and skipped; scanning never fails.
func Scan(src, source string, startIndex int) ([]Assignment, diag.Diagnostics) {
	var (
		assignments []Assignment
		diags       diag.Diagnostics
	)
	index := startIndex

	lines := strings.Split(src, "\n")
	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		text := stripComment(lines[i])
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}

		m := assignRe.FindStringSubmatch(trimmed)
		if m == nil {
			diags = diags.Append(&diag.Diagnostic{
				Severity: diag.Warning,
				Summary:  "Skipped non-assignment line",
				Detail:   fmt.Sprintf("The line %q is not an attribute assignment and was not converted.", trimmed),
				Source:   source,
				Subject:  &diag.Pos{Line: lineNo, Column: 1},
			})
			continue
		}

		prec, _ := PrecedenceFromKeyword(m[1])
		keys, rest, ok := expr.Keys(m[2])
		if !ok || strings.TrimSpace(rest) != "" || len(keys) == 0 {
			diags = diags.Append(&diag.Diagnostic{
				Severity: diag.Warning,
				Summary:  "Unrecognized attribute key path",
				Detail:   fmt.Sprintf("The key path %q could not be normalized.", m[2]),
				Source:   source,
				Subject:  &diag.Pos{Line: lineNo, Column: 1},
			})
			continue
		}

		// Values may continue over following lines until delimiters balance.
		rawValue := m[3]
		for delimDepth(rawValue) > 0 && i+1 < len(lines) {
			i++
			rawValue += "\n" + stripComment(lines[i])
		}

		value, more := expr.Parse(rawValue, source, diag.Pos{Line: lineNo, Column: 1})
		diags = diags.Extend(more)

		assignments = append(assignments, Assignment{
			Precedence: prec,
			KeyPath:    keys,
			Value:      value,
			Index:      index,
		})
		index++
	}

	return assignments, diags
}

// stripComment removes a trailing # comment that is not inside a string.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
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
		case '#':
			return line[:i]
		}
	}
	return line
}

// delimDepth counts unbalanced brackets, braces and parens outside strings.
func delimDepth(s string) int {
	depth := 0
	var quote byte
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
		}
	}
	return depth
}
