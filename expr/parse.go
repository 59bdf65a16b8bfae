package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/recipeshift/recipeshift/diag"
	"github.com/zclconf/go-cty/cty"
)

// Parse normalizes raw property-value text into an expression. It never
// fails: text that matches no production is returned as an Opaque expression
// together with a warning diagnostic.
//
// source and at identify the text for diagnostics only.
func Parse(raw, source string, at diag.Pos) (Expr, diag.Diagnostics) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return &Opaque{Raw: raw}, diag.Diagnostics{{
			Severity: diag.Warning,
			Summary:  "Empty value expression",
			Source:   source,
			Subject:  at.Ptr(),
		}}
	}

	if e, ok := parseRecognized(s); ok {
		return e, nil
	}

	return &Opaque{Raw: s}, diag.Diagnostics{{
		Severity: diag.Warning,
		Summary:  "Unrecognized value expression",
		Detail:   fmt.Sprintf("The expression %q could not be translated and requires manual review. It is preserved verbatim.", s),
		Source:   source,
		Subject:  at.Ptr(),
	}}
}

// parseRecognized attempts all structural recognizers. The whole input must
// be consumed; trailing text disqualifies a match so that method calls such
// as node['a'].fetch('b') do not silently lose the call.
func parseRecognized(s string) (Expr, bool) {
	switch {
	case s == "true":
		return &Literal{Val: cty.True, Raw: s}, true
	case s == "false":
		return &Literal{Val: cty.False, Raw: s}, true
	case s == "nil":
		return &Literal{Val: cty.NullVal(cty.DynamicPseudoType), Raw: s}, true
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &Literal{Val: cty.NumberIntVal(v), Raw: s}, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &Literal{Val: cty.NumberFloatVal(f), Raw: s}, true
	}

	if strings.HasPrefix(s, ":") && isSymbolName(s[1:]) {
		return &Literal{Val: cty.StringVal(s[1:]), Raw: s}, true
	}

	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		if body, ok := unquoteSingle(s); ok {
			return &Literal{Val: cty.StringVal(body), Raw: s}, true
		}
		return nil, false
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return parseDoubleQuoted(s)
	}

	if strings.HasPrefix(s, "%w(") || strings.HasPrefix(s, "%i(") {
		return parseWordArray(s)
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return parseArray(s)
	}

	if scope, keys, ok := ParsePath(s); ok {
		return &AttributePath{Scope: scope, Keys: keys, Raw: s}, true
	}

	return nil, false
}

// ParsePath recognizes an attribute-path lookup such as node['a'][:b] or
// new_resource.name. The entire input must form the path. The returned scope
// is "node" for any attribute root or "new_resource" for a resource
// self-reference.
func ParsePath(s string) (scope string, keys []string, ok bool) {
	rest := s
	switch {
	case strings.HasPrefix(rest, "node"):
		scope = "node"
		rest = rest[len("node"):]
		// Forms like node.default['a'] address a precedence level on read;
		// the level does not change the key path.
		for _, lvl := range []string{".default", ".normal", ".override", ".automatic"} {
			if strings.HasPrefix(rest, lvl) {
				rest = rest[len(lvl):]
				break
			}
		}
	case strings.HasPrefix(rest, "new_resource"):
		scope = "new_resource"
		rest = rest[len("new_resource"):]
	default:
		return "", nil, false
	}

	if strings.HasPrefix(rest, ".") && isSymbolName(rest[1:]) {
		// Method-style self reference: new_resource.name
		return scope, []string{rest[1:]}, true
	}

	keys, rest, ok = Keys(rest)
	if !ok || len(keys) == 0 || strings.TrimSpace(rest) != "" {
		return "", nil, false
	}
	return scope, keys, true
}

// Keys parses consecutive bracket segments ['a'][:b]["c"] from the front of
// s, returning the normalized keys and the unconsumed remainder. ok is false
// if a segment is malformed.
func Keys(s string) (keys []string, rest string, ok bool) {
	rest = s
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, s, false
		}
		key, keyOK := bracketKey(rest[1:end])
		if !keyOK {
			return nil, s, false
		}
		keys = append(keys, key)
		rest = rest[end+1:]
	}
	return keys, rest, true
}

// bracketKey normalizes one bracket segment: 'key', "key" or :key.
func bracketKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		body, ok := unquoteSingle(s)
		return body, ok
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		body := s[1 : len(s)-1]
		if strings.ContainsAny(body, "\"#\\") {
			return "", false
		}
		return body, true
	case strings.HasPrefix(s, ":") && isSymbolName(s[1:]):
		return s[1:], true
	}
	return "", false
}

// parseDoubleQuoted handles double-quoted strings, splitting #{...}
// interpolation into segments.
func parseDoubleQuoted(s string) (Expr, bool) {
	body := s[1 : len(s)-1]

	var segments []Expr
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, &Literal{Val: cty.StringVal(lit.String()), Raw: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			switch body[i] {
			case 'n':
				lit.WriteByte('\n')
			case 't':
				lit.WriteByte('\t')
			default:
				lit.WriteByte(body[i])
			}
		case c == '"':
			// An unescaped quote means the value was not a single string.
			return nil, false
		case c == '#' && i+1 < len(body) && body[i+1] == '{':
			end := matchBrace(body, i+1)
			if end < 0 {
				return nil, false
			}
			inner := body[i+2 : end]
			flush()
			if e, ok := parseRecognized(strings.TrimSpace(inner)); ok {
				segments = append(segments, e)
			} else {
				segments = append(segments, &Opaque{Raw: strings.TrimSpace(inner)})
			}
			i = end
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	if len(segments) == 0 {
		return &Literal{Val: cty.StringVal(""), Raw: s}, true
	}
	if len(segments) == 1 {
		if l, ok := segments[0].(*Literal); ok {
			return &Literal{Val: l.Val, Raw: s}, true
		}
	}
	return &Interpolation{Segments: segments, Raw: s}, true
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseWordArray handles %w(a b c) and %i(a b c) word arrays, normalizing
// both to a list-of-strings literal.
func parseWordArray(s string) (Expr, bool) {
	if !strings.HasSuffix(s, ")") {
		return nil, false
	}
	words := strings.Fields(s[3 : len(s)-1])
	vals := make([]cty.Value, len(words))
	for i, w := range words {
		vals[i] = cty.StringVal(w)
	}
	if len(vals) == 0 {
		return &Literal{Val: cty.EmptyTupleVal, Raw: s}, true
	}
	return &Literal{Val: cty.TupleVal(vals), Raw: s}, true
}

// parseArray handles bracketed arrays. Only arrays whose every element is
// itself a literal collapse into a literal; anything else is unrecognized.
func parseArray(s string) (Expr, bool) {
	elems := splitTopLevel(s[1 : len(s)-1])
	if len(elems) == 0 {
		return &Literal{Val: cty.EmptyTupleVal, Raw: s}, true
	}
	vals := make([]cty.Value, 0, len(elems))
	for _, el := range elems {
		e, ok := parseRecognized(strings.TrimSpace(el))
		if !ok {
			return nil, false
		}
		l, isLit := e.(*Literal)
		if !isLit {
			return nil, false
		}
		vals = append(vals, l.Val)
	}
	return &Literal{Val: cty.TupleVal(vals), Raw: s}, true
}

// splitTopLevel splits on commas that are not inside quotes, brackets or
// braces.
func splitTopLevel(s string) []string {
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
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	// A trailing comma leaves an empty remainder; it is not an element.
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, s[start:])
	}
	return out
}

// unquoteSingle removes single quotes and resolves \' and \\ escapes.
func unquoteSingle(s string) (string, bool) {
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\'' {
			return "", false
		}
		if c == '\\' && i+1 < len(body) && (body[i+1] == '\'' || body[i+1] == '\\') {
			i++
			c = body[i]
		}
		b.WriteByte(c)
	}
	return b.String(), true
}

func isSymbolName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && (unicode.IsDigit(r) || (r == '?' && i == len(s)-1)) {
			continue
		}
		return false
	}
	return true
}
