package recipe

import (
	"regexp"
	"strings"
)

// A Line is one physical source line prepared for structural analysis.
//
// Text has trailing comments removed but string contents intact. Masked
// additionally blanks out string contents so keyword and delimiter scanning
// cannot be fooled by block syntax inside literals. Heredoc body lines are
// marked Skip and excluded from structure entirely.
type Line struct {
	Num    int
	Text   string
	Masked string
	Skip   bool
}

// A HeredocBody is a resolved heredoc body collected during scanning.
type HeredocBody struct {
	Tag  string
	Body string
}

var heredocOpenRe = regexp.MustCompile(`<<([~-]?)(['"]?)([A-Za-z_][A-Za-z0-9_]*)(['"]?)`)

// ScanText splits source text into analyzed lines and collects heredoc
// bodies keyed by the line number of their opener.
func ScanText(src string) ([]Line, map[int][]HeredocBody) {
	raw := strings.Split(src, "\n")
	lines := make([]Line, len(raw))
	heredocs := make(map[int][]HeredocBody)

	// Pending heredocs open in source order; bodies run sequentially after
	// the opener line.
	type pending struct {
		openLine int
		tag      string
		squiggly bool
		lines    []string
	}
	var open []*pending

	for i, text := range raw {
		num := i + 1

		if len(open) > 0 {
			p := open[0]
			if strings.TrimSpace(text) == p.tag {
				heredocs[p.openLine] = append(heredocs[p.openLine], HeredocBody{
					Tag:  p.tag,
					Body: finishHeredoc(p.lines, p.squiggly),
				})
				open = open[1:]
			} else {
				p.lines = append(p.lines, text)
			}
			lines[i] = Line{Num: num, Skip: true}
			continue
		}

		stripped, masked := maskLine(text)
		lines[i] = Line{Num: num, Text: stripped, Masked: masked}

		// Heredoc openers are visible in the masked text as the << operator;
		// the tag is read from the stripped text since quoted tags would be
		// blanked by masking.
		for _, loc := range regexp.MustCompile(`<<[~-]?`).FindAllStringIndex(masked, -1) {
			m := heredocOpenRe.FindStringSubmatch(stripped[loc[0]:])
			if m == nil || m[2] != m[4] {
				continue
			}
			open = append(open, &pending{
				openLine: num,
				tag:      m[3],
				squiggly: m[1] == "~",
			})
		}
	}

	return lines, heredocs
}

// finishHeredoc joins body lines, dedenting squiggly heredocs by the
// smallest indentation of any non-blank line.
func finishHeredoc(body []string, squiggly bool) string {
	if squiggly {
		indent := -1
		for _, l := range body {
			if strings.TrimSpace(l) == "" {
				continue
			}
			n := len(l) - len(strings.TrimLeft(l, " \t"))
			if indent < 0 || n < indent {
				indent = n
			}
		}
		if indent > 0 {
			for i, l := range body {
				if len(l) >= indent {
					body[i] = l[indent:]
				}
			}
		}
	}
	s := strings.Join(body, "\n")
	if len(body) > 0 {
		s += "\n"
	}
	return s
}

// maskLine strips a trailing comment and produces a masked copy with string
// contents blanked. Quote characters themselves are kept so quoting state
// stays visible.
func maskLine(text string) (stripped, masked string) {
	var sb, mb strings.Builder
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				sb.WriteByte(text[i+1])
				mb.WriteString("  ")
				i++
				continue
			}
			if c == quote {
				quote = 0
				mb.WriteByte(c)
			} else {
				mb.WriteByte(' ')
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			sb.WriteByte(c)
			mb.WriteByte(c)
		case '#':
			return sb.String(), mb.String()
		default:
			sb.WriteByte(c)
			mb.WriteByte(c)
		}
	}
	return sb.String(), mb.String()
}

var (
	wordDoRe  = regexp.MustCompile(`(^|[^\w.])do($|[^\w])`)
	wordEndRe = regexp.MustCompile(`(^|[^\w.])end($|[^\w])`)
	leadKwRe  = regexp.MustCompile(`^\s*(if|unless|case|begin|while|until|def|class|module)\b`)
)

// BlockDelta returns the change in block nesting depth a masked line causes.
// do/end pairs, leading block keywords, and braces all contribute to one
// combined depth so mixed delimiters still balance.
func BlockDelta(masked string) int {
	delta := 0
	delta += len(wordDoRe.FindAllString(masked, -1))
	delta -= len(wordEndRe.FindAllString(masked, -1))

	if m := leadKwRe.FindStringSubmatch(masked); m != nil {
		kw := m[1]
		// while x do ... end opens one block, not two.
		if (kw != "while" && kw != "until") || !wordDoRe.MatchString(masked) {
			delta++
		}
	}

	for i := 0; i < len(masked); i++ {
		switch masked[i] {
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

// bracketDelta counts unbalanced parens and square brackets, used to join
// multi-line property values.
func bracketDelta(masked string) int {
	depth := 0
	for i := 0; i < len(masked); i++ {
		switch masked[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
	}
	return depth
}
