package segment

import (
	"regexp"
	"strings"
)

// Directive and inline patterns for reStructuredText.
var (
	// Matches an explicit-markup directive: .. name:: optional-argument
	directivePattern = regexp.MustCompile(`^\.\.\s+([a-zA-Z][\w-]*)::\s*(.*)$`)

	// Inline markup, stripped to plain text in order of specificity.
	rstInlineLiteral = regexp.MustCompile("``([^`]+)``")
	rstRole          = regexp.MustCompile(":[a-zA-Z][\\w:.+-]*:`([^`]+)`")
	rstRefWithTarget = regexp.MustCompile("`([^`<]+?)\\s*<[^>`]*>`__?")
	rstRef           = regexp.MustCompile("`([^`]+)`__?")
	rstStrong        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	rstEmphasis      = regexp.MustCompile(`\*([^*]+)\*`)
)

// codeDirectives are directives whose body is a verbatim code block.
var codeDirectives = map[string]bool{
	"code":       true,
	"code-block": true,
	"sourcecode": true,
}

// admonitionDirectives are directives whose body is flattened into prose.
var admonitionDirectives = map[string]bool{
	"note": true, "warning": true, "tip": true, "important": true,
	"caution": true, "attention": true, "hint": true, "danger": true,
	"error": true, "admonition": true, "seealso": true, "versionadded": true,
	"versionchanged": true, "deprecated": true,
}

// skipDirectives are structural directives with no prose value.
var skipDirectives = map[string]bool{
	"toctree": true, "image": true, "figure": true, "include": true,
	"raw": true, "highlight": true, "index": true,
}

// SegmentRST parses reStructuredText into ordered sections using a line
// scanner. Section depth follows the first-seen order of heading adornment
// characters, per the reStructuredText convention.
func SegmentRST(raw string) []Section {
	raw = frontmatterPattern.ReplaceAllString(raw, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	s := &rstScanner{
		lines:  strings.Split(raw, "\n"),
		levels: map[byte]int{},
		cur:    Section{Depth: 0},
	}
	s.run()
	return s.sections
}

type rstScanner struct {
	lines    []string
	levels   map[byte]int // adornment char -> depth
	sections []Section
	cur      Section
	paras    []string
}

func (s *rstScanner) run() {
	i := 0
	for i < len(s.lines) {
		line := strings.TrimRight(s.lines[i], " \t")

		// Blank line terminates nothing here; paragraphs are collected whole.
		if strings.TrimSpace(line) == "" {
			i++
			continue
		}

		// Overline heading: adornment / title / matching adornment.
		if isAdornment(line) && i+2 < len(s.lines) {
			title := strings.TrimSpace(s.lines[i+1])
			under := strings.TrimRight(s.lines[i+2], " \t")
			if title != "" && !isAdornment(s.lines[i+1]) && isAdornment(under) && under[0] == line[0] {
				s.startSection(title, line[0])
				i += 3
				continue
			}
		}

		// Standalone adornment line (transition) is dropped.
		if isAdornment(line) {
			i++
			continue
		}

		// Underline heading: title / adornment at least as long.
		if i+1 < len(s.lines) {
			under := strings.TrimRight(s.lines[i+1], " \t")
			if isAdornment(under) && len(under) >= len(strings.TrimSpace(line)) {
				s.startSection(strings.TrimSpace(line), under[0])
				i += 2
				continue
			}
		}

		// Directives.
		if m := directivePattern.FindStringSubmatch(line); m != nil {
			name, arg := strings.ToLower(m[1]), strings.TrimSpace(m[2])
			body, next := collectIndented(s.lines, i+1)
			switch {
			case codeDirectives[name]:
				value := strings.TrimRight(strings.Join(stripOptionLines(body), "\n"), "\n")
				if value != "" {
					s.cur.CodeBlocks = append(s.cur.CodeBlocks, CodeBlock{Language: arg, Value: value})
				}
			case admonitionDirectives[name]:
				if arg != "" {
					s.appendParagraph(arg)
				}
				s.appendProse(body)
			case skipDirectives[name]:
				// Structural directive, no prose value.
			default:
				// Unknown directives degrade to literal prose.
				s.appendProse(body)
			}
			i = next
			continue
		}

		// Comment block: explicit markup without a directive name.
		if strings.HasPrefix(line, ".. ") || line == ".." {
			_, next := collectIndented(s.lines, i+1)
			i = next
			continue
		}

		// Paragraph: collect until blank line.
		var para []string
		for i < len(s.lines) && strings.TrimSpace(s.lines[i]) != "" {
			para = append(para, strings.TrimRight(s.lines[i], " \t"))
			i++
		}
		text := strings.Join(para, " ")

		// A paragraph ending in "::" introduces a literal block.
		if strings.HasSuffix(text, "::") {
			text = strings.TrimSuffix(text, "::")
			if text != "" && !strings.HasSuffix(text, " ") {
				text += ":"
			}
			body, next := collectIndented(s.lines, i)
			value := strings.TrimRight(strings.Join(body, "\n"), "\n")
			if value != "" {
				s.cur.CodeBlocks = append(s.cur.CodeBlocks, CodeBlock{Value: value})
			}
			i = next
		}
		s.appendParagraph(strings.TrimSpace(text))
	}
	s.flush()
}

// startSection closes the current section and opens one for the heading.
func (s *rstScanner) startSection(title string, adornment byte) {
	s.flush()
	level, ok := s.levels[adornment]
	if !ok {
		level = len(s.levels) + 1
		s.levels[adornment] = level
	}
	s.cur = Section{Heading: stripRSTInline(title), Depth: level}
}

func (s *rstScanner) flush() {
	s.cur.Content = strings.Join(s.paras, "\n\n")
	if s.cur.Heading != "" || strings.TrimSpace(s.cur.Content) != "" || len(s.cur.CodeBlocks) > 0 {
		s.sections = append(s.sections, s.cur)
	}
	s.paras = nil
}

func (s *rstScanner) appendParagraph(text string) {
	text = stripRSTInline(text)
	if text != "" {
		s.paras = append(s.paras, text)
	}
}

// appendProse splits a dedented block into paragraphs on blank lines.
func (s *rstScanner) appendProse(body []string) {
	var para []string
	emit := func() {
		if len(para) > 0 {
			s.appendParagraph(strings.Join(para, " "))
			para = nil
		}
	}
	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		para = append(para, strings.TrimSpace(line))
	}
	emit()
}

// stripRSTInline removes inline markup, keeping the readable text.
func stripRSTInline(text string) string {
	text = rstInlineLiteral.ReplaceAllString(text, "$1")
	text = rstRole.ReplaceAllString(text, "$1")
	text = rstRefWithTarget.ReplaceAllString(text, "$1")
	text = rstRef.ReplaceAllString(text, "$1")
	text = rstStrong.ReplaceAllString(text, "$1")
	text = rstEmphasis.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// isAdornment reports whether a line is a section adornment: two or more
// repetitions of a single punctuation character.
func isAdornment(line string) bool {
	line = strings.TrimRight(line, " \t")
	if len(line) < 2 {
		return false
	}
	c := line[0]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ' {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != c {
			return false
		}
	}
	return true
}

// collectIndented gathers the indented block starting at index start,
// stripping the common leading indentation introduced by the markup.
// Returns the dedented lines and the index of the first line after the block.
func collectIndented(lines []string, start int) ([]string, int) {
	// Skip blank lines between the marker and the block.
	i := start
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}

	var block []string
	indent := -1
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			block = append(block, "")
			continue
		}
		lead := len(line) - len(strings.TrimLeft(line, " \t"))
		if lead == 0 {
			break
		}
		if indent < 0 || lead < indent {
			indent = lead
		}
		block = append(block, line)
	}

	// Trim trailing blanks and dedent.
	for len(block) > 0 && block[len(block)-1] == "" {
		block = block[:len(block)-1]
	}
	if indent > 0 {
		for j, line := range block {
			if len(line) >= indent {
				block[j] = line[indent:]
			}
		}
	}
	return block, i
}

// stripOptionLines drops leading field options (":linenos:" etc.) from a
// code directive body.
func stripOptionLines(body []string) []string {
	i := 0
	for i < len(body) {
		trimmed := strings.TrimSpace(body[i])
		if trimmed == "" {
			i++
			continue
		}
		if strings.HasPrefix(trimmed, ":") && strings.Count(trimmed, ":") >= 2 {
			i++
			continue
		}
		break
	}
	return body[i:]
}
