package segment

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Regex patterns for markdown preprocessing.
var (
	// Matches a leading front-matter block: ---\n...\n--- (or ...).
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n(---|\.\.\.)\n*`)

	// Matches GitHub-style admonition markers at the start of a blockquote:
	// [!NOTE], [!WARNING], etc.
	admonitionMarkerPattern = regexp.MustCompile(`^\[!([A-Z]+)\]\s*`)
)

// mdParser is shared across calls; goldmark parsers are safe for concurrent use.
var mdParser = goldmark.New()

// SegmentMarkdown parses Markdown text into ordered sections.
// A new section starts at every heading; fenced code blocks are captured
// verbatim; inline markup is reduced to plain text.
func SegmentMarkdown(raw string) []Section {
	raw = frontmatterPattern.ReplaceAllString(raw, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	src := []byte(raw)
	root := mdParser.Parser().Parse(text.NewReader(src))

	b := &mdBuilder{src: src, cur: Section{Depth: 0}}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		b.block(n)
	}
	b.flush()
	return b.sections
}

// mdBuilder accumulates sections while walking the goldmark AST.
type mdBuilder struct {
	src      []byte
	sections []Section
	cur      Section
	paras    []string
}

// flush finalizes the current section. The preamble (Depth 0, no heading)
// is only kept when it collected content or code.
func (b *mdBuilder) flush() {
	b.cur.Content = strings.Join(b.paras, "\n\n")
	if b.cur.Heading != "" || strings.TrimSpace(b.cur.Content) != "" || len(b.cur.CodeBlocks) > 0 {
		b.sections = append(b.sections, b.cur)
	}
	b.paras = nil
}

// block processes one block-level node.
func (b *mdBuilder) block(n ast.Node) {
	switch t := n.(type) {
	case *ast.Heading:
		b.flush()
		b.cur = Section{
			Heading: strings.TrimSpace(b.plainText(t)),
			Depth:   t.Level,
		}
	case *ast.FencedCodeBlock:
		lang := string(t.Language(b.src))
		b.cur.CodeBlocks = append(b.cur.CodeBlocks, CodeBlock{
			Language: lang,
			Value:    strings.TrimRight(b.nodeLines(t), "\n"),
		})
	case *ast.CodeBlock:
		// Indented code block: the parser already strips the syntax indent.
		b.cur.CodeBlocks = append(b.cur.CodeBlocks, CodeBlock{
			Value: strings.TrimRight(b.nodeLines(t), "\n"),
		})
	case *ast.Blockquote:
		// Admonitions and quotes flatten into prose.
		for c := t.FirstChild(); c != nil; c = c.NextSibling() {
			b.block(c)
		}
	case *ast.List:
		for item := t.FirstChild(); item != nil; item = item.NextSibling() {
			b.listItem(item)
		}
	case *ast.ThematicBreak:
		// Drop horizontal rules.
	case *ast.HTMLBlock:
		// Unparseable spans degrade to literal prose.
		if s := strings.TrimSpace(b.nodeLines(t)); s != "" {
			b.appendParagraph(s)
		}
	default:
		if s := strings.TrimSpace(b.plainText(n)); s != "" {
			b.appendParagraph(s)
		}
	}
}

// listItem renders one list item (and nested blocks) as prose lines.
func (b *mdBuilder) listItem(item ast.Node) {
	var parts []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.FencedCodeBlock:
			b.cur.CodeBlocks = append(b.cur.CodeBlocks, CodeBlock{
				Language: string(t.Language(b.src)),
				Value:    strings.TrimRight(b.nodeLines(t), "\n"),
			})
		case *ast.List:
			for nested := t.FirstChild(); nested != nil; nested = nested.NextSibling() {
				b.listItem(nested)
			}
		default:
			if s := strings.TrimSpace(b.plainText(c)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) > 0 {
		b.appendParagraph("- " + strings.Join(parts, " "))
	}
}

// appendParagraph adds a prose paragraph to the current section, stripping
// leading admonition markers.
func (b *mdBuilder) appendParagraph(s string) {
	s = admonitionMarkerPattern.ReplaceAllString(s, "")
	if s == "" {
		return
	}
	b.paras = append(b.paras, s)
}

// plainText extracts the plain-text rendering of a node, stripping inline
// markup (emphasis, links, code spans all reduce to their text).
func (b *mdBuilder) plainText(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(b.src))
			if t.HardLineBreak() {
				sb.WriteByte('\n')
			} else if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.AutoLink:
			sb.Write(t.URL(b.src))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// nodeLines concatenates the raw source lines covered by a node.
func (b *mdBuilder) nodeLines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(b.src))
	}
	return sb.String()
}
