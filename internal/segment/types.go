// Package segment parses raw documentation markup (Markdown or
// reStructuredText) into an ordered sequence of hierarchical sections.
// Parsing never fails: malformed markup degrades to literal prose.
package segment

import (
	"path/filepath"
	"strings"
)

// CodeBlock is a fenced or literal code block captured verbatim from a
// document. Language is the fence info tag, empty if none was given.
type CodeBlock struct {
	Language string
	Value    string
}

// Section is one hierarchical slice of a document: the heading that opened
// it, its nesting depth (1 = top level), accumulated prose content, and any
// code blocks that appeared inside it. Content before the first heading is
// collected into a preamble section with an empty Heading and Depth 0.
type Section struct {
	Heading    string
	Depth      int
	Content    string
	CodeBlocks []CodeBlock
}

// Dialect identifies a supported markup dialect.
type Dialect string

const (
	DialectMarkdown Dialect = "markdown"
	DialectRST      Dialect = "rst"
)

// DialectForPath picks the markup dialect from a file extension.
// Unknown extensions default to Markdown, which degrades gracefully to
// plain prose for any input.
func DialectForPath(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rst", ".rest":
		return DialectRST
	default:
		return DialectMarkdown
	}
}

// Segment parses raw text into sections using the dialect inferred from path.
func Segment(path, raw string) []Section {
	if DialectForPath(path) == DialectRST {
		return SegmentRST(raw)
	}
	return SegmentMarkdown(raw)
}
