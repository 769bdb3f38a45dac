// Package chunk turns segmented documentation sections into size-bounded
// chunks that carry a breadcrumb of their heading ancestry.
package chunk

import (
	"strings"

	"github.com/docdex/docdex/internal/segment"
)

// breadcrumbEntry tracks one level of the heading trail.
type breadcrumbEntry struct {
	heading string
	depth   int
}

// Build converts sections into chunks. Sections with no prose and no code
// are dropped but still contribute their heading to the breadcrumb trail of
// later sections.
func Build(sections []segment.Section, opts Options) []Chunk {
	maxSize := opts.maxSize()
	var stack []breadcrumbEntry
	var chunks []Chunk

	for _, sec := range sections {
		if sec.Heading != "" {
			for len(stack) > 0 && stack[len(stack)-1].depth >= sec.Depth {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, breadcrumbEntry{heading: sec.Heading, depth: sec.Depth})
		}

		content := strings.TrimSpace(sec.Content)
		if content == "" && len(sec.CodeBlocks) == 0 {
			continue
		}

		title := sec.Heading
		if title == "" {
			title = opts.DocTitle
		}
		crumb := breadcrumb(stack)

		parts := splitContent(content, maxSize)
		if len(parts) == 0 {
			parts = []string{""}
		}
		for i, part := range parts {
			c := Chunk{
				Title:      title,
				Content:    part,
				Breadcrumb: crumb,
			}
			// Code stays whole and rides on the section's last chunk.
			if i == len(parts)-1 && len(sec.CodeBlocks) > 0 {
				c.CodeBlocks = sec.CodeBlocks
				c.Language = sec.CodeBlocks[0].Language
			}
			c.TokenCount = estimateTokens(c.Content)
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// breadcrumb joins the live heading trail.
func breadcrumb(stack []breadcrumbEntry) string {
	parts := make([]string, 0, len(stack))
	for _, e := range stack {
		parts = append(parts, e.heading)
	}
	return strings.Join(parts, " > ")
}

// splitContent breaks prose into pieces no longer than maxSize characters,
// packing whole paragraphs greedily. A single paragraph longer than the
// budget is cut at the limit rather than dropped.
func splitContent(content string, maxSize int) []string {
	if content == "" {
		return nil
	}
	if len(content) <= maxSize {
		return []string{content}
	}

	paragraphs := strings.Split(content, "\n\n")
	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) > maxSize {
			flush()
			parts = append(parts, strings.TrimSpace(p[:maxSize]))
			continue
		}
		need := len(p)
		if cur.Len() > 0 {
			need += 2
		}
		if cur.Len()+need > maxSize {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	flush()
	return parts
}

// estimateTokens approximates token count at four characters per token.
func estimateTokens(content string) int {
	return (len(content) + 3) / 4
}
