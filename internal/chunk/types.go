package chunk

import "github.com/docdex/docdex/internal/segment"

// DefaultMaxChunkSize is the character budget for a single chunk's content.
const DefaultMaxChunkSize = 1500

// Chunk is an indexable unit of documentation produced from one section.
type Chunk struct {
	// Title is the heading of the section the chunk came from, or the
	// document title when the section had no heading.
	Title string

	// Content is the prose body, bounded by the configured max size.
	Content string

	// Breadcrumb is the heading trail from the document root to this
	// section, joined with " > ".
	Breadcrumb string

	// Language is the language of the first code block, when any.
	Language string

	// CodeBlocks carries the section's code verbatim. Code blocks are
	// never split across chunks.
	CodeBlocks []segment.CodeBlock

	// TokenCount is an estimate derived from the combined character
	// length of content and code.
	TokenCount int
}

// Options configures chunking.
type Options struct {
	// MaxChunkSize bounds Content length in characters. Zero means
	// DefaultMaxChunkSize.
	MaxChunkSize int

	// DocTitle is the title fallback for preamble content without a
	// heading.
	DocTitle string
}

func (o Options) maxSize() int {
	if o.MaxChunkSize <= 0 {
		return DefaultMaxChunkSize
	}
	return o.MaxChunkSize
}
