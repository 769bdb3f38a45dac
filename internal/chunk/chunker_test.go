package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/segment"
)

func TestBuild_BreadcrumbTracksHeadingTrail(t *testing.T) {
	sections := []segment.Section{
		{Heading: "Guide", Depth: 1, Content: "Top level."},
		{Heading: "Routing", Depth: 2, Content: "About routes."},
		{Heading: "Dynamic Routes", Depth: 3, Content: "Params."},
		{Heading: "Middleware", Depth: 2, Content: "About middleware."},
	}

	chunks := Build(sections, Options{DocTitle: "next.js"})

	require.Len(t, chunks, 4)
	assert.Equal(t, "Guide", chunks[0].Breadcrumb)
	assert.Equal(t, "Guide > Routing", chunks[1].Breadcrumb)
	assert.Equal(t, "Guide > Routing > Dynamic Routes", chunks[2].Breadcrumb)
	assert.Equal(t, "Guide > Middleware", chunks[3].Breadcrumb)
}

func TestBuild_DeepBreadcrumbJoinsAllHeadings(t *testing.T) {
	sections := []segment.Section{
		{Heading: "Guide", Depth: 1, Content: "a"},
		{Heading: "Routing", Depth: 2, Content: "b"},
		{Heading: "Dynamic Routes", Depth: 3, Content: "c"},
		{Heading: "Catch-all", Depth: 4, Content: "d"},
	}

	chunks := Build(sections, Options{DocTitle: "next.js"})

	require.Len(t, chunks, 4)
	assert.Equal(t, "Guide > Routing > Dynamic Routes > Catch-all", chunks[3].Breadcrumb)
}

func TestBuild_EmptySectionDroppedButFeedsBreadcrumb(t *testing.T) {
	sections := []segment.Section{
		{Heading: "API", Depth: 1},
		{Heading: "Client", Depth: 2, Content: "Construct a client."},
	}

	chunks := Build(sections, Options{DocTitle: "sdk"})

	require.Len(t, chunks, 1)
	assert.Equal(t, "Client", chunks[0].Title)
	assert.Equal(t, "API > Client", chunks[0].Breadcrumb)
}

func TestBuild_PreambleUsesDocTitle(t *testing.T) {
	sections := []segment.Section{
		{Depth: 0, Content: "Intro before any heading."},
	}

	chunks := Build(sections, Options{DocTitle: "README"})

	require.Len(t, chunks, 1)
	assert.Equal(t, "README", chunks[0].Title)
	assert.Empty(t, chunks[0].Breadcrumb)
}

func TestBuild_SplitsOversizedContent(t *testing.T) {
	para := strings.Repeat("word ", 30) // ~150 chars
	content := strings.Join([]string{para, para, para}, "\n\n")
	sections := []segment.Section{
		{Heading: "Long", Depth: 1, Content: content},
	}

	chunks := Build(sections, Options{MaxChunkSize: 200, DocTitle: "doc"})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 200)
		assert.Equal(t, "Long", c.Title)
		assert.Equal(t, "Long", c.Breadcrumb)
	}
}

func TestBuild_SingleOversizedParagraphCutAtLimit(t *testing.T) {
	content := strings.Repeat("x", 500)
	sections := []segment.Section{
		{Heading: "Big", Depth: 1, Content: content},
	}

	chunks := Build(sections, Options{MaxChunkSize: 200})

	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Content, 200)
}

func TestBuild_CodeRidesOnLastChunkWhole(t *testing.T) {
	para := strings.Repeat("prose ", 40) // ~240 chars
	code := segment.CodeBlock{Language: "go", Value: strings.Repeat("code()\n", 50)}
	sections := []segment.Section{
		{
			Heading:    "Usage",
			Depth:      1,
			Content:    para + "\n\n" + para,
			CodeBlocks: []segment.CodeBlock{code},
		},
	}

	chunks := Build(sections, Options{MaxChunkSize: 250})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks[:len(chunks)-1] {
		assert.Empty(t, c.CodeBlocks)
		assert.Empty(t, c.Language)
	}
	last := chunks[len(chunks)-1]
	require.Len(t, last.CodeBlocks, 1)
	assert.Equal(t, code.Value, last.CodeBlocks[0].Value)
	assert.Equal(t, "go", last.Language)
}

func TestBuild_CodeOnlySectionKept(t *testing.T) {
	sections := []segment.Section{
		{Heading: "Snippet", Depth: 1, CodeBlocks: []segment.CodeBlock{{Language: "sh", Value: "make build"}}},
	}

	chunks := Build(sections, Options{})

	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Content)
	assert.Equal(t, "sh", chunks[0].Language)
}

func TestBuild_TokenCountFromProseLength(t *testing.T) {
	sections := []segment.Section{
		{
			Heading:    "T",
			Depth:      1,
			Content:    strings.Repeat("a", 42),
			CodeBlocks: []segment.CodeBlock{{Value: strings.Repeat("b", 40)}},
		},
	}

	chunks := Build(sections, Options{})

	require.Len(t, chunks, 1)
	// ceil(42 / 4), code blocks do not count.
	assert.Equal(t, 11, chunks[0].TokenCount)
}

func TestBuild_NoSections(t *testing.T) {
	assert.Empty(t, Build(nil, Options{}))
}
