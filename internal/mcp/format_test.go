package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/store"
)

func TestFormatLibraries_NoMatches(t *testing.T) {
	got := formatLibraries("leftpad", nil)

	assert.Contains(t, got, `No libraries found matching "leftpad"`)
	assert.Contains(t, got, "docdex ingest")
}

func TestFormatLibraries_SingleMatch(t *testing.T) {
	got := formatLibraries("react", []store.Library{{
		ID:            "/facebook/react",
		Version:       "19.0.0",
		Title:         "React",
		Description:   "UI library",
		TotalSnippets: 42,
		TrustScore:    9.5,
	}})

	assert.Contains(t, got, `Found 1 library matching "react"`)
	assert.Contains(t, got, "- ID: /facebook/react\n")
	assert.Contains(t, got, "  Version: 19.0.0\n")
	assert.Contains(t, got, "  Title: React\n")
	assert.Contains(t, got, "  Description: UI library\n")
	assert.Contains(t, got, "  Snippets: 42\n")
	assert.Contains(t, got, "Trust Score: 9.5")
}

func TestFormatLibraries_OmitsEmptyFields(t *testing.T) {
	got := formatLibraries("gin", []store.Library{
		{ID: "/gin-gonic/gin", Version: "latest", TotalSnippets: 3},
		{ID: "/gin-contrib/cors", Version: "latest", TotalSnippets: 1},
	})

	assert.Contains(t, got, "Found 2 libraries")
	assert.NotContains(t, got, "Title:")
	assert.NotContains(t, got, "Description:")
	assert.NotContains(t, got, "Trust Score:")
}

func TestFormatSnippets_Empty(t *testing.T) {
	text, count := formatSnippets(nil, 1000)

	assert.Equal(t, "No documentation snippets matched the query.", text)
	assert.Zero(t, count)
}

func TestFormatSnippets_RendersHeaderAndSeparator(t *testing.T) {
	results := []search.Result{
		{Snippet: store.Snippet{
			Title:      "Routing",
			Breadcrumb: "guide > Routing",
			SourceURL:  "https://acme.dev/routing",
			Language:   "go",
			Content:    "Declare routes.",
			TokenCount: 10,
		}},
		{Snippet: store.Snippet{
			Title:      "Middleware",
			SourcePath: "docs/middleware.md",
			Content:    "Chain handlers.",
			TokenCount: 10,
		}},
	}

	text, count := formatSnippets(results, 1000)
	assert.Equal(t, 2, count)

	assert.Contains(t, text, "TITLE: Routing\n")
	assert.Contains(t, text, "BREADCRUMB: guide > Routing\n")
	assert.Contains(t, text, "SOURCE: https://acme.dev/routing\n")
	assert.Contains(t, text, "LANGUAGE: go\n")
	assert.Contains(t, text, "Declare routes.")

	// Without a URL the source falls back to the path.
	assert.Contains(t, text, "SOURCE: docs/middleware.md\n")

	assert.Equal(t, 1, strings.Count(text, snippetSeparator))
}

func TestFormatSnippets_StopsAtTokenBudget(t *testing.T) {
	results := []search.Result{
		{Snippet: store.Snippet{Title: "A", Content: "a", TokenCount: 60}},
		{Snippet: store.Snippet{Title: "B", Content: "b", TokenCount: 60}},
		{Snippet: store.Snippet{Title: "C", Content: "c", TokenCount: 60}},
	}

	text, count := formatSnippets(results, 120)
	assert.Equal(t, 2, count)
	assert.Contains(t, text, "TITLE: A")
	assert.Contains(t, text, "TITLE: B")
	assert.NotContains(t, text, "TITLE: C")
}

func TestFormatSnippets_AlwaysIncludesFirstSnippet(t *testing.T) {
	results := []search.Result{
		{Snippet: store.Snippet{Title: "Huge", Content: "x", TokenCount: 50000}},
		{Snippet: store.Snippet{Title: "Next", Content: "y", TokenCount: 10}},
	}

	text, count := formatSnippets(results, 100)
	assert.Equal(t, 1, count)
	assert.Contains(t, text, "TITLE: Huge")
	assert.NotContains(t, text, "TITLE: Next")
}
