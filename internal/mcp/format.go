package mcp

import (
	"fmt"
	"strings"

	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/store"
)

// snippetSeparator divides snippets in a get-library-docs response.
const snippetSeparator = "----------------------------------------"

// formatLibraries renders resolve-library-id matches as readable text.
func formatLibraries(query string, libs []store.Library) string {
	if len(libs) == 0 {
		return fmt.Sprintf("No libraries found matching %q. Ingest documentation first with 'docdex ingest'.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d librar%s matching %q:\n\n",
		len(libs), pluralY(len(libs)), query)
	for _, lib := range libs {
		fmt.Fprintf(&b, "- ID: %s\n", lib.ID)
		fmt.Fprintf(&b, "  Version: %s\n", lib.Version)
		if lib.Title != "" {
			fmt.Fprintf(&b, "  Title: %s\n", lib.Title)
		}
		if lib.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", lib.Description)
		}
		fmt.Fprintf(&b, "  Snippets: %d\n", lib.TotalSnippets)
		if lib.TrustScore > 0 {
			fmt.Fprintf(&b, "  Trust Score: %.1f\n", lib.TrustScore)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// formatSnippets renders search results as separated text blocks, stopping
// when the accumulated token estimate would exceed tokenBudget. At least
// one snippet is always included. Returns the text and the snippet count.
func formatSnippets(results []search.Result, tokenBudget int) (string, int) {
	if len(results) == 0 {
		return "No documentation snippets matched the query.", 0
	}

	var blocks []string
	used := 0
	for i, r := range results {
		cost := r.Snippet.TokenCount
		if i > 0 && tokenBudget > 0 && used+cost > tokenBudget {
			break
		}
		used += cost
		blocks = append(blocks, formatSnippet(r.Snippet))
	}
	return strings.Join(blocks, "\n\n"+snippetSeparator+"\n\n"), len(blocks)
}

func formatSnippet(sn store.Snippet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", sn.Title)
	if sn.Breadcrumb != "" {
		fmt.Fprintf(&b, "BREADCRUMB: %s\n", sn.Breadcrumb)
	}
	source := sn.SourceURL
	if source == "" {
		source = sn.SourcePath
	}
	if source != "" {
		fmt.Fprintf(&b, "SOURCE: %s\n", source)
	}
	if sn.Language != "" {
		fmt.Fprintf(&b, "LANGUAGE: %s\n", sn.Language)
	}
	b.WriteString("\n")
	b.WriteString(sn.Content)
	return b.String()
}
