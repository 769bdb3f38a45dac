package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func reactLibrary() Library {
	return Library{
		ID:         "/facebook/react",
		Version:    "19.0.0",
		Title:      "React",
		TrustScore: 9.5,
	}
}

func reactSnippets() []Snippet {
	return []Snippet{
		{
			Title:      "useState",
			Content:    "The useState hook returns a stateful value and a setter.",
			SourcePath: "docs/hooks-state.md",
			Breadcrumb: "React > Hooks > useState",
			TokenCount: 14,
		},
		{
			Title:      "useEffect",
			Content:    "The useEffect hook runs side effects after render.",
			SourcePath: "docs/hooks-effect.md",
			Breadcrumb: "React > Hooks > useEffect",
			TokenCount: 12,
		},
		{
			Title:      "Rendering lists",
			Content:    "Use the key prop when rendering lists of elements.",
			SourcePath: "docs/lists.md",
			Breadcrumb: "React > Rendering",
			TokenCount: 12,
		},
	}
}

func TestReplaceLibrary_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))

	lib, err := s.GetLibrary(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	require.NotNil(t, lib)
	assert.Equal(t, "React", lib.Title)
	assert.Equal(t, 3, lib.TotalSnippets)
	assert.False(t, lib.IngestedAt.IsZero())

	count, err := s.CountSnippets(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestReplaceLibrary_ReplacesPreviousGeneration(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()[:1]))

	count, err := s.CountSnippets(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The FTS index follows the replacement.
	results, err := s.SearchKeyword(ctx, "/facebook/react", "19.0.0", "useEffect", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchKeyword_RanksMatchingSnippetFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))

	results, err := s.SearchKeyword(ctx, "/facebook/react", "19.0.0", "useState hook", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	snippets, err := s.GetSnippets(ctx, []int64{results[0].SnippetID})
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "useState", snippets[0].Title)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchKeyword_ScopedToLibraryVersion(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))

	other := reactLibrary()
	other.Version = "18.0.0"
	require.NoError(t, s.ReplaceLibrary(ctx, other, []Snippet{{
		Title:   "Legacy",
		Content: "Class components and lifecycle methods.",
	}}))

	results, err := s.SearchKeyword(ctx, "/facebook/react", "18.0.0", "useState", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.SearchKeyword(ctx, "/facebook/react", "18.0.0", "lifecycle", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchKeyword_PunctuationDoesNotBreakQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))

	for _, q := range []string{`"unbalanced`, "AND OR NOT", "a-b (c)", "   "} {
		_, err := s.SearchKeyword(ctx, "/facebook/react", "19.0.0", q, 10)
		require.NoError(t, err, "query %q", q)
	}
}

func TestDeleteLibrary_SingleVersion(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))

	require.NoError(t, s.DeleteLibrary(ctx, "/facebook/react", "19.0.0"))

	lib, err := s.GetLibrary(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	assert.Nil(t, lib)

	count, err := s.CountSnippets(ctx, "/facebook/react", "")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteLibrary_AllVersions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))
	v18 := reactLibrary()
	v18.Version = "18.0.0"
	require.NoError(t, s.ReplaceLibrary(ctx, v18, reactSnippets()[:1]))

	require.NoError(t, s.DeleteLibrary(ctx, "/facebook/react", ""))

	libs, err := s.ListLibraries(ctx)
	require.NoError(t, err)
	assert.Empty(t, libs)
}

func TestUpdateEmbeddings_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), reactSnippets()))

	pending, err := s.SnippetsWithoutEmbeddings(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	require.Len(t, pending, 3)

	vec := []float32{0.1, -0.5, 2.25}
	require.NoError(t, s.UpdateEmbeddings(ctx, map[int64][]float32{
		pending[0].ID: vec,
		pending[1].ID: {1, 0, 0},
	}))

	done, err := s.SnippetsWithEmbeddings(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, vec, done[0].Embedding)

	pending, err = s.SnippetsWithoutEmbeddings(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	dims, err := s.EmbeddingDims(ctx, "/facebook/react", "19.0.0")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, dims)
}

func TestFindLibraries_MatchesIDAndTitle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, reactLibrary(), nil))
	require.NoError(t, s.ReplaceLibrary(ctx, Library{
		ID: "/vercel/next.js", Version: "latest", Title: "Next.js", TrustScore: 10,
	}, nil))

	libs, err := s.FindLibraries(ctx, "REACT")
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, "/facebook/react", libs[0].ID)

	libs, err = s.FindLibraries(ctx, "next")
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, "Next.js", libs[0].Title)
}

func TestFindLibraries_OrderedByTrustScore(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceLibrary(ctx, Library{
		ID: "/org/router", Version: "latest", TrustScore: 3,
	}, nil))
	require.NoError(t, s.ReplaceLibrary(ctx, Library{
		ID: "/remix-run/react-router", Version: "latest", TrustScore: 9,
	}, nil))

	libs, err := s.FindLibraries(ctx, "router")
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Equal(t, "/remix-run/react-router", libs[0].ID)
}

func TestGetLibrary_EmptyVersionPicksLatestIngested(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := reactLibrary()
	older.Version = "18.0.0"
	older.IngestedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.ReplaceLibrary(ctx, older, nil))

	newer := reactLibrary()
	newer.IngestedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.ReplaceLibrary(ctx, newer, nil))

	lib, err := s.GetLibrary(ctx, "/facebook/react", "")
	require.NoError(t, err)
	require.NotNil(t, lib)
	assert.Equal(t, "19.0.0", lib.Version)
}

func TestGetLibrary_NotFound(t *testing.T) {
	s := testStore(t)

	lib, err := s.GetLibrary(context.Background(), "/missing/lib", "")
	require.NoError(t, err)
	assert.Nil(t, lib)
}

func TestClose_Idempotent(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.ListLibraries(context.Background())
	assert.Error(t, err)
}

func TestEmbeddingCodec(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3e6}
	assert.Equal(t, vec, decodeEmbedding(encodeEmbedding(vec)))
	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding([]byte{1, 2, 3}))
}
