package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv keeps commands away from the real home directory and any
// ambient DOCDEX_* configuration.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"DOCDEX_DB_PATH",
		"DOCDEX_EMBEDDINGS_PROVIDER",
		"DOCDEX_RERANK_PROVIDER",
		"DOCDEX_SEARCH_MODE",
		"DOCDEX_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given/When: executing with --help
	output, err := runCommand(t, "--help")

	// Then: usage lists every subcommand
	require.NoError(t, err)
	for _, sub := range []string{"ingest", "list", "remove", "vectorize", "search", "serve", "version"} {
		assert.Contains(t, output, sub, "Help should list the %s command", sub)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := runCommand(t, "frobnicate")
	assert.Error(t, err, "Unknown commands should fail")
}

func TestRootCmd_VersionFlag(t *testing.T) {
	output, err := runCommand(t, "--version")

	require.NoError(t, err)
	assert.Contains(t, output, "docdex version")
}

func TestCLI_IngestListSearchRemove(t *testing.T) {
	isolateEnv(t)

	docs := t.TempDir()
	content := "# Guide\n\n## Routing\n\nDeclare routes with the router.\n\n```go\nr.GET(\"/ping\", handler)\n```\n"
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide.md"), []byte(content), 0o644))
	// Non-documentation files are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(docs, "main.go"), []byte("package main"), 0o644))

	dbPath := filepath.Join(t.TempDir(), "docdex.db")

	// Ingest the directory.
	output, err := runCommand(t, "ingest", "/acme/sdk", docs, "--db", dbPath, "--title", "Acme SDK")
	require.NoError(t, err)
	assert.Contains(t, output, "Ingested 1 snippets from 1 files")

	// The library shows up in the listing.
	output, err = runCommand(t, "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "/acme/sdk")
	assert.Contains(t, output, "latest")

	// Keyword search finds the routing snippet.
	output, err = runCommand(t, "search", "/acme/sdk", "declare routes", "--db", dbPath, "--mode", "keyword")
	require.NoError(t, err)
	assert.Contains(t, output, "Routing")
	assert.Contains(t, output, "score:")

	// Remove empties the index.
	output, err = runCommand(t, "remove", "/acme/sdk", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Removed /acme/sdk")

	output, err = runCommand(t, "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "No libraries indexed")
}

func TestCLI_IngestRequiresDocumentationFiles(t *testing.T) {
	isolateEnv(t)

	empty := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "docdex.db")

	_, err := runCommand(t, "ingest", "/acme/sdk", empty, "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documentation files")
}

func TestCLI_SearchInvalidLibraryID(t *testing.T) {
	isolateEnv(t)

	dbPath := filepath.Join(t.TempDir(), "docdex.db")
	_, err := runCommand(t, "search", "acme", "routing", "--db", dbPath)
	assert.Error(t, err, "IDs without a leading slash should be rejected")
}
