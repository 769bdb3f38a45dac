package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteStore implements Store on SQLite with an FTS5 shadow table.
// WAL mode allows a reader (the MCP server) and a writer (ingestion) to
// share the database file across processes.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ Store = (*SQLiteStore)(nil)

// validateIntegrity checks an existing database before opening it.
// Returns nil if the file is usable, an error describing corruption if not.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Database doesn't exist, will be created
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// Open opens (or creates) the index database at path.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if validErr := validateIntegrity(path); validErr != nil {
		slog.Warn("index_database_corrupted",
			slog.String("path", path),
			slog.String("error", validErr.Error()))

		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
		}
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")

		slog.Info("index_database_cleared",
			slog.String("path", path),
			slog.String("reason", "corruption detected, please reingest"))
	}

	// _busy_timeout handles lock contention between the server and ingestion
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	return open(dsn, path)
}

// OpenMemory opens an in-memory store for testing.
func OpenMemory() (*SQLiteStore, error) {
	return open(":memory:", "")
}

func open(dsn, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite; DSN params
	// alone are not honored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS libraries (
		id              TEXT NOT NULL,
		version         TEXT NOT NULL,
		title           TEXT NOT NULL DEFAULT '',
		description     TEXT NOT NULL DEFAULT '',
		source_repo     TEXT NOT NULL DEFAULT '',
		total_snippets  INTEGER NOT NULL DEFAULT 0,
		trust_score     REAL NOT NULL DEFAULT 0,
		benchmark_score REAL NOT NULL DEFAULT 0,
		ingested_at     TEXT NOT NULL,
		PRIMARY KEY (id, version)
	);

	CREATE TABLE IF NOT EXISTS snippets (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		library_id      TEXT NOT NULL,
		library_version TEXT NOT NULL,
		title           TEXT NOT NULL DEFAULT '',
		content         TEXT NOT NULL DEFAULT '',
		source_path     TEXT NOT NULL DEFAULT '',
		source_url      TEXT NOT NULL DEFAULT '',
		language        TEXT NOT NULL DEFAULT '',
		breadcrumb      TEXT NOT NULL DEFAULT '',
		token_count     INTEGER NOT NULL DEFAULT 0,
		embedding       BLOB,
		FOREIGN KEY (library_id, library_version)
			REFERENCES libraries(id, version) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_snippets_library
		ON snippets(library_id, library_version);

	-- snippet_id is UNINDEXED (stored but not searchable)
	CREATE VIRTUAL TABLE IF NOT EXISTS snippets_fts USING fts5(
		snippet_id UNINDEXED,
		title,
		content,
		source_path,
		tokenize='unicode61'
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceLibrary swaps a library's snippet set in one transaction. Searches
// on other connections keep seeing the previous generation until commit.
func (s *SQLiteStore) ReplaceLibrary(ctx context.Context, lib Library, snippets []Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteLibraryTx(ctx, tx, lib.ID, lib.Version); err != nil {
		return err
	}

	ingestedAt := lib.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO libraries
			(id, version, title, description, source_repo, total_snippets,
			 trust_score, benchmark_score, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lib.ID, lib.Version, lib.Title, lib.Description, lib.SourceRepo,
		len(snippets), lib.TrustScore, lib.BenchmarkScore,
		ingestedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert library %s@%s: %w", lib.ID, lib.Version, err)
	}

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snippets
			(library_id, library_version, title, content, source_path,
			 source_url, language, breadcrumb, token_count, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snippet statement: %w", err)
	}
	defer insertStmt.Close()

	// NOTE: FTS5 virtual tables don't support REPLACE; rows for the old
	// generation were already removed above.
	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snippets_fts (snippet_id, title, content, source_path)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare FTS statement: %w", err)
	}
	defer ftsStmt.Close()

	for _, sn := range snippets {
		res, err := insertStmt.ExecContext(ctx,
			lib.ID, lib.Version, sn.Title, sn.Content, sn.SourcePath,
			sn.SourceURL, sn.Language, sn.Breadcrumb, sn.TokenCount,
			encodeEmbedding(sn.Embedding))
		if err != nil {
			return fmt.Errorf("failed to insert snippet %q: %w", sn.Title, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read snippet id: %w", err)
		}
		if _, err := ftsStmt.ExecContext(ctx, id, sn.Title, sn.Content, sn.SourcePath); err != nil {
			return fmt.Errorf("failed to index snippet %q: %w", sn.Title, err)
		}
	}

	return tx.Commit()
}

// DeleteLibrary removes a library and all of its snippets. An empty version
// removes every version of the id.
func (s *SQLiteStore) DeleteLibrary(ctx context.Context, id, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if version == "" {
		rows, err := tx.QueryContext(ctx,
			`SELECT DISTINCT version FROM libraries WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to list versions of %s: %w", id, err)
		}
		var versions []string
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan version: %w", err)
			}
			versions = append(versions, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, v := range versions {
			if err := deleteLibraryTx(ctx, tx, id, v); err != nil {
				return err
			}
		}
		return tx.Commit()
	}

	if err := deleteLibraryTx(ctx, tx, id, version); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteLibraryTx removes one library generation inside an open transaction.
// FTS rows are removed explicitly since the cascade does not reach the
// virtual table.
func deleteLibraryTx(ctx context.Context, tx *sql.Tx, id, version string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM snippets_fts WHERE snippet_id IN (
			SELECT id FROM snippets WHERE library_id = ? AND library_version = ?
		)`, id, version)
	if err != nil {
		return fmt.Errorf("failed to delete FTS rows for %s@%s: %w", id, version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippets WHERE library_id = ? AND library_version = ?`,
		id, version); err != nil {
		return fmt.Errorf("failed to delete snippets for %s@%s: %w", id, version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM libraries WHERE id = ? AND version = ?`,
		id, version); err != nil {
		return fmt.Errorf("failed to delete library %s@%s: %w", id, version, err)
	}
	return nil
}

// SearchKeyword runs an FTS5 match scoped to one library version.
func (s *SQLiteStore) SearchKeyword(ctx context.Context, id, version, query string, limit int) ([]KeywordResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	match := buildMatchQuery(query)
	if match == "" {
		return []KeywordResult{}, nil
	}

	// FTS5 bm25() returns negative values where lower = better match
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.snippet_id, bm25(snippets_fts) AS score
		FROM snippets_fts f
		JOIN snippets sn ON sn.id = f.snippet_id
		WHERE snippets_fts MATCH ?
		  AND sn.library_id = ? AND sn.library_version = ?
		ORDER BY score
		LIMIT ?`, match, id, version, limit)
	if err != nil {
		// FTS5 returns an error for unparseable match queries, treat as no results
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") {
			return []KeywordResult{}, nil
		}
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()

	var results []KeywordResult
	for rows.Next() {
		var r KeywordResult
		if err := rows.Scan(&r.SnippetID, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		// Negate so higher = better match
		r.Score = -r.Score
		results = append(results, r)
	}
	return results, rows.Err()
}

// buildMatchQuery quotes each term so punctuation in user queries cannot be
// mistaken for FTS5 operators.
func buildMatchQuery(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}

const snippetColumns = `id, library_id, library_version, title, content,
	source_path, source_url, language, breadcrumb, token_count, embedding`

func scanSnippet(rows *sql.Rows) (Snippet, error) {
	var sn Snippet
	var blob []byte
	err := rows.Scan(&sn.ID, &sn.LibraryID, &sn.LibraryVersion, &sn.Title,
		&sn.Content, &sn.SourcePath, &sn.SourceURL, &sn.Language,
		&sn.Breadcrumb, &sn.TokenCount, &blob)
	if err != nil {
		return Snippet{}, fmt.Errorf("failed to scan snippet: %w", err)
	}
	sn.Embedding = decodeEmbedding(blob)
	return sn, nil
}

// GetSnippets fetches snippets by id. Missing ids are skipped.
func (s *SQLiteStore) GetSnippets(ctx context.Context, ids []int64) ([]Snippet, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM snippets WHERE id IN (%s)`,
		snippetColumns, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snippets: %w", err)
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

func (s *SQLiteStore) snippetsWhere(ctx context.Context, cond, id, version string) ([]Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	where := "library_id = ?"
	args := []any{id}
	if version != "" {
		where += " AND library_version = ?"
		args = append(args, version)
	}
	if cond != "" {
		where += " AND " + cond
	}
	query := fmt.Sprintf(`SELECT %s FROM snippets WHERE %s ORDER BY id`,
		snippetColumns, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snippets: %w", err)
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

// SnippetsWithEmbeddings returns a library's vectorized snippets.
func (s *SQLiteStore) SnippetsWithEmbeddings(ctx context.Context, id, version string) ([]Snippet, error) {
	return s.snippetsWhere(ctx, "embedding IS NOT NULL", id, version)
}

// SnippetsWithoutEmbeddings returns a library's snippets pending vectorization.
func (s *SQLiteStore) SnippetsWithoutEmbeddings(ctx context.Context, id, version string) ([]Snippet, error) {
	return s.snippetsWhere(ctx, "embedding IS NULL", id, version)
}

// UpdateEmbeddings writes embedding vectors for the given snippet ids.
func (s *SQLiteStore) UpdateEmbeddings(ctx context.Context, embeddings map[int64][]float32) error {
	if len(embeddings) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE snippets SET embedding = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	for id, vec := range embeddings {
		if _, err := stmt.ExecContext(ctx, encodeEmbedding(vec), id); err != nil {
			return fmt.Errorf("failed to update embedding for snippet %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// EmbeddingDims reports the distinct embedding dimensions present in a library.
func (s *SQLiteStore) EmbeddingDims(ctx context.Context, id, version string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	where := "library_id = ? AND embedding IS NOT NULL"
	args := []any{id}
	if version != "" {
		where += " AND library_version = ?"
		args = append(args, version)
	}
	query := fmt.Sprintf(
		`SELECT DISTINCT length(embedding) / 4 FROM snippets WHERE %s ORDER BY 1`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding dims: %w", err)
	}
	defer rows.Close()

	var dims []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan dims: %w", err)
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

const libraryColumns = `id, version, title, description, source_repo,
	total_snippets, trust_score, benchmark_score, ingested_at`

func scanLibrary(scan func(dest ...any) error) (Library, error) {
	var lib Library
	var ingestedAt string
	err := scan(&lib.ID, &lib.Version, &lib.Title, &lib.Description,
		&lib.SourceRepo, &lib.TotalSnippets, &lib.TrustScore,
		&lib.BenchmarkScore, &ingestedAt)
	if err != nil {
		return Library{}, err
	}
	if t, perr := time.Parse(time.RFC3339Nano, ingestedAt); perr == nil {
		lib.IngestedAt = t
	}
	return lib, nil
}

func (s *SQLiteStore) queryLibraries(ctx context.Context, query string, args ...any) ([]Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query libraries: %w", err)
	}
	defer rows.Close()

	var libs []Library
	for rows.Next() {
		lib, err := scanLibrary(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}
		libs = append(libs, lib)
	}
	return libs, rows.Err()
}

// FindLibraries matches libraries whose id or title contains the query,
// case-insensitively, best trust score first.
func (s *SQLiteStore) FindLibraries(ctx context.Context, query string) ([]Library, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	return s.queryLibraries(ctx, fmt.Sprintf(`
		SELECT %s FROM libraries
		WHERE lower(id) LIKE ? OR lower(title) LIKE ?
		ORDER BY trust_score DESC, total_snippets DESC, id, version`,
		libraryColumns), pattern, pattern)
}

// ListLibraries returns every indexed library version.
func (s *SQLiteStore) ListLibraries(ctx context.Context) ([]Library, error) {
	return s.queryLibraries(ctx, fmt.Sprintf(
		`SELECT %s FROM libraries ORDER BY id, version`, libraryColumns))
}

// GetLibrary fetches one library. An empty version selects the most
// recently ingested one.
func (s *SQLiteStore) GetLibrary(ctx context.Context, id, version string) (*Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	query := fmt.Sprintf(`SELECT %s FROM libraries WHERE id = ?`, libraryColumns)
	args := []any{id}
	if version != "" {
		query += ` AND version = ?`
		args = append(args, version)
	}
	query += ` ORDER BY ingested_at DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	lib, err := scanLibrary(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch library %s: %w", id, err)
	}
	return &lib, nil
}

// CountSnippets counts snippets scoped to a library version.
func (s *SQLiteStore) CountSnippets(ctx context.Context, id, version string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	where := "library_id = ?"
	args := []any{id}
	if version != "" {
		where += " AND library_version = ?"
		args = append(args, version)
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM snippets WHERE %s`, where),
		args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snippets: %w", err)
	}
	return count, nil
}

// Close releases the database handle. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
