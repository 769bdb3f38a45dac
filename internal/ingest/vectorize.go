package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/store"
)

// VectorizeFilter scopes a vectorization run. An empty LibraryID selects
// every indexed library.
type VectorizeFilter struct {
	LibraryID string
	Version   string

	// Force re-embeds every snippet, replacing existing vectors. Required
	// when the stored embeddings came from a different model dimension.
	Force bool
}

// Vectorize embeds snippets that have no vector yet, or every snippet when
// forced. Returns the number of snippets updated.
func (s *Service) Vectorize(ctx context.Context, filter VectorizeFilter) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("no embedder configured")
	}

	unlock, err := s.lockWriter(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if filter.LibraryID == "" {
		libs, err := s.store.ListLibraries(ctx)
		if err != nil {
			return 0, err
		}
		total := 0
		for _, lib := range libs {
			if filter.Version != "" && lib.Version != filter.Version {
				continue
			}
			n, err := s.vectorizeLibrary(ctx, lib.ID, lib.Version, filter.Force)
			total += n
			if err != nil {
				return total, err
			}
		}
		return total, nil
	}

	id, idVersion, err := ParseLibraryID(filter.LibraryID)
	if err != nil {
		return 0, err
	}
	if idVersion != "" {
		filter.Version = idVersion
	}
	return s.vectorizeLibrary(ctx, id, filter.Version, filter.Force)
}

// vectorizeLibrary embeds one library scope. The caller holds the writer
// lock.
func (s *Service) vectorizeLibrary(ctx context.Context, id, version string, force bool) (int, error) {
	if err := s.checkDimensions(ctx, id, version, force); err != nil {
		return 0, err
	}

	var targets []store.Snippet
	if force {
		embedded, err := s.store.SnippetsWithEmbeddings(ctx, id, version)
		if err != nil {
			return 0, err
		}
		pending, err := s.store.SnippetsWithoutEmbeddings(ctx, id, version)
		if err != nil {
			return 0, err
		}
		targets = append(embedded, pending...)
	} else {
		pending, err := s.store.SnippetsWithoutEmbeddings(ctx, id, version)
		if err != nil {
			return 0, err
		}
		targets = pending
	}
	if len(targets) == 0 {
		return 0, nil
	}

	start := time.Now()
	updated := 0
	for batchStart := 0; batchStart < len(targets); batchStart += embed.DefaultBatchSize {
		batchEnd := batchStart + embed.DefaultBatchSize
		if batchEnd > len(targets) {
			batchEnd = len(targets)
		}
		batch := targets[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, sn := range batch {
			texts[i] = sn.Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return updated, fmt.Errorf("failed to embed batch: %w", err)
		}

		updates := make(map[int64][]float32, len(batch))
		for i, vec := range vectors {
			if vec == nil {
				continue
			}
			updates[batch[i].ID] = vec
		}
		if err := s.store.UpdateEmbeddings(ctx, updates); err != nil {
			return updated, fmt.Errorf("failed to store embeddings: %w", err)
		}
		updated += len(updates)
	}

	slog.Info("library_vectorized",
		slog.String("library", id),
		slog.String("version", version),
		slog.Int("updated", updated),
		slog.String("model", s.embedder.ModelName()),
		slog.Duration("elapsed", time.Since(start)))

	return updated, nil
}

// checkDimensions rejects runs that would mix embedding dimensions in one
// library. Force re-embeds everything, so any existing state is acceptable.
func (s *Service) checkDimensions(ctx context.Context, id, version string, force bool) error {
	if force {
		return nil
	}
	dims, err := s.store.EmbeddingDims(ctx, id, version)
	if err != nil {
		return err
	}
	if len(dims) == 0 {
		return nil
	}
	want := s.embedder.Dimensions()
	if len(dims) > 1 {
		return fmt.Errorf("library %s has mixed embedding dimensions %v, re-run with force to re-embed", id, dims)
	}
	if dims[0] != want {
		return fmt.Errorf("library %s is embedded at %d dimensions but the current model produces %d, re-run with force to re-embed", id, dims[0], want)
	}
	return nil
}
