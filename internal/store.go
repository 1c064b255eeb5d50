package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// EmbeddingStore is a deduplicated collection of vector records keyed
// by content. Records are created during ingestion or loaded from a
// snapshot and never mutated afterwards.
//
// The dedup key is the verbatim content string; lower-casing happens
// only on the text sent to the embedder, so the snapshot replays
// chunks exactly as they were read from the corpus.
type EmbeddingStore struct {
	mu        sync.RWMutex
	records   map[string]VectorRecord
	dimension int
	embedder  Embedder
}

func NewEmbeddingStore(embedder Embedder) *EmbeddingStore {
	return &EmbeddingStore{
		records:  make(map[string]VectorRecord),
		embedder: embedder,
	}
}

// AddDocument inserts a record for content unless one already exists,
// in which case it is a no-op and the first-recorded source wins. The
// embedding is requested for the lower-cased content, matching the
// normalization applied to queries.
func (s *EmbeddingStore) AddDocument(ctx context.Context, content, source string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}

	s.mu.RLock()
	_, exists := s.records[content]
	s.mu.RUnlock()
	if exists {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, strings.ToLower(content))
	if err != nil {
		return fmt.Errorf("%w: embed document: %v", ErrInference, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent ingester may have won the race; first insert wins.
	if _, exists := s.records[content]; exists {
		return nil
	}

	if s.dimension == 0 {
		s.dimension = len(vec)
	} else if len(vec) != s.dimension {
		return fmt.Errorf("%w: got %d, store has %d", ErrDimension, len(vec), s.dimension)
	}

	s.records[content] = VectorRecord{
		Content:   content,
		Source:    source,
		Embedding: vec,
	}

	return nil
}

// Query embeds the question and returns the ranked candidates that
// clear the adaptive mean threshold. An empty store yields an empty
// result without contacting the embedder at all.
func (s *EmbeddingStore) Query(ctx context.Context, question string) ([]RankedCandidate, error) {
	if s.Len() == 0 {
		return nil, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(question))
	vec, err := s.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrInference, err)
	}

	return FilterByMean(Rank(vec, s.Records())), nil
}

// Records returns a point-in-time copy of all records, ordered by
// content for determinism.
func (s *EmbeddingStore) Records() []VectorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]VectorRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Content < out[j].Content })

	return out
}

func (s *EmbeddingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *EmbeddingStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// replace swaps in a loaded snapshot wholesale.
func (s *EmbeddingStore) replace(records map[string]VectorRecord) error {
	dimension := 0
	for content, rec := range records {
		if dimension == 0 {
			dimension = len(rec.Embedding)
		} else if len(rec.Embedding) != dimension {
			return fmt.Errorf("%w: record %q has %d, expected %d",
				ErrDimension, truncate(content, 40), len(rec.Embedding), dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.dimension = dimension

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
