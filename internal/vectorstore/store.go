package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/logger"
)

const (
	indexFile  = "index.gob"
	chunksFile = "chunks.json"
)

// Store pairs the vector index with an ordered chunk list and keeps them
// consistent: after any mutation completes, chunk i corresponds to index
// position i and both have the same length. Mutations are serialized by a
// single writer lock; reads share the lock.
type Store struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	index    *flatIndex
	chunks   []domain.Chunk

	indexPath  string
	chunksPath string
	logger     *slog.Logger
}

// NewStore opens the store rooted at dir, loading a previously persisted
// (index, chunk store) pair if one exists. Missing, unreadable or
// inconsistent state is discarded and the store starts empty; ingestion
// must tolerate fresh environments.
func NewStore(dir string, embedder domain.Embedder) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{
		embedder:   embedder,
		indexPath:  filepath.Join(dir, indexFile),
		chunksPath: filepath.Join(dir, chunksFile),
		logger:     logger.ForComponent("vectorstore"),
	}
	s.load()
	return s, nil
}

// Add embeds the chunk contents as one batch and appends vectors and chunks
// together. Empty input is a no-op returning 0. On any failure nothing is
// committed.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, domain.NewStageError(domain.StageEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.NewStageError(domain.StageEmbedding,
			fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.index
	if index == nil {
		index = newFlatIndex(len(vectors[0]))
	}
	// Build the new state on copies so a failed persist commits nothing.
	next := &flatIndex{Dimension: index.Dimension}
	next.Vectors = append(next.Vectors, index.Vectors...)
	if err := next.add(vectors); err != nil {
		return 0, domain.NewStageError(domain.StageIndexing, err)
	}
	nextChunks := append(append([]domain.Chunk{}, s.chunks...), chunks...)

	if err := s.persist(next, nextChunks); err != nil {
		return 0, domain.NewStageError(domain.StageIndexing, err)
	}
	s.index = next
	s.chunks = nextChunks
	return len(chunks), nil
}

// Search embeds the query and returns up to min(k, total) chunks ranked
// closest first. An empty store returns an empty list without calling the
// embedder. Filters are exact-match requirements over chunk metadata;
// a result is rejected on the first mismatching key.
func (s *Store) Search(ctx context.Context, query string, k int, filters map[string]any) ([]domain.SearchResult, error) {
	if s.Count() == 0 {
		return nil, nil
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// The store may have been emptied while the query was being embedded
	// outside the lock; re-check under it.
	if s.index == nil || len(s.chunks) == 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, k)
	for _, h := range s.index.search(vector, k) {
		chunk := s.chunks[h.position]
		if !matchesFilters(chunk, filters) {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: h.score})
	}
	return results, nil
}

// DeleteDocument removes all chunks of one document and rebuilds the index
// from the remaining chunks, re-embedding their content. The flat index has
// no point deletion; a full rebuild trades embedding cost for simplicity,
// acceptable because deletion is rare relative to query volume. Deleting an
// unknown document is a no-op returning 0.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := make([]domain.Chunk, 0, len(s.chunks))
	for _, ch := range s.chunks {
		if ch.DocumentID != documentID {
			remaining = append(remaining, ch)
		}
	}
	removed := len(s.chunks) - len(remaining)
	if removed == 0 {
		return 0, nil
	}

	if len(remaining) == 0 {
		if err := s.persist(nil, nil); err != nil {
			return 0, err
		}
		s.index = nil
		s.chunks = nil
		return removed, nil
	}

	texts := make([]string, len(remaining))
	for i, ch := range remaining {
		texts[i] = ch.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	next := newFlatIndex(len(vectors[0]))
	if err := next.add(vectors); err != nil {
		return 0, err
	}
	if err := s.persist(next, remaining); err != nil {
		return 0, err
	}
	s.index = next
	s.chunks = remaining
	s.logger.Info("index rebuilt after delete",
		slog.String("document_id", documentID),
		slog.Int("removed", removed),
		slog.Int("remaining", len(remaining)))
	return removed, nil
}

// DeleteAll clears the chunk store and index unconditionally and persists
// the empty state.
func (s *Store) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(nil, nil); err != nil {
		return err
	}
	s.index = nil
	s.chunks = nil
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Documents aggregates chunks by document, deriving per-kind totals at read
// time. Order follows first ingestion.
func (s *Store) Documents() []domain.DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]*domain.DocumentInfo)
	var order []string
	for _, ch := range s.chunks {
		info, ok := byID[ch.DocumentID]
		if !ok {
			info = &domain.DocumentInfo{DocumentID: ch.DocumentID, Filename: ch.Filename}
			byID[ch.DocumentID] = info
			order = append(order, ch.DocumentID)
		}
		info.TotalChunks++
		switch ch.Kind {
		case domain.KindTable:
			info.TableChunks++
		default:
			info.TextChunks++
		}
	}

	docs := make([]domain.DocumentInfo, 0, len(order))
	for _, id := range order {
		docs = append(docs, *byID[id])
	}
	return docs
}

// matchesFilters requires every filter key to match the chunk exactly.
// Known fields are checked first, everything else against Extra.
func matchesFilters(chunk domain.Chunk, filters map[string]any) bool {
	for key, want := range filters {
		var got any
		switch key {
		case "document_id":
			got = chunk.DocumentID
		case "filename":
			got = chunk.Filename
		case "chunk_id":
			got = chunk.ChunkID
		case "chunk_type":
			got = string(chunk.Kind)
		default:
			v, ok := chunk.Extra[key]
			if !ok {
				return false
			}
			got = v
		}
		if !filterEqual(got, want) {
			return false
		}
	}
	return true
}

// filterEqual compares a filter value against chunk metadata. Numbers are
// compared by value regardless of concrete type, since JSON reload turns
// persisted ints into float64. Everything else (including slice-valued
// Extra entries) goes through DeepEqual, which never panics on
// incomparable types.
func filterEqual(got, want any) bool {
	if gf, ok := asFloat(got); ok {
		wf, ok := asFloat(want)
		return ok && gf == wf
	}
	return reflect.DeepEqual(got, want)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// persist writes the index and chunk list together; nil arguments write the
// empty state. Both files go through a temp-and-rename so a crash between
// the two writes leaves at most a missing pair, which load treats as no
// prior state.
func (s *Store) persist(index *flatIndex, chunks []domain.Chunk) error {
	if index == nil {
		// Empty state: remove both artifacts.
		if err := removeIfExists(s.indexPath); err != nil {
			return err
		}
		return removeIfExists(s.chunksPath)
	}

	if err := index.save(s.indexPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	tmp := s.chunksPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return os.Rename(tmp, s.chunksPath)
}

// load restores the persisted pair. Corrupted or inconsistent state is
// logged and discarded: serving inconsistent results is worse than
// re-ingesting.
func (s *Store) load() {
	index, err := loadFlatIndex(s.indexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("discarding unreadable index", slog.String("error", err.Error()))
		}
		return
	}
	data, err := os.ReadFile(s.chunksPath)
	if err != nil {
		s.logger.Warn("index present but chunk store missing, starting empty")
		return
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		s.logger.Warn("discarding unreadable chunk store", slog.String("error", err.Error()))
		return
	}
	if len(chunks) != index.count() {
		s.logger.Warn("index/chunk store length mismatch, starting empty",
			slog.Int("chunks", len(chunks)),
			slog.Int("vectors", index.count()))
		return
	}
	s.index = index
	s.chunks = chunks
	s.logger.Info("loaded vector store", slog.Int("chunks", len(chunks)))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
