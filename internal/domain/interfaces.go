package domain

import "context"

// Embedder converts free text into fixed-dimension numeric vectors.
// Batch order is preserved: vector i corresponds to texts[i].
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits extracted document text into retrieval-sized chunks.
// Given identical input and document ID the output is identical on every
// call: ids and ordinals carry no randomness or wall-clock state.
type Chunker interface {
	Chunk(text, documentID, filename string, kind ChunkKind) []Chunk
}

// Extractor converts a source file into plain or markdown text, one string
// per page. Implementations wrap external parsing backends and are treated
// as black boxes by the ingestion pipeline.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// OCREngine recognizes text on pages that carry no extractable text layer.
// It is a fallback, never the default: OCR is expensive and lossy.
type OCREngine interface {
	Recognize(ctx context.Context, path string) ([]string, error)
}

// RetrievalStore is the sole gateway to the paired (chunk store, vector
// index) unit. Implementations keep chunk i and vector i in positional
// correspondence after every mutation.
type RetrievalStore interface {
	Add(ctx context.Context, chunks []Chunk) (int, error)
	Search(ctx context.Context, query string, k int, filters map[string]any) ([]SearchResult, error)
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	DeleteAll() error
	Count() int
	Documents() []DocumentInfo
}

// Generator produces a natural-language answer from a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief extractive summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
