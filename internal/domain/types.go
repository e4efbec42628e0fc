package domain

import "time"

// ChunkKind classifies a chunk as prose text or tabular data.
type ChunkKind string

const (
	KindText  ChunkKind = "text"
	KindTable ChunkKind = "table"
)

// Chunk is a retrievable unit of document text with identity and metadata.
type Chunk struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	Filename   string         `json:"filename"`
	Content    string         `json:"content"`
	Kind       ChunkKind      `json:"kind"`
	Position   int            `json:"position"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// SearchResult represents a matching chunk with its cosine similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// DocumentInfo aggregates the chunks of one ingested file. It is derived by
// scanning chunk metadata, never stored separately.
type DocumentInfo struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
	TextChunks  int    `json:"text_chunks"`
	TableChunks int    `json:"table_chunks"`
}

// UploadResult is returned to the caller after a successful ingestion.
type UploadResult struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
}

// Source describes one retrieved chunk cited in a chat answer.
type Source struct {
	Filename        string         `json:"filename"`
	ChunkID         string         `json:"chunk_id"`
	ContentPreview  string         `json:"content_preview"`
	ChunkType       string         `json:"chunk_type"`
	SimilarityScore float32        `json:"similarity_score"`
	TableInfo       map[string]any `json:"table_info,omitempty"`
}

// ChatResponse is the answer to one user message together with its sources.
type ChatResponse struct {
	Answer       string    `json:"answer"`
	Sources      []Source  `json:"sources"`
	SessionID    string    `json:"session_id"`
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Role identifies the author of one conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation session.
type Message struct {
	Role    Role
	Content string
}

// SessionInfo summarizes a conversation session.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}
