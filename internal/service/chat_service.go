package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/session"
)

const previewLimit = 200

// ChatService answers questions using retrieval-augmented generation over
// the ingested documents.
type ChatService struct {
	store      domain.RetrievalStore
	generator  domain.Generator
	summarizer domain.Summarizer
	sessions   *session.Manager
	topK       int
	logger     *slog.Logger
}

// NewChatService creates the chat pipeline. summarizer may be nil; it only
// improves degraded answers when generation fails.
func NewChatService(store domain.RetrievalStore, generator domain.Generator, summarizer domain.Summarizer, sessions *session.Manager, topK int) *ChatService {
	if topK <= 0 {
		topK = 5
	}
	return &ChatService{
		store:      store,
		generator:  generator,
		summarizer: summarizer,
		sessions:   sessions,
		topK:       topK,
		logger:     logger.ForComponent("chat"),
	}
}

// Sessions exposes the session manager for inspection endpoints.
func (s *ChatService) Sessions() *session.Manager { return s.sessions }

// Respond runs the full query flow for one message. Failures degrade to a
// user-visible answer with Success=false instead of a hard error.
func (s *ChatService) Respond(ctx context.Context, message, sessionID string) domain.ChatResponse {
	sessionID = s.sessions.GetOrCreate(sessionID)
	resp := domain.ChatResponse{SessionID: sessionID, Timestamp: time.Now(), Success: true}

	// No documents means nothing to retrieve; skip the embedding call.
	if s.store.Count() == 0 {
		resp.Answer = "I don't have any documents to search yet. Please upload a document first."
		return resp
	}

	results, err := s.store.Search(ctx, message, s.topK, nil)
	if err != nil {
		s.logger.Error("search failed", slog.String("error", err.Error()))
		return s.degraded(resp, "", err)
	}

	contextText, sources := buildContext(results)
	resp.Sources = sources

	prompt := buildPrompt(contextText, s.sessions.FormatHistory(sessionID), message)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("generation failed", slog.String("error", err.Error()))
		return s.degraded(resp, contextText, err)
	}

	resp.Answer = answer
	s.sessions.RecordExchange(sessionID, message, answer)
	return resp
}

// degraded fills a fallback answer. When retrieval succeeded, an extractive
// summary of the context is better than an apology alone.
func (s *ChatService) degraded(resp domain.ChatResponse, retrieved string, cause error) domain.ChatResponse {
	resp.Success = false
	resp.ErrorMessage = cause.Error()
	resp.Answer = "I apologize, but I encountered an error while processing your question."
	if retrieved != "" && s.summarizer != nil {
		if summary, err := s.summarizer.Summarize(retrieved, 3); err == nil && summary != "" {
			resp.Answer += " The most relevant passages I found are: " + summary
		}
	}
	return resp
}

func buildContext(results []domain.SearchResult) (string, []domain.Source) {
	var parts []string
	sources := make([]domain.Source, 0, len(results))
	for _, r := range results {
		parts = append(parts,
			"Source: "+r.Chunk.Filename,
			"Content: "+r.Chunk.Content,
			"---")

		source := domain.Source{
			Filename:        r.Chunk.Filename,
			ChunkID:         r.Chunk.ChunkID,
			ContentPreview:  preview(r.Chunk.Content),
			ChunkType:       string(r.Chunk.Kind),
			SimilarityScore: r.Score,
		}
		if r.Chunk.Kind == domain.KindTable {
			source.TableInfo = map[string]any{
				"shape":   r.Chunk.Extra["table_shape"],
				"columns": r.Chunk.Extra["table_columns"],
			}
		}
		sources = append(sources, source)
	}
	return strings.Join(parts, "\n"), sources
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLimit {
		return content
	}
	return string(r[:previewLimit]) + "..."
}

func buildPrompt(contextText, history, question string) string {
	return fmt.Sprintf(`You are an AI assistant helping users understand documents and tables they've uploaded.
Use the following context from the documents to answer the user's question accurately and cite your sources.

Context from documents:
%s

Previous conversation:
%s

Instructions:
1. Answer based on the provided context from the uploaded documents
2. If the information is not in the context, clearly state that you cannot find the answer in the uploaded documents
3. When referencing tables, mention the table structure and specific data points
4. Be specific about which document or section your answer comes from
5. If multiple sources support your answer, mention them all
6. Keep your response concise but comprehensive

Current question: %s

Answer:`, contextText, history, question)
}
