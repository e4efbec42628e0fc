package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/extract"
	"docqa/internal/session"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
)

type fakeGenerator struct {
	answer string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

type tableExtractor struct{ markdown string }

func (e tableExtractor) Extract(context.Context, string) ([]string, error) {
	return []string{e.markdown}, nil
}

func newDocumentService(t *testing.T) *DocumentService {
	t.Helper()
	store, err := vectorstore.NewStore(t.TempDir(), embedding.NewLocalEmbedder(64))
	require.NoError(t, err)

	ex := extract.NewService(nil)
	ex.Register(".txt", extract.Plaintext{})
	ex.Register(".xlsx", tableExtractor{markdown: "| id | name |\n| --- | --- |\n| 1 | a |\n| 2 | b |"})

	return NewDocumentService(store, ex, chunker.New(200, 40, 50), t.TempDir(), 1)
}

func TestIngestTextDocument(t *testing.T) {
	svc := newDocumentService(t)

	result, err := svc.Ingest(context.Background(), "notes.txt", []byte("some meaningful document content"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, "notes.txt", result.Filename)
	assert.Equal(t, 1, result.TotalChunks)

	docs := svc.List()
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].TextChunks)
}

func TestIngestRejectsUnsupportedExtension(t *testing.T) {
	svc := newDocumentService(t)

	_, err := svc.Ingest(context.Background(), "archive.zip", []byte("data"))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Zero(t, len(svc.List()))
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	svc := newDocumentService(t) // 1MB limit

	big := make([]byte, 2*1024*1024)
	_, err := svc.Ingest(context.Background(), "big.txt", big)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestIngestSpreadsheetProducesTableChunks(t *testing.T) {
	svc := newDocumentService(t)

	result, err := svc.Ingest(context.Background(), "data.xlsx", []byte("raw-bytes"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalChunks)

	docs := svc.List()
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].TableChunks)
	assert.Zero(t, docs[0].TextChunks)
}

func TestIngestEmptyContentFailsAtChunking(t *testing.T) {
	svc := newDocumentService(t)

	_, err := svc.Ingest(context.Background(), "empty.txt", []byte("   \n  "))
	require.Error(t, err)
	var serr *domain.StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.StageChunking, serr.Stage)
}

func TestDeleteDocumentScenario(t *testing.T) {
	store, err := vectorstore.NewStore(t.TempDir(), embedding.NewLocalEmbedder(64))
	require.NoError(t, err)
	ex := extract.NewService(nil)
	ex.Register(".txt", extract.Plaintext{})
	svc := NewDocumentService(store, ex, chunker.New(200, 40, 50), t.TempDir(), 10)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, "one.txt", []byte("first document body"))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "two.txt", []byte("second document body"))
	require.NoError(t, err)

	msg, err := svc.Delete(ctx, first.DocumentID)
	require.NoError(t, err)
	assert.Contains(t, msg, "Removed 1 chunks")

	docs := svc.List()
	require.Len(t, docs, 1)
	assert.Equal(t, "two.txt", docs[0].Filename)

	// Idempotent: repeating reports zero removed.
	msg, err = svc.Delete(ctx, first.DocumentID)
	require.NoError(t, err)
	assert.Contains(t, msg, "Removed 0 chunks")
}

func newChatFixture(t *testing.T, gen *fakeGenerator) (*ChatService, *vectorstore.Store) {
	t.Helper()
	store, err := vectorstore.NewStore(t.TempDir(), embedding.NewLocalEmbedder(64))
	require.NoError(t, err)
	chat := NewChatService(store, gen, summarizer.NewFrequency(), session.NewManager(20), 5)
	return chat, store
}

func seedChunks(t *testing.T, store *vectorstore.Store) {
	t.Helper()
	_, err := store.Add(context.Background(), []domain.Chunk{
		{
			ChunkID: "d1_text_0", DocumentID: "d1", Filename: "report.txt",
			Content: "The annual revenue grew by ten percent in the last fiscal year.",
			Kind:    domain.KindText,
		},
		{
			ChunkID: "d1_table_0", DocumentID: "d1", Filename: "report.txt",
			Content: "| metric | value |\n| --- | --- |\n| revenue | 110 |",
			Kind:    domain.KindTable, Position: 1,
			Extra: map[string]any{"table_shape": []int{1, 2}, "table_columns": []string{"metric", "value"}},
		},
	})
	require.NoError(t, err)
}

func TestRespondWithEmptyStoreSkipsRetrieval(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be called"}
	chat, _ := newChatFixture(t, gen)

	resp := chat.Respond(context.Background(), "what is the revenue?", "")
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Answer, "upload a document")
	assert.Empty(t, resp.Sources)
	assert.NotEmpty(t, resp.SessionID)
	assert.Empty(t, gen.prompt)
}

func TestRespondReturnsAnswerWithSources(t *testing.T) {
	gen := &fakeGenerator{answer: "Revenue grew by ten percent."}
	chat, store := newChatFixture(t, gen)
	seedChunks(t, store)

	resp := chat.Respond(context.Background(), "how did revenue develop?", "s1")
	require.True(t, resp.Success)
	assert.Equal(t, "Revenue grew by ten percent.", resp.Answer)
	assert.Equal(t, "s1", resp.SessionID)
	require.NotEmpty(t, resp.Sources)

	assert.Contains(t, gen.prompt, "Context from documents:")
	assert.Contains(t, gen.prompt, "report.txt")
	assert.Contains(t, gen.prompt, "how did revenue develop?")

	// Table sources carry their structure.
	for _, src := range resp.Sources {
		if src.ChunkType == "table" {
			assert.NotNil(t, src.TableInfo["columns"])
		}
		assert.LessOrEqual(t, len([]rune(src.ContentPreview)), 203)
	}

	// The exchange is recorded in session history.
	info, err := chat.Sessions().Info("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, info.MessageCount)
}

func TestRespondDegradesOnGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider timeout")}
	chat, store := newChatFixture(t, gen)
	seedChunks(t, store)

	resp := chat.Respond(context.Background(), "how did revenue develop?", "s1")
	assert.False(t, resp.Success)
	assert.Equal(t, "provider timeout", resp.ErrorMessage)
	assert.True(t, strings.HasPrefix(resp.Answer, "I apologize"))

	// Failed exchanges are not recorded.
	info, err := chat.Sessions().Info("s1")
	require.NoError(t, err)
	assert.Zero(t, info.MessageCount)
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)
	p := preview(long)
	assert.Len(t, []rune(p), 203)
	assert.True(t, strings.HasSuffix(p, "..."))

	assert.Equal(t, "short", preview("short"))
}
