package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestChunkTextShortInput(t *testing.T) {
	c := New(100, 20, 50)
	chunks := c.Chunk("hello world", "doc1", "a.txt", domain.KindText)

	require.Len(t, chunks, 1)
	assert.Equal(t, "doc1_text_0", chunks[0].ChunkID)
	assert.Equal(t, "hello world", chunks[0].Content)
	assert.Equal(t, domain.KindText, chunks[0].Kind)
	assert.Equal(t, 0, chunks[0].Position)
}

func TestChunkTextEmptyInput(t *testing.T) {
	c := New(100, 20, 50)
	assert.Empty(t, c.Chunk("", "doc1", "a.txt", domain.KindText))
	assert.Empty(t, c.Chunk("   \n\n  ", "doc1", "a.txt", domain.KindText))
}

func TestChunkTextSplitsLongInput(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Paragraph number %d with some filler words in it.\n\n", i)
	}
	text := b.String()

	c := New(200, 40, 50)
	chunks := c.Chunk(text, "doc1", "a.txt", domain.KindText)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 200+40, "chunk %d too large", i)
		assert.NotEmpty(t, strings.TrimSpace(ch.Content))
		assert.Equal(t, fmt.Sprintf("doc1_text_%d", i), ch.ChunkID)
		assert.Equal(t, i, ch.Position)
	}
}

// Stripping each chunk's carried overlap prefix must reconstruct the
// original text exactly.
func TestChunkTextReconstruction(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Sentence %d of the source document, written for splitting.\n", i)
	}
	text := b.String()

	overlap := 25
	c := New(120, overlap, 50)
	chunks := c.Chunk(text, "doc1", "a.txt", domain.KindText)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		prefix := overlap
		if len(prev) < prefix {
			prefix = len(prev)
		}
		rebuilt.WriteString(string([]rune(chunks[i].Content)[prefix:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunkTextOverlapCarried(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	c := New(60, 15, 50)
	chunks := c.Chunk(b.String(), "doc1", "a.txt", domain.KindText)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		tail := string(prev[len(prev)-15:])
		assert.True(t, strings.HasPrefix(chunks[i].Content, tail),
			"chunk %d does not start with the tail of chunk %d", i, i-1)
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("Deterministic output is required for chunk identity. ", 40)
	c := New(150, 30, 50)

	first := c.Chunk(text, "doc1", "a.txt", domain.KindText)
	second := c.Chunk(text, "doc1", "a.txt", domain.KindText)
	assert.Equal(t, first, second)
}

func TestChunkTextHardSplitWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 450)
	c := New(100, 0, 50)
	chunks := c.Chunk(text, "doc1", "a.txt", domain.KindText)

	require.Len(t, chunks, 5)
	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Content)
	}
	assert.Equal(t, text, rebuilt.String())
}

func buildTable(rows int) string {
	var b strings.Builder
	b.WriteString("| id | name |\n")
	b.WriteString("| --- | --- |\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "| %d | row%d |\n", i, i)
	}
	return b.String()
}

func TestChunkTableRowBlocks(t *testing.T) {
	c := New(1000, 200, 10)
	chunks := c.Chunk(buildTable(25), "doc2", "b.xlsx", domain.KindTable)

	// ceil(25 / 10) blocks
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, fmt.Sprintf("doc2_table_%d", i), ch.ChunkID)
		assert.Equal(t, domain.KindTable, ch.Kind)
		lines := strings.Split(ch.Content, "\n")
		assert.Equal(t, "| id | name |", lines[0])
		assert.Equal(t, "| --- | --- |", lines[1])
		assert.Equal(t, []string{"id", "name"}, ch.Extra["table_columns"])
		assert.Equal(t, 10, ch.Extra["rows_per_chunk"])
	}

	assert.Equal(t, 0, chunks[0].Extra["row_start"])
	assert.Equal(t, 10, chunks[0].Extra["row_end"])
	assert.Equal(t, 20, chunks[2].Extra["row_start"])
	assert.Equal(t, 25, chunks[2].Extra["row_end"])
}

func TestChunkTableHeaderOnly(t *testing.T) {
	c := New(1000, 200, 10)
	chunks := c.Chunk("| id | name |\n| --- | --- |\n", "doc2", "b.xlsx", domain.KindTable)

	require.Len(t, chunks, 1)
	assert.Equal(t, "doc2_table_0", chunks[0].ChunkID)
	assert.Equal(t, "| id | name |\n| --- | --- |", chunks[0].Content)
}

func TestChunkTableDegenerateInput(t *testing.T) {
	c := New(1000, 200, 10)
	chunks := c.Chunk("just one line, not a table", "doc2", "b.xlsx", domain.KindTable)

	require.Len(t, chunks, 1)
	assert.Equal(t, domain.KindText, chunks[0].Kind)
	assert.Equal(t, "doc2_text_0", chunks[0].ChunkID)
}
