// Package chunker splits extracted document text into retrieval-sized
// chunks. Prose is split recursively at natural boundaries; markdown tables
// are split into row blocks that each remain independently renderable.
package chunker

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// DefaultChunkSize is the target maximum chunk length in runes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the overlap carried between consecutive chunks.
const DefaultChunkOverlap = 200

// DefaultRowsPerChunk is the number of table data rows per chunk.
const DefaultRowsPerChunk = 50

// Chunker implements domain.Chunker for both prose and tabular text.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	rowsPerChunk int
}

// New creates a chunker. Non-positive arguments fall back to defaults, and
// overlap is clamped below the chunk size.
func New(chunkSize, chunkOverlap, rowsPerChunk int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	if rowsPerChunk <= 0 {
		rowsPerChunk = DefaultRowsPerChunk
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap, rowsPerChunk: rowsPerChunk}
}

// Chunk splits text into ordered chunks. The output is deterministic for a
// given (text, documentID) pair; whitespace-only chunks are dropped.
func (c *Chunker) Chunk(text, documentID, filename string, kind domain.ChunkKind) []domain.Chunk {
	if kind == domain.KindTable {
		return c.chunkTable(text, documentID, filename)
	}
	return c.chunkText(text, documentID, filename)
}

// separators are tried in order: paragraph breaks first, then line breaks,
// then spaces, then a raw rune split.
var separators = []string{"\n\n", "\n", " "}

func (c *Chunker) chunkText(text, documentID, filename string) []domain.Chunk {
	pieces := splitRecursive(text, separators, c.chunkSize)
	contents := mergeWithOverlap(pieces, c.chunkSize, c.chunkOverlap)

	var chunks []domain.Chunk
	ordinal := 0
	for _, content := range contents {
		if strings.TrimSpace(content) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ChunkID:    fmt.Sprintf("%s_text_%d", documentID, ordinal),
			DocumentID: documentID,
			Filename:   filename,
			Content:    content,
			Kind:       domain.KindText,
			Position:   ordinal,
		})
		ordinal++
	}
	return chunks
}

// splitRecursive breaks text into pieces no longer than size runes.
// Separators are kept attached to the preceding piece so that the
// concatenation of all pieces reproduces the input exactly.
func splitRecursive(text string, seps []string, size int) []string {
	if runeLen(text) <= size {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	if len(seps) == 0 {
		return splitRunes(text, size)
	}
	parts := strings.SplitAfter(text, seps[0])
	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if runeLen(part) <= size {
			out = append(out, part)
			continue
		}
		out = append(out, splitRecursive(part, seps[1:], size)...)
	}
	return out
}

// mergeWithOverlap greedily packs pieces into chunks of at most size runes.
// Each chunk after the first is prefixed with the tail of its predecessor,
// so stripping those prefixes reconstructs the original text.
func mergeWithOverlap(pieces []string, size, overlap int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0
	// Runes in current beyond the carried overlap prefix. A chunk is only
	// emitted when it contains content the previous chunk did not.
	newLen := 0

	for _, piece := range pieces {
		pl := runeLen(piece)
		if newLen > 0 && currentLen+pl > size {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()
			tail := ""
			if overlap > 0 {
				tail = tailRunes(chunk, overlap)
			}
			current.WriteString(tail)
			currentLen = runeLen(tail)
			newLen = 0
		}
		current.WriteString(piece)
		currentLen += pl
		newLen += pl
	}
	if newLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func (c *Chunker) chunkTable(text, documentID, filename string) []domain.Chunk {
	lines := splitTableLines(text)
	// A table needs at least a header and separator row. Anything shorter is
	// returned whole, unclassified as prose.
	if len(lines) < 2 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []domain.Chunk{{
			ChunkID:    fmt.Sprintf("%s_text_0", documentID),
			DocumentID: documentID,
			Filename:   filename,
			Content:    trimmed,
			Kind:       domain.KindText,
			Position:   0,
		}}
	}

	header, separator := lines[0], lines[1]
	rows := lines[2:]
	columns := parseColumns(header)

	if len(rows) == 0 {
		return []domain.Chunk{{
			ChunkID:    fmt.Sprintf("%s_table_0", documentID),
			DocumentID: documentID,
			Filename:   filename,
			Content:    header + "\n" + separator,
			Kind:       domain.KindTable,
			Position:   0,
			Extra:      tableExtra(columns, 0, 0, 0, c.rowsPerChunk),
		}}
	}

	var chunks []domain.Chunk
	for start := 0; start < len(rows); start += c.rowsPerChunk {
		end := start + c.rowsPerChunk
		if end > len(rows) {
			end = len(rows)
		}
		block := append([]string{header, separator}, rows[start:end]...)
		ordinal := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ChunkID:    fmt.Sprintf("%s_table_%d", documentID, ordinal),
			DocumentID: documentID,
			Filename:   filename,
			Content:    strings.Join(block, "\n"),
			Kind:       domain.KindTable,
			Position:   ordinal,
			Extra:      tableExtra(columns, end-start, start, end, c.rowsPerChunk),
		})
	}
	return chunks
}

func tableExtra(columns []string, blockRows, rowStart, rowEnd, rowsPerChunk int) map[string]any {
	return map[string]any{
		"table_columns":  columns,
		"table_shape":    []int{blockRows, len(columns)},
		"row_start":      rowStart,
		"row_end":        rowEnd,
		"rows_per_chunk": rowsPerChunk,
	}
}

func splitTableLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// parseColumns extracts cell names from a markdown header row.
func parseColumns(header string) []string {
	var columns []string
	for _, cell := range strings.Split(strings.Trim(header, "|"), "|") {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			columns = append(columns, cell)
		}
	}
	return columns
}

func runeLen(s string) int { return len([]rune(s)) }

func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func splitRunes(s string, size int) []string {
	r := []rune(s)
	var out []string
	for start := 0; start < len(r); start += size {
		end := start + size
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[start:end]))
	}
	return out
}
