package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeCapsSentenceCount(t *testing.T) {
	text := "Revenue grew in the first quarter. Revenue also grew in the second quarter. " +
		"The cafeteria menu changed. Staff numbers stayed flat. Revenue is the main story."

	s := NewFrequency()
	out, err := s.Summarize(text, 2)
	require.NoError(t, err)

	count := strings.Count(out, ".")
	assert.LessOrEqual(t, count, 2)
	assert.NotEmpty(t, out)
}

func TestSummarizePlainTextWithoutSentences(t *testing.T) {
	s := NewFrequency()
	out, err := s.Summarize("not a full sentence", 3)
	require.NoError(t, err)
	assert.Equal(t, "not a full sentence", out)
}

func TestSummarizePreservesOriginalOrder(t *testing.T) {
	text := "Alpha topic opens the report. Filler line here. Alpha topic closes the report."
	s := NewFrequency()
	out, err := s.Summarize(text, 2)
	require.NoError(t, err)

	first := strings.Index(out, "opens")
	second := strings.Index(out, "closes")
	if first >= 0 && second >= 0 {
		assert.Less(t, first, second)
	}
}
