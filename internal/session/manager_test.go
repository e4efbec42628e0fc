package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateGeneratesID(t *testing.T) {
	m := NewManager(20)

	id := m.GetOrCreate("")
	assert.NotEmpty(t, id)

	// Known IDs are returned unchanged.
	assert.Equal(t, id, m.GetOrCreate(id))
}

func TestHistoryTruncatedToWindow(t *testing.T) {
	m := NewManager(20)
	id := m.GetOrCreate("s1")

	for i := 0; i < 11; i++ {
		m.RecordExchange(id, fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	info, err := m.Info(id)
	require.NoError(t, err)
	// 11 exchanges are 22 entries, capped to the window.
	assert.Equal(t, 20, info.MessageCount)

	history := m.FormatHistory(id)
	assert.NotContains(t, history, "question 0")
	assert.Contains(t, history, "question 10")
	assert.Contains(t, history, "answer 10")
}

func TestFormatHistory(t *testing.T) {
	m := NewManager(20)
	id := m.GetOrCreate("s1")

	assert.Empty(t, m.FormatHistory(id))

	m.RecordExchange(id, "what is in the report?", "the report covers revenue.")
	history := m.FormatHistory(id)

	lines := strings.Split(history, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Human: what is in the report?", lines[0])
	assert.Equal(t, "Assistant: the report covers revenue.", lines[1])
}

func TestInfoUnknownSession(t *testing.T) {
	m := NewManager(20)
	_, err := m.Info("missing")
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	m := NewManager(20)
	id := m.GetOrCreate("s1")

	assert.True(t, m.Clear(id))
	assert.False(t, m.Clear(id))

	_, err := m.Info(id)
	assert.Error(t, err)
}
