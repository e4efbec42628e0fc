// Package summarizer provides extractive summaries. The chat service uses
// it to produce a degraded answer from retrieved context when the
// generation provider is unavailable.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['']\p{L}+)*`)
)

// Frequency ranks sentences by normalized token frequency, stopwords
// filtered, and keeps the best ones in original order.
type Frequency struct {
	stopwords map[string]struct{}
}

// NewFrequency creates a frequency-based sentence ranker.
func NewFrequency() *Frequency {
	return &Frequency{stopwords: defaultStopwords()}
}

// Summarize returns at most maxSentences sentences of text, chosen by
// token-frequency score and emitted in their original order.
func (s *Frequency) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	freq := s.tokenFrequencies(sentences)

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := tokens(sent)
		total := 0.0
		for _, tok := range toks {
			total += freq[tok]
		}
		// Normalize by length to avoid favoring long sentences.
		if n := float64(len(toks)); n > 0 {
			total /= math.Sqrt(n)
		}
		scores[i] = scored{i, total}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " "), nil
}

func (s *Frequency) tokenFrequencies(sentences []string) map[string]float64 {
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range tokens(sent) {
			if _, skip := s.stopwords[tok]; skip {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	return freq
}

func tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := strings.Fields(
		"a an the and or but if then else for to of in on at by with as is are was were be been being " +
			"it this that these those from up down over under than so such into about between through " +
			"during before after above below out off own same too very can will just should now")
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
