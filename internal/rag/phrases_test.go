package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func extractFromTexts(mode PhraseFilterMode, texts ...string) []Phrase {
	p := NewPhraseExtractor(mode, PhraseLists{})
	var sts []sentenceTokens
	for i, text := range texts {
		sts = append(sts, sentenceTokens{chunkIdx: 0, sentenceIdx: i, tokens: Tokenize(text)})
	}
	return p.extract(sts)
}

func findPhrase(phrases []Phrase, text string) (Phrase, bool) {
	for _, p := range phrases {
		if p.Text == text {
			return p, true
		}
	}
	return Phrase{}, false
}

func TestPhrases_StrictKeepsCuratedPhraseRejectsStopPhrase(t *testing.T) {
	t.Parallel()

	sentence := "The best interests of the child govern the best interests of the child and the best interests of the child."
	phrases := extractFromTexts(PhraseFilterStrict, sentence)

	got, ok := findPhrase(phrases, "best interests of the child")
	require.True(t, ok, "curated 5-gram must be kept")
	require.Equal(t, 3, got.Frequency)
	require.Equal(t, 5, got.N)

	_, ok = findPhrase(phrases, "of the")
	require.False(t, ok, "stop phrase must be rejected")
}

func TestPhrases_RelaxedStillRejectsStopPhrases(t *testing.T) {
	t.Parallel()

	phrases := extractFromTexts(PhraseFilterRelaxed, "The weather of the valley of the river of the region.")
	_, ok := findPhrase(phrases, "of the")
	require.False(t, ok)
}

func TestPhrases_StrictRequiresKeyword(t *testing.T) {
	t.Parallel()

	phrases := extractFromTexts(PhraseFilterStrict, "Green apples taste sweet today.")
	require.Empty(t, phrases)

	phrases = extractFromTexts(PhraseFilterStrict, "The trial court abused its discretion.")
	_, ok := findPhrase(phrases, "trial court")
	require.True(t, ok)
}

func TestPhrases_RelaxedKeepsNonLegalBigrams(t *testing.T) {
	t.Parallel()

	phrases := extractFromTexts(PhraseFilterRelaxed, "Green apples taste sweet.")
	_, ok := findPhrase(phrases, "green apples")
	require.True(t, ok)
}

func TestPhrases_FrequencyLaw(t *testing.T) {
	t.Parallel()

	// "abuse of discretion" appears twice across sentences.
	phrases := extractFromTexts(PhraseFilterStrict,
		"We review for abuse of discretion.",
		"There was no abuse of discretion below.",
	)
	got, ok := findPhrase(phrases, "abuse of discretion")
	require.True(t, ok)
	require.Equal(t, 2, got.Frequency)
	require.Equal(t, 3, got.N)
}

func TestPhrases_ExampleLocationIsFirstSeen(t *testing.T) {
	t.Parallel()

	p := NewPhraseExtractor(PhraseFilterStrict, PhraseLists{})
	sts := []sentenceTokens{
		{chunkIdx: 0, sentenceIdx: 0, tokens: Tokenize("No relevant phrase here today.")},
		{chunkIdx: 1, sentenceIdx: 2, tokens: Tokenize("The trial court ruled.")},
		{chunkIdx: 2, sentenceIdx: 0, tokens: Tokenize("The trial court ruled again.")},
	}
	phrases := p.extract(sts)
	got, ok := findPhrase(phrases, "trial court")
	require.True(t, ok)
	require.Equal(t, 1, got.ExampleChunk)
	require.Equal(t, 2, got.ExampleSentence)
	require.Equal(t, 2, got.Frequency)
}

func TestPhrases_CustomLists(t *testing.T) {
	t.Parallel()

	p := NewPhraseExtractor(PhraseFilterStrict, PhraseLists{
		Keywords:    []string{"starship"},
		Phrases:     []string{"warp drive"},
		StopPhrases: []string{"the the"},
	})
	phrases := p.extract([]sentenceTokens{
		{tokens: Tokenize("The starship engaged its warp drive.")},
	})
	_, ok := findPhrase(phrases, "warp drive")
	require.True(t, ok)
	_, ok = findPhrase(phrases, "starship engaged")
	require.True(t, ok)
	_, ok = findPhrase(phrases, "engaged its")
	require.False(t, ok)
}

func TestPhrases_ParseModes(t *testing.T) {
	t.Parallel()

	m, ok := ParsePhraseFilterMode("STRICT")
	require.True(t, ok)
	require.Equal(t, PhraseFilterStrict, m)

	_, ok = ParsePhraseFilterMode("bogus")
	require.False(t, ok)
}
