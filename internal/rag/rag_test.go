package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func opinionPages() []string {
	para := func(s string, n int) string {
		return strings.TrimSpace(strings.Repeat(s+" ", n))
	}
	return []string{
		"IN THE COURT OF APPEALS OF THE STATE OF WASHINGTON\n\n" +
			para("The appellant challenges the parenting plan entered by the trial court.", 10),
		"STATEMENT OF FACTS\n\n" +
			para("The parties married in 2001 and separated in 2019 after years together.", 10),
		"ANALYSIS\n\n" +
			para("We review a parenting plan for abuse of discretion under settled law.", 10),
		"CONCLUSION\n\n" +
			para("We affirm the trial court in all respects on this record.", 8),
	}
}

func TestRAG_Process_EndToEndOrderings(t *testing.T) {
	t.Parallel()

	p := NewProcessor(ChunkerOptions{}, PhraseFilterStrict, PhraseLists{})
	doc := p.Process(opinionPages())
	require.NotEmpty(t, doc.Chunks)

	global := 0
	for ci, ca := range doc.Chunks {
		require.Equal(t, ci+1, ca.Chunk.Order)
		require.Len(t, ca.Tokens, len(ca.Sentences))
		for si, s := range ca.Sentences {
			require.Equal(t, si+1, s.Order)
			global++
			require.Equal(t, global, s.GlobalOrder, "global_sentence_order must be dense and increasing")
			require.Equal(t, len(ca.Tokens[si]), s.WordCount)
		}
	}
	require.Equal(t, global, doc.SentenceCount())
	require.Positive(t, doc.TokenCount())
}

func TestRAG_Process_PhrasesAggregatedAcrossChunks(t *testing.T) {
	t.Parallel()

	p := NewProcessor(ChunkerOptions{}, PhraseFilterStrict, PhraseLists{})
	doc := p.Process(opinionPages())

	got, ok := findPhrase(doc.Phrases, "abuse of discretion")
	require.True(t, ok)
	require.GreaterOrEqual(t, got.Frequency, 2)

	for _, ph := range doc.Phrases {
		require.GreaterOrEqual(t, ph.Frequency, 1)
		require.Less(t, ph.ExampleChunk, len(doc.Chunks))
	}
}

func TestRAG_ParseChunkEmbeddingMode(t *testing.T) {
	t.Parallel()

	m, ok := ParseChunkEmbeddingMode("Important")
	require.True(t, ok)
	require.Equal(t, EmbedImportant, m)

	_, ok = ParseChunkEmbeddingMode("some")
	require.False(t, ok)
}
