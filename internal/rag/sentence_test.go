package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentence_BasicSplit(t *testing.T) {
	t.Parallel()

	text := "The trial court entered judgment. The appellant timely appealed. We review for abuse of discretion."
	got := SplitSentences(text)
	require.Len(t, got, 3)
	require.Equal(t, "The trial court entered judgment.", got[0])
	require.Equal(t, "We review for abuse of discretion.", got[2])
}

func TestSentence_CitationsNotSplit(t *testing.T) {
	t.Parallel()

	text := "We follow State v. Smith, 150 Wn.2d 489, 78 P.3d 1014 (2003). The statute RCW 9.94A.525 controls here."
	got := SplitSentences(text)
	require.Len(t, got, 2)
	require.Contains(t, got[0], "State v. Smith")
	require.Contains(t, got[0], "150 Wn.2d 489")
	require.Contains(t, got[1], "RCW 9.94A.525")
}

func TestSentence_InReNotSplit(t *testing.T) {
	t.Parallel()

	text := "This follows In re Marriage of Littlefield. The standard is well settled."
	got := SplitSentences(text)
	require.Len(t, got, 2)
	require.Contains(t, got[0], "In re Marriage")
}

func TestSentence_ShortFragmentsDropped(t *testing.T) {
	t.Parallel()

	text := "No. 7. The court below erred in its ruling on fees."
	got := SplitSentences(text)
	require.Len(t, got, 1)
	require.Contains(t, got[0], "erred")
}

func TestSentence_QuestionAndExclamation(t *testing.T) {
	t.Parallel()

	text := "Did the court abuse its discretion? We hold that it did not! The judgment is affirmed."
	got := SplitSentences(text)
	require.Len(t, got, 3)
}

func TestSentence_OrderingsAreDense(t *testing.T) {
	t.Parallel()

	chunk := "First sentence of this chunk. Second sentence right here. Third sentence closes it."
	sentences := SentencesForChunk(chunk, 5)
	require.Len(t, sentences, 3)
	for i, s := range sentences {
		require.Equal(t, i+1, s.Order)
		require.Equal(t, 5+i+1, s.GlobalOrder)
		require.Positive(t, s.WordCount)
	}
}

func TestSentence_WordCountMatchesTokenizer(t *testing.T) {
	t.Parallel()

	sentences := SentencesForChunk("The court's ruling was well-reasoned and sound today.", 0)
	require.Len(t, sentences, 1)
	require.Equal(t, len(Tokenize(sentences[0].Text)), sentences[0].WordCount)
}
