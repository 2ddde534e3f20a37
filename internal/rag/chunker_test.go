package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func words(n int, w string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", w, i)
	}
	return strings.Join(parts, " ")
}

func TestChunker_DenseOrdering(t *testing.T) {
	t.Parallel()

	var paras []string
	for i := 0; i < 12; i++ {
		paras = append(paras, words(120, "tok"))
	}
	text := strings.Join(paras, "\n\n")

	chunks := NewChunker(ChunkerOptions{}).ChunkText(text)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		require.Equal(t, i+1, c.Order, "chunk_order must be dense")
		require.LessOrEqual(t, c.WordCount, 500)
	}
	// All but a possibly-merged tail should be at least min size.
	for _, c := range chunks[:len(chunks)-1] {
		require.GreaterOrEqual(t, c.WordCount, 200)
	}
}

func TestChunker_SectionHeadingsStartNewChunks(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		words(210, "intro"),
		"STATEMENT OF FACTS " + words(6, "f"),
		words(210, "facts"),
		"ANALYSIS " + words(6, "a"),
		words(210, "analysis"),
		"CONCLUSION " + words(6, "c"),
		words(210, "conclusion"),
	}, "\n\n")

	chunks := NewChunker(ChunkerOptions{}).ChunkText(text)
	require.NotEmpty(t, chunks)

	seen := map[Section]bool{}
	for _, c := range chunks {
		seen[c.Section] = true
	}
	require.True(t, seen[SectionFacts], "expected a FACTS chunk, got %+v", chunks)
	require.True(t, seen[SectionAnalysis], "expected an ANALYSIS chunk")
	require.True(t, seen[SectionHolding], "expected a HOLDING chunk")
}

func TestChunker_DefaultSectionIsContent(t *testing.T) {
	t.Parallel()

	chunks := NewChunker(ChunkerOptions{}).ChunkText(words(250, "neutral"))
	require.Len(t, chunks, 1)
	require.Equal(t, SectionContent, chunks[0].Section)
}

func TestChunker_OversizedParagraphKeptWhole(t *testing.T) {
	t.Parallel()

	big := words(800, "big")
	chunks := NewChunker(ChunkerOptions{}).ChunkText(big)
	require.Len(t, chunks, 1)
	require.Equal(t, 800, chunks[0].WordCount)
}

func TestChunker_SmallTailMergedIntoPrevious(t *testing.T) {
	t.Parallel()

	text := words(300, "main") + "\n\n" + words(40, "tail")
	chunks := NewChunker(ChunkerOptions{}).ChunkText(text)
	require.Len(t, chunks, 1)
	require.Equal(t, 340, chunks[0].WordCount)
	require.Contains(t, chunks[0].Text, "tail0")
}

func TestChunker_EmptyText(t *testing.T) {
	t.Parallel()

	require.Nil(t, NewChunker(ChunkerOptions{}).ChunkText(""))
	require.Nil(t, NewChunker(ChunkerOptions{}).ChunkPages(nil))
}

func TestChunker_ShortParagraphsDropped(t *testing.T) {
	t.Parallel()

	text := "one two\n\n" + words(250, "body")
	chunks := NewChunker(ChunkerOptions{}).ChunkText(text)
	require.Len(t, chunks, 1)
	require.NotContains(t, chunks[0].Text, "one two")
}
