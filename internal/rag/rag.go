package rag

import "strings"

// ChunkEmbeddingMode governs which chunks get embeddings.
type ChunkEmbeddingMode string

const (
	EmbedAll       ChunkEmbeddingMode = "all"
	EmbedImportant ChunkEmbeddingMode = "important"
	EmbedNone      ChunkEmbeddingMode = "none"
)

// ParseChunkEmbeddingMode validates a mode string from flags/config.
func ParseChunkEmbeddingMode(s string) (ChunkEmbeddingMode, bool) {
	switch ChunkEmbeddingMode(strings.ToLower(s)) {
	case EmbedAll:
		return EmbedAll, true
	case EmbedImportant:
		return EmbedImportant, true
	case EmbedNone:
		return EmbedNone, true
	}
	return "", false
}

// ChunkArtifact is one chunk with its segmented sentences and their tokens.
type ChunkArtifact struct {
	Chunk     Chunk
	Sentences []Sentence
	// Tokens[i] are the normalized tokens of Sentences[i], position 0-based.
	Tokens [][]string
}

// Document is the full retrieval artifact for one case, consumed exactly
// once by the inserter.
type Document struct {
	Chunks  []ChunkArtifact
	Phrases []Phrase
}

// SentenceCount reports the total sentences across all chunks.
func (d *Document) SentenceCount() int {
	n := 0
	for _, ca := range d.Chunks {
		n += len(ca.Sentences)
	}
	return n
}

// TokenCount reports the total token occurrences across all sentences.
func (d *Document) TokenCount() int {
	n := 0
	for _, ca := range d.Chunks {
		for _, toks := range ca.Tokens {
			n += len(toks)
		}
	}
	return n
}

// Processor composes the chunker, sentence segmentation, tokenization, and
// phrase extraction into one document-order pass.
type Processor struct {
	chunker *Chunker
	phrases *PhraseExtractor
}

// NewProcessor builds a Processor with the given chunk bounds and phrase
// filter configuration.
func NewProcessor(chunkOpts ChunkerOptions, filterMode PhraseFilterMode, lists PhraseLists) *Processor {
	return &Processor{
		chunker: NewChunker(chunkOpts),
		phrases: NewPhraseExtractor(filterMode, lists),
	}
}

// Process runs the full RAG segmentation over a page sequence. Chunk and
// sentence orderings are dense and strictly increasing in document order.
func (p *Processor) Process(pages []string) *Document {
	chunks := p.chunker.ChunkPages(pages)

	doc := &Document{Chunks: make([]ChunkArtifact, 0, len(chunks))}
	var allSentences []sentenceTokens
	global := 0

	for ci, chunk := range chunks {
		sentences := SentencesForChunk(chunk.Text, global)
		global += len(sentences)

		tokens := make([][]string, len(sentences))
		for si, s := range sentences {
			tokens[si] = Tokenize(s.Text)
			allSentences = append(allSentences, sentenceTokens{
				chunkIdx:    ci,
				sentenceIdx: si,
				tokens:      tokens[si],
			})
		}
		doc.Chunks = append(doc.Chunks, ChunkArtifact{
			Chunk:     chunk,
			Sentences: sentences,
			Tokens:    tokens,
		})
	}

	doc.Phrases = p.phrases.extract(allSentences)
	return doc
}
