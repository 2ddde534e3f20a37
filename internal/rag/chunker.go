// Package rag segments opinion text into retrieval artifacts: section-aware
// chunks, citation-protected sentences, normalized tokens, and legal
// n-gram phrases. Everything here is pure; the store package persists it.
package rag

import (
	"regexp"
	"strings"
)

// Section labels a chunk with the part of the opinion it came from.
type Section string

const (
	SectionHeader     Section = "HEADER"
	SectionParties    Section = "PARTIES"
	SectionProcedural Section = "PROCEDURAL"
	SectionFacts      Section = "FACTS"
	SectionAnalysis   Section = "ANALYSIS"
	SectionHolding    Section = "HOLDING"
	SectionCustody    Section = "CUSTODY"
	SectionSupport    Section = "SUPPORT"
	SectionProperty   Section = "PROPERTY"
	SectionFees       Section = "FEES"
	SectionContent    Section = "CONTENT"
)

// ImportantSections are the sections embedded under --chunk-embeddings
// important.
var ImportantSections = map[Section]bool{
	SectionFacts:    true,
	SectionAnalysis: true,
	SectionHolding:  true,
}

// Chunk is one ordered segment of a case.
type Chunk struct {
	Order     int // 1-based, dense
	Section   Section
	Text      string
	WordCount int
}

// ChunkerOptions bound chunk sizes in words.
type ChunkerOptions struct {
	TargetWords int
	MinWords    int
	MaxWords    int
}

func (o *ChunkerOptions) defaults() {
	if o.TargetWords == 0 {
		o.TargetWords = 350
	}
	if o.MinWords == 0 {
		o.MinWords = 200
	}
	if o.MaxWords == 0 {
		o.MaxWords = 500
	}
}

// Chunker performs section-aware segmentation of a page sequence.
type Chunker struct {
	opts ChunkerOptions
}

// sectionPatterns drive heading detection; a matching paragraph closes the
// current chunk and starts a new one under the matched section.
var sectionPatterns = []struct {
	section  Section
	patterns []*regexp.Regexp
}{
	{SectionHeader, compileAll(
		`IN THE .* COURT`,
		`STATE OF `,
		`COUNTY OF `,
		`No\.\s*\d+`,
		`CASE NO\.`,
		`DOCKET`,
	)},
	{SectionProcedural, compileAll(
		`PROCEDURAL HISTORY`,
		`BACKGROUND`,
		`PROCEEDINGS`,
		`MOTION`,
		`APPEAL\b`,
	)},
	{SectionFacts, compileAll(
		`STATEMENT OF FACTS`,
		`FACTUAL BACKGROUND`,
		`FINDINGS OF FACT`,
		`\bFACTS\b`,
	)},
	{SectionAnalysis, compileAll(
		`\bANALYSIS\b`,
		`\bDISCUSSION\b`,
		`LEGAL ANALYSIS`,
		`CONCLUSIONS OF LAW`,
		`\bOPINION\b`,
	)},
	{SectionHolding, compileAll(
		`\bHOLDING\b`,
		`\bCONCLUSION\b`,
		`\bDECISION\b`,
		`\bJUDGMENT\b`,
		`\bORDER\b`,
	)},
	{SectionCustody, compileAll(
		`\bCUSTODY\b`,
		`PARENTING PLAN`,
		`RESIDENTIAL SCHEDULE`,
	)},
	{SectionSupport, compileAll(
		`CHILD SUPPORT`,
		`SPOUSAL SUPPORT`,
		`\bMAINTENANCE\b`,
	)},
	{SectionProperty, compileAll(
		`PROPERTY DIVISION`,
		`DIVISION OF PROPERTY`,
		`COMMUNITY PROPERTY`,
	)},
	{SectionFees, compileAll(
		`ATTORNEY FEES`,
		`FEES ON APPEAL`,
		`COSTS AND FEES`,
	)},
	{SectionParties, compileAll(
		`\bPLAINTIFF\b`,
		`\bDEFENDANT\b`,
		`\bAPPELLANT\b`,
		`\bRESPONDENT\b`,
		`\bPETITIONER\b`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// NewChunker applies defaults to opts and returns a Chunker.
func NewChunker(opts ChunkerOptions) *Chunker {
	opts.defaults()
	return &Chunker{opts: opts}
}

// ChunkPages segments a page sequence into ordered chunks. chunk_order is
// dense 1..N in document order.
func (c *Chunker) ChunkPages(pages []string) []Chunk {
	return c.ChunkText(strings.TrimSpace(strings.Join(pages, "\n\n")))
}

// ChunkText segments a single text. Paragraphs shorter than five words are
// dropped as layout noise before sectioning.
func (c *Chunker) ChunkText(text string) []Chunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	type sectioned struct {
		text    string
		section Section
	}
	current := SectionContent
	labeled := make([]sectioned, 0, len(paragraphs))
	for _, para := range paragraphs {
		if s, ok := detectSection(para); ok {
			current = s
		}
		labeled = append(labeled, sectioned{text: para, section: current})
	}

	var chunks []Chunk
	var pending []string
	pendingSection := SectionContent
	pendingWords := 0

	flush := func() {
		if len(pending) == 0 {
			return
		}
		chunks = appendChunk(chunks, strings.Join(pending, "\n\n"), pendingSection, c.opts)
		pending = nil
		pendingWords = 0
	}

	for _, para := range labeled {
		if para.section != pendingSection && len(pending) > 0 {
			flush()
		}
		pendingSection = para.section

		words := wordCount(para.text)
		// A single oversized paragraph is kept whole in its own chunk
		// rather than split mid-sentence.
		if words > c.opts.MaxWords {
			flush()
			chunks = appendChunk(chunks, para.text, para.section, c.opts)
			continue
		}
		if pendingWords+words > c.opts.MaxWords {
			flush()
		}
		pending = append(pending, para.text)
		pendingWords += words
		if pendingWords >= c.opts.TargetWords {
			flush()
		}
	}
	flush()

	// Fold a trailing undersized chunk into its predecessor when the merge
	// stays within bounds; otherwise it stands on its own.
	if n := len(chunks); n >= 2 && chunks[n-1].WordCount < c.opts.MinWords {
		merged := chunks[n-2].Text + "\n\n" + chunks[n-1].Text
		if mergedWords := wordCount(merged); mergedWords <= c.opts.MaxWords {
			chunks[n-2].Text = merged
			chunks[n-2].WordCount = mergedWords
			chunks = chunks[:n-1]
		}
	}

	for i := range chunks {
		chunks[i].Order = i + 1
	}
	return chunks
}

func appendChunk(chunks []Chunk, text string, section Section, _ ChunkerOptions) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return chunks
	}
	return append(chunks, Chunk{
		Section:   section,
		Text:      text,
		WordCount: wordCount(text),
	})
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(text string) []string {
	raw := paragraphSplit.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" && wordCount(p) >= 5 {
			out = append(out, p)
		}
	}
	return out
}

func detectSection(paragraph string) (Section, bool) {
	upper := strings.ToUpper(paragraph)
	for _, sp := range sectionPatterns {
		for _, pat := range sp.patterns {
			if pat.MatchString(upper) {
				return sp.section, true
			}
		}
	}
	return "", false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
