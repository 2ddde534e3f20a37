package rag

import "strings"

// PhraseFilterMode selects how aggressively candidate n-grams are filtered.
type PhraseFilterMode string

const (
	// PhraseFilterStrict keeps an n-gram only when it contains a
	// legal-domain keyword or matches a curated legal phrase pattern.
	PhraseFilterStrict PhraseFilterMode = "strict"
	// PhraseFilterRelaxed drops the keyword requirement but still rejects
	// stop-phrases and all-stop-word n-grams.
	PhraseFilterRelaxed PhraseFilterMode = "relaxed"
)

// ParsePhraseFilterMode validates a mode string from flags/config.
func ParsePhraseFilterMode(s string) (PhraseFilterMode, bool) {
	switch PhraseFilterMode(strings.ToLower(s)) {
	case PhraseFilterStrict:
		return PhraseFilterStrict, true
	case PhraseFilterRelaxed:
		return PhraseFilterRelaxed, true
	}
	return "", false
}

// defaultLegalKeywords is the shipped keyword list; any one keyword in an
// n-gram satisfies the strict filter.
var defaultLegalKeywords = []string{
	"court", "judge", "judgment", "trial", "appeal", "appellate", "motion",
	"order", "statute", "evidence", "testimony", "witness", "counsel",
	"attorney", "custody", "support", "maintenance", "parenting", "dissolution",
	"divorce", "property", "contract", "negligence", "liability", "damages",
	"sentence", "sentencing", "conviction", "plea", "discretion", "hearing",
	"petition", "jurisdiction", "remand", "affirm", "reverse", "dismiss",
	"rcw", "constitutional", "due", "process", "burden", "proof", "standard",
	"review", "findings", "conclusions", "fees", "restraining",
}

// defaultLegalPhrases is the curated phrase pattern set; an exact match
// satisfies the filter regardless of keywords.
var defaultLegalPhrases = []string{
	"due process", "best interests", "best interests of the child",
	"abuse of discretion", "substantial evidence", "de novo",
	"summary judgment", "burden of proof", "standard of review",
	"substantial change in circumstances", "findings of fact",
	"conclusions of law", "community property", "separate property",
	"parenting plan", "child support", "attorney fees",
	"ineffective assistance", "probable cause", "reasonable doubt",
	"statute of limitations", "equal protection", "prima facie",
	"res judicata", "collateral estoppel",
}

// defaultStopPhrases are rejected in every mode.
var defaultStopPhrases = []string{
	"of the", "in the", "to the", "on the", "for the", "at the", "by the",
	"and the", "with the", "from the", "that the", "of a", "in a", "to a",
	"is a", "was a", "it is", "it was", "there is", "there was",
	"as well as", "in order to", "with respect to",
}

// PhraseLists holds the filter vocabulary; zero-value fields fall back to
// the shipped defaults.
type PhraseLists struct {
	Keywords    []string
	Phrases     []string
	StopPhrases []string
}

func (l PhraseLists) build() (keywords, phrases, stops map[string]bool) {
	toSet := func(items, fallback []string) map[string]bool {
		if len(items) == 0 {
			items = fallback
		}
		m := make(map[string]bool, len(items))
		for _, it := range items {
			m[strings.ToLower(strings.TrimSpace(it))] = true
		}
		return m
	}
	return toSet(l.Keywords, defaultLegalKeywords),
		toSet(l.Phrases, defaultLegalPhrases),
		toSet(l.StopPhrases, defaultStopPhrases)
}

// Phrase is an aggregated per-case n-gram with its first observed location.
type Phrase struct {
	Text            string
	N               int
	Frequency       int
	ExampleChunk    int // chunk index into the document, 0-based
	ExampleSentence int // sentence index within that chunk, 0-based
}

// PhraseExtractor slides 2- to 4-gram windows over tokenized sentences and
// aggregates the survivors per case.
type PhraseExtractor struct {
	mode     PhraseFilterMode
	keywords map[string]bool
	phrases  map[string]bool
	stops    map[string]bool

	// Curated phrases longer than four tokens get their own windows; the
	// 2..4 sliding loop cannot see them.
	longPhrases [][]string
}

// NewPhraseExtractor builds an extractor for the given mode and vocabulary.
func NewPhraseExtractor(mode PhraseFilterMode, lists PhraseLists) *PhraseExtractor {
	kw, ph, st := lists.build()
	p := &PhraseExtractor{mode: mode, keywords: kw, phrases: ph, stops: st}
	for phrase := range ph {
		if toks := strings.Fields(phrase); len(toks) > 4 {
			p.longPhrases = append(p.longPhrases, toks)
		}
	}
	return p
}

// sentenceTokens locates a tokenized sentence inside its document.
type sentenceTokens struct {
	chunkIdx    int
	sentenceIdx int
	tokens      []string
}

// extract aggregates phrases over all sentences of a case, in document
// order, keeping the first observed location per phrase.
func (p *PhraseExtractor) extract(sentences []sentenceTokens) []Phrase {
	index := make(map[string]int)
	var out []Phrase

	record := func(st sentenceTokens, gram []string, text string) {
		if idx, ok := index[text]; ok {
			out[idx].Frequency++
			return
		}
		index[text] = len(out)
		out = append(out, Phrase{
			Text:            text,
			N:               len(gram),
			Frequency:       1,
			ExampleChunk:    st.chunkIdx,
			ExampleSentence: st.sentenceIdx,
		})
	}

	for _, st := range sentences {
		for n := 2; n <= 4; n++ {
			if len(st.tokens) < n {
				continue
			}
			for i := 0; i+n <= len(st.tokens); i++ {
				gram := st.tokens[i : i+n]
				text := strings.Join(gram, " ")
				if !p.keep(gram, text) {
					continue
				}
				record(st, gram, text)
			}
		}
		for _, lp := range p.longPhrases {
			n := len(lp)
			for i := 0; i+n <= len(st.tokens); i++ {
				gram := st.tokens[i : i+n]
				text := strings.Join(gram, " ")
				if p.phrases[text] {
					record(st, gram, text)
				}
			}
		}
	}
	return out
}

// keep applies the mode's filter to one candidate n-gram.
func (p *PhraseExtractor) keep(gram []string, text string) bool {
	if p.stops[text] {
		return false
	}
	if p.phrases[text] {
		return true
	}

	allStop := true
	hasKeyword := false
	for _, tok := range gram {
		if !stopWords[tok] {
			allStop = false
		}
		if p.keywords[tok] {
			hasKeyword = true
		}
	}
	if allStop {
		return false
	}
	if p.mode == PhraseFilterStrict {
		return hasKeyword
	}
	return true
}
