package rag

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\w'-]+`)

// Tokenize normalizes text into dictionary tokens: lowercase, surrounding
// punctuation stripped, internal hyphens and apostrophes kept, possessive
// 's dropped. Tokens must be at least two characters and contain a letter.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.Trim(tok, "'-")
		tok = strings.TrimSuffix(tok, "'s")
		tok = strings.TrimSuffix(tok, "'")
		if len(tok) < 2 || !containsLetter(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// stopWords mark n-grams made only of stop words, which the phrase filter
// rejects; occurrence indexing keeps them so positions stay dense.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true,
	"was": true, "are": true, "were": true, "been": true, "be": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "must": true, "shall": true, "can": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "not": true, "no": true, "nor": true, "so": true,
	"than": true, "too": true, "very": true, "also": true, "however": true,
	"therefore": true, "thus": true,
}
