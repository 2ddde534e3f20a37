package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize_Rules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercase", "The COURT Ruled", []string{"the", "court", "ruled"}},
		{"possessive dropped", "the court's ruling", []string{"the", "court", "ruling"}},
		{"plural possessive", "the judges' opinions", []string{"the", "judges", "opinions"}},
		{"hyphen kept", "well-reasoned decision", []string{"well-reasoned", "decision"}},
		{"apostrophe kept", "don't waive", []string{"don't", "waive"}},
		{"single char dropped", "a b cd", []string{"cd"}},
		{"digits only dropped", "42 12 abc", []string{"abc"}},
		{"mixed alnum kept", "9th circuit", []string{"9th", "circuit"}},
		{"punctuation stripped", "ruled, (finally); done.", []string{"ruled", "finally", "done"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestTokenize_PositionsAreDense(t *testing.T) {
	t.Parallel()

	toks := Tokenize("The court affirmed the trial court's order.")
	require.Equal(t, []string{"the", "court", "affirmed", "the", "trial", "court", "order"}, toks)
}
