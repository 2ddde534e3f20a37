package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_CaseFileID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"69423-5", "694235"},
		{"694235", "694235"},
		{"69423-5-I", "694235"},
		{"102586-6", "1025866"},
		{"", ""},
		{"no digits", ""},
		{" 39300-3 ", "393003"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, CaseFileID(tt.in), "CaseFileID(%q)", tt.in)
	}
}

func TestNormalize_CaseFileIDFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"39300-3_III.pdf", "393003"},
		{"102586-6.pdf", "1025866"},
		{"downloads/opinions/69423-5.pdf", "694235"},
		{"69423-5", "694235"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, CaseFileIDFromFilename(tt.in), "CaseFileIDFromFilename(%q)", tt.in)
	}
}
