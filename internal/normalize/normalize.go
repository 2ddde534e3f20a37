// Package normalize holds the case-file id normalization used as the join
// key between PDF filenames and the metadata sheet, and as half of the
// natural key on the cases table.
package normalize

import "strings"

// CaseFileID strips every non-digit rune from a court case-file identifier.
// "69423-5", "694235" and "69423-5-I" all normalize to "694235".
func CaseFileID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CaseFileIDFromFilename normalizes the case-file id encoded in a PDF
// filename, e.g. "39300-3_III.pdf" -> "393003".
func CaseFileIDFromFilename(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return CaseFileID(base)
}
