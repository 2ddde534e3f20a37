// Package pdfx extracts ordered page texts from opinion PDFs.
package pdfx

import (
	"fmt"
	"os"
	"strings"

	"github.com/dslipak/pdf"
)

// MaxFileSize caps the PDFs this pipeline will open.
const MaxFileSize = 50 * 1024 * 1024

// Extractor pulls page texts out of a PDF on disk.
type Extractor struct{}

// New returns a ready Extractor.
func New() *Extractor { return &Extractor{} }

// Pages returns one text per page, in document order. Pages that carry no
// extractable text come back as empty strings so ordering stays intact.
func (e *Extractor) Pages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat pdf %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("pdf %s exceeds %d byte limit", path, int64(MaxFileSize))
	}

	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}

	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}

// JoinPages concatenates page texts into the case full text.
func JoinPages(pages []string) string {
	return strings.TrimSpace(strings.Join(pages, "\n\n"))
}
