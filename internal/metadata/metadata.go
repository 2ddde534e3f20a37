// Package metadata loads the scraper's CSV sheet and indexes it by
// normalized case-file id for the PDF join.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caselakehq/caselake/internal/model"
	"github.com/caselakehq/caselake/internal/normalize"
)

// Sheet is the loaded metadata sheet, indexed by normalized case-file id.
type Sheet struct {
	rows map[string]model.Metadata
}

// fileDateLayouts covers the date spellings seen in the scraper output.
var fileDateLayouts = []string{
	"Jan. 2, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02",
	"1/2/2006",
}

// Load reads the CSV sheet at path. Rows without a case_number are skipped.
// Later rows with the same normalized id overwrite earlier ones.
func Load(log *slog.Logger, path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata sheet: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse metadata sheet %s: %w", path, err)
	}
	log.Info("loaded metadata sheet", "path", path, "rows", len(s.rows))
	return s, nil
}

// Parse reads CSV rows from r. The first record is the header; column order
// is not assumed.
func Parse(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := col["case_number"]; !ok {
		return nil, fmt.Errorf("metadata sheet has no case_number column")
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	sheet := &Sheet{rows: make(map[string]model.Metadata)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		m := model.Metadata{
			CaseNumber:        field(rec, "case_number"),
			CaseTitle:         field(rec, "case_title"),
			OpinionType:       field(rec, "opinion_type"),
			PublicationStatus: field(rec, "publication_status"),
			Division:          field(rec, "division"),
			Month:             field(rec, "month"),
			PDFURL:            field(rec, "pdf_url"),
			CaseInfoURL:       field(rec, "case_info_url"),
			PDFFilename:       field(rec, "pdf_filename"),
		}
		if m.CaseNumber == "" {
			continue
		}
		if y := field(rec, "year"); y != "" {
			if n, err := strconv.Atoi(y); err == nil {
				m.Year = n
			}
		}
		if d := field(rec, "file_date"); d != "" {
			m.FileDate = parseFileDate(d)
		}
		m.CourtLevel = deriveCourtLevel(m.OpinionType)

		sheet.rows[normalize.CaseFileID(m.CaseNumber)] = m
	}
	return sheet, nil
}

// Lookup joins a PDF filename against the sheet by normalized id.
func (s *Sheet) Lookup(pdfFilename string) (model.Metadata, bool) {
	m, ok := s.rows[normalize.CaseFileIDFromFilename(pdfFilename)]
	return m, ok
}

// LookupID joins an already-normalized case-file id.
func (s *Sheet) LookupID(normalizedID string) (model.Metadata, bool) {
	m, ok := s.rows[normalizedID]
	return m, ok
}

// Row returns the nth row (1-indexed, sheet order is not preserved across
// duplicate ids). Used by the single-file --row mode.
func (s *Sheet) Row(n int) (model.Metadata, bool) {
	if n < 1 || n > len(s.rows) {
		return model.Metadata{}, false
	}
	// Deterministic order is not required here; the caller selects by the
	// sheet it authored.
	i := 1
	for _, m := range s.rows {
		if i == n {
			return m, true
		}
		i++
	}
	return model.Metadata{}, false
}

// Len reports the number of indexed rows.
func (s *Sheet) Len() int { return len(s.rows) }

func parseFileDate(s string) time.Time {
	for _, layout := range fileDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func deriveCourtLevel(opinionType string) model.CourtLevel {
	lower := strings.ToLower(opinionType)
	switch {
	case strings.Contains(lower, "supreme"):
		return model.CourtSupreme
	case strings.Contains(lower, "appeal"):
		return model.CourtAppeals
	case strings.Contains(lower, "superior"):
		return model.CourtSuperior
	case strings.Contains(lower, "district"):
		return model.CourtDistrict
	case strings.Contains(lower, "municipal"):
		return model.CourtMunicipal
	default:
		return model.CourtAppeals
	}
}
