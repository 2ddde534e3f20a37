package metadata

import (
	"strings"
	"testing"

	"github.com/caselakehq/caselake/internal/model"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `case_number,case_title,opinion_type,publication_status,year,month,file_date,division,pdf_url,case_info_url,pdf_filename
102586-6,Pub. Util. Dist. No. 1 v. State,Supreme Court Opinion,Published,2025,January,"Jan. 16, 2025",,https://example.test/102586-6.pdf,,102586-6.pdf
39300-3,State v. Smith,Court of Appeals Opinion,Unpublished,2024,March,"Mar. 4, 2024",III,,,39300-3_III.pdf
,Missing Number,Court of Appeals Opinion,Published,2024,,,,,,"orphan.pdf"
`

func TestMetadata_ParseAndLookup(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 2, sheet.Len())

	m, ok := sheet.Lookup("102586-6.pdf")
	require.True(t, ok)
	require.Equal(t, "Pub. Util. Dist. No. 1 v. State", m.CaseTitle)
	require.Equal(t, model.CourtSupreme, m.CourtLevel)
	require.Equal(t, 2025, m.Year)
	require.Equal(t, "January", m.Month)
	require.False(t, m.FileDate.IsZero())
	require.Equal(t, 2025, m.FileDate.Year())

	// Join is by normalized digits, not exact filename.
	m2, ok := sheet.Lookup("downloads/39300-3_III.pdf")
	require.True(t, ok)
	require.Equal(t, "III", m2.Division)
	require.Equal(t, model.CourtAppeals, m2.CourtLevel)

	_, ok = sheet.Lookup("99999-9.pdf")
	require.False(t, ok)
}

func TestMetadata_DeriveCourtLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opinionType string
		want        model.CourtLevel
	}{
		{"Supreme Court Opinion", model.CourtSupreme},
		{"Court of Appeals Opinion", model.CourtAppeals},
		{"appellate opinion", model.CourtAppeals},
		{"Superior Court", model.CourtSuperior},
		{"", model.CourtAppeals},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, deriveCourtLevel(tt.opinionType), "opinionType=%q", tt.opinionType)
	}
}

func TestMetadata_ParseRejectsMissingCaseNumberColumn(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("title,year\nfoo,2024\n"))
	require.Error(t, err)
}
