package assemble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caselakehq/caselake/internal/model"
)

func TestAssemble_CountyFromText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"superior court", "Appeal from King County Superior Court.", "King"},
		{"two word county", "on appeal from Walla Walla County", "Walla Walla"},
		{"plain mention", "venue lay in Snohomish County under the statute", "Snohomish"},
		{"no county", "nothing to see here", ""},
		{"case insensitive", "APPEAL FROM PIERCE COUNTY SUPERIOR COURT", "Pierce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, CountyFromText(tt.text))
		})
	}
}

func TestAssemble_MergePrefersScannedCounty(t *testing.T) {
	t.Parallel()

	meta := model.Metadata{
		CaseNumber: "39300-3",
		CaseTitle:  "State v. Smith",
		CourtLevel: model.CourtAppeals,
		Division:   "III",
	}
	llm := &model.ExtractedCase{County: "Spokane", Summary: "summary"}
	pages := []string{"Appeal from Yakima County Superior Court.", "ANALYSIS\n\nThe court held."}

	c := Merge(meta, pages, llm, "39300-3_III.pdf", "/tmp/39300-3_III.pdf")
	require.Equal(t, "Yakima", c.County)
	require.Equal(t, 2, c.PageCount)
	require.Contains(t, c.FullText, "ANALYSIS")
	require.Equal(t, "39300-3_III.pdf", c.SourceFile)
	require.Equal(t, meta, c.Meta)
}

func TestAssemble_CourtNaming(t *testing.T) {
	t.Parallel()

	supreme := model.Metadata{CourtLevel: model.CourtSupreme}
	require.Equal(t, "Washington State Supreme Court", CourtName(supreme))
	require.Equal(t, "", District(supreme))

	appeals := model.Metadata{CourtLevel: model.CourtAppeals, Division: "II", CaseNumber: "39300-3"}
	require.Equal(t, "Washington Court of Appeals Division II", CourtName(appeals))
	require.Equal(t, "Division II", District(appeals))
	require.Equal(t, "39300-3-II", DocketNumber(appeals))
}

func TestAssemble_Published(t *testing.T) {
	t.Parallel()

	require.True(t, Published(model.Metadata{PublicationStatus: "Published"}))
	require.False(t, Published(model.Metadata{PublicationStatus: "Unpublished"}))
	require.False(t, Published(model.Metadata{PublicationStatus: ""}))
}
