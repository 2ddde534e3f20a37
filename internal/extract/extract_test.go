package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/caselakehq/caselake/internal/model"
)

type mockClient struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *mockClient) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, userPrompt)
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var resp string
	if i < len(m.responses) {
		resp = m.responses[i]
	}
	return resp, err
}

func newTestExtractor(t *testing.T, client CompletionClient) *Extractor {
	t.Helper()
	e, err := New(&Config{
		Logger: slog.New(slog.DiscardHandler),
		Client: client,
		Clock:  clockwork.NewFakeClock(),
		Model:  "test-model",
	})
	require.NoError(t, err)
	return e
}

const validResponse = `{
  "summary": "The court affirmed the trial court.",
  "case_category": "Family",
  "originating_court": {"county": "King", "court_name": "King County Superior Court", "trial_judge": "Judge Roe", "source_docket_number": "12-3-45678-9"},
  "outcome": {"disposition": "Affirmed", "details": "Affirmed in full", "prevailing_party": "Respondent", "winner_personal_role": "Parent"},
  "parties_parsed": [
    {"name": "Jane Doe", "appellate_role": "Appellant", "trial_role": "Plaintiff", "type": "Individual", "personal_role": "Parent"},
    {"name": "John Doe", "appellate_role": "Respondent", "trial_role": null, "type": "Individual", "personal_role": "null"}
  ],
  "legal_representation": [
    {"attorney_name": "Ada Counsel", "representing": "Jane Doe", "firm_or_agency": "Counsel LLP"}
  ],
  "judicial_panel": [
    {"judge_name": "Smith", "role": "Author"},
    {"judge_name": "Jones", "role": "Signatory"}
  ],
  "cases_cited": [
    {"full_citation": "State v. Smith, 150 Wn.2d 489 (2003)", "case_name": "State v. Smith", "relationship": "relied_upon"}
  ],
  "legal_analysis": {
    "key_statutes_cited": ["RCW 26.09.187"],
    "issues": [
      {"case_type": "Family", "category": "Parenting Plan", "subcategory": "Residential Schedule",
       "question": "Did the trial court abuse its discretion in the residential schedule?",
       "ruling": "No abuse of discretion.", "outcome": "Affirmed",
       "winner_legal_role": "Respondent", "winner_personal_role": "Parent",
       "related_rcws": ["RCW 26.09.187"], "keywords": ["parenting plan", "residential schedule"],
       "confidence": "0.9",
       "appellant_argument": "The schedule ignored work constraints.",
       "respondent_argument": "The schedule serves the children's best interests."}
    ]
  },
  "procedural_dates": {"oral_argument_date": null, "opinion_filed_date": "2024-01-16"}
}`

func TestExtract_ParsesValidResponse(t *testing.T) {
	t.Parallel()

	client := &mockClient{responses: []string{validResponse}}
	e := newTestExtractor(t, client)

	c, err := e.Extract(context.Background(), "some case text")
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)

	require.Equal(t, "Family", c.CaseType)
	require.Equal(t, "King", c.County)
	require.Equal(t, model.OutcomeAffirmed, c.AppealOutcome)
	require.Equal(t, "Respondent", c.WinnerLegalRole)
	require.Equal(t, "2024-01-16", c.OpinionFiledDate.Format("2006-01-02"))

	require.Len(t, c.Parties, 2)
	require.Equal(t, "Appellant (Plaintiff)", c.Parties[0].LegalRole)
	require.Equal(t, "Respondent", c.Parties[1].LegalRole)
	require.Empty(t, c.Parties[1].PersonalRole) // "null" string cleaned

	require.Len(t, c.Judges, 2)
	require.Equal(t, model.JudgeAuthor, c.Judges[0].Role)
	require.Equal(t, model.JudgeConcurring, c.Judges[1].Role) // Signatory coerced

	require.Len(t, c.Citations, 1)
	require.Equal(t, model.RelFollows, c.Citations[0].Relationship)

	require.Len(t, c.Statutes, 1)
	require.Len(t, c.Issues, 1)
	require.Equal(t, "Residential Schedule", c.Issues[0].Subcategory)
	require.InDelta(t, 0.9, c.Issues[0].Confidence, 1e-9)
	require.Equal(t, "test-model", c.LLMModel)
	require.False(t, c.ExtractionTimestamp.IsZero())
}

func TestExtract_RetriesOnceOnParseFailure(t *testing.T) {
	t.Parallel()

	client := &mockClient{responses: []string{"I cannot produce JSON, sorry.", "```json\n" + validResponse + "\n```"}}
	e := newTestExtractor(t, client)

	c, err := e.Extract(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)
	require.Contains(t, client.prompts[1], "REMINDER")
	require.Equal(t, "Family", c.CaseType)
}

func TestExtract_FailsAfterSecondParseFailure(t *testing.T) {
	t.Parallel()

	client := &mockClient{responses: []string{"garbage", "more garbage"}}
	e := newTestExtractor(t, client)

	_, err := e.Extract(context.Background(), "text")
	require.Error(t, err)
	require.Equal(t, 2, client.calls)
}

func TestExtract_PropagatesClientError(t *testing.T) {
	t.Parallel()

	client := &mockClient{errs: []error{errors.New("connection refused")}}
	e := newTestExtractor(t, client)

	_, err := e.Extract(context.Background(), "text")
	require.Error(t, err)
	require.Equal(t, 1, client.calls)
}

func TestTruncate_ShortTextPassesThrough(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 100)
	require.Equal(t, text, Truncate(text, 25000))
}

func TestTruncate_SamplesHeadMiddleTail(t *testing.T) {
	t.Parallel()

	head := strings.Repeat("H", 6000)
	middle := strings.Repeat("M", 20000)
	tail := strings.Repeat("T", 6000)
	text := head + middle + tail

	got := Truncate(text, 10000)
	require.Less(t, len(got), len(text))
	require.True(t, strings.HasPrefix(got, "HHHH"))
	require.True(t, strings.HasSuffix(got, "TTTT"))
	require.Contains(t, got, "MMMM")
	require.Contains(t, got, "[...document continues...]")

	// Budget shares: 40% head, 25% tail.
	require.Equal(t, strings.Repeat("H", 4000), got[:4000])
	require.Equal(t, strings.Repeat("T", 2500), got[len(got)-2500:])
}

func TestExtractJSON_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose wrapped", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"no object", "no json here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestCoerceOutcome_UnknownBecomesMixed(t *testing.T) {
	t.Parallel()

	out, ok := model.CoerceOutcome("Partially Affirmed")
	require.True(t, ok)
	require.Equal(t, model.OutcomeMixed, out)

	_, ok = model.CoerceOutcome("")
	require.False(t, ok)
}
