package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caselakehq/caselake/internal/model"
)

// wireCase mirrors the JSON object the extraction prompt requests.
type wireCase struct {
	Summary          string          `json:"summary"`
	CaseCategory     string          `json:"case_category"`
	OriginatingCourt wireCourt       `json:"originating_court"`
	Outcome          wireOutcome     `json:"outcome"`
	Parties          []wireParty     `json:"parties_parsed"`
	Representation   []wireAttorney  `json:"legal_representation"`
	JudicialPanel    []wireJudge     `json:"judicial_panel"`
	CasesCited       []wireCitation  `json:"cases_cited"`
	LegalAnalysis    wireAnalysis    `json:"legal_analysis"`
	ProceduralDates  wireDates       `json:"procedural_dates"`
}

type wireCourt struct {
	County             string `json:"county"`
	CourtName          string `json:"court_name"`
	TrialJudge         string `json:"trial_judge"`
	SourceDocketNumber string `json:"source_docket_number"`
}

type wireOutcome struct {
	Disposition        string `json:"disposition"`
	Details            string `json:"details"`
	PrevailingParty    string `json:"prevailing_party"`
	WinnerPersonalRole string `json:"winner_personal_role"`
}

type wireParty struct {
	Name          string `json:"name"`
	AppellateRole string `json:"appellate_role"`
	TrialRole     string `json:"trial_role"`
	Type          string `json:"type"`
	PersonalRole  string `json:"personal_role"`
}

type wireAttorney struct {
	AttorneyName string `json:"attorney_name"`
	Representing string `json:"representing"`
	FirmOrAgency string `json:"firm_or_agency"`
}

type wireJudge struct {
	JudgeName string `json:"judge_name"`
	Role      string `json:"role"`
}

type wireCitation struct {
	FullCitation string `json:"full_citation"`
	CaseName     string `json:"case_name"`
	Relationship string `json:"relationship"`
}

type wireAnalysis struct {
	KeyStatutesCited []string    `json:"key_statutes_cited"`
	Issues           []wireIssue `json:"issues"`
}

type wireIssue struct {
	CaseType           string     `json:"case_type"`
	Category           string     `json:"category"`
	Subcategory        string     `json:"subcategory"`
	Question           string     `json:"question"`
	Ruling             string     `json:"ruling"`
	Outcome            string     `json:"outcome"`
	WinnerLegalRole    string     `json:"winner_legal_role"`
	WinnerPersonalRole string     `json:"winner_personal_role"`
	RelatedRCWs        []string   `json:"related_rcws"`
	Keywords           []string   `json:"keywords"`
	Confidence         flexNumber `json:"confidence"`
	AppellantArgument  string     `json:"appellant_argument"`
	RespondentArgument string     `json:"respondent_argument"`
}

type wireDates struct {
	OralArgumentDate string `json:"oral_argument_date"`
	OpinionFiledDate string `json:"opinion_filed_date"`
}

// flexNumber decodes a JSON number, a numeric string, or null.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

// extractJSON slices the first brace-bounded object out of an LLM response,
// tolerating markdown fences and surrounding prose.
func extractJSON(response string) string {
	text := strings.TrimSpace(response)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

// parseResponse decodes an LLM response into the wire schema.
func parseResponse(response string) (*wireCase, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	var wc wireCase
	if err := json.Unmarshal([]byte(jsonStr), &wc); err != nil {
		return nil, fmt.Errorf("parse extraction JSON: %w", err)
	}
	return &wc, nil
}

// dateLayouts covers the date spellings the model emits despite the
// YYYY-MM-DD instruction.
var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"1/2/2006",
}

func parseWireDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || isNullish(s) {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func isNullish(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "none", "n/a", "not mentioned", "not specified", "unknown":
		return true
	}
	return false
}

// clean maps nullish placeholder strings to empty.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if isNullish(s) {
		return ""
	}
	return s
}

// buildCase converts the wire schema into the model fields the assembler
// merges, applying enum coercions and nullish cleanup.
func buildCase(wc *wireCase) *model.ExtractedCase {
	c := &model.ExtractedCase{}

	c.Summary = clean(wc.Summary)
	c.CaseType = firstPipeField(clean(wc.CaseCategory))
	c.County = clean(wc.OriginatingCourt.County)
	c.TrialCourt = clean(wc.OriginatingCourt.CourtName)
	c.TrialJudge = clean(wc.OriginatingCourt.TrialJudge)
	c.SourceDocketNumber = clean(wc.OriginatingCourt.SourceDocketNumber)
	if out, ok := model.CoerceOutcome(clean(wc.Outcome.Disposition)); ok {
		c.AppealOutcome = out
	}
	c.OutcomeDetail = clean(wc.Outcome.Details)
	c.WinnerLegalRole = clean(wc.Outcome.PrevailingParty)
	c.WinnerPersonalRole = clean(wc.Outcome.WinnerPersonalRole)
	c.OpinionFiledDate = parseWireDate(wc.ProceduralDates.OpinionFiledDate)

	for _, p := range wc.Parties {
		name := clean(p.Name)
		if name == "" {
			continue
		}
		role := clean(p.AppellateRole)
		if role == "" {
			role = "Unknown"
		}
		if trial := clean(p.TrialRole); trial != "" {
			role = fmt.Sprintf("%s (%s)", role, trial)
		}
		c.Parties = append(c.Parties, model.Party{
			Name:         name,
			LegalRole:    role,
			PersonalRole: clean(p.PersonalRole),
			PartyType:    clean(p.Type),
		})
	}

	for _, a := range wc.Representation {
		name := clean(a.AttorneyName)
		if name == "" {
			continue
		}
		c.Attorneys = append(c.Attorneys, model.Attorney{
			Name:             name,
			Firm:             clean(a.FirmOrAgency),
			RepresentingRole: clean(a.Representing),
		})
	}

	for _, j := range wc.JudicialPanel {
		name := clean(j.JudgeName)
		if name == "" {
			continue
		}
		c.Judges = append(c.Judges, model.Judge{
			Name: name,
			Role: model.CoerceJudgeRole(clean(j.Role)),
		})
	}

	for _, cit := range wc.CasesCited {
		full := clean(cit.FullCitation)
		if full == "" {
			continue
		}
		c.Citations = append(c.Citations, model.Citation{
			FullCitation: full,
			CaseName:     clean(cit.CaseName),
			Relationship: model.CoerceRelationship(clean(cit.Relationship)),
		})
	}

	for _, s := range wc.LegalAnalysis.KeyStatutesCited {
		if cit := clean(s); cit != "" {
			c.Statutes = append(c.Statutes, model.StatuteRef{Citation: cit})
		}
	}

	for _, i := range wc.LegalAnalysis.Issues {
		summary := clean(i.Question)
		if summary == "" {
			continue
		}
		issue := model.Issue{
			CaseType:           orDefault(clean(i.CaseType), "Other"),
			Category:           orDefault(clean(i.Category), "General"),
			Subcategory:        clean(i.Subcategory),
			Summary:            summary,
			DecisionSummary:    clean(i.Ruling),
			WinnerLegalRole:    clean(i.WinnerLegalRole),
			WinnerPersonalRole: clean(i.WinnerPersonalRole),
			Confidence:         float64(i.Confidence),
			AppellantArgument:  clean(i.AppellantArgument),
			RespondentArgument: clean(i.RespondentArgument),
		}
		if out, ok := model.CoerceOutcome(clean(i.Outcome)); ok {
			issue.Outcome = out
		}
		for _, rcw := range i.RelatedRCWs {
			if r := clean(rcw); r != "" {
				issue.RCWReferences = append(issue.RCWReferences, r)
			}
		}
		for _, kw := range i.Keywords {
			if k := clean(kw); k != "" {
				issue.Keywords = append(issue.Keywords, k)
			}
		}
		c.Issues = append(c.Issues, issue)
	}

	return c
}

// firstPipeField keeps the first value of a pipe-separated category the
// model sometimes emits ("Civil | Contract").
func firstPipeField(s string) string {
	if i := strings.IndexByte(s, '|'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
