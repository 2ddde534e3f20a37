// Package assemble merges metadata-sheet fields with the LLM extraction
// into the canonical case record the inserter writes.
package assemble

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/caselakehq/caselake/internal/model"
	"github.com/caselakehq/caselake/internal/pdfx"
)

// washingtonCounties is the official 39-county list used for the regex
// pre-scan; a county found in the text overrides the LLM's answer.
var washingtonCounties = []string{
	"adams", "asotin", "benton", "chelan", "clark", "clallam", "columbia",
	"cowlitz", "douglas", "ferry", "franklin", "garfield", "grant",
	"grays harbor", "island", "jefferson", "king", "kitsap", "kittitas",
	"klickitat", "lewis", "lincoln", "mason", "okanogan", "pacific",
	"pend oreille", "pierce", "san juan", "skagit", "skamania",
	"snohomish", "spokane", "stevens", "thurston", "wahkiakum",
	"walla walla", "whatcom", "whitman", "yakima",
}

var countyPatterns = buildCountyPatterns()

func buildCountyPatterns() map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(washingtonCounties))
	for _, county := range washingtonCounties {
		quoted := regexp.QuoteMeta(county)
		out[county] = []*regexp.Regexp{
			regexp.MustCompile(`\b` + quoted + ` county superior court\b`),
			regexp.MustCompile(`\bappeal from ` + quoted + ` county\b`),
			regexp.MustCompile(`\b` + quoted + ` county\b`),
		}
	}
	return out
}

// countyScanWindow bounds the text prefix searched for county mentions;
// the caption and appeal-origin line sit near the top of the opinion.
const countyScanWindow = 15000

// CountyFromText scans the opinion text for a Washington county mention and
// returns it in title case, or "" when none matches.
func CountyFromText(text string) string {
	window := strings.ToLower(text)
	if len(window) > countyScanWindow {
		window = window[:countyScanWindow]
	}
	for _, county := range washingtonCounties {
		for _, pat := range countyPatterns[county] {
			if pat.MatchString(window) {
				return titleCase(county)
			}
		}
	}
	return ""
}

func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Merge combines the metadata sheet row, the extracted page texts, and the
// LLM result into one case record. The sheet wins for identity fields
// (title, court, decision year and month, publication); the LLM wins for
// analysis fields and for the opinion filed date, which falls back to the
// sheet's file date when the LLM gives none; a county found by the pre-scan
// of the opening text (see countyScanWindow) wins over the LLM's county.
func Merge(meta model.Metadata, pages []string, llm *model.ExtractedCase, sourceFile, sourcePath string) *model.ExtractedCase {
	c := *llm
	c.Meta = meta
	c.Pages = pages
	c.PageCount = len(pages)
	c.FullText = pdfx.JoinPages(pages)
	c.SourceFile = sourceFile
	c.SourcePath = sourcePath

	if county := CountyFromText(c.FullText); county != "" {
		c.County = county
	}
	if c.OpinionFiledDate.IsZero() {
		c.OpinionFiledDate = meta.FileDate
	}
	return &c
}

// CourtName derives the full court name from the sheet's level and
// division, e.g. "Washington Court of Appeals Division III".
func CourtName(meta model.Metadata) string {
	switch meta.CourtLevel {
	case model.CourtSupreme:
		return "Washington State Supreme Court"
	case model.CourtAppeals:
		return strings.TrimSpace(fmt.Sprintf("Washington Court of Appeals Division %s", meta.Division))
	default:
		if meta.CourtLevel == "" {
			return ""
		}
		return fmt.Sprintf("Washington %s", meta.CourtLevel)
	}
}

// District renders the sheet division as the stored district value
// ("Division III"), or "" when the court has no division.
func District(meta model.Metadata) string {
	if meta.Division == "" {
		return ""
	}
	return "Division " + meta.Division
}

// DocketNumber renders the docket as the sheet spells it, with the division
// suffix when present ("39300-3-III").
func DocketNumber(meta model.Metadata) string {
	if meta.Division == "" {
		return meta.CaseNumber
	}
	return meta.CaseNumber + "-" + meta.Division
}

// Published reports whether the sheet marks the opinion published.
func Published(meta model.Metadata) bool {
	return strings.Contains(strings.ToLower(meta.PublicationStatus), "published") &&
		!strings.Contains(strings.ToLower(meta.PublicationStatus), "unpublished")
}
