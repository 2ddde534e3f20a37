package store

import (
	"context"
	"fmt"
	"strings"
)

// VerifyReport is the outcome of --verify for one case.
type VerifyReport struct {
	CaseID           int64
	CaseFileID       string
	Title            string
	CourtLevel       string
	ProcessingStatus string
	Counts           map[string]int64
	Problems         []string
}

// OK reports whether every invariant held.
func (r *VerifyReport) OK() bool { return len(r.Problems) == 0 }

// Summary renders the report for the CLI.
func (r *VerifyReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "case %d (%s) %q [%s] status=%s\n",
		r.CaseID, r.CaseFileID, r.Title, r.CourtLevel, r.ProcessingStatus)
	for _, table := range []string{
		"party", "attorney", "case_judge", "issue_decision", "argument",
		"citation_edge", "statute_citation", "case_chunk", "case_sentence",
		"word_occurrence", "case_phrase", "embedding",
	} {
		fmt.Fprintf(&b, "  %-18s %d\n", table, r.Counts[table])
	}
	if r.OK() {
		b.WriteString("  all invariants hold\n")
	} else {
		for _, p := range r.Problems {
			fmt.Fprintf(&b, "  PROBLEM: %s\n", p)
		}
	}
	return b.String()
}

// dependentCountQueries drive the per-table counts in the report.
var dependentCountQueries = map[string]string{
	"party":            `SELECT COUNT(*) FROM party WHERE case_id = $1`,
	"attorney":         `SELECT COUNT(*) FROM attorney WHERE case_id = $1`,
	"case_judge":       `SELECT COUNT(*) FROM case_judge WHERE case_id = $1`,
	"issue_decision":   `SELECT COUNT(*) FROM issue_decision WHERE case_id = $1`,
	"argument":         `SELECT COUNT(*) FROM argument WHERE issue_id IN (SELECT id FROM issue_decision WHERE case_id = $1)`,
	"citation_edge":    `SELECT COUNT(*) FROM citation_edge WHERE source_case_id = $1`,
	"statute_citation": `SELECT COUNT(*) FROM statute_citation WHERE case_id = $1`,
	"case_chunk":       `SELECT COUNT(*) FROM case_chunk WHERE case_id = $1`,
	"case_sentence":    `SELECT COUNT(*) FROM case_sentence WHERE case_id = $1`,
	"word_occurrence":  `SELECT COUNT(*) FROM word_occurrence WHERE case_id = $1`,
	"case_phrase":      `SELECT COUNT(*) FROM case_phrase WHERE case_id = $1`,
	"embedding":        `SELECT COUNT(*) FROM embedding WHERE case_id = $1`,
}

// Verify loads a case and checks the dense-ordering and normalization
// invariants the pipeline promises.
func (s *Store) Verify(ctx context.Context, caseID int64) (*VerifyReport, error) {
	r := &VerifyReport{CaseID: caseID, Counts: make(map[string]int64)}

	var normalized string
	err := s.pool.QueryRow(ctx, `
		SELECT case_file_id, case_file_id_normalized, title, court_level, processing_status
		FROM "case" WHERE case_id = $1`, caseID,
	).Scan(&r.CaseFileID, &normalized, &r.Title, &r.CourtLevel, &r.ProcessingStatus)
	if err != nil {
		return nil, fmt.Errorf("load case %d: %w", caseID, err)
	}

	if want := normalizedID(r.CaseFileID); normalized != want {
		r.Problems = append(r.Problems,
			fmt.Sprintf("case_file_id_normalized = %q, want %q", normalized, want))
	}

	for table, query := range dependentCountQueries {
		var n int64
		if err := s.pool.QueryRow(ctx, query, caseID).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		r.Counts[table] = n
	}

	// chunk_order must be exactly 1..N.
	var chunkGaps int64
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT chunk_order, ROW_NUMBER() OVER (ORDER BY chunk_order) AS rn
			FROM case_chunk WHERE case_id = $1
		) t WHERE chunk_order <> rn`, caseID).Scan(&chunkGaps)
	if err != nil {
		return nil, fmt.Errorf("check chunk ordering: %w", err)
	}
	if chunkGaps > 0 {
		r.Problems = append(r.Problems, fmt.Sprintf("%d chunks out of dense order", chunkGaps))
	}

	// global_sentence_order must be exactly 1..K following (chunk_order,
	// sentence_order).
	var sentenceGaps int64
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT s.global_sentence_order,
			       ROW_NUMBER() OVER (ORDER BY c.chunk_order, s.sentence_order) AS rn
			FROM case_sentence s
			JOIN case_chunk c ON c.chunk_id = s.chunk_id
			WHERE s.case_id = $1
		) t WHERE global_sentence_order <> rn`, caseID).Scan(&sentenceGaps)
	if err != nil {
		return nil, fmt.Errorf("check sentence ordering: %w", err)
	}
	if sentenceGaps > 0 {
		r.Problems = append(r.Problems, fmt.Sprintf("%d sentences out of dense global order", sentenceGaps))
	}

	// Occurrence positions per sentence must be 0..word_count-1 exactly.
	var badSentences int64
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM case_sentence s
		WHERE s.case_id = $1
		  AND s.word_count <> (
			SELECT COUNT(*) FROM word_occurrence o WHERE o.sentence_id = s.sentence_id
		  )`, caseID).Scan(&badSentences)
	if err != nil {
		return nil, fmt.Errorf("check occurrence counts: %w", err)
	}
	if badSentences > 0 {
		r.Problems = append(r.Problems,
			fmt.Sprintf("%d sentences whose occurrence count differs from word_count", badSentences))
	}

	var badPositions int64
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT sentence_id, position,
			       ROW_NUMBER() OVER (PARTITION BY sentence_id ORDER BY position) - 1 AS rn
			FROM word_occurrence WHERE case_id = $1
		) t WHERE position <> rn`, caseID).Scan(&badPositions)
	if err != nil {
		return nil, fmt.Errorf("check occurrence positions: %w", err)
	}
	if badPositions > 0 {
		r.Problems = append(r.Problems,
			fmt.Sprintf("%d occurrences with non-dense positions", badPositions))
	}

	return r, nil
}
