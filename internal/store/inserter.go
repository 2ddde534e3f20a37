package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/caselakehq/caselake/internal/assemble"
	"github.com/caselakehq/caselake/internal/model"
	"github.com/caselakehq/caselake/internal/normalize"
	"github.com/caselakehq/caselake/internal/rag"
)

// ErrIndexing tags failures of the RAG/embedding stages so the
// orchestrator can classify them apart from plain database errors.
var ErrIndexing = errors.New("indexing failed")

// Embedder produces fixed-dimension vectors; defined here so the inserter
// does not depend on the HTTP client.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// InserterConfig wires an Inserter. One Inserter per worker: the dimension
// cache inside is not shared across goroutines.
type InserterConfig struct {
	Logger *slog.Logger
	Store  *Store

	// Optional.
	Embedder        Embedder
	ChunkEmbeddings rag.ChunkEmbeddingMode
	WordBatch       int
}

func (c *InserterConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Store == nil {
		return errors.New("store is required")
	}
	if c.ChunkEmbeddings == "" {
		c.ChunkEmbeddings = rag.EmbedAll
	}
	if c.WordBatch == 0 {
		c.WordBatch = maxRowsPerStatement
	}
	if c.WordBatch < 1 {
		return errors.New("word batch must be >= 1")
	}
	return nil
}

// Inserter writes one case and all its dependents in a single transaction.
type Inserter struct {
	log  *slog.Logger
	cfg  *InserterConfig
	dims *Dimensions
}

// NewInserter validates cfg and returns a per-worker Inserter.
func NewInserter(cfg *InserterConfig) (*Inserter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	return &Inserter{log: cfg.Logger, cfg: cfg, dims: NewDimensions()}, nil
}

// Result summarizes one committed case.
type Result struct {
	CaseID     int64
	Updated    bool
	Chunks     int
	Sentences  int
	Words      int
	Phrases    int
	Embeddings int
}

// InsertCase writes the case and, when doc is non-nil, its retrieval
// artifacts. Everything happens in one transaction: any failure leaves no
// rows behind. A deadlock is retried once with a fresh transaction.
func (ins *Inserter) InsertCase(ctx context.Context, c *model.ExtractedCase, doc *rag.Document) (Result, error) {
	res, err := ins.insertOnce(ctx, c, doc)
	if err != nil && IsDeadlock(err) {
		ins.log.Warn("deadlock detected, retrying case transaction", "caseFileID", c.Meta.CaseNumber)
		res, err = ins.insertOnce(ctx, c, doc)
	}
	return res, err
}

func (ins *Inserter) insertOnce(ctx context.Context, c *model.ExtractedCase, doc *rag.Document) (Result, error) {
	// The case-level embedding is produced before the transaction opens so
	// a slow embedding service does not hold row locks.
	var fullEmbedding []float32
	if ins.cfg.Embedder != nil && len(c.FullText) > 100 {
		embedText := c.Summary + "\n\n" + c.FullText
		vec, err := ins.cfg.Embedder.EmbedOne(ctx, embedText)
		if err != nil {
			return Result{}, fmt.Errorf("case embedding: %w: %w", ErrIndexing, err)
		}
		fullEmbedding = vec
	}

	var res Result
	err := ins.cfg.Store.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		res, err = ins.run(ctx, tx, c, doc, fullEmbedding)
		return err
	})
	return res, err
}

func (ins *Inserter) run(ctx context.Context, tx pgx.Tx, c *model.ExtractedCase, doc *rag.Document, fullEmbedding []float32) (Result, error) {
	var res Result

	caseID, inserted, err := ins.upsertCase(ctx, tx, c, fullEmbedding)
	if err != nil {
		return res, err
	}
	res.CaseID = caseID
	res.Updated = !inserted

	if !inserted {
		if err := ins.clearDependents(ctx, tx, caseID); err != nil {
			return res, err
		}
	}

	documentID, err := ins.insertDocument(ctx, tx, caseID, c)
	if err != nil {
		return res, err
	}

	if err := ins.insertParties(ctx, tx, caseID, c.Parties); err != nil {
		return res, err
	}
	if err := ins.insertAttorneys(ctx, tx, caseID, c.Attorneys); err != nil {
		return res, err
	}
	if err := ins.insertJudges(ctx, tx, caseID, c.Judges); err != nil {
		return res, err
	}
	if err := ins.insertIssues(ctx, tx, caseID, c.Issues); err != nil {
		return res, err
	}
	if err := ins.insertCitations(ctx, tx, caseID, c.Citations); err != nil {
		return res, err
	}
	if err := ins.insertStatutes(ctx, tx, caseID, c.Statutes); err != nil {
		return res, err
	}

	if doc != nil {
		chunkIDs, err := ins.insertChunks(ctx, tx, caseID, doc)
		if err != nil {
			return res, err
		}
		res.Chunks = len(chunkIDs)

		sentenceIDs, err := ins.insertSentences(ctx, tx, caseID, doc, chunkIDs)
		if err != nil {
			return res, err
		}
		res.Sentences = doc.SentenceCount()

		words, err := ins.insertWords(ctx, tx, caseID, doc, chunkIDs, sentenceIDs)
		if err != nil {
			return res, err
		}
		res.Words = words

		phrases, err := ins.insertPhrases(ctx, tx, caseID, doc, chunkIDs, sentenceIDs)
		if err != nil {
			return res, err
		}
		res.Phrases = phrases

		embeddings, err := ins.insertEmbeddings(ctx, tx, caseID, documentID, doc, chunkIDs)
		if err != nil {
			return res, err
		}
		res.Embeddings = embeddings
	}

	if _, err := tx.Exec(ctx,
		`UPDATE "case" SET processing_status = $1 WHERE case_id = $2`,
		string(model.StatusFullyProcessed), caseID); err != nil {
		return res, fmt.Errorf("finalize processing status: %w", err)
	}
	return res, nil
}

func (ins *Inserter) upsertCase(ctx context.Context, tx pgx.Tx, c *model.ExtractedCase, fullEmbedding []float32) (int64, bool, error) {
	meta := c.Meta

	courtName := assemble.CourtName(meta)
	district := assemble.District(meta)

	var courtID, caseTypeID, stageTypeID any
	if courtName != "" {
		id, err := ins.dims.EnsureCourt(ctx, tx, courtName, string(meta.CourtLevel), district, c.County)
		if err != nil {
			return 0, false, err
		}
		courtID = id
	}
	if c.CaseType != "" {
		id, err := ins.dims.EnsureCaseType(ctx, tx, c.CaseType)
		if err != nil {
			return 0, false, err
		}
		caseTypeID = id
	}
	if meta.OpinionType != "" {
		id, err := ins.dims.EnsureStageType(ctx, tx, meta.OpinionType)
		if err != nil {
			return 0, false, err
		}
		stageTypeID = id
	}

	var embedding any
	if fullEmbedding != nil {
		embedding = pgvector.NewVector(fullEmbedding)
	}

	var publishedDate any
	if !c.OpinionFiledDate.IsZero() {
		publishedDate = c.OpinionFiledDate
	}

	extractedAt := c.ExtractionTimestamp
	if extractedAt.IsZero() {
		extractedAt = time.Now().UTC()
	}

	var caseID int64
	var inserted bool
	err := tx.QueryRow(ctx, `
		INSERT INTO "case" (
			case_file_id, case_file_id_normalized,
			court_id, case_type_id, stage_type_id,
			title, docket_number, court_level, district, county,
			decision_year, decision_month, appeal_published_date,
			publication_status, published, opinion_type,
			summary, full_text, full_embedding,
			processing_status, appeal_outcome,
			winner_legal_role, winner_personal_role,
			source_file, extraction_timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			NULLIF($9, ''), NULLIF($10, ''),
			NULLIF($11, 0), NULLIF($12, ''), $13,
			NULLIF($14, ''), $15, NULLIF($16, ''),
			NULLIF($17, ''), $18, $19,
			$20, NULLIF($21, ''),
			NULLIF($22, ''), NULLIF($23, ''),
			$24, $25
		)
		ON CONFLICT (case_file_id_normalized, court_level) DO UPDATE SET
			case_file_id = EXCLUDED.case_file_id,
			court_id = EXCLUDED.court_id,
			case_type_id = EXCLUDED.case_type_id,
			stage_type_id = EXCLUDED.stage_type_id,
			title = EXCLUDED.title,
			docket_number = EXCLUDED.docket_number,
			district = EXCLUDED.district,
			county = EXCLUDED.county,
			decision_year = EXCLUDED.decision_year,
			decision_month = EXCLUDED.decision_month,
			appeal_published_date = EXCLUDED.appeal_published_date,
			publication_status = EXCLUDED.publication_status,
			published = EXCLUDED.published,
			opinion_type = EXCLUDED.opinion_type,
			summary = EXCLUDED.summary,
			full_text = EXCLUDED.full_text,
			full_embedding = EXCLUDED.full_embedding,
			processing_status = EXCLUDED.processing_status,
			appeal_outcome = EXCLUDED.appeal_outcome,
			winner_legal_role = EXCLUDED.winner_legal_role,
			winner_personal_role = EXCLUDED.winner_personal_role,
			source_file = EXCLUDED.source_file,
			extraction_timestamp = EXCLUDED.extraction_timestamp
		RETURNING case_id, (xmax = 0) AS inserted`,
		meta.CaseNumber,
		normalizedID(meta.CaseNumber),
		courtID, caseTypeID, stageTypeID,
		orUnknown(meta.CaseTitle),
		assemble.DocketNumber(meta),
		string(meta.CourtLevel),
		district,
		c.County,
		meta.Year,
		meta.Month,
		publishedDate,
		meta.PublicationStatus,
		assemble.Published(meta),
		meta.OpinionType,
		c.Summary,
		c.FullText,
		embedding,
		string(model.StatusAIProcessed),
		string(c.AppealOutcome),
		c.WinnerLegalRole,
		c.WinnerPersonalRole,
		c.SourceFile,
		extractedAt,
	).Scan(&caseID, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upsert case %s: %w", meta.CaseNumber, err)
	}
	return caseID, inserted, nil
}

// dependentDeletes run in FK order when a re-ingestion hits the conflict
// path. Cascades would cover most of these; the explicit list keeps the
// purge visible and complete.
var dependentDeletes = []string{
	`DELETE FROM word_occurrence WHERE case_id = $1`,
	`DELETE FROM case_phrase WHERE case_id = $1`,
	`DELETE FROM embedding WHERE case_id = $1`,
	`DELETE FROM case_sentence WHERE case_id = $1`,
	`DELETE FROM case_chunk WHERE case_id = $1`,
	`DELETE FROM argument WHERE issue_id IN (SELECT id FROM issue_decision WHERE case_id = $1)`,
	`DELETE FROM issue_rcw WHERE issue_id IN (SELECT id FROM issue_decision WHERE case_id = $1)`,
	`DELETE FROM issue_decision WHERE case_id = $1`,
	`DELETE FROM party WHERE case_id = $1`,
	`DELETE FROM attorney WHERE case_id = $1`,
	`DELETE FROM case_judge WHERE case_id = $1`,
	`DELETE FROM citation_edge WHERE source_case_id = $1`,
	`DELETE FROM statute_citation WHERE case_id = $1`,
	`DELETE FROM document WHERE case_id = $1`,
}

func (ins *Inserter) clearDependents(ctx context.Context, tx pgx.Tx, caseID int64) error {
	ins.log.Info("re-ingestion detected, clearing dependents", "caseID", caseID)
	for _, stmt := range dependentDeletes {
		if _, err := tx.Exec(ctx, stmt, caseID); err != nil {
			return fmt.Errorf("clear dependents for case %d: %w", caseID, err)
		}
	}
	return nil
}

func (ins *Inserter) insertDocument(ctx context.Context, tx pgx.Tx, caseID int64, c *model.ExtractedCase) (int64, error) {
	var stageTypeID, documentTypeID any
	if c.Meta.OpinionType != "" {
		id, err := ins.dims.EnsureStageType(ctx, tx, c.Meta.OpinionType)
		if err != nil {
			return 0, err
		}
		stageTypeID = id
	}
	docTypeID, err := ins.dims.EnsureDocumentType(ctx, tx, "Opinion")
	if err != nil {
		return 0, err
	}
	documentTypeID = docTypeID

	title := c.Meta.CaseTitle
	if title == "" {
		title = c.SourceFile
	}

	var documentID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO document (case_id, stage_type_id, document_type_id, title, source_url, local_path, page_count, processing_status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, 0), 'completed')
		RETURNING document_id`,
		caseID, stageTypeID, documentTypeID, title, c.Meta.PDFURL, c.SourcePath, c.PageCount,
	).Scan(&documentID)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return documentID, nil
}

func (ins *Inserter) insertParties(ctx context.Context, tx pgx.Tx, caseID int64, parties []model.Party) error {
	for _, p := range parties {
		if _, err := tx.Exec(ctx, `
			INSERT INTO party (case_id, name, legal_role, personal_role, party_type)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))`,
			caseID, p.Name, p.LegalRole, p.PersonalRole, p.PartyType); err != nil {
			return fmt.Errorf("insert party %q: %w", p.Name, err)
		}
	}
	return nil
}

func (ins *Inserter) insertAttorneys(ctx context.Context, tx pgx.Tx, caseID int64, attorneys []model.Attorney) error {
	for _, a := range attorneys {
		if _, err := tx.Exec(ctx, `
			INSERT INTO attorney (case_id, name, firm, representing_role)
			VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))`,
			caseID, a.Name, a.Firm, a.RepresentingRole); err != nil {
			return fmt.Errorf("insert attorney %q: %w", a.Name, err)
		}
	}
	return nil
}

func (ins *Inserter) insertJudges(ctx context.Context, tx pgx.Tx, caseID int64, judges []model.Judge) error {
	for _, j := range judges {
		judgeID, err := ins.dims.EnsureJudge(ctx, tx, j.Name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO case_judge (case_id, judge_id, role)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			caseID, judgeID, string(j.Role)); err != nil {
			return fmt.Errorf("link judge %q: %w", j.Name, err)
		}
	}
	return nil
}

func (ins *Inserter) insertIssues(ctx context.Context, tx pgx.Tx, caseID int64, issues []model.Issue) error {
	for _, issue := range issues {
		taxonomyID, err := ins.dims.EnsureTaxonomyPath(ctx, tx, issue.CaseType, issue.Category, issue.Subcategory)
		if err != nil {
			return err
		}

		var confidence any
		if issue.Confidence > 0 {
			confidence = issue.Confidence
		}

		var issueID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO issue_decision (
				case_id, issue_summary, decision_summary, issue_outcome,
				winner_legal_role, winner_personal_role, keywords, confidence, taxonomy_id
			) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
			RETURNING id`,
			caseID, issue.Summary, issue.DecisionSummary, string(issue.Outcome),
			issue.WinnerLegalRole, issue.WinnerPersonalRole, issue.Keywords, confidence, taxonomyID,
		).Scan(&issueID)
		if err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}

		if issue.AppellantArgument != "" {
			if err := ins.insertArgument(ctx, tx, issueID, model.SideAppellant, issue.AppellantArgument); err != nil {
				return err
			}
		}
		if issue.RespondentArgument != "" {
			if err := ins.insertArgument(ctx, tx, issueID, model.SideRespondent, issue.RespondentArgument); err != nil {
				return err
			}
		}

		for _, rcw := range issue.RCWReferences {
			statuteID, err := ins.dims.EnsureStatute(ctx, tx, "WA", rcw)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO issue_rcw (issue_id, rcw_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, issueID, statuteID); err != nil {
				return fmt.Errorf("link issue rcw %q: %w", rcw, err)
			}
		}
	}
	return nil
}

func (ins *Inserter) insertArgument(ctx context.Context, tx pgx.Tx, issueID int64, side model.ArgumentSide, text string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO argument (issue_id, side, text)
		VALUES ($1, $2, $3)`, issueID, string(side), text); err != nil {
		return fmt.Errorf("insert %s argument: %w", side, err)
	}
	return nil
}

func (ins *Inserter) insertCitations(ctx context.Context, tx pgx.Tx, caseID int64, citations []model.Citation) error {
	for _, cit := range citations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO citation_edge (source_case_id, target_case_citation, relationship)
			VALUES ($1, $2, $3)
			ON CONFLICT (source_case_id, target_case_citation) DO NOTHING`,
			caseID, cit.FullCitation, string(cit.Relationship)); err != nil {
			return fmt.Errorf("insert citation edge: %w", err)
		}
	}
	return nil
}

func (ins *Inserter) insertStatutes(ctx context.Context, tx pgx.Tx, caseID int64, statutes []model.StatuteRef) error {
	for _, st := range statutes {
		statuteID, err := ins.dims.EnsureStatute(ctx, tx, "WA", st.Citation)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO statute_citation (case_id, statute_id, context)
			VALUES ($1, $2, NULLIF($3, ''))`,
			caseID, statuteID, st.Citation); err != nil {
			return fmt.Errorf("insert statute citation %q: %w", st.Citation, err)
		}
	}
	return nil
}

func (ins *Inserter) insertChunks(ctx context.Context, tx pgx.Tx, caseID int64, doc *rag.Document) ([]int64, error) {
	ids := make([]int64, 0, len(doc.Chunks))
	for _, ca := range doc.Chunks {
		var chunkID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO case_chunk (case_id, chunk_order, section, text, sentence_count)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING chunk_id`,
			caseID, ca.Chunk.Order, string(ca.Chunk.Section), ca.Chunk.Text, len(ca.Sentences),
		).Scan(&chunkID)
		if err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", ca.Chunk.Order, err)
		}
		ids = append(ids, chunkID)
	}
	return ids, nil
}

// insertSentences writes all sentences and returns their ids, indexed
// [chunk][sentence].
func (ins *Inserter) insertSentences(ctx context.Context, tx pgx.Tx, caseID int64, doc *rag.Document, chunkIDs []int64) ([][]int64, error) {
	ids := make([][]int64, len(doc.Chunks))
	for ci, ca := range doc.Chunks {
		ids[ci] = make([]int64, len(ca.Sentences))
		for si, s := range ca.Sentences {
			var sentenceID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO case_sentence (case_id, chunk_id, sentence_order, global_sentence_order, text, word_count)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING sentence_id`,
				caseID, chunkIDs[ci], s.Order, s.GlobalOrder, s.Text, s.WordCount,
			).Scan(&sentenceID)
			if err != nil {
				return nil, fmt.Errorf("insert sentence %d of chunk %d: %w", s.Order, ca.Chunk.Order, err)
			}
			ids[ci][si] = sentenceID
		}
	}
	return ids, nil
}

// wordOccurrenceCols drive the multi-row occurrence insert.
var wordOccurrenceCols = []string{"word_id", "case_id", "chunk_id", "sentence_id", "position"}

// insertWords upserts the word dictionary in batches, then flushes the
// positional occurrences in capped multi-row inserts, and finally bumps
// the best-effort document frequency for the case's distinct words.
func (ins *Inserter) insertWords(ctx context.Context, tx pgx.Tx, caseID int64, doc *rag.Document, chunkIDs []int64, sentenceIDs [][]int64) (int, error) {
	// Collect the case's distinct normalized words.
	seen := make(map[string]struct{})
	var distinct []string
	for _, ca := range doc.Chunks {
		for _, toks := range ca.Tokens {
			for _, tok := range toks {
				if _, ok := seen[tok]; !ok {
					seen[tok] = struct{}{}
					distinct = append(distinct, tok)
				}
			}
		}
	}
	if len(distinct) == 0 {
		return 0, nil
	}

	wordIDs, err := ins.ensureWords(ctx, tx, distinct)
	if err != nil {
		return 0, err
	}

	// Flatten occurrences in document order.
	type occurrence struct {
		wordID     int64
		chunkID    int64
		sentenceID int64
		position   int
	}
	var occurrences []occurrence
	for ci, ca := range doc.Chunks {
		for si, toks := range ca.Tokens {
			for pos, tok := range toks {
				occurrences = append(occurrences, occurrence{
					wordID:     wordIDs[tok],
					chunkID:    chunkIDs[ci],
					sentenceID: sentenceIDs[ci][si],
					position:   pos,
				})
			}
		}
	}

	err = batchRows(len(occurrences), ins.cfg.WordBatch, func(start, end int) error {
		rows := occurrences[start:end]
		sql := multiInsertSQL("word_occurrence", wordOccurrenceCols, len(rows), "ON CONFLICT DO NOTHING")
		args := make([]any, 0, len(rows)*len(wordOccurrenceCols))
		for _, o := range rows {
			args = append(args, o.wordID, caseID, o.chunkID, o.sentenceID, o.position)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert word occurrences [%d:%d]: %w", start, end, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Best-effort document frequency: one bump per distinct word per case.
	distinctIDs := make([]int64, 0, len(wordIDs))
	for _, id := range wordIDs {
		distinctIDs = append(distinctIDs, id)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE word_dictionary SET df = df + 1 WHERE word_id = ANY($1)`, distinctIDs); err != nil {
		return 0, fmt.Errorf("bump document frequency: %w", err)
	}

	return len(occurrences), nil
}

// ensureWords resolves word -> word_id, upserting missing dictionary rows
// in batches: a conflict-do-nothing multi-row insert followed by a batched
// select, so concurrent workers never duplicate a word.
func (ins *Inserter) ensureWords(ctx context.Context, tx pgx.Tx, words []string) (map[string]int64, error) {
	out := make(map[string]int64, len(words))

	err := batchRows(len(words), ins.cfg.WordBatch, func(start, end int) error {
		batch := words[start:end]

		sql := multiInsertSQL("word_dictionary", []string{"word"}, len(batch), "ON CONFLICT (word) DO NOTHING")
		args := make([]any, len(batch))
		for i, w := range batch {
			args[i] = w
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("upsert word dictionary batch: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT word_id, word FROM word_dictionary WHERE word = ANY($1)`, batch)
		if err != nil {
			return fmt.Errorf("resolve word ids: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			var word string
			if err := rows.Scan(&id, &word); err != nil {
				return fmt.Errorf("scan word id: %w", err)
			}
			out[word] = id
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	for _, w := range words {
		if _, ok := out[w]; !ok {
			return nil, fmt.Errorf("word %q missing after dictionary upsert", w)
		}
	}
	return out, nil
}

func (ins *Inserter) insertPhrases(ctx context.Context, tx pgx.Tx, caseID int64, doc *rag.Document, chunkIDs []int64, sentenceIDs [][]int64) (int, error) {
	for _, ph := range doc.Phrases {
		var exampleChunk, exampleSentence any
		if ph.ExampleChunk < len(chunkIDs) {
			exampleChunk = chunkIDs[ph.ExampleChunk]
			if ph.ExampleSentence < len(sentenceIDs[ph.ExampleChunk]) {
				exampleSentence = sentenceIDs[ph.ExampleChunk][ph.ExampleSentence]
			}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO case_phrase (case_id, phrase, n, frequency, example_sentence, example_chunk)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (case_id, phrase) DO UPDATE SET
				frequency = EXCLUDED.frequency,
				example_sentence = EXCLUDED.example_sentence,
				example_chunk = EXCLUDED.example_chunk`,
			caseID, ph.Text, ph.N, ph.Frequency, exampleSentence, exampleChunk); err != nil {
			return 0, fmt.Errorf("upsert phrase %q: %w", ph.Text, err)
		}
	}
	return len(doc.Phrases), nil
}

func (ins *Inserter) insertEmbeddings(ctx context.Context, tx pgx.Tx, caseID int64, documentID int64, doc *rag.Document, chunkIDs []int64) (int, error) {
	if ins.cfg.Embedder == nil || ins.cfg.ChunkEmbeddings == rag.EmbedNone {
		return 0, nil
	}

	type eligible struct {
		idx   int
		chunk rag.Chunk
	}
	var selected []eligible
	for i, ca := range doc.Chunks {
		if ins.cfg.ChunkEmbeddings == rag.EmbedImportant && !rag.ImportantSections[ca.Chunk.Section] {
			continue
		}
		selected = append(selected, eligible{idx: i, chunk: ca.Chunk})
	}
	if len(selected) == 0 {
		return 0, nil
	}

	texts := make([]string, len(selected))
	for i, e := range selected {
		texts[i] = e.chunk.Text
	}
	vectors, err := ins.cfg.Embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("chunk embeddings: %w: %w", ErrIndexing, err)
	}

	for i, e := range selected {
		if _, err := tx.Exec(ctx, `
			INSERT INTO embedding (case_id, chunk_id, document_id, text, vector, chunk_order, section)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			caseID, chunkIDs[e.idx], documentID, e.chunk.Text,
			pgvector.NewVector(vectors[i]), e.chunk.Order, string(e.chunk.Section)); err != nil {
			return 0, fmt.Errorf("insert embedding for chunk %d: %w", e.chunk.Order, err)
		}
	}
	return len(selected), nil
}

func normalizedID(caseFileID string) string {
	return normalize.CaseFileID(caseFileID)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
