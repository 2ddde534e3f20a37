package store

import (
	"context"
	"fmt"
	"log/slog"
)

// schemaStatements create the relational schema the engine assumes. They
// are idempotent and run at startup, in order.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	// Dimension tables.
	`CREATE TABLE IF NOT EXISTS case_type (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS case_type_name_key ON case_type (lower(name))`,

	`CREATE TABLE IF NOT EXISTS stage_type (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS stage_type_name_key ON stage_type (lower(name))`,

	`CREATE TABLE IF NOT EXISTS document_type (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'court'
			CHECK (role IN ('court', 'party', 'evidence', 'administrative')),
		has_decision BOOLEAN NOT NULL DEFAULT FALSE,
		is_adversarial BOOLEAN NOT NULL DEFAULT FALSE,
		processing_strategy TEXT NOT NULL DEFAULT 'text_only'
			CHECK (processing_strategy IN ('case_outcome', 'brief_extraction', 'evidence_indexing', 'text_only'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS document_type_name_key ON document_type (lower(name))`,

	`CREATE TABLE IF NOT EXISTS court (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		level TEXT NOT NULL
			CHECK (level IN ('Supreme Court', 'Court of Appeals', 'Superior Court', 'District Court', 'Municipal Court')),
		district TEXT,
		county TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS court_name_district_key ON court (lower(name), COALESCE(district, ''))`,

	`CREATE TABLE IF NOT EXISTS legal_taxonomy (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		parent_id BIGINT REFERENCES legal_taxonomy(id),
		name TEXT NOT NULL,
		level TEXT NOT NULL CHECK (level IN ('case_type', 'category', 'subcategory'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS legal_taxonomy_key ON legal_taxonomy (COALESCE(parent_id, -1), lower(name), level)`,

	`CREATE TABLE IF NOT EXISTS statute (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		code TEXT NOT NULL,
		title TEXT,
		section TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS statute_key ON statute (jurisdiction, lower(code))`,

	`CREATE TABLE IF NOT EXISTS judge (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS judge_name_key ON judge (lower(name))`,

	// Core entities.
	`CREATE TABLE IF NOT EXISTS "case" (
		case_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_file_id TEXT NOT NULL,
		case_file_id_normalized TEXT NOT NULL,
		court_id BIGINT REFERENCES court(id),
		case_type_id BIGINT REFERENCES case_type(id),
		stage_type_id BIGINT REFERENCES stage_type(id),
		title TEXT NOT NULL,
		docket_number TEXT,
		court_level TEXT NOT NULL,
		district TEXT,
		county TEXT,
		decision_year INT,
		decision_month TEXT,
		appeal_published_date DATE,
		publication_status TEXT,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		opinion_type TEXT,
		summary TEXT,
		full_text TEXT NOT NULL,
		full_embedding vector(1024),
		processing_status TEXT NOT NULL DEFAULT 'pending'
			CHECK (processing_status IN ('pending', 'text_extracted', 'ai_processed', 'embedded', 'fully_processed', 'failed')),
		appeal_outcome TEXT,
		winner_legal_role TEXT,
		winner_personal_role TEXT,
		source_file TEXT NOT NULL,
		extraction_timestamp TIMESTAMPTZ NOT NULL,
		parent_case_id BIGINT REFERENCES "case"(case_id),
		UNIQUE (case_file_id_normalized, court_level)
	)`,

	`CREATE TABLE IF NOT EXISTS document (
		document_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		stage_type_id BIGINT REFERENCES stage_type(id),
		document_type_id BIGINT REFERENCES document_type(id),
		title TEXT NOT NULL,
		source_url TEXT,
		local_path TEXT,
		file_size BIGINT,
		page_count INT,
		processing_status TEXT NOT NULL DEFAULT 'completed'
	)`,

	`CREATE TABLE IF NOT EXISTS party (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		legal_role TEXT NOT NULL,
		personal_role TEXT,
		party_type TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS attorney (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		firm TEXT,
		representing_role TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS case_judge (
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		judge_id BIGINT NOT NULL REFERENCES judge(id),
		role TEXT NOT NULL CHECK (role IN ('author', 'concurring', 'dissenting', 'per_curiam')),
		PRIMARY KEY (case_id, judge_id, role)
	)`,

	`CREATE TABLE IF NOT EXISTS issue_decision (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		issue_summary TEXT NOT NULL,
		decision_summary TEXT,
		issue_outcome TEXT
			CHECK (issue_outcome IN ('Affirmed', 'Dismissed', 'Reversed', 'Remanded', 'Mixed')),
		winner_legal_role TEXT,
		winner_personal_role TEXT,
		keywords TEXT[],
		confidence DOUBLE PRECISION,
		taxonomy_id BIGINT NOT NULL REFERENCES legal_taxonomy(id)
	)`,

	`CREATE TABLE IF NOT EXISTS argument (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		issue_id BIGINT NOT NULL REFERENCES issue_decision(id) ON DELETE CASCADE,
		side TEXT NOT NULL CHECK (side IN ('appellant', 'respondent', 'amicus')),
		text TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS citation_edge (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		source_case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		target_case_id BIGINT REFERENCES "case"(case_id),
		target_case_citation TEXT NOT NULL,
		relationship TEXT NOT NULL
			CHECK (relationship IN ('cites', 'distinguishes', 'overrules', 'follows', 'affirms', 'reverses', 'discusses')),
		importance TEXT CHECK (importance IN ('primary', 'secondary', 'passing')),
		UNIQUE (source_case_id, target_case_citation)
	)`,

	`CREATE TABLE IF NOT EXISTS statute_citation (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		statute_id BIGINT NOT NULL REFERENCES statute(id),
		context TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS issue_rcw (
		issue_id BIGINT NOT NULL REFERENCES issue_decision(id) ON DELETE CASCADE,
		rcw_id BIGINT NOT NULL REFERENCES statute(id),
		PRIMARY KEY (issue_id, rcw_id)
	)`,

	// RAG entities.
	`CREATE TABLE IF NOT EXISTS case_chunk (
		chunk_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		chunk_order INT NOT NULL CHECK (chunk_order >= 1),
		section TEXT NOT NULL
			CHECK (section IN ('HEADER', 'PARTIES', 'PROCEDURAL', 'FACTS', 'ANALYSIS', 'HOLDING', 'CUSTODY', 'SUPPORT', 'PROPERTY', 'FEES', 'CONTENT')),
		text TEXT NOT NULL,
		sentence_count INT NOT NULL DEFAULT 0,
		tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', text)) STORED,
		UNIQUE (case_id, chunk_order)
	)`,
	`CREATE INDEX IF NOT EXISTS case_chunk_tsv_idx ON case_chunk USING gin (tsv)`,

	`CREATE TABLE IF NOT EXISTS case_sentence (
		sentence_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		chunk_id BIGINT NOT NULL REFERENCES case_chunk(chunk_id) ON DELETE CASCADE,
		sentence_order INT NOT NULL CHECK (sentence_order >= 1),
		global_sentence_order INT NOT NULL CHECK (global_sentence_order >= 1),
		text TEXT NOT NULL,
		word_count INT NOT NULL,
		tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', text)) STORED,
		UNIQUE (case_id, chunk_id, sentence_order),
		UNIQUE (case_id, global_sentence_order)
	)`,
	`CREATE INDEX IF NOT EXISTS case_sentence_tsv_idx ON case_sentence USING gin (tsv)`,

	`CREATE TABLE IF NOT EXISTS word_dictionary (
		word_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		word TEXT NOT NULL,
		df BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS word_dictionary_word_key ON word_dictionary (word)`,

	`CREATE TABLE IF NOT EXISTS word_occurrence (
		word_id BIGINT NOT NULL REFERENCES word_dictionary(word_id),
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		chunk_id BIGINT NOT NULL REFERENCES case_chunk(chunk_id) ON DELETE CASCADE,
		sentence_id BIGINT NOT NULL REFERENCES case_sentence(sentence_id) ON DELETE CASCADE,
		position INT NOT NULL CHECK (position >= 0),
		PRIMARY KEY (word_id, sentence_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS word_occurrence_case_idx ON word_occurrence (case_id)`,

	`CREATE TABLE IF NOT EXISTS case_phrase (
		phrase_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		phrase TEXT NOT NULL,
		n INT NOT NULL CHECK (n BETWEEN 2 AND 6),
		frequency INT NOT NULL CHECK (frequency >= 1),
		example_sentence BIGINT REFERENCES case_sentence(sentence_id) ON DELETE SET NULL,
		example_chunk BIGINT REFERENCES case_chunk(chunk_id) ON DELETE SET NULL,
		UNIQUE (case_id, phrase)
	)`,

	`CREATE TABLE IF NOT EXISTS embedding (
		embedding_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES "case"(case_id) ON DELETE CASCADE,
		chunk_id BIGINT REFERENCES case_chunk(chunk_id) ON DELETE CASCADE,
		document_id BIGINT REFERENCES document(document_id) ON DELETE SET NULL,
		text TEXT NOT NULL,
		vector vector(1024) NOT NULL,
		chunk_order INT NOT NULL DEFAULT 0,
		section TEXT
	)`,
}

// EnsureSchema applies the DDL. It must run before any worker starts.
func (s *Store) EnsureSchema(ctx context.Context, log *slog.Logger) error {
	log.Info("ensuring database schema")
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
