package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/caselakehq/caselake/internal/model"
	"github.com/caselakehq/caselake/internal/rag"
	"github.com/caselakehq/caselake/internal/store"
)

type mockPDF struct {
	pages map[string][]string
	err   error
}

func (m *mockPDF) Pages(path string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pages[filepath.Base(path)], nil
}

type mockExtractor struct {
	result *model.ExtractedCase
	err    error
	calls  int
}

func (m *mockExtractor) Extract(context.Context, string) (*model.ExtractedCase, error) {
	m.calls++
	return m.result, m.err
}

func page(sentence string, n int) string {
	return strings.TrimSpace(strings.Repeat(sentence+" ", n))
}

func newTestEngine(pdf PageExtractor, ex CaseExtractor, enableRAG bool) *Engine {
	cfg := &Config{
		Logger:       slog.New(slog.DiscardHandler),
		Clock:        clockwork.NewFakeClock(),
		PDF:          pdf,
		Extractor:    ex,
		PhraseFilter: rag.PhraseFilterStrict,
	}
	e := &Engine{log: cfg.Logger, cfg: cfg}
	if enableRAG {
		e.ragProcessor = rag.NewProcessor(cfg.ChunkOptions, cfg.PhraseFilter, cfg.PhraseLists)
	}
	return e
}

func TestIngest_BuildCaseMergesAndSegments(t *testing.T) {
	t.Parallel()

	pdf := &mockPDF{pages: map[string][]string{
		"102586-6.pdf": {
			page("Appeal from King County Superior Court in this matter today.", 30),
			page("We review the judgment for abuse of discretion under the law.", 30),
		},
	}}
	ex := &mockExtractor{result: &model.ExtractedCase{Summary: "summary", CaseType: "Civil"}}
	e := newTestEngine(pdf, ex, true)

	meta := model.Metadata{CaseNumber: "102586-6", CaseTitle: "Pub. Util. Dist. No. 1 v. State", CourtLevel: model.CourtSupreme}
	caseRec, doc, err := e.buildCase(context.Background(), "/data/102586-6.pdf", meta)
	require.NoError(t, err)
	require.Equal(t, 1, ex.calls)
	require.Equal(t, "King", caseRec.County)
	require.Equal(t, meta, caseRec.Meta)
	require.Equal(t, "102586-6.pdf", caseRec.SourceFile)

	require.NotNil(t, doc)
	require.NotEmpty(t, doc.Chunks)
	require.Positive(t, doc.SentenceCount())
}

func TestIngest_BuildCaseNoRAG(t *testing.T) {
	t.Parallel()

	pdf := &mockPDF{pages: map[string][]string{
		"x.pdf": {page("The court affirmed the judgment entered below in this case.", 30)},
	}}
	e := newTestEngine(pdf, &mockExtractor{result: &model.ExtractedCase{}}, false)

	_, doc, err := e.buildCase(context.Background(), "x.pdf", model.Metadata{})
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestIngest_BuildCaseClassifiesInputErrors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(&mockPDF{err: errors.New("corrupt xref")}, &mockExtractor{}, false)
	_, _, err := e.buildCase(context.Background(), "bad.pdf", model.Metadata{})
	require.Error(t, err)
	require.Equal(t, KindInput, KindOf(err))

	// Readable but empty PDFs are input errors too.
	e = newTestEngine(&mockPDF{pages: map[string][]string{"empty.pdf": {"", ""}}}, &mockExtractor{}, false)
	_, _, err = e.buildCase(context.Background(), "empty.pdf", model.Metadata{})
	require.Error(t, err)
	require.Equal(t, KindInput, KindOf(err))
}

func TestIngest_BuildCaseClassifiesExtractionErrors(t *testing.T) {
	t.Parallel()

	pdf := &mockPDF{pages: map[string][]string{
		"x.pdf": {page("Sufficient text for extraction lives in this page right here.", 30)},
	}}
	e := newTestEngine(pdf, &mockExtractor{err: errors.New("unparseable after retry")}, false)

	_, _, err := e.buildCase(context.Background(), "x.pdf", model.Metadata{})
	require.Error(t, err)
	require.Equal(t, KindExtraction, KindOf(err))
}

func TestIngest_KindOfDefaultsAndIndexing(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindDatabase, KindOf(errors.New("constraint violation")))
	wrapped := fmt.Errorf("chunk embeddings: %w: %w", store.ErrIndexing, errors.New("timeout"))
	require.Equal(t, KindIndexing, KindOf(wrapped))
	require.Equal(t, KindExtraction, KindOf(classify(KindExtraction, errors.New("bad json"))))
	require.NoError(t, classify(KindInput, nil))
}

func TestIngest_ListPDFsRecursiveSorted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.pdf", "a.PDF", "sub/c.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := listPDFs(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		require.True(t, strings.EqualFold(filepath.Ext(f), ".pdf"))
	}
	require.True(t, sortedStrings(files))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return false
		}
	}
	return true
}

func TestIngest_SummaryFailedness(t *testing.T) {
	t.Parallel()

	s := &Summary{Succeeded: 3}
	require.False(t, s.Failedness())
	s.Failed = 1
	require.True(t, s.Failedness())
}
