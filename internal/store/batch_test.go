package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatch_MultiInsertSQL(t *testing.T) {
	t.Parallel()

	sql := multiInsertSQL("word_dictionary", []string{"word"}, 3, "ON CONFLICT (word) DO NOTHING")
	require.Equal(t,
		"INSERT INTO word_dictionary (word) VALUES ($1), ($2), ($3) ON CONFLICT (word) DO NOTHING",
		sql)
}

func TestBatch_MultiInsertSQLNumbersParamsUniquely(t *testing.T) {
	t.Parallel()

	sql := multiInsertSQL("word_occurrence", wordOccurrenceCols, 2, "")
	require.Contains(t, sql, "($1, $2, $3, $4, $5)")
	require.Contains(t, sql, "($6, $7, $8, $9, $10)")
	require.Equal(t, 10, strings.Count(sql, "$"))
}

func TestBatch_RowsCappedPerStatement(t *testing.T) {
	t.Parallel()

	var spans [][2]int
	err := batchRows(1201, 0, func(start, end int) error {
		spans = append(spans, [2]int{start, end})
		require.LessOrEqual(t, end-start, maxRowsPerStatement)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, [][2]int{{0, 500}, {500, 1000}, {1000, 1201}}, spans)
}

func TestBatch_ParamCountStaysUnderWireLimit(t *testing.T) {
	t.Parallel()

	// Five columns at the row cap must stay far below the protocol's
	// 65535-parameter ceiling.
	require.Less(t, maxRowsPerStatement*len(wordOccurrenceCols), 65535)
}

func TestBatch_EmptyInput(t *testing.T) {
	t.Parallel()

	calls := 0
	require.NoError(t, batchRows(0, 0, func(int, int) error { calls++; return nil }))
	require.Zero(t, calls)
}
