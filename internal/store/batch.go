package store

import (
	"fmt"
	"strings"
)

// maxRowsPerStatement caps multi-row inserts so the parameter count stays
// well under the wire-protocol limit even for five-column rows.
const maxRowsPerStatement = 500

// multiInsertSQL renders "INSERT INTO table (cols...) VALUES ($1,...),..."
// with uniquely numbered parameters for rowCount rows.
func multiInsertSQL(table string, cols []string, rowCount int, suffix string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	p := 1
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
		}
		b.WriteByte(')')
	}
	if suffix != "" {
		b.WriteByte(' ')
		b.WriteString(suffix)
	}
	return b.String()
}

// batchRows walks rows in slices of at most size, capped at
// maxRowsPerStatement regardless of configuration.
func batchRows(total, size int, fn func(start, end int) error) error {
	if size < 1 || size > maxRowsPerStatement {
		size = maxRowsPerStatement
	}
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
