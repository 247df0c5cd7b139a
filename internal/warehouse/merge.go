package warehouse

import (
	"fmt"
	"strings"

	"github.com/quantfold/stocketl/internal/tabular"
)

// BuildMergeQuery builds the conditional merge statement: rows from
// staging matching dest on every key column overwrite the non-key
// columns; rows with no match insert.
func BuildMergeQuery(dest, staging string, columns, keyColumns []string) string {
	on := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		on[i] = fmt.Sprintf("t.%s = s.%s", col, col)
	}

	var updates []string
	for _, col := range columns {
		if contains(keyColumns, col) {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = s.%s", col, col))
	}

	sourced := make([]string, len(columns))
	for i, col := range columns {
		sourced[i] = "s." + col
	}

	return fmt.Sprintf(`MERGE INTO %s t
USING %s s
ON %s
WHEN MATCHED THEN
  UPDATE SET %s
WHEN NOT MATCHED THEN
  INSERT (%s)
  VALUES (%s)`,
		dest,
		staging,
		strings.Join(on, " AND "),
		strings.Join(updates, ", "),
		strings.Join(columns, ", "),
		strings.Join(sourced, ", "),
	)
}

// buildInsertQuery builds a positional insert for the canonical columns.
func buildInsertQuery(table string) string {
	cols := tabular.CanonicalColumns
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
