package core

import (
	"strings"
	"testing"
)

// ============================================================================
// Batch Insert SQL Tests
// ============================================================================

func TestBatchInsertSQL(t *testing.T) {
	sql := batchInsertSQL(2)

	if !strings.HasPrefix(sql, "INSERT INTO buyers (") {
		t.Errorf("statement does not start with the insert: %q", sql[:40])
	}
	if got := strings.Count(sql, "$"); got != 2*insertFieldsPerRow {
		t.Errorf("placeholder count = %d, want %d", got, 2*insertFieldsPerRow)
	}
	if !strings.Contains(sql, "$1,") {
		t.Error("first placeholder missing")
	}
	if !strings.HasSuffix(sql, "$32)") {
		t.Errorf("last placeholder wrong: ...%q", sql[len(sql)-12:])
	}
	if got := strings.Count(sql, "("); got != 3 { // column list + 2 row tuples
		t.Errorf("tuple count = %d, want 3", got)
	}
}

func TestBatchInsertSQL_SingleRow(t *testing.T) {
	sql := batchInsertSQL(1)
	if got := strings.Count(sql, "$"); got != insertFieldsPerRow {
		t.Errorf("placeholder count = %d, want %d", got, insertFieldsPerRow)
	}
	if strings.Contains(sql, "), (") {
		t.Error("single row statement has multiple tuples")
	}
}

// A full chunk must stay under Postgres's 65535 bind parameter limit, so
// imports larger than one chunk split instead of failing wholesale.
func TestInsertChunkSize_UnderParameterLimit(t *testing.T) {
	if params := insertChunkSize * insertFieldsPerRow; params > 65535 {
		t.Errorf("chunk uses %d parameters, over the 65535 statement limit", params)
	}
}
