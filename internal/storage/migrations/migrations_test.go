package migrations

import (
	"errors"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x Int32);

-- second
CREATE TABLE b (y String)
ENGINE = Memory;
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x Int32)" {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
	if !strings.HasSuffix(stmts[1], "ENGINE = Memory") {
		t.Errorf("unexpected second statement %q", stmts[1])
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	if err := validateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1;"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := validateNoSemicolonInStrings("SELECT 'a;b'")
	if !errors.Is(err, ErrSemicolonInString) {
		t.Errorf("expected ErrSemicolonInString, got %v", err)
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/ranking")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "ranking" {
		t.Errorf("expected ranking, got %q", db)
	}

	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	if err != nil {
		t.Fatalf("load postgres: %v", err)
	}
	if len(pg) == 0 || !strings.Contains(pg[0].SQL, "kv_store") {
		t.Errorf("expected kv_store postgres migration, got %+v", pg)
	}

	ch, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		t.Fatalf("load clickhouse: %v", err)
	}
	if len(ch) == 0 {
		t.Fatal("expected clickhouse migrations")
	}
	for _, m := range ch {
		if err := validateNoSemicolonInStrings(m.SQL); err != nil {
			t.Errorf("%s: %v", m.Name, err)
		}
	}
	stmts := splitStatements(ch[0].SQL)
	if len(stmts) != 1 || !strings.Contains(stmts[0], "ReplacingMergeTree") {
		t.Errorf("unexpected buy_events statements: %q", stmts)
	}
}
