package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`create table a (id text); insert into a values ('x;y'); `)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[1] != ` insert into a values ('x;y');` {
		t.Fatalf("semicolon inside string split: %q", stmts[1])
	}
}

func TestSQLFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("select 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	files, err := sqlFiles(dir, ".up.sql")
	if err != nil {
		t.Fatalf("sqlFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].name != "0001_a.up.sql" || files[1].name != "0002_b.up.sql" {
		t.Fatalf("files not sorted: %v", files)
	}
}

func TestSQLFilesMissingDir(t *testing.T) {
	files, err := sqlFiles(filepath.Join(t.TempDir(), "nope"), ".sql")
	if err != nil || files != nil {
		t.Fatalf("missing dir: %v %v", files, err)
	}
}
