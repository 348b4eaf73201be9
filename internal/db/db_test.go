package db

import (
	"path/filepath"
	"testing"
)

func TestDialectOf(t *testing.T) {
	cases := map[string]Dialect{
		"postgres://u:p@localhost/casevia":   DialectPostgres,
		"postgresql://u:p@localhost/casevia": DialectPostgres,
		"data/casevia.db":                    DialectSQLite,
		"/tmp/x.sqlite":                      DialectSQLite,
	}
	for url, want := range cases {
		if got := DialectOf(url); got != want {
			t.Errorf("DialectOf(%q) = %s, want %s", url, got, want)
		}
	}
}

func TestSQLiteMigrationsApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "casevia.db")

	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	// Second run is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations (again): %v", err)
	}

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"organizations", "projects", "case_studies", "social_posts", "jobs"} {
		var n int
		if err := conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, table); err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casevia.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	insert := `INSERT INTO organizations (id, plan, created_at) VALUES ('org', 'free', CURRENT_TIMESTAMP)`
	if _, err := conn.Exec(insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = conn.Exec(insert)
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(nil) {
		t.Fatal("nil is not a unique violation")
	}
}
