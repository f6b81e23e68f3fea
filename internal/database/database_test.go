package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agenda.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"events", "users", "_migrations"} {
		var count int
		err := db.DB().QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("failed to inspect schema: %v", err)
		}
		if count != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestMigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agenda.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := first.DB().Exec(`INSERT INTO events (name) VALUES ('kept')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	applied, err := second.Applied(context.Background())
	if err != nil {
		t.Fatalf("Applied() failed: %v", err)
	}
	if len(applied) != len(getMigrations()) {
		t.Errorf("Applied() = %v, want %d entries", applied, len(getMigrations()))
	}

	var count int
	if err := second.DB().QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("events count = %d after reopen, want 1", count)
	}
}

func TestUsersTableIsSingleRow(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "agenda.db"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	insert := `INSERT INTO users (id, display_name, username, email, password) VALUES (?, 'A', 'a', 'a@b.com', 'x')`
	if _, err := db.DB().Exec(insert, 1); err != nil {
		t.Fatalf("first user insert failed: %v", err)
	}
	if _, err := db.DB().Exec(insert, 2); err == nil {
		t.Error("second user row should violate the single-row constraint")
	}
}
