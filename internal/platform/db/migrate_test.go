package db

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ehr/cdsengine/migrations"
)

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestLoadMigrations(t *testing.T) {
	migrator := NewMigrator(nil, mapFS(map[string]string{
		"003_interactions.sql":  "CREATE TABLE c (id TEXT);",
		"001_screenings.sql":    "CREATE TABLE a (id TEXT);",
		"002_immunizations.sql": "CREATE TABLE b (id TEXT);",
	}))
	migs, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	for i, want := range []string{"001_screenings.sql", "002_immunizations.sql", "003_interactions.sql"} {
		if migs[i].Name != want || migs[i].Version != i+1 {
			t.Errorf("position %d: expected %s (v%d), got %s (v%d)", i, want, i+1, migs[i].Name, migs[i].Version)
		}
	}
	if migs[0].SQL != "CREATE TABLE a (id TEXT);" {
		t.Errorf("unexpected SQL content: %s", migs[0].SQL)
	}
}

func TestLoadMigrations_SkipsInvalidNames(t *testing.T) {
	fsys := mapFS(map[string]string{
		"001_valid.sql":     "SELECT 1;",
		"README.md":         "docs",
		"notes.sql":         "SELECT 2;",
		"abc_invalid.sql":   "SELECT 3;",
		"sub/002_child.sql": "SELECT 4;",
	})
	migs, err := NewMigrator(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) != 1 || migs[0].Name != "001_valid.sql" {
		t.Errorf("expected only 001_valid.sql, got %+v", migs)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := mapFS(map[string]string{
		"001_a.sql": "SELECT 1;",
		"1_b.sql":   "SELECT 2;",
	})
	_, err := NewMigrator(nil, fsys).LoadMigrations()
	if err == nil || !strings.Contains(err.Error(), "version 1") {
		t.Errorf("expected duplicate version error, got %v", err)
	}
}

func TestLoadMigrations_Empty(t *testing.T) {
	migs, err := NewMigrator(nil, fstest.MapFS{}).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) != 0 {
		t.Errorf("expected no migrations, got %d", len(migs))
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(nil, migrations.FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) == 0 || migs[0].Version != 1 {
		t.Fatalf("expected embedded migration 1, got %+v", migs)
	}
	if !strings.Contains(migs[0].SQL, "guideline_interaction") {
		t.Error("expected the catalog migration to create guideline_interaction")
	}
}

func TestStatusOf(t *testing.T) {
	migs := []Migration{
		{Version: 1, Name: "001_core.sql"},
		{Version: 2, Name: "002_rules.sql"},
	}
	at := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	statuses := statusOf(migs, map[int]time.Time{1: at})

	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Applied || statuses[0].AppliedAt == nil || !statuses[0].AppliedAt.Equal(at) {
		t.Errorf("expected 001 applied at %v, got %+v", at, statuses[0])
	}
	if statuses[1].Applied || statuses[1].AppliedAt != nil {
		t.Errorf("expected 002 pending, got %+v", statuses[1])
	}
}
