//go:build integration

package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// migratedDB opens a file database under t.TempDir with the schema applied.
func migratedDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

func insertCampaign(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(`INSERT INTO campaigns (id, name, created_at, updated_at) VALUES (?, 'x', ?, ?)`, id, now, now); err != nil {
		t.Fatalf("insert campaign %s: %v", id, err)
	}
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	db := migratedDB(t)

	queries := map[string]string{
		"campaigns": `SELECT id, name, game_system, owner_id, description, created_at, updated_at FROM campaigns LIMIT 0`,
		"frames":    `SELECT campaign_id, fields, step_index, completed_steps, template_id, status, updated_at, completed_at FROM frames LIMIT 0`,
		"entities":  `SELECT id, campaign_id, kind, name, data, created_at FROM entities LIMIT 0`,
	}
	for table, q := range queries {
		if _, err := db.Exec(q); err != nil {
			t.Errorf("%s: %v", table, err)
		}
	}
}

func TestRunMigrations_RerunKeepsData(t *testing.T) {
	db := migratedDB(t)
	insertCampaign(t, db, "keep-me")

	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	if v, err := SchemaVersion(context.Background(), db); err != nil || v != 1 {
		t.Errorf("SchemaVersion() after rerun = %d, %v; want 1", v, err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM campaigns WHERE id = 'keep-me'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("campaign rows after rerun = %d, want 1", n)
	}
}

func TestSchema_Indexes(t *testing.T) {
	db := migratedDB(t)

	for _, idx := range []string{"idx_campaigns_owner_id", "idx_entities_campaign_kind", "idx_entities_created_at"} {
		var name string
		if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name); err != nil {
			t.Errorf("index %s: %v", idx, err)
		}
	}
}

func TestSchema_FrameDefaultsAndStatusCheck(t *testing.T) {
	db := migratedDB(t)
	insertCampaign(t, db, "c1")
	insertCampaign(t, db, "c2")
	now := time.Now().UTC().Format(time.RFC3339)

	if _, err := db.Exec(`INSERT INTO frames (campaign_id, status, updated_at) VALUES ('c2', 'archived', ?)`, now); err == nil {
		t.Error("frame with status 'archived' was accepted")
	}

	if _, err := db.Exec(`INSERT INTO frames (campaign_id, updated_at) VALUES ('c1', ?)`, now); err != nil {
		t.Fatalf("insert frame: %v", err)
	}
	var fields, steps, status string
	var stepIndex int
	if err := db.QueryRow(`SELECT fields, completed_steps, status, step_index FROM frames WHERE campaign_id = 'c1'`).
		Scan(&fields, &steps, &status, &stepIndex); err != nil {
		t.Fatalf("select frame: %v", err)
	}
	if fields != "{}" || steps != "[]" || status != "draft" || stepIndex != 0 {
		t.Errorf("defaults = fields %q, completed_steps %q, status %q, step_index %d", fields, steps, status, stepIndex)
	}
}

func TestNewSQLiteStore_Pragmas(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pragmas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer st.Close()

	var journal string
	var busy, fk, sync int
	st.db.QueryRow("PRAGMA journal_mode").Scan(&journal)
	st.db.QueryRow("PRAGMA busy_timeout").Scan(&busy)
	st.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	st.db.QueryRow("PRAGMA synchronous").Scan(&sync)

	if journal != "wal" {
		t.Errorf("journal_mode = %q, want wal", journal)
	}
	if busy != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busy)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
	if sync != 1 {
		t.Errorf("synchronous = %d, want 1 (NORMAL)", sync)
	}
}

func TestNewSQLiteStore_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tablekeep.db")
	st, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file: %v", err)
	}
}

func TestNewSQLiteStore_DeletingCampaignCascades(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cascade.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer st.Close()

	insertCampaign(t, st.db, "doomed")
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := st.db.Exec(`INSERT INTO frames (campaign_id, updated_at) VALUES ('doomed', ?)`, now); err != nil {
		t.Fatalf("insert frame: %v", err)
	}
	if _, err := st.db.Exec(`INSERT INTO entities (id, campaign_id, kind, data, created_at) VALUES ('e1', 'doomed', 'npc', '{}', ?)`, now); err != nil {
		t.Fatalf("insert entity: %v", err)
	}

	if _, err := st.db.Exec(`DELETE FROM campaigns WHERE id = 'doomed'`); err != nil {
		t.Fatalf("delete campaign: %v", err)
	}
	for _, table := range []string{"frames", "entities"} {
		var n int
		st.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
		if n != 0 {
			t.Errorf("%s rows after campaign delete = %d, want 0", table, n)
		}
	}
}
