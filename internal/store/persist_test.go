// internal/store/persist_test.go
package store

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// setupTestPersistence creates a persistence layer over an in-memory
// SQLite database.
func setupTestPersistence(t *testing.T) *persistence {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &persistence{db: db}
}

func TestPersistence_LoadVolume_Empty(t *testing.T) {
	p := setupTestPersistence(t)

	vol, err := p.loadVolume()
	if err != nil {
		t.Fatalf("loadVolume failed: %v", err)
	}
	if vol != 1.0 {
		t.Errorf("volume on empty db = %v, want 1.0", vol)
	}
}

func TestPersistence_WriteAndLoadVolume(t *testing.T) {
	p := setupTestPersistence(t)

	if err := p.writeVolume(0.35); err != nil {
		t.Fatalf("writeVolume failed: %v", err)
	}
	vol, err := p.loadVolume()
	if err != nil {
		t.Fatalf("loadVolume failed: %v", err)
	}
	if math.Abs(vol-0.35) > 1e-9 {
		t.Errorf("volume = %v, want 0.35", vol)
	}

	// The single row is upserted, not duplicated.
	if err := p.writeVolume(0.8); err != nil {
		t.Fatalf("second writeVolume failed: %v", err)
	}
	vol, err = p.loadVolume()
	if err != nil {
		t.Fatalf("loadVolume failed: %v", err)
	}
	if math.Abs(vol-0.8) > 1e-9 {
		t.Errorf("volume after upsert = %v, want 0.8", vol)
	}

	var rows int
	if err := p.db.QueryRow(`SELECT COUNT(*) FROM player_state`).Scan(&rows); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
}

func TestPersistence_DebouncedSave(t *testing.T) {
	p := setupTestPersistence(t)

	// A burst of saves collapses into one write of the latest value.
	p.saveVolume(0.1)
	p.saveVolume(0.2)
	p.saveVolume(0.3)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if vol, err := p.loadVolume(); err == nil && math.Abs(vol-0.3) < 1e-9 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	vol, _ := p.loadVolume()
	t.Fatalf("debounced save never landed, volume = %v, want 0.3", vol)
}

func TestPersistence_CloseFlushesPending(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		t.Fatalf("failed to init schema: %v", err)
	}
	p := &persistence{db: db}

	p.saveVolume(0.6)
	// Close before the debounce timer fires; the write must still land.
	if err := p.close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	db2, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to reopen db: %v", err)
	}
	defer db2.Close()

	var vol float64
	if err := db2.QueryRow(`SELECT volume FROM player_state WHERE id = 1`).Scan(&vol); err != nil {
		t.Fatalf("read after close failed: %v", err)
	}
	if math.Abs(vol-0.6) > 1e-9 {
		t.Errorf("flushed volume = %v, want 0.6", vol)
	}
}
