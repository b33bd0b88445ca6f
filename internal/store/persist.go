package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "aether"
	dbFileName   = "aether.db"
	saveDebounce = 500 * time.Millisecond
)

// persistence saves the volume level across sessions. Writes are
// debounced so rapid volume keys do not hammer the database.
type persistence struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *float64
}

func openPersistence() (*persistence, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &persistence{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS player_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			volume REAL NOT NULL DEFAULT 1.0
		)
	`)
	return err
}

func (p *persistence) loadVolume() (float64, error) {
	var volume float64
	row := p.db.QueryRow(`SELECT volume FROM player_state WHERE id = 1`)
	err := row.Scan(&volume)
	if err == sql.ErrNoRows {
		return 1.0, nil
	}
	if err != nil {
		return 0, err
	}
	return volume, nil
}

func (p *persistence) saveVolume(volume float64) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.pending = &volume

	if p.saveTimer != nil {
		p.saveTimer.Stop()
	}

	p.saveTimer = time.AfterFunc(saveDebounce, func() {
		p.saveMu.Lock()
		pending := p.pending
		p.pending = nil
		p.saveMu.Unlock()

		if pending != nil {
			_ = p.writeVolume(*pending)
		}
	})
}

func (p *persistence) writeVolume(volume float64) error {
	_, err := p.db.Exec(`
		INSERT INTO player_state (id, volume)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET volume = excluded.volume
	`, volume)
	return err
}

func (p *persistence) close() error {
	p.saveMu.Lock()
	if p.saveTimer != nil {
		p.saveTimer.Stop()
	}
	pending := p.pending
	p.pending = nil
	p.saveMu.Unlock()

	// Flush pending volume
	if pending != nil {
		_ = p.writeVolume(*pending)
	}

	return p.db.Close()
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
