// Package persistence provides SQLite-based snapshot storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nantestudio/antworld/internal/engine"
)

// ErrNoSnapshot is returned when the store holds no snapshots.
var ErrNoSnapshot = errors.New("persistence: no snapshot")

// DB wraps a SQLite connection for simulation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		cols INTEGER NOT NULL,
		rows INTEGER NOT NULL,
		ant_count INTEGER NOT NULL,
		envelope TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_tick ON snapshots(tick);
	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SnapshotInfo is the per-row metadata without the envelope payload.
type SnapshotInfo struct {
	ID        string  `db:"id" json:"id"`
	CreatedAt string  `db:"created_at" json:"created_at"`
	Seed      int64   `db:"seed" json:"seed"`
	Tick      uint64  `db:"tick" json:"tick"`
	SimTime   float64 `db:"sim_time" json:"sim_time"`
	Cols      int     `db:"cols" json:"cols"`
	Rows      int     `db:"rows" json:"rows"`
	AntCount  int     `db:"ant_count" json:"ant_count"`
}

// SaveSnapshot serializes and stores a snapshot envelope.
func (db *DB) SaveSnapshot(snap *engine.Snapshot) error {
	envelope, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = db.conn.Exec(`INSERT INTO snapshots
		(id, created_at, seed, tick, sim_time, cols, rows, ant_count, envelope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, time.Now().UTC().Format(time.RFC3339),
		snap.Seed, snap.Tick, snap.SimTime,
		snap.Cols, snap.Rows, len(snap.Ants), string(envelope),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}

	slog.Info("snapshot saved", "id", snap.ID, "tick", snap.Tick, "ants", len(snap.Ants))
	return nil
}

// LoadSnapshot retrieves a snapshot by id.
func (db *DB) LoadSnapshot(id string) (*engine.Snapshot, error) {
	var envelope string
	err := db.conn.Get(&envelope, "SELECT envelope FROM snapshots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(envelope)
}

// LoadLatestSnapshot retrieves the snapshot with the highest tick.
func (db *DB) LoadLatestSnapshot() (*engine.Snapshot, error) {
	var envelope string
	err := db.conn.Get(&envelope,
		"SELECT envelope FROM snapshots ORDER BY tick DESC, created_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(envelope)
}

func decodeEnvelope(envelope string) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(envelope), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// ListSnapshots returns metadata rows, newest first.
func (db *DB) ListSnapshots(limit int) ([]SnapshotInfo, error) {
	var rows []SnapshotInfo
	err := db.conn.Select(&rows, `SELECT
		id, created_at, seed, tick, sim_time, cols, rows, ant_count
		FROM snapshots ORDER BY tick DESC, created_at DESC LIMIT ?`, limit)
	return rows, err
}

// PruneSnapshots removes all but the newest keep snapshots.
func (db *DB) PruneSnapshots(keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := db.conn.Exec(`DELETE FROM snapshots WHERE id NOT IN
		(SELECT id FROM snapshots ORDER BY tick DESC, created_at DESC LIMIT ?)`, keep)
	return err
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveWorldState captures the simulation, stores the snapshot, and flushes
// recent events in one pass.
func (db *DB) SaveWorldState(sim *engine.Simulation, keepSnapshots int) error {
	snap := sim.ToSnapshot()
	if err := db.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := db.SaveEvents(sim.Events(200)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", sim.Tick())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if keepSnapshots > 0 {
		if err := db.PruneSnapshots(keepSnapshots); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}
	return nil
}
