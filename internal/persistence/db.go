// Package persistence provides the SQLite-backed save store: the active
// run save, the legacy ledger, and the append-only story log. It is the
// localStorage equivalent of the browser build — key-value blobs, loaded
// and stored whole.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/fragile/internal/story"
)

// Storage keys, kept from the original browser build for familiarity.
const (
	saveKey   = "fragile_save"
	legacyKey = "fragile_legacy"
)

// DB wraps a SQLite connection for game state persistence.
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
	CREATE TABLE IF NOT EXISTS slots (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS story_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL,
		text       TEXT NOT NULL,
		timestamp  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_story_timestamp ON story_log(timestamp);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) putSlot(key string, value []byte) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO slots (key, value, updated_at) VALUES (?, ?, ?)",
		key, string(value), time.Now().UnixMilli(),
	)
	return err
}

func (db *DB) getSlot(key string) ([]byte, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM slots WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// SaveGame stores the active-run save blob.
func (db *DB) SaveGame(blob []byte) error {
	if err := db.putSlot(saveKey, blob); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// LoadGame returns the active-run save blob, or (nil, nil) when no save
// exists.
func (db *DB) LoadGame() ([]byte, error) {
	blob, err := db.getSlot(saveKey)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	return blob, nil
}

// HasGame reports whether an active-run save exists.
func (db *DB) HasGame() bool {
	blob, err := db.LoadGame()
	return err == nil && blob != nil
}

// DeleteGame removes the active-run save.
func (db *DB) DeleteGame() error {
	_, err := db.conn.Exec("DELETE FROM slots WHERE key = ?", saveKey)
	return err
}

// SaveLegacy stores the legacy ledger blob (prestige.Store).
func (db *DB) SaveLegacy(blob []byte) error {
	if err := db.putSlot(legacyKey, blob); err != nil {
		return fmt.Errorf("save legacy: %w", err)
	}
	return nil
}

// LoadLegacy returns the legacy ledger blob, or (nil, nil) when no
// ledger exists (prestige.Store).
func (db *DB) LoadLegacy() ([]byte, error) {
	blob, err := db.getSlot(legacyKey)
	if err != nil {
		return nil, fmt.Errorf("load legacy: %w", err)
	}
	return blob, nil
}

// AppendStory adds messages to the durable story log. The in-save ring
// buffer keeps only 50 entries; this table keeps everything.
func (db *DB) AppendStory(messages []story.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range messages {
		_, err := tx.Exec(
			"INSERT INTO story_log (message_id, text, timestamp) VALUES (?, ?, ?)",
			m.ID, m.Text, m.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert story message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// RecentStory returns the most recent N story messages, oldest first.
func (db *DB) RecentStory(limit int) ([]story.Message, error) {
	rows, err := db.conn.Queryx(
		"SELECT message_id, text, timestamp FROM story_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []story.Message
	for rows.Next() {
		var m story.Message
		if err := rows.Scan(&m.ID, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// Wipe clears every slot and the story log. Used by `fragile run --fresh`.
func (db *DB) Wipe() error {
	slog.Warn("wiping save database")
	if _, err := db.conn.Exec("DELETE FROM slots"); err != nil {
		return err
	}
	_, err := db.conn.Exec("DELETE FROM story_log")
	return err
}
