package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tatianab/storygraph/internal/models"
)

// SQLiteStore keeps saves in a SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	maxSlots int
	now      func() time.Time
}

func NewSQLiteStore(filePath string, maxSlots int) (*SQLiteStore, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if filePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return nil, err
		}
	}
	if maxSlots < 1 {
		maxSlots = DefaultMaxSlots
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, maxSlots: maxSlots, now: utcNow}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS save_slots (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			story_id    TEXT NOT NULL,
			story_title TEXT NOT NULL,
			game_state  TEXT NOT NULL,
			saved_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS save_slots_saved_at ON save_slots (saved_at)`,
		`CREATE TABLE IF NOT EXISTS auto_save (
			slot        INTEGER PRIMARY KEY CHECK (slot = 1),
			story_id    TEXT NOT NULL,
			story_title TEXT NOT NULL,
			game_state  TEXT NOT NULL,
			saved_at    INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListSaveSlots(ctx context.Context) ([]models.SaveSlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, story_id, story_title, game_state, saved_at
		FROM save_slots
		ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.SaveSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, slotID, name, storyID, storyTitle string, state models.GameState) (models.SaveSlot, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return models.SaveSlot{}, err
	}
	slot := models.SaveSlot{
		ID:         slotID,
		Name:       name,
		StoryID:    storyID,
		StoryTitle: storyTitle,
		GameState:  state.Clone(),
		SavedAt:    s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SaveSlot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM save_slots WHERE id = ?)`, slotID,
	).Scan(&exists); err != nil {
		return models.SaveSlot{}, err
	}
	if !exists {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM save_slots`).Scan(&count); err != nil {
			return models.SaveSlot{}, err
		}
		if evict := count - s.maxSlots + 1; evict > 0 {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM save_slots
				WHERE id IN (SELECT id FROM save_slots ORDER BY saved_at ASC LIMIT ?)`,
				evict,
			); err != nil {
				return models.SaveSlot{}, err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO save_slots
		(id, name, story_id, story_title, game_state, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		slot.ID,
		slot.Name,
		slot.StoryID,
		slot.StoryTitle,
		string(raw),
		slot.SavedAt.UnixNano(),
	); err != nil {
		return models.SaveSlot{}, err
	}
	return slot, tx.Commit()
}

func (s *SQLiteStore) LoadSave(ctx context.Context, slotID string) (models.SaveSlot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, story_id, story_title, game_state, saved_at
		FROM save_slots
		WHERE id = ?`,
		slotID,
	)
	slot, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SaveSlot{}, false, nil
	}
	if err != nil {
		return models.SaveSlot{}, false, err
	}
	return slot, true, nil
}

func (s *SQLiteStore) DeleteSave(ctx context.Context, slotID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM save_slots WHERE id = ?`, slotID)
	return err
}

func (s *SQLiteStore) WriteAutoSave(ctx context.Context, storyID, storyTitle string, state models.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO auto_save
		(slot, story_id, story_title, game_state, saved_at)
		VALUES (1, ?, ?, ?, ?)`,
		storyID,
		storyTitle,
		string(raw),
		s.now().UnixNano(),
	)
	return err
}

func (s *SQLiteStore) ReadAutoSave(ctx context.Context) (models.AutoSave, bool, error) {
	var (
		auto    models.AutoSave
		raw     string
		savedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT story_id, story_title, game_state, saved_at
		FROM auto_save
		WHERE slot = 1`,
	).Scan(&auto.StoryID, &auto.StoryTitle, &raw, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AutoSave{}, false, nil
	}
	if err != nil {
		return models.AutoSave{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &auto.GameState); err != nil {
		return models.AutoSave{}, false, fmt.Errorf("decode auto-save: %w", err)
	}
	auto.SavedAt = fromNanos(savedAt)
	return auto, true, nil
}

func (s *SQLiteStore) ClearAutoSave(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auto_save`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (models.SaveSlot, error) {
	var (
		slot    models.SaveSlot
		raw     string
		savedAt int64
	)
	if err := row.Scan(
		&slot.ID,
		&slot.Name,
		&slot.StoryID,
		&slot.StoryTitle,
		&raw,
		&savedAt,
	); err != nil {
		return models.SaveSlot{}, err
	}
	if err := json.Unmarshal([]byte(raw), &slot.GameState); err != nil {
		return models.SaveSlot{}, fmt.Errorf("decode save %q: %w", slot.ID, err)
	}
	slot.SavedAt = fromNanos(savedAt)
	return slot, nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
