package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tatianab/storygraph/internal/models"
)

type fileState struct {
	Slots    []models.SaveSlot `json:"slots"`
	AutoSave *models.AutoSave  `json:"autoSave,omitempty"`
}

// JSONStore keeps every save in a single JSON file.
type JSONStore struct {
	filePath string
	maxSlots int
	now      func() time.Time

	mu    sync.RWMutex
	state fileState
}

func NewJSONStore(filePath string, maxSlots int) (*JSONStore, error) {
	if maxSlots < 1 {
		maxSlots = DefaultMaxSlots
	}
	s := &JSONStore{
		filePath: filePath,
		maxSlots: maxSlots,
		now:      utcNow,
		state:    fileState{Slots: make([]models.SaveSlot, 0)},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) ListSaveSlots(_ context.Context) ([]models.SaveSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.SaveSlot(nil), s.state.Slots...)
	newestFirst(out)
	return out, nil
}

func (s *JSONStore) SaveSession(_ context.Context, slotID, name, storyID, storyTitle string, state models.GameState) (models.SaveSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := models.SaveSlot{
		ID:         slotID,
		Name:       name,
		StoryID:    storyID,
		StoryTitle: storyTitle,
		GameState:  state.Clone(),
		SavedAt:    s.now(),
	}
	s.state.Slots = upsertSlot(s.state.Slots, slot, s.maxSlots)
	return slot, s.persistLocked()
}

func (s *JSONStore) LoadSave(_ context.Context, slotID string) (models.SaveSlot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, slot := range s.state.Slots {
		if slot.ID == slotID {
			return slot, true, nil
		}
	}
	return models.SaveSlot{}, false, nil
}

func (s *JSONStore) DeleteSave(_ context.Context, slotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.state.Slots[:0]
	for _, slot := range s.state.Slots {
		if slot.ID != slotID {
			kept = append(kept, slot)
		}
	}
	s.state.Slots = kept
	return s.persistLocked()
}

func (s *JSONStore) WriteAutoSave(_ context.Context, storyID, storyTitle string, state models.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AutoSave = &models.AutoSave{
		StoryID:    storyID,
		StoryTitle: storyTitle,
		GameState:  state.Clone(),
		SavedAt:    s.now(),
	}
	return s.persistLocked()
}

func (s *JSONStore) ReadAutoSave(_ context.Context) (models.AutoSave, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.AutoSave == nil {
		return models.AutoSave{}, false, nil
	}
	return *s.state.AutoSave, true, nil
}

func (s *JSONStore) ClearAutoSave(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AutoSave = nil
	return s.persistLocked()
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("Warning: unreadable save file %s, starting empty: %v", s.filePath, err)
		if err := os.Rename(s.filePath, s.filePath+".corrupt"); err != nil {
			log.Printf("Warning: keeping unreadable save file: %v", err)
		}
		return nil
	}
	if state.Slots == nil {
		state.Slots = make([]models.SaveSlot, 0)
	}
	s.state = state
	return nil
}

func (s *JSONStore) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.filePath)
}
