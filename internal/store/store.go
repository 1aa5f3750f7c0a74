// Package store persists story documents and player saves.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tatianab/storygraph/internal/models"
)

// ErrNotFound is returned when a story or save does not exist.
var ErrNotFound = errors.New("not found")

// DefaultMaxSlots is the number of save slots kept before the oldest is
// evicted.
const DefaultMaxSlots = 10

// Stories reads story documents.
type Stories interface {
	Index(ctx context.Context) ([]string, error)
	All(ctx context.Context) ([]models.Story, error)
	Resolve(ctx context.Context, identifier string) (*models.Story, error)
	FindByCode(ctx context.Context, code string) (*models.Story, error)
}

// Saves stores named save slots and the single auto-save.
type Saves interface {
	ListSaveSlots(ctx context.Context) ([]models.SaveSlot, error)
	SaveSession(ctx context.Context, slotID, name, storyID, storyTitle string, state models.GameState) (models.SaveSlot, error)
	LoadSave(ctx context.Context, slotID string) (models.SaveSlot, bool, error)
	DeleteSave(ctx context.Context, slotID string) error
	WriteAutoSave(ctx context.Context, storyID, storyTitle string, state models.GameState) error
	ReadAutoSave(ctx context.Context) (models.AutoSave, bool, error)
	ClearAutoSave(ctx context.Context) error
}

// upsertSlot replaces the slot with the same id in place, or appends it after
// evicting the oldest slots so at most limit remain.
func upsertSlot(slots []models.SaveSlot, slot models.SaveSlot, limit int) []models.SaveSlot {
	for i := range slots {
		if slots[i].ID == slot.ID {
			slots[i] = slot
			return slots
		}
	}
	if limit < 1 {
		limit = 1
	}
	if len(slots) >= limit {
		sort.SliceStable(slots, func(i, j int) bool {
			return slots[i].SavedAt.Before(slots[j].SavedAt)
		})
		slots = slots[len(slots)-limit+1:]
	}
	return append(slots, slot)
}

// newestFirst sorts slots by save time, most recent first.
func newestFirst(slots []models.SaveSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].SavedAt.After(slots[j].SavedAt)
	})
}

func utcNow() time.Time { return time.Now().UTC() }
