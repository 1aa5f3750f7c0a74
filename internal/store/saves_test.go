package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tatianab/storygraph/internal/models"
)

type saveBackend struct {
	name string
	open func(t *testing.T, maxSlots int, now func() time.Time) Saves
}

func backends() []saveBackend {
	return []saveBackend{
		{"json", func(t *testing.T, maxSlots int, now func() time.Time) Saves {
			s, err := NewJSONStore(filepath.Join(t.TempDir(), "saves", "saves.json"), maxSlots)
			if err != nil {
				t.Fatalf("NewJSONStore: %v", err)
			}
			s.now = now
			return s
		}},
		{"sqlite", func(t *testing.T, maxSlots int, now func() time.Time) Saves {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "saves.db"), maxSlots)
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			s.now = now
			return s
		}},
	}
}

// tickingClock returns a clock that advances one minute per call.
func tickingClock() func() time.Time {
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func sampleState(scene string) models.GameState {
	return models.GameState{
		CurrentSceneID:     scene,
		Stats:              models.DefaultStats(),
		Inventory:          []models.Item{{ID: "key", Name: "Key", Quantity: 1}},
		Flags:              map[string]bool{"sawB": true},
		CharacterRelations: map[string]int{"Mira": 3},
		History:            []string{"A", scene},
		PlayTime:           42,
	}
}

func TestSaveSlots(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, 10, tickingClock())

			slots, err := s.ListSaveSlots(ctx)
			if err != nil || len(slots) != 0 {
				t.Fatalf("Expected no slots, got %v (err=%v)", slots, err)
			}

			saved, err := s.SaveSession(ctx, "slot-1", "Before the gate", "village", "Village", sampleState("B"))
			if err != nil {
				t.Fatalf("SaveSession: %v", err)
			}
			got, ok, err := s.LoadSave(ctx, "slot-1")
			if err != nil || !ok {
				t.Fatalf("LoadSave: ok=%v err=%v", ok, err)
			}
			if got.Name != "Before the gate" || got.StoryID != "village" || got.StoryTitle != "Village" {
				t.Errorf("Unexpected slot %+v", got)
			}
			if !got.SavedAt.Equal(saved.SavedAt) {
				t.Errorf("Expected saved at %v, got %v", saved.SavedAt, got.SavedAt)
			}
			if got.GameState.CurrentSceneID != "B" || !got.GameState.Flags["sawB"] || got.GameState.PlayTime != 42 {
				t.Errorf("Unexpected game state %+v", got.GameState)
			}

			if _, ok, err := s.LoadSave(ctx, "nope"); ok || err != nil {
				t.Errorf("Expected missing slot to be absent, ok=%v err=%v", ok, err)
			}

			if _, err := s.SaveSession(ctx, "slot-1", "Renamed", "village", "Village", sampleState("C")); err != nil {
				t.Fatalf("SaveSession overwrite: %v", err)
			}
			slots, _ = s.ListSaveSlots(ctx)
			if len(slots) != 1 || slots[0].Name != "Renamed" || slots[0].GameState.CurrentSceneID != "C" {
				t.Errorf("Expected overwrite in place, got %+v", slots)
			}

			if err := s.DeleteSave(ctx, "slot-1"); err != nil {
				t.Fatalf("DeleteSave: %v", err)
			}
			if _, ok, _ := s.LoadSave(ctx, "slot-1"); ok {
				t.Error("Expected slot to be deleted")
			}
		})
	}
}

func TestSaveSlotsEvictOldest(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, 3, tickingClock())
			for i := 1; i <= 5; i++ {
				id := fmt.Sprintf("slot-%d", i)
				if _, err := s.SaveSession(ctx, id, id, "village", "Village", sampleState("A")); err != nil {
					t.Fatalf("SaveSession(%s): %v", id, err)
				}
			}

			slots, err := s.ListSaveSlots(ctx)
			if err != nil {
				t.Fatalf("ListSaveSlots: %v", err)
			}
			var ids []string
			for _, slot := range slots {
				ids = append(ids, slot.ID)
			}
			want := []string{"slot-5", "slot-4", "slot-3"}
			if fmt.Sprint(ids) != fmt.Sprint(want) {
				t.Errorf("Expected newest three slots %v, got %v", want, ids)
			}

			// Overwriting an existing slot at capacity evicts nothing.
			if _, err := s.SaveSession(ctx, "slot-3", "again", "village", "Village", sampleState("A")); err != nil {
				t.Fatalf("SaveSession: %v", err)
			}
			slots, _ = s.ListSaveSlots(ctx)
			if len(slots) != 3 || slots[0].ID != "slot-3" {
				t.Errorf("Expected 3 slots with slot-3 newest, got %+v", slots)
			}
		})
	}
}

func TestAutoSave(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, 10, tickingClock())
			if _, ok, err := s.ReadAutoSave(ctx); ok || err != nil {
				t.Fatalf("Expected no auto-save, ok=%v err=%v", ok, err)
			}

			if err := s.WriteAutoSave(ctx, "village", "Village", sampleState("A")); err != nil {
				t.Fatalf("WriteAutoSave: %v", err)
			}
			if err := s.WriteAutoSave(ctx, "village", "Village", sampleState("B")); err != nil {
				t.Fatalf("WriteAutoSave: %v", err)
			}
			auto, ok, err := s.ReadAutoSave(ctx)
			if err != nil || !ok {
				t.Fatalf("ReadAutoSave: ok=%v err=%v", ok, err)
			}
			if auto.StoryID != "village" || auto.GameState.CurrentSceneID != "B" {
				t.Errorf("Expected the latest auto-save, got %+v", auto)
			}

			if err := s.ClearAutoSave(ctx); err != nil {
				t.Fatalf("ClearAutoSave: %v", err)
			}
			if _, ok, _ := s.ReadAutoSave(ctx); ok {
				t.Error("Expected auto-save to be cleared")
			}
		})
	}
}

func TestJSONStoreReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.json")
	s, err := NewJSONStore(path, 10)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if _, err := s.SaveSession(ctx, "slot-1", "one", "village", "Village", sampleState("A")); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := s.WriteAutoSave(ctx, "village", "Village", sampleState("B")); err != nil {
		t.Fatalf("WriteAutoSave: %v", err)
	}

	reopened, err := NewJSONStore(path, 10)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if _, ok, _ := reopened.LoadSave(ctx, "slot-1"); !ok {
		t.Error("Expected slot to survive reopen")
	}
	if auto, ok, _ := reopened.ReadAutoSave(ctx); !ok || auto.GameState.CurrentSceneID != "B" {
		t.Errorf("Expected auto-save to survive reopen, got %+v", auto)
	}
}

func TestNewByEngine(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewByEngine("JSON", filepath.Join(dir, "s.json"), 10); err != nil {
		t.Errorf("json engine: %v", err)
	}
	st, err := NewByEngine("sqlite", filepath.Join(dir, "s.db"), 10)
	if err != nil {
		t.Fatalf("sqlite engine: %v", err)
	}
	if closer, ok := st.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if _, err := NewByEngine("postgres", "x", 10); err == nil {
		t.Error("Expected an error for an unsupported engine")
	}
}

func TestJSONStoreRecoversFromCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewByEngine(EngineJSON, path, 10)
	if err != nil {
		t.Fatalf("NewByEngine: %v", err)
	}
	slots, err := s.ListSaveSlots(ctx)
	if err != nil || len(slots) != 0 {
		t.Errorf("Expected no slots, got %v (err=%v)", slots, err)
	}
	if _, ok, err := s.ReadAutoSave(ctx); ok || err != nil {
		t.Errorf("Expected no auto-save, ok=%v err=%v", ok, err)
	}
	if data, err := os.ReadFile(path + ".corrupt"); err != nil || string(data) != "{not json" {
		t.Errorf("Expected the unreadable file to be kept aside, got %q (err=%v)", data, err)
	}

	if err := s.WriteAutoSave(ctx, "village", "Village", sampleState("A")); err != nil {
		t.Fatalf("WriteAutoSave: %v", err)
	}
	reopened, err := NewJSONStore(path, 10)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if _, ok, _ := reopened.ReadAutoSave(ctx); !ok {
		t.Error("Expected the store to be writable after recovery")
	}
}
