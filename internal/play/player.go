// Package play is the access surface over a game session: it finds stories by
// access code or id, keeps the auto-save current and manages save slots.
package play

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tatianab/storygraph/internal/engine"
	"github.com/tatianab/storygraph/internal/models"
	"github.com/tatianab/storygraph/internal/store"
)

var (
	ErrStoryNotFound = errors.New("cannot access story")
	ErrNoAutoSave    = errors.New("no game to continue")
	ErrSaveNotFound  = errors.New("save not found")
)

// Player drives one engine.Session against a story library and a save store.
// Read failures from either are logged and treated as absence.
type Player struct {
	session *engine.Session
	stories store.Stories
	saves   store.Saves

	now      func() time.Time
	lastTick time.Time
}

type Option func(*Player)

// WithClock replaces the wall clock used for play time.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

func New(stories store.Stories, saves store.Saves, opts ...Option) *Player {
	p := &Player{
		session: engine.NewSession(),
		stories: stories,
		saves:   saves,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) Status() engine.Status { return p.session.Status() }

func (p *Player) Story() (models.Story, bool) { return p.session.Story() }

func (p *Player) State() (models.GameState, bool) { return p.session.State() }

func (p *Player) CurrentScene() (models.Scene, bool) { return p.session.CurrentScene() }

// Choices annotates the current scene's choices with their availability.
func (p *Player) Choices() []engine.Availability { return p.session.AvailableChoices() }

// Stories lists every loadable story in the library.
func (p *Player) Stories(ctx context.Context) []models.Story {
	stories, err := p.stories.All(ctx)
	if err != nil {
		log.Printf("Warning: listing stories: %v", err)
		return []models.Story{}
	}
	return stories
}

// LoadByCode loads the story with the given access code.
func (p *Player) LoadByCode(ctx context.Context, code string) error {
	story, err := p.stories.FindByCode(ctx, code)
	if err != nil {
		return p.notFound(fmt.Sprintf("code %q", code), err)
	}
	p.session.LoadStory(*story)
	return nil
}

// LoadByID loads a story by file name or story id.
func (p *Player) LoadByID(ctx context.Context, id string) error {
	story, err := p.stories.Resolve(ctx, id)
	if err != nil {
		return p.notFound(fmt.Sprintf("story %q", id), err)
	}
	p.session.LoadStory(*story)
	return nil
}

func (p *Player) notFound(what string, err error) error {
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Warning: loading %s: %v", what, err)
	}
	return fmt.Errorf("%s: %w", what, ErrStoryNotFound)
}

// Start begins a fresh game of the loaded story.
func (p *Player) Start(ctx context.Context) error {
	if err := p.session.StartGame(); err != nil {
		return err
	}
	p.lastTick = p.now()
	p.autoSave(ctx)
	return nil
}

// Choose takes a choice of the current scene by id. Every successful
// transition accumulates play time and rewrites the auto-save.
func (p *Player) Choose(ctx context.Context, choiceID string) error {
	now := p.now()
	if err := p.session.Choose(choiceID); err != nil {
		return err
	}
	p.tick(now)
	p.autoSave(ctx)
	return nil
}

// Continue resumes the game recorded in the auto-save.
func (p *Player) Continue(ctx context.Context) error {
	auto, ok := p.AutoSave(ctx)
	if !ok {
		return ErrNoAutoSave
	}
	return p.resume(ctx, auto.StoryID, auto.GameState)
}

// AutoSave reports the current auto-save, if any.
func (p *Player) AutoSave(ctx context.Context) (models.AutoSave, bool) {
	auto, ok, err := p.saves.ReadAutoSave(ctx)
	if err != nil {
		log.Printf("Warning: reading auto-save: %v", err)
		return models.AutoSave{}, false
	}
	return auto, ok
}

func (p *Player) resume(ctx context.Context, storyID string, state models.GameState) error {
	if err := p.LoadByID(ctx, storyID); err != nil {
		return err
	}
	if err := p.session.SetGameState(state); err != nil {
		p.session.ResetGame()
		return err
	}
	p.lastTick = p.now()
	return nil
}

// Restart clears the auto-save and starts the loaded story over.
func (p *Player) Restart(ctx context.Context) error {
	if _, ok := p.session.Story(); !ok {
		return engine.ErrNoStory
	}
	p.session.ResetGame()
	if err := p.saves.ClearAutoSave(ctx); err != nil {
		log.Printf("Warning: clearing auto-save: %v", err)
	}
	return p.Start(ctx)
}

// SaveToSlot writes the game in progress to slotID, or to a new slot when
// slotID is empty. An empty name defaults to the story and scene titles.
func (p *Player) SaveToSlot(ctx context.Context, slotID, name string) (models.SaveSlot, error) {
	story, _ := p.session.Story()
	if _, ok := p.session.State(); !ok {
		return models.SaveSlot{}, engine.ErrNotPlaying
	}
	p.tick(p.now())
	state, _ := p.session.State()

	if slotID == "" {
		slotID = "save-" + uuid.NewString()
	}
	if name == "" {
		name = story.Title
		if scene, ok := p.session.CurrentScene(); ok && scene.Title != "" {
			name += " - " + scene.Title
		}
	}
	slot, err := p.saves.SaveSession(ctx, slotID, name, story.ID, story.Title, state)
	if err != nil {
		return models.SaveSlot{}, fmt.Errorf("save game: %w", err)
	}
	return slot, nil
}

// LoadSlot resumes the game stored in a save slot.
func (p *Player) LoadSlot(ctx context.Context, slotID string) error {
	slot, ok, err := p.saves.LoadSave(ctx, slotID)
	if err != nil {
		log.Printf("Warning: reading save %q: %v", slotID, err)
	}
	if err != nil || !ok {
		return fmt.Errorf("slot %q: %w", slotID, ErrSaveNotFound)
	}
	if err := p.resume(ctx, slot.StoryID, slot.GameState); err != nil {
		return err
	}
	p.autoSave(ctx)
	return nil
}

func (p *Player) DeleteSlot(ctx context.Context, slotID string) error {
	return p.saves.DeleteSave(ctx, slotID)
}

// ListSlots returns the save slots, newest first.
func (p *Player) ListSlots(ctx context.Context) []models.SaveSlot {
	slots, err := p.saves.ListSaveSlots(ctx)
	if err != nil {
		log.Printf("Warning: listing saves: %v", err)
		return []models.SaveSlot{}
	}
	return slots
}

// tick adds the whole seconds since the last tick to the play time and
// carries the remainder forward.
func (p *Player) tick(now time.Time) {
	if p.lastTick.IsZero() {
		p.lastTick = now
		return
	}
	secs := int64(now.Sub(p.lastTick) / time.Second)
	if secs <= 0 {
		return
	}
	p.session.AddPlayTime(secs)
	p.lastTick = p.lastTick.Add(time.Duration(secs) * time.Second)
}

func (p *Player) autoSave(ctx context.Context) {
	story, _ := p.session.Story()
	state, ok := p.session.State()
	if !ok {
		return
	}
	if err := p.saves.WriteAutoSave(ctx, story.ID, story.Title, state); err != nil {
		log.Printf("Warning: writing auto-save: %v", err)
	}
}
