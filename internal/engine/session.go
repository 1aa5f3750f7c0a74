// Package engine evaluates conditions, applies effects and drives a player
// through a loaded story.
package engine

import (
	"errors"
	"fmt"

	"github.com/tatianab/storygraph/internal/models"
)

var (
	ErrNoStory           = errors.New("no story loaded")
	ErrNotPlaying        = errors.New("no game in progress")
	ErrSessionEnded      = errors.New("story has ended")
	ErrChoiceUnavailable = errors.New("choice is not available")
	ErrContentIntegrity  = errors.New("content integrity error")
)

// ContentIntegrityError reports a reference in the story document that does
// not resolve. It matches ErrContentIntegrity.
type ContentIntegrityError struct {
	StoryID string
	SceneID string
	Reason  string
}

func (e *ContentIntegrityError) Error() string {
	return fmt.Sprintf("story %q: scene %q: %s", e.StoryID, e.SceneID, e.Reason)
}

func (e *ContentIntegrityError) Is(target error) bool {
	return target == ErrContentIntegrity
}

// Status is the lifecycle position of a Session.
type Status int

const (
	StatusUnloaded Status = iota
	StatusLoaded
	StatusPlaying
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "UNLOADED"
	case StatusLoaded:
		return "LOADED"
	case StatusPlaying:
		return "PLAYING"
	case StatusEnded:
		return "ENDED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Session is the runtime state machine for one player and one story.
// It is not safe for concurrent use.
type Session struct {
	story  *models.Story
	state  models.GameState
	scene  *models.Scene
	status Status
}

func NewSession() *Session {
	return &Session{}
}

// LoadStory makes story the active story and discards any game in progress.
func (s *Session) LoadStory(story models.Story) {
	s.story = &story
	s.state = models.GameState{}
	s.scene = nil
	s.status = StatusLoaded
}

func (s *Session) Story() (models.Story, bool) {
	if s.story == nil {
		return models.Story{}, false
	}
	return *s.story, true
}

func (s *Session) Status() Status { return s.status }

// State returns a copy of the current game state. ok is false when no game
// is in progress.
func (s *Session) State() (state models.GameState, ok bool) {
	if s.status != StatusPlaying && s.status != StatusEnded {
		return models.GameState{}, false
	}
	return s.state.Clone(), true
}

func (s *Session) CurrentScene() (models.Scene, bool) {
	if s.scene == nil {
		return models.Scene{}, false
	}
	return *s.scene, true
}

// StartGame seeds a fresh game state from the story and enters the start
// scene, firing its entry effects.
func (s *Session) StartGame() error {
	if s.story == nil {
		return ErrNoStory
	}
	start, ok := s.story.Scene(s.story.StartSceneID)
	if !ok {
		return &ContentIntegrityError{
			StoryID: s.story.ID,
			SceneID: s.story.StartSceneID,
			Reason:  "start scene does not exist",
		}
	}

	s.state = models.NewGameState(s.story)
	s.status = StatusPlaying
	s.enter(start)
	return nil
}

// MakeChoice applies the choice's effects and moves to its target scene.
// The target is resolved first, so a dangling reference leaves the state
// untouched.
func (s *Session) MakeChoice(choice models.Choice) error {
	switch s.status {
	case StatusPlaying:
	case StatusEnded:
		return ErrSessionEnded
	default:
		return ErrNotPlaying
	}
	target, err := s.resolve(choice.TargetSceneID, "choice "+choice.ID)
	if err != nil {
		return err
	}
	if len(choice.Effects) > 0 {
		s.state = Apply(choice.Effects, s.state)
	}
	s.goToScene(target)
	return nil
}

// Choose selects a choice of the current scene by id, refusing it when its
// condition makes it unavailable.
func (s *Session) Choose(choiceID string) error {
	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	if s.status != StatusPlaying || s.scene == nil {
		return ErrNotPlaying
	}
	for _, c := range s.scene.Choices {
		if c.ID != choiceID {
			continue
		}
		if !IsAvailable(c, s.state) {
			return fmt.Errorf("%w: %s", ErrChoiceUnavailable, Explain(c, s.state))
		}
		return s.MakeChoice(c)
	}
	return fmt.Errorf("%w: scene %q has no choice %q", ErrChoiceUnavailable, s.scene.ID, choiceID)
}

// GoToScene moves directly to sceneID, recording it in the history and
// firing its entry effects.
func (s *Session) GoToScene(sceneID string) error {
	if s.status != StatusPlaying {
		return ErrNotPlaying
	}
	target, err := s.resolve(sceneID, "transition")
	if err != nil {
		return err
	}
	s.goToScene(target)
	return nil
}

func (s *Session) resolve(sceneID, from string) (*models.Scene, error) {
	target, ok := s.story.Scene(sceneID)
	if !ok {
		return nil, &ContentIntegrityError{
			StoryID: s.story.ID,
			SceneID: sceneID,
			Reason:  from + " targets a scene that does not exist",
		}
	}
	return target, nil
}

// goToScene appends to history before the entry effects run.
func (s *Session) goToScene(target *models.Scene) {
	s.state.History = append(s.state.History, target.ID)
	s.state.CurrentSceneID = target.ID
	s.enter(target)
}

func (s *Session) enter(scene *models.Scene) {
	s.scene = scene
	if len(scene.Effects) > 0 {
		s.state = Apply(scene.Effects, s.state)
	}
	if scene.IsEnding {
		s.status = StatusEnded
	}
}

// AvailableChoices annotates every choice of the current scene. Ending
// scenes offer none.
func (s *Session) AvailableChoices() []Availability {
	if s.status != StatusPlaying || s.scene == nil {
		return nil
	}
	return Annotate(*s.scene, s.state)
}

// ResetGame discards the game in progress and returns to Loaded.
func (s *Session) ResetGame() {
	s.state = models.GameState{}
	s.scene = nil
	if s.story != nil {
		s.status = StatusLoaded
	} else {
		s.status = StatusUnloaded
	}
}

// SetGameState rehydrates a saved game. The session ends up Ended when the
// saved scene is an ending, Playing otherwise.
func (s *Session) SetGameState(state models.GameState) error {
	if s.story == nil {
		return ErrNoStory
	}
	scene, err := s.resolve(state.CurrentSceneID, "saved game")
	if err != nil {
		return err
	}
	s.state = state.Clone()
	s.scene = scene
	s.status = StatusPlaying
	if scene.IsEnding {
		s.status = StatusEnded
	}
	return nil
}

// AddPlayTime accumulates seconds of play into the current game state.
func (s *Session) AddPlayTime(seconds int64) {
	if s.status == StatusPlaying || s.status == StatusEnded {
		s.state.PlayTime += seconds
	}
}
