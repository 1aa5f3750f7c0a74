package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tatianab/storygraph/internal/models"
)

func twoSceneStory() models.Story {
	return models.Story{
		ID:           "two-scenes",
		Title:        "Two scenes",
		StartSceneID: "A",
		InitialStats: models.DefaultStats(),
		InitialItems: []models.Item{},
		Scenes: []models.Scene{
			{
				ID:    "A",
				Title: "Start",
				Effects: []models.Effect{
					{Type: models.EffectStat, Target: "gold", Action: models.ActionAdd, Value: models.Number(100)},
				},
				Choices: []models.Choice{
					{
						ID: "toB", Text: "Go to B", TargetSceneID: "B",
						Effects: []models.Effect{
							{Type: models.EffectFlag, Target: "sawB", Action: models.ActionSet, Value: models.Bool(true)},
						},
					},
					{
						ID: "broken", Text: "Nowhere", TargetSceneID: "missing",
						Effects: []models.Effect{
							{Type: models.EffectStat, Target: "gold", Action: models.ActionSet, Value: models.Number(0)},
						},
					},
					{
						ID: "locked", Text: "Locked door", TargetSceneID: "B",
						Condition: &models.Condition{Type: models.ConditionItem, Target: "key", Operator: models.OpHas, Value: models.Bool(true)},
					},
				},
			},
			{ID: "B", Title: "End", IsEnding: true, Choices: []models.Choice{
				{ID: "again", Text: "Again", TargetSceneID: "A"},
			}},
		},
	}
}

func TestSessionEndToEnd(t *testing.T) {
	story := twoSceneStory()
	s := NewSession()
	if s.Status() != StatusUnloaded {
		t.Fatalf("Expected UNLOADED, got %s", s.Status())
	}

	s.LoadStory(story)
	if s.Status() != StatusLoaded {
		t.Fatalf("Expected LOADED, got %s", s.Status())
	}
	if _, ok := s.State(); ok {
		t.Fatal("Expected no game state before StartGame")
	}

	if err := s.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	state, _ := s.State()
	if state.Stats.Gold != story.InitialStats.Gold+100 {
		t.Errorf("Expected gold %d, got %d", story.InitialStats.Gold+100, state.Stats.Gold)
	}
	if state.CurrentSceneID != "A" {
		t.Errorf("Expected current scene A, got %s", state.CurrentSceneID)
	}
	if s.Status() != StatusPlaying {
		t.Errorf("Expected PLAYING, got %s", s.Status())
	}

	scene, _ := s.CurrentScene()
	if err := s.MakeChoice(scene.Choices[0]); err != nil {
		t.Fatalf("MakeChoice: %v", err)
	}
	state, _ = s.State()
	if !state.Flags["sawB"] {
		t.Error("Expected sawB flag to be set")
	}
	if state.CurrentSceneID != "B" {
		t.Errorf("Expected current scene B, got %s", state.CurrentSceneID)
	}
	if !reflect.DeepEqual(state.History, []string{"A", "B"}) {
		t.Errorf("Expected history [A B], got %v", state.History)
	}
	if s.Status() != StatusEnded {
		t.Errorf("Expected ENDED, got %s", s.Status())
	}

	cur, _ := s.CurrentScene()
	if err := s.MakeChoice(cur.Choices[0]); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Expected ErrSessionEnded, got %v", err)
	}
	if got := s.AvailableChoices(); len(got) != 0 {
		t.Errorf("Expected no choices in an ending, got %d", len(got))
	}

	s.ResetGame()
	if s.Status() != StatusLoaded {
		t.Errorf("Expected LOADED after reset, got %s", s.Status())
	}
	if _, ok := s.State(); ok {
		t.Error("Expected game state to be cleared on reset")
	}
}

func TestSessionDanglingReference(t *testing.T) {
	s := NewSession()
	s.LoadStory(twoSceneStory())
	if err := s.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	before, _ := s.State()

	scene, _ := s.CurrentScene()
	err := s.MakeChoice(scene.Choices[1])
	if !errors.Is(err, ErrContentIntegrity) {
		t.Fatalf("Expected content integrity error, got %v", err)
	}
	var cie *ContentIntegrityError
	if !errors.As(err, &cie) || cie.SceneID != "missing" {
		t.Errorf("Expected error to name scene %q, got %v", "missing", err)
	}

	after, _ := s.State()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("Expected state untouched after failed choice:\nbefore %+v\nafter  %+v", before, after)
	}
	if s.Status() != StatusPlaying {
		t.Errorf("Expected PLAYING, got %s", s.Status())
	}
}

func TestSessionPreconditions(t *testing.T) {
	s := NewSession()
	if err := s.StartGame(); !errors.Is(err, ErrNoStory) {
		t.Errorf("Expected ErrNoStory, got %v", err)
	}
	if err := s.MakeChoice(models.Choice{ID: "x", TargetSceneID: "A"}); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("Expected ErrNotPlaying, got %v", err)
	}

	s.LoadStory(twoSceneStory())
	if err := s.MakeChoice(models.Choice{ID: "x", TargetSceneID: "A"}); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("Expected ErrNotPlaying before start, got %v", err)
	}
	if err := s.GoToScene("A"); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("Expected ErrNotPlaying before start, got %v", err)
	}

	broken := twoSceneStory()
	broken.StartSceneID = "nope"
	s.LoadStory(broken)
	if err := s.StartGame(); !errors.Is(err, ErrContentIntegrity) {
		t.Errorf("Expected content integrity error, got %v", err)
	}
	if s.Status() != StatusLoaded {
		t.Errorf("Expected LOADED after failed start, got %s", s.Status())
	}
}

func TestSessionChoose(t *testing.T) {
	s := NewSession()
	s.LoadStory(twoSceneStory())
	if err := s.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	if err := s.Choose("locked"); !errors.Is(err, ErrChoiceUnavailable) {
		t.Errorf("Expected ErrChoiceUnavailable for locked choice, got %v", err)
	}
	if err := s.Choose("nope"); !errors.Is(err, ErrChoiceUnavailable) {
		t.Errorf("Expected ErrChoiceUnavailable for unknown choice, got %v", err)
	}

	avail := s.AvailableChoices()
	if len(avail) != 3 {
		t.Fatalf("Expected 3 listed choices, got %d", len(avail))
	}
	if avail[2].Available || avail[2].Explanation != "requires item: key" {
		t.Errorf("Expected locked choice to explain the missing key, got %+v", avail[2])
	}

	if err := s.Choose("toB"); err != nil {
		t.Fatalf("Choose(toB): %v", err)
	}
	if s.Status() != StatusEnded {
		t.Errorf("Expected ENDED, got %s", s.Status())
	}
}

func TestSessionEntryEffectsSeeHistory(t *testing.T) {
	story := twoSceneStory()
	story.Scenes[1].IsEnding = false
	story.Scenes[1].Effects = []models.Effect{
		{Type: models.EffectStat, Target: "gold", Action: models.ActionAdd, Value: models.Number(1)},
	}
	s := NewSession()
	s.LoadStory(story)
	if err := s.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	for range 2 {
		if err := s.Choose("toB"); err != nil {
			t.Fatalf("Choose(toB): %v", err)
		}
		if err := s.Choose("again"); err != nil {
			t.Fatalf("Choose(again): %v", err)
		}
	}
	state, _ := s.State()
	// A fires +100 on every entry, B fires +1.
	if want := 100 + 3*100 + 2*1; state.Stats.Gold != want {
		t.Errorf("Expected gold %d, got %d", want, state.Stats.Gold)
	}
	if !reflect.DeepEqual(state.History, []string{"A", "B", "A", "B", "A"}) {
		t.Errorf("Unexpected history %v", state.History)
	}
}

func TestSessionSetGameState(t *testing.T) {
	s := NewSession()
	if err := s.SetGameState(models.GameState{CurrentSceneID: "A"}); !errors.Is(err, ErrNoStory) {
		t.Errorf("Expected ErrNoStory, got %v", err)
	}

	s.LoadStory(twoSceneStory())
	saved := models.GameState{
		CurrentSceneID: "A",
		Stats:          models.DefaultStats(),
		Flags:          map[string]bool{"x": true},
		History:        []string{"A"},
	}
	if err := s.SetGameState(saved); err != nil {
		t.Fatalf("SetGameState: %v", err)
	}
	if s.Status() != StatusPlaying {
		t.Errorf("Expected PLAYING, got %s", s.Status())
	}
	state, _ := s.State()
	if state.Stats.Gold != 100 {
		t.Errorf("Expected entry effects not to re-fire on rehydrate, gold = %d", state.Stats.Gold)
	}

	saved.CurrentSceneID = "B"
	if err := s.SetGameState(saved); err != nil {
		t.Fatalf("SetGameState: %v", err)
	}
	if s.Status() != StatusEnded {
		t.Errorf("Expected ENDED for a saved ending, got %s", s.Status())
	}

	saved.CurrentSceneID = "gone"
	if err := s.SetGameState(saved); !errors.Is(err, ErrContentIntegrity) {
		t.Errorf("Expected content integrity error, got %v", err)
	}
}

func TestSessionLoadStoryClearsGame(t *testing.T) {
	s := NewSession()
	s.LoadStory(twoSceneStory())
	if err := s.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	s.AddPlayTime(30)
	state, _ := s.State()
	if state.PlayTime != 30 {
		t.Errorf("Expected play time 30, got %d", state.PlayTime)
	}

	s.LoadStory(twoSceneStory())
	if s.Status() != StatusLoaded {
		t.Errorf("Expected LOADED, got %s", s.Status())
	}
	if _, ok := s.CurrentScene(); ok {
		t.Error("Expected no current scene after reload")
	}
}

func TestSessionStartClampsInitialStats(t *testing.T) {
	story := twoSceneStory()
	story.Scenes[0].Effects = nil
	story.InitialStats.HP = 250
	story.InitialStats.MaxHP = 100
	story.InitialStats.Stress = 300

	s := NewSession()
	s.LoadStory(story)
	if err := s.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	state, _ := s.State()
	if state.Stats.HP != 100 || state.Stats.MaxHP != 100 || state.Stats.Stress != models.MaxStress {
		t.Errorf("Expected hp=100 maxHp=100 stress=%d, got %+v", models.MaxStress, state.Stats)
	}
}
