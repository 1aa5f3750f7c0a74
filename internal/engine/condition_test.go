package engine

import (
	"strings"
	"testing"

	"github.com/tatianab/storygraph/internal/models"
)

func testState() models.GameState {
	return models.GameState{
		CurrentSceneID:     "a",
		Stats:              models.DefaultStats(),
		Inventory:          []models.Item{{ID: "key", Name: "Key", Quantity: 1}},
		Flags:              map[string]bool{"metMira": true},
		CharacterRelations: map[string]int{"Mira": 15},
		History:            []string{"a"},
	}
}

func TestEvaluate(t *testing.T) {
	state := testState()
	tests := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"stat gt", models.Condition{Type: models.ConditionStat, Target: "strength", Operator: models.OpGT, Value: models.Number(9)}, true},
		{"stat gte equal", models.Condition{Type: models.ConditionStat, Target: "strength", Operator: models.OpGTE, Value: models.Number(10)}, true},
		{"stat lt", models.Condition{Type: models.ConditionStat, Target: "gold", Operator: models.OpLT, Value: models.Number(100)}, false},
		{"stat lte", models.Condition{Type: models.ConditionStat, Target: "gold", Operator: models.OpLTE, Value: models.Number(100)}, true},
		{"stat eq", models.Condition{Type: models.ConditionStat, Target: "hp", Operator: models.OpEQ, Value: models.Number(100)}, true},
		{"stat neq", models.Condition{Type: models.ConditionStat, Target: "hp", Operator: models.OpNEQ, Value: models.Number(100)}, false},
		{"unknown stat reads as zero", models.Condition{Type: models.ConditionStat, Target: "luck", Operator: models.OpEQ, Value: models.Number(0)}, true},
		{"flag eq true", models.Condition{Type: models.ConditionFlag, Target: "metMira", Operator: models.OpEQ, Value: models.Bool(true)}, true},
		{"missing flag eq true", models.Condition{Type: models.ConditionFlag, Target: "sawB", Operator: models.OpEQ, Value: models.Bool(true)}, false},
		{"missing flag eq false", models.Condition{Type: models.ConditionFlag, Target: "sawB", Operator: models.OpEQ, Value: models.Bool(false)}, true},
		{"item has", models.Condition{Type: models.ConditionItem, Target: "key", Operator: models.OpHas, Value: models.Bool(true)}, true},
		{"absent item has", models.Condition{Type: models.ConditionItem, Target: "sword", Operator: models.OpHas, Value: models.Bool(true)}, false},
		{"item quantity gte", models.Condition{Type: models.ConditionItem, Target: "key", Operator: models.OpGTE, Value: models.Number(2)}, false},
		{"relation gte", models.Condition{Type: models.ConditionRelation, Target: "Mira", Operator: models.OpGTE, Value: models.Number(15)}, true},
		{"missing relation", models.Condition{Type: models.ConditionRelation, Target: "Oren", Operator: models.OpLT, Value: models.Number(1)}, true},
		{"bogus type", models.Condition{Type: "bogus", Target: "hp", Operator: models.OpGTE, Value: models.Number(0)}, false},
		{"bogus operator", models.Condition{Type: models.ConditionStat, Target: "hp", Operator: "approx", Value: models.Number(100)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, state); got != tt.want {
				t.Errorf("Evaluate(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluateEmptyState(t *testing.T) {
	cond := models.Condition{Type: models.ConditionRelation, Target: "Mira", Operator: models.OpEQ, Value: models.Number(0)}
	if !Evaluate(cond, models.GameState{}) {
		t.Error("Expected zero-value state to read missing relation as 0")
	}
}

func TestIsAvailableInversion(t *testing.T) {
	state := testState()
	met := &models.Condition{Type: models.ConditionItem, Target: "key", Operator: models.OpHas, Value: models.Bool(true)}
	unmet := &models.Condition{Type: models.ConditionItem, Target: "sword", Operator: models.OpHas, Value: models.Bool(true)}

	tests := []struct {
		name   string
		choice models.Choice
		want   bool
	}{
		{"no condition", models.Choice{ID: "c"}, true},
		{"default mode met", models.Choice{ID: "c", Condition: met}, true},
		{"default mode unmet", models.Choice{ID: "c", Condition: unmet}, false},
		{"enable met", models.Choice{ID: "c", Condition: met, ConditionMode: models.ModeEnable}, true},
		{"disable met", models.Choice{ID: "c", Condition: met, ConditionMode: models.ModeDisable}, false},
		{"disable unmet", models.Choice{ID: "c", Condition: unmet, ConditionMode: models.ModeDisable}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAvailable(tt.choice, state); got != tt.want {
				t.Errorf("IsAvailable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnnotateKeepsUnavailableChoices(t *testing.T) {
	scene := models.Scene{
		ID: "a",
		Choices: []models.Choice{
			{ID: "free", Text: "Walk on"},
			{ID: "strong", Text: "Force the door", Condition: &models.Condition{
				Type: models.ConditionStat, Target: "strength", Operator: models.OpGTE, Value: models.Number(15),
			}},
			{ID: "sneak", Text: "Sneak past", ConditionMode: models.ModeDisable, Condition: &models.Condition{
				Type: models.ConditionItem, Target: "key", Operator: models.OpHas, Value: models.Bool(true),
			}},
		},
	}

	got := Annotate(scene, testState())
	if len(got) != 3 {
		t.Fatalf("Expected all 3 choices listed, got %d", len(got))
	}
	if !got[0].Available || got[0].Explanation != "" {
		t.Errorf("Expected unconditional choice available without explanation, got %+v", got[0])
	}
	if got[1].Available {
		t.Error("Expected strength-gated choice to be unavailable")
	}
	if want := "Strength at least 15 required (current: 10)"; got[1].Explanation != want {
		t.Errorf("Expected explanation %q, got %q", want, got[1].Explanation)
	}
	if got[2].Available || !strings.Contains(got[2].Explanation, "carry key") {
		t.Errorf("Expected disabled choice to mention the carried item, got %+v", got[2])
	}
}

func TestExplain(t *testing.T) {
	state := testState()
	tests := []struct {
		name   string
		choice models.Choice
		want   string
	}{
		{"flag", models.Choice{Condition: &models.Condition{Type: models.ConditionFlag, Target: "x", Operator: models.OpEQ, Value: models.Bool(true)}}, "condition not met"},
		{"item", models.Choice{Condition: &models.Condition{Type: models.ConditionItem, Target: "sword", Operator: models.OpHas}}, "requires item: sword"},
		{"relation", models.Choice{Condition: &models.Condition{Type: models.ConditionRelation, Target: "Mira", Operator: models.OpGTE, Value: models.Number(20)}}, "Mira affinity at least 20 required"},
		{"disable stat", models.Choice{ConditionMode: models.ModeDisable, Condition: &models.Condition{Type: models.ConditionStat, Target: "gold", Operator: models.OpGT, Value: models.Number(0)}}, "unavailable because Gold meets the condition"},
		{"no condition", models.Choice{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Explain(tt.choice, state); got != tt.want {
				t.Errorf("Explain = %q, want %q", got, tt.want)
			}
		})
	}
}
