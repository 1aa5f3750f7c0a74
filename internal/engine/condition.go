package engine

import (
	"fmt"

	"github.com/tatianab/storygraph/internal/models"
)

// Evaluate reports whether cond holds in state. It never panics: unknown
// condition types and operators evaluate to false, and stats or characters
// missing from the state read as 0.
func Evaluate(cond models.Condition, state models.GameState) bool {
	var current models.Value
	switch cond.Type {
	case models.ConditionStat:
		v, _ := state.Stats.Get(cond.Target)
		current = models.Number(v)
	case models.ConditionItem:
		qty := 0
		if it, ok := state.Item(cond.Target); ok {
			qty = it.Quantity
		}
		if cond.Operator == models.OpHas {
			return qty > 0
		}
		current = models.Number(qty)
	case models.ConditionFlag:
		current = models.Bool(state.Flags[cond.Target])
	case models.ConditionRelation:
		current = models.Number(state.CharacterRelations[cond.Target])
	default:
		return false
	}
	return compare(current, cond.Operator, cond.Value)
}

func compare(current models.Value, op models.Operator, want models.Value) bool {
	switch op {
	case models.OpGT:
		return current.Int() > want.Int()
	case models.OpGTE:
		return current.Int() >= want.Int()
	case models.OpLT:
		return current.Int() < want.Int()
	case models.OpLTE:
		return current.Int() <= want.Int()
	case models.OpEQ:
		return current.Equal(want)
	case models.OpNEQ:
		return !current.Equal(want)
	case models.OpHas:
		return current.Truth()
	}
	return false
}

// Availability is a choice annotated for display. Unavailable choices are
// still listed; Explanation says which requirement blocks them.
type Availability struct {
	Choice      models.Choice
	Available   bool
	Explanation string
}

// IsAvailable applies the choice's condition mode to the raw condition
// result. A choice without a condition is always available.
func IsAvailable(choice models.Choice, state models.GameState) bool {
	if choice.Condition == nil {
		return true
	}
	met := Evaluate(*choice.Condition, state)
	if choice.ConditionMode == models.ModeDisable {
		return !met
	}
	return met
}

// Annotate evaluates every choice of scene against state.
func Annotate(scene models.Scene, state models.GameState) []Availability {
	out := make([]Availability, 0, len(scene.Choices))
	for _, c := range scene.Choices {
		a := Availability{Choice: c, Available: IsAvailable(c, state)}
		if !a.Available {
			a.Explanation = Explain(c, state)
		}
		out = append(out, a)
	}
	return out
}

var operatorWords = map[models.Operator]string{
	models.OpGT:  "above",
	models.OpGTE: "at least",
	models.OpLT:  "below",
	models.OpLTE: "at most",
	models.OpEQ:  "exactly",
	models.OpNEQ: "other than",
	models.OpHas: "present",
}

func operatorWord(op models.Operator) string {
	if w, ok := operatorWords[op]; ok {
		return w
	}
	return string(op)
}

func statLabel(key string) string {
	if l, ok := models.StatLabels[key]; ok {
		return l
	}
	return key
}

// Explain describes why choice is unavailable. It returns "" for choices
// without a condition.
func Explain(choice models.Choice, state models.GameState) string {
	cond := choice.Condition
	if cond == nil {
		return ""
	}
	if choice.ConditionMode == models.ModeDisable {
		switch cond.Type {
		case models.ConditionStat:
			return fmt.Sprintf("unavailable because %s meets the condition", statLabel(cond.Target))
		case models.ConditionFlag:
			return "unavailable because the condition is met"
		case models.ConditionItem:
			return fmt.Sprintf("unavailable because you carry %s", cond.Target)
		case models.ConditionRelation:
			return fmt.Sprintf("unavailable because %s affinity meets the condition", cond.Target)
		}
		return "requirement not met"
	}

	switch cond.Type {
	case models.ConditionStat:
		cur, _ := state.Stats.Get(cond.Target)
		return fmt.Sprintf("%s %s %s required (current: %d)",
			statLabel(cond.Target), operatorWord(cond.Operator), cond.Value, cur)
	case models.ConditionFlag:
		return "condition not met"
	case models.ConditionItem:
		return "requires item: " + cond.Target
	case models.ConditionRelation:
		return fmt.Sprintf("%s affinity %s %s required",
			cond.Target, operatorWord(cond.Operator), cond.Value)
	}
	return "requirement not met"
}
