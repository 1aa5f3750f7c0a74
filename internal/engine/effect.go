package engine

import "github.com/tatianab/storygraph/internal/models"

// Apply runs effects in order against a copy of state and returns the copy.
// Each effect sees the result of the one before it. Effects with an unknown
// type, action or stat are skipped.
func Apply(effects []models.Effect, state models.GameState) models.GameState {
	next := state.Clone()
	for _, e := range effects {
		applyEffect(&next, e)
	}
	return next
}

func applyEffect(g *models.GameState, e models.Effect) {
	if e.Target == "" {
		return
	}
	switch e.Type {
	case models.EffectStat:
		applyStat(g, e)
	case models.EffectItem:
		applyItem(g, e)
	case models.EffectFlag:
		// Flags are always overwritten; the action is ignored.
		g.Flags[e.Target] = e.Value.Truth()
	case models.EffectRelation:
		if n, ok := combine(g.CharacterRelations[e.Target], e.Action, e.Value.Int()); ok {
			g.CharacterRelations[e.Target] = n
		}
	}
}

func combine(cur int, action models.Action, v int) (int, bool) {
	switch action {
	case models.ActionAdd:
		return cur + v, true
	case models.ActionRemove:
		return cur - v, true
	case models.ActionSet:
		return v, true
	}
	return cur, false
}

func applyStat(g *models.GameState, e models.Effect) {
	cur, ok := g.Stats.Get(e.Target)
	if !ok {
		return
	}
	n, ok := combine(cur, e.Action, e.Value.Int())
	if !ok {
		return
	}
	g.Stats.Set(e.Target, n)

	switch e.Target {
	case models.StatHP, models.StatMaxHP, models.StatStress:
		g.Stats = g.Stats.Clamped()
	}
}

func applyItem(g *models.GameState, e models.Effect) {
	idx := -1
	for i := range g.Inventory {
		if g.Inventory[i].ID == e.Target {
			idx = i
			break
		}
	}

	v := e.Value.Int()
	switch e.Action {
	case models.ActionAdd, models.ActionSet:
		if idx < 0 {
			name := e.ItemName
			if name == "" {
				name = e.Target
			}
			g.Inventory = append(g.Inventory, models.Item{
				ID:          e.Target,
				Name:        name,
				Description: e.ItemDescription,
				Quantity:    v,
			})
		} else if e.Action == models.ActionAdd {
			g.Inventory[idx].Quantity += v
		} else {
			g.Inventory[idx].Quantity = v
		}
	case models.ActionRemove:
		if idx < 0 {
			return
		}
		g.Inventory[idx].Quantity -= v
	default:
		return
	}
	pruneInventory(g)
}

// pruneInventory drops entries whose quantity fell to zero or below.
func pruneInventory(g *models.GameState) {
	kept := g.Inventory[:0]
	for _, it := range g.Inventory {
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	g.Inventory = kept
}
