package editor

import (
	"fmt"

	"github.com/tatianab/storygraph/internal/models"
)

// Problem is a structural issue that does not block export but will break
// or confuse play.
type Problem struct {
	SceneID  string
	ChoiceID string
	Message  string
}

func (p Problem) String() string {
	if p.ChoiceID != "" {
		return fmt.Sprintf("%s/%s: %s", p.SceneID, p.ChoiceID, p.Message)
	}
	if p.SceneID != "" {
		return fmt.Sprintf("%s: %s", p.SceneID, p.Message)
	}
	return p.Message
}

// Problems reports dangling choice targets, a missing start scene and
// scenes that cannot be reached from the start.
func (b *Builder) Problems() []Problem {
	var out []Problem
	if _, ok := b.nodes[b.startSceneID]; !ok {
		out = append(out, Problem{Message: "no start scene"})
	}
	for _, id := range b.order {
		for _, c := range b.nodes[id].scene.Choices {
			if _, ok := b.nodes[c.TargetSceneID]; !ok {
				out = append(out, Problem{
					SceneID:  id,
					ChoiceID: c.ID,
					Message:  fmt.Sprintf("targets missing scene %q", c.TargetSceneID),
				})
			}
		}
	}

	if _, ok := b.nodes[b.startSceneID]; ok {
		seen := map[string]bool{b.startSceneID: true}
		queue := []string{b.startSceneID}
		for len(queue) > 0 {
			n := b.nodes[queue[0]]
			queue = queue[1:]
			if n.scene.IsEnding {
				continue
			}
			for _, c := range n.scene.Choices {
				if _, ok := b.nodes[c.TargetSceneID]; ok && !seen[c.TargetSceneID] {
					seen[c.TargetSceneID] = true
					queue = append(queue, c.TargetSceneID)
				}
			}
		}
		for _, id := range b.order {
			if !seen[id] {
				out = append(out, Problem{SceneID: id, Message: "unreachable from the start scene"})
			}
		}
	}
	return out
}

// Usage records where a flag, item or character is referenced.
type Usage struct {
	Name     string
	ItemName string // items only: the latest display name seen in an effect
	UsedIn   []string
}

// UsedElements lists the flags, items and characters referenced by choice
// conditions and effects, in first-seen order.
type UsedElements struct {
	Flags      []Usage
	Items      []Usage
	Characters []Usage
}

type usageSet struct {
	order []string
	byKey map[string]*Usage
	seen  map[string]map[string]bool
}

func newUsageSet() *usageSet {
	return &usageSet{byKey: map[string]*Usage{}, seen: map[string]map[string]bool{}}
}

func (s *usageSet) add(key, label string) *Usage {
	u, ok := s.byKey[key]
	if !ok {
		u = &Usage{Name: key}
		s.byKey[key] = u
		s.seen[key] = map[string]bool{}
		s.order = append(s.order, key)
	}
	if !s.seen[key][label] {
		s.seen[key][label] = true
		u.UsedIn = append(u.UsedIn, label)
	}
	return u
}

func (s *usageSet) list() []Usage {
	out := make([]Usage, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.byKey[k])
	}
	return out
}

func (b *Builder) UsedElements() UsedElements {
	flags, items, chars := newUsageSet(), newUsageSet(), newUsageSet()
	for _, id := range b.order {
		scene := b.nodes[id].scene
		sceneLabel := scene.Title
		if sceneLabel == "" {
			sceneLabel = scene.ID
		}
		for _, c := range scene.Choices {
			choiceLabel := sceneLabel + " → " + c.Text
			if cond := c.Condition; cond != nil && cond.Target != "" {
				label := "[condition] " + choiceLabel
				switch cond.Type {
				case models.ConditionFlag:
					flags.add(cond.Target, label)
				case models.ConditionItem:
					items.add(cond.Target, label)
				case models.ConditionRelation:
					chars.add(cond.Target, label)
				}
			}
			for _, e := range c.Effects {
				if e.Target == "" {
					continue
				}
				label := "[effect] " + choiceLabel
				switch e.Type {
				case models.EffectFlag:
					flags.add(e.Target, label)
				case models.EffectItem:
					u := items.add(e.Target, label)
					if e.ItemName != "" {
						u.ItemName = e.ItemName
					}
				case models.EffectRelation:
					chars.add(e.Target, label)
				}
			}
		}
	}
	return UsedElements{Flags: flags.list(), Items: items.list(), Characters: chars.list()}
}
