// Package models defines the Story Document and the player state that is
// saved and restored around it.
package models

import "time"

// Stat keys. These are the only keys Stats knows about.
const (
	StatHP           = "hp"
	StatMaxHP        = "maxHp"
	StatStrength     = "strength"
	StatIntelligence = "intelligence"
	StatAgility      = "agility"
	StatStress       = "stress"
	StatReputation   = "reputation"
	StatRelationship = "relationship"
	StatGold         = "gold"
)

// MaxStress is the upper bound of the stress gauge.
const MaxStress = 100

// StatKeys lists every stat in display order.
var StatKeys = []string{
	StatHP, StatMaxHP, StatStrength, StatIntelligence, StatAgility,
	StatStress, StatReputation, StatRelationship, StatGold,
}

// StatLabels maps a stat key to a human-readable label.
var StatLabels = map[string]string{
	StatHP:           "HP",
	StatMaxHP:        "Max HP",
	StatStrength:     "Strength",
	StatIntelligence: "Intelligence",
	StatAgility:      "Agility",
	StatStress:       "Stress",
	StatReputation:   "Reputation",
	StatRelationship: "Relationship",
	StatGold:         "Gold",
}

// Stats is the fixed set of numeric gauges a player carries.
type Stats struct {
	HP           int `json:"hp" yaml:"hp"`
	MaxHP        int `json:"maxHp" yaml:"maxHp"`
	Strength     int `json:"strength" yaml:"strength"`
	Intelligence int `json:"intelligence" yaml:"intelligence"`
	Agility      int `json:"agility" yaml:"agility"`
	Stress       int `json:"stress" yaml:"stress"`
	Reputation   int `json:"reputation" yaml:"reputation"`
	Relationship int `json:"relationship" yaml:"relationship"`
	Gold         int `json:"gold" yaml:"gold"`
}

// DefaultStats returns the stats a newly authored story starts with.
func DefaultStats() Stats {
	return Stats{
		HP:           100,
		MaxHP:        100,
		Strength:     10,
		Intelligence: 10,
		Agility:      10,
		Stress:       0,
		Reputation:   50,
		Relationship: 50,
		Gold:         100,
	}
}

func (s *Stats) field(key string) *int {
	switch key {
	case StatHP:
		return &s.HP
	case StatMaxHP:
		return &s.MaxHP
	case StatStrength:
		return &s.Strength
	case StatIntelligence:
		return &s.Intelligence
	case StatAgility:
		return &s.Agility
	case StatStress:
		return &s.Stress
	case StatReputation:
		return &s.Reputation
	case StatRelationship:
		return &s.Relationship
	case StatGold:
		return &s.Gold
	}
	return nil
}

// Get returns the value of the stat named key. ok is false for unknown keys.
func (s Stats) Get(key string) (value int, ok bool) {
	p := s.field(key)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set overwrites the stat named key without clamping. It reports whether the
// key is known.
func (s *Stats) Set(key string, value int) bool {
	p := s.field(key)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Clamped returns s with maxHp floored at 0, hp within [0, maxHp] and stress
// within [0, MaxStress].
func (s Stats) Clamped() Stats {
	s.MaxHP = max(s.MaxHP, 0)
	s.HP = max(0, min(s.HP, s.MaxHP))
	s.Stress = max(0, min(s.Stress, MaxStress))
	return s
}

// Item is an inventory entry. Identity is ID.
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

type ConditionType string

const (
	ConditionStat     ConditionType = "stat"
	ConditionFlag     ConditionType = "flag"
	ConditionItem     ConditionType = "item"
	ConditionRelation ConditionType = "relation"
)

type Operator string

const (
	OpGT  Operator = "gt"
	OpGTE Operator = "gte"
	OpLT  Operator = "lt"
	OpLTE Operator = "lte"
	OpEQ  Operator = "eq"
	OpNEQ Operator = "neq"
	OpHas Operator = "has"
)

// Condition is a predicate over the game state that gates a choice.
type Condition struct {
	Type     ConditionType `json:"type" yaml:"type"`
	Target   string        `json:"target" yaml:"target"`
	Operator Operator      `json:"operator" yaml:"operator"`
	Value    Value         `json:"value" yaml:"value"`
}

type ConditionMode string

const (
	ModeEnable  ConditionMode = "enable"
	ModeDisable ConditionMode = "disable"
)

type EffectType string

const (
	EffectStat     EffectType = "stat"
	EffectItem     EffectType = "item"
	EffectFlag     EffectType = "flag"
	EffectRelation EffectType = "relation"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionSet    Action = "set"
)

// Effect is a single state mutation applied on scene entry or on choice
// selection.
type Effect struct {
	Type            EffectType `json:"type" yaml:"type"`
	Target          string     `json:"target" yaml:"target"`
	Action          Action     `json:"action" yaml:"action"`
	Value           Value      `json:"value" yaml:"value"`
	ItemName        string     `json:"itemName,omitempty" yaml:"itemName,omitempty"`
	ItemDescription string     `json:"itemDescription,omitempty" yaml:"itemDescription,omitempty"`
}

// Choice is a labelled edge from the scene that owns it to TargetSceneID.
type Choice struct {
	ID            string        `json:"id" yaml:"id"`
	Text          string        `json:"text" yaml:"text"`
	TargetSceneID string        `json:"targetSceneId" yaml:"targetSceneId"`
	Condition     *Condition    `json:"condition,omitempty" yaml:"condition,omitempty"`
	ConditionMode ConditionMode `json:"conditionMode,omitempty" yaml:"conditionMode,omitempty"`
	Effects       []Effect      `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// Scene is one narrative beat. Effects fire every time the scene is entered.
type Scene struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Text      string   `json:"text" yaml:"text"`
	Choices   []Choice `json:"choices" yaml:"choices"`
	IsEnding  bool     `json:"isEnding,omitempty" yaml:"isEnding,omitempty"`
	Effects   []Effect `json:"effects,omitempty" yaml:"effects,omitempty"`
	MediaType string   `json:"mediaType,omitempty" yaml:"mediaType,omitempty"`
	Image     string   `json:"image,omitempty" yaml:"image,omitempty"`
	Video     string   `json:"video,omitempty" yaml:"video,omitempty"`
}

// Story is the flat, serializable form of a complete story graph.
type Story struct {
	ID           string  `json:"id" yaml:"id"`
	Title        string  `json:"title" yaml:"title"`
	Description  string  `json:"description" yaml:"description"`
	Code         string  `json:"code,omitempty" yaml:"code,omitempty"`
	FileName     string  `json:"fileName,omitempty" yaml:"fileName,omitempty"`
	StartSceneID string  `json:"startSceneId" yaml:"startSceneId"`
	Scenes       []Scene `json:"scenes" yaml:"scenes"`
	InitialStats Stats   `json:"initialStats" yaml:"initialStats"`
	InitialItems []Item  `json:"initialItems" yaml:"initialItems"`
}

// Scene returns the scene with the given id.
func (s *Story) Scene(id string) (*Scene, bool) {
	for i := range s.Scenes {
		if s.Scenes[i].ID == id {
			return &s.Scenes[i], true
		}
	}
	return nil, false
}

// GameState is one player's progress through a story.
type GameState struct {
	CurrentSceneID     string          `json:"currentSceneId" yaml:"currentSceneId"`
	Stats              Stats           `json:"stats" yaml:"stats"`
	Inventory          []Item          `json:"inventory" yaml:"inventory"`
	Flags              map[string]bool `json:"flags" yaml:"flags"`
	CharacterRelations map[string]int  `json:"characterRelations" yaml:"characterRelations"`
	History            []string        `json:"history" yaml:"history"`
	PlayTime           int64           `json:"playTime" yaml:"playTime"` // seconds
}

// NewGameState seeds a fresh state from the story's initial stats and items.
func NewGameState(story *Story) GameState {
	inv := make([]Item, 0, len(story.InitialItems))
	for _, it := range story.InitialItems {
		if it.Quantity > 0 {
			inv = append(inv, it)
		}
	}
	return GameState{
		CurrentSceneID:     story.StartSceneID,
		Stats:              story.InitialStats.Clamped(),
		Inventory:          inv,
		Flags:              map[string]bool{},
		CharacterRelations: map[string]int{},
		History:            []string{story.StartSceneID},
	}
}

// Clone returns a deep copy so callers can mutate it freely.
func (g GameState) Clone() GameState {
	out := g
	out.Inventory = append([]Item(nil), g.Inventory...)
	if out.Inventory == nil {
		out.Inventory = []Item{}
	}
	out.Flags = make(map[string]bool, len(g.Flags))
	for k, v := range g.Flags {
		out.Flags[k] = v
	}
	out.CharacterRelations = make(map[string]int, len(g.CharacterRelations))
	for k, v := range g.CharacterRelations {
		out.CharacterRelations[k] = v
	}
	out.History = append([]string(nil), g.History...)
	return out
}

// Item returns the inventory entry with the given id.
func (g GameState) Item(id string) (Item, bool) {
	for _, it := range g.Inventory {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// SaveSlot is a named snapshot of a game in progress.
type SaveSlot struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	StoryID    string    `json:"storyId" yaml:"storyId"`
	StoryTitle string    `json:"storyTitle" yaml:"storyTitle"`
	GameState  GameState `json:"gameState" yaml:"gameState"`
	SavedAt    time.Time `json:"savedAt" yaml:"savedAt"`
}

// AutoSave is the single snapshot overwritten on every scene transition.
type AutoSave struct {
	StoryID    string    `json:"storyId" yaml:"storyId"`
	StoryTitle string    `json:"storyTitle" yaml:"storyTitle"`
	GameState  GameState `json:"gameState" yaml:"gameState"`
	SavedAt    time.Time `json:"savedAt" yaml:"savedAt"`
}
