// Package editor maintains an editable story graph and converts it to and
// from the flat Story Document.
//
// Scenes own their choices. Edges are never stored: Edges derives them from
// the choices on every call, so the two views cannot drift apart.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tatianab/storygraph/internal/models"
)

var (
	ErrSceneNotFound  = errors.New("scene not found")
	ErrChoiceNotFound = errors.New("choice not found")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrNoScenes       = errors.New("story has no scenes")
	ErrNoStartScene   = errors.New("story has no start scene")
)

const (
	defaultTitle        = "New story"
	defaultDescription  = "Describe your story"
	defaultFileName     = "new-story"
	importedFileName    = "imported-story"
	edgePrefix          = "edge-"
	gridColumns         = 4
	gridColumnWidth     = 300
	gridRowHeight       = 200
	defaultAccessLength = 6
)

// Position is a node's location on the editing canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a scene as placed on the canvas.
type Node struct {
	Scene    models.Scene
	Position Position
	IsStart  bool
}

// Edge is the derived view of one choice.
type Edge struct {
	ID     string
	Source string
	Target string
	Choice models.Choice
}

type node struct {
	scene models.Scene
	pos   Position
}

// Builder is an in-memory story graph. It is not safe for concurrent use.
type Builder struct {
	id           string
	title        string
	description  string
	code         string
	fileName     string
	startSceneID string
	initialStats models.Stats
	initialItems []models.Item

	order []string
	nodes map[string]*node

	newID   func() string
	newCode func() string
}

// Option customizes a Builder.
type Option func(*Builder)

// WithIDSource replaces the scene, choice and story id generator.
func WithIDSource(fn func() string) Option {
	return func(b *Builder) { b.newID = fn }
}

// WithCodeSource replaces the access code generator.
func WithCodeSource(fn func() string) Option {
	return func(b *Builder) { b.newCode = fn }
}

// New returns a builder holding an empty default story.
func New(opts ...Option) *Builder {
	b := &Builder{
		newID:   NewID,
		newCode: func() string { return NewAccessCode(defaultAccessLength) },
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Reset()
	return b
}

// Reset discards the graph and starts over with a fresh default story.
func (b *Builder) Reset() {
	b.id = b.newID()
	b.title = defaultTitle
	b.description = defaultDescription
	b.code = b.newCode()
	b.fileName = defaultFileName
	b.startSceneID = ""
	b.initialStats = models.DefaultStats()
	b.initialItems = []models.Item{}
	b.order = nil
	b.nodes = make(map[string]*node)
}

func (b *Builder) StoryID() string      { return b.id }
func (b *Builder) StartSceneID() string { return b.startSceneID }
func (b *Builder) Len() int             { return len(b.order) }

// AddScene places a new scene on the canvas and returns its id. An empty
// scene id is generated. Choices on the given scene are dropped; they are
// added with AddChoice. The first scene added becomes the start scene.
func (b *Builder) AddScene(scene models.Scene, pos Position) (string, error) {
	if scene.ID == "" {
		scene.ID = b.newID()
	}
	if _, ok := b.nodes[scene.ID]; ok {
		return "", fmt.Errorf("%w: scene %q", ErrDuplicateID, scene.ID)
	}
	scene.Choices = []models.Choice{}
	b.nodes[scene.ID] = &node{scene: scene, pos: pos}
	b.order = append(b.order, scene.ID)
	if len(b.order) == 1 {
		b.startSceneID = scene.ID
	}
	return scene.ID, nil
}

// SceneUpdate holds the scene fields to overwrite. Nil fields are kept.
type SceneUpdate struct {
	Title     *string
	Text      *string
	IsEnding  *bool
	Effects   *[]models.Effect
	MediaType *string
	Image     *string
	Video     *string
}

func (b *Builder) UpdateScene(sceneID string, u SceneUpdate) error {
	n, ok := b.nodes[sceneID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}
	s := &n.scene
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Text != nil {
		s.Text = *u.Text
	}
	if u.IsEnding != nil {
		s.IsEnding = *u.IsEnding
	}
	if u.Effects != nil {
		s.Effects = append([]models.Effect(nil), (*u.Effects)...)
	}
	if u.MediaType != nil {
		s.MediaType = *u.MediaType
	}
	if u.Image != nil {
		s.Image = *u.Image
	}
	if u.Video != nil {
		s.Video = *u.Video
	}
	return nil
}

func (b *Builder) MoveScene(sceneID string, pos Position) error {
	n, ok := b.nodes[sceneID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}
	n.pos = pos
	return nil
}

// DeleteScene removes a scene together with its own choices and every
// choice elsewhere that targets it. Deleting the start scene leaves the
// graph without one.
func (b *Builder) DeleteScene(sceneID string) error {
	if _, ok := b.nodes[sceneID]; !ok {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}
	delete(b.nodes, sceneID)
	for i, id := range b.order {
		if id == sceneID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	for _, n := range b.nodes {
		kept := n.scene.Choices[:0]
		for _, c := range n.scene.Choices {
			if c.TargetSceneID != sceneID {
				kept = append(kept, c)
			}
		}
		n.scene.Choices = kept
	}
	if b.startSceneID == sceneID {
		b.startSceneID = ""
	}
	return nil
}

// AddChoice connects sourceID to targetID with choice and returns the edge
// id. Both scenes must exist. An empty choice id is generated.
func (b *Builder) AddChoice(sourceID, targetID string, choice models.Choice) (string, error) {
	src, ok := b.nodes[sourceID]
	if !ok {
		return "", fmt.Errorf("%w: source %q", ErrSceneNotFound, sourceID)
	}
	if _, ok := b.nodes[targetID]; !ok {
		return "", fmt.Errorf("%w: target %q", ErrSceneNotFound, targetID)
	}
	if choice.ID == "" {
		choice.ID = b.newID()
	}
	if _, _, ok := b.findChoice(choice.ID); ok {
		return "", fmt.Errorf("%w: choice %q", ErrDuplicateID, choice.ID)
	}
	choice = cloneChoice(choice)
	choice.TargetSceneID = targetID
	src.scene.Choices = append(src.scene.Choices, choice)
	return EdgeID(choice.ID), nil
}

// ChoiceUpdate holds the choice fields to overwrite. Nil fields are kept.
type ChoiceUpdate struct {
	Text           *string
	TargetSceneID  *string
	Condition      *models.Condition
	ClearCondition bool
	ConditionMode  *models.ConditionMode
	Effects        *[]models.Effect
}

func (b *Builder) UpdateChoice(edgeID string, u ChoiceUpdate) error {
	n, idx, ok := b.findChoice(choiceIDFromEdge(edgeID))
	if !ok {
		return fmt.Errorf("%w: edge %q", ErrChoiceNotFound, edgeID)
	}
	if u.TargetSceneID != nil {
		if _, ok := b.nodes[*u.TargetSceneID]; !ok {
			return fmt.Errorf("%w: target %q", ErrSceneNotFound, *u.TargetSceneID)
		}
	}

	c := &n.scene.Choices[idx]
	if u.Text != nil {
		c.Text = *u.Text
	}
	if u.TargetSceneID != nil {
		c.TargetSceneID = *u.TargetSceneID
	}
	if u.ClearCondition {
		c.Condition = nil
	}
	if u.Condition != nil {
		cond := *u.Condition
		c.Condition = &cond
	}
	if u.ConditionMode != nil {
		c.ConditionMode = *u.ConditionMode
	}
	if u.Effects != nil {
		c.Effects = append([]models.Effect(nil), (*u.Effects)...)
	}
	return nil
}

func (b *Builder) DeleteChoice(edgeID string) error {
	n, idx, ok := b.findChoice(choiceIDFromEdge(edgeID))
	if !ok {
		return fmt.Errorf("%w: edge %q", ErrChoiceNotFound, edgeID)
	}
	n.scene.Choices = append(n.scene.Choices[:idx], n.scene.Choices[idx+1:]...)
	return nil
}

func (b *Builder) findChoice(choiceID string) (*node, int, bool) {
	for _, id := range b.order {
		n := b.nodes[id]
		for i, c := range n.scene.Choices {
			if c.ID == choiceID {
				return n, i, true
			}
		}
	}
	return nil, 0, false
}

// EdgeID is the id of the edge derived from the choice with id choiceID.
func EdgeID(choiceID string) string { return edgePrefix + choiceID }

func choiceIDFromEdge(edgeID string) string {
	return strings.TrimPrefix(edgeID, edgePrefix)
}

func (b *Builder) SetStartScene(sceneID string) error {
	if _, ok := b.nodes[sceneID]; !ok {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}
	b.startSceneID = sceneID
	return nil
}

// MetaUpdate holds the story metadata to overwrite. Nil fields are kept.
type MetaUpdate struct {
	Title        *string
	Description  *string
	Code         *string
	FileName     *string
	InitialStats *models.Stats
	InitialItems *[]models.Item
}

func (b *Builder) UpdateMeta(u MetaUpdate) {
	if u.Title != nil {
		b.title = *u.Title
	}
	if u.Description != nil {
		b.description = *u.Description
	}
	if u.Code != nil {
		b.code = *u.Code
	}
	if u.FileName != nil {
		b.fileName = *u.FileName
	}
	if u.InitialStats != nil {
		b.initialStats = *u.InitialStats
	}
	if u.InitialItems != nil {
		b.initialItems = append([]models.Item{}, (*u.InitialItems)...)
	}
}

// Scene returns a copy of the scene with the given id.
func (b *Builder) Scene(sceneID string) (models.Scene, bool) {
	n, ok := b.nodes[sceneID]
	if !ok {
		return models.Scene{}, false
	}
	return cloneScene(n.scene), true
}

// Nodes lists the scenes in insertion order.
func (b *Builder) Nodes() []Node {
	out := make([]Node, 0, len(b.order))
	for _, id := range b.order {
		n := b.nodes[id]
		out = append(out, Node{
			Scene:    cloneScene(n.scene),
			Position: n.pos,
			IsStart:  id == b.startSceneID,
		})
	}
	return out
}

// Edges derives one edge per choice, in scene order then choice order.
func (b *Builder) Edges() []Edge {
	var out []Edge
	for _, id := range b.order {
		for _, c := range b.nodes[id].scene.Choices {
			out = append(out, Edge{
				ID:     EdgeID(c.ID),
				Source: id,
				Target: c.TargetSceneID,
				Choice: cloneChoice(c),
			})
		}
	}
	return out
}

// Export flattens the graph into a Story Document. It does not check that
// choice targets resolve; see Validate and Problems.
func (b *Builder) Export() models.Story {
	scenes := make([]models.Scene, 0, len(b.order))
	for _, id := range b.order {
		scenes = append(scenes, cloneScene(b.nodes[id].scene))
	}
	return models.Story{
		ID:           b.id,
		Title:        b.title,
		Description:  b.description,
		Code:         b.code,
		FileName:     b.fileName,
		StartSceneID: b.startSceneID,
		Scenes:       scenes,
		InitialStats: b.initialStats,
		InitialItems: append([]models.Item{}, b.initialItems...),
	}
}

// Validate runs the checks required before a story is published.
func (b *Builder) Validate() error {
	if len(b.order) == 0 {
		return ErrNoScenes
	}
	if b.startSceneID == "" {
		return ErrNoStartScene
	}
	if _, ok := b.nodes[b.startSceneID]; !ok {
		return fmt.Errorf("%w: %q", ErrNoStartScene, b.startSceneID)
	}
	return nil
}

// Import replaces the graph with story. Scenes are laid out on a grid and
// every embedded choice becomes an edge. Scene ids and choice ids must be
// unique; choice targets are taken as-is.
func (b *Builder) Import(story models.Story) error {
	nodes := make(map[string]*node, len(story.Scenes))
	order := make([]string, 0, len(story.Scenes))
	choiceIDs := make(map[string]bool)
	for i, s := range story.Scenes {
		if _, ok := nodes[s.ID]; ok {
			return fmt.Errorf("%w: scene %q", ErrDuplicateID, s.ID)
		}
		for _, c := range s.Choices {
			if choiceIDs[c.ID] {
				return fmt.Errorf("%w: choice %q", ErrDuplicateID, c.ID)
			}
			choiceIDs[c.ID] = true
		}
		scene := cloneScene(s)
		if scene.Choices == nil {
			scene.Choices = []models.Choice{}
		}
		nodes[s.ID] = &node{scene: scene, pos: Position{
			X: float64((i % gridColumns) * gridColumnWidth),
			Y: float64((i / gridColumns) * gridRowHeight),
		}}
		order = append(order, s.ID)
	}

	b.id = story.ID
	b.title = story.Title
	b.description = story.Description
	b.code = story.Code
	if b.code == "" {
		b.code = b.newCode()
	}
	b.fileName = story.FileName
	if b.fileName == "" {
		b.fileName = importedFileName
	}
	b.startSceneID = story.StartSceneID
	b.initialStats = story.InitialStats
	b.initialItems = append([]models.Item{}, story.InitialItems...)
	b.nodes = nodes
	b.order = order
	return nil
}

func cloneScene(s models.Scene) models.Scene {
	out := s
	if s.Choices != nil {
		out.Choices = make([]models.Choice, len(s.Choices))
		for i, c := range s.Choices {
			out.Choices[i] = cloneChoice(c)
		}
	}
	if s.Effects != nil {
		out.Effects = append([]models.Effect{}, s.Effects...)
	}
	return out
}

func cloneChoice(c models.Choice) models.Choice {
	out := c
	if c.Condition != nil {
		cond := *c.Condition
		out.Condition = &cond
	}
	if c.Effects != nil {
		out.Effects = append([]models.Effect{}, c.Effects...)
	}
	return out
}
