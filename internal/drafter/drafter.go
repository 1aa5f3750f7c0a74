// Package drafter asks Gemini for a first draft of a story graph.
package drafter

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/storygraph/internal/editor"
	"github.com/tatianab/storygraph/internal/models"
)

//go:embed prompts/draft_story.txt
var draftStoryPrompt string

//go:embed prompts/suggest_theme.txt
var suggestThemePrompt string

const (
	minScenes = 6
	maxScenes = 12
)

// Draft is a generated story and whatever lint problems it still has.
type Draft struct {
	Story    models.Story
	Problems []editor.Problem
}

type Drafter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func New(ctx context.Context, apiKey, modelName string) (*Drafter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Drafter{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (d *Drafter) Close() {
	d.client.Close()
}

// SuggestTheme asks the model for a short theme hint.
func (d *Drafter) SuggestTheme(ctx context.Context) (string, error) {
	return d.generate(ctx, suggestThemePrompt)
}

// Draft generates a story for the theme hint.
func (d *Drafter) Draft(ctx context.Context, hint string) (*Draft, error) {
	tmpl, err := template.New("draft_story").Parse(draftStoryPrompt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	data := struct {
		Hint      string
		Scenes    int
		MaxScenes int
		StatKeys  []string
	}{
		Hint:      hint,
		Scenes:    minScenes,
		MaxScenes: maxScenes,
		StatKeys:  models.StatKeys,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	text, err := d.generate(ctx, buf.String())
	if err != nil {
		return nil, err
	}
	return ParseDraft(text)
}

func (d *Drafter) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := d.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return strings.TrimSpace(string(text)), nil
}

// ParseDraft decodes a YAML story from model output and fills in what the
// model leaves out: id, access code, file name, start scene and stats.
func ParseDraft(output string, opts ...editor.Option) (*Draft, error) {
	cleanYAML := stripFence(output)
	story, err := models.DecodeStory([]byte(cleanYAML), models.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse story YAML: %w\nOutput was: %s", err, cleanYAML)
	}

	b := editor.New(opts...)
	if story.ID == "" {
		story.ID = b.StoryID()
	}
	if story.FileName == "" {
		story.FileName = slug(story.Title)
	}
	if story.StartSceneID == "" && len(story.Scenes) > 0 {
		story.StartSceneID = story.Scenes[0].ID
	}
	if story.InitialStats == (models.Stats{}) {
		story.InitialStats = models.DefaultStats()
	}

	if err := b.Import(*story); err != nil {
		return nil, err
	}
	return &Draft{Story: b.Export(), Problems: b.Problems()}, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```yml")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// slug turns a title into a lowercase, hyphenated file name.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "drafted-story"
	}
	return out
}
