package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tatianab/storygraph/internal/models"
)

const indexFile = "index.json"

var storyExtensions = []string{".json", ".yaml", ".yml"}

type storyIndex struct {
	Stories []string `json:"stories"`
}

// Library is a directory of story documents listed by an index.json file:
//
//	{"stories": ["my-story", "another-story"]}
//
// Each name resolves to <name>.json, <name>.yaml or <name>.yml.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

func (l *Library) Dir() string { return l.dir }

// Index returns the story file names in index order. A missing index is an
// empty library.
func (l *Library) Index(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	var idx storyIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse %s: %w", indexFile, err)
	}
	if idx.Stories == nil {
		idx.Stories = []string{}
	}
	return idx.Stories, nil
}

// Load reads the story stored under the given file name.
func (l *Library) Load(_ context.Context, fileName string) (*models.Story, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return nil, fmt.Errorf("story %q: %w", fileName, ErrNotFound)
	}
	for _, ext := range storyExtensions {
		story, err := models.ReadStoryFile(filepath.Join(l.dir, fileName+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return story, err
	}
	return nil, fmt.Errorf("story %q: %w", fileName, ErrNotFound)
}

// All loads every indexed story. Stories that fail to load are logged and
// skipped.
func (l *Library) All(ctx context.Context) ([]models.Story, error) {
	names, err := l.Index(ctx)
	if err != nil {
		return nil, err
	}
	stories := make([]models.Story, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		story, err := l.Load(ctx, name)
		if err != nil {
			log.Printf("Warning: skipping story %q: %v", name, err)
			continue
		}
		stories = append(stories, *story)
	}
	return stories, nil
}

// Resolve finds a story by file name, falling back to a scan for a matching
// story id.
func (l *Library) Resolve(ctx context.Context, identifier string) (*models.Story, error) {
	story, err := l.Load(ctx, identifier)
	if err == nil {
		return story, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Printf("Warning: loading story %q: %v", identifier, err)
	}
	return l.find(ctx, func(s *models.Story) bool { return s.ID == identifier }, "id", identifier)
}

// FindByCode scans every story for a matching access code.
func (l *Library) FindByCode(ctx context.Context, code string) (*models.Story, error) {
	if code == "" {
		return nil, fmt.Errorf("empty access code: %w", ErrNotFound)
	}
	return l.find(ctx, func(s *models.Story) bool { return s.Code == code }, "code", code)
}

func (l *Library) find(ctx context.Context, match func(*models.Story) bool, field, value string) (*models.Story, error) {
	stories, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range stories {
		if match(&stories[i]) {
			return &stories[i], nil
		}
	}
	return nil, fmt.Errorf("story with %s %q: %w", field, value, ErrNotFound)
}

// Publish writes story as <fileName>.json and adds it to the index.
func (l *Library) Publish(ctx context.Context, story models.Story) error {
	name := story.FileName
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid story file name %q", name)
	}
	if err := models.WriteStoryFile(filepath.Join(l.dir, name+".json"), &story); err != nil {
		return err
	}

	names, err := l.Index(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	data, err := json.MarshalIndent(storyIndex{Stories: append(names, name)}, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := filepath.Join(l.dir, indexFile+".tmp")
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(l.dir, indexFile))
}
