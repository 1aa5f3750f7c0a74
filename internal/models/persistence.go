package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidStory is returned when a story document lacks a title or a
// scenes array.
var ErrInvalidStory = errors.New("invalid story document")

// Format is a story file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension. Anything that is not
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// DecodeStory parses a story document. Beyond the title and scenes presence
// check the document is accepted as-is.
func DecodeStory(data []byte, format Format) (*Story, error) {
	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	var probe map[string]any
	if err := unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStory, err)
	}
	if title, _ := probe["title"].(string); title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrInvalidStory)
	}
	if _, ok := probe["scenes"].([]any); !ok {
		return nil, fmt.Errorf("%w: missing scenes array", ErrInvalidStory)
	}

	var story Story
	if err := unmarshal(data, &story); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStory, err)
	}
	story.normalize()
	return &story, nil
}

// EncodeStory renders a story document in the given format.
func EncodeStory(story *Story, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(story)
	}
	return json.MarshalIndent(story, "", "  ")
}

// ReadStoryFile loads a story document from disk.
func ReadStoryFile(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	story, err := DecodeStory(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return story, nil
}

// WriteStoryFile writes a story document to disk, replacing any existing file
// atomically.
func WriteStoryFile(path string, story *Story) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := EncodeStory(story, FormatFor(path))
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// normalize replaces nil slices with empty ones so a decoded story compares
// equal to the one that was encoded.
func (s *Story) normalize() {
	if s.Scenes == nil {
		s.Scenes = []Scene{}
	}
	if s.InitialItems == nil {
		s.InitialItems = []Item{}
	}
	for i := range s.Scenes {
		if s.Scenes[i].Choices == nil {
			s.Scenes[i].Choices = []Choice{}
		}
	}
}
