// Command draft asks Gemini for a new story and publishes it to the story
// library.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/tatianab/storygraph/internal/config"
	"github.com/tatianab/storygraph/internal/drafter"
	"github.com/tatianab/storygraph/internal/store"
)

func main() {
	hint := flag.String("hint", "", "theme for the story; asks the model for one when empty")
	dryRun := flag.Bool("dry-run", false, "print the draft without publishing it")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireGemini(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	d, err := drafter.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to create drafter: %v", err)
	}
	defer d.Close()

	theme := strings.TrimSpace(*hint)
	if theme == "" {
		fmt.Println("--- Requesting a theme ---")
		theme, err = d.SuggestTheme(ctx)
		if err != nil {
			log.Fatalf("Failed to get theme: %v", err)
		}
	}
	fmt.Printf("Theme: %s\n\n", theme)

	fmt.Println("--- Drafting story ---")
	draft, err := d.Draft(ctx, theme)
	if err != nil {
		log.Fatalf("Failed to draft story: %v", err)
	}
	story := draft.Story
	fmt.Printf("Title: %s\n", story.Title)
	fmt.Printf("Description: %s\n", story.Description)
	fmt.Printf("Scenes: %d\n", len(story.Scenes))
	fmt.Printf("Access code: %s\n", story.Code)
	for _, p := range draft.Problems {
		fmt.Printf("Warning: %s\n", p)
	}

	if *dryRun {
		return
	}
	lib := store.NewLibrary(cfg.StoryDir)
	if err := lib.Publish(ctx, story); err != nil {
		log.Fatalf("Failed to publish story: %v", err)
	}
	fmt.Printf("\nPublished %s.json to %s\n", story.FileName, lib.Dir())
}
