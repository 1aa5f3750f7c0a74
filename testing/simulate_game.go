package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/tatianab/storygraph/internal/config"
	"github.com/tatianab/storygraph/internal/engine"
	"github.com/tatianab/storygraph/internal/store"
)

func main() {
	storyID := flag.String("story", "", "story file name or id; plays every indexed story when empty")
	maxTurns := flag.Int("turns", 50, "maximum choices per story")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lib := store.NewLibrary(cfg.StoryDir)

	var ids []string
	if *storyID != "" {
		ids = []string{*storyID}
	} else if ids, err = lib.Index(ctx); err != nil {
		log.Fatalf("Failed to read story index: %v", err)
	}

	for _, id := range ids {
		if err := simulate(ctx, lib, id, *maxTurns); err != nil {
			fmt.Printf("Error: %v\n\n", err)
		}
	}
}

// simulate plays one story, always taking the first available choice.
func simulate(ctx context.Context, lib *store.Library, id string, maxTurns int) error {
	story, err := lib.Resolve(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("=== %s (%s) ===\n", story.Title, story.Code)

	session := engine.NewSession()
	session.LoadStory(*story)
	if err := session.StartGame(); err != nil {
		return err
	}

	for turn := 1; turn <= maxTurns && session.Status() == engine.StatusPlaying; turn++ {
		scene, _ := session.CurrentScene()
		fmt.Printf("--- Turn %d: %s ---\n", turn, scene.Title)

		var picked *engine.Availability
		for _, a := range session.AvailableChoices() {
			if a.Available {
				if picked == nil {
					picked = &a
				}
				continue
			}
			fmt.Printf("Locked: %s (%s)\n", a.Choice.Text, a.Explanation)
		}
		if picked == nil {
			fmt.Println("Dead end: no available choices.")
			break
		}
		fmt.Printf("Choice: %s\n", picked.Choice.Text)
		if err := session.Choose(picked.Choice.ID); err != nil {
			return err
		}
	}

	state, _ := session.State()
	scene, _ := session.CurrentScene()
	fmt.Printf("Final scene: %s (%s)\n", scene.Title, session.Status())
	fmt.Printf("Stats: %+v\n", state.Stats)
	fmt.Printf("Inventory: %v\n", state.Inventory)
	fmt.Printf("Path: %v\n\n", state.History)
	return nil
}
