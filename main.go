package main

import (
	"fmt"
	"os"

	"github.com/tatianab/storygraph/internal/config"
	"github.com/tatianab/storygraph/internal/play"
	"github.com/tatianab/storygraph/internal/store"
	"github.com/tatianab/storygraph/internal/tui"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	saves, err := store.NewByEngine(cfg.SaveStore, cfg.SavePath, cfg.MaxSaveSlots)
	if err != nil {
		fmt.Printf("Error opening save store: %v\n", err)
		os.Exit(1)
	}
	if closer, ok := saves.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	player := play.New(store.NewLibrary(cfg.StoryDir), saves)
	if err := tui.Run(player, cfg.DebugLog); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
