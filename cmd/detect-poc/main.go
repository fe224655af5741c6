// detect-poc runs the detection pipeline against photo URLs given on the
// command line and prints the reconciled inventory as JSON. Useful for
// prompt iteration without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aleksih/moveinventory/internal/config"
	"github.com/aleksih/moveinventory/internal/llm"
	"github.com/aleksih/moveinventory/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: detect-poc <photo-url> [photo-url...]")
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	var backend llm.Client
	if cfg.ModelBackend == "gemini" {
		backend, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize gemini")
		}
	} else {
		backend = llm.NewOpenAIClient(llm.OpenAIOpts{
			BaseURL: cfg.OpenAIBase,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.ModelName,
		})
	}

	detector := pipeline.NewDetector(llm.Retrying(backend, llm.DefaultRetryPolicy()), 250*time.Millisecond)

	result, err := detector.DetectInventory(ctx, os.Args[1:], nil)
	if err != nil {
		log.Fatal().Err(err).Msg("detection failed")
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
