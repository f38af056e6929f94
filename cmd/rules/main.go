package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/statement-ingest/internal/logger"
	"github.com/dvloznov/statement-ingest/internal/rules"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	rulesPath := flag.String("rules", "rules.json", "path to the classification rules JSON file")
	category := flag.String("category", "", "category to add a pattern to (omit to list the mapping)")
	pattern := flag.String("pattern", "", "substring pattern to add")
	flag.Parse()

	store := rules.NewStore(*rulesPath, log)

	// No mutation flags: print the mapping in its stored order.
	if *category == "" && *pattern == "" {
		entries := store.Rules()
		if len(entries) == 0 {
			fmt.Println("No rules defined.")
			return
		}
		for _, e := range entries {
			fmt.Printf("%s:\n", e.Category)
			for _, p := range e.Patterns {
				fmt.Printf("  - %s\n", p)
			}
		}
		return
	}

	if *category == "" || *pattern == "" {
		log.Error().Msg("Error: --category and --pattern must be given together")
		os.Exit(1)
	}

	if err := store.AddRule(*category, *pattern); err != nil {
		log.Fatal().Err(err).Msg("Failed to add rule")
	}

	fmt.Printf("Added pattern %q to category %q.\n", *pattern, *category)
}
