package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"time"

	"github.com/dvloznov/statement-ingest/internal/infra/bigquery"
	"github.com/dvloznov/statement-ingest/internal/logger"
	"github.com/dvloznov/statement-ingest/internal/notionsync"
)

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	month := flag.String("month", "", "execution month in YYYY-MM format (required)")
	notionToken := flag.String("notion-token", "", "Notion API token (required)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (required)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *month == "" {
		log.Fatal().Msg("Error: --month is required")
	}
	if !monthRe.MatchString(*month) {
		log.Fatal().Str("month", *month).Msg("Error: invalid month format, expected YYYY-MM")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("month", *month).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Initialize BigQuery repository
	repo, err := bigquery.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync transactions
	if err := notionsync.SyncMonth(ctx, repo, notionClient, *notionDBID, *month, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
