package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/statement-ingest/internal/gcsuploader"
	"github.com/dvloznov/statement-ingest/internal/logger"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	filePath := flag.String("file", "", "path to the local statement CSV (required)")
	bucket := flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name (or set GCS_BUCKET env)")
	object := flag.String("object", "", "destination object name (defaults to statements/YYYY/MM/DD/<filename>)")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}
	if *bucket == "" {
		log.Fatal().Msg("Error: --bucket is required (or set GCS_BUCKET)")
	}

	objectName := *object
	if objectName == "" {
		objectName = fmt.Sprintf("statements/%s/%s", time.Now().Format("2006/01/02"), filepath.Base(*filePath))
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("file", *filePath).
		Str("bucket", *bucket).
		Str("object", objectName).
		Msg("Uploading statement")

	if err := gcsuploader.UploadFile(ctx, *bucket, objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded to gs://%s/%s\n", *bucket, objectName)
}
