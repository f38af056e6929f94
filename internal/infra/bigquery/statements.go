package bigquery

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/statement-ingest/internal/logger"
)

// StatementRow is the ledger.statements table shape: one row per uploaded
// statement file.
type StatementRow struct {
	StatementID      string    `bigquery:"statement_id"`
	GCSURI           string    `bigquery:"gcs_uri"`
	OriginalFilename string    `bigquery:"original_filename"`
	UploadTS         time.Time `bigquery:"upload_ts"`
}

// IngestRunRow is the ledger.ingest_runs table shape: one row per ingestion
// attempt for a statement.
type IngestRunRow struct {
	IngestRunID  string                 `bigquery:"ingest_run_id"`
	StatementID  string                 `bigquery:"statement_id"`
	StartedTS    time.Time              `bigquery:"started_ts"`
	FinishedTS   bigquery.NullTimestamp `bigquery:"finished_ts"`
	Status       string                 `bigquery:"status"` // RUNNING, SUCCESS, FAILED
	ErrorMessage string                 `bigquery:"error_message"`
}

// RegisterStatement records an uploaded statement file and returns its ID.
func (r *Repository) RegisterStatement(ctx context.Context, gcsURI string) (string, error) {
	statementID := uuid.NewString()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s (statement_id, gcs_uri, original_filename, upload_ts)
		VALUES (@statement_id, @gcs_uri, @original_filename, @upload_ts)
	`, r.table(statementsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
		{Name: "gcs_uri", Value: gcsURI},
		{Name: "original_filename", Value: filenameFromGCSURI(gcsURI)},
		{Name: "upload_ts", Value: time.Now()},
	}

	if err := r.runDML(ctx, q); err != nil {
		return "", fmt.Errorf("RegisterStatement: %w", err)
	}
	return statementID, nil
}

// StartIngestRun creates an ingest_runs row with status=RUNNING.
func (r *Repository) StartIngestRun(ctx context.Context, statementID string) (string, error) {
	ingestRunID := uuid.NewString()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s (ingest_run_id, statement_id, started_ts, status)
		VALUES (@ingest_run_id, @statement_id, @started_ts, @status)
	`, r.table(ingestRunsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "ingest_run_id", Value: ingestRunID},
		{Name: "statement_id", Value: statementID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: "RUNNING"},
	}

	if err := r.runDML(ctx, q); err != nil {
		return "", fmt.Errorf("StartIngestRun: %w", err)
	}
	return ingestRunID, nil
}

// MarkIngestRunFailed updates an ingest run to status=FAILED. Called on error
// paths, so its own failures are logged rather than returned.
func (r *Repository) MarkIngestRunFailed(ctx context.Context, ingestRunID string, cause error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE ingest_run_id = @ingest_run_id
	`, r.table(ingestRunsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "ingest_run_id", Value: ingestRunID},
	}

	if err := r.runDML(ctx, q); err != nil {
		log.Error().Err(err).Str("ingest_run_id", ingestRunID).Msg("Failed to mark ingest run failed")
	}
}

// MarkIngestRunSucceeded updates an ingest run to status=SUCCESS.
func (r *Repository) MarkIngestRunSucceeded(ctx context.Context, ingestRunID string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = ""
		WHERE ingest_run_id = @ingest_run_id
	`, r.table(ingestRunsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "ingest_run_id", Value: ingestRunID},
	}

	if err := r.runDML(ctx, q); err != nil {
		return fmt.Errorf("MarkIngestRunSucceeded: %w", err)
	}
	return nil
}

// filenameFromGCSURI extracts the object filename from a GCS URI.
// e.g. "gs://bucket/folder/file.csv" → "file.csv"
func filenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
