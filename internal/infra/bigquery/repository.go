// Package bigquery implements the persistence collaborators of the ingestion
// pipeline on BigQuery: the transaction repository and the statement /
// ingest-run tracker. BigQuery has no unique constraints, so ref_number
// uniqueness is enforced with a per-row existence query before insert; the
// pipeline treats the resulting domain.ErrAlreadyExists as a skip.
package bigquery

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
)

const (
	defaultDatasetID  = "ledger"
	transactionsTable = "transactions"
	statementsTable   = "statements"
	ingestRunsTable   = "ingest_runs"
)

// Repository is the BigQuery-backed store for transactions, statements and
// ingest runs. It holds a shared client; Close releases it.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a Repository configured from the environment:
// BQ_PROJECT (required) and BQ_DATASET (default "ledger").
func NewRepository(ctx context.Context) (*Repository, error) {
	projectID := os.Getenv("BQ_PROJECT")
	if projectID == "" {
		return nil, fmt.Errorf("NewRepository: BQ_PROJECT is not set")
	}
	datasetID := os.Getenv("BQ_DATASET")
	if datasetID == "" {
		datasetID = defaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: bigquery client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient creates a Repository around an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the underlying BigQuery client.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

// runDML executes a DML query and waits for its job to complete.
func (r *Repository) runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// existsByRefNumber reports whether a transaction with the given ref_number
// is already stored.
func (r *Repository) existsByRefNumber(ctx context.Context, refNumber string) (bool, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE ref_number = @ref_number
	`, r.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "ref_number", Value: refNumber},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("existsByRefNumber: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return false, fmt.Errorf("existsByRefNumber: iter next: %w", err)
	}
	return row.N > 0, nil
}
