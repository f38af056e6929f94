package pipeline

import (
	"context"

	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/rules"
)

// TransactionRepository persists canonical transactions one row at a time.
// Add reports domain.ErrAlreadyExists when a row with the same ref_number is
// already stored; Update reports domain.ErrNotFound for an unknown id.
type TransactionRepository interface {
	// Add stores one transaction, assigning its ID on success.
	Add(ctx context.Context, tx *domain.Transaction) error

	// Update applies a partial patch and returns the updated row.
	Update(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error)
}

// RunTracker records statement uploads and the lifecycle of their ingest runs.
type RunTracker interface {
	// RegisterStatement records an uploaded statement file and returns its ID.
	RegisterStatement(ctx context.Context, gcsURI string) (string, error)

	// StartIngestRun creates an ingest run in RUNNING state.
	StartIngestRun(ctx context.Context, statementID string) (string, error)

	// MarkIngestRunFailed moves a run to FAILED with the cause. Best effort;
	// it is called on error paths and must not mask the original failure.
	MarkIngestRunFailed(ctx context.Context, ingestRunID string, cause error)

	// MarkIngestRunSucceeded moves a run to SUCCESS.
	MarkIngestRunSucceeded(ctx context.Context, ingestRunID string) error
}

// RuleSource yields the classification rule mapping in its defined order.
// *rules.Store is the production implementation.
type RuleSource interface {
	Rules() []rules.Entry
}
