// Package pipeline turns raw bank-statement extracts into canonical,
// classified, persisted transactions. The flow is strictly sequential:
// schema normalization, type coercion and invariant checks, rule-based
// receiver classification, then row-by-row persistence where uniqueness
// conflicts are skips rather than failures.
package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/gcs"
	"github.com/dvloznov/statement-ingest/internal/gcsuploader"
	infra "github.com/dvloznov/statement-ingest/internal/infra/bigquery"
	"github.com/dvloznov/statement-ingest/internal/logger"
	"github.com/dvloznov/statement-ingest/internal/rules"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	GCSURI       string
	StatementID  string
	IngestRunID  string
	RawCSV       []byte
	Table        *Table
	Transactions []*domain.Transaction
	Persisted    []*domain.Transaction
}

// RegisterStatementStep records the uploaded statement file.
type RegisterStatementStep struct {
	Runs RunTracker
}

func (s *RegisterStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	statementID, err := s.Runs.RegisterStatement(ctx, state.GCSURI)
	if err != nil {
		return err
	}
	state.StatementID = statementID
	return nil
}

// StartIngestRunStep starts an ingest run (status=RUNNING).
type StartIngestRunStep struct {
	Runs RunTracker
}

func (s *StartIngestRunStep) Execute(ctx context.Context, state *PipelineState) error {
	ingestRunID, err := s.Runs.StartIngestRun(ctx, state.StatementID)
	if err != nil {
		return err
	}
	state.IngestRunID = ingestRunID
	return nil
}

// FetchStatementStep downloads the statement CSV bytes from GCS.
type FetchStatementStep struct {
	Storage gcs.StorageService
	Runs    RunTracker
}

func (s *FetchStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	raw, err := s.Storage.FetchFromGCS(ctx, state.GCSURI)
	if err != nil {
		s.Runs.MarkIngestRunFailed(ctx, state.IngestRunID, err)
		return err
	}
	state.RawCSV = raw
	return nil
}

// DecodeStatementStep parses the CSV bytes into a raw table.
type DecodeStatementStep struct {
	Separator rune
	Runs      RunTracker
}

func (s *DecodeStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	sep := s.Separator
	if sep == 0 {
		sep = DefaultCSVSeparator
	}
	table, err := DecodeCSV(bytes.NewReader(state.RawCSV), sep)
	if err != nil {
		s.Runs.MarkIngestRunFailed(ctx, state.IngestRunID, err)
		return err
	}
	state.Table = table
	return nil
}

// NormalizeStep projects the raw table to the required source columns and
// renames them to the canonical field names.
type NormalizeStep struct {
	Runs RunTracker
}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	projected, err := ProjectRequired(ctx, state.Table, SourceColumns)
	if err != nil {
		s.Runs.MarkIngestRunFailed(ctx, state.IngestRunID, err)
		return err
	}
	renamed, err := RenameColumns(ctx, projected, SourceColumns, CanonicalColumns)
	if err != nil {
		s.Runs.MarkIngestRunFailed(ctx, state.IngestRunID, err)
		return err
	}
	state.Table = renamed
	return nil
}

// CoerceStep types the table into canonical transactions and enforces the
// batch-level ref_number uniqueness invariant.
type CoerceStep struct {
	Runs RunTracker
}

func (s *CoerceStep) Execute(ctx context.Context, state *PipelineState) error {
	txs, err := BuildTransactions(ctx, state.Table)
	if err != nil {
		s.Runs.MarkIngestRunFailed(ctx, state.IngestRunID, err)
		return err
	}
	state.Transactions = txs
	return nil
}

// ClassifyStep rewrites receivers using the rule mapping. A nil rule source
// leaves the batch unclassified.
type ClassifyStep struct {
	Rules RuleSource
}

func (s *ClassifyStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Rules == nil {
		return nil
	}
	ApplyRules(state.Transactions, s.Rules.Rules())
	return nil
}

// PersistStep stores the batch row by row; uniqueness conflicts are skips.
type PersistStep struct {
	Repo TransactionRepository
	Runs RunTracker
}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	for _, tx := range state.Transactions {
		tx.StatementID = state.StatementID
		tx.IngestRunID = state.IngestRunID
	}
	persisted, err := AddTransactions(ctx, s.Repo, state.Transactions)
	state.Persisted = persisted
	if err != nil {
		s.Runs.MarkIngestRunFailed(ctx, state.IngestRunID, err)
		return err
	}
	return nil
}

// MarkSuccessStep marks the ingest run as SUCCESS.
type MarkSuccessStep struct {
	Runs RunTracker
}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *PipelineState) error {
	return s.Runs.MarkIngestRunSucceeded(ctx, state.IngestRunID)
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return nil
}

// NewStatementIngestionPipeline wires the standard ingestion flow.
func NewStatementIngestionPipeline(repo TransactionRepository, runs RunTracker, storage gcs.StorageService, ruleSource RuleSource) *Pipeline {
	return NewPipeline(
		&RegisterStatementStep{Runs: runs},
		&StartIngestRunStep{Runs: runs},
		&FetchStatementStep{Storage: storage, Runs: runs},
		&DecodeStatementStep{Runs: runs},
		&NormalizeStep{Runs: runs},
		&CoerceStep{Runs: runs},
		&ClassifyStep{Rules: ruleSource},
		&PersistStep{Repo: repo, Runs: runs},
		&MarkSuccessStep{Runs: runs},
	)
}

// IngestStatementFromGCSWithDeps runs one statement through the full pipeline
// with injected collaborators. Returns the state so callers can report how
// many rows were persisted.
func IngestStatementFromGCSWithDeps(
	ctx context.Context,
	gcsURI string,
	repo TransactionRepository,
	runs RunTracker,
	storage gcs.StorageService,
	ruleSource RuleSource,
) (*PipelineState, error) {
	state := &PipelineState{GCSURI: gcsURI}
	if err := NewStatementIngestionPipeline(repo, runs, storage, ruleSource).Execute(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

// IngestStatementFromGCS processes a single statement CSV stored in GCS using
// the production BigQuery repository, GCS storage, and the rule file at
// rulesPath. gcsURI should look like "gs://bucket/path/to/statement.csv".
func IngestStatementFromGCS(ctx context.Context, gcsURI, rulesPath string) error {
	repo, err := infra.NewRepository(ctx)
	if err != nil {
		return fmt.Errorf("IngestStatementFromGCS: %w", err)
	}
	defer repo.Close()

	store := rules.NewStore(rulesPath, logger.FromContext(ctx))
	storage := gcsuploader.NewGCSStorageService()

	_, err = IngestStatementFromGCSWithDeps(ctx, gcsURI, repo, repo, storage, store)
	return err
}
