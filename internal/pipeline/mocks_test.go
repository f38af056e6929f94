package pipeline

import (
	"context"
	"io"

	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/rules"
)

// MockTransactionRepository is a function-field mock of TransactionRepository.
type MockTransactionRepository struct {
	AddFunc    func(ctx context.Context, tx *domain.Transaction) error
	UpdateFunc func(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error)
}

func (m *MockTransactionRepository) Add(ctx context.Context, tx *domain.Transaction) error {
	return m.AddFunc(ctx, tx)
}

func (m *MockTransactionRepository) Update(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error) {
	return m.UpdateFunc(ctx, id, patch)
}

// MockRunTracker is a function-field mock of RunTracker. Unset fields default
// to success so tests only wire what they assert on.
type MockRunTracker struct {
	RegisterStatementFunc      func(ctx context.Context, gcsURI string) (string, error)
	StartIngestRunFunc         func(ctx context.Context, statementID string) (string, error)
	MarkIngestRunFailedFunc    func(ctx context.Context, ingestRunID string, cause error)
	MarkIngestRunSucceededFunc func(ctx context.Context, ingestRunID string) error
}

func (m *MockRunTracker) RegisterStatement(ctx context.Context, gcsURI string) (string, error) {
	if m.RegisterStatementFunc != nil {
		return m.RegisterStatementFunc(ctx, gcsURI)
	}
	return "statement-1", nil
}

func (m *MockRunTracker) StartIngestRun(ctx context.Context, statementID string) (string, error) {
	if m.StartIngestRunFunc != nil {
		return m.StartIngestRunFunc(ctx, statementID)
	}
	return "run-1", nil
}

func (m *MockRunTracker) MarkIngestRunFailed(ctx context.Context, ingestRunID string, cause error) {
	if m.MarkIngestRunFailedFunc != nil {
		m.MarkIngestRunFailedFunc(ctx, ingestRunID, cause)
	}
}

func (m *MockRunTracker) MarkIngestRunSucceeded(ctx context.Context, ingestRunID string) error {
	if m.MarkIngestRunSucceededFunc != nil {
		return m.MarkIngestRunSucceededFunc(ctx, ingestRunID)
	}
	return nil
}

// MockStorageService is a function-field mock of gcs.StorageService.
type MockStorageService struct {
	UploadFunc       func(ctx context.Context, bucketName, objectName string, content io.Reader) error
	UploadFileFunc   func(ctx context.Context, bucketName, objectName, filePath string) error
	FetchFromGCSFunc func(ctx context.Context, gcsURI string) ([]byte, error)
}

func (m *MockStorageService) Upload(ctx context.Context, bucketName, objectName string, content io.Reader) error {
	return m.UploadFunc(ctx, bucketName, objectName, content)
}

func (m *MockStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return m.UploadFileFunc(ctx, bucketName, objectName, filePath)
}

func (m *MockStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return m.FetchFromGCSFunc(ctx, gcsURI)
}

// staticRuleSource serves a fixed rule mapping.
type staticRuleSource struct {
	entries []rules.Entry
}

func (s *staticRuleSource) Rules() []rules.Entry {
	return s.entries
}
