package notionsync

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/statement-ingest/internal/domain"
)

// NotionService defines the interface for interacting with the Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// TransactionQuerier is the slice of the transaction repository the export
// needs. *bigquery.Repository is the production implementation.
type TransactionQuerier interface {
	QueryTransactionsByMonth(ctx context.Context, execMonth string) ([]*domain.Transaction, error)
}
