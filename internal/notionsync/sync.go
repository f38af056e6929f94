// Package notionsync pushes persisted canonical transactions into a Notion
// database, one page per transaction, idempotent by ref_number.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/statement-ingest/internal/logger"
)

// SyncMonth exports every stored transaction of one exec_month bucket to the
// Notion database. Existing pages (matched by their Ref Number title) are
// updated in place; everything else is created. With dryRun set, the plan is
// logged and nothing is written to Notion.
func SyncMonth(ctx context.Context, repo TransactionQuerier, notion NotionService, notionDBID, execMonth string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("exec_month", execMonth).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	txs, err := repo.QueryTransactionsByMonth(ctx, execMonth)
	if err != nil {
		return fmt.Errorf("SyncMonth: querying transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(txs)).Msg("Retrieved transactions")

	pagesByRef, err := queryAllPages(ctx, notion, notionDBID)
	if err != nil {
		return fmt.Errorf("SyncMonth: querying Notion pages: %w", err)
	}
	log.Info().Int("page_count", len(pagesByRef)).Msg("Retrieved existing Notion pages")

	created, updated := 0, 0
	for _, tx := range txs {
		props := TransactionToNotionProperties(tx)

		if pageID, ok := pagesByRef[tx.RefNumber]; ok {
			if dryRun {
				log.Info().Str("ref_number", tx.RefNumber).Msg("Would update page")
				continue
			}
			if _, err := notion.UpdatePage(ctx, pageID, props); err != nil {
				return fmt.Errorf("SyncMonth: updating page for %s: %w", tx.RefNumber, err)
			}
			updated++
			continue
		}

		if dryRun {
			log.Info().Str("ref_number", tx.RefNumber).Msg("Would create page")
			continue
		}
		if _, err := notion.CreatePage(ctx, notionDBID, props); err != nil {
			return fmt.Errorf("SyncMonth: creating page for %s: %w", tx.RefNumber, err)
		}
		created++
	}

	log.Info().Int("created", created).Int("updated", updated).Msg("Notion sync finished")
	return nil
}

// queryAllPages pages through the whole Notion database and indexes page IDs
// by their Ref Number title.
func queryAllPages(ctx context.Context, notion NotionService, notionDBID string) (map[string]string, error) {
	pages := make(map[string]string)

	req := &notionapi.DatabaseQueryRequest{
		PageSize: 100,
	}
	for {
		resp, err := notion.QueryDatabase(ctx, notionDBID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}

		for _, page := range resp.Results {
			if ref := refNumberOfPage(page); ref != "" {
				pages[ref] = string(page.ID)
			}
		}

		if !resp.HasMore {
			break
		}
		req.StartCursor = resp.NextCursor
	}

	return pages, nil
}
