package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/logger"
)

// AddTransactions persists each row independently, in order. A row whose
// ref_number already exists in storage is skipped with a log notice; any
// other storage error aborts the remaining rows and is returned together with
// the rows persisted so far. Resubmitting a partially ingested batch is
// therefore safe: already-stored rows turn into skips and only the new ones
// land.
func AddTransactions(ctx context.Context, repo TransactionRepository, txs []*domain.Transaction) ([]*domain.Transaction, error) {
	log := logger.FromContext(ctx)

	added := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if err := repo.Add(ctx, tx); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				log.Info().
					Str("date", tx.DateString()).
					Str("ref_number", tx.RefNumber).
					Msg("Transaction already exists, skipping")
				continue
			}
			return added, fmt.Errorf("AddTransactions: %w", err)
		}
		added = append(added, tx)
	}

	log.Info().Int("added", len(added)).Int("skipped", len(txs)-len(added)).Msg("Batch persisted")
	return added, nil
}

// AddTransaction persists a single row.
func AddTransaction(ctx context.Context, repo TransactionRepository, tx *domain.Transaction) error {
	if err := repo.Add(ctx, tx); err != nil {
		return fmt.Errorf("AddTransaction: %w", err)
	}
	return nil
}

// UpdateTransaction applies a partial patch to a stored row and returns the
// updated row. domain.ErrNotFound is passed through for unknown ids.
func UpdateTransaction(ctx context.Context, repo TransactionRepository, id string, patch domain.TransactionPatch) (*domain.Transaction, error) {
	tx, err := repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return tx, nil
}
