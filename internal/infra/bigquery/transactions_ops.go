package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/statement-ingest/internal/domain"
)

// Add stores one canonical transaction. When a row with the same ref_number
// already exists, domain.ErrAlreadyExists is returned and nothing is written.
// The existence check and the insert are two statements, so two concurrent
// writers can both pass the check; ingestion is sequential per batch, which
// keeps the window closed in practice.
func (r *Repository) Add(ctx context.Context, tx *domain.Transaction) error {
	exists, err := r.existsByRefNumber(ctx, tx.RefNumber)
	if err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	if exists {
		return fmt.Errorf("Add: ref_number %q: %w", tx.RefNumber, domain.ErrAlreadyExists)
	}

	transactionID := uuid.NewString()

	// DML rather than the streaming inserter: streamed rows sit in the
	// streaming buffer where later UPDATE statements cannot touch them.
	q := r.client.Query(fmt.Sprintf(`
		INSERT %s (
			transaction_id,
			statement_id,
			ingest_run_id,
			transaction_date,
			exec_month,
			receiver,
			title,
			amount,
			transaction_type,
			category,
			ref_number,
			created_ts
		)
		VALUES (
			@transaction_id,
			@statement_id,
			@ingest_run_id,
			@transaction_date,
			@exec_month,
			@receiver,
			@title,
			@amount,
			@transaction_type,
			@category,
			@ref_number,
			@created_ts
		)
	`, r.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
		{Name: "statement_id", Value: tx.StatementID},
		{Name: "ingest_run_id", Value: tx.IngestRunID},
		{Name: "transaction_date", Value: nullDate(tx)},
		{Name: "exec_month", Value: tx.ExecMonth},
		{Name: "receiver", Value: tx.Receiver},
		{Name: "title", Value: tx.Title},
		{Name: "amount", Value: tx.Amount.Rat()},
		{Name: "transaction_type", Value: tx.TransactionType},
		{Name: "category", Value: tx.Category},
		{Name: "ref_number", Value: tx.RefNumber},
		{Name: "created_ts", Value: time.Now()},
	}

	if err := r.runDML(ctx, q); err != nil {
		return fmt.Errorf("Add: %w", err)
	}

	tx.ID = transactionID
	return nil
}

// GetByID returns one stored transaction, or domain.ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`, r.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetByID: query read: %w", err)
	}

	var row TransactionRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, fmt.Errorf("GetByID: transaction %q: %w", id, domain.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("GetByID: iter next: %w", err)
	}

	return row.toTransaction(), nil
}

// Update applies a partial patch to a stored transaction and returns the
// updated row. domain.ErrNotFound when the id does not exist.
func (r *Repository) Update(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	if patch.IsZero() {
		return r.GetByID(ctx, id)
	}

	assignments := "updated_ts = @updated_ts"
	params := []bigquery.QueryParameter{
		{Name: "updated_ts", Value: time.Now()},
		{Name: "transaction_id", Value: id},
	}
	addSet := func(column string, value interface{}) {
		assignments += fmt.Sprintf(", %s = @%s", column, column)
		params = append(params, bigquery.QueryParameter{Name: column, Value: value})
	}
	if patch.Receiver != nil {
		addSet("receiver", *patch.Receiver)
	}
	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Amount != nil {
		addSet("amount", patch.Amount.Rat())
	}
	if patch.TransactionType != nil {
		addSet("transaction_type", *patch.TransactionType)
	}
	if patch.Category != nil {
		addSet("category", *patch.Category)
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE transaction_id = @transaction_id
	`, r.table(transactionsTable), assignments))
	q.Parameters = params

	if err := r.runDML(ctx, q); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	updated, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return updated, nil
}

// QueryTransactionsByMonth returns all stored transactions with the given
// exec_month bucket, ordered by date.
func (r *Repository) QueryTransactionsByMonth(ctx context.Context, execMonth string) ([]*domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s
		WHERE exec_month = @exec_month
		ORDER BY transaction_date, created_ts
	`, r.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "exec_month", Value: execMonth},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByMonth: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByMonth: iter next: %w", err)
		}
		txs = append(txs, row.toTransaction())
	}

	return txs, nil
}
