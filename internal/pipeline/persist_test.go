package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvloznov/statement-ingest/internal/domain"
)

func TestAddTransactionsSkipsExisting(t *testing.T) {
	existing := map[string]bool{"REF002": true}

	var added []string
	repo := &MockTransactionRepository{
		AddFunc: func(ctx context.Context, tx *domain.Transaction) error {
			if existing[tx.RefNumber] {
				return fmt.Errorf("Add: ref_number %q: %w", tx.RefNumber, domain.ErrAlreadyExists)
			}
			added = append(added, tx.RefNumber)
			return nil
		},
	}

	txs := []*domain.Transaction{
		{RefNumber: "REF001"},
		{RefNumber: "REF002"},
		{RefNumber: "REF003"},
		{RefNumber: "REF004"},
		{RefNumber: "REF005"},
	}

	persisted, err := AddTransactions(context.Background(), repo, txs)
	if err != nil {
		t.Fatalf("AddTransactions failed: %v", err)
	}

	if len(persisted) != 4 {
		t.Errorf("persisted %d transactions, want 4", len(persisted))
	}
	want := []string{"REF001", "REF003", "REF004", "REF005"}
	if len(added) != len(want) {
		t.Fatalf("added = %v, want %v", added, want)
	}
	for i, ref := range want {
		if added[i] != ref {
			t.Errorf("added[%d] = %q, want %q", i, added[i], ref)
		}
	}
}

func TestAddTransactionsIdempotentResubmission(t *testing.T) {
	stored := make(map[string]bool)
	repo := &MockTransactionRepository{
		AddFunc: func(ctx context.Context, tx *domain.Transaction) error {
			if stored[tx.RefNumber] {
				return domain.ErrAlreadyExists
			}
			stored[tx.RefNumber] = true
			return nil
		},
	}

	txs := []*domain.Transaction{
		{RefNumber: "REF001"},
		{RefNumber: "REF002"},
	}

	first, err := AddTransactions(context.Background(), repo, txs)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first run persisted %d, want 2", len(first))
	}

	// Re-ingesting the same batch persists nothing and fails nothing.
	second, err := AddTransactions(context.Background(), repo, txs)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second run persisted %d, want 0", len(second))
	}
	if len(stored) != 2 {
		t.Errorf("store holds %d rows, want 2", len(stored))
	}
}

func TestAddTransactionsAbortsOnStorageError(t *testing.T) {
	boom := errors.New("backend unavailable")
	calls := 0
	repo := &MockTransactionRepository{
		AddFunc: func(ctx context.Context, tx *domain.Transaction) error {
			calls++
			if tx.RefNumber == "REF002" {
				return boom
			}
			return nil
		},
	}

	txs := []*domain.Transaction{
		{RefNumber: "REF001"},
		{RefNumber: "REF002"},
		{RefNumber: "REF003"},
	}

	persisted, err := AddTransactions(context.Background(), repo, txs)
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(persisted) != 1 {
		t.Errorf("persisted %d before abort, want 1", len(persisted))
	}
	if calls != 2 {
		t.Errorf("repo.Add called %d times, want 2 (no attempt after the failure)", calls)
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	repo := &MockTransactionRepository{
		UpdateFunc: func(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error) {
			return nil, domain.ErrNotFound
		},
	}

	category := "Groceries"
	_, err := UpdateTransaction(context.Background(), repo, "missing-id", domain.TransactionPatch{Category: &category})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected domain.ErrNotFound, got %v", err)
	}
}
