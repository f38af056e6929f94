package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/logger"
)

var amountCleaner = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".")

// parseAmount turns a locale-formatted amount ("1 000,50") into an exact
// decimal. No fallback: a bad amount fails the row's containing operation.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountCleaner.Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parseAmount: %q: %w", s, err)
	}
	return d, nil
}

// execMonth derives the "YYYY-MM" bucket from a parsed date.
func execMonth(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// duplicateRefNumbers returns every ref_number appearing more than once, in
// first-occurrence order.
func duplicateRefNumbers(txs []*domain.Transaction) []string {
	counts := make(map[string]int, len(txs))
	for _, tx := range txs {
		counts[tx.RefNumber]++
	}

	var dupes []string
	seen := make(map[string]bool)
	for _, tx := range txs {
		if counts[tx.RefNumber] > 1 && !seen[tx.RefNumber] {
			dupes = append(dupes, tx.RefNumber)
			seen[tx.RefNumber] = true
		}
	}
	return dupes
}

// BuildTransactions coerces a canonical-named table into typed transactions.
//
// Dates are best-effort per row: an unparsable date becomes the zero-date
// sentinel with ExecMonth "Unknown", and the batch gets one warning. Amounts
// are strict: the first bad amount fails the whole call. After coercion the
// batch-level ref_number uniqueness invariant is enforced; its
// DuplicateRefNumbersError is a distinct type so the caller can tell invalid
// data from a processing failure.
func BuildTransactions(ctx context.Context, t *Table) ([]*domain.Transaction, error) {
	log := logger.FromContext(ctx)

	if err := ValidateColumns(ctx, t, CanonicalColumns); err != nil {
		return nil, fmt.Errorf("BuildTransactions: %w", err)
	}

	txs := make([]*domain.Transaction, 0, len(t.Rows))
	unparsableDates := 0

	for i, row := range t.Rows {
		tx := &domain.Transaction{
			Receiver:        row["receiver"],
			Title:           row["title"],
			TransactionType: row["transaction_type"],
			Category:        row["category"],
			RefNumber:       row["ref_number"],
		}

		if parsed, err := time.Parse(SourceDateLayout, row["date"]); err == nil {
			tx.Date = civil.DateOf(parsed)
			tx.ExecMonth = execMonth(tx.Date)
		} else {
			unparsableDates++
			tx.ExecMonth = domain.ExecMonthUnknown
		}

		amount, err := parseAmount(row["amount"])
		if err != nil {
			log.Error().Err(err).Int("row", i).Str("ref_number", tx.RefNumber).Msg("Failed to parse amount")
			return nil, fmt.Errorf("BuildTransactions: row %d: %w", i, err)
		}
		tx.Amount = amount

		txs = append(txs, tx)
	}

	if unparsableDates > 0 {
		log.Warn().Int("count", unparsableDates).Msg("Some dates could not be parsed; exec_month set to Unknown")
	}

	if dupes := duplicateRefNumbers(txs); len(dupes) > 0 {
		err := &DuplicateRefNumbersError{Values: dupes}
		log.Error().Strs("values", dupes).Msg("Duplicate ref_number values found")
		return nil, err
	}

	return txs, nil
}
