package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ingest/internal/domain"
)

// ratScale is the decimal scale used when converting NUMERIC values back
// into decimals. BigQuery NUMERIC carries at most 9 fractional digits.
const ratScale = 9

// TransactionRow is the ledger.transactions table shape.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	StatementID string `bigquery:"statement_id"`  // NULLABLE
	IngestRunID string `bigquery:"ingest_run_id"` // NULLABLE

	// TransactionDate is NULL when the source date was unparsable; the
	// exec_month column then holds "Unknown".
	TransactionDate bigquery.NullDate `bigquery:"transaction_date"`
	ExecMonth       string            `bigquery:"exec_month"`

	Receiver        string   `bigquery:"receiver"`
	Title           string   `bigquery:"title"`
	Amount          *big.Rat `bigquery:"amount"` // REQUIRED NUMERIC
	TransactionType string   `bigquery:"transaction_type"`
	Category        string   `bigquery:"category"`

	RefNumber string `bigquery:"ref_number"` // unique per stored row

	CreatedTS time.Time              `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

// toTransaction maps a stored row back into the domain shape.
func (r *TransactionRow) toTransaction() *domain.Transaction {
	tx := &domain.Transaction{
		ID:              r.TransactionID,
		ExecMonth:       r.ExecMonth,
		Receiver:        r.Receiver,
		Title:           r.Title,
		TransactionType: r.TransactionType,
		Category:        r.Category,
		RefNumber:       r.RefNumber,
		StatementID:     r.StatementID,
		IngestRunID:     r.IngestRunID,
	}
	if r.TransactionDate.Valid {
		tx.Date = r.TransactionDate.Date
	}
	if r.Amount != nil {
		tx.Amount = decimal.NewFromBigRat(r.Amount, ratScale)
	}
	return tx
}

// nullDate maps the unparsable-date sentinel to a NULL column value.
func nullDate(tx *domain.Transaction) bigquery.NullDate {
	if !tx.HasDate() {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: tx.Date, Valid: true}
}
