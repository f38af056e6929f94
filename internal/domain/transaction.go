package domain

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ExecMonthUnknown is stored in ExecMonth when the source date could not be parsed.
const ExecMonthUnknown = "Unknown"

// Storage outcomes the persistence layer reports per row. The batch
// coordinator absorbs ErrAlreadyExists as a skip; everything else aborts.
var (
	ErrAlreadyExists = errors.New("transaction already exists")
	ErrNotFound      = errors.New("transaction not found")
)

// Transaction is one canonical statement row after normalization and coercion.
type Transaction struct {
	ID string // assigned by the repository on insert

	// Date is the accounting date. The zero value marks a source date that
	// failed to parse; ExecMonth is "Unknown" in that case.
	Date      civil.Date
	ExecMonth string // "YYYY-MM" derived from Date

	Receiver        string // counterparty; rewritten by the classification rules
	Title           string
	Amount          decimal.Decimal
	TransactionType string
	Category        string

	// RefNumber is the bank's reference number, unique within a batch and
	// across everything already persisted.
	RefNumber string

	// Provenance, stamped by the pipeline before persistence.
	StatementID string
	IngestRunID string
}

// HasDate reports whether the source date was parsable.
func (t *Transaction) HasDate() bool {
	return t.Date.IsValid()
}

// DateString returns the canonical ISO form of the date, or "" for the
// unparsable-date sentinel.
func (t *Transaction) DateString() string {
	if !t.HasDate() {
		return ""
	}
	return t.Date.String()
}

func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s %s (%s)", t.DateString(), t.Receiver, t.Amount, t.RefNumber)
}

// TransactionPatch is a partial update for a stored transaction. Nil fields
// are left untouched.
type TransactionPatch struct {
	Receiver        *string
	Title           *string
	Amount          *decimal.Decimal
	TransactionType *string
	Category        *string
}

// IsZero reports whether the patch carries no changes.
func (p TransactionPatch) IsZero() bool {
	return p.Receiver == nil && p.Title == nil && p.Amount == nil &&
		p.TransactionType == nil && p.Category == nil
}
