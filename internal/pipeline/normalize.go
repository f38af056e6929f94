package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-ingest/internal/logger"
)

// missingColumns returns the elements of required absent from the table, in
// required order.
func missingColumns(t *Table, required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// ValidateColumns fails with a MissingColumnsError when the table does not
// carry every required column. Used both before projection and again after
// renaming, against the canonical name list.
func ValidateColumns(ctx context.Context, t *Table, required []string) error {
	if missing := missingColumns(t, required); len(missing) > 0 {
		err := &MissingColumnsError{Columns: missing}
		log := logger.FromContext(ctx)
		log.Error().Strs("columns", missing).Msg("Missing columns in statement table")
		return err
	}
	return nil
}

// ProjectRequired replaces absent cells with empty strings, validates that
// every required column is present, and returns a new table restricted to
// exactly those columns in their given order. Downstream coercion never sees
// a missing cell.
func ProjectRequired(ctx context.Context, t *Table, required []string) (*Table, error) {
	if err := ValidateColumns(ctx, t, required); err != nil {
		return nil, fmt.Errorf("ProjectRequired: %w", err)
	}

	out := &Table{
		Columns: append([]string(nil), required...),
		Rows:    make([]map[string]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		projected := make(map[string]string, len(required))
		for _, col := range required {
			projected[col] = row[col] // absent cells become ""
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// RenameColumns renames the table's columns 1:1 by position from required to
// canonical. The required set is revalidated first; this is often called on a
// table that has been edited since projection.
func RenameColumns(ctx context.Context, t *Table, required, canonical []string) (*Table, error) {
	if err := ValidateColumns(ctx, t, required); err != nil {
		return nil, fmt.Errorf("RenameColumns: %w", err)
	}
	if len(required) != len(canonical) {
		err := fmt.Errorf("RenameColumns: %d required columns but %d canonical names", len(required), len(canonical))
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Column rename mismatch")
		return nil, err
	}

	out := &Table{
		Columns: append([]string(nil), canonical...),
		Rows:    make([]map[string]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		renamed := make(map[string]string, len(canonical))
		for i, col := range required {
			renamed[canonical[i]] = row[col]
		}
		out.Rows = append(out.Rows, renamed)
	}
	return out, nil
}
