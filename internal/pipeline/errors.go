package pipeline

import (
	"fmt"
	"strings"
)

// MissingColumnsError reports required columns absent from a raw table. The
// column list preserves the order of the required set.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Columns, ", "))
}

// DuplicateRefNumbersError reports every ref_number value that appears more
// than once within a batch. One duplicate rejects the whole batch before any
// row reaches persistence.
type DuplicateRefNumbersError struct {
	Values []string
}

func (e *DuplicateRefNumbersError) Error() string {
	return fmt.Sprintf("duplicate ref_number values: %s", strings.Join(e.Values, ", "))
}
