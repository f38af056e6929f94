package pipeline

import (
	"context"
	"errors"
	"testing"
)

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		required    []string
		wantMissing []string
	}{
		{
			name:     "exact match",
			columns:  []string{"a", "b"},
			required: []string{"a", "b"},
		},
		{
			name:     "superset is fine",
			columns:  []string{"x", "a", "b", "y"},
			required: []string{"a", "b"},
		},
		{
			name:        "one missing",
			columns:     []string{"a"},
			required:    []string{"a", "b"},
			wantMissing: []string{"b"},
		},
		{
			name:        "missing listed in required order",
			columns:     []string{"b"},
			required:    []string{"a", "b", "c"},
			wantMissing: []string{"a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &Table{Columns: tt.columns}
			err := ValidateColumns(context.Background(), table, tt.required)

			if tt.wantMissing == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var missingErr *MissingColumnsError
			if !errors.As(err, &missingErr) {
				t.Fatalf("expected MissingColumnsError, got %v", err)
			}
			if len(missingErr.Columns) != len(tt.wantMissing) {
				t.Fatalf("missing = %v, want %v", missingErr.Columns, tt.wantMissing)
			}
			for i, col := range tt.wantMissing {
				if missingErr.Columns[i] != col {
					t.Errorf("missing[%d] = %q, want %q", i, missingErr.Columns[i], col)
				}
			}
		})
	}
}

func TestProjectRequired(t *testing.T) {
	table := &Table{
		Columns: []string{"extra", "a", "b"},
		Rows: []map[string]string{
			{"extra": "x", "a": "1", "b": "2"},
			{"extra": "y", "a": "3"}, // "b" absent
		},
	}

	out, err := ProjectRequired(context.Background(), table, []string{"a", "b"})
	if err != nil {
		t.Fatalf("ProjectRequired failed: %v", err)
	}

	if len(out.Columns) != 2 || out.Columns[0] != "a" || out.Columns[1] != "b" {
		t.Errorf("columns = %v, want [a b]", out.Columns)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Len())
	}
	if _, ok := out.Rows[0]["extra"]; ok {
		t.Error("extra column survived projection")
	}
	// absent cell becomes empty string
	if got, ok := out.Rows[1]["b"]; !ok || got != "" {
		t.Errorf("absent cell = %q (present=%v), want empty string", got, ok)
	}
}

func TestProjectRequiredMissingColumn(t *testing.T) {
	table := &Table{Columns: []string{"a"}}

	_, err := ProjectRequired(context.Background(), table, []string{"a", "b"})

	var missingErr *MissingColumnsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
}

func TestRenameColumns(t *testing.T) {
	table := &Table{
		Columns: []string{"Kwota operacji", "Numer referencyjny"},
		Rows: []map[string]string{
			{"Kwota operacji": "-10,00", "Numer referencyjny": "REF1"},
		},
	}

	out, err := RenameColumns(context.Background(), table,
		[]string{"Kwota operacji", "Numer referencyjny"},
		[]string{"amount", "ref_number"})
	if err != nil {
		t.Fatalf("RenameColumns failed: %v", err)
	}

	if out.Columns[0] != "amount" || out.Columns[1] != "ref_number" {
		t.Errorf("columns = %v, want [amount ref_number]", out.Columns)
	}
	if got := out.Rows[0]["amount"]; got != "-10,00" {
		t.Errorf("amount = %q, want -10,00", got)
	}
	if got := out.Rows[0]["ref_number"]; got != "REF1" {
		t.Errorf("ref_number = %q, want REF1", got)
	}
}

func TestRenameColumnsLengthMismatch(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}}

	_, err := RenameColumns(context.Background(), table, []string{"a", "b"}, []string{"x"})
	if err == nil {
		t.Error("expected error for mismatched name lists, got nil")
	}
}
