package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is a loosely typed tabular batch: ordered column names plus one
// string-keyed row per input record. It only lives for the duration of an
// ingestion call.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// DecodeCSV reads a delimiter-separated statement export into a Table. The
// first record is the header. Short records leave the trailing cells absent;
// ProjectRequired later turns absent cells into empty strings.
func DecodeCSV(r io.Reader, sep rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("DecodeCSV: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("DecodeCSV: reading header: %w", err)
	}
	if len(header) > 0 {
		// Bank exports routinely carry a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &Table{Columns: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("DecodeCSV: reading record: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
