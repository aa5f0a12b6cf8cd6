package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the table as RFC 4180 CSV: one header row followed by
// the data rows. The title is not part of the document, matching what a
// spreadsheet import expects.
func WriteCSV(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		return ErrEmptyTable
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
