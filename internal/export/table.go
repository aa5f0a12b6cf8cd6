// Package export renders report projections as downloadable documents.
// Every report goes through the same shape: a Table with a title, a
// header row and string cells, written out as CSV, XLSX or PDF.
package export

import (
	"errors"
	"fmt"
	"io"
)

// ErrEmptyTable is returned when a projection has no rows to export.
var ErrEmptyTable = errors.New("nothing to export")

// Table is the flat, pre-formatted form every report takes before it is
// written out. Cells are already strings; formatting decisions (amount
// precision, placeholders) happen in the builders, not the writers.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Format identifies a supported export document format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// IsValid returns true if the format is supported.
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return true
	default:
		return false
	}
}

// ContentType returns the MIME type to serve the document under.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the filename extension, dot included.
func (f Format) Extension() string {
	return "." + string(f)
}

// Write renders the table in the given format.
func Write(w io.Writer, f Format, t Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatPDF:
		return WritePDF(w, t)
	default:
		return fmt.Errorf("unsupported export format: %s", f)
	}
}
