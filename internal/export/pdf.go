package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// WritePDF writes the table as a landscape A4 document: the title on
// top, then a ruled grid that repeats the header row on every page.
func WritePDF(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		return ErrEmptyTable
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, latinize(tr, t.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageW, pageH := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(t.Headers))
	rowH := 7.0

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, rowH, latinize(tr, h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(rowH)
		pdf.SetFont("Helvetica", "", 8)
	}
	writeHeader()

	for _, row := range t.Rows {
		if pdf.GetY()+rowH > pageH-10 {
			pdf.AddPage()
			writeHeader()
		}
		for _, cell := range row {
			pdf.CellFormat(colW, rowH, latinize(tr, cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(rowH)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// latinize maps text into the core font's code page. The rupee sign has
// no Latin-1 slot, so it becomes "Rs." instead of vanishing.
func latinize(tr func(string) string, s string) string {
	return tr(strings.ReplaceAll(s, "₹", "Rs."))
}
