package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pdfTableWidth = 190.0

// PDFExporter renders a Dataset into a single-page tabular PDF with equal
// column widths.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render builds a PDF document with an uppercased title, optional subtitle
// and a bordered table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 15, 10)
	doc.AddPage()

	if title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
	}
	if data.Subtitle != "" {
		doc.SetFont("Arial", "I", 10)
		doc.CellFormat(0, 6, data.Subtitle, "", 1, "C", false, 0, "")
	}
	doc.Ln(5)

	colWidth := pdfTableWidth / float64(len(data.Headers))

	doc.SetFont("Arial", "B", 10)
	for _, header := range data.Headers {
		doc.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			doc.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
