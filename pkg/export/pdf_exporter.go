package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 277.0 // A4 landscape minus margins
	headerRowH = 8.0
	bodyRowH   = 7.0
)

// PDFExporter renders a Dataset into a landscape table with a page footer.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render creates the PDF document. The header row is repeated on every page.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	generated := e.now().UTC().Format("2006-01-02 15:04 MST")

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - page %d", generated, pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	widths := columnWidths(data)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, column := range data.Columns {
			pdf.CellFormat(widths[i], headerRowH, tr(column), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	pdf.AddPage()
	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+bodyRowH > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], bodyRowH, tr(cell), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths splits the page proportionally to the longest cell of each
// column, with a floor so short columns stay legible.
func columnWidths(data Dataset) []float64 {
	weights := make([]float64, len(data.Columns))
	for i, column := range data.Columns {
		weights[i] = float64(len(column))
	}
	for _, row := range data.Rows {
		for i, cell := range row {
			if l := float64(len(cell)); l > weights[i] {
				weights[i] = l
			}
		}
	}
	var total float64
	for i := range weights {
		if weights[i] < 6 {
			weights[i] = 6
		}
		total += weights[i]
	}
	widths := make([]float64, len(weights))
	for i, w := range weights {
		widths[i] = pageWidth * w / total
	}
	return widths
}
