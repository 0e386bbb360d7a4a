package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Section is one titled block of a report document: a key/value summary, a
// table, or both.
type Section struct {
	Heading   string
	KeyValues [][2]string
	Table     Dataset
}

// Document describes a multi-section compliance report.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}

// PDFExporter renders report documents with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF for the given document.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, doc.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	for _, section := range doc.Sections {
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 9, section.Heading, "", 1, "L", false, 0, "")
			pdf.Ln(1)
		}

		if len(section.KeyValues) > 0 {
			pdf.SetFont("Arial", "", 10)
			for _, kv := range section.KeyValues {
				pdf.SetFont("Arial", "B", 10)
				pdf.CellFormat(70, 7, kv[0], "", 0, "L", false, 0, "")
				pdf.SetFont("Arial", "", 10)
				pdf.CellFormat(0, 7, kv[1], "", 1, "L", false, 0, "")
			}
			pdf.Ln(2)
		}

		if len(section.Table.Headers) > 0 {
			e.renderTable(pdf, section.Table)
			pdf.Ln(4)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) renderTable(pdf *gofpdf.Fpdf, data Dataset) {
	colWidth := 190.0 / float64(len(data.Headers))

	pdf.SetFont("Arial", "B", 10)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
