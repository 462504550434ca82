package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sahan/donkeywatch/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders a single violation report as a case document for the
// police file.
func (g *Generator) Generate(report model.ViolationReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Traffic Violation Report", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reference %s, filed %s", report.Reference, formatDateTime(report.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Incident", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	lines := []string{
		fmt.Sprintf("Violation: %s", report.Type.Label()),
		fmt.Sprintf("Vehicle: %s", safeValue(report.VehicleNumber)),
		fmt.Sprintf("Location: %s", safeValue(report.Location)),
		fmt.Sprintf("Occurred: %s", formatDateTime(report.OccurredAt)),
		fmt.Sprintf("Reported by: %s", safeValue(report.Reporter)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Description", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.MultiCell(0, 5, safeValue(report.Description), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Evidence", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	headers := []string{"File", "Kind", "Content type", "Size"}
	colWidths := []float64{70, 20, 50, 40}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, item := range report.Evidence {
		row := []string{
			item.FileName,
			string(item.Kind),
			item.ContentType,
			formatSize(item.SizeBytes),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}
	if len(report.Evidence) == 0 {
		pdf.CellFormat(0, 6, "no evidence on file", "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Review", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", report.Status), "", 1, "L", false, 0, "")
	if report.ReviewedAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Reviewed at: %s", formatDateTime(*report.ReviewedAt)), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatSize(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
