package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sahan/donkeywatch/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate produces the register of validated violation reports: a summary
// sheet with per-type counts and one detail sheet listing every report.
func (g *Generator) Generate(reports []model.ViolationReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, reports); err != nil {
		return nil, err
	}

	detailSheet := "Reports"
	file.NewSheet(detailSheet)
	if err := g.writeDetail(file, detailSheet, reports); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, reports []model.ViolationReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Register")
	set("B1", "Validated violation reports")
	set("A2", "Generated")
	set("B2", formatDateTime(time.Now()))
	set("A3", "Total reports")
	set("B3", len(reports))

	typeCounts := map[model.ViolationType]int{}
	typeOrder := []model.ViolationType{}
	for _, report := range reports {
		if _, seen := typeCounts[report.Type]; !seen {
			typeOrder = append(typeOrder, report.Type)
		}
		typeCounts[report.Type]++
	}

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Violation type")
	set(fmt.Sprintf("B%d", tableRow), "Reports")
	for i, violationType := range typeOrder {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), violationType.Label())
		set(fmt.Sprintf("B%d", row), typeCounts[violationType])
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "B", 28)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, reports []model.ViolationReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Reference",
		"Violation type",
		"Vehicle",
		"Location",
		"Occurred",
		"Reporter",
		"Media",
		"Description",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, report := range reports {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), report.Reference)
		set(fmt.Sprintf("B%d", row), report.Type.Label())
		set(fmt.Sprintf("C%d", row), report.VehicleNumber)
		set(fmt.Sprintf("D%d", row), report.Location)
		set(fmt.Sprintf("E%d", row), formatDateTime(report.OccurredAt))
		set(fmt.Sprintf("F%d", row), report.Reporter)
		set(fmt.Sprintf("G%d", row), string(report.MediaType))
		set(fmt.Sprintf("H%d", row), report.Description)
	}

	_ = file.SetColWidth(sheet, "A", "B", 20)
	_ = file.SetColWidth(sheet, "C", "C", 14)
	_ = file.SetColWidth(sheet, "D", "D", 32)
	_ = file.SetColWidth(sheet, "E", "E", 20)
	_ = file.SetColWidth(sheet, "F", "G", 16)
	_ = file.SetColWidth(sheet, "H", "H", 48)
	return nil
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
