// ABOUTME: Spreadsheet export of a distribution result
// ABOUTME: Writes Summary, Databases, and Disks worksheets with excelize

package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/sqlnova/migration-planner/models"
	"github.com/xuri/excelize/v2"
)

// Worksheet names of the export
const (
	SheetSummary   = "Summary"
	SheetDatabases = "Databases"
	SheetDisks     = "Disks"
)

// XLSXContentType is the MIME type of the export
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportFileName returns the download name for a result
func ExportFileName(result models.DistributionResult) string {
	id := result.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("sqlnova-plan-%s-%s.xlsx", result.GeneratedAt.Format("20060102"), id)
}

// ExportXLSX writes the result as an xlsx workbook
func ExportXLSX(result models.DistributionResult, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{SheetDatabases, SheetDisks} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	if err := writeSummarySheet(f, result, header); err != nil {
		return err
	}
	if err := writeDatabasesSheet(f, result, header); err != nil {
		return err
	}
	if err := writeDisksSheet(f, result, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result models.DistributionResult, header int) error {
	s := result.Summary
	overview := [][]interface{}{
		{"Result ID", result.ID},
		{"Generated at", result.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Usable GB per disk", result.DiskUsableGB},
		{"Instances", s.InstanceCount},
		{"New instances", s.NewInstanceCount},
		{"Existing instances", s.ExistingInstanceCount},
		{"Databases", s.DatabaseCount},
		{"Total data GB", round1(s.TotalDataGB)},
		{"Total log GB", round1(s.TotalLogGB)},
		{"New data disks", s.NewDataDiskCount},
		{"OK", s.OKCount},
		{"Warning", s.WarningCount},
		{"Critical", s.CriticalCount},
	}

	row := 1
	for _, values := range overview {
		if err := setRow(f, SheetSummary, row, values); err != nil {
			return err
		}
		row++
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", row-1), header); err != nil {
		return err
	}

	row++
	tableStart := row
	if err := setRow(f, SheetSummary, row, []interface{}{
		"Instance", "Type", "Databases", "Data GB", "New data GB", "Log GB", "Data disks", "New disks", "Status", "Alerts",
	}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), header); err != nil {
		return err
	}

	for _, inst := range result.Instances {
		row++
		alerts := make([]string, 0, len(inst.Alerts))
		for _, a := range inst.Alerts {
			alerts = append(alerts, a.Message)
		}
		if err := setRow(f, SheetSummary, row, []interface{}{
			inst.Name,
			instanceType(inst),
			len(inst.Databases),
			round1(inst.TotalDataGB),
			round1(inst.NewDataGB()),
			round1(inst.TotalLogGB),
			len(inst.DataDisks),
			inst.NewDiskCount(),
			strings.ToUpper(inst.Status),
			strings.Join(alerts, "; "),
		}); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetSummary, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "B", "I", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "J", "J", 60); err != nil {
		return err
	}
	if len(result.Instances) > 0 {
		return f.AutoFilter(SheetSummary, fmt.Sprintf("A%d:J%d", tableStart, row), nil)
	}
	return nil
}

func writeDatabasesSheet(f *excelize.File, result models.DistributionResult, header int) error {
	if err := setRow(f, SheetDatabases, 1, []interface{}{
		"Instance", "Source instance", "Database", "Data GB", "Log GB", "Target disk", "Log disk",
	}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetDatabases, "A1", "G1", header); err != nil {
		return err
	}

	row := 1
	for _, inst := range result.Instances {
		for _, p := range inst.Placements {
			row++
			if err := setRow(f, SheetDatabases, row, []interface{}{
				inst.Name, p.SourceInstance, p.DatabaseName, round1(p.DataGB), round1(p.LogGB),
				p.TargetDisk + ":", p.LogDisk + ":",
			}); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetDatabases, "A", "C", 24); err != nil {
		return err
	}
	return freezeHeader(f, SheetDatabases)
}

func writeDisksSheet(f *excelize.File, result models.DistributionResult, header int) error {
	if err := setRow(f, SheetDisks, 1, []interface{}{
		"Instance", "Disk", "Role", "Used GB", "Pre-existing GB", "New GB", "Usage %", "Existing disk",
	}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetDisks, "A1", "H1", header); err != nil {
		return err
	}

	row := 1
	for _, inst := range result.Instances {
		disks := append([]models.DiskInfo{}, inst.DataDisks...)
		disks = append(disks, inst.LogDisk)
		for i, d := range disks {
			role := "data"
			if i == len(disks)-1 {
				role = "log"
			}
			row++
			if err := setRow(f, SheetDisks, row, []interface{}{
				inst.Name, d.Letter + ":", role, round1(d.UsedGB), round1(d.PreExistingGB), round1(d.NewGB),
				round1(d.UsagePct(result.DiskUsableGB)), yesNo(d.IsExistingDisk),
			}); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetDisks, "A", "A", 24); err != nil {
		return err
	}
	return freezeHeader(f, SheetDisks)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func instanceType(inst models.SuggestedInstance) string {
	if inst.IsExisting {
		return "Existing"
	}
	return "New"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
