package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/session"
)

const noMajorIssues = "No major issues"

// reportRows lays out a student report: key/value pairs, a blank row, then
// one row per reason under a heading.
func reportRows(info model.StudentInfo) [][]string {
	rows := [][]string{
		{"Key", "Value"},
		{"Student ID", info.StudentID},
		{"Attendance", formatFloat(info.AttendancePercentage)},
		{"Avg Score", formatFloat(info.AvgTestScore)},
		{"Fee Status", string(info.FeeStatus)},
		{"Risk Level", string(info.RiskLevel)},
		{},
		{"Reasons for Risk"},
	}
	if len(info.Reasons) == 0 {
		return append(rows, []string{"", noMajorIssues})
	}
	for _, r := range info.Reasons {
		rows = append(rows, []string{"", r})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Controller) exportable() (model.StudentInfo, error) {
	if !c.sess.Can(session.ExportRecord) {
		return model.StudentInfo{}, notPermitted("export records")
	}
	sel := c.Selected()
	if sel == nil {
		return model.StudentInfo{}, ErrNothingSelected
	}
	return sel.Info, nil
}

// ExportSelected writes the selected student's report as CSV.
func (c *Controller) ExportSelected(w io.Writer) error {
	info, err := c.exportable()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(reportRows(info)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ExportSelectedXLSX writes the same report as a one-sheet workbook.
func (c *Controller) ExportSelectedXLSX(w io.Writer) error {
	info, err := c.exportable()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, row := range reportRows(info) {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReportFilename names the export for the selected student, or "" with
// nothing selected.
func (c *Controller) ReportFilename() string {
	sel := c.Selected()
	if sel == nil {
		return ""
	}
	return fmt.Sprintf("student_%s_report.csv", sel.Info.StudentID)
}
