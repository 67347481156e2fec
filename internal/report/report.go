// Package report turns stored results into per-exam tables and writes them
// as CSV, XLSX or JSON.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pavelanni/texexam/internal/model"
	"github.com/xuri/excelize/v2"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

var headers = []string{"Student", "Class", "Score", "Percentage", "Duration", "Date"}

// Percentage returns score as a percentage of total, or 0 when total is 0.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// FormatDuration renders whole seconds as MM:SS. Minutes are not capped.
func FormatDuration(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// Build collects the rows for one exam in submission order.
func Build(e model.Exam, results []model.Result, now time.Time) model.ExamReport {
	rep := model.ExamReport{
		ExamID:       e.ID,
		ExamName:     e.Name,
		NumQuestions: len(e.Questions),
		GeneratedAt:  now,
		Rows:         []model.ReportRow{},
	}
	for _, r := range results {
		if r.ExamID != e.ID {
			continue
		}
		rep.Rows = append(rep.Rows, model.ReportRow{
			StudentName:  r.StudentName,
			StudentClass: r.StudentClass,
			Score:        fmt.Sprintf("%d/%d", r.Score, r.TotalQuestions),
			Percentage:   fmt.Sprintf("%.1f%%", Percentage(r.Score, r.TotalQuestions)),
			Duration:     FormatDuration(r.Duration),
			Date:         r.Timestamp.Format("02/01/2006 15:04"),
			SubmittedAt:  r.Timestamp,
		})
	}
	return rep
}

func rowValues(r model.ReportRow) []string {
	return []string{r.StudentName, r.StudentClass, r.Score, r.Percentage, r.Duration, r.Date}
}

// Write encodes rep in the given format.
func Write(w io.Writer, rep model.ExamReport, format string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rep)
	case FormatXLSX:
		return WriteXLSX(w, rep)
	case FormatJSON:
		return WriteJSON(w, rep)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// ContentType returns the MIME type and file extension for a format.
func ContentType(format string) (string, string) {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8", ".csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"
	default:
		return "application/json", ".json"
	}
}

// WriteCSV writes a header row followed by one row per result. A UTF-8 BOM
// is written first so spreadsheet tools detect the encoding of Vietnamese
// names.
func WriteCSV(w io.Writer, rep model.ExamReport) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, r := range rep.Rows {
		if err := cw.Write(rowValues(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the report as a single-sheet workbook.
func WriteXLSX(w io.Writer, rep model.ExamReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, r := range rep.Rows {
		for col, v := range rowValues(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "F", 14)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("write excel: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, rep model.ExamReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
