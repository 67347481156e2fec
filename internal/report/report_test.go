package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pavelanni/texexam/internal/model"
	"github.com/xuri/excelize/v2"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{2, 3, 200.0 / 3},
		{0, 0, 0},
		{5, 0, 0},
		{4, 4, 100},
		{0, 10, 0},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{61.9, "01:01"},
		{3600, "60:00"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func testReport() model.ExamReport {
	e := model.Exam{ID: "e1", Name: "Algebra", Questions: make([]model.Question, 3)}
	ts := time.Date(2026, 3, 5, 14, 7, 0, 0, time.UTC)
	results := []model.Result{
		{ExamID: "e1", StudentName: "Nguyễn An", StudentClass: "12A1", Score: 2, TotalQuestions: 3, Duration: 125, Timestamp: ts},
		{ExamID: "other", StudentName: "Skip", Score: 1, TotalQuestions: 1},
		{ExamID: "e1", StudentName: "Trần Bình", StudentClass: "12A2", Score: 0, TotalQuestions: 0, Duration: 9, Timestamp: ts.Add(time.Hour)},
	}
	return Build(e, results, ts.Add(2*time.Hour))
}

func TestBuild(t *testing.T) {
	rep := testReport()
	if rep.ExamName != "Algebra" || rep.NumQuestions != 3 {
		t.Errorf("unexpected header: %+v", rep)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rep.Rows))
	}
	first := rep.Rows[0]
	if first.Score != "2/3" || first.Percentage != "66.7%" || first.Duration != "02:05" || first.Date != "05/03/2026 14:07" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if rep.Rows[1].Percentage != "0.0%" {
		t.Errorf("zero-question percentage = %q, want 0.0%%", rep.Rows[1].Percentage)
	}

	empty := Build(model.Exam{ID: "none"}, nil, time.Now())
	if empty.Rows == nil || len(empty.Rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %v", empty.Rows)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testReport()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	body := strings.TrimPrefix(buf.String(), "\ufeff")
	if len(body) == buf.Len() {
		t.Errorf("expected UTF-8 BOM")
	}
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "Student" || records[1][0] != "Nguyễn An" || records[1][2] != "2/3" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, testReport()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetList()[0])
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][3] != "Percentage" || rows[2][0] != "Trần Bình" || rows[2][4] != "00:09" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testReport(), FormatJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var got struct {
		ExamID  string `json:"exam_id"`
		Results []struct {
			StudentName string `json:"student_name"`
			Score       string `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ExamID != "e1" || len(got.Results) != 2 || got.Results[0].Score != "2/3" {
		t.Errorf("unexpected json: %+v", got)
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, testReport(), "pdf"); err == nil {
		t.Errorf("expected error for unsupported format")
	}
}
