package model

import "time"

// ExamReport is the top-level JSON structure for exam result export.
type ExamReport struct {
	ExamID       string      `json:"exam_id"`
	ExamName     string      `json:"exam_name"`
	NumQuestions int         `json:"num_questions"`
	GeneratedAt  time.Time   `json:"generated_at"`
	Rows         []ReportRow `json:"results"`
}

// ReportRow holds one submitted attempt formatted for display.
type ReportRow struct {
	StudentName  string    `json:"student_name"`
	StudentClass string    `json:"student_class"`
	Score        string    `json:"score"`      // "score/total"
	Percentage   string    `json:"percentage"` // one decimal, e.g. "66.7%"
	Duration     string    `json:"duration"`   // MM:SS
	Date         string    `json:"date"`       // DD/MM/YYYY HH:MM
	SubmittedAt  time.Time `json:"submitted_at"`
}
