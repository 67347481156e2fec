package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pavelanni/texexam/internal/exam"
	appI18n "github.com/pavelanni/texexam/internal/i18n"
	"github.com/pavelanni/texexam/internal/model"
	"github.com/pavelanni/texexam/internal/report"
)

// examSummary is an exam without its questions, safe to show students.
type examSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	TimeLimit    int       `json:"time_limit"`
	Classes      []string  `json:"classes"`
	NumQuestions int       `json:"num_questions"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
}

type examDetail struct {
	examSummary
	Questions []exam.QuestionView `json:"questions"`
}

func summarize(e model.Exam) examSummary {
	classes := e.Classes
	if classes == nil {
		classes = []string{}
	}
	return examSummary{
		ID:           e.ID,
		Name:         e.Name,
		Description:  e.Description,
		TimeLimit:    e.TimeLimit,
		Classes:      classes,
		NumQuestions: len(e.Questions),
		CreatedAt:    e.CreatedAt,
		Active:       e.Active,
	}
}

func summarizeAll(exams []model.Exam) []examSummary {
	out := make([]examSummary, 0, len(exams))
	for _, e := range exams {
		out = append(out, summarize(e))
	}
	return out
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.exams.ListExams(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{
		"exams":   summarizeAll(exams),
		"classes": h.config.Classes,
	})
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "InvalidRequest")
			return
		}
		writeError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	// A malformed time limit becomes 0 and fails validation.
	timeLimit, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("time_limit")))
	var classes []string
	for _, c := range r.MultipartForm.Value["classes"] {
		if c = strings.TrimSpace(c); c != "" {
			classes = append(classes, c)
		}
	}
	in := exam.CreateExamInput{
		Name:        r.FormValue("name"),
		Description: strings.TrimSpace(r.FormValue("description")),
		TimeLimit:   timeLimit,
		Classes:     classes,
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "MarkupFileRequired")
		return
	}
	defer file.Close()
	markup, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	in.Markup = string(markup)

	e, err := h.exams.CreateExam(r.Context(), in)
	if err != nil {
		slog.Warn("exam upload rejected", "file", header.Filename, "error", err)
		writeServiceError(w, r, err)
		return
	}

	msg := appI18n.Td(r.Context(), "ExamCreated", map[string]any{"Name": e.Name}) + " " +
		appI18n.Tp(r.Context(), "QuestionsExtracted", len(e.Questions))
	writeOK(w, r, http.StatusCreated, map[string]any{
		"exam":    summarize(e),
		"message": msg,
	})
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.GetExam(r.Context(), chi.URLParam(r, "examID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, examDetail{
		examSummary: summarize(e),
		Questions:   exam.QuestionViews(e, true),
	})
}

func (h *Handler) handleToggleExam(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.ToggleActive(r.Context(), chi.URLParam(r, "examID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	msgID := "ExamDeactivated"
	if e.Active {
		msgID = "ExamActivated"
	}
	writeOK(w, r, http.StatusOK, map[string]any{
		"exam":    summarize(e),
		"message": appI18n.Td(r.Context(), msgID, map[string]any{"Name": e.Name}),
	})
}

func (h *Handler) examReport(r *http.Request) (model.ExamReport, error) {
	e, err := h.exams.GetExam(r.Context(), chi.URLParam(r, "examID"))
	if err != nil {
		return model.ExamReport{}, err
	}
	results, err := h.exams.ResultsForExam(r.Context(), e.ID)
	if err != nil {
		return model.ExamReport{}, err
	}
	return report.Build(e, results, h.now()), nil
}

func (h *Handler) handleExamResults(w http.ResponseWriter, r *http.Request) {
	rep, err := h.examReport(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, rep)
}

func (h *Handler) handleExportResults(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = report.FormatCSV
	}
	switch format {
	case report.FormatCSV, report.FormatXLSX, report.FormatJSON:
	default:
		writeError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	rep, err := h.examReport(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	contentType, ext := report.ContentType(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="results-%s%s"`, rep.ExamID, ext))
	if err := report.Write(w, rep, format); err != nil {
		slog.Error("failed to write export", "exam_id", rep.ExamID, "format", format, "error", err)
	}
}
