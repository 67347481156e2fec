package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/texexam/internal/exam"
	"github.com/pavelanni/texexam/internal/model"
)

var _ exam.Repository = (*Store)(nil)

// ListExams returns all exams in creation order.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	exams := []model.Exam{}
	if err := load(ctx, s.db, collExams, &exams); err != nil {
		return nil, err
	}
	return exams, nil
}

// SaveExam appends an exam to the catalog. IDs are never reused.
func (s *Store) SaveExam(ctx context.Context, e model.Exam) error {
	var exams []model.Exam
	return s.update(ctx, collExams, &exams, func() error {
		for _, existing := range exams {
			if existing.ID == e.ID {
				return fmt.Errorf("exam id %s already exists", e.ID)
			}
		}
		exams = append(exams, e)
		return nil
	})
}

// ToggleActive flips the active flag on an exam.
func (s *Store) ToggleActive(ctx context.Context, examID string) (model.Exam, error) {
	var (
		exams   []model.Exam
		toggled model.Exam
	)
	err := s.update(ctx, collExams, &exams, func() error {
		for i := range exams {
			if exams[i].ID == examID {
				exams[i].Active = !exams[i].Active
				toggled = exams[i]
				return nil
			}
		}
		return exam.ErrExamNotFound
	})
	if err != nil {
		return model.Exam{}, err
	}
	return toggled, nil
}

// ListResults returns all results in submission order.
func (s *Store) ListResults(ctx context.Context) ([]model.Result, error) {
	results := []model.Result{}
	if err := load(ctx, s.db, collResults, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// AppendResult adds a result. Results are never updated or removed.
func (s *Store) AppendResult(ctx context.Context, r model.Result) error {
	var results []model.Result
	err := s.update(ctx, collResults, &results, func() error {
		results = append(results, r)
		return nil
	})
	if err != nil {
		slog.Error("failed to append result", "exam_id", r.ExamID, "student", r.StudentID, "error", err)
		return err
	}
	return nil
}

// ReplaceAll overwrites the users, exams and results collections in one
// transaction.
func (s *Store) ReplaceAll(ctx context.Context, users []model.User, exams []model.Exam, results []model.Result) error {
	byName := make(map[string]model.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	if results == nil {
		results = []model.Result{}
	}
	return s.replace(ctx,
		document{collUsers, byName},
		document{collExams, exams},
		document{collResults, results},
	)
}
