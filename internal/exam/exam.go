// Package exam holds the exam catalog contract, the timed session state
// machine and deterministic scoring.
package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/pavelanni/texexam/internal/model"
)

var (
	ErrExtractionEmpty    = errors.New("no questions found in markup")
	ErrValidation         = errors.New("invalid exam input")
	ErrInvalidAnswerIndex = errors.New("answer index out of range")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrExamNotFound       = errors.New("exam not found")
	ErrNotEligible        = errors.New("exam not available for this class")
	ErrSessionStarted     = errors.New("session already started")
	ErrNotInProgress      = errors.New("session is not in progress")
	ErrAlreadySubmitted   = errors.New("session already submitted")
	ErrQuestionIndex      = errors.New("question index out of range")
)

// Repository is the persistence contract the engine needs. Implementations
// read and write whole collections and must not lose concurrent updates.
type Repository interface {
	// ListExams returns exams in creation order.
	ListExams(ctx context.Context) ([]model.Exam, error)
	// SaveExam appends an exam to the catalog.
	SaveExam(ctx context.Context, e model.Exam) error
	// ToggleActive flips the active flag and returns the updated exam.
	ToggleActive(ctx context.Context, examID string) (model.Exam, error)
	ListResults(ctx context.Context) ([]model.Result, error)
	AppendResult(ctx context.Context, r model.Result) error
}

// Eligible filters exams visible to students of class.
func Eligible(exams []model.Exam, class string) []model.Exam {
	out := []model.Exam{}
	for _, e := range exams {
		if e.EligibleFor(class) {
			out = append(out, e)
		}
	}
	return out
}

// Score counts the questions whose answer equals the marked option.
// Unanswered slots and unmarked questions never score.
func Score(e model.Exam, answers []*int) int {
	score := 0
	for i, q := range e.Questions {
		if i >= len(answers) {
			break
		}
		if q.IsCorrect(answers[i]) {
			score++
		}
	}
	return score
}

// normalizeAnswers returns a copy of answers sized to the exam where any
// option index the question cannot hold is treated as unanswered.
func normalizeAnswers(e model.Exam, answers []*int) []*int {
	out := make([]*int, len(e.Questions))
	for i, q := range e.Questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		v := *answers[i]
		if !q.HasOption(v) {
			continue
		}
		out[i] = &v
	}
	return out
}

func unavailable(op string, err error) error {
	if errors.Is(err, ErrExamNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
