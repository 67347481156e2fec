package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pavelanni/texexam/internal/model"
	"github.com/pavelanni/texexam/internal/texparse"
)

// Service creates exams and drives sessions against a Repository.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// NewService creates a new Service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateExamInput is what an instructor submits to create an exam.
type CreateExamInput struct {
	Name        string   `validate:"required"`
	Description string   `validate:"-"`
	TimeLimit   int      `validate:"gt=0"`
	Classes     []string `validate:"dive,required"`
	Markup      string   `validate:"-"`
}

// CreateExam validates the input, extracts questions from the markup and
// appends the new exam to the catalog. No exam is stored when validation
// fails or no question is found.
func (s *Service) CreateExam(ctx context.Context, in CreateExamInput) (model.Exam, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return model.Exam{}, validationError(err)
	}

	questions := texparse.Extract(in.Markup)
	if len(questions) == 0 {
		return model.Exam{}, ErrExtractionEmpty
	}

	classes := make([]string, 0, len(in.Classes))
	for _, c := range in.Classes {
		classes = append(classes, strings.TrimSpace(c))
	}

	e := model.Exam{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		TimeLimit:   in.TimeLimit,
		Classes:     classes,
		Questions:   questions,
		CreatedAt:   s.now(),
		Active:      true,
	}
	if err := s.repo.SaveExam(ctx, e); err != nil {
		return model.Exam{}, unavailable("save exam", err)
	}
	slog.Info("created exam", "id", e.ID, "name", e.Name, "questions", len(questions))
	return e, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}

// ListExams returns the whole catalog in creation order.
func (s *Service) ListExams(ctx context.Context) ([]model.Exam, error) {
	exams, err := s.repo.ListExams(ctx)
	if err != nil {
		return nil, unavailable("list exams", err)
	}
	return exams, nil
}

// GetExam returns one exam by ID.
func (s *Service) GetExam(ctx context.Context, examID string) (model.Exam, error) {
	exams, err := s.ListExams(ctx)
	if err != nil {
		return model.Exam{}, err
	}
	for _, e := range exams {
		if e.ID == examID {
			return e, nil
		}
	}
	return model.Exam{}, ErrExamNotFound
}

// ToggleActive flips an exam's visibility to students.
func (s *Service) ToggleActive(ctx context.Context, examID string) (model.Exam, error) {
	e, err := s.repo.ToggleActive(ctx, examID)
	if err != nil {
		return model.Exam{}, unavailable("toggle exam", err)
	}
	slog.Info("toggled exam", "id", e.ID, "active", e.Active)
	return e, nil
}

// EligibleExams returns the active exams open to class.
func (s *Service) EligibleExams(ctx context.Context, class string) ([]model.Exam, error) {
	exams, err := s.ListExams(ctx)
	if err != nil {
		return nil, err
	}
	return Eligible(exams, class), nil
}

// StartSession begins a new attempt for student at now.
func (s *Service) StartSession(ctx context.Context, examID string, student model.Identity, now time.Time) (*Session, error) {
	e, err := s.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !e.EligibleFor(student.Class) {
		return nil, ErrNotEligible
	}
	sess := NewSession(e, student)
	if err := sess.Start(now); err != nil {
		return nil, err
	}
	slog.Info("started session", "exam_id", e.ID, "student", student.UserID)
	return sess, nil
}

// Submit grades the session and appends its result. A session can be
// submitted once; a store failure leaves it in progress.
func (s *Service) Submit(ctx context.Context, sess *Session, now time.Time) (model.Result, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch sess.state {
	case NotStarted:
		return model.Result{}, ErrNotInProgress
	case Submitted:
		return model.Result{}, ErrAlreadySubmitted
	}
	return s.submitLocked(ctx, sess, now, "manual")
}

// Observe returns the session view at now, submitting it first when the
// deadline has passed.
func (s *Service) Observe(ctx context.Context, sess *Session, now time.Time) (View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.expireLocked(ctx, sess, now); err != nil {
		return View{}, err
	}
	return sess.viewLocked(now), nil
}

// Answer records option for question i at now. An expired session is
// submitted instead and ErrNotInProgress is returned.
func (s *Service) Answer(ctx context.Context, sess *Session, i int, option *int, now time.Time) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.expireLocked(ctx, sess, now); err != nil {
		return err
	}
	return sess.setLocked(i, option)
}

func (s *Service) expireLocked(ctx context.Context, sess *Session, now time.Time) error {
	if sess.state != InProgress || sess.remainingLocked(now) > 0 {
		return nil
	}
	_, err := s.submitLocked(ctx, sess, now, "timeout")
	return err
}

func (s *Service) submitLocked(ctx context.Context, sess *Session, now time.Time, trigger string) (model.Result, error) {
	for i, a := range sess.answers {
		if a != nil && !sess.exam.Questions[i].HasOption(*a) {
			slog.Warn("answer treated as unanswered", "exam_id", sess.exam.ID, "question", i, "option", *a, "error", ErrInvalidAnswerIndex)
		}
	}

	r := sess.buildResult(now, s.newID())
	if err := s.repo.AppendResult(ctx, r); err != nil {
		return model.Result{}, unavailable("append result", err)
	}
	sess.state = Submitted
	sess.result = &r
	slog.Info("submitted session",
		"exam_id", r.ExamID,
		"student", r.StudentID,
		"score", r.Score,
		"total", r.TotalQuestions,
		"trigger", trigger,
	)
	return r, nil
}

// ResultsForExam returns the results recorded for one exam in submission order.
func (s *Service) ResultsForExam(ctx context.Context, examID string) ([]model.Result, error) {
	all, err := s.repo.ListResults(ctx)
	if err != nil {
		return nil, unavailable("list results", err)
	}
	out := []model.Result{}
	for _, r := range all {
		if r.ExamID == examID {
			out = append(out, r)
		}
	}
	return out, nil
}
