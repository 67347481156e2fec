package exam

import (
	"sync"
	"time"

	"github.com/pavelanni/texexam/internal/model"
)

// State is the lifecycle position of a session.
type State int

const (
	NotStarted State = iota
	InProgress
	Submitted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Session is one student's attempt at an exam. It lives in memory until it
// is submitted; only the Result it produces is persisted.
//
// Remaining time is derived from the start time on every call, so a session
// has no timers and expires only when it is observed.
type Session struct {
	mu      sync.Mutex
	exam    model.Exam
	student model.Identity
	state   State
	start   time.Time
	answers []*int
	result  *model.Result
}

// NewSession returns a session in the NotStarted state.
func NewSession(e model.Exam, student model.Identity) *Session {
	return &Session{exam: e, student: student}
}

// Start records the start time and clears all answers.
func (s *Session) Start(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != NotStarted {
		return ErrSessionStarted
	}
	s.start = now
	s.answers = make([]*int, len(s.exam.Questions))
	s.state = InProgress
	return nil
}

// Record sets the answer for question i, replacing any earlier choice.
// The option is not checked against the question's options here.
func (s *Session) Record(i, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(i, &option)
}

// Clear marks question i as unanswered.
func (s *Session) Clear(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(i, nil)
}

func (s *Session) setLocked(i int, option *int) error {
	if s.state != InProgress {
		return ErrNotInProgress
	}
	if i < 0 || i >= len(s.answers) {
		return ErrQuestionIndex
	}
	s.answers[i] = option
	return nil
}

// Remaining returns max(0, limit - (now - start)). Before Start it returns
// the full limit.
func (s *Session) Remaining(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked(now)
}

func (s *Session) remainingLocked(now time.Time) time.Duration {
	limit := s.exam.TimeLimitDuration()
	if s.state == NotStarted {
		return limit
	}
	return max(0, limit-now.Sub(s.start))
}

// Expired reports whether the session is in progress past its deadline.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == InProgress && s.remainingLocked(now) == 0
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Exam() model.Exam { return s.exam }

func (s *Session) Student() model.Identity { return s.student }

func (s *Session) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start
}

// Answers returns a copy of the current answers.
func (s *Session) Answers() []*int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAnswers(s.answers)
}

// Result returns the submitted result, if any.
func (s *Session) Result() (model.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return model.Result{}, false
	}
	return *s.result, true
}

// buildResult snapshots the session into a Result stamped at now.
func (s *Session) buildResult(now time.Time, id string) model.Result {
	answers := normalizeAnswers(s.exam, s.answers)
	return model.Result{
		ID:             id,
		ExamID:         s.exam.ID,
		ExamName:       s.exam.Name,
		StudentID:      s.student.UserID,
		StudentName:    s.student.DisplayName,
		StudentClass:   s.student.Class,
		Score:          Score(s.exam, answers),
		TotalQuestions: len(s.exam.Questions),
		Answers:        answers,
		Duration:       now.Sub(s.start).Seconds(),
		Timestamp:      now,
	}
}

func copyAnswers(in []*int) []*int {
	out := make([]*int, len(in))
	for i, a := range in {
		if a != nil {
			v := *a
			out[i] = &v
		}
	}
	return out
}
