package exam

import (
	"time"

	"github.com/pavelanni/texexam/internal/model"
)

// View is what a student sees at one observation of a session. Correct
// answers and solutions are only included once the session is submitted.
type View struct {
	ExamID           string         `json:"exam_id"`
	ExamName         string         `json:"exam_name"`
	Description      string         `json:"description"`
	TimeLimit        int            `json:"time_limit"`
	State            string         `json:"state"`
	StartedAt        time.Time      `json:"started_at"`
	RemainingSeconds int64          `json:"remaining_seconds"`
	Questions        []QuestionView `json:"questions"`
	Answers          []*int         `json:"answers"`
	Result           *model.Result  `json:"result,omitempty"`
}

// QuestionView is a question as presented during or after an attempt.
type QuestionView struct {
	Number        int          `json:"number"`
	Stem          string       `json:"stem"`
	Options       []OptionView `json:"options"`
	CorrectAnswer *int         `json:"correct_answer,omitempty"`
	Solution      string       `json:"solution,omitempty"`
}

// OptionView is one lettered option.
type OptionView struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// View returns the session as observed at now. It does not submit.
func (s *Session) View(now time.Time) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(now)
}

func (s *Session) viewLocked(now time.Time) View {
	reveal := s.state == Submitted
	v := View{
		ExamID:           s.exam.ID,
		ExamName:         s.exam.Name,
		Description:      s.exam.Description,
		TimeLimit:        s.exam.TimeLimit,
		State:            s.state.String(),
		StartedAt:        s.start,
		RemainingSeconds: int64(s.remainingLocked(now) / time.Second),
		Questions:        QuestionViews(s.exam, reveal),
		Answers:          copyAnswers(s.answers),
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	return v
}

// QuestionViews renders the exam's questions. With reveal set, correct
// answers and solutions are included.
func QuestionViews(e model.Exam, reveal bool) []QuestionView {
	out := make([]QuestionView, 0, len(e.Questions))
	for i, q := range e.Questions {
		qv := QuestionView{
			Number:  i + 1,
			Stem:    q.Stem,
			Options: make([]OptionView, 0, len(q.Options)),
		}
		for j, opt := range q.Options {
			qv.Options = append(qv.Options, OptionView{Letter: model.Letter(j), Text: opt})
		}
		if reveal {
			qv.CorrectAnswer = q.CorrectAnswer
			qv.Solution = q.Solution
		}
		out = append(out, qv)
	}
	return out
}
