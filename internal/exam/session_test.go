package exam

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/texexam/internal/model"
)

var (
	t0      = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	student = model.Identity{UserID: "student", DisplayName: "Học sinh", Class: "12A1"}
)

func startedSession(t *testing.T) *Session {
	t.Helper()
	sess := NewSession(fourQuestionExam(), student)
	if err := sess.Start(t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return sess
}

func TestSessionStart(t *testing.T) {
	sess := NewSession(fourQuestionExam(), student)
	if sess.State() != NotStarted {
		t.Fatalf("state = %v, want not_started", sess.State())
	}
	if err := sess.Record(0, 1); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("Record before start: got %v, want ErrNotInProgress", err)
	}
	if err := sess.Start(t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sess.Start(t0); !errors.Is(err, ErrSessionStarted) {
		t.Errorf("second Start: got %v, want ErrSessionStarted", err)
	}
	for i, a := range sess.Answers() {
		if a != nil {
			t.Errorf("answer %d = %d, want unanswered", i, *a)
		}
	}
	if !sess.StartTime().Equal(t0) {
		t.Errorf("start time = %v, want %v", sess.StartTime(), t0)
	}
}

func TestSessionRecord(t *testing.T) {
	sess := startedSession(t)

	if err := sess.Record(1, 0); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := sess.Record(1, 2); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := sess.Answers()[1]; got == nil || *got != 2 {
		t.Errorf("answer 1 = %v, want 2 after overwrite", got)
	}

	if err := sess.Clear(1); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := sess.Answers()[1]; got != nil {
		t.Errorf("answer 1 = %d, want unanswered after clear", *got)
	}

	for _, i := range []int{-1, 4, 100} {
		if err := sess.Record(i, 0); !errors.Is(err, ErrQuestionIndex) {
			t.Errorf("Record(%d): got %v, want ErrQuestionIndex", i, err)
		}
	}

	// Answers returns a copy.
	sess.Answers()[0] = intPtr(3)
	if sess.Answers()[0] != nil {
		t.Errorf("Answers() exposed internal state")
	}
}

func TestSessionRemainingIsMonotonic(t *testing.T) {
	sess := startedSession(t)

	if got := sess.Remaining(t0); got != time.Minute {
		t.Errorf("Remaining at start = %v, want 1m", got)
	}
	prev := sess.Remaining(t0)
	for s := 1; s <= 90; s += 7 {
		now := t0.Add(time.Duration(s) * time.Second)
		got := sess.Remaining(now)
		if got > prev {
			t.Fatalf("Remaining increased at %ds: %v > %v", s, got, prev)
		}
		if got < 0 {
			t.Fatalf("Remaining negative at %ds: %v", s, got)
		}
		prev = got
	}
	if got := sess.Remaining(t0.Add(2 * time.Minute)); got != 0 {
		t.Errorf("Remaining after deadline = %v, want 0", got)
	}
	if !sess.Expired(t0.Add(time.Minute)) {
		t.Errorf("expected session expired exactly at deadline")
	}
	if sess.Expired(t0.Add(59 * time.Second)) {
		t.Errorf("session expired early")
	}
}

func TestSubmitScoresAndRecords(t *testing.T) {
	svc, repo := newTestService(t)
	sess := startedSession(t)
	ctx := context.Background()

	for i, opt := range []int{0, 1, 3} {
		if err := sess.Record(i, opt); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	r, err := svc.Submit(ctx, sess, t0.Add(30*time.Second))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Score != 2 || r.TotalQuestions != 4 {
		t.Errorf("score = %d/%d, want 2/4", r.Score, r.TotalQuestions)
	}
	if r.Duration != 30 {
		t.Errorf("duration = %v, want 30", r.Duration)
	}
	if r.StudentID != "student" || r.StudentClass != "12A1" || r.ExamID != "exam-1" || r.ExamName != "Algebra" {
		t.Errorf("unexpected identity snapshot: %+v", r)
	}
	if len(r.Answers) != 4 || r.Answers[3] != nil || *r.Answers[2] != 3 {
		t.Errorf("unexpected answers snapshot: %v", r.Answers)
	}
	if sess.State() != Submitted {
		t.Errorf("state = %v, want submitted", sess.State())
	}
	if len(repo.results) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(repo.results))
	}

	if err := sess.Record(0, 1); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("Record after submit: got %v, want ErrNotInProgress", err)
	}
	if _, err := svc.Submit(ctx, sess, t0.Add(31*time.Second)); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second Submit: got %v, want ErrAlreadySubmitted", err)
	}
	if len(repo.results) != 1 {
		t.Errorf("second submit stored another result")
	}

	got, ok := sess.Result()
	if !ok || got.ID != r.ID {
		t.Errorf("Result() = %+v, %v", got, ok)
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	svc, _ := newTestService(t)
	sess := NewSession(fourQuestionExam(), student)
	if _, err := svc.Submit(context.Background(), sess, t0); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("Submit before start: got %v, want ErrNotInProgress", err)
	}
}

func TestObserveAutoSubmits(t *testing.T) {
	svc, repo := newTestService(t)
	sess := startedSession(t)
	ctx := context.Background()

	v, err := svc.Observe(ctx, sess, t0.Add(59*time.Second))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if v.State != "in_progress" || v.RemainingSeconds != 1 {
		t.Errorf("view = %s/%d, want in_progress/1", v.State, v.RemainingSeconds)
	}
	if v.Questions[0].CorrectAnswer != nil || v.Questions[0].Solution != "" {
		t.Errorf("answer key leaked while in progress")
	}

	v, err = svc.Observe(ctx, sess, t0.Add(61*time.Second))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if v.State != "submitted" || v.RemainingSeconds != 0 {
		t.Errorf("view = %s/%d, want submitted/0", v.State, v.RemainingSeconds)
	}
	if v.Result == nil || v.Result.Duration != 61 {
		t.Fatalf("expected result with duration 61, got %+v", v.Result)
	}
	if v.Questions[0].CorrectAnswer == nil {
		t.Errorf("answer key hidden after submission")
	}

	// A later manual submit must not grade again.
	if _, err := svc.Submit(ctx, sess, t0.Add(62*time.Second)); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("Submit after timeout: got %v, want ErrAlreadySubmitted", err)
	}
	if _, err := svc.Observe(ctx, sess, t0.Add(90*time.Second)); err != nil {
		t.Errorf("Observe after submit: %v", err)
	}
	if len(repo.results) != 1 {
		t.Errorf("expected exactly 1 result, got %d", len(repo.results))
	}
}

func TestAnswerAfterDeadlineSubmits(t *testing.T) {
	svc, repo := newTestService(t)
	sess := startedSession(t)
	ctx := context.Background()

	if err := svc.Answer(ctx, sess, 0, intPtr(0), t0.Add(10*time.Second)); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	err := svc.Answer(ctx, sess, 1, intPtr(1), t0.Add(2*time.Minute))
	if !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("Answer after deadline: got %v, want ErrNotInProgress", err)
	}
	if len(repo.results) != 1 || repo.results[0].Score != 1 {
		t.Errorf("expected auto-submitted result with score 1, got %+v", repo.results)
	}
}

func TestConcurrentSubmitRecordsOnce(t *testing.T) {
	svc, repo := newTestService(t)
	svc.newID = func() string { return "r" }
	sess := startedSession(t)
	ctx := context.Background()
	late := t0.Add(5 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Submit(ctx, sess, late)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.Observe(ctx, sess, late)
		}()
	}
	wg.Wait()

	if len(repo.results) != 1 {
		t.Errorf("expected exactly 1 result, got %d", len(repo.results))
	}
}

func TestSubmitStoreFailureKeepsSession(t *testing.T) {
	svc, repo := newTestService(t)
	repo.appendErr = errors.New("disk full")
	sess := startedSession(t)

	_, err := svc.Submit(context.Background(), sess, t0.Add(time.Second))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Submit error = %v, want ErrStoreUnavailable", err)
	}
	if sess.State() != InProgress {
		t.Errorf("state = %v, want in_progress after failed submit", sess.State())
	}
	if _, ok := sess.Result(); ok {
		t.Errorf("result recorded despite store failure")
	}

	repo.appendErr = nil
	if _, err := svc.Submit(context.Background(), sess, t0.Add(2*time.Second)); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if len(repo.results) != 1 {
		t.Errorf("expected 1 result after retry, got %d", len(repo.results))
	}
}

func TestSubmitDropsInvalidOptions(t *testing.T) {
	svc, _ := newTestService(t)
	sess := startedSession(t)
	if err := sess.Record(0, 7); err != nil {
		t.Fatalf("Record: %v", err)
	}
	r, err := svc.Submit(context.Background(), sess, t0.Add(time.Second))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Answers[0] != nil {
		t.Errorf("out-of-range option stored as %d, want unanswered", *r.Answers[0])
	}
}
