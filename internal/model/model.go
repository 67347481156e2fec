package model

import (
	"context"
	"slices"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User is an entry of the users collection, keyed by username.
type User struct {
	Username     string   `json:"-"`
	DisplayName  string   `json:"name"`
	Class        string   `json:"class,omitempty"`
	Role         UserRole `json:"role"`
	PasswordHash string   `json:"password_hash"`
}

// Identity returns the identity used to stamp results.
func (u User) Identity() Identity {
	return Identity{UserID: u.Username, DisplayName: u.DisplayName, Class: u.Class}
}

// Identity is who is taking an exam. The session treats it as opaque input.
type Identity struct {
	UserID      string
	DisplayName string
	Class       string
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Question is one multiple-choice item extracted from markup.
type Question struct {
	Stem          string   `json:"stem"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
	Solution      string   `json:"solution"`
}

// IsCorrect reports whether answer selects the marked option.
// A question without a marked option never matches.
func (q Question) IsCorrect(answer *int) bool {
	return answer != nil && q.CorrectAnswer != nil && *answer == *q.CorrectAnswer
}

// HasOption reports whether i is a valid option index.
func (q Question) HasOption(i int) bool {
	return i >= 0 && i < len(q.Options)
}

// Letter returns the answer letter for option index i (0 -> "A").
func Letter(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

// Exam is a catalog entry. Only Active changes after creation.
type Exam struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TimeLimit   int        `json:"time_limit"`
	Classes     []string   `json:"classes"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
	Active      bool       `json:"active"`
}

// TimeLimitDuration returns the time limit as a duration.
func (e Exam) TimeLimitDuration() time.Duration {
	return time.Duration(e.TimeLimit) * time.Minute
}

// EligibleFor reports whether students of class may see the exam.
// An empty class list admits every class.
func (e Exam) EligibleFor(class string) bool {
	if !e.Active {
		return false
	}
	return len(e.Classes) == 0 || slices.Contains(e.Classes, class)
}

// Result is the record of one submitted attempt. Never mutated.
type Result struct {
	ID             string    `json:"id"`
	ExamID         string    `json:"exam_id"`
	ExamName       string    `json:"exam_name"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name"`
	StudentClass   string    `json:"student_class"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Answers        []*int    `json:"answers"`
	Duration       float64   `json:"duration"`
	Timestamp      time.Time `json:"timestamp"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string   // URL prefix for sub-path deployments
	SecureCookies bool     // Set Secure flag on cookies (disable for local dev)
	Classes       []string // class labels offered to instructors
	MaxUploadMB   int
}
