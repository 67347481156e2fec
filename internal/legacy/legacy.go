// Package legacy reads the flat JSON data directory written by the earlier
// exam tool: users.json, exams.json and results.json.
package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/texexam/internal/model"
)

// Data is the converted content of a legacy data directory.
type Data struct {
	Users   []model.User
	Exams   []model.Exam
	Results []model.Result
}

type userRecord struct {
	Password string `json:"password"`
	Name     string `json:"name"`
	Class    string `json:"class"`
}

type examRecord struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	TimeLimit   int              `json:"time_limit"`
	Classes     []string         `json:"classes"`
	Questions   []model.Question `json:"questions"`
	CreatedAt   string           `json:"created_at"`
	Active      bool             `json:"active"`
}

type resultRecord struct {
	ID             string  `json:"id"`
	ExamID         string  `json:"exam_id"`
	ExamName       string  `json:"exam_name"`
	StudentID      string  `json:"student_id"`
	StudentName    string  `json:"student_name"`
	StudentClass   string  `json:"student_class"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Answers        []*int  `json:"answers"`
	Duration       float64 `json:"duration"`
	Timestamp      string  `json:"timestamp"`
}

// Timestamps were written as naive ISO 8601 local times.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Load reads dir and converts its records. Plaintext passwords are hashed
// with cost. The user named "teacher" becomes a teacher; everyone else is a
// student. Missing files are treated as empty.
func Load(dir string, cost int) (Data, error) {
	var (
		data    Data
		users   map[string]userRecord
		exams   []examRecord
		results []resultRecord
	)
	if err := readJSON(filepath.Join(dir, "users.json"), &users); err != nil {
		return data, err
	}
	if err := readJSON(filepath.Join(dir, "exams.json"), &exams); err != nil {
		return data, err
	}
	if err := readJSON(filepath.Join(dir, "results.json"), &results); err != nil {
		return data, err
	}

	for username, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return data, fmt.Errorf("hash password for %s: %w", username, err)
		}
		role := model.UserRoleStudent
		if username == "teacher" {
			role = model.UserRoleTeacher
		}
		name := strings.TrimSpace(u.Name)
		if name == "" {
			name = username
		}
		data.Users = append(data.Users, model.User{
			Username:     username,
			DisplayName:  name,
			Class:        u.Class,
			Role:         role,
			PasswordHash: string(hash),
		})
	}

	for _, e := range exams {
		created, err := parseTime(e.CreatedAt)
		if err != nil {
			return data, fmt.Errorf("exam %s: %w", e.ID, err)
		}
		data.Exams = append(data.Exams, model.Exam{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			TimeLimit:   e.TimeLimit,
			Classes:     e.Classes,
			Questions:   e.Questions,
			CreatedAt:   created,
			Active:      e.Active,
		})
	}

	for _, r := range results {
		ts, err := parseTime(r.Timestamp)
		if err != nil {
			return data, fmt.Errorf("result %s: %w", r.ID, err)
		}
		data.Results = append(data.Results, model.Result{
			ID:             r.ID,
			ExamID:         r.ExamID,
			ExamName:       r.ExamName,
			StudentID:      r.StudentID,
			StudentName:    r.StudentName,
			StudentClass:   r.StudentClass,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			Answers:        r.Answers,
			Duration:       r.Duration,
			Timestamp:      ts,
		})
	}
	return data, nil
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
