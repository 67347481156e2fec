package handler

import (
	"sync"

	"github.com/pavelanni/texexam/internal/exam"
)

// sessionRegistry holds the current attempt of each student, at most one per
// student. Sessions live only in memory; an attempt that is never submitted
// leaves no trace. A submitted attempt stays readable until the student
// discards it or asks to start another exam.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*exam.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*exam.Session)}
}

func (r *sessionRegistry) get(userID string) (*exam.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// putIfIdle stores sess unless the user already has an attempt in progress.
func (r *sessionRegistry) putIfIdle(userID string, sess *exam.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[userID]; ok && cur.State() == exam.InProgress {
		return false
	}
	r.sessions[userID] = sess
	return true
}

func (r *sessionRegistry) remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// dropSubmitted removes the user's attempt if it has been submitted.
func (r *sessionRegistry) dropSubmitted(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[userID]; ok && cur.State() == exam.Submitted {
		delete(r.sessions, userID)
	}
}
