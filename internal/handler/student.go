package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pavelanni/texexam/internal/exam"
	"github.com/pavelanni/texexam/internal/model"
)

type answerRequest struct {
	// Option is the zero-based option index; null clears the answer.
	Option *int `json:"option"`
}

func (h *Handler) handleEligibleExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	exams, err := h.exams.EligibleExams(r.Context(), user.Class)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, summarizeAll(exams))
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	now := h.now()

	// An attempt past its deadline is submitted before a new one may start.
	if cur, ok := h.sessions.get(user.Username); ok {
		if _, err := h.exams.Observe(r.Context(), cur, now); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	h.sessions.dropSubmitted(user.Username)

	sess, err := h.exams.StartSession(r.Context(), chi.URLParam(r, "examID"), user.Identity(), now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.sessions.putIfIdle(user.Username, sess) {
		writeServiceError(w, r, exam.ErrSessionStarted)
		return
	}
	writeOK(w, r, http.StatusCreated, sess.View(now))
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) (*exam.Session, bool) {
	user := model.UserFromContext(r.Context())
	sess, ok := h.sessions.get(user.Username)
	if !ok {
		writeError(w, r, http.StatusNotFound, "NoActiveSession")
		return nil, false
	}
	return sess, true
}

func (h *Handler) handleSessionView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	view, err := h.exams.Observe(r.Context(), sess, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, view)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeServiceError(w, r, exam.ErrQuestionIndex)
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	now := h.now()
	if err := h.exams.Answer(r.Context(), sess, index, req.Option, now); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, sess.View(now))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	now := h.now()
	if _, err := h.exams.Submit(r.Context(), sess, now); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, sess.View(now))
}

func (h *Handler) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	h.sessions.remove(user.Username)
	writeOK(w, r, http.StatusOK, map[string]bool{"discarded": true})
}
