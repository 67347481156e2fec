package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/texexam/internal/model"
	"github.com/pavelanni/texexam/internal/store"
)

type createUserRequest struct {
	Username string         `json:"username" validate:"required,max=64"`
	Name     string         `json:"name"`
	Class    string         `json:"class"`
	Role     model.UserRole `json:"role" validate:"omitempty,oneof=student teacher admin"`
	Password string         `json:"password" validate:"required"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeOK(w, r, http.StatusOK, out)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	if req.Role == "" {
		req.Role = model.UserRoleStudent
	}
	if req.Name == "" {
		req.Name = req.Username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	u := model.User{
		Username:     req.Username,
		DisplayName:  req.Name,
		Class:        strings.TrimSpace(req.Class),
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			writeError(w, r, http.StatusConflict, "UserExists")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	writeOK(w, r, http.StatusCreated, toUserResponse(u))
}
