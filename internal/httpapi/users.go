package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

type registerUserRequest struct {
	Name     string     `json:"name"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	user, err := s.users.Register(r.Context(), &model.User{
		Name:     req.Name,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type linkTelegramRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

func (s *Server) handleLinkTelegram(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if !requireSelf(w, actorFrom(r.Context()), userID) {
		return
	}

	var req linkTelegramRequest
	if err := decodeJSON(r, &req); err != nil || req.TelegramID == 0 {
		writeError(w, http.StatusBadRequest, "telegram_id is required")
		return
	}

	user, err := s.users.LinkTelegram(r.Context(), userID, req.TelegramID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
