package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
)

type sendMessageRequest struct {
	Content    string           `json:"content"`
	SenderType model.SenderType `json:"sender_type"`
	SenderID   model.FlexID     `json:"sender_id"`
	ReceiverID model.FlexID     `json:"receiver_id"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	msg, err := s.messages.Send(r.Context(), actorFrom(r.Context()), service.SendInput{
		SenderType: req.SenderType,
		SenderID:   int64(req.SenderID),
		ReceiverID: int64(req.ReceiverID),
		Content:    req.Content,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	senderID, ok1 := queryID(r, "sender_id")
	receiverID, ok2 := queryID(r, "receiver_id")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "sender_id and receiver_id are required")
		return
	}

	list, err := s.messages.Conversation(r.Context(), actorFrom(r.Context()), senderID, receiverID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(list))
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(r, "user_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	list, err := s.messages.Inbox(r.Context(), actorFrom(r.Context()), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(list))
}

type markReadRequest struct {
	OtherID model.FlexID `json:"other_id"`
}

type markReadResponse struct {
	Marked int64 `json:"marked"`
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := decodeJSON(r, &req); err != nil || req.OtherID <= 0 {
		writeError(w, http.StatusBadRequest, "other_id is required")
		return
	}

	marked, err := s.messages.MarkConversationRead(r.Context(), actorFrom(r.Context()), int64(req.OtherID))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{Marked: marked})
}
