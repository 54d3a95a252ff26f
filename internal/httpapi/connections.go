package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

type createConnectionRequest struct {
	StudentID int64  `json:"student_id"`
	MentorID  int64  `json:"mentor_id"`
	Message   string `json:"message"`
}

func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.StudentID <= 0 || req.MentorID <= 0 {
		writeError(w, http.StatusBadRequest, "student_id and mentor_id are required")
		return
	}

	created, err := s.relations.Create(r.Context(), actorFrom(r.Context()), req.StudentID, req.MentorID, req.Message)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "requestID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := s.relations.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleRespondConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "requestID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var body statusRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req, err := s.relations.Respond(r.Context(), actorFrom(r.Context()), id, model.ConnectionStatus(body.Status))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type connectionStatusResponse struct {
	Status  model.ConnectionStatus   `json:"status"`
	Request *model.ConnectionRequest `json:"request,omitempty"`
}

func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	studentID, ok1 := queryID(r, "student_id")
	mentorID, ok2 := queryID(r, "mentor_id")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "student_id and mentor_id are required")
		return
	}

	actor := actorFrom(r.Context())
	if actor.UserID != studentID && actor.UserID != mentorID && !actor.IsAdmin() {
		writeError(w, http.StatusForbidden, "not a member of this pair")
		return
	}

	status, req, err := s.relations.QueryStatus(r.Context(), studentID, mentorID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, connectionStatusResponse{Status: status, Request: req})
}

// handleMentorRequests все заявки ментора; ?status=pending оставляет только ожидающие
func (s *Server) handleMentorRequests(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := queryID(r, "mentor_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "mentor_id is required")
		return
	}
	if !requireSelf(w, actorFrom(r.Context()), mentorID) {
		return
	}

	var (
		list []*model.ConnectionRequest
		err  error
	)
	if r.URL.Query().Get("status") == string(model.ConnectionStatusPending) {
		list, err = s.relations.ListPendingForMentor(r.Context(), mentorID)
	} else {
		list, err = s.relations.ListForMentor(r.Context(), mentorID)
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(list))
}

func (s *Server) handleStudentConnections(w http.ResponseWriter, r *http.Request) {
	studentID, ok := queryID(r, "student_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}
	if !requireSelf(w, actorFrom(r.Context()), studentID) {
		return
	}

	list, err := s.relations.ListForStudent(r.Context(), studentID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(list))
}
