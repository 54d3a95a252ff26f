package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository"
)

type ConnectionRequestStore struct {
	s *Store
}

// Create повторяет уникальный индекс по активной паре
func (r *ConnectionRequestStore) Create(_ context.Context, req *model.ConnectionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.activeLocked(req.StudentID, req.MentorID) != nil {
		return repository.ErrActiveRequestExists
	}

	req.ID = r.s.nextID()
	req.CreatedAt = r.s.now()
	stored := *req
	r.s.requests[req.ID] = &stored
	return nil
}

func (r *ConnectionRequestStore) activeLocked(studentID, mentorID int64) *model.ConnectionRequest {
	for _, req := range r.s.requests {
		if req.StudentID == studentID && req.MentorID == mentorID && req.IsActive() {
			return req
		}
	}
	return nil
}

func (r *ConnectionRequestStore) view(req *model.ConnectionRequest) *model.ConnectionRequest {
	v := *req
	v.StudentName = r.s.displayName(req.StudentID)
	v.MentorName = r.s.displayName(req.MentorID)
	return &v
}

func (r *ConnectionRequestStore) GetByID(_ context.Context, id int64) (*model.ConnectionRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	return r.view(req), nil
}

func (r *ConnectionRequestStore) GetLatestByPair(_ context.Context, studentID, mentorID int64) (*model.ConnectionRequest, error) {
	list := r.filter(func(req *model.ConnectionRequest) bool {
		return req.StudentID == studentID && req.MentorID == mentorID
	})
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *ConnectionRequestStore) HasActiveRequest(_ context.Context, studentID, mentorID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.activeLocked(studentID, mentorID) != nil, nil
}

func (r *ConnectionRequestStore) IsAccepted(_ context.Context, studentID, mentorID int64) (bool, error) {
	list := r.filter(func(req *model.ConnectionRequest) bool {
		return req.StudentID == studentID && req.MentorID == mentorID &&
			req.Status == model.ConnectionStatusAccepted
	})
	return len(list) > 0, nil
}

func (r *ConnectionRequestStore) GetByMentor(_ context.Context, mentorID int64) ([]*model.ConnectionRequest, error) {
	return r.filter(func(req *model.ConnectionRequest) bool { return req.MentorID == mentorID }), nil
}

func (r *ConnectionRequestStore) GetByStudent(_ context.Context, studentID int64) ([]*model.ConnectionRequest, error) {
	return r.filter(func(req *model.ConnectionRequest) bool { return req.StudentID == studentID }), nil
}

// filter возвращает копии, новые первыми
func (r *ConnectionRequestStore) filter(match func(*model.ConnectionRequest) bool) []*model.ConnectionRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.ConnectionRequest
	for _, req := range r.s.requests {
		if match(req) {
			result = append(result, r.view(req))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *ConnectionRequestStore) UpdateStatus(_ context.Context, id int64, from, to model.ConnectionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok || req.Status != from {
		return repository.ErrStaleStatus
	}

	now := r.s.now()
	req.Status = to
	req.UpdatedAt = &now
	return nil
}
