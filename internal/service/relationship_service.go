package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository"
	"go.uber.org/zap"
)

// RelationshipService жизненный цикл заявки студента к ментору
type RelationshipService struct {
	requests  ConnectionRequestStore
	users     UserStore
	observers Observer
	logger    *zap.Logger
	now       func() time.Time
}

func NewRelationshipService(
	requests ConnectionRequestStore,
	users UserStore,
	observers Observer,
	logger *zap.Logger,
) *RelationshipService {
	if observers == nil {
		observers = Observers(nil)
	}
	return &RelationshipService{
		requests:  requests,
		users:     users,
		observers: observers,
		logger:    logger,
		now:       time.Now,
	}
}

// Create создаёт pending заявку. У пары может быть только одна активная заявка
func (s *RelationshipService) Create(ctx context.Context, actor Actor, studentID, mentorID int64, message string) (*model.ConnectionRequest, error) {
	if actor.UserID != studentID && !actor.IsAdmin() {
		return nil, forbidden("user %d cannot request on behalf of student %d", actor.UserID, studentID)
	}

	student, mentor, err := s.loadPair(ctx, studentID, mentorID)
	if err != nil {
		return nil, err
	}

	// Проверяем что у пары нет активной заявки
	active, err := s.requests.HasActiveRequest(ctx, studentID, mentorID)
	if err != nil {
		return nil, fmt.Errorf("check active request: %w", err)
	}
	if active {
		return nil, fmt.Errorf("%w: student %d already has an active request to mentor %d", ErrConflict, studentID, mentorID)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = model.DefaultConnectionMessage
	}

	req := &model.ConnectionRequest{
		StudentID: studentID,
		MentorID:  mentorID,
		Status:    model.ConnectionStatusPending,
		Message:   message,
	}

	err = s.requests.Create(ctx, req)
	if err != nil {
		// Гонка двух create: уникальный индекс по активной паре
		if errors.Is(err, repository.ErrActiveRequestExists) {
			return nil, fmt.Errorf("%w: student %d already has an active request to mentor %d", ErrConflict, studentID, mentorID)
		}
		return nil, fmt.Errorf("create connection request: %w", err)
	}

	req.StudentName = student.DisplayName()
	req.MentorName = mentor.DisplayName()

	s.logger.Info("Connection request created",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("mentor_id", mentorID),
	)

	s.observers.ConnectionRequested(ctx, req)

	return req, nil
}

// Respond ответ ментора на pending заявку
func (s *RelationshipService) Respond(ctx context.Context, actor Actor, requestID int64, decision model.ConnectionStatus) (*model.ConnectionRequest, error) {
	if !decision.IsDecision() {
		return nil, invalid("status must be accepted or rejected, got %q", decision)
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get connection request: %w", err)
	}

	if req == nil {
		return nil, notFound("connection request", requestID)
	}

	if req.MentorID != actor.UserID && !actor.IsAdmin() {
		return nil, forbidden("no permission to respond to connection request %d", requestID)
	}

	if !req.Status.CanTransitionTo(decision) {
		return nil, connectionTransitionError(requestID, req.Status, decision)
	}

	err = s.requests.UpdateStatus(ctx, requestID, req.Status, decision)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, s.staleConnection(ctx, requestID, decision)
		}
		return nil, fmt.Errorf("update connection request status: %w", err)
	}

	now := s.now()
	req.Status = decision
	req.UpdatedAt = &now

	s.logger.Info("Connection request answered",
		zap.Int64("request_id", requestID),
		zap.Int64("mentor_id", req.MentorID),
		zap.String("status", string(decision)),
	)

	s.observers.ConnectionAnswered(ctx, req)

	return req, nil
}

// staleConnection статус поменялся между чтением и записью: сообщаем фактический переход
func (s *RelationshipService) staleConnection(ctx context.Context, requestID int64, decision model.ConnectionStatus) error {
	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("reload connection request: %w", err)
	}
	if current == nil {
		return notFound("connection request", requestID)
	}
	return connectionTransitionError(requestID, current.Status, decision)
}

func connectionTransitionError(id int64, from, to model.ConnectionStatus) error {
	return &TransitionError{Entity: "connection request", ID: id, From: string(from), To: string(to)}
}

// QueryStatus статус самой свежей заявки пары или "none"
func (s *RelationshipService) QueryStatus(ctx context.Context, studentID, mentorID int64) (model.ConnectionStatus, *model.ConnectionRequest, error) {
	req, err := s.requests.GetLatestByPair(ctx, studentID, mentorID)
	if err != nil {
		return "", nil, fmt.Errorf("get latest connection request: %w", err)
	}

	if req == nil {
		return model.ConnectionStatusNone, nil, nil
	}

	return req.Status, req, nil
}

// IsConnected проверяет, что заявка пары принята
func (s *RelationshipService) IsConnected(ctx context.Context, studentID, mentorID int64) (bool, error) {
	return s.requests.IsAccepted(ctx, studentID, mentorID)
}

// Get получает заявку, видимую только участникам пары
func (s *RelationshipService) Get(ctx context.Context, actor Actor, requestID int64) (*model.ConnectionRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get connection request: %w", err)
	}
	if req == nil {
		return nil, notFound("connection request", requestID)
	}
	if actor.UserID != req.StudentID && actor.UserID != req.MentorID && !actor.IsAdmin() {
		return nil, forbidden("connection request %d belongs to another pair", requestID)
	}
	return req, nil
}

// ListForMentor все заявки к ментору, новые первыми
func (s *RelationshipService) ListForMentor(ctx context.Context, mentorID int64) ([]*model.ConnectionRequest, error) {
	return s.requests.GetByMentor(ctx, mentorID)
}

// ListPendingForMentor заявки, ожидающие ответа ментора
func (s *RelationshipService) ListPendingForMentor(ctx context.Context, mentorID int64) ([]*model.ConnectionRequest, error) {
	all, err := s.requests.GetByMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	var pending []*model.ConnectionRequest
	for _, req := range all {
		if req.IsPending() {
			pending = append(pending, req)
		}
	}
	return pending, nil
}

// ListForStudent все заявки студента, новые первыми
func (s *RelationshipService) ListForStudent(ctx context.Context, studentID int64) ([]*model.ConnectionRequest, error) {
	return s.requests.GetByStudent(ctx, studentID)
}

func (s *RelationshipService) loadPair(ctx context.Context, studentID, mentorID int64) (*model.User, *model.User, error) {
	if studentID == mentorID {
		return nil, nil, invalid("student and mentor must differ")
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, nil, notFound("student", studentID)
	}
	if student.Role != model.RoleStudent {
		return nil, nil, invalid("user %d is not a student", studentID)
	}

	mentor, err := s.users.GetByID(ctx, mentorID)
	if err != nil {
		return nil, nil, fmt.Errorf("get mentor: %w", err)
	}
	if mentor == nil {
		return nil, nil, notFound("mentor", mentorID)
	}
	if mentor.Role != model.RoleMentor {
		return nil, nil, invalid("user %d is not a mentor", mentorID)
	}

	return student, mentor, nil
}
