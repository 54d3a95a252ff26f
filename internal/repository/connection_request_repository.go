package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConnectionRequestRepository struct {
	*base.Repository
}

func NewConnectionRequestRepository(pool *pgxpool.Pool) *ConnectionRequestRepository {
	return &ConnectionRequestRepository{Repository: base.NewRepository(pool)}
}

const connectionRequestColumns = `
	cr.id, cr.student_id, cr.mentor_id, cr.status, cr.message, cr.created_at, cr.updated_at,
	COALESCE(NULLIF(s.full_name, ''), s.name, ''), COALESCE(NULLIF(m.full_name, ''), m.name, '')
`

const connectionRequestFrom = `
	FROM connection_requests cr
	LEFT JOIN users s ON s.id = cr.student_id
	LEFT JOIN users m ON m.id = cr.mentor_id
`

func scanConnectionRequest(row pgx.Row) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.MentorID,
		&req.Status,
		&req.Message,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.StudentName,
		&req.MentorName,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create создаёт заявку. Уникальный индекс по активной паре защищает от гонки двух create
func (r *ConnectionRequestRepository) Create(ctx context.Context, req *model.ConnectionRequest) error {
	query := `
		INSERT INTO connection_requests (student_id, mentor_id, status, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		req.StudentID,
		req.MentorID,
		req.Status,
		req.Message,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrActiveRequestExists
		}
		return fmt.Errorf("create connection request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *ConnectionRequestRepository) GetByID(ctx context.Context, id int64) (*model.ConnectionRequest, error) {
	query := `SELECT ` + connectionRequestColumns + connectionRequestFrom + `WHERE cr.id = $1`

	req, err := scanConnectionRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection request: %w", err)
	}

	return req, nil
}

// GetLatestByPair получает самую свежую заявку пары
func (r *ConnectionRequestRepository) GetLatestByPair(ctx context.Context, studentID, mentorID int64) (*model.ConnectionRequest, error) {
	query := `SELECT ` + connectionRequestColumns + connectionRequestFrom + `
		WHERE cr.student_id = $1 AND cr.mentor_id = $2
		ORDER BY cr.created_at DESC, cr.id DESC
		LIMIT 1
	`

	req, err := scanConnectionRequest(r.QueryRow(ctx, query, studentID, mentorID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest connection request: %w", err)
	}

	return req, nil
}

// HasActiveRequest проверяет, есть ли у пары pending или accepted заявка
func (r *ConnectionRequestRepository) HasActiveRequest(ctx context.Context, studentID, mentorID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM connection_requests
			WHERE student_id = $1 AND mentor_id = $2 AND status IN ($3, $4)
		)
	`

	var exists bool
	err := r.QueryRow(ctx, query, studentID, mentorID,
		model.ConnectionStatusPending, model.ConnectionStatusAccepted).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active request: %w", err)
	}

	return exists, nil
}

// IsAccepted проверяет, что у пары есть принятая заявка
func (r *ConnectionRequestRepository) IsAccepted(ctx context.Context, studentID, mentorID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM connection_requests
			WHERE student_id = $1 AND mentor_id = $2 AND status = $3
		)
	`

	var exists bool
	err := r.QueryRow(ctx, query, studentID, mentorID, model.ConnectionStatusAccepted).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check accepted connection: %w", err)
	}

	return exists, nil
}

// GetByMentor получает все заявки к ментору, новые первыми
func (r *ConnectionRequestRepository) GetByMentor(ctx context.Context, mentorID int64) ([]*model.ConnectionRequest, error) {
	query := `SELECT ` + connectionRequestColumns + connectionRequestFrom + `
		WHERE cr.mentor_id = $1
		ORDER BY cr.created_at DESC, cr.id DESC
	`
	return r.list(ctx, query, mentorID)
}

// GetByStudent получает все заявки студента, новые первыми
func (r *ConnectionRequestRepository) GetByStudent(ctx context.Context, studentID int64) ([]*model.ConnectionRequest, error) {
	query := `SELECT ` + connectionRequestColumns + connectionRequestFrom + `
		WHERE cr.student_id = $1
		ORDER BY cr.created_at DESC, cr.id DESC
	`
	return r.list(ctx, query, studentID)
}

func (r *ConnectionRequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.ConnectionRequest, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get connection requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.ConnectionRequest
	for rows.Next() {
		req, err := scanConnectionRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection requests: %w", err)
	}

	return requests, nil
}

// UpdateStatus меняет статус только если заявка всё ещё в статусе from
func (r *ConnectionRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to model.ConnectionStatus) error {
	query := `
		UPDATE connection_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	affected, err := r.ExecAffected(ctx, query, to, id, from)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrActiveRequestExists
		}
		return fmt.Errorf("update connection request status: %w", err)
	}

	if affected == 0 {
		return ErrStaleStatus
	}

	return nil
}
