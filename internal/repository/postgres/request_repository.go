package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/repository/base"
	"github.com/google/uuid"
)

const pendingPairIndex = "mentorship_requests_pending_pair_idx"

type RequestRepository struct {
	*base.Repository
}

func NewRequestRepository(q base.Querier) *RequestRepository {
	return &RequestRepository{Repository: base.NewRepository(q)}
}

const requestColumns = `id, student_id, mentor_id, message, goals, status, rejection_reason, created_at, decided_at`

func scanRequest(row scanner) (*model.MentorshipRequest, error) {
	var req model.MentorshipRequest
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.MentorID,
		&req.Message,
		&req.Goals,
		&req.Status,
		&req.RejectionReason,
		&req.CreatedAt,
		&req.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create создает заявку
func (r *RequestRepository) Create(ctx context.Context, req *model.MentorshipRequest) error {
	query := `
		INSERT INTO mentorship_requests (id, student_id, mentor_id, message, goals, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.Querier().Exec(
		ctx, query,
		req.ID,
		req.StudentID,
		req.MentorID,
		req.Message,
		req.Goals,
		req.Status,
		req.CreatedAt,
	)

	if err != nil {
		if base.IsUniqueViolation(err, pendingPairIndex) {
			return apperr.Wrap(apperr.KindDuplicateRequest, "request.create", err)
		}
		return fmt.Errorf("create mentorship request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MentorshipRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM mentorship_requests WHERE id = $1`

	req, err := scanRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentorship request: %w", err)
	}

	return req, nil
}

// GetPendingByPair получает pending-заявку пары, если она есть
func (r *RequestRepository) GetPendingByPair(ctx context.Context, studentID, mentorID uuid.UUID) (*model.MentorshipRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM mentorship_requests
		WHERE student_id = $1 AND mentor_id = $2 AND status = $3
	`

	req, err := scanRequest(r.QueryRow(ctx, query, studentID, mentorID, model.RequestStatusPending))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending request by pair: %w", err)
	}

	return req, nil
}

// GetByStudent получает заявки студента, новые первыми
func (r *RequestRepository) GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.MentorshipRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM mentorship_requests
		WHERE student_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "get requests by student", query, studentID)
}

// GetByMentor получает заявки, адресованные ментору
func (r *RequestRepository) GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.MentorshipRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM mentorship_requests
		WHERE mentor_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "get requests by mentor", query, mentorID)
}

func (r *RequestRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.MentorshipRequest, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var requests []*model.MentorshipRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentorship request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

// Transition меняет статус заявки, только если текущий статус равен from
func (r *RequestRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.RequestStatus, decidedAt time.Time, reason *string) (bool, error) {
	query := `
		UPDATE mentorship_requests
		SET status = $3, decided_at = $4, rejection_reason = COALESCE($5, rejection_reason)
		WHERE id = $1 AND status = $2
	`

	affected, err := r.ExecAffected(ctx, query, id, from, to, decidedAt, reason)
	if err != nil {
		return false, fmt.Errorf("transition mentorship request: %w", err)
	}

	return affected > 0, nil
}
