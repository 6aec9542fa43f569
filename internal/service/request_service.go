package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestService приём заявок на менторство
type RequestService struct {
	store  repository.Store
	logger *zap.Logger
	options
}

func NewRequestService(store repository.Store, logger *zap.Logger, opts ...Option) *RequestService {
	return &RequestService{
		store:   store,
		logger:  logger,
		options: newOptions(opts),
	}
}

// SubmitRequest создаёт pending-заявку студента ментору.
// Проверки и вставка выполняются в одной транзакции под блокировкой пары.
func (s *RequestService) SubmitRequest(ctx context.Context, actor model.Actor, mentorID uuid.UUID, message, goals string) (*model.MentorshipRequest, error) {
	const op = "request.submit"

	if actor.Role != model.RoleStudent || actor.UserID == uuid.Nil {
		return nil, s.failed(op, apperr.NotAuthorized(op, "only students can request mentorship"))
	}
	if actor.UserID == mentorID {
		return nil, s.failed(op, apperr.Validation(op, "you cannot request mentorship from yourself"))
	}

	message = strings.TrimSpace(message)
	goals = strings.TrimSpace(goals)
	if err := validateText(op, "message", message); err != nil {
		return nil, s.failed(op, err)
	}
	if err := validateText(op, "goals", goals); err != nil {
		return nil, s.failed(op, err)
	}

	req := &model.MentorshipRequest{
		ID:        uuid.New(),
		StudentID: actor.UserID,
		MentorID:  mentorID,
		Message:   message,
		Goals:     goals,
		Status:    model.RequestStatusPending,
		CreatedAt: s.clock(),
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Lock(ctx, repository.PairKey(req.StudentID, req.MentorID)); err != nil {
			return err
		}

		mentor, err := tx.Mentors().GetByID(ctx, mentorID)
		if err != nil {
			return err
		}
		if mentor == nil {
			return apperr.NotFound(op, "mentor not found")
		}
		if !mentor.IsActive {
			return apperr.InvalidState(op, "mentor is no longer mentoring")
		}
		if !mentor.IsAvailable {
			return apperr.InvalidState(op, "mentor is not accepting requests")
		}

		active, err := tx.Mentorships().GetActiveByPair(ctx, req.StudentID, req.MentorID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperr.New(apperr.KindDuplicateRequest, op, "active mentorship with this mentor already exists")
		}

		pending, err := tx.Requests().GetPendingByPair(ctx, req.StudentID, req.MentorID)
		if err != nil {
			return err
		}
		if pending != nil {
			return apperr.New(apperr.KindDuplicateRequest, op, "pending request to this mentor already exists")
		}

		if !mentor.HasCapacity() {
			return apperr.InvalidState(op, "mentor has reached their mentee capacity")
		}

		return tx.Requests().Create(ctx, req)
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.metrics.RecordTransition("request", string(model.RequestStatusPending))
	s.logger.Info("Mentorship request submitted",
		zap.Stringer("request_id", req.ID),
		zap.Stringer("student_id", req.StudentID),
		zap.Stringer("mentor_id", req.MentorID),
	)

	s.notifier.Notify(ctx, req.MentorID, notify.EventRequestSubmitted, notify.Payload{
		notify.KeyRequestID: req.ID.String(),
		notify.KeyStudentID: req.StudentID.String(),
	})

	return req, nil
}

// GetRequest заявка для одной из сторон
func (s *RequestService) GetRequest(ctx context.Context, actor model.Actor, requestID uuid.UUID) (*model.MentorshipRequest, error) {
	const op = "request.get"

	var req *model.MentorshipRequest
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		req, err = tx.Requests().GetByID(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, fmt.Errorf("get request: %w", err))
	}
	if req == nil {
		return nil, s.failed(op, apperr.NotFound(op, "request not found"))
	}
	if !actor.IsSystem() && !req.IsParticipant(actor.UserID) {
		return nil, s.failed(op, apperr.NotAuthorized(op, "you are not a party to this request"))
	}

	return req, nil
}
