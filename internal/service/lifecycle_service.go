package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleService переходы состояний заявок и наставничеств
type LifecycleService struct {
	store  repository.Store
	logger *zap.Logger
	options
}

func NewLifecycleService(store repository.Store, logger *zap.Logger, opts ...Option) *LifecycleService {
	return &LifecycleService{
		store:   store,
		logger:  logger,
		options: newOptions(opts),
	}
}

// Accept ментор принимает заявку: заявка становится accepted и создаётся активное наставничество
func (s *LifecycleService) Accept(ctx context.Context, requestID uuid.UUID, actor model.Actor) (*model.Mentorship, error) {
	const op = "request.accept"

	now := s.clock()
	var (
		req        *model.MentorshipRequest
		mentorship *model.Mentorship
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		req, err = s.lockRequest(ctx, tx, op, requestID)
		if err != nil {
			return err
		}
		if actor.UserID != req.MentorID {
			return apperr.NotAuthorized(op, "only the requested mentor can accept this request")
		}
		if !req.IsPending() {
			return apperr.InvalidState(op, fmt.Sprintf("request is already %s", req.Status))
		}

		active, err := tx.Mentorships().GetActiveByPair(ctx, req.StudentID, req.MentorID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperr.Conflict(op, "an active mentorship for this pair already exists")
		}

		ok, err := tx.Requests().Transition(ctx, req.ID, model.RequestStatusPending, model.RequestStatusAccepted, now, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState(op, "request is no longer pending")
		}

		mentorship = &model.Mentorship{
			ID:              uuid.New(),
			StudentID:       req.StudentID,
			MentorID:        req.MentorID,
			Status:          model.MentorshipStatusActive,
			SourceRequestID: req.ID,
			StartedAt:       now,
		}
		return tx.Mentorships().Create(ctx, mentorship)
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.metrics.RecordTransition("request", string(model.RequestStatusAccepted))
	s.metrics.RecordTransition("mentorship", string(model.MentorshipStatusActive))
	s.logger.Info("Mentorship request accepted",
		zap.Stringer("request_id", req.ID),
		zap.Stringer("mentorship_id", mentorship.ID),
		zap.Stringer("student_id", req.StudentID),
		zap.Stringer("mentor_id", req.MentorID),
	)

	s.notifier.Notify(ctx, req.StudentID, notify.EventRequestAccepted, notify.Payload{
		notify.KeyRequestID:    req.ID.String(),
		notify.KeyMentorshipID: mentorship.ID.String(),
		notify.KeyMentorID:     req.MentorID.String(),
	})

	return mentorship, nil
}

// Reject ментор отклоняет заявку с необязательной причиной
func (s *LifecycleService) Reject(ctx context.Context, requestID uuid.UUID, actor model.Actor, reason string) (*model.MentorshipRequest, error) {
	const op = "request.reject"

	stored, err := optionalReason(op, reason)
	if err != nil {
		return nil, s.failed(op, err)
	}

	req, err := s.decide(ctx, op, requestID, model.RequestStatusRejected, stored, func(req *model.MentorshipRequest) error {
		if actor.UserID != req.MentorID {
			return apperr.NotAuthorized(op, "only the requested mentor can reject this request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mentorship request rejected",
		zap.Stringer("request_id", req.ID),
		zap.Stringer("mentor_id", req.MentorID),
	)

	payload := notify.Payload{
		notify.KeyRequestID: req.ID.String(),
		notify.KeyMentorID:  req.MentorID.String(),
	}
	if stored != nil {
		payload[notify.KeyReason] = *stored
	}
	s.notifier.Notify(ctx, req.StudentID, notify.EventRequestRejected, payload)

	return req, nil
}

// Cancel студент отзывает свою pending-заявку
func (s *LifecycleService) Cancel(ctx context.Context, requestID uuid.UUID, actor model.Actor) (*model.MentorshipRequest, error) {
	const op = "request.cancel"

	req, err := s.decide(ctx, op, requestID, model.RequestStatusCancelled, nil, func(req *model.MentorshipRequest) error {
		if actor.UserID != req.StudentID {
			return apperr.NotAuthorized(op, "only the requesting student can cancel this request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mentorship request cancelled",
		zap.Stringer("request_id", req.ID),
		zap.Stringer("student_id", req.StudentID),
	)

	s.notifier.Notify(ctx, req.MentorID, notify.EventRequestCancelled, notify.Payload{
		notify.KeyRequestID: req.ID.String(),
		notify.KeyStudentID: req.StudentID.String(),
	})

	return req, nil
}

// decide терминальный переход pending-заявки без создания наставничества
func (s *LifecycleService) decide(
	ctx context.Context,
	op string,
	requestID uuid.UUID,
	to model.RequestStatus,
	reason *string,
	authorize func(req *model.MentorshipRequest) error,
) (*model.MentorshipRequest, error) {
	var req *model.MentorshipRequest

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		req, err = s.lockRequest(ctx, tx, op, requestID)
		if err != nil {
			return err
		}
		if err := authorize(req); err != nil {
			return err
		}
		if !req.IsPending() {
			return apperr.InvalidState(op, fmt.Sprintf("request is already %s", req.Status))
		}

		ok, err := tx.Requests().Transition(ctx, req.ID, model.RequestStatusPending, to, s.clock(), reason)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState(op, "request is no longer pending")
		}

		req, err = tx.Requests().GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.metrics.RecordTransition("request", string(to))
	return req, nil
}

// lockRequest читает заявку, блокирует её пару и перечитывает уже под блокировкой
func (s *LifecycleService) lockRequest(ctx context.Context, tx repository.Tx, op string, requestID uuid.UUID) (*model.MentorshipRequest, error) {
	req, err := tx.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.NotFound(op, "request not found")
	}

	if err := tx.Lock(ctx, repository.PairKey(req.StudentID, req.MentorID)); err != nil {
		return nil, err
	}

	return tx.Requests().GetByID(ctx, requestID)
}

// Terminate любая сторона прерывает наставничество.
// Будущие встречи отменяются в той же транзакции, прошедшие не трогаются.
func (s *LifecycleService) Terminate(ctx context.Context, mentorshipID uuid.UUID, actor model.Actor, reason string) (*model.Mentorship, error) {
	const op = "mentorship.terminate"

	stored, err := optionalReason(op, reason)
	if err != nil {
		return nil, s.failed(op, err)
	}

	now := s.clock()
	var (
		mentorship *model.Mentorship
		cancelled  int64
	)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		mentorship, err = s.lockMentorship(ctx, tx, op, mentorshipID)
		if err != nil {
			return err
		}
		if !mentorship.IsParticipant(actor.UserID) {
			return apperr.NotAuthorized(op, "you are not a party to this mentorship")
		}
		if !mentorship.IsActive() {
			return apperr.InvalidState(op, fmt.Sprintf("mentorship is already %s", mentorship.Status))
		}

		ok, err := tx.Mentorships().Transition(ctx, mentorship.ID, model.MentorshipStatusActive, model.MentorshipStatusTerminated, now, stored)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState(op, "mentorship is no longer active")
		}

		cancelled, err = tx.Sessions().CancelFutureByMentorship(ctx, mentorship.ID, now, actor.UserID)
		if err != nil {
			return err
		}

		mentorship, err = tx.Mentorships().GetByID(ctx, mentorship.ID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.metrics.RecordTransition("mentorship", string(model.MentorshipStatusTerminated))
	s.logger.Info("Mentorship terminated",
		zap.Stringer("mentorship_id", mentorship.ID),
		zap.Stringer("terminated_by", actor.UserID),
		zap.Int64("cancelled_sessions", cancelled),
	)

	payload := notify.Payload{notify.KeyMentorshipID: mentorship.ID.String()}
	if stored != nil {
		payload[notify.KeyReason] = *stored
	}
	s.notifier.Notify(ctx, mentorship.Counterpart(actor.UserID), notify.EventMentorshipTerminated, payload)

	return mentorship, nil
}

// Complete наставничество завершено по договорённости или системой; встречи не отменяются
func (s *LifecycleService) Complete(ctx context.Context, mentorshipID uuid.UUID, actor model.Actor) (*model.Mentorship, error) {
	const op = "mentorship.complete"

	var mentorship *model.Mentorship
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		mentorship, err = s.lockMentorship(ctx, tx, op, mentorshipID)
		if err != nil {
			return err
		}
		if !actor.IsSystem() && !mentorship.IsParticipant(actor.UserID) {
			return apperr.NotAuthorized(op, "you are not a party to this mentorship")
		}
		if !mentorship.IsActive() {
			return apperr.InvalidState(op, fmt.Sprintf("mentorship is already %s", mentorship.Status))
		}

		ok, err := tx.Mentorships().Transition(ctx, mentorship.ID, model.MentorshipStatusActive, model.MentorshipStatusCompleted, s.clock(), nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState(op, "mentorship is no longer active")
		}

		mentorship, err = tx.Mentorships().GetByID(ctx, mentorship.ID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.metrics.RecordTransition("mentorship", string(model.MentorshipStatusCompleted))
	s.logger.Info("Mentorship completed",
		zap.Stringer("mentorship_id", mentorship.ID),
		zap.String("completed_by", string(actor.Role)),
	)

	return mentorship, nil
}

// GetMentorship наставничество для одной из сторон
func (s *LifecycleService) GetMentorship(ctx context.Context, actor model.Actor, mentorshipID uuid.UUID) (*model.Mentorship, error) {
	const op = "mentorship.get"

	var mentorship *model.Mentorship
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		mentorship, err = tx.Mentorships().GetByID(ctx, mentorshipID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, fmt.Errorf("get mentorship: %w", err))
	}
	if mentorship == nil {
		return nil, s.failed(op, apperr.NotFound(op, "mentorship not found"))
	}
	if !actor.IsSystem() && !mentorship.IsParticipant(actor.UserID) {
		return nil, s.failed(op, apperr.NotAuthorized(op, "you are not a party to this mentorship"))
	}

	return mentorship, nil
}

// lockMentorship блокирует пару и расписание ментора и перечитывает наставничество
func (s *LifecycleService) lockMentorship(ctx context.Context, tx repository.Tx, op string, mentorshipID uuid.UUID) (*model.Mentorship, error) {
	m, err := tx.Mentorships().GetByID(ctx, mentorshipID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound(op, "mentorship not found")
	}

	if err := tx.Lock(ctx, repository.PairKey(m.StudentID, m.MentorID), repository.MentorScheduleKey(m.MentorID)); err != nil {
		return nil, err
	}

	return tx.Mentorships().GetByID(ctx, mentorshipID)
}

// wrapInfra добавляет контекст инфраструктурным ошибкам, доменные возвращает как есть
func wrapInfra(op string, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
