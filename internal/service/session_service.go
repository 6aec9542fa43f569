package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService расписание встреч внутри активного наставничества
type SessionService struct {
	store  repository.Store
	logger *zap.Logger
	options
}

func NewSessionService(store repository.Store, logger *zap.Logger, opts ...Option) *SessionService {
	return &SessionService{
		store:   store,
		logger:  logger,
		options: newOptions(opts),
	}
}

type ScheduleInput struct {
	Start       time.Time
	End         time.Time
	MeetingLink string
	Agenda      string
}

// Schedule назначает встречу; пересечение с другой встречей ментора отклоняется
func (s *SessionService) Schedule(ctx context.Context, actor model.Actor, mentorshipID uuid.UUID, in ScheduleInput) (*model.Session, error) {
	const op = "session.schedule"

	now := s.clock()
	start, end := in.Start.UTC(), in.End.UTC()
	link := strings.TrimSpace(in.MeetingLink)
	agenda := strings.TrimSpace(in.Agenda)

	if err := validateInterval(op, start, end, now); err != nil {
		return nil, s.failed(op, err)
	}
	if err := validateMeetingLink(op, link); err != nil {
		return nil, s.failed(op, err)
	}
	if textLength(agenda) > maxTextLength {
		return nil, s.failed(op, apperr.Validation(op, "agenda must be at most 2000 characters"))
	}

	var session *model.Session
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		m, err := tx.Mentorships().GetByID(ctx, mentorshipID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound(op, "mentorship not found")
		}
		if !m.IsParticipant(actor.UserID) {
			return apperr.NotAuthorized(op, "you are not a party to this mentorship")
		}

		if err := tx.Lock(ctx, repository.MentorScheduleKey(m.MentorID)); err != nil {
			return err
		}

		// статус мог смениться, пока ждали блокировку
		m, err = tx.Mentorships().GetByID(ctx, mentorshipID)
		if err != nil {
			return err
		}
		if !m.IsActive() {
			return apperr.InvalidState(op, fmt.Sprintf("mentorship is %s", m.Status))
		}

		if err := checkConflicts(ctx, tx, op, m.MentorID, start, end, uuid.Nil); err != nil {
			return err
		}

		session = &model.Session{
			ID:           uuid.New(),
			MentorshipID: m.ID,
			MentorID:     m.MentorID,
			StudentID:    m.StudentID,
			StartTime:    start,
			EndTime:      end,
			Status:       model.SessionStatusScheduled,
			MeetingLink:  link,
			Agenda:       agenda,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.metrics.RecordTransition("session", string(model.SessionStatusScheduled))
	s.logger.Info("Session scheduled",
		zap.Stringer("session_id", session.ID),
		zap.Stringer("mentorship_id", session.MentorshipID),
		zap.Stringer("mentor_id", session.MentorID),
		zap.Time("start_time", session.StartTime),
		zap.Time("end_time", session.EndTime),
	)

	s.notifier.Notify(ctx, session.Counterpart(actor.UserID), notify.EventSessionScheduled, sessionPayload(session))

	return session, nil
}

// Reschedule переносит ещё не начавшуюся встречу активного наставничества
func (s *SessionService) Reschedule(ctx context.Context, actor model.Actor, sessionID uuid.UUID, newStart, newEnd time.Time) (*model.Session, error) {
	const op = "session.reschedule"

	now := s.clock()
	start, end := newStart.UTC(), newEnd.UTC()
	if err := validateInterval(op, start, end, now); err != nil {
		return nil, s.failed(op, err)
	}

	var session *model.Session
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		session, err = s.lockSession(ctx, tx, op, sessionID, actor)
		if err != nil {
			return err
		}
		if status := session.EffectiveStatus(now); status != model.SessionStatusScheduled {
			return apperr.InvalidState(op, fmt.Sprintf("session is %s", status))
		}
		if !now.Before(session.StartTime) {
			return apperr.InvalidState(op, "session has already started")
		}

		// после завершения наставничества встречу можно только отменить
		m, err := tx.Mentorships().GetByID(ctx, session.MentorshipID)
		if err != nil {
			return err
		}
		if m == nil || !m.IsActive() {
			return apperr.InvalidState(op, "mentorship is no longer active")
		}

		if err := checkConflicts(ctx, tx, op, session.MentorID, start, end, session.ID); err != nil {
			return err
		}

		ok, err := tx.Sessions().Reschedule(ctx, session.ID, start, end, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState(op, "session is no longer scheduled")
		}

		session, err = tx.Sessions().GetByID(ctx, session.ID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.logger.Info("Session rescheduled",
		zap.Stringer("session_id", session.ID),
		zap.Stringer("rescheduled_by", actor.UserID),
		zap.Time("start_time", session.StartTime),
		zap.Time("end_time", session.EndTime),
	)

	s.notifier.Notify(ctx, session.Counterpart(actor.UserID), notify.EventSessionRescheduled, sessionPayload(session))

	return session, nil
}

// Cancel любая сторона отменяет встречу до её окончания
func (s *SessionService) Cancel(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error) {
	const op = "session.cancel"

	session, err := s.transition(ctx, op, actor, sessionID, model.SessionStatusCancelled, func(ctx context.Context, tx repository.Tx, session *model.Session, now time.Time) error {
		if status := session.EffectiveStatus(now); status != model.SessionStatusScheduled {
			return apperr.InvalidState(op, fmt.Sprintf("session is %s", status))
		}
		return nil
	}, model.SessionStatusScheduled)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, session.Counterpart(actor.UserID), notify.EventSessionCancelled, sessionPayload(session))

	return session, nil
}

// Complete явное завершение начавшейся встречи
func (s *SessionService) Complete(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error) {
	const op = "session.complete"

	return s.transition(ctx, op, actor, sessionID, model.SessionStatusCompleted, func(ctx context.Context, tx repository.Tx, session *model.Session, now time.Time) error {
		if session.Status != model.SessionStatusScheduled {
			return apperr.InvalidState(op, fmt.Sprintf("session is %s", session.Status))
		}
		if now.Before(session.StartTime) {
			return apperr.InvalidState(op, "session has not started yet")
		}
		return nil
	}, model.SessionStatusScheduled)
}

// MarkNoShow участник сообщает, что вторая сторона не пришла.
// Допустимо только после окончания встречи и пока ни одна сторона не оставила отзыв.
func (s *SessionService) MarkNoShow(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error) {
	const op = "session.no_show"

	return s.transition(ctx, op, actor, sessionID, model.SessionStatusNoShow, func(ctx context.Context, tx repository.Tx, session *model.Session, now time.Time) error {
		if now.Before(session.EndTime) {
			return apperr.InvalidState(op, "no-show can only be reported after the session ends")
		}
		if status := session.EffectiveStatus(now); status != model.SessionStatusCompleted {
			return apperr.InvalidState(op, fmt.Sprintf("session is %s", status))
		}

		feedback, err := tx.Feedback().GetBySession(ctx, session.ID)
		if err != nil {
			return err
		}
		if len(feedback) > 0 {
			return apperr.InvalidState(op, "feedback has already been recorded for this session")
		}
		return nil
	}, model.SessionStatusScheduled, model.SessionStatusCompleted)
}

// transition общий путь CAS-перехода встречи под блокировкой расписания ментора
func (s *SessionService) transition(
	ctx context.Context,
	op string,
	actor model.Actor,
	sessionID uuid.UUID,
	to model.SessionStatus,
	check func(ctx context.Context, tx repository.Tx, session *model.Session, now time.Time) error,
	from ...model.SessionStatus,
) (*model.Session, error) {
	now := s.clock()
	var session *model.Session

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		session, err = s.lockSession(ctx, tx, op, sessionID, actor)
		if err != nil {
			return err
		}
		if err := check(ctx, tx, session, now); err != nil {
			return err
		}

		ok, err := tx.Sessions().Transition(ctx, session.ID, from, to, &actor.UserID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState(op, "session status has changed")
		}

		session, err = tx.Sessions().GetByID(ctx, session.ID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	s.metrics.RecordTransition("session", string(to))
	s.logger.Info("Session status changed",
		zap.Stringer("session_id", session.ID),
		zap.String("status", string(to)),
		zap.Stringer("actor_id", actor.UserID),
	)

	return session, nil
}

// lockSession проверяет участие, блокирует расписание ментора и перечитывает встречу.
// Системный актор встречи не меняет: для него есть CompleteElapsed.
func (s *SessionService) lockSession(ctx context.Context, tx repository.Tx, op string, sessionID uuid.UUID, actor model.Actor) (*model.Session, error) {
	session, err := tx.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.NotFound(op, "session not found")
	}
	if actor.IsSystem() || !session.IsParticipant(actor.UserID) {
		return nil, apperr.NotAuthorized(op, "you are not a participant of this session")
	}

	if err := tx.Lock(ctx, repository.MentorScheduleKey(session.MentorID)); err != nil {
		return nil, err
	}

	return tx.Sessions().GetByID(ctx, sessionID)
}

// CompleteElapsed фоновое завершение прошедших встреч; идемпотентно
func (s *SessionService) CompleteElapsed(ctx context.Context) (int64, error) {
	now := s.clock()

	var completed int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		completed, err = tx.Sessions().CompleteElapsed(ctx, now)
		return err
	})
	s.metrics.RecordSweep(completed, err)
	if err != nil {
		return 0, fmt.Errorf("complete elapsed sessions: %w", err)
	}

	if completed > 0 {
		s.logger.Info("Elapsed sessions completed", zap.Int64("count", completed))
	}

	return completed, nil
}

// GetSession встреча с эффективным статусом
func (s *SessionService) GetSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error) {
	const op = "session.get"

	var session *model.Session
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		session, err = tx.Sessions().GetByID(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, fmt.Errorf("get session: %w", err))
	}
	if session == nil {
		return nil, s.failed(op, apperr.NotFound(op, "session not found"))
	}
	if !actor.IsSystem() && !session.IsParticipant(actor.UserID) {
		return nil, s.failed(op, apperr.NotAuthorized(op, "you are not a participant of this session"))
	}

	session.Status = session.EffectiveStatus(s.clock())
	return session, nil
}

func checkConflicts(ctx context.Context, tx repository.Tx, op string, mentorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) error {
	overlapping, err := tx.Sessions().FindOverlapping(ctx, mentorID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return apperr.New(apperr.KindTimeConflict, op, "mentor already has a session at this time")
	}
	return nil
}

func sessionPayload(session *model.Session) notify.Payload {
	payload := notify.Payload{
		notify.KeySessionID:    session.ID.String(),
		notify.KeyMentorshipID: session.MentorshipID.String(),
		notify.KeyStartTime:    notify.FormatTime(session.StartTime),
		notify.KeyEndTime:      notify.FormatTime(session.EndTime),
	}
	if session.MeetingLink != "" {
		payload[notify.KeyMeetingLink] = session.MeetingLink
	}
	return payload
}
