package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedbackService отзывы по завершённым встречам и рейтинг менторов
type FeedbackService struct {
	store  repository.Store
	logger *zap.Logger
	options
}

func NewFeedbackService(store repository.Store, logger *zap.Logger, opts ...Option) *FeedbackService {
	return &FeedbackService{
		store:   store,
		logger:  logger,
		options: newOptions(opts),
	}
}

// SubmitFeedback сохраняет отзыв стороны role.
// Отзыв студента пересчитывает средний рейтинг ментора в той же транзакции.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, actor model.Actor, sessionID uuid.UUID, role model.Role, rating int, comments string) (*model.Feedback, error) {
	const op = "feedback.submit"

	if role != model.RoleStudent && role != model.RoleMentor {
		return nil, s.failed(op, apperr.Validation(op, "role must be student or mentor"))
	}
	if rating < 1 || rating > 5 {
		return nil, s.failed(op, apperr.Validation(op, "rating must be an integer from 1 to 5"))
	}
	comments = strings.TrimSpace(comments)
	if textLength(comments) > maxCommentsLength {
		return nil, s.failed(op, apperr.Validation(op, "comments must be at most 2000 characters"))
	}

	now := s.clock()
	var (
		feedback *model.Feedback
		stats    *model.RatingStats
		mentorID uuid.UUID
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		session, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return apperr.NotFound(op, "session not found")
		}
		if session.RoleOf(actor.UserID) != role {
			return apperr.NotAuthorized(op, "you can only leave feedback as your own role in this session")
		}
		if status := session.EffectiveStatus(now); status != model.SessionStatusCompleted {
			return apperr.InvalidState(op, fmt.Sprintf("feedback is only possible for completed sessions, session is %s", status))
		}
		mentorID = session.MentorID

		if role == model.RoleStudent {
			if err := tx.Lock(ctx, repository.MentorRatingKey(mentorID)); err != nil {
				return err
			}
		}

		exists, err := tx.Feedback().Exists(ctx, sessionID, role)
		if err != nil {
			return err
		}
		if exists {
			return apperr.New(apperr.KindDuplicateFeedback, op, "feedback for this session has already been submitted")
		}

		feedback = &model.Feedback{
			ID:          uuid.New(),
			SessionID:   sessionID,
			SubmittedBy: actor.UserID,
			Role:        role,
			Rating:      rating,
			Comments:    comments,
			CreatedAt:   now,
		}
		if err := tx.Feedback().Create(ctx, feedback); err != nil {
			return err
		}

		if role != model.RoleStudent {
			return nil
		}

		recomputed, err := tx.Feedback().RatingStatsForMentor(ctx, mentorID)
		if err != nil {
			return err
		}
		recomputed.Average = roundRating(recomputed.Average)
		stats = &recomputed

		return tx.Mentors().UpdateRating(ctx, mentorID, recomputed, now)
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	fields := []zap.Field{
		zap.Stringer("feedback_id", feedback.ID),
		zap.Stringer("session_id", sessionID),
		zap.String("role", string(role)),
		zap.Int("rating", rating),
	}
	if stats != nil {
		fields = append(fields,
			zap.Stringer("mentor_id", mentorID),
			zap.Float64("average_rating", stats.Average),
			zap.Int("rating_count", stats.Count),
		)
	}
	s.logger.Info("Session feedback submitted", fields...)

	return feedback, nil
}

// ListFeedback свой отзыв участника и признак отзыва второй стороны; чужой отзыв не раскрывается
func (s *FeedbackService) ListFeedback(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.SessionFeedback, error) {
	const op = "feedback.list"

	result := &model.SessionFeedback{SessionID: sessionID}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		session, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return apperr.NotFound(op, "session not found")
		}
		if !session.IsParticipant(actor.UserID) {
			return apperr.NotAuthorized(op, "you are not a participant of this session")
		}

		all, err := tx.Feedback().GetBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		for _, f := range all {
			if f.SubmittedBy == actor.UserID {
				result.Mine = f
			} else {
				result.CounterpartSubmitted = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	return result, nil
}
