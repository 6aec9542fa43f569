package postgres

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/repository/base"
	"github.com/google/uuid"
)

const feedbackSessionRoleKey = "session_feedback_session_role_key"

type FeedbackRepository struct {
	*base.Repository
}

func NewFeedbackRepository(q base.Querier) *FeedbackRepository {
	return &FeedbackRepository{Repository: base.NewRepository(q)}
}

const feedbackColumns = `id, session_id, submitted_by, role, rating, comments, created_at`

// Create сохраняет отзыв; второй отзыв той же роли на сессию отклоняется уникальным ключом
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	query := `
		INSERT INTO session_feedback (id, session_id, submitted_by, role, rating, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.Querier().Exec(ctx, query, f.ID, f.SessionID, f.SubmittedBy, f.Role, f.Rating, f.Comments, f.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err, feedbackSessionRoleKey) {
			return apperr.Wrap(apperr.KindDuplicateFeedback, "feedback.create", err)
		}
		return fmt.Errorf("create feedback: %w", err)
	}

	return nil
}

func (r *FeedbackRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM session_feedback WHERE session_id = $1 ORDER BY created_at`
	return r.list(ctx, "get feedback by session", query, sessionID)
}

func (r *FeedbackRepository) GetBySubmitter(ctx context.Context, userID uuid.UUID) ([]*model.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM session_feedback WHERE submitted_by = $1 ORDER BY created_at`
	return r.list(ctx, "get feedback by submitter", query, userID)
}

func (r *FeedbackRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Feedback, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var feedback []*model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.SessionID, &f.SubmittedBy, &f.Role, &f.Rating, &f.Comments, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		feedback = append(feedback, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}

	return feedback, nil
}

// Exists проверяет, оставила ли роль отзыв на сессию
func (r *FeedbackRepository) Exists(ctx context.Context, sessionID uuid.UUID, role model.Role) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM session_feedback WHERE session_id = $1 AND role = $2)`,
		sessionID, role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check feedback exists: %w", err)
	}
	return exists, nil
}

// RatingStatsForMentor среднее арифметическое оценок студентов по всем сессиям ментора
func (r *FeedbackRepository) RatingStatsForMentor(ctx context.Context, mentorID uuid.UUID) (model.RatingStats, error) {
	query := `
		SELECT COALESCE(AVG(f.rating), 0)::float8, COUNT(*)
		FROM session_feedback f
		JOIN mentorship_sessions s ON s.id = f.session_id
		WHERE s.mentor_id = $1 AND f.role = 'student'
	`

	var stats model.RatingStats
	if err := r.QueryRow(ctx, query, mentorID).Scan(&stats.Average, &stats.Count); err != nil {
		return model.RatingStats{}, fmt.Errorf("get mentor rating stats: %w", err)
	}

	return stats, nil
}
