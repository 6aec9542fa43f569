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

const sessionOverlapConstraint = "mentorship_sessions_no_overlap"

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(q base.Querier) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(q)}
}

const sessionColumns = `
	id, mentorship_id, mentor_id, student_id, start_time, end_time, status,
	meeting_link, agenda, cancelled_by, no_show_reported_by, created_at, updated_at
`

func scanSession(row scanner) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.MentorshipID,
		&s.MentorID,
		&s.StudentID,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.MeetingLink,
		&s.Agenda,
		&s.CancelledBy,
		&s.NoShowReportedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create создаёт сессию; пересечение с другой scheduled-сессией ментора отклоняется ограничением БД
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO mentorship_sessions (id, mentorship_id, mentor_id, student_id, start_time, end_time,
		                                 status, meeting_link, agenda, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`

	_, err := r.Querier().Exec(
		ctx, query,
		s.ID,
		s.MentorshipID,
		s.MentorID,
		s.StudentID,
		s.StartTime,
		s.EndTime,
		s.Status,
		s.MeetingLink,
		s.Agenda,
		s.CreatedAt,
	)

	if err != nil {
		if base.IsExclusionViolation(err, sessionOverlapConstraint) {
			return apperr.Wrap(apperr.KindTimeConflict, "session.create", err)
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM mentorship_sessions WHERE id = $1`

	s, err := scanSession(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return s, nil
}

func (r *SessionRepository) GetByMentorship(ctx context.Context, mentorshipID uuid.UUID) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM mentorship_sessions WHERE mentorship_id = $1 ORDER BY start_time`
	return r.list(ctx, "get sessions by mentorship", query, mentorshipID)
}

func (r *SessionRepository) GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM mentorship_sessions WHERE student_id = $1 ORDER BY start_time`
	return r.list(ctx, "get sessions by student", query, studentID)
}

func (r *SessionRepository) GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM mentorship_sessions WHERE mentor_id = $1 ORDER BY start_time`
	return r.list(ctx, "get sessions by mentor", query, mentorID)
}

// FindOverlapping scheduled-сессии ментора, пересекающие полуинтервал [start,end)
func (r *SessionRepository) FindOverlapping(ctx context.Context, mentorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM mentorship_sessions
		WHERE mentor_id = $1
		  AND status = 'scheduled'
		  AND start_time < $3
		  AND $2 < end_time
		  AND id <> $4
		ORDER BY start_time
	`
	return r.list(ctx, "find overlapping sessions", query, mentorID, start, end, excludeID)
}

func (r *SessionRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Session, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Reschedule переносит сессию, пока она в статусе scheduled
func (r *SessionRepository) Reschedule(ctx context.Context, id uuid.UUID, start, end, at time.Time) (bool, error) {
	query := `
		UPDATE mentorship_sessions
		SET start_time = $2, end_time = $3, updated_at = $4
		WHERE id = $1 AND status = 'scheduled'
	`

	affected, err := r.ExecAffected(ctx, query, id, start, end, at)
	if err != nil {
		if base.IsExclusionViolation(err, sessionOverlapConstraint) {
			return false, apperr.Wrap(apperr.KindTimeConflict, "session.reschedule", err)
		}
		return false, fmt.Errorf("reschedule session: %w", err)
	}

	return affected > 0, nil
}

// Transition меняет статус сессии, если текущий входит в from
func (r *SessionRepository) Transition(ctx context.Context, id uuid.UUID, from []model.SessionStatus, to model.SessionStatus, by *uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE mentorship_sessions
		SET status = $3::varchar,
		    cancelled_by = CASE WHEN $3::varchar = 'cancelled' THEN $4::uuid ELSE cancelled_by END,
		    no_show_reported_by = CASE WHEN $3::varchar = 'no_show' THEN $4::uuid ELSE no_show_reported_by END,
		    updated_at = $5
		WHERE id = $1 AND status = ANY($2)
	`

	affected, err := r.ExecAffected(ctx, query, id, statusStrings(from), string(to), by, at)
	if err != nil {
		return false, fmt.Errorf("transition session: %w", err)
	}

	return affected > 0, nil
}

// CancelFutureByMentorship отменяет все ещё не начавшиеся scheduled-сессии наставничества
func (r *SessionRepository) CancelFutureByMentorship(ctx context.Context, mentorshipID uuid.UUID, after time.Time, by uuid.UUID) (int64, error) {
	query := `
		UPDATE mentorship_sessions
		SET status = 'cancelled', cancelled_by = $3, updated_at = $2
		WHERE mentorship_id = $1 AND status = 'scheduled' AND start_time > $2
	`

	affected, err := r.ExecAffected(ctx, query, mentorshipID, after, by)
	if err != nil {
		return 0, fmt.Errorf("cancel future sessions: %w", err)
	}

	return affected, nil
}

// CompleteElapsed помечает завершёнными прошедшие scheduled-сессии
func (r *SessionRepository) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE mentorship_sessions
		SET status = 'completed', updated_at = $1
		WHERE status = 'scheduled' AND end_time <= $1
	`

	affected, err := r.ExecAffected(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("complete elapsed sessions: %w", err)
	}

	return affected, nil
}

func statusStrings(statuses []model.SessionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
