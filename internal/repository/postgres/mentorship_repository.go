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

const (
	activePairIndex     = "mentorships_active_pair_idx"
	sourceRequestUnique = "mentorships_source_request_id_key"
)

type MentorshipRepository struct {
	*base.Repository
}

func NewMentorshipRepository(q base.Querier) *MentorshipRepository {
	return &MentorshipRepository{Repository: base.NewRepository(q)}
}

const mentorshipColumns = `id, student_id, mentor_id, status, source_request_id, started_at, ended_at, termination_reason`

func scanMentorship(row scanner) (*model.Mentorship, error) {
	var m model.Mentorship
	err := row.Scan(
		&m.ID,
		&m.StudentID,
		&m.MentorID,
		&m.Status,
		&m.SourceRequestID,
		&m.StartedAt,
		&m.EndedAt,
		&m.TerminationReason,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create создаёт наставничество
func (r *MentorshipRepository) Create(ctx context.Context, m *model.Mentorship) error {
	query := `
		INSERT INTO mentorships (id, student_id, mentor_id, status, source_request_id, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.Querier().Exec(ctx, query, m.ID, m.StudentID, m.MentorID, m.Status, m.SourceRequestID, m.StartedAt)
	if err != nil {
		if base.IsUniqueViolation(err, activePairIndex) || base.IsUniqueViolation(err, sourceRequestUnique) {
			// проиграли гонку: у пары уже есть активное наставничество
			return apperr.Wrap(apperr.KindConflict, "mentorship.create", err)
		}
		return fmt.Errorf("create mentorship: %w", err)
	}

	return nil
}

// GetByID получает наставничество по ID
func (r *MentorshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Mentorship, error) {
	query := `SELECT ` + mentorshipColumns + ` FROM mentorships WHERE id = $1`

	m, err := scanMentorship(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentorship: %w", err)
	}

	return m, nil
}

// GetActiveByPair получает активное наставничество пары
func (r *MentorshipRepository) GetActiveByPair(ctx context.Context, studentID, mentorID uuid.UUID) (*model.Mentorship, error) {
	query := `
		SELECT ` + mentorshipColumns + `
		FROM mentorships
		WHERE student_id = $1 AND mentor_id = $2 AND status = $3
	`

	m, err := scanMentorship(r.QueryRow(ctx, query, studentID, mentorID, model.MentorshipStatusActive))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active mentorship by pair: %w", err)
	}

	return m, nil
}

func (r *MentorshipRepository) GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Mentorship, error) {
	query := `SELECT ` + mentorshipColumns + ` FROM mentorships WHERE student_id = $1 ORDER BY started_at DESC`
	return r.list(ctx, "get mentorships by student", query, studentID)
}

func (r *MentorshipRepository) GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.Mentorship, error) {
	query := `SELECT ` + mentorshipColumns + ` FROM mentorships WHERE mentor_id = $1 ORDER BY started_at DESC`
	return r.list(ctx, "get mentorships by mentor", query, mentorID)
}

func (r *MentorshipRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Mentorship, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var mentorships []*model.Mentorship
	for rows.Next() {
		m, err := scanMentorship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentorship: %w", err)
		}
		mentorships = append(mentorships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentorships: %w", err)
	}

	return mentorships, nil
}

// CountActiveByMentor количество активных подопечных ментора
func (r *MentorshipRepository) CountActiveByMentor(ctx context.Context, mentorID uuid.UUID) (int, error) {
	var count int
	err := r.QueryRow(ctx,
		`SELECT COUNT(*) FROM mentorships WHERE mentor_id = $1 AND status = $2`,
		mentorID, model.MentorshipStatusActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active mentorships: %w", err)
	}
	return count, nil
}

// Transition меняет статус наставничества, только если текущий равен from
func (r *MentorshipRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.MentorshipStatus, endedAt time.Time, reason *string) (bool, error) {
	query := `
		UPDATE mentorships
		SET status = $3, ended_at = $4, termination_reason = COALESCE($5, termination_reason)
		WHERE id = $1 AND status = $2
	`

	affected, err := r.ExecAffected(ctx, query, id, from, to, endedAt, reason)
	if err != nil {
		return false, fmt.Errorf("transition mentorship: %w", err)
	}

	return affected > 0, nil
}
