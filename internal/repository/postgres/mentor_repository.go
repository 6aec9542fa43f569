package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/repository/base"
	"github.com/google/uuid"
)

type MentorRepository struct {
	*base.Repository
}

func NewMentorRepository(q base.Querier) *MentorRepository {
	return &MentorRepository{Repository: base.NewRepository(q)}
}

// mentorProfilesCTE профили с вычисленным числом активных подопечных
const mentorProfilesCTE = `
	WITH profiles AS (
		SELECT p.mentor_id, p.expertise_tags, p.average_rating::float8 AS average_rating, p.rating_count,
		       p.is_available, p.is_active, p.max_mentees, p.years_of_experience, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM mentorships m
		         WHERE m.mentor_id = p.mentor_id AND m.status = 'active')::int AS active_mentees
		FROM mentor_profiles p
	)
`

const mentorColumns = `
	mentor_id, expertise_tags, average_rating, rating_count, is_available, is_active,
	max_mentees, years_of_experience, created_at, updated_at, active_mentees
`

func scanMentor(row scanner) (*model.MentorProfile, error) {
	var p model.MentorProfile
	err := row.Scan(
		&p.MentorID,
		&p.ExpertiseTags,
		&p.AverageRating,
		&p.RatingCount,
		&p.IsAvailable,
		&p.IsActive,
		&p.MaxMentees,
		&p.YearsOfExperience,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.ActiveMentees,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert создаёт профиль ментора или обновляет его при повторной регистрации
func (r *MentorRepository) Upsert(ctx context.Context, p *model.MentorProfile) error {
	query := `
		INSERT INTO mentor_profiles (mentor_id, expertise_tags, max_mentees, years_of_experience,
		                             is_available, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, TRUE, $5, $5)
		ON CONFLICT (mentor_id) DO UPDATE SET
			expertise_tags      = EXCLUDED.expertise_tags,
			max_mentees         = EXCLUDED.max_mentees,
			years_of_experience = EXCLUDED.years_of_experience,
			is_available        = CASE WHEN mentor_profiles.is_active THEN mentor_profiles.is_available ELSE TRUE END,
			is_active           = TRUE,
			updated_at          = EXCLUDED.updated_at
		RETURNING average_rating::float8, rating_count, is_available, is_active, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		p.MentorID,
		p.ExpertiseTags,
		p.MaxMentees,
		p.YearsOfExperience,
		p.UpdatedAt,
	).Scan(&p.AverageRating, &p.RatingCount, &p.IsAvailable, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert mentor profile: %w", err)
	}

	return nil
}

// GetByID получает профиль ментора
func (r *MentorRepository) GetByID(ctx context.Context, mentorID uuid.UUID) (*model.MentorProfile, error) {
	query := mentorProfilesCTE + `SELECT ` + mentorColumns + ` FROM profiles WHERE mentor_id = $1`

	p, err := scanMentor(r.QueryRow(ctx, query, mentorID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentor profile: %w", err)
	}

	return p, nil
}

// List ищет активных менторов по фильтру и возвращает страницу и общее число
func (r *MentorRepository) List(ctx context.Context, f model.MentorFilter) ([]*model.MentorProfile, int, error) {
	where, args := mentorFilterClause(f)

	var total int
	countQuery := mentorProfilesCTE + `SELECT COUNT(*) FROM profiles WHERE ` + where
	if err := r.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count mentors: %w", err)
	}

	args = append(args, f.PageSize, f.Offset())
	query := mentorProfilesCTE + `SELECT ` + mentorColumns + ` FROM profiles WHERE ` + where +
		` ORDER BY ` + mentorOrderClause(f.SortBy) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list mentors: %w", err)
	}
	defer rows.Close()

	var mentors []*model.MentorProfile
	for rows.Next() {
		p, err := scanMentor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan mentor profile: %w", err)
		}
		mentors = append(mentors, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate mentors: %w", err)
	}

	return mentors, total, nil
}

func mentorFilterClause(f model.MentorFilter) (string, []any) {
	conds := []string{"is_active"}
	var args []any

	if len(f.Expertise) > 0 {
		args = append(args, f.Expertise)
		conds = append(conds, fmt.Sprintf("expertise_tags && $%d", len(args)))
	}
	if f.MinRating > 0 {
		args = append(args, f.MinRating)
		conds = append(conds, fmt.Sprintf("average_rating >= $%d", len(args)))
	}
	if f.AvailableOnly {
		conds = append(conds, "is_available")
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+search+"%")
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(expertise_tags) AS tag WHERE tag ILIKE $%d)", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

func mentorOrderClause(sortBy model.MentorSort) string {
	switch sortBy {
	case model.MentorSortExperience:
		return "years_of_experience DESC, average_rating DESC, mentor_id"
	case model.MentorSortAvailability:
		return "is_available DESC, (max_mentees IS NULL) DESC, GREATEST(COALESCE(max_mentees, 0) - active_mentees, 0) DESC, average_rating DESC, mentor_id"
	default:
		return "average_rating DESC, rating_count DESC, mentor_id"
	}
}

// ExpertiseAreas уникальные теги активных менторов
func (r *MentorRepository) ExpertiseAreas(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT tag
		FROM mentor_profiles, unnest(expertise_tags) AS tag
		WHERE is_active
		ORDER BY tag
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get expertise areas: %w", err)
	}
	defer rows.Close()

	areas := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan expertise area: %w", err)
		}
		areas = append(areas, tag)
	}

	return areas, rows.Err()
}

// SetAvailability обновляет флаг доступности
func (r *MentorRepository) SetAvailability(ctx context.Context, mentorID uuid.UUID, available bool, at time.Time) error {
	return r.update(ctx, "set availability",
		`UPDATE mentor_profiles SET is_available = $2, updated_at = $3 WHERE mentor_id = $1`,
		mentorID, available, at)
}

// SetCapacity обновляет лимит подопечных (nil означает без ограничения)
func (r *MentorRepository) SetCapacity(ctx context.Context, mentorID uuid.UUID, maxMentees *int, at time.Time) error {
	return r.update(ctx, "set capacity",
		`UPDATE mentor_profiles SET max_mentees = $2, updated_at = $3 WHERE mentor_id = $1`,
		mentorID, maxMentees, at)
}

// Deactivate скрывает профиль из каталога; профиль не удаляется
func (r *MentorRepository) Deactivate(ctx context.Context, mentorID uuid.UUID, at time.Time) error {
	return r.update(ctx, "deactivate mentor",
		`UPDATE mentor_profiles SET is_active = FALSE, is_available = FALSE, updated_at = $2 WHERE mentor_id = $1`,
		mentorID, at)
}

// UpdateRating записывает пересчитанный рейтинг
func (r *MentorRepository) UpdateRating(ctx context.Context, mentorID uuid.UUID, stats model.RatingStats, at time.Time) error {
	return r.update(ctx, "update rating",
		`UPDATE mentor_profiles SET average_rating = $2, rating_count = $3, updated_at = $4 WHERE mentor_id = $1`,
		mentorID, stats.Average, stats.Count, at)
}

func (r *MentorRepository) update(ctx context.Context, op, query string, args ...any) error {
	affected, err := r.ExecAffected(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: mentor profile not found", op)
	}

	return nil
}
