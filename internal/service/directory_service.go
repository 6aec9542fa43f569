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

// DirectoryService каталог менторов
type DirectoryService struct {
	store  repository.Store
	logger *zap.Logger
	options
}

func NewDirectoryService(store repository.Store, logger *zap.Logger, opts ...Option) *DirectoryService {
	return &DirectoryService{
		store:   store,
		logger:  logger,
		options: newOptions(opts),
	}
}

type RegisterMentorInput struct {
	ExpertiseTags     []string
	YearsOfExperience int
	MaxMentees        *int
}

// RegisterMentor включает менторство для пользователя или обновляет его профиль
func (s *DirectoryService) RegisterMentor(ctx context.Context, actor model.Actor, in RegisterMentorInput) (*model.MentorProfile, error) {
	const op = "mentor.register"

	if err := requireMentor(op, actor); err != nil {
		return nil, s.failed(op, err)
	}

	tags, err := normalizeTags(op, in.ExpertiseTags)
	if err != nil {
		return nil, s.failed(op, err)
	}
	if in.YearsOfExperience < 0 || in.YearsOfExperience > maxYearsExperience {
		return nil, s.failed(op, apperr.Validation(op, "years of experience must be between 0 and 70"))
	}
	if err := validateCapacity(op, in.MaxMentees); err != nil {
		return nil, s.failed(op, err)
	}

	profile := &model.MentorProfile{
		MentorID:          actor.UserID,
		ExpertiseTags:     tags,
		MaxMentees:        in.MaxMentees,
		YearsOfExperience: in.YearsOfExperience,
		UpdatedAt:         s.clock(),
	}

	var saved *model.MentorProfile
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Mentors().Upsert(ctx, profile); err != nil {
			return err
		}
		saved, err = tx.Mentors().GetByID(ctx, actor.UserID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, fmt.Errorf("register mentor: %w", err))
	}

	s.logger.Info("Mentor registered",
		zap.Stringer("mentor_id", actor.UserID),
		zap.Strings("expertise", tags),
	)

	return saved, nil
}

// GetMentor профиль ментора, в том числе деактивированного
func (s *DirectoryService) GetMentor(ctx context.Context, mentorID uuid.UUID) (*model.MentorProfile, error) {
	const op = "mentor.get"

	var profile *model.MentorProfile
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		profile, err = tx.Mentors().GetByID(ctx, mentorID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, fmt.Errorf("get mentor: %w", err))
	}
	if profile == nil {
		return nil, s.failed(op, apperr.NotFound(op, "mentor not found"))
	}

	return profile, nil
}

// ListMentors поиск по каталогу с фильтрацией, сортировкой и пагинацией
func (s *DirectoryService) ListMentors(ctx context.Context, filter model.MentorFilter) (*model.MentorPage, error) {
	const op = "mentor.list"

	filter, err := normalizeFilter(op, filter)
	if err != nil {
		return nil, s.failed(op, err)
	}

	var (
		mentors []*model.MentorProfile
		total   int
	)
	err = s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		mentors, total, err = tx.Mentors().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, s.failed(op, fmt.Errorf("list mentors: %w", err))
	}

	if mentors == nil {
		mentors = []*model.MentorProfile{}
	}

	return &model.MentorPage{
		Mentors:    mentors,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}, nil
}

// ExpertiseAreas все теги активных менторов по алфавиту
func (s *DirectoryService) ExpertiseAreas(ctx context.Context) ([]string, error) {
	var areas []string
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		areas, err = tx.Mentors().ExpertiseAreas(ctx)
		return err
	})
	if err != nil {
		return nil, s.failed("mentor.expertise", fmt.Errorf("get expertise areas: %w", err))
	}
	return areas, nil
}

// SetAvailability ментор открывает или закрывает приём заявок
func (s *DirectoryService) SetAvailability(ctx context.Context, actor model.Actor, available bool) (*model.MentorProfile, error) {
	const op = "mentor.set_availability"

	profile, err := s.updateOwn(ctx, op, actor, func(ctx context.Context, tx repository.Tx, p *model.MentorProfile) error {
		if available && !p.IsActive {
			return apperr.InvalidState(op, "mentor profile is deactivated")
		}
		return tx.Mentors().SetAvailability(ctx, p.MentorID, available, s.clock())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mentor availability changed",
		zap.Stringer("mentor_id", actor.UserID),
		zap.Bool("available", available),
	)

	return profile, nil
}

// SetCapacity лимит одновременных подопечных; nil снимает ограничение
func (s *DirectoryService) SetCapacity(ctx context.Context, actor model.Actor, maxMentees *int) (*model.MentorProfile, error) {
	const op = "mentor.set_capacity"

	if err := validateCapacity(op, maxMentees); err != nil {
		return nil, s.failed(op, err)
	}

	profile, err := s.updateOwn(ctx, op, actor, func(ctx context.Context, tx repository.Tx, p *model.MentorProfile) error {
		return tx.Mentors().SetCapacity(ctx, p.MentorID, maxMentees, s.clock())
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.Stringer("mentor_id", actor.UserID)}
	if maxMentees != nil {
		fields = append(fields, zap.Int("max_mentees", *maxMentees))
	}
	s.logger.Info("Mentor capacity changed", fields...)

	return profile, nil
}

// Deactivate скрывает ментора из каталога; текущие наставничества не затрагиваются
func (s *DirectoryService) Deactivate(ctx context.Context, actor model.Actor) (*model.MentorProfile, error) {
	const op = "mentor.deactivate"

	profile, err := s.updateOwn(ctx, op, actor, func(ctx context.Context, tx repository.Tx, p *model.MentorProfile) error {
		return tx.Mentors().Deactivate(ctx, p.MentorID, s.clock())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mentor deactivated", zap.Stringer("mentor_id", actor.UserID))

	return profile, nil
}

func (s *DirectoryService) updateOwn(
	ctx context.Context,
	op string,
	actor model.Actor,
	apply func(ctx context.Context, tx repository.Tx, p *model.MentorProfile) error,
) (*model.MentorProfile, error) {
	if err := requireMentor(op, actor); err != nil {
		return nil, s.failed(op, err)
	}

	var updated *model.MentorProfile
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Mentors().GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound(op, "mentor profile not found")
		}

		if err := apply(ctx, tx, p); err != nil {
			return err
		}

		updated, err = tx.Mentors().GetByID(ctx, actor.UserID)
		return err
	})
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	return updated, nil
}

func requireMentor(op string, actor model.Actor) error {
	if actor.Role != model.RoleMentor || actor.UserID == uuid.Nil {
		return apperr.NotAuthorized(op, "only mentors can manage a mentor profile")
	}
	return nil
}

func validateCapacity(op string, maxMentees *int) error {
	if maxMentees != nil && *maxMentees < 1 {
		return apperr.Validation(op, "capacity must be at least 1")
	}
	return nil
}

// normalizeTags обрезает пробелы, убирает пустые и повторяющиеся теги, сохраняя порядок
func normalizeTags(op string, raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))

	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if textLength(tag) > maxTagLength {
			return nil, apperr.Validation(op, "expertise tag must be at most 50 characters")
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		return nil, apperr.Validation(op, "at least one expertise area is required")
	}
	if len(tags) > maxExpertiseTags {
		return nil, apperr.Validation(op, "at most 20 expertise areas are allowed")
	}

	return tags, nil
}

func normalizeFilter(op string, f model.MentorFilter) (model.MentorFilter, error) {
	switch f.SortBy {
	case "":
		f.SortBy = model.MentorSortRating
	case model.MentorSortRating, model.MentorSortExperience, model.MentorSortAvailability:
	default:
		return f, apperr.Validation(op, "sort must be one of rating, experience, availability")
	}

	if f.MinRating < 0 || f.MinRating > 5 {
		return f, apperr.Validation(op, "minimum rating must be between 0 and 5")
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	var expertise []string
	for _, tag := range f.Expertise {
		if tag = strings.TrimSpace(tag); tag != "" {
			expertise = append(expertise, tag)
		}
	}
	f.Expertise = expertise
	f.Search = strings.TrimSpace(f.Search)

	return f, nil
}
