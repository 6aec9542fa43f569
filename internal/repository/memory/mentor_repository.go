package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
)

var errMentorNotFound = errors.New("mentor profile not found")

type mentorRepo struct {
	t *txRepos
}

func (r *mentorRepo) Upsert(ctx context.Context, p *model.MentorProfile) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	existing, ok := r.t.st.mentors[p.MentorID]
	if !ok {
		stored := copyMentor(p)
		stored.AverageRating = 0
		stored.RatingCount = 0
		stored.IsAvailable = true
		stored.IsActive = true
		stored.CreatedAt = p.UpdatedAt
		r.t.st.mentors[p.MentorID] = stored
	} else {
		existing.ExpertiseTags = append([]string(nil), p.ExpertiseTags...)
		existing.MaxMentees = copyMentor(p).MaxMentees
		existing.YearsOfExperience = p.YearsOfExperience
		if !existing.IsActive {
			existing.IsAvailable = true
		}
		existing.IsActive = true
		existing.UpdatedAt = p.UpdatedAt
	}

	stored := r.t.st.mentors[p.MentorID]
	p.AverageRating = stored.AverageRating
	p.RatingCount = stored.RatingCount
	p.IsAvailable = stored.IsAvailable
	p.IsActive = stored.IsActive
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *mentorRepo) GetByID(ctx context.Context, mentorID uuid.UUID) (*model.MentorProfile, error) {
	p, ok := r.t.st.mentors[mentorID]
	if !ok {
		return nil, nil
	}
	return r.view(p), nil
}

func (r *mentorRepo) view(p *model.MentorProfile) *model.MentorProfile {
	c := copyMentor(p)
	c.ActiveMentees = r.t.activeMentees(p.MentorID)
	return c
}

func (r *mentorRepo) List(ctx context.Context, f model.MentorFilter) ([]*model.MentorProfile, int, error) {
	var matched []*model.MentorProfile
	for _, p := range r.t.st.mentors {
		if matchesFilter(p, f) {
			matched = append(matched, r.view(p))
		}
	}

	sortMentors(matched, f.SortBy)

	total := len(matched)
	from := f.Offset()
	if from > total {
		from = total
	}
	to := total
	if f.PageSize > 0 && from+f.PageSize < total {
		to = from + f.PageSize
	}

	return matched[from:to], total, nil
}

func matchesFilter(p *model.MentorProfile, f model.MentorFilter) bool {
	if !p.IsActive {
		return false
	}
	if f.AvailableOnly && !p.IsAvailable {
		return false
	}
	if f.MinRating > 0 && p.AverageRating < f.MinRating {
		return false
	}
	if len(f.Expertise) > 0 && !hasAnyTag(p.ExpertiseTags, f.Expertise) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		found := false
		for _, tag := range p.ExpertiseTags {
			if strings.Contains(strings.ToLower(tag), search) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasAnyTag(tags, wanted []string) bool {
	for _, t := range tags {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}

// sortMentors порядок совпадает с ORDER BY в PostgreSQL-реализации
func sortMentors(mentors []*model.MentorProfile, sortBy model.MentorSort) {
	byID := func(a, b *model.MentorProfile) bool {
		return bytes.Compare(a.MentorID[:], b.MentorID[:]) < 0
	}

	sort.SliceStable(mentors, func(i, j int) bool {
		a, b := mentors[i], mentors[j]
		switch sortBy {
		case model.MentorSortExperience:
			if a.YearsOfExperience != b.YearsOfExperience {
				return a.YearsOfExperience > b.YearsOfExperience
			}
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		case model.MentorSortAvailability:
			if a.IsAvailable != b.IsAvailable {
				return a.IsAvailable
			}
			unlimitedA, unlimitedB := a.MaxMentees == nil, b.MaxMentees == nil
			if unlimitedA != unlimitedB {
				return unlimitedA
			}
			if fa, fb := freeSlots(a), freeSlots(b); fa != fb {
				return fa > fb
			}
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		default:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
			if a.RatingCount != b.RatingCount {
				return a.RatingCount > b.RatingCount
			}
		}
		return byID(a, b)
	})
}

// freeSlots как GREATEST(COALESCE(max_mentees,0) - active_mentees, 0)
func freeSlots(p *model.MentorProfile) int {
	if p.MaxMentees == nil {
		return 0
	}
	return p.FreeSlots()
}

func (r *mentorRepo) ExpertiseAreas(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	areas := []string{}
	for _, p := range r.t.st.mentors {
		if !p.IsActive {
			continue
		}
		for _, tag := range p.ExpertiseTags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			areas = append(areas, tag)
		}
	}
	sort.Strings(areas)
	return areas, nil
}

func (r *mentorRepo) SetAvailability(ctx context.Context, mentorID uuid.UUID, available bool, at time.Time) error {
	return r.update(mentorID, func(p *model.MentorProfile) {
		p.IsAvailable = available
		p.UpdatedAt = at
	})
}

func (r *mentorRepo) SetCapacity(ctx context.Context, mentorID uuid.UUID, maxMentees *int, at time.Time) error {
	return r.update(mentorID, func(p *model.MentorProfile) {
		p.MaxMentees = nil
		if maxMentees != nil {
			v := *maxMentees
			p.MaxMentees = &v
		}
		p.UpdatedAt = at
	})
}

func (r *mentorRepo) Deactivate(ctx context.Context, mentorID uuid.UUID, at time.Time) error {
	return r.update(mentorID, func(p *model.MentorProfile) {
		p.IsActive = false
		p.IsAvailable = false
		p.UpdatedAt = at
	})
}

func (r *mentorRepo) UpdateRating(ctx context.Context, mentorID uuid.UUID, stats model.RatingStats, at time.Time) error {
	return r.update(mentorID, func(p *model.MentorProfile) {
		p.AverageRating = stats.Average
		p.RatingCount = stats.Count
		p.UpdatedAt = at
	})
}

func (r *mentorRepo) update(mentorID uuid.UUID, apply func(p *model.MentorProfile)) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	p, ok := r.t.st.mentors[mentorID]
	if !ok {
		return errMentorNotFound
	}
	apply(p)
	return nil
}
