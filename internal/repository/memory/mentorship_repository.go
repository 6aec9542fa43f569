package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
)

type mentorshipRepo struct {
	t *txRepos
}

func (r *mentorshipRepo) Create(ctx context.Context, m *model.Mentorship) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	for _, existing := range r.t.st.mentorships {
		if existing.SourceRequestID == m.SourceRequestID {
			return apperr.New(apperr.KindConflict, "mentorship.create", "mentorship already created for request")
		}
		if m.IsActive() && existing.IsActive() && existing.StudentID == m.StudentID && existing.MentorID == m.MentorID {
			return apperr.New(apperr.KindConflict, "mentorship.create", "active mentorship already exists for pair")
		}
	}

	stored := *m
	r.t.st.mentorships[m.ID] = &stored
	return nil
}

func (r *mentorshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Mentorship, error) {
	m, ok := r.t.st.mentorships[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r *mentorshipRepo) GetActiveByPair(ctx context.Context, studentID, mentorID uuid.UUID) (*model.Mentorship, error) {
	for _, m := range r.t.st.mentorships {
		if m.IsActive() && m.StudentID == studentID && m.MentorID == mentorID {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *mentorshipRepo) GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Mentorship, error) {
	return r.filter(func(m *model.Mentorship) bool { return m.StudentID == studentID }), nil
}

func (r *mentorshipRepo) GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.Mentorship, error) {
	return r.filter(func(m *model.Mentorship) bool { return m.MentorID == mentorID }), nil
}

func (r *mentorshipRepo) filter(keep func(*model.Mentorship) bool) []*model.Mentorship {
	var out []*model.Mentorship
	for _, m := range r.t.st.mentorships {
		if keep(m) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *mentorshipRepo) CountActiveByMentor(ctx context.Context, mentorID uuid.UUID) (int, error) {
	return r.t.activeMentees(mentorID), nil
}

func (r *mentorshipRepo) Transition(ctx context.Context, id uuid.UUID, from, to model.MentorshipStatus, endedAt time.Time, reason *string) (bool, error) {
	if err := r.t.writable(); err != nil {
		return false, err
	}

	m, ok := r.t.st.mentorships[id]
	if !ok || m.Status != from {
		return false, nil
	}

	m.Status = to
	m.EndedAt = &endedAt
	if reason != nil {
		v := *reason
		m.TerminationReason = &v
	}
	return true, nil
}
