package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
)

type sessionRepo struct {
	t *txRepos
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	if s.Status == model.SessionStatusScheduled && r.overlaps(s.MentorID, s.StartTime, s.EndTime, s.ID) {
		return apperr.New(apperr.KindTimeConflict, "session.create", "mentor already has a session in this interval")
	}

	stored := *s
	r.t.st.sessions[s.ID] = &stored
	return nil
}

func (r *sessionRepo) overlaps(mentorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) bool {
	for _, other := range r.t.st.sessions {
		if other.ID == excludeID || other.MentorID != mentorID || other.Status != model.SessionStatusScheduled {
			continue
		}
		if model.Overlaps(start, end, other.StartTime, other.EndTime) {
			return true
		}
	}
	return false
}

func (r *sessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s, ok := r.t.st.sessions[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *sessionRepo) GetByMentorship(ctx context.Context, mentorshipID uuid.UUID) ([]*model.Session, error) {
	return r.filter(func(s *model.Session) bool { return s.MentorshipID == mentorshipID }), nil
}

func (r *sessionRepo) GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Session, error) {
	return r.filter(func(s *model.Session) bool { return s.StudentID == studentID }), nil
}

func (r *sessionRepo) GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.Session, error) {
	return r.filter(func(s *model.Session) bool { return s.MentorID == mentorID }), nil
}

func (r *sessionRepo) FindOverlapping(ctx context.Context, mentorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*model.Session, error) {
	return r.filter(func(s *model.Session) bool {
		return s.ID != excludeID &&
			s.MentorID == mentorID &&
			s.Status == model.SessionStatusScheduled &&
			model.Overlaps(start, end, s.StartTime, s.EndTime)
	}), nil
}

// filter по возрастанию start_time
func (r *sessionRepo) filter(keep func(*model.Session) bool) []*model.Session {
	var out []*model.Session
	for _, s := range r.t.st.sessions {
		if keep(s) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *sessionRepo) Reschedule(ctx context.Context, id uuid.UUID, start, end, at time.Time) (bool, error) {
	if err := r.t.writable(); err != nil {
		return false, err
	}

	s, ok := r.t.st.sessions[id]
	if !ok || s.Status != model.SessionStatusScheduled {
		return false, nil
	}
	if r.overlaps(s.MentorID, start, end, id) {
		return false, apperr.New(apperr.KindTimeConflict, "session.reschedule", "mentor already has a session in this interval")
	}

	s.StartTime = start
	s.EndTime = end
	s.UpdatedAt = at
	return true, nil
}

func (r *sessionRepo) Transition(ctx context.Context, id uuid.UUID, from []model.SessionStatus, to model.SessionStatus, by *uuid.UUID, at time.Time) (bool, error) {
	if err := r.t.writable(); err != nil {
		return false, err
	}

	s, ok := r.t.st.sessions[id]
	if !ok || !statusIn(s.Status, from) {
		return false, nil
	}

	s.Status = to
	switch to {
	case model.SessionStatusCancelled:
		s.CancelledBy = copyID(by)
	case model.SessionStatusNoShow:
		s.NoShowReportedBy = copyID(by)
	}
	s.UpdatedAt = at
	return true, nil
}

func (r *sessionRepo) CancelFutureByMentorship(ctx context.Context, mentorshipID uuid.UUID, after time.Time, by uuid.UUID) (int64, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}

	var n int64
	for _, s := range r.t.st.sessions {
		if s.MentorshipID == mentorshipID && s.Status == model.SessionStatusScheduled && s.StartTime.After(after) {
			s.Status = model.SessionStatusCancelled
			s.CancelledBy = copyID(&by)
			s.UpdatedAt = after
			n++
		}
	}
	return n, nil
}

func (r *sessionRepo) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}

	var n int64
	for _, s := range r.t.st.sessions {
		if s.Status == model.SessionStatusScheduled && !s.EndTime.After(now) {
			s.Status = model.SessionStatusCompleted
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func statusIn(status model.SessionStatus, set []model.SessionStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
