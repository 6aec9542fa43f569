package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
)

type feedbackRepo struct {
	t *txRepos
}

func (r *feedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	for _, existing := range r.t.st.feedback {
		if existing.SessionID == f.SessionID && existing.Role == f.Role {
			return apperr.New(apperr.KindDuplicateFeedback, "feedback.create", "feedback already submitted for session")
		}
	}

	stored := *f
	r.t.st.feedback[f.ID] = &stored
	return nil
}

func (r *feedbackRepo) GetBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.Feedback, error) {
	return r.filter(func(f *model.Feedback) bool { return f.SessionID == sessionID }), nil
}

func (r *feedbackRepo) GetBySubmitter(ctx context.Context, userID uuid.UUID) ([]*model.Feedback, error) {
	return r.filter(func(f *model.Feedback) bool { return f.SubmittedBy == userID }), nil
}

func (r *feedbackRepo) filter(keep func(*model.Feedback) bool) []*model.Feedback {
	var out []*model.Feedback
	for _, f := range r.t.st.feedback {
		if keep(f) {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *feedbackRepo) Exists(ctx context.Context, sessionID uuid.UUID, role model.Role) (bool, error) {
	for _, f := range r.t.st.feedback {
		if f.SessionID == sessionID && f.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *feedbackRepo) RatingStatsForMentor(ctx context.Context, mentorID uuid.UUID) (model.RatingStats, error) {
	var sum, count int
	for _, f := range r.t.st.feedback {
		if f.Role != model.RoleStudent {
			continue
		}
		s, ok := r.t.st.sessions[f.SessionID]
		if !ok || s.MentorID != mentorID {
			continue
		}
		sum += f.Rating
		count++
	}

	if count == 0 {
		return model.RatingStats{}, nil
	}
	return model.RatingStats{Average: float64(sum) / float64(count), Count: count}, nil
}
