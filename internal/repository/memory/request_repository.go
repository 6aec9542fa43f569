package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
)

type requestRepo struct {
	t *txRepos
}

func (r *requestRepo) Create(ctx context.Context, req *model.MentorshipRequest) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	if req.Status == model.RequestStatusPending {
		for _, existing := range r.t.st.requests {
			if existing.IsPending() && existing.StudentID == req.StudentID && existing.MentorID == req.MentorID {
				return apperr.New(apperr.KindDuplicateRequest, "request.create", "pending request already exists for pair")
			}
		}
	}

	stored := *req
	r.t.st.requests[req.ID] = &stored
	return nil
}

func (r *requestRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.MentorshipRequest, error) {
	req, ok := r.t.st.requests[id]
	if !ok {
		return nil, nil
	}
	c := *req
	return &c, nil
}

func (r *requestRepo) GetPendingByPair(ctx context.Context, studentID, mentorID uuid.UUID) (*model.MentorshipRequest, error) {
	for _, req := range r.t.st.requests {
		if req.IsPending() && req.StudentID == studentID && req.MentorID == mentorID {
			c := *req
			return &c, nil
		}
	}
	return nil, nil
}

func (r *requestRepo) GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.MentorshipRequest, error) {
	return r.filter(func(req *model.MentorshipRequest) bool { return req.StudentID == studentID }), nil
}

func (r *requestRepo) GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.MentorshipRequest, error) {
	return r.filter(func(req *model.MentorshipRequest) bool { return req.MentorID == mentorID }), nil
}

// filter новые заявки первыми, как ORDER BY created_at DESC
func (r *requestRepo) filter(keep func(*model.MentorshipRequest) bool) []*model.MentorshipRequest {
	var out []*model.MentorshipRequest
	for _, req := range r.t.st.requests {
		if keep(req) {
			c := *req
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *requestRepo) Transition(ctx context.Context, id uuid.UUID, from, to model.RequestStatus, decidedAt time.Time, reason *string) (bool, error) {
	if err := r.t.writable(); err != nil {
		return false, err
	}

	req, ok := r.t.st.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}

	req.Status = to
	req.DecidedAt = &decidedAt
	if reason != nil {
		v := *reason
		req.RejectionReason = &v
	}
	return true, nil
}
