package service

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/profile"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DashboardService проекции состояния для студента и ментора
type DashboardService struct {
	store    repository.Store
	profiles profile.Lookup
	logger   *zap.Logger
	options
}

func NewDashboardService(store repository.Store, profiles profile.Lookup, logger *zap.Logger, opts ...Option) *DashboardService {
	return &DashboardService{
		store:    store,
		profiles: profiles,
		logger:   logger,
		options:  newOptions(opts),
	}
}

// dashboardData снимок записей пользователя, прочитанный одним View
type dashboardData struct {
	requests    []*model.MentorshipRequest
	mentorships []*model.Mentorship
	sessions    []*model.Session
	ownFeedback map[uuid.UUID]bool
	mentorTags  map[uuid.UUID][]string
}

// GetDashboardView дашборд пользователя в роли role. Только чтение.
func (s *DashboardService) GetDashboardView(ctx context.Context, userID uuid.UUID, role model.Role) (*model.DashboardView, error) {
	const op = "dashboard.get"

	if role != model.RoleStudent && role != model.RoleMentor {
		return nil, s.failed(op, apperr.Validation(op, "role must be student or mentor"))
	}

	data, err := s.load(ctx, userID, role)
	if err != nil {
		return nil, s.failed(op, wrapInfra(op, err))
	}

	now := s.clock()
	names := s.counterparts(ctx, userID, data)

	view := &model.DashboardView{
		UserID:            userID,
		Role:              role,
		ActiveMentorships: []*model.MentorshipView{},
		PendingRequests:   []*model.RequestView{},
		PastRequests:      []*model.RequestView{},
		UpcomingSessions:  []*model.SessionView{},
		PastSessions:      []*model.SessionView{},
	}

	for _, req := range data.requests {
		rv := requestView(req, names[counterpartOf(role, req.StudentID, req.MentorID)])
		if req.IsPending() {
			view.PendingRequests = append(view.PendingRequests, rv)
		} else {
			view.PastRequests = append(view.PastRequests, rv)
		}
	}

	upcomingByMentorship := make(map[uuid.UUID]int)
	for _, session := range data.sessions {
		sv := sessionView(session, names[session.Counterpart(userID)], data.ownFeedback[session.ID], now)
		if sv.Status == model.SessionStatusScheduled {
			view.UpcomingSessions = append(view.UpcomingSessions, sv)
			upcomingByMentorship[session.MentorshipID]++
		} else {
			view.PastSessions = append(view.PastSessions, sv)
		}
	}
	sort.SliceStable(view.UpcomingSessions, func(i, j int) bool {
		return view.UpcomingSessions[i].StartTime.Before(view.UpcomingSessions[j].StartTime)
	})
	sort.SliceStable(view.PastSessions, func(i, j int) bool {
		return view.PastSessions[i].StartTime.After(view.PastSessions[j].StartTime)
	})

	for _, m := range data.mentorships {
		if !m.IsActive() {
			continue
		}
		mv := &model.MentorshipView{
			ID:               m.ID,
			Counterpart:      names[m.Counterpart(userID)],
			Status:           m.Status,
			StartedAt:        m.StartedAt,
			UpcomingSessions: upcomingByMentorship[m.ID],
		}
		if role == model.RoleStudent {
			mv.ExpertiseTags = data.mentorTags[m.MentorID]
		}
		view.ActiveMentorships = append(view.ActiveMentorships, mv)
	}

	view.Stats = model.DashboardStats{
		PendingRequests:   len(view.PendingRequests),
		ActiveMentorships: len(view.ActiveMentorships),
		UpcomingSessions:  len(view.UpcomingSessions),
		TotalSessions:     len(data.sessions),
	}

	return view, nil
}

func (s *DashboardService) load(ctx context.Context, userID uuid.UUID, role model.Role) (*dashboardData, error) {
	data := &dashboardData{
		ownFeedback: make(map[uuid.UUID]bool),
		mentorTags:  make(map[uuid.UUID][]string),
	}

	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if role == model.RoleStudent {
			if data.requests, err = tx.Requests().GetByStudent(ctx, userID); err != nil {
				return err
			}
			if data.mentorships, err = tx.Mentorships().GetByStudent(ctx, userID); err != nil {
				return err
			}
			if data.sessions, err = tx.Sessions().GetByStudent(ctx, userID); err != nil {
				return err
			}
		} else {
			if data.requests, err = tx.Requests().GetByMentor(ctx, userID); err != nil {
				return err
			}
			if data.mentorships, err = tx.Mentorships().GetByMentor(ctx, userID); err != nil {
				return err
			}
			if data.sessions, err = tx.Sessions().GetByMentor(ctx, userID); err != nil {
				return err
			}
		}

		feedback, err := tx.Feedback().GetBySubmitter(ctx, userID)
		if err != nil {
			return err
		}
		for _, f := range feedback {
			if f.Role == role {
				data.ownFeedback[f.SessionID] = true
			}
		}

		if role != model.RoleStudent {
			return nil
		}
		for _, m := range data.mentorships {
			if !m.IsActive() {
				continue
			}
			if _, ok := data.mentorTags[m.MentorID]; ok {
				continue
			}
			mentor, err := tx.Mentors().GetByID(ctx, m.MentorID)
			if err != nil {
				return err
			}
			if mentor != nil {
				data.mentorTags[m.MentorID] = mentor.ExpertiseTags
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// counterparts имена второй стороны; при сбое профилей остаются только идентификаторы
func (s *DashboardService) counterparts(ctx context.Context, userID uuid.UUID, data *dashboardData) map[uuid.UUID]model.ProfileSummary {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if id == userID {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, r := range data.requests {
		add(r.StudentID)
		add(r.MentorID)
	}
	for _, m := range data.mentorships {
		add(m.StudentID)
		add(m.MentorID)
	}
	for _, session := range data.sessions {
		add(session.StudentID)
		add(session.MentorID)
	}

	names := make(map[uuid.UUID]model.ProfileSummary, len(ids))
	for _, id := range ids {
		names[id] = model.ProfileSummary{UserID: id}
	}
	if len(ids) == 0 || s.profiles == nil {
		return names
	}

	found, err := s.profiles.Summaries(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to load counterpart profiles", zap.Int("count", len(ids)), zap.Error(err))
		return names
	}
	for id, summary := range found {
		summary.UserID = id
		names[id] = summary
	}

	return names
}

func counterpartOf(role model.Role, studentID, mentorID uuid.UUID) uuid.UUID {
	if role == model.RoleStudent {
		return mentorID
	}
	return studentID
}

func requestView(req *model.MentorshipRequest, counterpart model.ProfileSummary) *model.RequestView {
	rv := &model.RequestView{
		ID:          req.ID,
		Counterpart: counterpart,
		Message:     req.Message,
		Goals:       req.Goals,
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
		DecidedAt:   req.DecidedAt,
	}
	if req.Status == model.RequestStatusRejected && req.RejectionReason != nil {
		rv.Reason = *req.RejectionReason
	}
	return rv
}

func sessionView(session *model.Session, counterpart model.ProfileSummary, mine bool, now time.Time) *model.SessionView {
	status := session.EffectiveStatus(now)
	return &model.SessionView{
		ID:                  session.ID,
		MentorshipID:        session.MentorshipID,
		Counterpart:         counterpart,
		StartTime:           session.StartTime,
		EndTime:             session.EndTime,
		Status:              status,
		MeetingLink:         session.MeetingLink,
		Agenda:              session.Agenda,
		MyFeedbackSubmitted: mine,
		CanLeaveFeedback:    status == model.SessionStatusCompleted && !mine,
	}
}
