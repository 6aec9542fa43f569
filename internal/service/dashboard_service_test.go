package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDashboard_ReadYourWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")

	req := f.submit(t, student, mentor)

	sv, err := f.dashboard.GetDashboardView(ctx, student.UserID, model.RoleStudent)
	require.NoError(t, err)
	require.Len(t, sv.PendingRequests, 1)
	assert.Equal(t, req.ID, sv.PendingRequests[0].ID)
	assert.Equal(t, "Maria", sv.PendingRequests[0].Counterpart.DisplayName)
	assert.Equal(t, 1, sv.Stats.PendingRequests)

	mv, err := f.dashboard.GetDashboardView(ctx, mentor.UserID, model.RoleMentor)
	require.NoError(t, err)
	require.Len(t, mv.PendingRequests, 1)
	assert.Equal(t, "Sam", mv.PendingRequests[0].Counterpart.DisplayName)

	_, err = f.lifecycle.Accept(ctx, req.ID, mentor)
	require.NoError(t, err)

	mv, err = f.dashboard.GetDashboardView(ctx, mentor.UserID, model.RoleMentor)
	require.NoError(t, err)
	assert.Empty(t, mv.PendingRequests)
	require.Len(t, mv.PastRequests, 1)
	assert.Equal(t, model.RequestStatusAccepted, mv.PastRequests[0].Status)
	require.Len(t, mv.ActiveMentorships, 1)
	assert.Equal(t, student.UserID, mv.ActiveMentorships[0].Counterpart.UserID)
	assert.Nil(t, mv.ActiveMentorships[0].ExpertiseTags)

	sv, err = f.dashboard.GetDashboardView(ctx, student.UserID, model.RoleStudent)
	require.NoError(t, err)
	require.Len(t, sv.ActiveMentorships, 1)
	assert.Equal(t, []string{"Go"}, sv.ActiveMentorships[0].ExpertiseTags)
	assert.Equal(t, 1, sv.Stats.ActiveMentorships)
}

func TestDashboard_ReasonOnlyForRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")

	rejected := f.submit(t, student, mentor)
	_, err := f.lifecycle.Reject(ctx, rejected.ID, mentor, "capacity full")
	require.NoError(t, err)

	cancelled := f.submit(t, student, mentor)
	_, err = f.lifecycle.Cancel(ctx, cancelled.ID, student)
	require.NoError(t, err)

	view, err := f.dashboard.GetDashboardView(ctx, student.UserID, model.RoleStudent)
	require.NoError(t, err)
	require.Len(t, view.PastRequests, 2)

	reasons := map[uuid.UUID]string{}
	for _, r := range view.PastRequests {
		reasons[r.ID] = r.Reason
	}
	assert.Equal(t, "capacity full", reasons[rejected.ID])
	assert.Empty(t, reasons[cancelled.ID])
}

func TestDashboard_SessionsAndFeedbackFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	m := f.activeMentorship(t, student, mentor)

	done := f.schedule(t, student, m.ID, at(9, 0), at(9, 30))
	cancelled := f.schedule(t, student, m.ID, at(11, 0), at(11, 30))
	later := f.schedule(t, student, m.ID, at(15, 0), at(16, 0))
	sooner := f.schedule(t, student, m.ID, at(13, 0), at(14, 0))
	_, err := f.sessions.Cancel(ctx, mentor, cancelled.ID)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour) // 10:00

	_, err = f.feedback.SubmitFeedback(ctx, student, done.ID, model.RoleStudent, 5, "secret praise")
	require.NoError(t, err)

	sv, err := f.dashboard.GetDashboardView(ctx, student.UserID, model.RoleStudent)
	require.NoError(t, err)

	require.Len(t, sv.UpcomingSessions, 2)
	assert.Equal(t, sooner.ID, sv.UpcomingSessions[0].ID)
	assert.Equal(t, later.ID, sv.UpcomingSessions[1].ID)

	require.Len(t, sv.PastSessions, 2)
	assert.Equal(t, cancelled.ID, sv.PastSessions[0].ID)
	assert.Equal(t, model.SessionStatusCancelled, sv.PastSessions[0].Status)
	assert.Equal(t, done.ID, sv.PastSessions[1].ID)
	assert.Equal(t, model.SessionStatusCompleted, sv.PastSessions[1].Status)
	assert.True(t, sv.PastSessions[1].MyFeedbackSubmitted)
	assert.False(t, sv.PastSessions[1].CanLeaveFeedback)

	assert.Equal(t, 2, sv.ActiveMentorships[0].UpcomingSessions)
	assert.Equal(t, 4, sv.Stats.TotalSessions)
	assert.Equal(t, 2, sv.Stats.UpcomingSessions)

	// ментор не видит отзыв студента, только собственное состояние
	mv, err := f.dashboard.GetDashboardView(ctx, mentor.UserID, model.RoleMentor)
	require.NoError(t, err)
	require.Len(t, mv.PastSessions, 2)
	assert.False(t, mv.PastSessions[1].MyFeedbackSubmitted)
	assert.True(t, mv.PastSessions[1].CanLeaveFeedback)
}

type failingLookup struct{}

func (failingLookup) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.ProfileSummary, error) {
	return nil, errors.New("profiles service unavailable")
}

func TestDashboard_DegradesWithoutProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	f.submit(t, student, mentor)

	dashboard := NewDashboardService(f.store, failingLookup{}, zap.NewNop(), WithClock(f.clock.Now))

	view, err := dashboard.GetDashboardView(ctx, student.UserID, model.RoleStudent)
	require.NoError(t, err)
	require.Len(t, view.PendingRequests, 1)
	assert.Equal(t, mentor.UserID, view.PendingRequests[0].Counterpart.UserID)
	assert.Empty(t, view.PendingRequests[0].Counterpart.DisplayName)
}

func TestDashboard_RejectsUnknownRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.dashboard.GetDashboardView(context.Background(), uuid.New(), model.RoleSystem)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDashboard_EmptyUser(t *testing.T) {
	f := newFixture(t)

	view, err := f.dashboard.GetDashboardView(context.Background(), uuid.New(), model.RoleMentor)
	require.NoError(t, err)
	assert.NotNil(t, view.PendingRequests)
	assert.NotNil(t, view.UpcomingSessions)
	assert.Zero(t, view.Stats)
}
