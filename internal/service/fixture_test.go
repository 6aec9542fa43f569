package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/profile"
	"github.com/Freeeeeet/mentorship_service/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2030-01-07: понедельник
var epoch = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentEvent struct {
	userID  uuid.UUID
	event   notify.EventType
	payload notify.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, event notify.EventType, payload notify.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{userID: userID, event: event, payload: payload})
}

func (n *recordingNotifier) last() sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return sentEvent{}
	}
	return n.events[len(n.events)-1]
}

func (n *recordingNotifier) count(event notify.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.event == event {
			c++
		}
	}
	return c
}

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	notifier *recordingNotifier
	profiles profile.Static

	directory *DirectoryService
	requests  *RequestService
	lifecycle *LifecycleService
	sessions  *SessionService
	feedback  *FeedbackService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.NewStore(),
		clock:    &fakeClock{now: epoch},
		notifier: &recordingNotifier{},
		profiles: profile.Static{},
	}

	logger := zap.NewNop()
	opts := []Option{WithClock(f.clock.Now), WithNotifier(f.notifier)}

	f.directory = NewDirectoryService(f.store, logger, opts...)
	f.requests = NewRequestService(f.store, logger, opts...)
	f.lifecycle = NewLifecycleService(f.store, logger, opts...)
	f.sessions = NewSessionService(f.store, logger, opts...)
	f.feedback = NewFeedbackService(f.store, logger, opts...)
	f.dashboard = NewDashboardService(f.store, f.profiles, logger, opts...)

	return f
}

func (f *fixture) student(name string) model.Actor {
	id := uuid.New()
	f.profiles[id] = model.ProfileSummary{UserID: id, DisplayName: name}
	return model.Actor{UserID: id, Role: model.RoleStudent}
}

func (f *fixture) mentor(t *testing.T, name string, tags ...string) model.Actor {
	t.Helper()

	id := uuid.New()
	f.profiles[id] = model.ProfileSummary{UserID: id, DisplayName: name, Headline: "Mentor"}
	actor := model.Actor{UserID: id, Role: model.RoleMentor}

	if len(tags) == 0 {
		tags = []string{"Go"}
	}
	_, err := f.directory.RegisterMentor(context.Background(), actor, RegisterMentorInput{
		ExpertiseTags:     tags,
		YearsOfExperience: 5,
	})
	require.NoError(t, err)

	return actor
}

const (
	validMessage = "Hi! I would love your guidance on backend careers."
	validGoals   = "Learn system design and prepare for interviews."
)

func (f *fixture) submit(t *testing.T, student, mentor model.Actor) *model.MentorshipRequest {
	t.Helper()
	req, err := f.requests.SubmitRequest(context.Background(), student, mentor.UserID, validMessage, validGoals)
	require.NoError(t, err)
	return req
}

func (f *fixture) activeMentorship(t *testing.T, student, mentor model.Actor) *model.Mentorship {
	t.Helper()
	req := f.submit(t, student, mentor)
	m, err := f.lifecycle.Accept(context.Background(), req.ID, mentor)
	require.NoError(t, err)
	return m
}

// at время относительно epoch в тот же день
func at(hour, minute int) time.Time {
	return time.Date(epoch.Year(), epoch.Month(), epoch.Day(), hour, minute, 0, 0, time.UTC)
}

func (f *fixture) schedule(t *testing.T, actor model.Actor, mentorshipID uuid.UUID, start, end time.Time) *model.Session {
	t.Helper()
	s, err := f.sessions.Schedule(context.Background(), actor, mentorshipID, ScheduleInput{Start: start, End: end})
	require.NoError(t, err)
	return s
}

func intPtr(v int) *int { return &v }
