package service

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_HalfOpenIntervals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	m := f.activeMentorship(t, student, mentor)

	first := f.schedule(t, student, m.ID, at(10, 0), at(10, 30))
	assert.Equal(t, model.SessionStatusScheduled, first.Status)
	assert.Equal(t, mentor.UserID, first.MentorID)

	_, err := f.sessions.Schedule(ctx, student, m.ID, ScheduleInput{Start: at(10, 15), End: at(10, 45)})
	assert.True(t, apperr.Is(err, apperr.KindTimeConflict))

	adjacent, err := f.sessions.Schedule(ctx, student, m.ID, ScheduleInput{Start: at(10, 30), End: at(11, 0)})
	require.NoError(t, err)
	assert.Equal(t, at(10, 30), adjacent.StartTime)

	last := f.notifier.last()
	assert.Equal(t, mentor.UserID, last.userID)
	assert.Equal(t, notify.EventSessionScheduled, last.event)
}

func TestSchedule_ConflictAcrossMentees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	first := f.activeMentorship(t, f.student("Sam"), mentor)
	second := f.activeMentorship(t, f.student("Kim"), mentor)

	f.schedule(t, mentor, first.ID, at(12, 0), at(13, 0))

	_, err := f.sessions.Schedule(ctx, mentor, second.ID, ScheduleInput{Start: at(12, 30), End: at(13, 30)})
	assert.True(t, apperr.Is(err, apperr.KindTimeConflict))
}

func TestSchedule_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student("Sam")
	m := f.activeMentorship(t, student, f.mentor(t, "Maria"))

	tests := []struct {
		name string
		in   ScheduleInput
	}{
		{"end before start", ScheduleInput{Start: at(11, 0), End: at(10, 0)}},
		{"empty interval", ScheduleInput{Start: at(11, 0), End: at(11, 0)}},
		{"in the past", ScheduleInput{Start: at(7, 0), End: at(7, 30)}},
		{"too long", ScheduleInput{Start: at(9, 0), End: at(17, 1)}},
		{"bad link", ScheduleInput{Start: at(9, 0), End: at(10, 0), MeetingLink: "ftp://example.com"}},
		{"relative link", ScheduleInput{Start: at(9, 0), End: at(10, 0), MeetingLink: "meet/abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sessions.Schedule(ctx, student, m.ID, tt.in)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}

	_, err := f.sessions.Schedule(ctx, f.student("Eve"), m.ID, ScheduleInput{Start: at(9, 0), End: at(10, 0)})
	assert.True(t, apperr.Is(err, apperr.KindNotAuthorized))

	_, err = f.sessions.Schedule(ctx, student, uuid.New(), ScheduleInput{Start: at(9, 0), End: at(10, 0)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSchedule_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	mentor := f.mentor(t, "Maria")

	const n = 10
	mentorships := make([]*model.Mentorship, n)
	for i := range mentorships {
		mentorships[i] = f.activeMentorship(t, f.student("Student"), mentor)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		booked    int
		conflicts int
	)
	for _, m := range mentorships {
		wg.Add(1)
		go func(m *model.Mentorship) {
			defer wg.Done()
			_, err := f.sessions.Schedule(context.Background(), mentor, m.ID, ScheduleInput{Start: at(14, 0), End: at(15, 0)})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case apperr.Is(err, apperr.KindTimeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(m)
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, n-1, conflicts)
}

// Случайные наборы интервалов: принятые встречи ментора никогда не пересекаются,
// а каждое решение совпадает с наивной проверкой по уже принятым интервалам.
func TestSchedule_RandomIntervalsNeverOverlap(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		f := newFixture(t)
		ctx := context.Background()
		mentor := f.mentor(t, "Maria")
		mentorships := []*model.Mentorship{
			f.activeMentorship(t, f.student("A"), mentor),
			f.activeMentorship(t, f.student("B"), mentor),
			f.activeMentorship(t, f.student("C"), mentor),
		}

		rnd := rand.New(rand.NewSource(seed))
		type interval struct{ start, end time.Time }
		var accepted []interval

		dayStart := epoch.Add(24 * time.Hour)
		for i := 0; i < 150; i++ {
			start := dayStart.Add(time.Duration(rnd.Intn(96)) * 15 * time.Minute)
			end := start.Add(time.Duration(1+rnd.Intn(8)) * 15 * time.Minute)
			m := mentorships[rnd.Intn(len(mentorships))]

			expectConflict := false
			for _, a := range accepted {
				if model.Overlaps(start, end, a.start, a.end) {
					expectConflict = true
					break
				}
			}

			_, err := f.sessions.Schedule(ctx, mentor, m.ID, ScheduleInput{Start: start, End: end})
			if expectConflict {
				require.True(t, apperr.Is(err, apperr.KindTimeConflict), "seed %d: expected conflict for %s-%s", seed, start, end)
				continue
			}
			require.NoError(t, err, "seed %d", seed)
			accepted = append(accepted, interval{start, end})
		}

		require.NoError(t, f.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			sessions, err := tx.Sessions().GetByMentor(ctx, mentor.UserID)
			require.NoError(t, err)
			require.Len(t, sessions, len(accepted))

			sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartTime.Before(sessions[j].StartTime) })
			for i := 1; i < len(sessions); i++ {
				assert.False(t, sessions[i].StartTime.Before(sessions[i-1].EndTime),
					"seed %d: %s overlaps %s", seed, sessions[i].ID, sessions[i-1].ID)
			}
			return nil
		}))
	}
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	m := f.activeMentorship(t, student, mentor)

	s := f.schedule(t, student, m.ID, at(10, 0), at(11, 0))
	f.schedule(t, student, m.ID, at(12, 0), at(13, 0))

	// пересечение только с самой собой не конфликт
	moved, err := f.sessions.Reschedule(ctx, mentor, s.ID, at(10, 30), at(11, 30))
	require.NoError(t, err)
	assert.Equal(t, at(10, 30), moved.StartTime)
	assert.Equal(t, at(11, 30), moved.EndTime)

	_, err = f.sessions.Reschedule(ctx, mentor, s.ID, at(11, 30), at(12, 30))
	assert.True(t, apperr.Is(err, apperr.KindTimeConflict))

	_, err = f.sessions.Reschedule(ctx, mentor, s.ID, at(7, 0), at(7, 30))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Equal(t, notify.EventSessionRescheduled, f.notifier.last().event)
	assert.Equal(t, student.UserID, f.notifier.last().userID)

	_, err = f.sessions.Cancel(ctx, student, s.ID)
	require.NoError(t, err)
	_, err = f.sessions.Reschedule(ctx, mentor, s.ID, at(14, 0), at(15, 0))
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestReschedule_AfterEndIsInvalid(t *testing.T) {
	f := newFixture(t)
	student := f.student("Sam")
	m := f.activeMentorship(t, student, f.mentor(t, "Maria"))
	s := f.schedule(t, student, m.ID, at(9, 0), at(9, 30))

	f.clock.Advance(2 * time.Hour)

	_, err := f.sessions.Reschedule(context.Background(), student, s.ID, at(12, 0), at(12, 30))
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestCancel_FreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	m := f.activeMentorship(t, student, mentor)
	s := f.schedule(t, student, m.ID, at(10, 0), at(11, 0))

	cancelled, err := f.sessions.Cancel(ctx, mentor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, mentor.UserID, *cancelled.CancelledBy)

	_, err = f.sessions.Cancel(ctx, student, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	f.schedule(t, student, m.ID, at(10, 0), at(11, 0))
}

func TestCancel_AfterEndIsInvalid(t *testing.T) {
	f := newFixture(t)
	student := f.student("Sam")
	m := f.activeMentorship(t, student, f.mentor(t, "Maria"))
	s := f.schedule(t, student, m.ID, at(9, 0), at(9, 30))

	f.clock.Advance(90 * time.Minute) // 09:30, конец встречи не включается

	_, err := f.sessions.Cancel(context.Background(), student, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestComplete_OnlyAfterStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	m := f.activeMentorship(t, f.student("Sam"), mentor)
	s := f.schedule(t, mentor, m.ID, at(9, 0), at(10, 0))

	_, err := f.sessions.Complete(ctx, mentor, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	f.clock.Advance(75 * time.Minute) // 09:15

	completed, err := f.sessions.Complete(ctx, mentor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, completed.Status)

	_, err = f.sessions.Complete(ctx, mentor, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	m := f.activeMentorship(t, student, mentor)
	s := f.schedule(t, mentor, m.ID, at(9, 0), at(10, 0))
	other := f.schedule(t, mentor, m.ID, at(10, 0), at(11, 0))

	_, err := f.sessions.MarkNoShow(ctx, mentor, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState), "before the end")

	f.clock.Advance(3 * time.Hour) // 11:00

	_, err = f.sessions.MarkNoShow(ctx, f.student("Eve"), s.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotAuthorized))

	noShow, err := f.sessions.MarkNoShow(ctx, mentor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusNoShow, noShow.Status)
	require.NotNil(t, noShow.NoShowReportedBy)
	assert.Equal(t, mentor.UserID, *noShow.NoShowReportedBy)

	_, err = f.feedback.SubmitFeedback(ctx, student, s.ID, model.RoleStudent, 1, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	// после отзыва отметить неявку уже нельзя
	_, err = f.feedback.SubmitFeedback(ctx, student, other.ID, model.RoleStudent, 5, "")
	require.NoError(t, err)
	_, err = f.sessions.MarkNoShow(ctx, mentor, other.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestMarkNoShow_AfterSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student("Sam")
	m := f.activeMentorship(t, student, f.mentor(t, "Maria"))
	s := f.schedule(t, student, m.ID, at(9, 0), at(10, 0))

	f.clock.Advance(3 * time.Hour)
	_, err := f.sessions.CompleteElapsed(ctx)
	require.NoError(t, err)

	noShow, err := f.sessions.MarkNoShow(ctx, student, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusNoShow, noShow.Status)
}

func TestCompleteElapsed_MatchesLazyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	m := f.activeMentorship(t, student, mentor)

	ids := []uuid.UUID{
		f.schedule(t, student, m.ID, at(9, 0), at(9, 30)).ID,
		f.schedule(t, student, m.ID, at(10, 0), at(10, 30)).ID,
		f.schedule(t, student, m.ID, at(12, 0), at(13, 0)).ID,
	}
	cancelled := f.schedule(t, student, m.ID, at(8, 30), at(8, 45))
	_, err := f.sessions.Cancel(ctx, student, cancelled.ID)
	require.NoError(t, err)

	f.clock.Advance(150 * time.Minute) // 10:30

	statuses := func() []model.SessionStatus {
		var out []model.SessionStatus
		for _, id := range append(ids, cancelled.ID) {
			s, err := f.sessions.GetSession(ctx, student, id)
			require.NoError(t, err)
			out = append(out, s.Status)
		}
		return out
	}

	lazy := statuses()
	assert.Equal(t, []model.SessionStatus{
		model.SessionStatusCompleted,
		model.SessionStatusCompleted,
		model.SessionStatusScheduled,
		model.SessionStatusCancelled,
	}, lazy)

	swept, err := f.sessions.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), swept)
	assert.Equal(t, lazy, statuses())

	swept, err = f.sessions.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestReschedule_AfterTerminateMidSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	m := f.activeMentorship(t, student, mentor)
	s := f.schedule(t, student, m.ID, at(9, 0), at(10, 0))

	f.clock.Advance(90 * time.Minute) // 09:30
	_, err := f.lifecycle.Terminate(ctx, m.ID, mentor, "")
	require.NoError(t, err)

	_, err = f.sessions.Reschedule(ctx, student, s.ID, at(12, 0), at(13, 0))
	assert.True(t, apperr.Is(err, apperr.KindInvalidState), "got %v", err)

	got, err := f.sessions.GetSession(ctx, student, s.ID)
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), got.StartTime)
}

func TestReschedule_StartedSessionIsInvalid(t *testing.T) {
	f := newFixture(t)
	student := f.student("Sam")
	m := f.activeMentorship(t, student, f.mentor(t, "Maria"))
	s := f.schedule(t, student, m.ID, at(9, 0), at(10, 0))

	f.clock.Advance(75 * time.Minute) // 09:15

	_, err := f.sessions.Reschedule(context.Background(), student, s.ID, at(12, 0), at(13, 0))
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

// Встречи закрытого наставничества нельзя назначать и переносить,
// но можно отменить, завершить или отметить неявку.
func TestSessionOperations_AfterMentorshipEnds(t *testing.T) {
	type ending struct {
		name string
		end  func(f *fixture, m *model.Mentorship, mentor model.Actor) error
	}
	endings := []ending{
		{"terminated", func(f *fixture, m *model.Mentorship, mentor model.Actor) error {
			_, err := f.lifecycle.Terminate(context.Background(), m.ID, mentor, "")
			return err
		}},
		{"completed", func(f *fixture, m *model.Mentorship, mentor model.Actor) error {
			_, err := f.lifecycle.Complete(context.Background(), m.ID, mentor)
			return err
		}},
	}

	type env struct {
		f        *fixture
		student  model.Actor
		mentor   model.Actor
		m        *model.Mentorship
		current  *model.Session // 09:00-10:00, идёт в момент закрытия
		upcoming *model.Session // 15:00-16:00
	}

	ops := []struct {
		name string
		run  func(e env) error
		want map[string]apperr.Kind
	}{
		{
			name: "schedule new session",
			run: func(e env) error {
				_, err := e.f.sessions.Schedule(context.Background(), e.student, e.m.ID, ScheduleInput{Start: at(17, 0), End: at(18, 0)})
				return err
			},
			want: map[string]apperr.Kind{"terminated": apperr.KindInvalidState, "completed": apperr.KindInvalidState},
		},
		{
			name: "reschedule current session",
			run: func(e env) error {
				_, err := e.f.sessions.Reschedule(context.Background(), e.student, e.current.ID, at(17, 0), at(18, 0))
				return err
			},
			want: map[string]apperr.Kind{"terminated": apperr.KindInvalidState, "completed": apperr.KindInvalidState},
		},
		{
			name: "reschedule upcoming session",
			run: func(e env) error {
				_, err := e.f.sessions.Reschedule(context.Background(), e.mentor, e.upcoming.ID, at(17, 0), at(18, 0))
				return err
			},
			want: map[string]apperr.Kind{"terminated": apperr.KindInvalidState, "completed": apperr.KindInvalidState},
		},
		{
			name: "cancel current session",
			run: func(e env) error {
				_, err := e.f.sessions.Cancel(context.Background(), e.student, e.current.ID)
				return err
			},
			want: map[string]apperr.Kind{"terminated": "", "completed": ""},
		},
		{
			name: "cancel upcoming session",
			run: func(e env) error {
				_, err := e.f.sessions.Cancel(context.Background(), e.student, e.upcoming.ID)
				return err
			},
			// terminate уже отменил будущие встречи
			want: map[string]apperr.Kind{"terminated": apperr.KindInvalidState, "completed": ""},
		},
		{
			name: "complete current session",
			run: func(e env) error {
				_, err := e.f.sessions.Complete(context.Background(), e.mentor, e.current.ID)
				return err
			},
			want: map[string]apperr.Kind{"terminated": "", "completed": ""},
		},
		{
			name: "report no-show after the end",
			run: func(e env) error {
				e.f.clock.Advance(time.Hour) // 10:30
				_, err := e.f.sessions.MarkNoShow(context.Background(), e.mentor, e.current.ID)
				return err
			},
			want: map[string]apperr.Kind{"terminated": "", "completed": ""},
		},
	}

	for _, end := range endings {
		for _, op := range ops {
			t.Run(end.name+"/"+op.name, func(t *testing.T) {
				f := newFixture(t)
				mentor := f.mentor(t, "Maria")
				student := f.student("Sam")
				m := f.activeMentorship(t, student, mentor)
				e := env{
					f:        f,
					student:  student,
					mentor:   mentor,
					m:        m,
					current:  f.schedule(t, student, m.ID, at(9, 0), at(10, 0)),
					upcoming: f.schedule(t, student, m.ID, at(15, 0), at(16, 0)),
				}

				f.clock.Advance(90 * time.Minute) // 09:30
				require.NoError(t, end.end(f, m, mentor))

				err := op.run(e)
				want := op.want[end.name]
				if want == "" {
					assert.NoError(t, err)
					return
				}
				assert.Equal(t, want, apperr.KindOf(err), "got %v", err)
			})
		}
	}
}

func TestSessionMutations_RejectSystemActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student("Sam")
	m := f.activeMentorship(t, student, f.mentor(t, "Maria"))
	s := f.schedule(t, student, m.ID, at(9, 0), at(10, 0))
	system := model.SystemActor()

	_, err := f.sessions.Cancel(ctx, system, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotAuthorized))
	_, err = f.sessions.Reschedule(ctx, system, s.ID, at(12, 0), at(13, 0))
	assert.True(t, apperr.Is(err, apperr.KindNotAuthorized))

	f.clock.Advance(75 * time.Minute)
	_, err = f.sessions.Complete(ctx, system, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotAuthorized))

	f.clock.Advance(time.Hour)
	_, err = f.sessions.MarkNoShow(ctx, system, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotAuthorized))

	got, err := f.sessions.GetSession(ctx, student, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, got.Status)
}
