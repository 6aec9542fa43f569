package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequest_CreatesPendingAndNotifiesMentor(t *testing.T) {
	f := newFixture(t)
	mentor := f.mentor(t, "Maria", "Go")
	student := f.student("Sam")

	req, err := f.requests.SubmitRequest(context.Background(), student, mentor.UserID, "  "+validMessage+"  ", validGoals)
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.Equal(t, validMessage, req.Message)
	assert.Equal(t, epoch, req.CreatedAt)
	assert.Nil(t, req.DecidedAt)

	last := f.notifier.last()
	assert.Equal(t, mentor.UserID, last.userID)
	assert.Equal(t, notify.EventRequestSubmitted, last.event)
	assert.Equal(t, req.ID.String(), last.payload[notify.KeyRequestID])
}

func TestSubmitRequest_Validation(t *testing.T) {
	f := newFixture(t)
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")

	tests := []struct {
		name    string
		actor   model.Actor
		mentor  uuid.UUID
		message string
		goals   string
		kind    apperr.Kind
	}{
		{"short message", student, mentor.UserID, "hi", validGoals, apperr.KindValidation},
		{"blank goals", student, mentor.UserID, validMessage, "         ", apperr.KindValidation},
		{"too long message", student, mentor.UserID, strings.Repeat("a", 2001), validGoals, apperr.KindValidation},
		{"request to self", model.Actor{UserID: mentor.UserID, Role: model.RoleStudent}, mentor.UserID, validMessage, validGoals, apperr.KindValidation},
		{"mentor role", model.Actor{UserID: uuid.New(), Role: model.RoleMentor}, mentor.UserID, validMessage, validGoals, apperr.KindNotAuthorized},
		{"unknown mentor", student, uuid.New(), validMessage, validGoals, apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.requests.SubmitRequest(context.Background(), tt.actor, tt.mentor, tt.message, tt.goals)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestSubmitRequest_UnavailableOrDeactivatedMentor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	busy := f.mentor(t, "Busy")
	_, err := f.directory.SetAvailability(ctx, busy, false)
	require.NoError(t, err)

	gone := f.mentor(t, "Gone")
	_, err = f.directory.Deactivate(ctx, gone)
	require.NoError(t, err)

	student := f.student("Sam")
	for _, mentor := range []model.Actor{busy, gone} {
		_, err := f.requests.SubmitRequest(ctx, student, mentor.UserID, validMessage, validGoals)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState), "got %v", err)
	}
}

func TestSubmitRequest_DuplicatePending(t *testing.T) {
	f := newFixture(t)
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")

	f.submit(t, student, mentor)

	_, err := f.requests.SubmitRequest(context.Background(), student, mentor.UserID, validMessage, validGoals)
	assert.True(t, apperr.Is(err, apperr.KindDuplicateRequest))
}

func TestSubmitRequest_ConcurrentSamePair(t *testing.T) {
	f := newFixture(t)
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")

	const n = 25
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		succeeded  int
		duplicates int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.requests.SubmitRequest(context.Background(), student, mentor.UserID, validMessage, validGoals)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperr.Is(err, apperr.KindDuplicateRequest):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, duplicates)
}

func TestSubmitRequest_CapacityReached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	_, err := f.directory.SetCapacity(ctx, mentor, intPtr(1))
	require.NoError(t, err)

	first := f.student("First")
	f.activeMentorship(t, first, mentor)

	_, err = f.requests.SubmitRequest(ctx, f.student("Second"), mentor.UserID, validMessage, validGoals)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	// лимит снят, заявки снова принимаются
	_, err = f.directory.SetCapacity(ctx, mentor, nil)
	require.NoError(t, err)
	_, err = f.requests.SubmitRequest(ctx, f.student("Third"), mentor.UserID, validMessage, validGoals)
	assert.NoError(t, err)
}

func TestSubmitRequest_PendingDoesNotConsumeCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mentor := f.mentor(t, "Maria")
	_, err := f.directory.SetCapacity(ctx, mentor, intPtr(1))
	require.NoError(t, err)

	f.submit(t, f.student("First"), mentor)
	f.submit(t, f.student("Second"), mentor)

	profile, err := f.directory.GetMentor(ctx, mentor.UserID)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.ActiveMentees)
}

func TestGetRequest_OnlyParticipants(t *testing.T) {
	f := newFixture(t)
	mentor := f.mentor(t, "Maria")
	student := f.student("Sam")
	req := f.submit(t, student, mentor)
	ctx := context.Background()

	got, err := f.requests.GetRequest(ctx, mentor, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.requests.GetRequest(ctx, f.student("Eve"), req.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotAuthorized))

	_, err = f.requests.GetRequest(ctx, student, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
