package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOverlaps_HalfOpen(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	assert.True(t, Overlaps(at(0), at(30), at(15), at(45)))
	assert.True(t, Overlaps(at(15), at(45), at(0), at(30)))
	assert.True(t, Overlaps(at(0), at(60), at(10), at(20)))
	assert.False(t, Overlaps(at(0), at(30), at(30), at(60)), "adjacent intervals must not conflict")
	assert.False(t, Overlaps(at(30), at(60), at(0), at(30)))
}

func TestSession_EffectiveStatus(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := &Session{Status: SessionStatusScheduled, StartTime: start, EndTime: start.Add(30 * time.Minute)}

	assert.Equal(t, SessionStatusScheduled, s.EffectiveStatus(start.Add(10*time.Minute)))
	assert.Equal(t, SessionStatusCompleted, s.EffectiveStatus(start.Add(30*time.Minute)))

	s.Status = SessionStatusCancelled
	assert.Equal(t, SessionStatusCancelled, s.EffectiveStatus(start.Add(time.Hour)))
}

func TestSession_RoleOf(t *testing.T) {
	s := &Session{StudentID: uuid.New(), MentorID: uuid.New()}

	assert.Equal(t, RoleStudent, s.RoleOf(s.StudentID))
	assert.Equal(t, RoleMentor, s.RoleOf(s.MentorID))
	assert.Equal(t, Role(""), s.RoleOf(uuid.New()))
	assert.Equal(t, s.MentorID, s.Counterpart(s.StudentID))
}

func TestMentorProfile_Capacity(t *testing.T) {
	limit := 2
	p := &MentorProfile{IsActive: true, IsAvailable: true}
	assert.True(t, p.HasCapacity())
	assert.Equal(t, -1, p.FreeSlots())

	p.MaxMentees = &limit
	p.ActiveMentees = 2
	assert.False(t, p.HasCapacity())
	assert.Equal(t, 0, p.FreeSlots())
}
