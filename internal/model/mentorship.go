package model

import (
	"time"

	"github.com/google/uuid"
)

type MentorshipStatus string

const (
	MentorshipStatusActive     MentorshipStatus = "active"
	MentorshipStatusCompleted  MentorshipStatus = "completed"  // Завершено по договорённости
	MentorshipStatusTerminated MentorshipStatus = "terminated" // Прервано одной из сторон
)

type Mentorship struct {
	ID                uuid.UUID        `json:"id"`
	StudentID         uuid.UUID        `json:"student_id"`
	MentorID          uuid.UUID        `json:"mentor_id"`
	Status            MentorshipStatus `json:"status"`
	SourceRequestID   uuid.UUID        `json:"source_request_id"`
	StartedAt         time.Time        `json:"started_at"`
	EndedAt           *time.Time       `json:"ended_at,omitempty"`
	TerminationReason *string          `json:"termination_reason,omitempty"`
}

func (m *Mentorship) IsActive() bool {
	return m.Status == MentorshipStatusActive
}

func (m *Mentorship) IsParticipant(userID uuid.UUID) bool {
	return m.StudentID == userID || m.MentorID == userID
}

// Counterpart возвращает другую сторону отношений
func (m *Mentorship) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == m.StudentID {
		return m.MentorID
	}
	return m.StudentID
}
