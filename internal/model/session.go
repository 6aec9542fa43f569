package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusNoShow    SessionStatus = "no_show"
)

type Session struct {
	ID               uuid.UUID     `json:"id"`
	MentorshipID     uuid.UUID     `json:"mentorship_id"`
	MentorID         uuid.UUID     `json:"mentor_id"`  // копия из mentorship для проверки пересечений
	StudentID        uuid.UUID     `json:"student_id"` // копия из mentorship
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Status           SessionStatus `json:"status"`
	MeetingLink      string        `json:"meeting_link"`
	Agenda           string        `json:"agenda"`
	CancelledBy      *uuid.UUID    `json:"cancelled_by,omitempty"`
	NoShowReportedBy *uuid.UUID    `json:"no_show_reported_by,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// EffectiveStatus статус с учётом времени: scheduled после окончания читается как completed
func (s *Session) EffectiveStatus(now time.Time) SessionStatus {
	if s.Status == SessionStatusScheduled && !now.Before(s.EndTime) {
		return SessionStatusCompleted
	}
	return s.Status
}

func (s *Session) IsParticipant(userID uuid.UUID) bool {
	return s.StudentID == userID || s.MentorID == userID
}

func (s *Session) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == s.StudentID {
		return s.MentorID
	}
	return s.StudentID
}

// RoleOf роль пользователя в сессии; пустая строка, если он не участник
func (s *Session) RoleOf(userID uuid.UUID) Role {
	switch userID {
	case s.StudentID:
		return RoleStudent
	case s.MentorID:
		return RoleMentor
	}
	return ""
}

// Overlaps полуинтервалы [start,end) пересекаются
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}
