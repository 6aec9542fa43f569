package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestView заявка глазами одной из сторон
type RequestView struct {
	ID          uuid.UUID      `json:"id"`
	Counterpart ProfileSummary `json:"counterpart"`
	Message     string         `json:"message"`
	Goals       string         `json:"goals"`
	Status      RequestStatus  `json:"status"`
	Reason      string         `json:"reason,omitempty"` // только для rejected
	CreatedAt   time.Time      `json:"created_at"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty"`
}

// MentorshipView активное наставничество глазами одной из сторон
type MentorshipView struct {
	ID               uuid.UUID        `json:"id"`
	Counterpart      ProfileSummary   `json:"counterpart"`
	Status           MentorshipStatus `json:"status"`
	StartedAt        time.Time        `json:"started_at"`
	UpcomingSessions int              `json:"upcoming_sessions"`
	ExpertiseTags    []string         `json:"expertise_tags,omitempty"` // заполняется для студента
}

// SessionView сессия глазами одной из сторон
type SessionView struct {
	ID                  uuid.UUID      `json:"id"`
	MentorshipID        uuid.UUID      `json:"mentorship_id"`
	Counterpart         ProfileSummary `json:"counterpart"`
	StartTime           time.Time      `json:"start_time"`
	EndTime             time.Time      `json:"end_time"`
	Status              SessionStatus  `json:"status"`
	MeetingLink         string         `json:"meeting_link,omitempty"`
	Agenda              string         `json:"agenda,omitempty"`
	MyFeedbackSubmitted bool           `json:"my_feedback_submitted"`
	CanLeaveFeedback    bool           `json:"can_leave_feedback"`
}

type DashboardStats struct {
	PendingRequests   int `json:"pending_requests"`
	ActiveMentorships int `json:"active_mentorships"`
	UpcomingSessions  int `json:"upcoming_sessions"`
	TotalSessions     int `json:"total_sessions"`
}

// DashboardView дашборд студента или ментора
type DashboardView struct {
	UserID            uuid.UUID         `json:"user_id"`
	Role              Role              `json:"role"`
	ActiveMentorships []*MentorshipView `json:"active_mentorships"` // для ментора: активные подопечные
	PendingRequests   []*RequestView    `json:"pending_requests"`
	PastRequests      []*RequestView    `json:"past_requests"`
	UpcomingSessions  []*SessionView    `json:"upcoming_sessions"`
	PastSessions      []*SessionView    `json:"past_sessions"`
	Stats             DashboardStats    `json:"stats"`
}
