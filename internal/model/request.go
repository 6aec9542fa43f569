package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// MentorshipRequest заявка студента ментору
type MentorshipRequest struct {
	ID              uuid.UUID     `json:"id"`
	StudentID       uuid.UUID     `json:"student_id"`
	MentorID        uuid.UUID     `json:"mentor_id"`
	Message         string        `json:"message"`
	Goals           string        `json:"goals"`
	Status          RequestStatus `json:"status"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	DecidedAt       *time.Time    `json:"decided_at,omitempty"` // nil пока заявка pending
}

// IsPending checks if request is pending
func (r *MentorshipRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsTerminal заявка больше не может менять статус
func (r *MentorshipRequest) IsTerminal() bool {
	return r.Status == RequestStatusAccepted ||
		r.Status == RequestStatusRejected ||
		r.Status == RequestStatusCancelled
}

// IsParticipant проверяет, что пользователь одна из сторон заявки
func (r *MentorshipRequest) IsParticipant(userID uuid.UUID) bool {
	return r.StudentID == userID || r.MentorID == userID
}
