package model

import (
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	SubmittedBy uuid.UUID `json:"submitted_by"`
	Role        Role      `json:"role"` // student или mentor
	Rating      int       `json:"rating"`
	Comments    string    `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
}

// RatingStats агрегат оценок ментора
type RatingStats struct {
	Average float64
	Count   int
}

// SessionFeedback отзывы по встрече глазами участника: свой отзыв и факт отзыва второй стороны
type SessionFeedback struct {
	SessionID            uuid.UUID `json:"session_id"`
	Mine                 *Feedback `json:"mine,omitempty"`
	CounterpartSubmitted bool      `json:"counterpart_submitted"`
}
