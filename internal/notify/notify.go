// Package notify доставка уведомлений участникам наставничества.
// Доставка best-effort: ошибки логируются и никогда не возвращаются в бизнес-операцию.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventRequestSubmitted     EventType = "request_submitted"
	EventRequestAccepted      EventType = "request_accepted"
	EventRequestRejected      EventType = "request_rejected"
	EventRequestCancelled     EventType = "request_cancelled"
	EventSessionScheduled     EventType = "session_scheduled"
	EventSessionRescheduled   EventType = "session_rescheduled"
	EventSessionCancelled     EventType = "session_cancelled"
	EventMentorshipTerminated EventType = "mentorship_terminated"
)

// Ключи payload
const (
	KeyRequestID    = "request_id"
	KeyMentorshipID = "mentorship_id"
	KeySessionID    = "session_id"
	KeyStudentID    = "student_id"
	KeyMentorID     = "mentor_id"
	KeyStartTime    = "start_time"
	KeyEndTime      = "end_time"
	KeyReason       = "reason"
	KeyMeetingLink  = "meeting_link"
)

type Payload map[string]string

// Notifier fire-and-forget уведомление пользователя
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event EventType, payload Payload)
}

// Message единица доставки
type Message struct {
	UserID  uuid.UUID `json:"user_id"`
	Event   EventType `json:"event"`
	Payload Payload   `json:"payload"`
	At      time.Time `json:"at"`
}

// Sink канал доставки (Telegram, NATS, лог)
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Multi рассылает сообщение во все каналы; ошибка одного не мешает остальным
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop ничего не отправляет
type Nop struct{}

func (Nop) Notify(ctx context.Context, userID uuid.UUID, event EventType, payload Payload) {}

// FormatTime формат времени в payload
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
