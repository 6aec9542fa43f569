package notify

import (
	"fmt"
	"strings"
	"time"
)

type eventDisplay struct {
	Emoji string
	Title string
}

var eventDisplays = map[EventType]eventDisplay{
	EventRequestSubmitted:     {"📩", "Новая заявка на менторство"},
	EventRequestAccepted:      {"✅", "Заявка принята"},
	EventRequestRejected:      {"🚫", "Заявка отклонена"},
	EventRequestCancelled:     {"❌", "Заявка отозвана студентом"},
	EventSessionScheduled:     {"📅", "Назначена встреча"},
	EventSessionRescheduled:   {"🔄", "Встреча перенесена"},
	EventSessionCancelled:     {"❌", "Встреча отменена"},
	EventMentorshipTerminated: {"⛔️", "Менторство прекращено"},
}

// FormatText текст уведомления для мессенджера
func FormatText(msg Message) string {
	display, ok := eventDisplays[msg.Event]
	if !ok {
		display = eventDisplay{"🔔", string(msg.Event)}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", display.Emoji, display.Title))

	start, hasStart := parseTime(msg.Payload[KeyStartTime])
	end, hasEnd := parseTime(msg.Payload[KeyEndTime])
	if hasStart && hasEnd {
		sb.WriteString(fmt.Sprintf("\n🕐 %s, %s", formatDate(start), formatTimeRange(start, end)))
	}

	if link := msg.Payload[KeyMeetingLink]; link != "" {
		sb.WriteString(fmt.Sprintf("\n🔗 %s", link))
	}

	if reason := msg.Payload[KeyReason]; reason != "" {
		sb.WriteString(fmt.Sprintf("\n💬 Причина: %s", reason))
	}

	return sb.String()
}

func parseTime(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

func formatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}
