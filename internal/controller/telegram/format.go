package telegram

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentorship_service/internal/model"
)

const upcomingLimit = 5

// FormatDashboard краткая текстовая версия дашборда для чата
func FormatDashboard(view *model.DashboardView) string {
	var sb strings.Builder

	if view.Role == model.RoleMentor {
		sb.WriteString("📋 Дашборд ментора\n\n")
	} else {
		sb.WriteString("📋 Дашборд студента\n\n")
	}

	fmt.Fprintf(&sb, "⏳ %d %s на рассмотрении\n", view.Stats.PendingRequests, pluralize(view.Stats.PendingRequests, "заявка", "заявки", "заявок"))
	if view.Role == model.RoleMentor {
		fmt.Fprintf(&sb, "👥 %d %s\n", view.Stats.ActiveMentorships, pluralize(view.Stats.ActiveMentorships, "подопечный", "подопечных", "подопечных"))
	} else {
		fmt.Fprintf(&sb, "🤝 %d %s\n", view.Stats.ActiveMentorships, pluralize(view.Stats.ActiveMentorships, "ментор", "ментора", "менторов"))
	}
	fmt.Fprintf(&sb, "📅 %d %s впереди\n", view.Stats.UpcomingSessions, pluralize(view.Stats.UpcomingSessions, "встреча", "встречи", "встреч"))

	if len(view.PendingRequests) > 0 {
		sb.WriteString("\nЗаявки:\n")
		for _, r := range view.PendingRequests {
			fmt.Fprintf(&sb, "• %s, от %s\n", displayName(r.Counterpart), r.CreatedAt.Format("02.01.2006"))
		}
	}

	if len(view.UpcomingSessions) > 0 {
		sb.WriteString("\nБлижайшие встречи:\n")
		for i, s := range view.UpcomingSessions {
			if i == upcomingLimit {
				fmt.Fprintf(&sb, "…и ещё %d\n", len(view.UpcomingSessions)-upcomingLimit)
				break
			}
			fmt.Fprintf(&sb, "• %s %s-%s, %s\n",
				s.StartTime.Format("02.01.2006"),
				s.StartTime.Format("15:04"),
				s.EndTime.Format("15:04"),
				displayName(s.Counterpart),
			)
		}
	}

	feedback := 0
	for _, s := range view.PastSessions {
		if s.CanLeaveFeedback {
			feedback++
		}
	}
	if feedback > 0 {
		fmt.Fprintf(&sb, "\n⭐ Ждут вашего отзыва: %d %s\n", feedback, pluralize(feedback, "встреча", "встречи", "встреч"))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func displayName(p model.ProfileSummary) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return "Пользователь " + p.UserID.String()[:8]
}

// pluralize склонение по числу: 1 заявка, 2 заявки, 5 заявок
func pluralize(count int, one, few, many string) string {
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}
