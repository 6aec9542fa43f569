package telegram

import (
	"context"
	"strings"

	"github.com/Freeeeeet/mentorship_service/internal/auth"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	startText = "👋 Привет!\n\n" +
		"Я присылаю уведомления о заявках на менторство и встречах.\n\n" +
		"Чтобы начать, привяжите аккаунт:\n" +
		"/link <токен> - токен можно скопировать в настройках профиля\n\n" +
		"/help - Справка"

	helpText = "📚 Справка по командам:\n\n" +
		"/link <токен> - Привязать аккаунт и включить уведомления\n" +
		"/dashboard - Мои заявки и встречи (как студент)\n" +
		"/dashboard mentor - Мои подопечные и встречи (как ментор)\n" +
		"/unlink - Отключить уведомления\n" +
		"/help - Показать эту справку"

	notLinkedText = "❌ Аккаунт не привязан. Используйте /link <токен>"
	failureText   = "❌ Произошла ошибка. Попробуйте позже."
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type dashboardReader interface {
	GetDashboardView(ctx context.Context, userID uuid.UUID, role model.Role) (*model.DashboardView, error)
}

// Handlers обработчики команд бота
type Handlers struct {
	links     notify.ChatLinks
	auth      *auth.Authenticator
	dashboard dashboardReader
	logger    *zap.Logger
}

func NewHandlers(links notify.ChatLinks, authenticator *auth.Authenticator, dashboard *service.DashboardService, logger *zap.Logger) *Handlers {
	return &Handlers{
		links:     links,
		auth:      authenticator,
		dashboard: dashboard,
		logger:    logger,
	}
}

// HandleStart /start, а также deep link вида /start <токен>
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := startText
	if token := commandArg(update.Message.Text); token != "" {
		text = h.link(ctx, update.Message.Chat.ID, token)
	}
	h.reply(ctx, b, update.Message.Chat.ID, text)
}

func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, helpText)
}

func (h *Handlers) HandleLink(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.link(ctx, update.Message.Chat.ID, commandArg(update.Message.Text)))
}

func (h *Handlers) HandleUnlink(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.unlink(ctx, update.Message.Chat.ID))
}

func (h *Handlers) HandleDashboard(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.dashboardText(ctx, update.Message.Chat.ID, commandArg(update.Message.Text)))
}

func (h *Handlers) link(ctx context.Context, chatID int64, token string) string {
	if token == "" {
		return "❌ Укажите токен: /link <токен>"
	}

	actor, err := h.auth.Parse(token)
	if err != nil || actor.IsSystem() {
		h.logger.Warn("Telegram link rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return "❌ Токен недействителен или истёк. Скопируйте новый в настройках профиля."
	}

	if err := h.links.Link(ctx, actor.UserID, chatID); err != nil {
		h.logger.Error("Failed to link telegram chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return failureText
	}

	h.logger.Info("Telegram chat linked",
		zap.Stringer("user_id", actor.UserID),
		zap.Int64("chat_id", chatID),
	)
	return "✅ Аккаунт привязан. Уведомления о заявках и встречах будут приходить сюда.\n\n/dashboard - Мои заявки и встречи"
}

func (h *Handlers) unlink(ctx context.Context, chatID int64) string {
	removed, err := h.links.Unlink(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to unlink telegram chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return failureText
	}
	if !removed {
		return notLinkedText
	}

	h.logger.Info("Telegram chat unlinked", zap.Int64("chat_id", chatID))
	return "✅ Уведомления отключены."
}

func (h *Handlers) dashboardText(ctx context.Context, chatID int64, arg string) string {
	userID, ok, err := h.links.UserByChat(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to resolve telegram link", zap.Int64("chat_id", chatID), zap.Error(err))
		return failureText
	}
	if !ok {
		return notLinkedText
	}

	role := model.RoleStudent
	if strings.EqualFold(arg, string(model.RoleMentor)) {
		role = model.RoleMentor
	}

	view, err := h.dashboard.GetDashboardView(ctx, userID, role)
	if err != nil {
		h.logger.Error("Failed to load dashboard", zap.Stringer("user_id", userID), zap.Error(err))
		return failureText
	}

	return FormatDashboard(view)
}

// reply отправляет сообщение и логирует если не удалось
func (h *Handlers) reply(ctx context.Context, sender messageSender, chatID int64, text string) {
	_, err := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// commandArg текст после команды: "/link abc" -> "abc"
func commandArg(text string) string {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
