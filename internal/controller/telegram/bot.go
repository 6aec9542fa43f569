package telegram

import (
	"context"

	"github.com/Freeeeeet/mentorship_service/internal/auth"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	links notify.ChatLinks,
	authenticator *auth.Authenticator,
	dashboard *service.DashboardService,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: NewHandlers(links, authenticator, dashboard, logger),
		logger:   logger,
	}
}

// RegisterHandlers регистрирует команды и меню бота
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/link", bot.MatchTypePrefix, c.handlers.HandleLink)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/unlink", bot.MatchTypeExact, c.handlers.HandleUnlink)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/dashboard", bot.MatchTypePrefix, c.handlers.HandleDashboard)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "link", Description: "🔗 Привязать аккаунт"},
		{Command: "dashboard", Description: "📋 Мои заявки и встречи"},
		{Command: "unlink", Description: "🔕 Отключить уведомления"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting telegram bot")
	c.bot.Start(ctx)
	return nil
}
