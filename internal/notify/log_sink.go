package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink пишет уведомления в лог; используется, когда внешние каналы не настроены
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	fields := []zap.Field{
		zap.String("event", string(msg.Event)),
		zap.String("user_id", msg.UserID.String()),
	}
	for k, v := range msg.Payload {
		fields = append(fields, zap.String(k, v))
	}
	s.logger.Info("Notification", fields...)
	return nil
}
