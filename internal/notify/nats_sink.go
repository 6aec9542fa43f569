package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "mentorship.events."

type publisher interface {
	Publish(subject string, data []byte) error
}

// NatsSink публикует события в mentorship.events.<event> для внешних потребителей
type NatsSink struct {
	pub  publisher
	conn *nats.Conn
}

// NewNatsSink подключается к NATS с бесконечным переподключением
func NewNatsSink(url string, logger *zap.Logger) (*NatsSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("mentorship-service"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NatsSink{pub: nc, conn: nc}, nil
}

func (s *NatsSink) Name() string { return "nats" }

func (s *NatsSink) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := s.pub.Publish(subjectPrefix+string(msg.Event), data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close досылает буфер и закрывает соединение
func (s *NatsSink) Close() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}
