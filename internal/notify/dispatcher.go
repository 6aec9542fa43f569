package notify

import (
	"context"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sendTimeout  = 10 * time.Second
	drainTimeout = 5 * time.Second
)

// Dispatcher асинхронная очередь уведомлений.
// Notify не блокируется: при переполнении очереди сообщение отбрасывается.
type Dispatcher struct {
	sink    Sink
	queue   chan Message
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewDispatcher(sink Sink, queueSize int, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan Message, queueSize),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Notify ставит уведомление в очередь
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, event EventType, payload Payload) {
	msg := Message{UserID: userID, Event: event, Payload: payload, At: d.now().UTC()}

	select {
	case d.queue <- msg:
	default:
		d.metrics.RecordNotification(string(event), "dropped")
		d.logger.Warn("Notification queue is full, dropping message",
			zap.String("event", string(event)),
			zap.String("user_id", userID.String()),
		)
	}
}

// Run разбирает очередь до отмены ctx, затем досылает то, что уже в очереди
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Notification dispatcher started", zap.String("sink", d.sink.Name()))

	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		case <-ctx.Done():
			d.drain()
			d.logger.Info("Notification dispatcher stopped")
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.sink.Send(sendCtx, msg); err != nil {
		d.metrics.RecordNotification(string(msg.Event), "failed")
		d.logger.Error("Failed to deliver notification",
			zap.String("event", string(msg.Event)),
			zap.String("user_id", msg.UserID.String()),
			zap.Error(err),
		)
		return
	}

	d.metrics.RecordNotification(string(msg.Event), "sent")
}
