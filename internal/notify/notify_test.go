package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestDispatcher_DeliversQueuedMessages(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 8, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()

	userID := uuid.New()
	d.Notify(context.Background(), userID, EventRequestSubmitted, Payload{KeyRequestID: "r1"})
	d.Notify(context.Background(), userID, EventRequestAccepted, nil)

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, userID, sink.msgs[0].UserID)
	assert.Equal(t, EventRequestSubmitted, sink.msgs[0].Event)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 1, zap.NewNop(), nil)

	d.Notify(context.Background(), uuid.New(), EventSessionScheduled, nil)
	d.Notify(context.Background(), uuid.New(), EventSessionCancelled, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, EventSessionScheduled, sink.msgs[0].Event)
}

func TestDispatcher_SinkErrorIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("telegram down")}
	d := NewDispatcher(sink, 4, zap.NewNop(), nil)

	d.Notify(context.Background(), uuid.New(), EventRequestRejected, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Run(ctx))
	assert.Equal(t, 1, sink.count())
}

func TestMulti_SendsToAllSinks(t *testing.T) {
	failing := &recordingSink{err: errors.New("nope")}
	ok := &recordingSink{}

	err := Multi{failing, ok}.Send(context.Background(), Message{Event: EventRequestSubmitted})

	require.Error(t, err)
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count())
}

type fakePublisher struct {
	subject string
	data    []byte
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return nil
}

func TestNatsSink_PublishesJSONToEventSubject(t *testing.T) {
	pub := &fakePublisher{}
	sink := &NatsSink{pub: pub}
	userID := uuid.New()

	err := sink.Send(context.Background(), Message{
		UserID:  userID,
		Event:   EventMentorshipTerminated,
		Payload: Payload{KeyReason: "moved"},
	})
	require.NoError(t, err)

	assert.Equal(t, "mentorship.events.mentorship_terminated", pub.subject)

	var decoded Message
	require.NoError(t, json.Unmarshal(pub.data, &decoded))
	assert.Equal(t, userID, decoded.UserID)
	assert.Equal(t, "moved", decoded.Payload[KeyReason])
}

type fakeSender struct {
	params *bot.SendMessageParams
}

func (s *fakeSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.params = params
	return &models.Message{}, nil
}

type staticChats map[uuid.UUID]int64

func (c staticChats) ChatID(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	id, ok := c[userID]
	return id, ok, nil
}

func TestTelegramSink_SkipsUnlinkedUsers(t *testing.T) {
	linked := uuid.New()
	sender := &fakeSender{}
	sink := &TelegramSink{sender: sender, chats: staticChats{linked: 42}}

	require.NoError(t, sink.Send(context.Background(), Message{UserID: uuid.New(), Event: EventRequestAccepted}))
	assert.Nil(t, sender.params)

	require.NoError(t, sink.Send(context.Background(), Message{UserID: linked, Event: EventRequestAccepted}))
	require.NotNil(t, sender.params)
	assert.Equal(t, int64(42), sender.params.ChatID)
	assert.Contains(t, sender.params.Text, "Заявка принята")
}

func TestFormatText(t *testing.T) {
	start := time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)
	text := FormatText(Message{
		Event: EventSessionScheduled,
		Payload: Payload{
			KeyStartTime:   FormatTime(start),
			KeyEndTime:     FormatTime(start.Add(30 * time.Minute)),
			KeyMeetingLink: "https://meet.example.com/abc",
		},
	})

	assert.Contains(t, text, "Назначена встреча")
	assert.Contains(t, text, "04.03.2030, 10:00-10:30")
	assert.Contains(t, text, "https://meet.example.com/abc")
}

func TestFormatText_UnknownEvent(t *testing.T) {
	assert.Contains(t, FormatText(Message{Event: "custom"}), "custom")
}

func TestMemoryChatLinks(t *testing.T) {
	ctx := context.Background()
	links := NewMemoryChatLinks()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, links.Link(ctx, alice, 100))

	chatID, ok, err := links.ChatID(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(100), chatID)

	// чат переезжает к другому пользователю
	require.NoError(t, links.Link(ctx, bob, 100))
	_, ok, err = links.ChatID(ctx, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	userID, ok, err := links.UserByChat(ctx, 100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bob, userID)

	removed, err := links.Unlink(ctx, 100)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = links.Unlink(ctx, 100)
	require.NoError(t, err)
	assert.False(t, removed)
}
