package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockRepository struct {
	m         sync.Mutex
	events    []*repository.OutboxEvent
	getErr    error
	markErr   error
	processed []int64
}

func (m *mockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var pending []*repository.OutboxEvent
	for _, e := range m.events {
		if !m.isProcessed(e.ID) && len(pending) < limit {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (m *mockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processed = append(m.processed, id)
	return nil
}

func (m *mockRepository) isProcessed(id int64) bool {
	for _, p := range m.processed {
		if p == id {
			return true
		}
	}
	return false
}

func (m *mockRepository) processedIDs() []int64 {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]int64(nil), m.processed...)
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	// failAt makes the n-th write (1-based) fail
	failAt int
	writes int
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.writes++
	if w.writes == w.failAt {
		return errors.New("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func newEvent(id int64, orderID string) *repository.OutboxEvent {
	return &repository.OutboxEvent{
		ID:          id,
		EventID:     uuid.New(),
		AggregateID: orderID,
		EventType:   "order.created",
		Payload:     json.RawMessage(fmt.Sprintf(`{"order_id":%q}`, orderID)),
		CreatedAt:   time.Now(),
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	repo := &mockRepository{events: []*repository.OutboxEvent{newEvent(1, "o-1"), newEvent(2, "o-2")}}
	writer := &mockWriter{}
	poller := NewOutboxPoller(repo, writer, Config{}, nil)

	n := poller.processUnpublishedEvents(context.Background())

	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, repo.processedIDs())
	require.Len(t, writer.messages, 2)
	assert.Equal(t, "o-1", string(writer.messages[0].Key))
	assert.Equal(t, "event_type", writer.messages[0].Headers[0].Key)
	assert.Equal(t, "order.created", string(writer.messages[0].Headers[0].Value))
}

func TestProcessUnpublishedEvents_StopsOnPublishFailure(t *testing.T) {
	repo := &mockRepository{events: []*repository.OutboxEvent{newEvent(1, "o-1"), newEvent(2, "o-2"), newEvent(3, "o-3")}}
	writer := &mockWriter{failAt: 2}
	poller := NewOutboxPoller(repo, writer, Config{}, nil)

	n := poller.processUnpublishedEvents(context.Background())
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, repo.processedIDs())

	n = poller.processUnpublishedEvents(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2, 3}, repo.processedIDs())
}

func TestProcessUnpublishedEvents_RepositoryError(t *testing.T) {
	repo := &mockRepository{getErr: errors.New("db down")}
	writer := &mockWriter{}
	poller := NewOutboxPoller(repo, writer, Config{}, nil)

	assert.Zero(t, poller.processUnpublishedEvents(context.Background()))
	assert.Empty(t, writer.messages)
}

func TestProcessUnpublishedEvents_MarkErrorLeavesEventPending(t *testing.T) {
	repo := &mockRepository{events: []*repository.OutboxEvent{newEvent(1, "o-1")}, markErr: errors.New("db down")}
	poller := NewOutboxPoller(repo, &mockWriter{}, Config{}, nil)

	assert.Zero(t, poller.processUnpublishedEvents(context.Background()))
	assert.Empty(t, repo.processedIDs())
}

func TestProcessUnpublishedEvents_BatchSize(t *testing.T) {
	repo := &mockRepository{events: []*repository.OutboxEvent{newEvent(1, "a"), newEvent(2, "b"), newEvent(3, "c")}}
	poller := NewOutboxPoller(repo, &mockWriter{}, Config{BatchSize: 2}, nil)

	assert.Equal(t, 2, poller.processUnpublishedEvents(context.Background()))
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := &mockRepository{events: []*repository.OutboxEvent{newEvent(1, "o-1")}}
	poller := NewOutboxPoller(repo, &mockWriter{}, Config{Interval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(repo.processedIDs()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func setupKafka(t *testing.T) (string, func()) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	const topic = "order-events"
	writer := NewKafkaWriter(topic, brokerAddr)
	writer.WriteTimeout = 10 * time.Second

	repo := &mockRepository{events: []*repository.OutboxEvent{newEvent(1, "order-123")}}
	poller := NewOutboxPoller(repo, writer, Config{Interval: time.Second, Timeout: 10 * time.Second}, nil)
	defer poller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    topic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-123", string(msg.Key))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "order-123", payload["order_id"])

	require.Eventually(t, func() bool { return len(repo.processedIDs()) == 1 }, 5*time.Second, 100*time.Millisecond)
}
