package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// stalledWriter never completes a write until its context ends
type stalledWriter struct{}

func (stalledWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledWriter) Close() error { return nil }

type localNotifier struct {
	names    []string
	payloads []interface{}
}

func (n *localNotifier) BroadcastEvent(ctx context.Context, eventName string, payload interface{}) {
	n.names = append(n.names, eventName)
	n.payloads = append(n.payloads, payload)
}

func (n *localNotifier) SendToClient(ctx context.Context, clientID, eventName string, payload interface{}) bool {
	n.names = append(n.names, clientID+":"+eventName)
	return true
}

func TestEventPublisherKeysByTransaction(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewEventPublisher(newProducer(writer))

	err := publisher.PublishTransactionFailed(context.Background(), &models.TransactionFailedEvent{
		BaseEvent:     models.BaseEvent{EventID: "e-1", EventType: models.EventTransactionFailed},
		TransactionID: 12,
		Reason:        "payment_declined",
	})
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "transaction-12", string(writer.messages[0].Key))

	var decoded models.TransactionFailedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, "payment_declined", decoded.Reason)
	assert.Equal(t, models.EventTransactionFailed, decoded.EventType)
}

func TestStockEventRelayPublishes(t *testing.T) {
	writer := &fakeWriter{}
	local := &localNotifier{}
	relay := NewStockEventRelay(newProducer(writer), local)

	relay.BroadcastEvent(context.Background(), models.EventProductStockUpdated, models.StockUpdatedPayload{ProductID: 3, Stock: 7})

	require.Len(t, writer.messages, 1)
	assert.Empty(t, local.names)

	var event models.NotificationEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, models.EventProductStockUpdated, event.EventType)
	assert.NotEmpty(t, event.EventID)

	var payload models.StockUpdatedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, int64(3), payload.ProductID)
	assert.Equal(t, 7, payload.Stock)
}

func TestStockEventRelayFallsBackToLocal(t *testing.T) {
	local := &localNotifier{}
	relay := NewStockEventRelay(newProducer(&fakeWriter{err: errors.New("broker down")}), local)

	relay.BroadcastEvent(context.Background(), models.EventProductStockUpdated, models.StockUpdatedPayload{ProductID: 3})
	assert.Equal(t, []string{models.EventProductStockUpdated}, local.names)

	assert.True(t, relay.SendToClient(context.Background(), "c1", "hello", nil))
	assert.Equal(t, "c1:hello", local.names[1])
}

func TestStockEventRelayBoundsStalledPublish(t *testing.T) {
	local := &localNotifier{}
	relay := NewStockEventRelay(newProducer(stalledWriter{}), local)
	assert.Equal(t, relayPublishTimeout, relay.publishTimeout)
	relay.publishTimeout = 50 * time.Millisecond

	start := time.Now()
	relay.BroadcastEvent(context.WithoutCancel(context.Background()), models.EventProductStockUpdated, models.StockUpdatedPayload{ProductID: 5})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{models.EventProductStockUpdated}, local.names)
}

func TestEventHandlerRoutesNotifications(t *testing.T) {
	handler := NewEventHandler()

	var received *models.NotificationEvent
	handler.OnNotification(func(ctx context.Context, event *models.NotificationEvent) error {
		received = event
		return nil
	})

	value, err := json.Marshal(models.NotificationEvent{
		BaseEvent: models.BaseEvent{EventID: "e-2", EventType: models.EventProductStockUpdated, Timestamp: time.Now()},
		Payload:   json.RawMessage(`{"productId":1,"stock":4}`),
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.NotNil(t, received)
	assert.JSONEq(t, `{"productId":1,"stock":4}`, string(received.Payload))

	other, _ := json.Marshal(models.BaseEvent{EventID: "e-3", EventType: models.EventTransactionCompleted})
	received = nil
	require.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: other}))
	assert.Nil(t, received)

	assert.Error(t, handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")}))
}
