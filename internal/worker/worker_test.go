package worker

import (
	"context"
	"encoding/json"
	"testing"

	"storefront/internal/models"
	"storefront/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverBroadcastsToLocalListeners(t *testing.T) {
	hub := realtime.NewHub(4)
	client := hub.Subscribe()
	defer hub.Unsubscribe(client.ID)

	err := Deliver(hub)(context.Background(), &models.NotificationEvent{
		BaseEvent: models.BaseEvent{EventID: "e-1", EventType: models.EventProductStockUpdated},
		Payload:   json.RawMessage(`{"productId":5,"stock":2}`),
	})
	require.NoError(t, err)

	select {
	case event := <-client.Events():
		assert.Equal(t, models.EventProductStockUpdated, event.Name)
		raw, ok := event.Payload.(json.RawMessage)
		require.True(t, ok)
		assert.JSONEq(t, `{"productId":5,"stock":2}`, string(raw))
	default:
		t.Fatal("expected an event for the listener")
	}
}
