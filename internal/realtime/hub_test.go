package realtime

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesAllListeners(t *testing.T) {
	hub := NewHub(4)
	a := hub.Subscribe()
	b := hub.Subscribe()
	assert.Equal(t, 2, hub.ClientCount())

	hub.BroadcastEvent(context.Background(), "product_stock_updated", map[string]int{"stock": 3})

	for _, c := range []*Client{a, b} {
		select {
		case ev := <-c.Events():
			assert.Equal(t, "product_stock_updated", ev.Name)
		default:
			t.Fatalf("client %s did not receive the event", c.ID)
		}
	}
}

func TestSendToClient(t *testing.T) {
	hub := NewHub(1)
	a := hub.Subscribe()
	b := hub.Subscribe()

	assert.True(t, hub.SendToClient(context.Background(), a.ID, "hello", "a"))
	assert.False(t, hub.SendToClient(context.Background(), "unknown", "hello", "x"))

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 0)
}

func TestFullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(1)
	c := hub.Subscribe()

	hub.BroadcastEvent(context.Background(), "first", 1)
	hub.BroadcastEvent(context.Background(), "second", 2)
	assert.False(t, hub.SendToClient(context.Background(), c.ID, "third", 3))

	ev := <-c.Events()
	assert.Equal(t, "first", ev.Name)
	assert.Len(t, c.Events(), 0)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1)
	c := hub.Subscribe()
	hub.Unsubscribe(c.ID)
	hub.Unsubscribe(c.ID)

	_, ok := <-c.Events()
	require.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	hub.BroadcastEvent(context.Background(), "after", nil)
}

func TestCloseDisconnectsListeners(t *testing.T) {
	hub := NewHub(2)
	a := hub.Subscribe()
	b := hub.Subscribe()
	hub.BroadcastEvent(context.Background(), "pending", 1)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	for _, c := range []*Client{a, b} {
		ev, ok := <-c.Events()
		require.True(t, ok)
		assert.Equal(t, "pending", ev.Name)
		_, ok = <-c.Events()
		assert.False(t, ok)
	}

	late := hub.Subscribe()
	_, ok := <-late.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	hub.Unsubscribe(a.ID)
	hub.Unsubscribe(late.ID)
	hub.BroadcastEvent(context.Background(), "after", nil)
}

func TestCloseEndsOpenStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(2)
	router := gin.New()
	router.GET("/stream", hub.ServeSSE)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "event:connected"), line)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, reader)
		done <- err
	}()

	hub.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream stayed open after the hub closed")
	}
}
