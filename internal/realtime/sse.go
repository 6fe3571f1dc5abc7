package realtime

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 25 * time.Second

// ServeSSE streams hub events to the requesting client as Server-Sent Events
func (h *Hub) ServeSSE(c *gin.Context) {
	client := h.Subscribe()
	defer h.Unsubscribe(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"clientId": client.ID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case event, ok := <-client.Events():
			if !ok {
				return false
			}
			c.SSEvent(event.Name, event.Payload)
			return true
		}
	})
}
