package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sseHeartbeat = 30 * time.Second

type SSEHandler struct {
	hub     *events.Hub
	metrics *metrics.Metrics
}

func NewSSEHandler(hub *events.Hub, m *metrics.Metrics) *SSEHandler {
	return &SSEHandler{hub: hub, metrics: m}
}

// Stream GET /events?token=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	client := &events.Client{
		ID:     uuid.New().String(),
		UserID: GetUserID(c),
		Events: make(chan events.Event, 64),
	}
	h.hub.Register(client)
	h.metrics.SSEConnected()
	defer h.metrics.SSEDisconnected()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + client.ID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(client.ID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
