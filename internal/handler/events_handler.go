package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trailmate/backend/internal/hub"
)

const (
	clientBuffer      = 16
	heartbeatInterval = 25 * time.Second
)

// StreamFeed godoc
// @Summary      Stream activity events
// @Description  Server-sent events for every activity change (created, updated, cancelled, completed, joins and leaves).
// @Tags         events
// @Produce      text/event-stream
// @Success      200 {object} hub.Event
// @Router       /activities/events [get]
func (h *Handler) StreamFeed(c *gin.Context) {
	h.stream(c, hub.FeedTopic)
}

// StreamActivity godoc
// @Summary      Stream events for one activity
// @Description  Server-sent events for changes to a single activity and its roster.
// @Tags         events
// @Produce      text/event-stream
// @Param        id  path     string true "Activity ID"
// @Success      200 {object} hub.Event
// @Router       /activities/{id}/events [get]
func (h *Handler) StreamActivity(c *gin.Context) {
	h.stream(c, c.Param("id"))
}

func (h *Handler) stream(c *gin.Context, topic string) {
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates are unavailable"})
		return
	}

	client := make(hub.Client, clientBuffer)
	h.Hub.Subscribe(topic, client)
	defer h.Hub.Unsubscribe(topic, client)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream;charset=utf-8")

	// Commit the status line so clients on a quiet topic see the stream open.
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("activity", string(msg))
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", "")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
