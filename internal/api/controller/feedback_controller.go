package controller

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/feedback"
	"github.com/bassista/go_fuel/internal/logger"
)

// eventKeepAlive is how often an idle event stream gets a comment line.
const eventKeepAlive = 15 * time.Second

// FeedbackController exposes toasts and the live event stream.
type FeedbackController struct {
	toasts    *feedback.Toasts
	bus       *feedback.Bus
	keepAlive time.Duration
}

func NewFeedbackController(toasts *feedback.Toasts, bus *feedback.Bus) *FeedbackController {
	return &FeedbackController{toasts: toasts, bus: bus, keepAlive: eventKeepAlive}
}

// Toasts handles GET /api/toasts.
func (fc *FeedbackController) Toasts(c *gin.Context) {
	c.JSON(http.StatusOK, fc.toasts.Active())
}

// Dismiss handles DELETE /api/toasts/:toast.
func (fc *FeedbackController) Dismiss(c *gin.Context) {
	if !fc.toasts.Dismiss(c.Param("toast")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "toast not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Events handles GET /api/events, a server-sent stream of outcome events.
// Headers are flushed at once so clients see the stream open before the
// first event. The server write timeout does not apply to the stream.
func (fc *FeedbackController) Events(c *gin.Context) {
	events, cancel := fc.bus.Subscribe()
	defer cancel()

	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.WithComponent("events").Warnf("cannot clear write deadline: %v", err)
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(fc.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ticker.C:
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Level), e)
			return true
		}
	})
}
