package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/api/controller"
	"github.com/bassista/go_fuel/internal/api/middleware"
	"github.com/bassista/go_fuel/internal/feedback"
)

// NewFeedbackRouter sets up toast and event stream routes.
func NewFeedbackRouter(timeout time.Duration, group *gin.RouterGroup, toasts *feedback.Toasts, bus *feedback.Bus) {
	fc := controller.NewFeedbackController(toasts, bus)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("toasts", timeoutMiddleware, fc.Toasts)
	group.DELETE("toasts/:toast", fc.Dismiss)
	group.GET("events", fc.Events)
}
