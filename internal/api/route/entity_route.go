package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/api/controller"
	"github.com/bassista/go_fuel/internal/api/middleware"
)

// NewEntityRouter sets up the list view routes. Only reads are time limited.
func NewEntityRouter(timeout time.Duration, group *gin.RouterGroup, mounter *controller.Mounter) {
	ec := controller.NewEntityController(mounter)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("entities/:kind", timeoutMiddleware, ec.Page)
	group.GET("entities/:kind/table", timeoutMiddleware, ec.Table)
	group.POST("entities/:kind/mount", timeoutMiddleware, ec.Mount)
	group.DELETE("entities/:kind/mount", ec.Unmount)
}
