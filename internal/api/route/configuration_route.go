package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/api/controller"
	"github.com/bassista/go_fuel/internal/api/middleware"
	"github.com/bassista/go_fuel/internal/config"
	"github.com/bassista/go_fuel/internal/gateway"
)

// NewConfigurationRouter sets up configuration-related routes.
func NewConfigurationRouter(timeout time.Duration, group *gin.RouterGroup, cfg *config.Config, endpoints gateway.Endpoints) {
	cc := controller.NewConfigurationController(cfg, endpoints)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("configuration", timeoutMiddleware, cc.GetConfiguration)
}
