package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bassista/go_fuel/internal/api/controller"
	"github.com/bassista/go_fuel/internal/api/middleware"
	"github.com/bassista/go_fuel/internal/app"
)

// SetupRoutes builds the console engine: health, metrics and the /api surface.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(log))
	r.Use(gin.LoggerWithWriter(log.Writer()))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(appCtx.Metrics, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	timeout := appCtx.Config.Server.RequestTimeout

	mounter := controller.NewMounter(appCtx.Store, appCtx.Gateway)

	NewConfigurationRouter(timeout, api, appCtx.Config, appCtx.Endpoints)
	NewEntityRouter(timeout, api, mounter)
	NewFormRouter(api, mounter, appCtx.Surfaces)
	NewConfirmationRouter(api, mounter, appCtx.Surfaces)
	NewFeedbackRouter(timeout, api, appCtx.Toasts, appCtx.Bus)

	return r
}
