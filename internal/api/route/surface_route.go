package route

import (
	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/api/controller"
	"github.com/bassista/go_fuel/internal/surface"
)

// NewFormRouter sets up the form modal routes. Submits carry no request timeout:
// once sent, a mutation runs until the backend answers.
func NewFormRouter(group *gin.RouterGroup, mounter *controller.Mounter, surfaces *surface.Registry) {
	fc := controller.NewFormController(mounter, surfaces)

	group.POST("entities/:kind/forms", fc.Open)
	group.GET("forms/:form", fc.Get)
	group.PATCH("forms/:form", fc.Patch)
	group.POST("forms/:form/submit", fc.Submit)
	group.DELETE("forms/:form", fc.Close)
}

// NewConfirmationRouter sets up the delete confirmation routes.
func NewConfirmationRouter(group *gin.RouterGroup, mounter *controller.Mounter, surfaces *surface.Registry) {
	cc := controller.NewConfirmationController(mounter, surfaces)

	group.POST("entities/:kind/confirmations", cc.Open)
	group.GET("confirmations/:confirmation", cc.Get)
	group.POST("confirmations/:confirmation/confirm", cc.Confirm)
	group.DELETE("confirmations/:confirmation", cc.Cancel)
}
