package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/config"
	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/gateway"
	"github.com/bassista/go_fuel/internal/view"
)

// EntityConfiguration describes one kind to the frontend.
type EntityConfiguration struct {
	Kind     entity.Kind      `json:"kind"`
	Base     string           `json:"base"`
	Encoding gateway.Encoding `json:"encoding"`
	Columns  []view.Column    `json:"columns"`
}

// ConfigurationResponse represents the configuration response structure for the API.
type ConfigurationResponse struct {
	BackendType      string                `json:"backendType"`
	ToastDurationSec float64               `json:"toastDurationSec"`
	Entities         []EntityConfiguration `json:"entities"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config    *config.Config
	endpoints gateway.Endpoints
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config, endpoints gateway.Endpoints) *ConfigurationController {
	return &ConfigurationController{
		config:    cfg,
		endpoints: endpoints,
	}
}

// GetConfiguration returns what the frontend needs to lay out its list views.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	response := ConfigurationResponse{
		BackendType:      cc.config.Backend.Type,
		ToastDurationSec: cc.config.Feedback.ToastDuration.Seconds(),
	}
	for _, kind := range entity.Kinds {
		ep, ok := cc.endpoints.Lookup(kind)
		if !ok {
			continue
		}
		response.Entities = append(response.Entities, EntityConfiguration{
			Kind:     kind,
			Base:     ep.Base,
			Encoding: ep.Encoding,
			Columns:  view.DefaultTable(kind).Columns,
		})
	}
	c.JSON(http.StatusOK, response)
}
