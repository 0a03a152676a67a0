package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_fuel/internal/config"
	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/gateway"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetConfiguration(t *testing.T) {
	cfg := &config.Config{
		Backend:  config.BackendConfig{Type: config.BackendTypeMemory},
		Feedback: config.FeedbackConfig{ToastDuration: 3 * time.Second},
	}
	endpoints := gateway.DefaultEndpoints()
	delete(endpoints, entity.KindTransaction)

	r := gin.New()
	r.GET("/api/configuration", NewConfigurationController(cfg, endpoints).GetConfiguration)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/configuration", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConfigurationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, config.BackendTypeMemory, resp.BackendType)
	assert.InDelta(t, 3.0, resp.ToastDurationSec, 0.001)
	require.Len(t, resp.Entities, len(entity.Kinds)-1, "kinds without an endpoint are left out")

	first := resp.Entities[0]
	assert.Equal(t, entity.KindCustomer, first.Kind)
	assert.Equal(t, "/customers", first.Base)
	assert.Equal(t, gateway.EncodingMultipart, first.Encoding)
	assert.NotEmpty(t, first.Columns)
}
