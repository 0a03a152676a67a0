package controller

import (
	"errors"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/crud"
	"github.com/bassista/go_fuel/internal/entity"
)

// PendingMessage answers a trigger on an origin that is already Pending.
const PendingMessage = "This action is already in progress."

// outcomeResponse is the body of every mutation answer.
type outcomeResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// kindParam parses :kind and answers 404 for unknown kinds.
func kindParam(c *gin.Context) (entity.Kind, bool) {
	kind, err := entity.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", false
	}
	return kind, true
}

// writeOutcome maps a controller outcome to a status code:
// 200 success, 409 already pending, 422 refused by the backend, 502 backend unreachable.
func writeOutcome(c *gin.Context, out crud.Outcome) {
	switch {
	case !out.Accepted:
		c.JSON(http.StatusConflict, outcomeResponse{Message: PendingMessage})
	case out.Success:
		c.JSON(http.StatusOK, outcomeResponse{Success: true, ID: out.ID, Message: out.Message})
	case errdefs.IsFailedPrecondition(out.Cause):
		c.JSON(http.StatusUnprocessableEntity, outcomeResponse{Message: out.Message})
	default:
		c.JSON(http.StatusBadGateway, outcomeResponse{Message: out.Message})
	}
}

// writeLoadError answers a failed backend list call.
func writeLoadError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errdefs.IsInvalidArgument(err) {
		status = http.StatusBadRequest
	}
	msg := err.Error()
	if errors.Is(err, errdefs.ErrUnavailable) {
		msg = "backend unavailable"
	}
	c.JSON(status, gin.H{"error": msg})
}
