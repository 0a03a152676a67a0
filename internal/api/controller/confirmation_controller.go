package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/surface"
)

// ConfirmationController drives delete confirmations.
type ConfirmationController struct {
	mounter  *Mounter
	surfaces *surface.Registry
}

func NewConfirmationController(m *Mounter, r *surface.Registry) *ConfirmationController {
	return &ConfirmationController{mounter: m, surfaces: r}
}

// Open handles POST /api/entities/:kind/confirmations with {"id": ...}.
func (cc *ConfirmationController) Open(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var body openRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing record id"})
		return
	}
	coll, err := cc.mounter.Ensure(c.Request.Context(), kind)
	if err != nil {
		writeLoadError(c, err)
		return
	}
	rec, found := entity.Find(coll.Snapshot(), body.ID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusCreated, cc.surfaces.OpenDeleteConfirmation(kind, rec).View())
}

// Get handles GET /api/confirmations/:confirmation.
func (cc *ConfirmationController) Get(c *gin.Context) {
	d, ok := cc.confirmation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d.View())
}

// Confirm handles POST /api/confirmations/:confirmation/confirm.
func (cc *ConfirmationController) Confirm(c *gin.Context) {
	d, ok := cc.confirmation(c)
	if !ok {
		return
	}
	writeOutcome(c, d.Confirm(context.WithoutCancel(c.Request.Context())))
}

// Cancel handles DELETE /api/confirmations/:confirmation. It never calls the backend.
func (cc *ConfirmationController) Cancel(c *gin.Context) {
	d, ok := cc.confirmation(c)
	if !ok {
		return
	}
	d.Cancel()
	c.Status(http.StatusNoContent)
}

func (cc *ConfirmationController) confirmation(c *gin.Context) (*surface.DeleteConfirmation, bool) {
	d, ok := cc.surfaces.Confirmation(c.Param("confirmation"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "confirmation not found"})
		return nil, false
	}
	return d, true
}
