package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/logger"
	"github.com/bassista/go_fuel/internal/surface"
)

type openRequest struct {
	ID string `json:"id"`
}

// FormController drives add/edit form modals.
type FormController struct {
	mounter  *Mounter
	surfaces *surface.Registry
}

func NewFormController(m *Mounter, r *surface.Registry) *FormController {
	return &FormController{mounter: m, surfaces: r}
}

// Open handles POST /api/entities/:kind/forms. With {"id": ...} the form edits
// that record, otherwise it creates a new one.
func (fc *FormController) Open(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var body openRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	coll, err := fc.mounter.Ensure(c.Request.Context(), kind)
	if err != nil {
		writeLoadError(c, err)
		return
	}

	var form *surface.FormModal
	if body.ID == "" {
		form = fc.surfaces.OpenCreateForm(kind)
	} else {
		rec, found := entity.Find(coll.Snapshot(), body.ID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		form = fc.surfaces.OpenEditForm(kind, rec)
	}
	logger.WithEntity("form-controller", string(kind), "open").Debugf("form %s opened", form.ID())
	c.JSON(http.StatusCreated, form.View())
}

// Get handles GET /api/forms/:form.
func (fc *FormController) Get(c *gin.Context) {
	form, ok := fc.form(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, form.View())
}

// Patch handles PATCH /api/forms/:form with a {"field": "value"} body.
// Edits made while a submit is pending only change the draft.
func (fc *FormController) Patch(c *gin.Context) {
	form, ok := fc.form(c)
	if !ok {
		return
	}
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if _, has := fields[entity.IDField]; has {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is not editable"})
		return
	}
	for k, v := range fields {
		if !form.Set(k, v) {
			c.JSON(http.StatusGone, gin.H{"error": "form is closed"})
			return
		}
	}
	c.JSON(http.StatusOK, form.View())
}

// Submit handles POST /api/forms/:form/submit.
// The mutation outlives the HTTP request: a client disconnect does not cancel it.
func (fc *FormController) Submit(c *gin.Context) {
	form, ok := fc.form(c)
	if !ok {
		return
	}
	out := form.Submit(context.WithoutCancel(c.Request.Context()))
	writeOutcome(c, out)
}

// Close handles DELETE /api/forms/:form. A pending submit keeps running.
func (fc *FormController) Close(c *gin.Context) {
	form, ok := fc.form(c)
	if !ok {
		return
	}
	form.Close()
	c.Status(http.StatusNoContent)
}

func (fc *FormController) form(c *gin.Context) (*surface.FormModal, bool) {
	form, ok := fc.surfaces.Form(c.Param("form"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return nil, false
	}
	return form, true
}
