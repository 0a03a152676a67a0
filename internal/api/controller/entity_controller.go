package controller

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/logger"
	"github.com/bassista/go_fuel/internal/view"
)

// EntityController serves the list views.
type EntityController struct {
	mounter *Mounter
}

func NewEntityController(m *Mounter) *EntityController {
	return &EntityController{mounter: m}
}

// Page handles GET /api/entities/:kind?q= - the filtered rows and their totals.
func (ec *EntityController) Page(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	coll, err := ec.mounter.Ensure(c.Request.Context(), kind)
	if err != nil {
		logger.WithComponent("entity-controller").Warnf("GET %s: %v", kind, err)
		writeLoadError(c, err)
		return
	}
	c.JSON(http.StatusOK, view.DefaultTable(kind).Page(coll.Snapshot(), c.Query("q")))
}

// Table handles GET /api/entities/:kind/table?q= - the same rows as aligned text.
func (ec *EntityController) Table(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	coll, err := ec.mounter.Ensure(c.Request.Context(), kind)
	if err != nil {
		writeLoadError(c, err)
		return
	}
	tbl := view.DefaultTable(kind)
	var buf bytes.Buffer
	if err := tbl.Render(&buf, tbl.Rows(coll.Snapshot(), c.Query("q"))); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render table"})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// Mount handles POST /api/entities/:kind/mount - refetch from the backend.
func (ec *EntityController) Mount(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	coll, err := ec.mounter.Remount(c.Request.Context(), kind)
	if err != nil {
		writeLoadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "count": coll.Len(), "mounted_at": coll.MountedAt()})
}

// Unmount handles DELETE /api/entities/:kind/mount.
func (ec *EntityController) Unmount(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	if !ec.mounter.Unmount(kind) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not mounted"})
		return
	}
	c.Status(http.StatusNoContent)
}
