package versions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/access"
	"resume-workspace/internal/shared/server/middleware"
	"resume-workspace/internal/shared/server/respond"
)

// Handler exposes version CRUD. Restore and snapshots go through the editing
// session so they interact correctly with history and autosave.
type Handler struct {
	Svc    *Service
	Access access.Checker
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, checker access.Checker) *Handler {
	return &Handler{Svc: svc, Access: checker}
}

// RegisterRoutes attaches version routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/:id/versions", h.list)
	rg.GET("/versions/:versionId", h.get)
	rg.PATCH("/versions/:versionId", h.rename)
	rg.DELETE("/versions/:versionId", h.delete)
	rg.GET("/versions/:versionId/compare/:otherId", h.compare)
}

func (h *Handler) list(c *gin.Context) {
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)
	if err := h.Access.Authorize(c.Request.Context(), middleware.UserIDFromContext(c), resumeID); err != nil {
		h.fail(c, err)
		return
	}
	items, err := h.Svc.List(c.Request.Context(), resumeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	v, ok := h.load(c, c.Param("versionId"))
	if !ok {
		return
	}
	respond.OK(c, v)
}

type renameRequest struct {
	Label string `json:"label"`
}

func (h *Handler) rename(c *gin.Context) {
	v, ok := h.load(c, c.Param("versionId"))
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	updated, err := h.Svc.Rename(c.Request.Context(), v.ID, req.Label)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, updated)
}

func (h *Handler) delete(c *gin.Context) {
	v, ok := h.load(c, c.Param("versionId"))
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), v.ID); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) compare(c *gin.Context) {
	from, ok := h.load(c, c.Param("versionId"))
	if !ok {
		return
	}
	to, ok := h.load(c, c.Param("otherId"))
	if !ok {
		return
	}
	if from.ResumeID != to.ResumeID {
		respond.Error(c, http.StatusBadRequest, "validation_error", "versions belong to different resumes", nil)
		return
	}
	res, err := h.Svc.Compare(c.Request.Context(), from.ID, to.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"from": from.ID, "to": to.ID, "diff": res})
}

// load fetches a version and checks the caller owns its resume.
func (h *Handler) load(c *gin.Context, id string) (Version, bool) {
	c.Set("versionId", id)
	v, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return Version{}, false
	}
	c.Set("resumeId", v.ResumeID)
	if err := h.Access.Authorize(c.Request.Context(), middleware.UserIDFromContext(c), v.ResumeID); err != nil {
		h.fail(c, err)
		return Version{}, false
	}
	return v, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if respond.AccessError(c, err) {
		return
	}
	switch {
	case errors.Is(err, ErrVersionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Version not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.StorageError(c, err)
	}
}
