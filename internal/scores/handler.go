package scores

import (
	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/access"
	"resume-workspace/internal/shared/server/middleware"
	"resume-workspace/internal/shared/server/respond"
)

type Handler struct {
	Svc    *Service
	Access access.Checker
}

func NewHandler(svc *Service, checker access.Checker) *Handler {
	return &Handler{Svc: svc, Access: checker}
}

// RegisterRoutes attaches score history routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/:id/scores", h.history)
}

func (h *Handler) history(c *gin.Context) {
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)
	if err := h.Access.Authorize(c.Request.Context(), middleware.UserIDFromContext(c), resumeID); err != nil {
		if !respond.AccessError(c, err) {
			respond.StorageError(c, err)
		}
		return
	}
	items, err := h.Svc.History(c.Request.Context(), resumeID)
	if err != nil {
		respond.StorageError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}
