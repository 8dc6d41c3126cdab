package collab

import (
	"errors"
	"net/http"

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

// RegisterRoutes attaches comment and review routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/:id/comments", h.listComments)
	rg.POST("/resumes/:id/comments", h.addComment)
	rg.POST("/comments/:commentId/resolve", h.resolveComment)
	rg.POST("/comments/:commentId/replies", h.addReply)
	rg.DELETE("/comments/:commentId", h.deleteComment)

	rg.GET("/resumes/:id/reviews", h.listReviews)
	rg.POST("/resumes/:id/reviews", h.sendReview)
	rg.PATCH("/reviews/:reviewId/status", h.updateReview)
}

type commentRequest struct {
	Content string `json:"content"`
	Section string `json:"section"`
}

type reviewRequest struct {
	ReviewerName  string `json:"reviewerName"`
	ReviewerEmail string `json:"reviewerEmail"`
	Message       string `json:"message"`
}

type statusRequest struct {
	Status   ReviewStatus `json:"status"`
	Feedback string       `json:"feedback"`
}

func (h *Handler) listComments(c *gin.Context) {
	resumeID, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	items, err := h.Svc.ListComments(c.Request.Context(), resumeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) addComment(c *gin.Context) {
	resumeID, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	comment, err := h.Svc.AddComment(c.Request.Context(), identity(c), resumeID, req.Content, req.Section)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Created(c, comment)
}

func (h *Handler) resolveComment(c *gin.Context) {
	if _, ok := h.loadComment(c); !ok {
		return
	}
	comment, err := h.Svc.ResolveComment(c.Request.Context(), c.Param("commentId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, comment)
}

func (h *Handler) addReply(c *gin.Context) {
	if _, ok := h.loadComment(c); !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	comment, err := h.Svc.AddReply(c.Request.Context(), identity(c), c.Param("commentId"), req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	if _, ok := h.loadComment(c); !ok {
		return
	}
	if err := h.Svc.DeleteComment(c.Request.Context(), c.Param("commentId")); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) listReviews(c *gin.Context) {
	resumeID, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	items, err := h.Svc.ListReviews(c.Request.Context(), resumeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) sendReview(c *gin.Context) {
	resumeID, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rr, err := h.Svc.SendReviewRequest(c.Request.Context(), identity(c), resumeID, req.ReviewerName, req.ReviewerEmail, req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Created(c, rr)
}

func (h *Handler) updateReview(c *gin.Context) {
	rr, err := h.Svc.GetReview(c.Request.Context(), c.Param("reviewId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, ok := h.authorize(c, rr.ResumeID); !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	updated, err := h.Svc.UpdateReviewStatus(c.Request.Context(), rr.ID, req.Status, req.Feedback)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, updated)
}

func (h *Handler) loadComment(c *gin.Context) (Comment, bool) {
	comment, err := h.Svc.GetComment(c.Request.Context(), c.Param("commentId"))
	if err != nil {
		h.fail(c, err)
		return Comment{}, false
	}
	if _, ok := h.authorize(c, comment.ResumeID); !ok {
		return Comment{}, false
	}
	return comment, true
}

func (h *Handler) authorize(c *gin.Context, resumeID string) (string, bool) {
	c.Set("resumeId", resumeID)
	if err := h.Access.Authorize(c.Request.Context(), middleware.UserIDFromContext(c), resumeID); err != nil {
		h.fail(c, err)
		return "", false
	}
	return resumeID, true
}

func identity(c *gin.Context) Identity {
	return Identity{
		ID:    middleware.UserIDFromContext(c),
		Name:  middleware.UserNameFromContext(c),
		Email: middleware.UserEmailFromContext(c),
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if respond.AccessError(c, err) {
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	default:
		respond.StorageError(c, err)
	}
}
