package editor

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/ai"
	"resume-workspace/internal/shared/access"
	"resume-workspace/internal/shared/server/middleware"
	"resume-workspace/internal/shared/server/respond"
)

// Handler exposes editing sessions over HTTP. Every route works on the
// session for :id and opens it on first use.
type Handler struct {
	Mgr    *Manager
	Access access.Checker
}

// NewHandler constructs a Handler.
func NewHandler(mgr *Manager, checker access.Checker) *Handler {
	return &Handler{Mgr: mgr, Access: checker}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/resumes/:id/session")
	g.POST("", h.open)
	g.GET("", h.state)
	g.DELETE("", h.close)

	g.PUT("/content", h.edit)
	g.POST("/sections", h.addSection)
	g.DELETE("/sections/:name", h.removeSection)
	g.PUT("/sections/order", h.reorderSections)
	g.POST("/undo", h.undo)
	g.POST("/redo", h.redo)

	g.POST("/save", h.save)
	g.POST("/snapshots", h.snapshot)
	g.POST("/restore/:versionId", h.restore)
	g.GET("/compare/:versionId", h.compare)
	g.PUT("/template", h.template)
	g.POST("/export", h.export)

	g.POST("/reorder/trigger", h.trigger)
	g.POST("/reorder/interact", h.interact)
	g.POST("/reorder/drag", h.drag)
	g.POST("/reorder/hover", h.hover)
	g.POST("/reorder/drop", h.drop)
	g.POST("/reorder/cancel", h.cancelDrag)

	g.POST("/ai/enhance", h.enhance)
	g.POST("/ai/rewrite", h.rewrite)
	g.POST("/ai/ats", h.ats)
	g.POST("/ai/gaps", h.gaps)
	g.POST("/ai/keywords", h.keywords)
}

// session authorizes the caller and returns the open session.
func (h *Handler) session(c *gin.Context, op string) (*Session, bool) {
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)
	c.Set("sessionOp", op)
	ctx := c.Request.Context()
	if err := h.Access.Authorize(ctx, middleware.UserIDFromContext(c), resumeID); err != nil {
		h.fail(c, nil, err)
		return nil, false
	}
	s, err := h.Mgr.Open(ctx, resumeID)
	if err != nil {
		h.fail(c, nil, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) open(c *gin.Context) {
	s, ok := h.session(c, "open")
	if !ok {
		return
	}
	respond.OK(c, gin.H{"state": s.State(), "redoEnabled": h.Mgr.RedoEnabled()})
}

func (h *Handler) state(c *gin.Context) {
	s, ok := h.session(c, "state")
	if !ok {
		return
	}
	respond.OK(c, gin.H{"state": s.State()})
}

func (h *Handler) close(c *gin.Context) {
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)
	c.Set("sessionOp", "close")
	if err := h.Access.Authorize(c.Request.Context(), middleware.UserIDFromContext(c), resumeID); err != nil {
		h.fail(c, nil, err)
		return
	}
	h.Mgr.Close(resumeID)
	respond.NoContent(c)
}

type contentRequest struct {
	Content *string `json:"content"`
}

func (h *Handler) edit(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		badRequest(c, "content is required")
		return
	}
	s, ok := h.session(c, "edit")
	if !ok {
		return
	}
	st, err := s.Edit(*req.Content)
	h.reply(c, st, err)
}

type sectionRequest struct {
	Name string `json:"name"`
}

func (h *Handler) addSection(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "add_section")
	if !ok {
		return
	}
	st, err := s.AddSection(req.Name)
	h.reply(c, st, err)
}

func (h *Handler) removeSection(c *gin.Context) {
	s, ok := h.session(c, "remove_section")
	if !ok {
		return
	}
	st, err := s.RemoveSection(c.Param("name"))
	h.reply(c, st, err)
}

type orderRequest struct {
	Order []string `json:"order"`
}

func (h *Handler) reorderSections(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "reorder_sections")
	if !ok {
		return
	}
	st, err := s.ReorderSections(req.Order)
	h.reply(c, st, err)
}

func (h *Handler) undo(c *gin.Context) {
	s, ok := h.session(c, "undo")
	if !ok {
		return
	}
	st, err := s.Undo()
	h.reply(c, st, err)
}

func (h *Handler) redo(c *gin.Context) {
	s, ok := h.session(c, "redo")
	if !ok {
		return
	}
	st, err := s.Redo()
	h.reply(c, st, err)
}

func (h *Handler) save(c *gin.Context) {
	s, ok := h.session(c, "save")
	if !ok {
		return
	}
	st, res, err := s.Save(c.Request.Context())
	if err != nil {
		h.fail(c, &st, err)
		return
	}
	respond.OK(c, gin.H{"state": st, "versionCreated": res.Created, "version": res.Version})
}

type snapshotRequest struct {
	Label string `json:"label"`
}

func (h *Handler) snapshot(c *gin.Context) {
	var req snapshotRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	s, ok := h.session(c, "snapshot")
	if !ok {
		return
	}
	v, err := s.CreateSnapshot(c.Request.Context(), req.Label)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	respond.Created(c, v)
}

func (h *Handler) restore(c *gin.Context) {
	s, ok := h.session(c, "restore")
	if !ok {
		return
	}
	c.Set("versionId", c.Param("versionId"))
	st, err := s.RestoreVersion(c.Request.Context(), c.Param("versionId"))
	h.reply(c, st, err)
}

func (h *Handler) compare(c *gin.Context) {
	s, ok := h.session(c, "compare")
	if !ok {
		return
	}
	c.Set("versionId", c.Param("versionId"))
	res, err := s.CompareWithVersion(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	respond.OK(c, gin.H{"versionId": c.Param("versionId"), "diff": res})
}

type templateRequest struct {
	TemplateID string `json:"templateId"`
}

func (h *Handler) template(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "template")
	if !ok {
		return
	}
	st, err := s.ApplyTemplate(c.Request.Context(), req.TemplateID)
	h.reply(c, st, err)
}

type exportRequest struct {
	Format string `json:"format"`
}

func (h *Handler) export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "export")
	if !ok {
		return
	}
	receipt, err := s.Export(c.Request.Context(), req.Format)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, receipt)
}

type triggerRequest struct {
	AtMs int64 `json:"atMs"`
}

func (h *Handler) trigger(c *gin.Context) {
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	s, ok := h.session(c, "reorder_trigger")
	if !ok {
		return
	}
	var at time.Time
	if req.AtMs > 0 {
		at = time.UnixMilli(req.AtMs)
	}
	st, err := s.Trigger(at)
	h.reply(c, st, err)
}

func (h *Handler) interact(c *gin.Context) {
	s, ok := h.session(c, "reorder_interact")
	if !ok {
		return
	}
	st, err := s.Interact()
	h.reply(c, st, err)
}

type dragRequest struct {
	Section string `json:"section"`
}

func (h *Handler) drag(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "reorder_drag")
	if !ok {
		return
	}
	st, err := s.BeginDrag(req.Section)
	h.reply(c, st, err)
}

type hoverRequest struct {
	Target   string  `json:"target"`
	PointerY float64 `json:"pointerY"`
	Top      float64 `json:"top"`
	Height   float64 `json:"height"`
}

func (h *Handler) hover(c *gin.Context) {
	var req hoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "reorder_hover")
	if !ok {
		return
	}
	st, err := s.Hover(req.Target, req.PointerY, req.Top, req.Height)
	h.reply(c, st, err)
}

func (h *Handler) drop(c *gin.Context) {
	s, ok := h.session(c, "reorder_drop")
	if !ok {
		return
	}
	st, err := s.Drop()
	h.reply(c, st, err)
}

func (h *Handler) cancelDrag(c *gin.Context) {
	s, ok := h.session(c, "reorder_cancel")
	if !ok {
		return
	}
	st, err := s.CancelDrag()
	h.reply(c, st, err)
}

type enhanceRequest struct {
	Selection string `json:"selection"`
}

func (h *Handler) enhance(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "ai_enhance")
	if !ok {
		return
	}
	st, res, err := s.EnhanceSelection(c.Request.Context(), req.Selection)
	if err != nil {
		h.fail(c, &st, err)
		return
	}
	respond.OK(c, gin.H{"state": st, "enhancement": res})
}

type rewriteRequest struct {
	Section     string `json:"section"`
	Instruction string `json:"instruction"`
}

func (h *Handler) rewrite(c *gin.Context) {
	var req rewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "ai_rewrite")
	if !ok {
		return
	}
	st, res, err := s.RewriteSection(c.Request.Context(), req.Section, req.Instruction)
	if err != nil {
		h.fail(c, &st, err)
		return
	}
	respond.OK(c, gin.H{"state": st, "enhancement": res})
}

type jobRequest struct {
	JobDescription string `json:"jobDescription"`
}

func (h *Handler) ats(c *gin.Context) {
	var req jobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	s, ok := h.session(c, "ai_ats")
	if !ok {
		return
	}
	res, err := s.AnalyzeATS(c.Request.Context(), req.JobDescription)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) gaps(c *gin.Context) {
	s, ok := h.session(c, "ai_gaps")
	if !ok {
		return
	}
	res, err := s.AnalyzeGaps(c.Request.Context())
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) keywords(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, ok := h.session(c, "ai_keywords")
	if !ok {
		return
	}
	res, err := s.MatchKeywords(c.Request.Context(), req.JobDescription)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	respond.OK(c, res)
}

// reply writes the state, or maps err. Structural no-ops still answer 200 so
// the client can render the unchanged state.
func (h *Handler) reply(c *gin.Context, st State, err error) {
	if err != nil {
		h.fail(c, &st, err)
		return
	}
	respond.OK(c, gin.H{"state": st})
}

func (h *Handler) fail(c *gin.Context, st *State, err error) {
	if respond.AccessError(c, err) {
		return
	}
	switch Classify(err) {
	case KindStructural:
		body := gin.H{"noop": err.Error()}
		if st != nil {
			body["state"] = *st
		}
		respond.OK(c, body)
	case KindValidation:
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case KindNotFound:
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case KindConflict:
		switch {
		case errors.Is(err, ErrAIBusy):
			respond.Error(c, http.StatusConflict, "ai_busy", "An AI request is already running for this resume", nil)
		case errors.Is(err, ErrStaleResponse):
			respond.Error(c, http.StatusConflict, "ai_stale_response", "The resume changed while the AI request was running; nothing was applied", nil)
		default:
			respond.Error(c, http.StatusConflict, "session_closed", err.Error(), nil)
		}
	case KindRemote:
		if errors.Is(err, ai.ErrMissingCredential) {
			respond.Error(c, http.StatusServiceUnavailable, "ai_missing_credential", "AI features are not configured", nil)
			return
		}
		respond.Error(c, http.StatusBadGateway, "ai_unavailable", "The AI service could not complete the request", nil)
	default:
		respond.StorageError(c, err)
	}
}

func badRequest(c *gin.Context, msg string) {
	respond.Error(c, http.StatusBadRequest, "validation_error", msg, nil)
}
