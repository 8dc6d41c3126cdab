package resumes

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/server/middleware"
	"resume-workspace/internal/shared/server/respond"
	"resume-workspace/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler exposes resume records. Content edits go through the session
// routes.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes", h.list)
	rg.POST("/resumes", h.create)
	rg.GET("/resumes/:id", h.get)
	rg.PATCH("/resumes/:id", h.rename)
	rg.PUT("/resumes/:id/photo", h.setPhoto)
	rg.DELETE("/resumes/:id", h.delete)
	rg.POST("/imports/file", h.importFile)
	rg.POST("/imports/profile", h.importProfile)
}

type createRequest struct {
	Title      string   `json:"title"`
	Type       Type     `json:"type"`
	TemplateID string   `json:"templateId"`
	Sections   []string `json:"sections"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		Title:      req.Title,
		Type:       req.Type,
		TemplateID: req.TemplateID,
		Sections:   req.Sections,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("resumeId", res.ID)
	respond.Created(c, res)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	res, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, res)
}

type renameRequest struct {
	Title string `json:"title"`
}

func (h *Handler) rename(c *gin.Context) {
	res, ok := h.load(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	updated, err := h.Svc.Rename(c.Request.Context(), res.ID, req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, updated)
}

type photoRequest struct {
	PhotoURL string `json:"photoUrl"`
}

func (h *Handler) setPhoto(c *gin.Context) {
	res, ok := h.load(c)
	if !ok {
		return
	}
	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	updated, err := h.Svc.SetPhoto(c.Request.Context(), res.ID, req.PhotoURL)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, updated)
}

func (h *Handler) delete(c *gin.Context) {
	res, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), res.ID); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) importFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	res, err := h.Svc.Import(c.Request.Context(), middleware.UserIDFromContext(c), c.PostForm("title"),
		data, fileHeader.Header.Get("Content-Type"), fileName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("resumeId", res.ID)
	respond.Created(c, res)
}

type profileRequest struct {
	Title   string  `json:"title"`
	Profile Profile `json:"profile"`
}

func (h *Handler) importProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Svc.ImportProfile(c.Request.Context(), middleware.UserIDFromContext(c), req.Title, req.Profile)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("resumeId", res.ID)
	respond.Created(c, res)
}

// load fetches the resume in the path and checks ownership.
func (h *Handler) load(c *gin.Context) (Resume, bool) {
	id := c.Param("id")
	c.Set("resumeId", id)
	res, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return Resume{}, false
	}
	if res.OwnerID != middleware.UserIDFromContext(c) {
		h.fail(c, ErrForbidden)
		return Resume{}, false
	}
	return res, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if respond.AccessError(c, err) {
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	respond.StorageError(c, err)
}
