package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/collab"
	"resume-workspace/internal/editor"
	"resume-workspace/internal/resumes"
	"resume-workspace/internal/scores"
	"resume-workspace/internal/services/health"
	"resume-workspace/internal/shared/auth"
	"resume-workspace/internal/shared/config"
	"resume-workspace/internal/shared/metrics"
	"resume-workspace/internal/shared/server/middleware"
	"resume-workspace/internal/shared/server/respond"
	"resume-workspace/internal/versions"
)

// RouterDeps are the handlers mounted under /api/v1.
type RouterDeps struct {
	Config   config.Config
	Verifier *auth.Verifier
	Health   *health.Service

	ResumeHandler  *resumes.Handler
	VersionHandler *versions.Handler
	EditorHandler  *editor.Handler
	CollabHandler  *collab.Handler
	ScoreHandler   *scores.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())
	r.GET("/api/v1/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		st := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})

	limits := deps.Config.RateLimit
	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: limits.Rate, Burst: limits.Burst},
				"AI":      {Rate: limits.AIRate, Burst: limits.AIBurst},
			},
			GroupFor: middleware.AIGroup,
		}),
	)
	registerMeRoutes(api)

	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api)
	}
	if deps.VersionHandler != nil {
		deps.VersionHandler.RegisterRoutes(api)
	}
	if deps.EditorHandler != nil {
		deps.EditorHandler.RegisterRoutes(api)
	}
	if deps.CollabHandler != nil {
		deps.CollabHandler.RegisterRoutes(api)
	}
	if deps.ScoreHandler != nil {
		deps.ScoreHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
