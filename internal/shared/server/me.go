package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/server/middleware"
	"resume-workspace/internal/shared/server/respond"
)

// meResponse is the identity the editor shows as comment and review author.
type meResponse struct {
	UserID  string `json:"userId"`
	IsGuest bool   `json:"isGuest"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	respond.OK(c, meResponse{
		UserID:  userID,
		IsGuest: c.GetBool("isGuest"),
		Email:   middleware.UserEmailFromContext(c),
		Name:    middleware.UserNameFromContext(c),
	})
}
