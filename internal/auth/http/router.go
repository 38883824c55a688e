package http

import "github.com/gin-gonic/gin"

// Register attaches auth routes to the given router group. Only /me is
// protected; authn is the guard middleware.
func (h *Handler) Register(rg *gin.RouterGroup, authn gin.HandlerFunc) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.GET("/me", authn, h.me)
}
