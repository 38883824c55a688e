package http

import "github.com/gin-gonic/gin"

// Register attaches task routes under the projects group. The group carries
// the auth guard; membership is checked per handler.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:id/tasks", h.list)
	rg.POST("/:id/tasks", h.create)
	rg.PUT("/:id/tasks/:taskId", h.update)
	rg.DELETE("/:id/tasks/:taskId", h.delete)
}
