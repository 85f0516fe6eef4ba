package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) root(c *gin.Context) {
	c.String(http.StatusOK, "Task Manager API is running")
}

// @Summary  Liveness
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary  Readiness
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /readyz [get]
func (h *Handler) ready(c *gin.Context) {
	if err := h.services.Ready(c.Request.Context()); err != nil {
		if h.log != nil {
			h.log.Warnw("readiness_failed", "err", err)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
