package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ShotStart(c *gin.Context) {
	authed(c, func(id int64) {
		res, err := h.Game.Start(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

type FireRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	// pointer so that 0 passes "required"
	ClientElapsedMs *int64 `json:"clientElapsedMs" binding:"required,min=0,max=60000"`
}

func (h *Handler) ShotFire(c *gin.Context) {
	authed(c, func(id int64) {
		var req FireRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		elapsed := time.Duration(*req.ClientElapsedMs) * time.Millisecond
		res, err := h.Game.Fire(c.Request.Context(), id, req.SessionID, elapsed)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}
