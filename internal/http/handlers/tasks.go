package handlers

import (
	"net/http"

	"ton_shooter/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTasks(c *gin.Context) {
	authed(c, func(id int64) {
		tasks, err := h.Tasks.List(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if tasks == nil {
			tasks = []domain.TaskView{}
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks})
	})
}

type TaskRequest struct {
	TaskID    int64  `json:"taskId" binding:"required,gt=0"`
	OpenToken string `json:"openToken"`
}

func (h *Handler) OpenTask(c *gin.Context) {
	authed(c, func(id int64) {
		var req TaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		res, err := h.Tasks.Open(c.Request.Context(), id, req.TaskID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func (h *Handler) ClaimTask(c *gin.Context) {
	authed(c, func(id int64) {
		var req TaskRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.OpenToken == "" {
			badRequest(c)
			return
		}
		res, err := h.Tasks.Claim(c.Request.Context(), id, req.TaskID, req.OpenToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}
