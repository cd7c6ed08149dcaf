package handlers

import (
	"net/http"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/service"

	"github.com/gin-gonic/gin"
)

// Админские ручки, права проверяет middleware.Admin

func (h *Handler) AdminFillEnergy(c *gin.Context) {
	authed(c, func(id int64) {
		energy, err := h.Admin.FillEnergy(c.Request.Context(), id, getTgID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "energy": energy})
	})
}

func (h *Handler) AdminGrant(c *gin.Context) {
	authed(c, func(id int64) {
		var g service.Grant
		if err := c.ShouldBindJSON(&g); err != nil {
			badRequest(c)
			return
		}
		acc, err := h.Admin.Grant(c.Request.Context(), id, getTgID(c), g)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": acc})
	})
}

func (h *Handler) AdminTasks(c *gin.Context) {
	tasks, err := h.Admin.Tasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) AdminCreateTask(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	task, err := h.Admin.CreateTask(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": task})
}

type TaskActiveRequest struct {
	TaskID   int64 `json:"taskId" binding:"required,gt=0"`
	IsActive *bool `json:"isActive" binding:"required"`
}

func (h *Handler) AdminSetTaskActive(c *gin.Context) {
	var req TaskActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.Admin.SetTaskActive(c.Request.Context(), req.TaskID, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
