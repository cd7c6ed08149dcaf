package handlers

import (
	"errors"
	"io"
	"net/http"

	"ton_shooter/internal/economy"
	"ton_shooter/internal/service"

	"github.com/gin-gonic/gin"
)

type UpgradeRequest struct {
	Which string `json:"which" binding:"required,oneof=weapon range"`
}

func (h *Handler) Upgrade(c *gin.Context) {
	authed(c, func(id int64) {
		var req UpgradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		which, err := economy.ParseTrack(req.Which)
		if err != nil {
			badRequest(c)
			return
		}
		res, err := h.Economy.Upgrade(c.Request.Context(), id, which)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

type ExchangeRequest struct {
	Direction string `json:"direction" binding:"required,oneof=coins_to_crystals crystals_to_ton"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

func (h *Handler) Exchange(c *gin.Context) {
	authed(c, func(id int64) {
		var req ExchangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		bal, err := h.Economy.Exchange(c.Request.Context(), id, service.Direction(req.Direction), req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "balances": bal})
	})
}

type BoostRequest struct {
	Method string `json:"method" binding:"omitempty,oneof=ton crystals"`
}

// BuyBoost accepts an empty body, the method then defaults to ton.
func (h *Handler) BuyBoost(c *gin.Context) {
	authed(c, func(id int64) {
		var req BoostRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c)
			return
		}
		res, err := h.Economy.BuyBoost(c.Request.Context(), id, req.Method)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func (h *Handler) EconomyInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.Economy.Info())
}
