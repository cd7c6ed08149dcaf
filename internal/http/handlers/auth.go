package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"initData" binding:"required,max=4096"`
}

// Auth обменивает initData из Telegram на JWT
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	token, _, err := h.Accounts.Authenticate(c.Request.Context(), req.InitData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) Me(c *gin.Context) {
	authed(c, func(id int64) {
		p, err := h.Accounts.Me(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})
}

type WalletRequest struct {
	Address string `json:"address" binding:"required,min=10,max=128"`
}

func (h *Handler) SetWallet(c *gin.Context) {
	authed(c, func(id int64) {
		var req WalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		address, err := h.Accounts.SetWallet(c.Request.Context(), id, req.Address)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "address": address})
	})
}

func (h *Handler) Referral(c *gin.Context) {
	authed(c, func(id int64) {
		info, err := h.Accounts.Referral(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	})
}
