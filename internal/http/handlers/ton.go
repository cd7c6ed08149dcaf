package handlers

import (
	"net/http"

	"ton_shooter/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PurchaseRequest struct {
	Purchase string `json:"purchase" binding:"required,oneof=boost upgrade_weapon_5 upgrade_range_5"`
}

// PurchaseIntent registers a TON payment the client is about to send.
func (h *Handler) PurchaseIntent(c *gin.Context) {
	authed(c, func(id int64) {
		var req PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		res, err := h.Purchases.Intent(c.Request.Context(), id, domain.PurchaseKind(req.Purchase))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

type ConfirmRequest struct {
	PurchaseID string `json:"purchaseId" binding:"required"`
}

// PurchaseConfirm is polled by the client until the payment shows up.
func (h *Handler) PurchaseConfirm(c *gin.Context) {
	authed(c, func(id int64) {
		var req ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		res, err := h.Purchases.Confirm(c.Request.Context(), id, req.PurchaseID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func (h *Handler) PurchaseMock(c *gin.Context) {
	authed(c, func(id int64) {
		var req PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		res, err := h.Purchases.Mock(c.Request.Context(), id, domain.PurchaseKind(req.Purchase))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

type WithdrawRequest struct {
	AmountTon decimal.Decimal `json:"amountTon"`
	Address   string          `json:"address" binding:"required,min=10"`
}

func (h *Handler) Withdraw(c *gin.Context) {
	authed(c, func(id int64) {
		var req WithdrawRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.AmountTon.IsPositive() {
			badRequest(c)
			return
		}
		res, err := h.Withdrawals.Withdraw(c.Request.Context(), id, req.AmountTon, req.Address)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":           true,
			"withdrawalId": res.WithdrawalID,
			"tonBalance":   res.TonBalance,
			"devFee":       res.DevFee,
		})
	})
}

func (h *Handler) WithdrawHistory(c *gin.Context) {
	authed(c, func(id int64) {
		list, err := h.Withdrawals.History(c.Request.Context(), id, 50)
		if err != nil {
			respondError(c, err)
			return
		}
		if list == nil {
			list = []domain.Withdrawal{}
		}
		c.JSON(http.StatusOK, gin.H{"withdrawals": list})
	})
}
