package handlers

import (
	"errors"
	"net/http"

	"ton_shooter/internal/logger"
	"ton_shooter/internal/service"

	"github.com/gin-gonic/gin"
)

var errUnauthorized = errors.New("unauthorized")

type apiError struct {
	status int
	code   string
}

// errorCodes maps service errors to the status and code the client sees.
var errorCodes = []struct {
	err error
	apiError
}{
	{errUnauthorized, apiError{http.StatusUnauthorized, "unauthorized"}},
	{service.ErrInvalidInput, apiError{http.StatusBadRequest, "bad_request"}},
	{service.ErrInvalidInitData, apiError{http.StatusUnauthorized, "invalid_init_data"}},
	{service.ErrNoUser, apiError{http.StatusUnauthorized, "no_user"}},
	{service.ErrForbidden, apiError{http.StatusForbidden, "forbidden"}},
	{service.ErrAccountNotFound, apiError{http.StatusNotFound, "not_found"}},
	{service.ErrBotSuspected, apiError{http.StatusForbidden, "bot_suspected"}},

	{service.ErrNoEnergy, apiError{http.StatusConflict, "no_energy"}},
	{service.ErrSessionNotFound, apiError{http.StatusNotFound, "session_not_found"}},
	{service.ErrSessionUsed, apiError{http.StatusConflict, "session_used"}},

	{service.ErrUpgradeBlocked, apiError{http.StatusConflict, "upgrade_blocked"}},
	{service.ErrNotEnoughCoins, apiError{http.StatusConflict, "not_enough_coins"}},
	{service.ErrNotEnoughCrystals, apiError{http.StatusConflict, "not_enough_crystals"}},
	{service.ErrNotEnoughTon, apiError{http.StatusConflict, "not_enough_ton"}},
	{service.ErrBoostCooldown, apiError{http.StatusConflict, "boost_cooldown"}},
	{service.ErrBoostOnlyTon, apiError{http.StatusConflict, "boost_only_ton"}},

	{service.ErrTaskNotFound, apiError{http.StatusNotFound, "task_not_found"}},
	{service.ErrNeedOpenFirst, apiError{http.StatusConflict, "need_open_first"}},
	{service.ErrAlreadyClaimed, apiError{http.StatusConflict, "already_claimed"}},
	{service.ErrTaskLimitReached, apiError{http.StatusConflict, "task_limit_reached"}},
	{service.ErrNotSubscribed, apiError{http.StatusConflict, "not_subscribed"}},
	{service.ErrMembershipCheckFailed, apiError{http.StatusBadGateway, "membership_check_failed"}},

	{service.ErrWithdrawNeedReferral, apiError{http.StatusConflict, "withdraw_locked_need_referral"}},
	{service.ErrWithdrawCooldown, apiError{http.StatusConflict, "withdraw_cooldown_24h"}},
	{service.ErrWithdrawTooSmall, apiError{http.StatusConflict, "min_withdraw_1_ton"}},
	{service.ErrWithdrawTooLarge, apiError{http.StatusConflict, "max_withdraw_25_ton"}},
	{service.ErrInvalidAddress, apiError{http.StatusBadRequest, "invalid_address"}},

	{service.ErrPurchaseNotFound, apiError{http.StatusNotFound, "purchase_not_found"}},
	{service.ErrNeedLevel4, apiError{http.StatusConflict, "need_level_4"}},
	{service.ErrPaymentNotFound, apiError{http.StatusConflict, "payment_not_found_yet"}},
	{service.ErrTonReceiverNotConfigured, apiError{http.StatusInternalServerError, "ton_receiver_not_configured"}},
	{service.ErrLedgerUnavailable, apiError{http.StatusServiceUnavailable, "ledger_unavailable"}},
	{service.ErrMockDisabled, apiError{http.StatusForbidden, "mock_disabled"}},
}

// respondError writes {"error": code, ...details}. Anything unknown is logged
// and reported as server_error.
func respondError(c *gin.Context, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			body := gin.H{}
			for k, v := range service.Details(err) {
				body[k] = v
			}
			body["error"] = e.code
			c.AbortWithStatusJSON(e.status, body)
			return
		}
	}

	logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
}

func badRequest(c *gin.Context) {
	respondError(c, service.ErrInvalidInput)
}
