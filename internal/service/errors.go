package service

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidInput    = errors.New("bad request")
	ErrForbidden       = errors.New("forbidden")

	ErrInvalidInitData = errors.New("invalid init data")
	ErrNoUser          = errors.New("no user in init data")

	ErrBotSuspected = errors.New("bot suspected")

	ErrNoEnergy        = errors.New("no energy")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionUsed     = errors.New("session already used")

	ErrUpgradeBlocked    = errors.New("upgrade blocked")
	ErrNotEnoughCoins    = errors.New("not enough coins")
	ErrNotEnoughCrystals = errors.New("not enough crystals")
	ErrNotEnoughTon      = errors.New("not enough ton")

	ErrBoostCooldown = errors.New("boost cooldown")
	ErrBoostOnlyTon  = errors.New("boost can only be bought with ton")

	ErrTaskNotFound          = errors.New("task not found")
	ErrNeedOpenFirst         = errors.New("task must be opened first")
	ErrAlreadyClaimed        = errors.New("task already claimed")
	ErrTaskLimitReached      = errors.New("task limit reached")
	ErrNotSubscribed         = errors.New("not subscribed")
	ErrMembershipCheckFailed = errors.New("membership check failed")

	ErrWithdrawNeedReferral = errors.New("withdraw locked: need active referral")
	ErrWithdrawCooldown     = errors.New("withdraw cooldown")
	ErrWithdrawTooSmall     = errors.New("withdraw below minimum")
	ErrWithdrawTooLarge     = errors.New("withdraw above maximum")
	ErrInvalidAddress       = errors.New("invalid ton address")

	ErrPurchaseNotFound         = errors.New("purchase not found")
	ErrNeedLevel4               = errors.New("level 4 required")
	ErrPaymentNotFound          = errors.New("payment not found yet")
	ErrTonReceiverNotConfigured = errors.New("ton receiver not configured")
	ErrLedgerUnavailable        = errors.New("ton ledger unavailable")
	ErrMockDisabled             = errors.New("mock payments disabled")
)

// DetailedError carries extra response fields (until, energy, reason...) along
// with a sentinel error.
type DetailedError struct {
	Err     error
	Details map[string]any
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }

func withDetails(err error, details map[string]any) error {
	return &DetailedError{Err: err, Details: details}
}

// Details returns the extra fields attached to err, if any.
func Details(err error) map[string]any {
	var de *DetailedError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
