package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one player, keyed by Telegram user id.
type Account struct {
	ID        int64     `db:"id" json:"id"`
	TgID      int64     `db:"tg_id" json:"tgUserId"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Coins      int64           `db:"coins" json:"coins"`
	Crystals   int64           `db:"crystals" json:"crystals"`
	TonBalance decimal.Decimal `db:"ton_balance" json:"tonBalance"`

	WeaponLevel int `db:"weapon_level" json:"weaponLevel"`
	RangeLevel  int `db:"range_level" json:"rangeLevel"`

	Energy          int       `db:"energy" json:"energy"`
	EnergyUpdatedAt time.Time `db:"energy_updated_at" json:"energyUpdatedAt"`

	// Consecutive hits; drives the next shot's parameters.
	Difficulty int `db:"difficulty" json:"difficulty"`
	ShotsCount int `db:"shots_count" json:"shotsCount"`
	HitsCount  int `db:"hits_count" json:"hitsCount"`

	SuspicionScore int  `db:"suspicion_score" json:"suspicionScore"`
	IsBotBlocked   bool `db:"is_bot_blocked" json:"isBotBlocked"`

	BoostCooldownUntil *time.Time `db:"boost_cooldown_until" json:"boostCooldownUntil"`
	BoostActiveUntil   *time.Time `db:"boost_active_until" json:"boostActiveUntil"`
	LastWithdrawalAt   *time.Time `db:"last_withdrawal_at" json:"lastWithdrawalAt"`

	ReferrerID          *int64     `db:"referrer_id" json:"referrerId"`
	ReferralQualifiedAt *time.Time `db:"referral_qualified_at" json:"referralQualifiedAt"`
	ReferralRewardedAt  *time.Time `db:"referral_rewarded_at" json:"referralRewardedAt"`

	TonWalletAddress   *string    `db:"ton_wallet_address" json:"tonWalletAddress"`
	TonWalletUpdatedAt *time.Time `db:"ton_wallet_updated_at" json:"tonWalletUpdatedAt"`
}

// Balances is the currency part of an account as returned to clients.
type Balances struct {
	Coins      int64           `json:"coins"`
	Crystals   int64           `json:"crystals"`
	TonBalance decimal.Decimal `json:"tonBalance"`
}

func (a *Account) Balances() Balances {
	return Balances{Coins: a.Coins, Crystals: a.Crystals, TonBalance: a.TonBalance}
}

// BoostReady reports whether the boost cooldown has passed.
func (a *Account) BoostReady(now time.Time) bool {
	return a.BoostCooldownUntil == nil || !a.BoostCooldownUntil.After(now)
}

// TelegramProfile is the identity part of a verified WebApp login.
type TelegramProfile struct {
	TgID      int64
	Username  string
	FirstName string
	LastName  string
}
