package domain

import "time"

// ActionType names a logged player or admin action. The latest entry per
// account feeds the too-fast-actions check.
type ActionType string

const (
	ActionAuth            ActionType = "auth"
	ActionShotStart       ActionType = "shot_start"
	ActionShotFire        ActionType = "shot_fire"
	ActionUpgrade         ActionType = "upgrade"
	ActionExchange        ActionType = "exchange"
	ActionBoost           ActionType = "boost"
	ActionTaskClaim       ActionType = "task_claim"
	ActionWithdraw        ActionType = "withdraw"
	ActionWalletSet       ActionType = "wallet_set"
	ActionAdminEnergyFill ActionType = "admin_energy_fill"
	ActionAdminGrant      ActionType = "admin_grant"
	ActionTonPurchasePaid ActionType = "ton_purchase_paid"
	ActionTonPaymentMock  ActionType = "ton_payment_mock"
	ActionReferralReward  ActionType = "referral_reward"
)

type ActionLog struct {
	ID        int64          `db:"id" json:"id"`
	AccountID int64          `db:"account_id" json:"accountId"`
	Type      ActionType     `db:"type" json:"type"`
	Meta      map[string]any `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}
