package domain

import "time"

// PurchaseKind is what the client asks to buy with TON.
type PurchaseKind string

const (
	PurchaseBoost          PurchaseKind = "boost"
	PurchaseUpgradeWeapon5 PurchaseKind = "upgrade_weapon_5"
	PurchaseUpgradeRange5  PurchaseKind = "upgrade_range_5"
)

// PurchaseItem is the stored name of a purchased item.
type PurchaseItem string

const (
	ItemBoost          PurchaseItem = "BOOST"
	ItemUpgradeWeapon5 PurchaseItem = "UPGRADE_WEAPON_5"
	ItemUpgradeRange5  PurchaseItem = "UPGRADE_RANGE_5"
)

func (k PurchaseKind) Item() (PurchaseItem, bool) {
	switch k {
	case PurchaseBoost:
		return ItemBoost, true
	case PurchaseUpgradeWeapon5:
		return ItemUpgradeWeapon5, true
	case PurchaseUpgradeRange5:
		return ItemUpgradeRange5, true
	}
	return "", false
}

type PurchaseStatus string

const (
	PurchasePending PurchaseStatus = "PENDING"
	PurchasePaid    PurchaseStatus = "PAID"
)

// Purchase is an expected TON transfer. It moves PENDING -> PAID once.
type Purchase struct {
	ID         string         `db:"id" json:"id"`
	AccountID  int64          `db:"account_id" json:"-"`
	Item       PurchaseItem   `db:"item" json:"item"`
	AmountNano int64          `db:"amount_nano" json:"amountNano"`
	Receiver   string         `db:"receiver" json:"receiver"`
	Comment    string         `db:"comment" json:"comment"`
	Status     PurchaseStatus `db:"status" json:"status"`
	Sender     *string        `db:"sender" json:"sender,omitempty"`
	TxHash     *string        `db:"tx_hash" json:"txHash,omitempty"`
	PaidAt     *time.Time     `db:"paid_at" json:"paidAt,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}
