package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal is an immutable record of a TON payout request.
type Withdrawal struct {
	ID        string          `db:"id" json:"id"`
	AccountID int64           `db:"account_id" json:"-"`
	AmountTon decimal.Decimal `db:"amount_ton" json:"amountTon"`
	Address   string          `db:"address" json:"address"`
	FeeTon    decimal.Decimal `db:"fee_ton" json:"devFeeTon"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
