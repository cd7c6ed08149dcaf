package economy

import (
	"time"

	"github.com/shopspring/decimal"
)

// NanoPerTon is the number of nanotons in one TON.
const NanoPerTon = 1_000_000_000

// Rules holds every tunable number of the game economy. It is built once at
// startup and passed by value; nothing in the core reads configuration from
// the environment.
type Rules struct {
	EnergyMax   int
	EnergyRegen time.Duration // one point per interval

	MaxLevel    int
	MaxLevelGap int
	// Levels reachable only through a TON purchase, never for coins.
	TonOnlyLevel     int
	TonOnlyLevelCost decimal.Decimal
	UpgradePrices    map[int]int64 // keyed by current level

	CoinsPerCrystal int64
	CrystalsPerTon  int64

	BoostTonCost  decimal.Decimal
	BoostCooldown time.Duration

	ReferralRewardCoins  int64
	ReferralActiveShots  int
	ReferralActiveHits   int
	ReferralActiveWindow time.Duration
	ReferralDailyCap     int

	WithdrawMinTon        decimal.Decimal
	WithdrawMaxTon        decimal.Decimal
	WithdrawCooldown      time.Duration
	WithdrawFeeBps        int64
	WithdrawNeedReferrals int

	TaskOpenTTL       time.Duration
	PurchaseIntentTTL time.Duration
}

// DefaultRules returns the production economy.
func DefaultRules() Rules {
	return Rules{
		EnergyMax:   100,
		EnergyRegen: 5 * time.Minute,

		MaxLevel:         10,
		MaxLevelGap:      3,
		TonOnlyLevel:     5,
		TonOnlyLevelCost: decimal.NewFromInt(2),
		UpgradePrices: map[int]int64{
			1: 50_000,
			2: 120_000,
			3: 300_000,
			4: 800_000,
			5: 2_000_000,
			6: 5_000_000,
			7: 12_000_000,
			8: 25_000_000,
			9: 50_000_000,
		},

		CoinsPerCrystal: 100_000,
		CrystalsPerTon:  100,

		BoostTonCost:  decimal.NewFromInt(1),
		BoostCooldown: 6 * time.Hour,

		ReferralRewardCoins:  250_000,
		ReferralActiveShots:  50,
		ReferralActiveHits:   20,
		ReferralActiveWindow: 24 * time.Hour,
		ReferralDailyCap:     10,

		WithdrawMinTon:        decimal.NewFromInt(1),
		WithdrawMaxTon:        decimal.NewFromInt(25),
		WithdrawCooldown:      24 * time.Hour,
		WithdrawFeeBps:        200,
		WithdrawNeedReferrals: 1,

		TaskOpenTTL:       15 * time.Minute,
		PurchaseIntentTTL: 10 * time.Minute,
	}
}

// TonToNano converts a TON amount to nanotons, truncating anything below 1 nano.
func TonToNano(ton decimal.Decimal) int64 {
	return ton.Shift(9).Truncate(0).IntPart()
}

// NanoToTon is the inverse of TonToNano.
func NanoToTon(nano int64) decimal.Decimal {
	return decimal.New(nano, -9)
}
