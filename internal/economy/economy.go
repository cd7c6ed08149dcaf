package economy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrMaxLevelReached    = errors.New("max level reached")
	ErrLevelGapTooLarge   = errors.New("level gap too large")
	ErrUpgradeUnavailable = errors.New("upgrade unavailable")
	ErrUnknownTrack       = errors.New("unknown upgrade track")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// Track is one of the two upgradeable pieces of equipment.
type Track string

const (
	TrackWeapon Track = "weapon"
	TrackRange  Track = "range"
)

func ParseTrack(s string) (Track, error) {
	switch Track(s) {
	case TrackWeapon, TrackRange:
		return Track(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTrack, s)
}

// EnergyCost is the energy spent on one shot.
func EnergyCost(weaponLevel, rangeLevel int) int {
	return 1 + weaponLevel + rangeLevel
}

// CoinsForHit is the reward for a single hit.
func CoinsForHit(weaponLevel, rangeLevel int) int64 {
	return 300 + 250*int64(weaponLevel) + 200*int64(rangeLevel)
}

// UpgradePrice returns the coin price of leaving currentLevel.
func (r Rules) UpgradePrice(currentLevel int) (int64, bool) {
	if currentLevel >= r.MaxLevel {
		return 0, false
	}
	p, ok := r.UpgradePrices[currentLevel]
	return p, ok
}

// UpgradeReason is the player-facing explanation for a refused upgrade.
func UpgradeReason(err error) string {
	switch {
	case errors.Is(err, ErrMaxLevelReached):
		return "Достигнут максимальный уровень"
	case errors.Is(err, ErrLevelGapTooLarge):
		return "Разница уровней не должна превышать 3"
	case errors.Is(err, ErrUpgradeUnavailable):
		return "Улучшение недоступно"
	}
	return ""
}

// CanUpgrade checks whether the given track may move one level up from
// (weaponLevel, rangeLevel). It says nothing about how the upgrade is paid.
func (r Rules) CanUpgrade(weaponLevel, rangeLevel int, which Track) error {
	nextW, nextR := weaponLevel, rangeLevel
	current := weaponLevel
	switch which {
	case TrackWeapon:
		nextW++
	case TrackRange:
		nextR++
		current = rangeLevel
	default:
		return ErrUnknownTrack
	}

	if nextW > r.MaxLevel || nextR > r.MaxLevel {
		return ErrMaxLevelReached
	}
	if abs(nextW-nextR) > r.MaxLevelGap {
		return ErrLevelGapTooLarge
	}
	if _, ok := r.UpgradePrice(current); !ok {
		return ErrUpgradeUnavailable
	}
	return nil
}

// PaidWithTon reports whether reaching nextLevel requires a TON payment.
func (r Rules) PaidWithTon(nextLevel int) bool {
	return nextLevel == r.TonOnlyLevel
}

// CoinsForCrystals is the coin price of n crystals.
func (r Rules) CoinsForCrystals(n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n * r.CoinsPerCrystal, nil
}

// CrystalsForTon is the crystal price of n TON.
func (r Rules) CrystalsForTon(n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n * r.CrystalsPerTon, nil
}

// CrystalsFromCoins is the number of whole crystals a coin balance converts to.
func (r Rules) CrystalsFromCoins(coins int64) int64 {
	if coins <= 0 {
		return 0
	}
	return coins / r.CoinsPerCrystal
}

// WithdrawFee is amount*bps/10000 rounded to nanoton precision.
func (r Rules) WithdrawFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(r.WithdrawFeeBps)).
		Div(decimal.NewFromInt(10_000)).
		Round(9)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
