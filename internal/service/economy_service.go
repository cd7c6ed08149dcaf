package service

import (
	"context"
	"log/slog"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"

	"github.com/shopspring/decimal"
)

// EconomyService spends balances: upgrades, currency exchange, energy boost.
type EconomyService struct {
	store Store
	guard *Guard
	rules economy.Rules
	now   Clock
	log   *slog.Logger
}

func NewEconomyService(store Store, guard *Guard, rules economy.Rules) *EconomyService {
	return &EconomyService{store: store, guard: guard, rules: rules, now: systemClock, log: logger.With("component", "economy")}
}

type UpgradeResult struct {
	WeaponLevel int             `json:"weaponLevel"`
	RangeLevel  int             `json:"rangeLevel"`
	Balances    domain.Balances `json:"balances"`
}

type Direction string

const (
	CoinsToCrystals Direction = "coins_to_crystals"
	CrystalsToTon   Direction = "crystals_to_ton"
)

type BoostResult struct {
	Energy             int             `json:"energy"`
	TonBalance         decimal.Decimal `json:"tonBalance"`
	BoostCooldownUntil *time.Time      `json:"boostCooldownUntil"`
}

func upgradeBlocked(err error) error {
	return withDetails(ErrUpgradeBlocked, map[string]any{"reason": economy.UpgradeReason(err)})
}

func levelOf(acc *domain.Account, which economy.Track) int {
	if which == economy.TrackWeapon {
		return acc.WeaponLevel
	}
	return acc.RangeLevel
}

func raiseLevel(acc *domain.Account, which economy.Track) {
	if which == economy.TrackWeapon {
		acc.WeaponLevel++
	} else {
		acc.RangeLevel++
	}
}

// Upgrade raises one track by a level. The TON-only level is debited from the
// TON balance, every other level from coins.
func (s *EconomyService) Upgrade(ctx context.Context, accountID int64, which economy.Track) (*UpgradeResult, error) {
	if _, err := s.guard.Check(ctx, accountID); err != nil {
		return nil, err
	}

	now := s.now()
	var res *UpgradeResult
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		if err := s.rules.CanUpgrade(acc.WeaponLevel, acc.RangeLevel, which); err != nil {
			return upgradeBlocked(err)
		}

		current := levelOf(acc, which)
		meta := map[string]any{"which": string(which), "from": current}
		if s.rules.PaidWithTon(current + 1) {
			if acc.TonBalance.LessThan(s.rules.TonOnlyLevelCost) {
				return ErrNotEnoughTon
			}
			acc.TonBalance = acc.TonBalance.Sub(s.rules.TonOnlyLevelCost)
			meta["ton"] = s.rules.TonOnlyLevelCost.String()
		} else {
			price, _ := s.rules.UpgradePrice(current)
			if acc.Coins < price {
				return ErrNotEnoughCoins
			}
			acc.Coins -= price
			meta["coins"] = price
		}
		raiseLevel(acc, which)

		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := r.LogAction(ctx, acc.ID, domain.ActionUpgrade, meta, now); err != nil {
			return err
		}
		res = &UpgradeResult{WeaponLevel: acc.WeaponLevel, RangeLevel: acc.RangeLevel, Balances: acc.Balances()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("upgraded", "account_id", accountID, "which", which, "weapon", res.WeaponLevel, "range", res.RangeLevel)
	return res, nil
}

// Exchange converts currency at the fixed rates. amount is counted in the
// destination currency.
func (s *EconomyService) Exchange(ctx context.Context, accountID int64, dir Direction, amount int64) (*domain.Balances, error) {
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	if dir != CoinsToCrystals && dir != CrystalsToTon {
		return nil, ErrInvalidInput
	}
	if _, err := s.guard.RequireNotBlocked(ctx, accountID); err != nil {
		return nil, err
	}

	now := s.now()
	var res domain.Balances
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}

		switch dir {
		case CoinsToCrystals:
			price, err := s.rules.CoinsForCrystals(amount)
			if err != nil {
				return ErrInvalidInput
			}
			if acc.Coins < price {
				return ErrNotEnoughCoins
			}
			acc.Coins -= price
			acc.Crystals += amount
		case CrystalsToTon:
			price, err := s.rules.CrystalsForTon(amount)
			if err != nil {
				return ErrInvalidInput
			}
			if acc.Crystals < price {
				return ErrNotEnoughCrystals
			}
			acc.Crystals -= price
			acc.TonBalance = acc.TonBalance.Add(decimal.NewFromInt(amount))
		}

		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := r.LogAction(ctx, acc.ID, domain.ActionExchange, map[string]any{
			"direction": string(dir),
			"amount":    amount,
		}, now); err != nil {
			return err
		}
		res = acc.Balances()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func boostCooldown(until *time.Time) error {
	return withDetails(ErrBoostCooldown, map[string]any{"until": until.UTC().Format(time.RFC3339)})
}

// applyBoost refills energy and starts the cooldown.
func applyBoost(rules economy.Rules, acc *domain.Account, now time.Time) {
	acc.Energy = rules.EnergyMax
	acc.EnergyUpdatedAt = now
	acc.BoostActiveUntil = nil
	until := now.Add(rules.BoostCooldown)
	acc.BoostCooldownUntil = &until
}

// BuyBoost pays for a boost from the TON balance. method "" means ton.
func (s *EconomyService) BuyBoost(ctx context.Context, accountID int64, method string) (*BoostResult, error) {
	if _, err := s.guard.RequireNotBlocked(ctx, accountID); err != nil {
		return nil, err
	}

	now := s.now()
	var res *BoostResult
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		if !acc.BoostReady(now) {
			return boostCooldown(acc.BoostCooldownUntil)
		}
		if method != "" && method != "ton" {
			return ErrBoostOnlyTon
		}
		if acc.TonBalance.LessThan(s.rules.BoostTonCost) {
			return ErrNotEnoughTon
		}

		acc.TonBalance = acc.TonBalance.Sub(s.rules.BoostTonCost)
		applyBoost(s.rules, acc, now)

		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := r.LogAction(ctx, acc.ID, domain.ActionBoost, map[string]any{
			"method": "ton",
			"ton":    s.rules.BoostTonCost.String(),
		}, now); err != nil {
			return err
		}
		res = &BoostResult{
			Energy:             acc.Energy,
			TonBalance:         acc.TonBalance,
			BoostCooldownUntil: acc.BoostCooldownUntil,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Info is the public price list.
type Info struct {
	EnergyMax            int             `json:"energyMax"`
	EnergyRegenSeconds   int64           `json:"energyRegenSeconds"`
	MaxLevel             int             `json:"maxLevel"`
	MaxLevelGap          int             `json:"maxLevelGap"`
	UpgradePrices        map[int]int64   `json:"upgradePrices"`
	TonOnlyLevel         int             `json:"tonOnlyLevel"`
	TonOnlyLevelCost     decimal.Decimal `json:"tonOnlyLevelCostTon"`
	CoinsPerCrystal      int64           `json:"coinsPerCrystal"`
	CrystalsPerTon       int64           `json:"crystalsPerTon"`
	BoostTonCost         decimal.Decimal `json:"boostTonCost"`
	BoostCooldownSeconds int64           `json:"boostCooldownSeconds"`
	ReferralRewardCoins  int64           `json:"referralRewardCoins"`
	WithdrawMinTon       decimal.Decimal `json:"withdrawMinTon"`
	WithdrawMaxTon       decimal.Decimal `json:"withdrawMaxTon"`
	WithdrawFeeBps       int64           `json:"withdrawFeeBps"`
}

func (s *EconomyService) Info() Info {
	prices := make(map[int]int64, len(s.rules.UpgradePrices))
	for lvl, p := range s.rules.UpgradePrices {
		if !s.rules.PaidWithTon(lvl + 1) {
			prices[lvl] = p
		}
	}
	return Info{
		EnergyMax:            s.rules.EnergyMax,
		EnergyRegenSeconds:   int64(s.rules.EnergyRegen / time.Second),
		MaxLevel:             s.rules.MaxLevel,
		MaxLevelGap:          s.rules.MaxLevelGap,
		UpgradePrices:        prices,
		TonOnlyLevel:         s.rules.TonOnlyLevel,
		TonOnlyLevelCost:     s.rules.TonOnlyLevelCost,
		CoinsPerCrystal:      s.rules.CoinsPerCrystal,
		CrystalsPerTon:       s.rules.CrystalsPerTon,
		BoostTonCost:         s.rules.BoostTonCost,
		BoostCooldownSeconds: int64(s.rules.BoostCooldown / time.Second),
		ReferralRewardCoins:  s.rules.ReferralRewardCoins,
		WithdrawMinTon:       s.rules.WithdrawMinTon,
		WithdrawMaxTon:       s.rules.WithdrawMaxTon,
		WithdrawFeeBps:       s.rules.WithdrawFeeBps,
	}
}
