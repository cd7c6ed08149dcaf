package service

import (
	"context"
	"testing"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"

	"github.com/shopspring/decimal"
)

func TestExchangeScenario(t *testing.T) {
	e := newTestEnv(t)
	s := e.economyService()
	ctx := context.Background()

	rich := e.newAccount(domain.Account{Coins: 300_000})
	bal, err := s.Exchange(ctx, rich.ID, CoinsToCrystals, 3)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if bal.Coins != 0 || bal.Crystals != 3 {
		t.Fatalf("balances after exchange %+v", bal)
	}

	poor := e.newAccount(domain.Account{Coins: 250_000})
	_, err = s.Exchange(ctx, poor.ID, CoinsToCrystals, 3)
	wantErr(t, err, ErrNotEnoughCoins)
	if got := e.store.account(poor.ID); got.Coins != 250_000 || got.Crystals != 0 {
		t.Fatalf("rejected exchange changed balances: %+v", got.Balances())
	}
}

func TestExchange_CrystalsToTon(t *testing.T) {
	e := newTestEnv(t)
	s := e.economyService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{Crystals: 250})

	bal, err := s.Exchange(ctx, acc.ID, CrystalsToTon, 2)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if bal.Crystals != 50 || !bal.TonBalance.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("balances %+v", bal)
	}

	_, err = s.Exchange(ctx, acc.ID, CrystalsToTon, 1)
	wantErr(t, err, ErrNotEnoughCrystals)

	for _, tt := range []struct {
		dir    Direction
		amount int64
	}{
		{CrystalsToTon, 0},
		{CoinsToCrystals, -1},
		{Direction("ton_to_coins"), 1},
	} {
		_, err := s.Exchange(ctx, acc.ID, tt.dir, tt.amount)
		wantErr(t, err, ErrInvalidInput)
	}
}

func TestUpgrade(t *testing.T) {
	e := newTestEnv(t)
	s := e.economyService()
	ctx := context.Background()

	acc := e.newAccount(domain.Account{Coins: 50_000})
	res, err := s.Upgrade(ctx, acc.ID, economy.TrackWeapon)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if res.WeaponLevel != 2 || res.RangeLevel != 1 || res.Balances.Coins != 0 {
		t.Fatalf("unexpected upgrade result %+v", res)
	}

	e.step()
	_, err = s.Upgrade(ctx, acc.ID, economy.TrackWeapon)
	wantErr(t, err, ErrNotEnoughCoins)
	if e.store.account(acc.ID).WeaponLevel != 2 {
		t.Fatalf("failed upgrade must not change the level")
	}
}

func TestUpgrade_GapAndTonLevel(t *testing.T) {
	e := newTestEnv(t)
	s := e.economyService()
	ctx := context.Background()

	acc := e.newAccount(domain.Account{WeaponLevel: 4, RangeLevel: 1, Coins: 10_000_000})
	_, err := s.Upgrade(ctx, acc.ID, economy.TrackWeapon)
	wantErr(t, err, ErrUpgradeBlocked)
	if Details(err)["reason"] == "" {
		t.Fatalf("blocked upgrade must carry a reason")
	}

	ton := e.newAccount(domain.Account{WeaponLevel: 4, RangeLevel: 4, Coins: 10_000_000})
	e.step()
	_, err = s.Upgrade(ctx, ton.ID, economy.TrackRange)
	wantErr(t, err, ErrNotEnoughTon)

	funded := e.newAccount(domain.Account{WeaponLevel: 4, RangeLevel: 4, TonBalance: decimal.NewFromInt(3)})
	e.step()
	res, err := s.Upgrade(ctx, funded.ID, economy.TrackRange)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if res.RangeLevel != 5 || !res.Balances.TonBalance.Equal(decimal.NewFromInt(1)) || res.Balances.Coins != 0 {
		t.Fatalf("level 5 must be paid in TON only: %+v", res)
	}
}

func TestBuyBoost(t *testing.T) {
	e := newTestEnv(t)
	s := e.economyService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{Energy: 10, TonBalance: decimal.RequireFromString("1.5")})

	_, err := s.BuyBoost(ctx, acc.ID, "crystals")
	wantErr(t, err, ErrBoostOnlyTon)

	res, err := s.BuyBoost(ctx, acc.ID, "ton")
	if err != nil {
		t.Fatalf("BuyBoost: %v", err)
	}
	wantUntil := e.clock.now().Add(e.rules.BoostCooldown)
	if res.Energy != e.rules.EnergyMax || !res.TonBalance.Equal(decimal.RequireFromString("0.5")) || !res.BoostCooldownUntil.Equal(wantUntil) {
		t.Fatalf("unexpected boost result %+v", res)
	}

	e.clock.advance(time.Hour)
	_, err = s.BuyBoost(ctx, acc.ID, "")
	wantErr(t, err, ErrBoostCooldown)
	if Details(err)["until"] != wantUntil.Format(time.RFC3339) {
		t.Fatalf("cooldown details %v", Details(err))
	}

	e.clock.advance(e.rules.BoostCooldown)
	_, err = s.BuyBoost(ctx, acc.ID, "")
	wantErr(t, err, ErrNotEnoughTon)
}

func TestInfo(t *testing.T) {
	e := newTestEnv(t)
	info := e.economyService().Info()
	if _, ok := info.UpgradePrices[4]; ok {
		t.Fatalf("level 4 -> 5 has no coin price")
	}
	if info.UpgradePrices[1] != 50_000 || info.CoinsPerCrystal != 100_000 || info.WithdrawFeeBps != 200 {
		t.Fatalf("unexpected info %+v", info)
	}
}
