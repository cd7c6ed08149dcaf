package service

import (
	"context"
	"testing"
	"time"

	"ton_shooter/internal/antibot"
	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
)

// With a centered zone at difficulty 0 the marker crosses the middle of the
// bar after ~909ms and sits at 0 at the start.
const (
	hitElapsed  = 909 * time.Millisecond
	missElapsed = 0
)

func TestShotScenario_HitThenMiss(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{})

	start, err := s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.Difficulty != 0 || start.EnergyCost != 3 || start.ZoneMoves {
		t.Fatalf("unexpected first shot %+v", start)
	}

	e.step()
	res, err := s.Fire(ctx, acc.ID, start.SessionID, hitElapsed)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	award := economy.CoinsForHit(1, 1)
	if !res.Hit || res.CoinsAward != award || res.Balances.Coins != award {
		t.Fatalf("expected a hit paying %d, got %+v", award, res)
	}
	if res.Difficulty != 1 || res.Energy != 97 {
		t.Fatalf("difficulty %d energy %d after hit", res.Difficulty, res.Energy)
	}

	e.step()
	start, err = s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.Difficulty != 1 {
		t.Fatalf("second shot difficulty = %d", start.Difficulty)
	}

	e.step()
	res, err = s.Fire(ctx, acc.ID, start.SessionID, missElapsed)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if res.Hit || res.CoinsAward != 0 || res.Balances.Coins != award || res.Difficulty != 0 || res.Energy != 94 {
		t.Fatalf("unexpected miss result %+v", res)
	}

	stored := e.store.account(acc.ID)
	if stored.ShotsCount != 2 || stored.HitsCount != 1 || stored.Coins != award {
		t.Fatalf("stored counters %d/%d coins %d", stored.ShotsCount, stored.HitsCount, stored.Coins)
	}
	if len(e.store.actionsOf(acc.ID, domain.ActionShotFire)) != 2 {
		t.Fatalf("expected two shot_fire log entries")
	}
}

func TestFire_AtMostOnce(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{})
	other := e.newAccount(domain.Account{})

	start, err := s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	e.step()
	_, err = s.Fire(ctx, other.ID, start.SessionID, hitElapsed)
	wantErr(t, err, ErrSessionNotFound)

	e.step()
	if _, err := s.Fire(ctx, acc.ID, start.SessionID, hitElapsed); err != nil {
		t.Fatalf("first Fire: %v", err)
	}
	coins := e.store.account(acc.ID).Coins

	e.step()
	_, err = s.Fire(ctx, acc.ID, start.SessionID, hitElapsed)
	wantErr(t, err, ErrSessionUsed)
	if got := e.store.account(acc.ID).Coins; got != coins {
		t.Fatalf("second fire changed coins: %d -> %d", coins, got)
	}

	_, err = s.Fire(ctx, acc.ID, "missing", hitElapsed)
	wantErr(t, err, ErrSessionNotFound)
}

func TestFire_ElapsedBounds(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	acc := e.newAccount(domain.Account{})

	for _, d := range []time.Duration{-time.Millisecond, 60*time.Second + time.Millisecond} {
		_, err := s.Fire(context.Background(), acc.ID, "any", d)
		wantErr(t, err, ErrInvalidInput)
	}
}

func TestFire_DriftUsesServerTime(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{})

	start, err := s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	e.clock.advance(5 * time.Second)
	res, err := s.Fire(ctx, acc.ID, start.SessionID, hitElapsed)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	// server time puts the marker at 0.75, outside the centered zone
	if !res.Drifted || res.ElapsedMs != 5000 || res.Hit {
		t.Fatalf("expected drifted miss judged on server time, got %+v", res)
	}
	stored := e.store.account(acc.ID)
	if stored.SuspicionScore != 1 || stored.IsBotBlocked {
		t.Fatalf("drift must add one point without blocking: score %d blocked %v", stored.SuspicionScore, stored.IsBotBlocked)
	}
}

func TestStart_NoEnergy(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{Energy: 2})

	_, err := s.Start(ctx, acc.ID)
	wantErr(t, err, ErrNoEnergy)
	d := Details(err)
	if d["energy"] != 2 || d["cost"] != 3 {
		t.Fatalf("unexpected details %v", d)
	}

	// one regen interval later the shot is affordable
	e.clock.advance(e.rules.EnergyRegen)
	start, err := s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start after regen: %v", err)
	}
	if start.Energy != 3 {
		t.Fatalf("energy after regen = %d", start.Energy)
	}
}

func TestFire_NoEnergyStillConsumesSession(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{Energy: 3})

	start, err := s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	drained := e.store.account(acc.ID)
	drained.Energy = 0
	e.store.st.accounts[acc.ID] = drained

	e.step()
	_, err = s.Fire(ctx, acc.ID, start.SessionID, hitElapsed)
	wantErr(t, err, ErrNoEnergy)

	e.step()
	_, err = s.Fire(ctx, acc.ID, start.SessionID, hitElapsed)
	wantErr(t, err, ErrSessionUsed)
}

func TestFire_SpendingFromFullRestartsRegen(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{EnergyUpdatedAt: e.clock.now().Add(-10 * time.Hour)})

	start, err := s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.step()
	if _, err := s.Fire(ctx, acc.ID, start.SessionID, missElapsed); err != nil {
		t.Fatalf("Fire: %v", err)
	}

	e.step()
	start, err = s.Start(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.Energy != e.rules.EnergyMax-3 {
		t.Fatalf("idle time at full energy must not refill spent points, energy = %d", start.Energy)
	}
}

func TestReferral_QualifiesOnceAndRespectsDailyCap(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	referrer := e.newAccount(domain.Account{})
	reward := e.rules.ReferralRewardCoins

	shoot := func(id int64) {
		t.Helper()
		e.step()
		start, err := s.Start(ctx, id)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		e.step()
		if _, err := s.Fire(ctx, id, start.SessionID, missElapsed); err != nil {
			t.Fatalf("Fire: %v", err)
		}
	}

	var invitees []int64
	for i := 0; i < 11; i++ {
		inv := e.newAccount(domain.Account{ReferrerID: &referrer.ID, ShotsCount: 49, HitsCount: 20})
		invitees = append(invitees, inv.ID)
		shoot(inv.ID)

		got := e.store.account(inv.ID)
		if got.ReferralQualifiedAt == nil {
			t.Fatalf("invitee %d should qualify at 50 shots / 20 hits", i+1)
		}
		if i < 10 && got.ReferralRewardedAt == nil {
			t.Fatalf("invitee %d should be rewarded", i+1)
		}
		if i == 10 && got.ReferralRewardedAt != nil {
			t.Fatalf("11th referral within 24h must not be rewarded")
		}
	}
	if c := e.store.account(referrer.ID).Coins; c != 10*reward {
		t.Fatalf("referrer coins = %d, want %d", c, 10*reward)
	}

	// further shots of a rewarded invitee pay nothing
	qualified := e.store.account(invitees[0]).ReferralQualifiedAt
	shoot(invitees[0])
	if c := e.store.account(referrer.ID).Coins; c != 10*reward {
		t.Fatalf("reward paid twice: referrer coins = %d", c)
	}
	if !e.store.account(invitees[0]).ReferralQualifiedAt.Equal(*qualified) {
		t.Fatalf("qualification must be stamped once")
	}

	// the capped invitee is retried once the window rolls
	e.clock.advance(24 * time.Hour)
	shoot(invitees[10])
	if e.store.account(invitees[10]).ReferralRewardedAt == nil {
		t.Fatalf("capped invitee should be rewarded after the window")
	}
	if c := e.store.account(referrer.ID).Coins; c != 11*reward {
		t.Fatalf("referrer coins = %d, want %d", c, 11*reward)
	}
	if len(e.store.actionsOf(invitees[10], domain.ActionReferralReward)) != 1 {
		t.Fatalf("expected one referral_reward entry for the invitee")
	}
}

func TestReferral_OutsideWindow(t *testing.T) {
	e := newTestEnv(t)
	s := e.gameService()
	ctx := context.Background()
	referrer := e.newAccount(domain.Account{})
	inv := e.newAccount(domain.Account{
		ReferrerID: &referrer.ID,
		ShotsCount: 49,
		HitsCount:  20,
		CreatedAt:  e.clock.now().Add(-25 * time.Hour),
	})

	start, err := s.Start(ctx, inv.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.step()
	if _, err := s.Fire(ctx, inv.ID, start.SessionID, missElapsed); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if e.store.account(inv.ID).ReferralQualifiedAt != nil {
		t.Fatalf("invitee older than the window must not qualify")
	}
	if e.store.account(referrer.ID).Coins != 0 {
		t.Fatalf("referrer must not be paid")
	}
}

func TestGuard_BlocksFastActions(t *testing.T) {
	e := newTestEnvWithPolicy(t, antibot.Policy{MinInterval: 120 * time.Millisecond, Threshold: 3})
	s := e.gameService()
	ctx := context.Background()
	acc := e.newAccount(domain.Account{})

	// the first start has no previous action, the next three are too fast
	for i := 0; i < 4; i++ {
		if _, err := s.Start(ctx, acc.ID); err != nil {
			t.Fatalf("start %d: %v", i+1, err)
		}
	}
	stored := e.store.account(acc.ID)
	if stored.SuspicionScore != 3 || !stored.IsBotBlocked {
		t.Fatalf("score %d blocked %v", stored.SuspicionScore, stored.IsBotBlocked)
	}

	e.step()
	_, err := s.Start(ctx, acc.ID)
	wantErr(t, err, ErrBotSuspected)

	_, err = e.economyService().Exchange(ctx, acc.ID, CoinsToCrystals, 1)
	wantErr(t, err, ErrBotSuspected)

	if err := e.adminService().Unblock(ctx, stored.TgID); err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if _, err := s.Start(ctx, acc.ID); err != nil {
		t.Fatalf("Start after unblock: %v", err)
	}
}
