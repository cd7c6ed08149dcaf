package service

import (
	"errors"
	"testing"
	"time"

	"ton_shooter/internal/antibot"
	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/game"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// testEnv wires services over one fake store and one manual clock. Every
// step advances the clock past the antibot interval unless a test wants
// otherwise.
type testEnv struct {
	store *fakeStore
	clock *testClock
	rules economy.Rules
	guard *Guard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPolicy(t, antibot.DefaultPolicy())
}

func newTestEnvWithPolicy(t *testing.T, policy antibot.Policy) *testEnv {
	t.Helper()
	e := &testEnv{
		store: newFakeStore(),
		clock: &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		rules: economy.DefaultRules(),
	}
	e.guard = NewGuard(e.store, policy)
	e.guard.now = e.clock.now
	return e
}

// step moves the clock far enough that the next action is not "too fast".
func (e *testEnv) step() { e.clock.advance(time.Second) }

func (e *testEnv) newAccount(a domain.Account) *domain.Account {
	if a.TgID == 0 {
		a.TgID = 1000 + e.store.st.nextAccount
	}
	if a.Energy == 0 {
		a.Energy = e.rules.EnergyMax
	}
	if a.EnergyUpdatedAt.IsZero() {
		a.EnergyUpdatedAt = e.clock.now()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = e.clock.now()
	}
	return e.store.addAccount(a)
}

// centered places every zone in the middle of the bar.
func centered() game.Rand { return &game.SeqRand{Values: []float64{0.5}} }

func (e *testEnv) gameService() *GameService {
	s := NewGameService(e.store, e.guard, e.rules, centered())
	s.now = e.clock.now
	return s
}

func (e *testEnv) economyService() *EconomyService {
	s := NewEconomyService(e.store, e.guard, e.rules)
	s.now = e.clock.now
	return s
}

func (e *testEnv) withdrawService() *WithdrawService {
	s := NewWithdrawService(e.store, e.guard, e.rules)
	s.now = e.clock.now
	return s
}

func (e *testEnv) taskService(members MembershipChecker) *TaskService {
	s := NewTaskService(e.store, e.guard, members, e.rules)
	s.now = e.clock.now
	return s
}

func (e *testEnv) purchaseService(ledger Ledger, cfg PurchaseConfig) *PurchaseService {
	s := NewPurchaseService(e.store, e.guard, ledger, e.rules, cfg)
	s.now = e.clock.now
	return s
}

func (e *testEnv) adminService() *AdminService {
	s := NewAdminService(e.store, e.rules)
	s.now = e.clock.now
	return s
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

const testWallet = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"
