package service

import (
	"context"
	"log/slog"

	"ton_shooter/internal/antibot"
	"ton_shooter/internal/domain"
	"ton_shooter/internal/logger"
)

// Guard runs the too-fast-actions check in front of player mutations.
type Guard struct {
	store  Store
	policy antibot.Policy
	now    Clock
	log    *slog.Logger
}

func NewGuard(store Store, policy antibot.Policy) *Guard {
	return &Guard{store: store, policy: policy, now: systemClock, log: logger.With("component", "antibot")}
}

// Check rejects blocked accounts and scores actions that follow the previous
// one too closely. The scored action itself still goes through.
func (g *Guard) Check(ctx context.Context, accountID int64) (*domain.Account, error) {
	acc, err := g.RequireNotBlocked(ctx, accountID)
	if err != nil {
		return nil, err
	}

	last, err := g.store.LastActionAt(ctx, accountID)
	if err != nil {
		return nil, err
	}
	v := g.policy.Evaluate(acc.IsBotBlocked, last, g.now())
	if !v.Suspect {
		return acc, nil
	}

	score, blocked, err := g.store.AddSuspicion(ctx, accountID, g.policy.Threshold)
	if err != nil {
		return nil, err
	}
	acc.SuspicionScore = score
	if blocked && !acc.IsBotBlocked {
		AntibotBlocks.Inc()
		g.log.Warn("account blocked", "account_id", accountID, "score", score)
	}
	acc.IsBotBlocked = blocked
	return acc, nil
}

// RequireNotBlocked only checks the block flag.
func (g *Guard) RequireNotBlocked(ctx context.Context, accountID int64) (*domain.Account, error) {
	acc, err := loadAccount(ctx, g.store, accountID, false)
	if err != nil {
		return nil, err
	}
	if acc.IsBotBlocked {
		return nil, ErrBotSuspected
	}
	return acc, nil
}
