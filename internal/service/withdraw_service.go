package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"
	"ton_shooter/internal/ton"

	"github.com/shopspring/decimal"
)

type WithdrawService struct {
	store Store
	guard *Guard
	rules economy.Rules
	now   Clock
	log   *slog.Logger

	// OnCreated is called after a withdrawal is committed, e.g. to ping admins.
	OnCreated func(w domain.Withdrawal)
}

func NewWithdrawService(store Store, guard *Guard, rules economy.Rules) *WithdrawService {
	return &WithdrawService{store: store, guard: guard, rules: rules, now: systemClock, log: logger.With("component", "withdraw")}
}

type WithdrawResult struct {
	WithdrawalID string          `json:"withdrawalId"`
	TonBalance   decimal.Decimal `json:"tonBalance"`
	DevFee       decimal.Decimal `json:"devFee"`
}

// Withdraw debits amount from the TON balance and records a payout request.
// The payout itself is sent out of band.
func (s *WithdrawService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal, address string) (*WithdrawResult, error) {
	address = strings.TrimSpace(address)
	if !ton.ValidateAddress(address) {
		return nil, ErrInvalidAddress
	}
	if _, err := s.guard.Check(ctx, accountID); err != nil {
		return nil, err
	}
	if amount.LessThan(s.rules.WithdrawMinTon) {
		return nil, ErrWithdrawTooSmall
	}
	if amount.GreaterThan(s.rules.WithdrawMaxTon) {
		return nil, ErrWithdrawTooLarge
	}

	now := s.now()
	var (
		res     *WithdrawResult
		created domain.Withdrawal
	)
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}

		active, err := r.CountActiveReferrals(ctx, acc.ID)
		if err != nil {
			return err
		}
		if active < s.rules.WithdrawNeedReferrals {
			return withDetails(ErrWithdrawNeedReferral, map[string]any{"needed": s.rules.WithdrawNeedReferrals, "have": active})
		}
		if acc.LastWithdrawalAt != nil {
			until := acc.LastWithdrawalAt.Add(s.rules.WithdrawCooldown)
			if now.Before(until) {
				return withDetails(ErrWithdrawCooldown, map[string]any{"until": until.UTC().Format(time.RFC3339)})
			}
		}
		if acc.TonBalance.LessThan(amount) {
			return ErrNotEnoughTon
		}

		acc.TonBalance = acc.TonBalance.Sub(amount)
		acc.LastWithdrawalAt = &now
		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}

		w := &domain.Withdrawal{
			ID:        repository.NewID(),
			AccountID: acc.ID,
			AmountTon: amount,
			Address:   address,
			FeeTon:    s.rules.WithdrawFee(amount),
			CreatedAt: now,
		}
		if err := r.CreateWithdrawal(ctx, w); err != nil {
			return err
		}
		if err := r.LogAction(ctx, acc.ID, domain.ActionWithdraw, map[string]any{
			"withdrawalId": w.ID,
			"amountTon":    amount.String(),
			"devFeeTon":    w.FeeTon.String(),
			"address":      address,
		}, now); err != nil {
			return err
		}

		created = *w
		res = &WithdrawResult{WithdrawalID: w.ID, TonBalance: acc.TonBalance, DevFee: w.FeeTon}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("withdrawal requested", "account_id", accountID, "amount", amount.String(), "fee", res.DevFee.String())
	if s.OnCreated != nil {
		s.OnCreated(created)
	}
	return res, nil
}

// History lists the caller's withdrawals, newest first.
func (s *WithdrawService) History(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error) {
	return s.store.ListWithdrawals(ctx, accountID, limit)
}
