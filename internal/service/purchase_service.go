package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"
	"ton_shooter/internal/ton"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger lists recent inbound transfers of a TON account.
type Ledger interface {
	GetTransactions(ctx context.Context, account string, limit int) ([]ton.Transaction, error)
}

type PurchaseConfig struct {
	Receiver  string
	Network   ton.Network
	AllowMock bool
}

// PurchaseService sells boosts and level-5 upgrades for TON paid on-chain.
type PurchaseService struct {
	store  Store
	guard  *Guard
	ledger Ledger
	rules  economy.Rules
	cfg    PurchaseConfig
	now    Clock
	log    *slog.Logger
}

func NewPurchaseService(store Store, guard *Guard, ledger Ledger, rules economy.Rules, cfg PurchaseConfig) *PurchaseService {
	return &PurchaseService{
		store:  store,
		guard:  guard,
		ledger: ledger,
		rules:  rules,
		cfg:    cfg,
		now:    systemClock,
		log:    logger.With("component", "purchases"),
	}
}

type IntentResult struct {
	PurchaseID string `json:"purchaseId"`
	Receiver   string `json:"receiver"`
	AmountNano string `json:"amountNano"`
	AmountTon  string `json:"amountTon"`
	Comment    string `json:"comment"`
	ValidUntil int64  `json:"validUntil"` // unix seconds
	Network    string `json:"network"`
}

type ConfirmResult struct {
	Status      domain.PurchaseStatus `json:"status"`
	Balances    domain.Balances       `json:"balances"`
	Energy      int                   `json:"energy"`
	WeaponLevel int                   `json:"weaponLevel"`
	RangeLevel  int                   `json:"rangeLevel"`
	// Refunded is set when the paid upgrade no longer applied and the amount
	// went to the TON balance instead.
	Refunded bool `json:"refunded,omitempty"`
}

func kindOf(item domain.PurchaseItem) domain.PurchaseKind {
	switch item {
	case domain.ItemBoost:
		return domain.PurchaseBoost
	case domain.ItemUpgradeWeapon5:
		return domain.PurchaseUpgradeWeapon5
	case domain.ItemUpgradeRange5:
		return domain.PurchaseUpgradeRange5
	}
	return ""
}

func trackOf(kind domain.PurchaseKind) economy.Track {
	if kind == domain.PurchaseUpgradeRange5 {
		return economy.TrackRange
	}
	return economy.TrackWeapon
}

// price is the TON cost of a purchase kind.
func (s *PurchaseService) price(kind domain.PurchaseKind) decimal.Decimal {
	if kind == domain.PurchaseBoost {
		return s.rules.BoostTonCost
	}
	return s.rules.TonOnlyLevelCost
}

// eligible checks whether kind can be applied to acc right now.
func (s *PurchaseService) eligible(acc *domain.Account, kind domain.PurchaseKind, now time.Time) error {
	if kind == domain.PurchaseBoost {
		if !acc.BoostReady(now) {
			return boostCooldown(acc.BoostCooldownUntil)
		}
		return nil
	}
	which := trackOf(kind)
	if levelOf(acc, which) != s.rules.TonOnlyLevel-1 {
		return ErrNeedLevel4
	}
	if err := s.rules.CanUpgrade(acc.WeaponLevel, acc.RangeLevel, which); err != nil {
		return upgradeBlocked(err)
	}
	return nil
}

// apply performs the purchased effect on a locked account row.
func (s *PurchaseService) apply(acc *domain.Account, kind domain.PurchaseKind, now time.Time) {
	if kind == domain.PurchaseBoost {
		applyBoost(s.rules, acc, now)
		return
	}
	raiseLevel(acc, trackOf(kind))
}

// Intent registers an expected transfer. The client pays it out of band.
func (s *PurchaseService) Intent(ctx context.Context, accountID int64, kind domain.PurchaseKind) (*IntentResult, error) {
	if s.cfg.Receiver == "" {
		return nil, ErrTonReceiverNotConfigured
	}
	item, ok := kind.Item()
	if !ok {
		return nil, ErrInvalidInput
	}
	acc, err := s.guard.RequireNotBlocked(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.eligible(acc, kind, now); err != nil {
		return nil, err
	}

	amount := s.price(kind)
	p := &domain.Purchase{
		ID:         repository.NewID(),
		AccountID:  accountID,
		Item:       item,
		AmountNano: economy.TonToNano(amount),
		Receiver:   s.cfg.Receiver,
		Comment:    fmt.Sprintf("TS:%d:%s:%s", accountID, kind, uuid.NewString()[:8]),
		Status:     domain.PurchasePending,
	}
	if err := s.store.CreatePurchase(ctx, p); err != nil {
		return nil, err
	}

	return &IntentResult{
		PurchaseID: p.ID,
		Receiver:   p.Receiver,
		AmountNano: fmt.Sprintf("%d", p.AmountNano),
		AmountTon:  economy.NanoToTon(p.AmountNano).String(),
		Comment:    p.Comment,
		ValidUntil: now.Add(s.rules.PurchaseIntentTTL).Unix(),
		Network:    string(s.cfg.Network),
	}, nil
}

func confirmResult(acc *domain.Account) *ConfirmResult {
	return &ConfirmResult{
		Status:      domain.PurchasePaid,
		Balances:    acc.Balances(),
		Energy:      acc.Energy,
		WeaponLevel: acc.WeaponLevel,
		RangeLevel:  acc.RangeLevel,
	}
}

// Confirm settles a purchase once its transfer shows up on the ledger. Safe to
// call repeatedly: the PENDING -> PAID flip happens once, under a row lock,
// together with the effect.
func (s *PurchaseService) Confirm(ctx context.Context, accountID int64, purchaseID string) (*ConfirmResult, error) {
	p, err := s.store.GetPurchase(ctx, purchaseID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && p.AccountID != accountID) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status == domain.PurchasePaid {
		acc, err := loadAccount(ctx, s.store, accountID, false)
		if err != nil {
			return nil, err
		}
		return confirmResult(acc), nil
	}

	acc, err := loadAccount(ctx, s.store, accountID, false)
	if err != nil {
		return nil, err
	}
	want := ton.Expected{AmountNano: p.AmountNano, Comment: p.Comment}
	if acc.TonWalletAddress != nil {
		want.Sender = *acc.TonWalletAddress
	}

	txs, err := s.ledger.GetTransactions(ctx, p.Receiver, ton.RecentTransactions)
	if err != nil {
		s.log.Warn("ledger query failed", "purchase_id", p.ID, "error", err)
		return nil, ErrLedgerUnavailable
	}
	match := ton.FindPayment(txs, want)
	if match == nil {
		return nil, ErrPaymentNotFound
	}

	var sender, txHash *string
	if match.InMsg.Source != "" {
		sender = &match.InMsg.Source
	}
	if match.Hash != "" {
		txHash = &match.Hash
	}

	return s.settle(ctx, accountID, p.ID, sender, txHash, domain.ActionTonPurchasePaid)
}

// Mock settles a purchase without a ledger payment. Dev only.
func (s *PurchaseService) Mock(ctx context.Context, accountID int64, kind domain.PurchaseKind) (*ConfirmResult, error) {
	if !s.cfg.AllowMock {
		return nil, ErrMockDisabled
	}
	item, ok := kind.Item()
	if !ok {
		return nil, ErrInvalidInput
	}
	acc, err := s.guard.RequireNotBlocked(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.eligible(acc, kind, s.now()); err != nil {
		return nil, err
	}

	p := &domain.Purchase{
		ID:         repository.NewID(),
		AccountID:  accountID,
		Item:       item,
		AmountNano: economy.TonToNano(s.price(kind)),
		Receiver:   "mock",
		Comment:    fmt.Sprintf("TS:%d:%s:%s", accountID, kind, uuid.NewString()[:8]),
		Status:     domain.PurchasePending,
	}
	if err := s.store.CreatePurchase(ctx, p); err != nil {
		return nil, err
	}
	return s.settle(ctx, accountID, p.ID, nil, nil, domain.ActionTonPaymentMock)
}

// settle flips the purchase to PAID and applies its effect in one
// transaction. A purchase that is no longer applicable is refunded to the TON
// balance.
func (s *PurchaseService) settle(ctx context.Context, accountID int64, purchaseID string, sender, txHash *string, action domain.ActionType) (*ConfirmResult, error) {
	now := s.now()
	var res *ConfirmResult
	var settled *domain.Purchase
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		p, err := r.GetPurchaseForUpdate(ctx, purchaseID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPurchaseNotFound
		}
		if err != nil {
			return err
		}
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		if p.Status == domain.PurchasePaid {
			res = confirmResult(acc)
			return nil
		}

		if err := r.MarkPurchasePaid(ctx, p.ID, sender, txHash, now); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				// the transfer already settled another purchase
				return ErrPaymentNotFound
			}
			return err
		}

		kind := kindOf(p.Item)
		refunded := false
		if err := s.eligible(acc, kind, now); err != nil && kind != domain.PurchaseBoost {
			acc.TonBalance = acc.TonBalance.Add(economy.NanoToTon(p.AmountNano))
			refunded = true
		} else {
			s.apply(acc, kind, now)
		}

		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		meta := map[string]any{"purchaseId": p.ID, "kind": string(kind), "refunded": refunded}
		if sender != nil {
			meta["sender"] = *sender
		}
		if txHash != nil {
			meta["txHash"] = *txHash
		}
		if err := r.LogAction(ctx, accountID, action, meta, now); err != nil {
			return err
		}

		res = confirmResult(acc)
		res.Refunded = refunded
		settled = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settled != nil {
		PurchasesSettled.WithLabelValues(string(settled.Item)).Inc()
		s.log.Info("purchase paid", "purchase_id", settled.ID, "account_id", accountID, "item", settled.Item, "refunded", res.Refunded)
	}
	return res, nil
}
