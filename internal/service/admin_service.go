package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"

	"github.com/shopspring/decimal"
)

// AdminService provides operator tools. Callers check admin rights.
type AdminService struct {
	store Store
	rules economy.Rules
	now   Clock
	log   *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store Store, rules economy.Rules) *AdminService {
	return &AdminService{store: store, rules: rules, now: systemClock, log: logger.With("component", "admin")}
}

// FillEnergy refills the admin's own energy.
func (s *AdminService) FillEnergy(ctx context.Context, accountID, byTg int64) (int, error) {
	now := s.now()
	var energy int
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		acc.Energy = s.rules.EnergyMax
		acc.EnergyUpdatedAt = now
		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		energy = acc.Energy
		return r.LogAction(ctx, accountID, domain.ActionAdminEnergyFill, map[string]any{"by": byTg}, now)
	})
	return energy, err
}

// Grant is a balance/state patch. Currency fields are increments, the rest
// are absolute values.
type Grant struct {
	TargetTgID      *int64           `json:"targetTgUserId,string,omitempty"`
	Coins           *int64           `json:"coins,omitempty"`
	Crystals        *int64           `json:"crystals,omitempty"`
	TonBalance      *decimal.Decimal `json:"tonBalance,omitempty"`
	Energy          *int             `json:"energy,omitempty"`
	WeaponLevel     *int             `json:"weaponLevel,omitempty"`
	RangeLevel      *int             `json:"rangeLevel,omitempty"`
	ResetBoost      bool             `json:"resetBoost,omitempty"`
	ResetWithdrawal bool             `json:"resetWithdrawal,omitempty"`
	ResetAntibot    bool             `json:"resetAntibot,omitempty"`
}

func (s *AdminService) validGrant(g Grant) bool {
	if g.Energy != nil && (*g.Energy < 0 || *g.Energy > s.rules.EnergyMax) {
		return false
	}
	for _, lvl := range []*int{g.WeaponLevel, g.RangeLevel} {
		if lvl != nil && (*lvl < 1 || *lvl > s.rules.MaxLevel) {
			return false
		}
	}
	return true
}

// Grant applies g to the target account (the caller's own when no target is
// given) and returns the result.
func (s *AdminService) Grant(ctx context.Context, selfID, byTg int64, g Grant) (*domain.Account, error) {
	if !s.validGrant(g) {
		return nil, ErrInvalidInput
	}

	targetID := selfID
	if g.TargetTgID != nil {
		target, err := s.store.GetAccountByTgID(ctx, *g.TargetTgID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		if err != nil {
			return nil, err
		}
		targetID = target.ID
	}

	now := s.now()
	var out *domain.Account
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, targetID, true)
		if err != nil {
			return err
		}
		if g.Coins != nil {
			acc.Coins += *g.Coins
		}
		if g.Crystals != nil {
			acc.Crystals += *g.Crystals
		}
		if g.TonBalance != nil {
			acc.TonBalance = acc.TonBalance.Add(*g.TonBalance)
		}
		if acc.Coins < 0 || acc.Crystals < 0 || acc.TonBalance.IsNegative() {
			return ErrInvalidInput
		}
		if g.Energy != nil {
			acc.Energy = *g.Energy
			acc.EnergyUpdatedAt = now
		}
		if g.WeaponLevel != nil {
			acc.WeaponLevel = *g.WeaponLevel
		}
		if g.RangeLevel != nil {
			acc.RangeLevel = *g.RangeLevel
		}
		if g.ResetBoost {
			acc.BoostActiveUntil = nil
			acc.BoostCooldownUntil = nil
		}
		if g.ResetWithdrawal {
			acc.LastWithdrawalAt = nil
		}
		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if g.ResetAntibot {
			if err := r.ResetAntibot(ctx, acc.ID); err != nil {
				return err
			}
			acc.SuspicionScore = 0
			acc.IsBotBlocked = false
		}
		if err := r.LogAction(ctx, acc.ID, domain.ActionAdminGrant, map[string]any{
			"by":             byTg,
			"targetTgUserId": acc.TgID,
			"patch":          g,
		}, now); err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("admin grant", "by", byTg, "account_id", out.ID)
	return out, nil
}

// Tasks lists every task, newest first.
func (s *AdminService) Tasks(ctx context.Context) ([]domain.Task, error) {
	return s.store.ListTasks(ctx, false, 0)
}

type TaskInput struct {
	Title                    string            `json:"title"`
	Description              string            `json:"description"`
	ChatID                   string            `json:"chatId"`
	URL                      string            `json:"url"`
	RewardType               domain.RewardType `json:"rewardType"`
	RewardValue              int64             `json:"rewardValue"`
	Cap                      int               `json:"cap"`
	RequireSubscriptionCheck bool              `json:"requireSubscriptionCheck"`
}

func between(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

// Validate checks field lengths and ranges.
func (in TaskInput) Validate() error {
	switch {
	case !between(in.Title, 1, 64),
		!between(in.Description, 1, 256),
		!between(in.ChatID, 1, 128),
		!between(in.URL, 5, 512),
		!in.RewardType.Valid(),
		in.RewardValue <= 0,
		in.Cap < 0 || in.Cap > 1_000_000:
		return ErrInvalidInput
	}
	return nil
}

func (s *AdminService) CreateTask(ctx context.Context, in TaskInput) (*domain.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ChatID = strings.TrimSpace(in.ChatID)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := &domain.Task{
		Title:                    in.Title,
		Description:              in.Description,
		ChatID:                   in.ChatID,
		URL:                      in.URL,
		Cap:                      in.Cap,
		RewardType:               in.RewardType,
		RewardValue:              in.RewardValue,
		RequireSubscriptionCheck: in.RequireSubscriptionCheck,
		IsActive:                 true,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("task created", "task_id", t.ID, "chat_id", t.ChatID, "cap", t.Cap)
	return t, nil
}

func (s *AdminService) SetTaskActive(ctx context.Context, id int64, active bool) error {
	err := s.store.SetTaskActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// ToggleTask flips the active flag and returns the new value.
func (s *AdminService) ToggleTask(ctx context.Context, id int64) (bool, error) {
	t, err := s.store.GetTask(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, ErrTaskNotFound
	}
	if err != nil {
		return false, err
	}
	if err := s.SetTaskActive(ctx, id, !t.IsActive); err != nil {
		return false, err
	}
	return !t.IsActive, nil
}

func (s *AdminService) UserByTgID(ctx context.Context, tgID int64) (*domain.Account, error) {
	acc, err := s.store.GetAccountByTgID(ctx, tgID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return acc, err
}

// Unblock clears the antibot state of the account with tgID.
func (s *AdminService) Unblock(ctx context.Context, tgID int64) error {
	acc, err := s.UserByTgID(ctx, tgID)
	if err != nil {
		return err
	}
	if err := s.store.ResetAntibot(ctx, acc.ID); err != nil {
		return err
	}
	s.log.Info("account unblocked", "account_id", acc.ID, "tg_id", tgID)
	return nil
}
