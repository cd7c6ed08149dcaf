package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"
	"ton_shooter/internal/telegram"
	"ton_shooter/internal/ton"
)

type AuthConfig struct {
	BotToken    string
	BotUsername string
	InitDataTTL time.Duration
	AdminTgIDs  []int64

	// DevBypass accepts the literal initData "dev" as a fixed local player.
	DevBypass bool
}

// DevInitData logs in as devProfile when AuthConfig.DevBypass is on.
const DevInitData = "dev"

var devProfile = domain.TelegramProfile{TgID: 999000, Username: "dev_user", FirstName: "Dev", LastName: "User"}

// AccountService covers login, the profile snapshot and account settings.
type AccountService struct {
	store  Store
	tokens *Tokens
	rules  economy.Rules
	cfg    AuthConfig
	admins map[int64]bool
	now    Clock
	log    *slog.Logger
}

func NewAccountService(store Store, tokens *Tokens, rules economy.Rules, cfg AuthConfig) *AccountService {
	admins := make(map[int64]bool, len(cfg.AdminTgIDs))
	for _, id := range cfg.AdminTgIDs {
		admins[id] = true
	}
	return &AccountService{
		store:  store,
		tokens: tokens,
		rules:  rules,
		cfg:    cfg,
		admins: admins,
		now:    systemClock,
		log:    logger.With("component", "accounts"),
	}
}

func (s *AccountService) IsAdmin(tgID int64) bool {
	return s.admins[tgID]
}

// Authenticate verifies Mini App initData, creates or refreshes the account,
// binds the inviter once and returns a session token.
func (s *AccountService) Authenticate(ctx context.Context, initData string) (string, *domain.Account, error) {
	now := s.now()
	if s.cfg.DevBypass && initData == DevInitData {
		return s.devLogin(ctx, now)
	}
	values, err := telegram.ValidateInitData(initData, s.cfg.BotToken, s.cfg.InitDataTTL, now)
	if err != nil {
		s.log.Debug("init data rejected", "error", err)
		return "", nil, ErrInvalidInitData
	}
	user, err := telegram.ParseUser(values)
	if err != nil {
		return "", nil, ErrNoUser
	}

	acc, created, err := s.store.UpsertAccount(ctx, user.Profile(), s.rules.EnergyMax, now)
	if err != nil {
		return "", nil, err
	}

	if acc.ReferrerID == nil {
		if refTg, ok := telegram.ParseRef(values.Get("start_param")); ok {
			if err := s.bindReferrer(ctx, acc, refTg); err != nil {
				return "", nil, err
			}
		}
	}

	if err := s.store.LogAction(ctx, acc.ID, domain.ActionAuth, map[string]any{"tg": user.ID, "created": created}, now); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(acc.ID, acc.TgID)
	if err != nil {
		return "", nil, err
	}
	if created {
		s.log.Info("account created", "account_id", acc.ID, "tg_id", acc.TgID, "referrer_id", acc.ReferrerID)
	}
	return token, acc, nil
}

func (s *AccountService) devLogin(ctx context.Context, now time.Time) (string, *domain.Account, error) {
	acc, _, err := s.store.UpsertAccount(ctx, devProfile, s.rules.EnergyMax, now)
	if err != nil {
		return "", nil, err
	}
	if err := s.store.LogAction(ctx, acc.ID, domain.ActionAuth, map[string]any{"dev": true}, now); err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(acc.ID, acc.TgID)
	if err != nil {
		return "", nil, err
	}
	s.log.Warn("dev login", "account_id", acc.ID)
	return token, acc, nil
}

// bindReferrer links acc to the account of refTg. Only accounts created
// earlier can invite, which keeps the referral graph acyclic.
func (s *AccountService) bindReferrer(ctx context.Context, acc *domain.Account, refTg int64) error {
	ref, err := s.store.GetAccountByTgID(ctx, refTg)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if ref.ID >= acc.ID {
		return nil
	}
	bound, err := s.store.BindReferrer(ctx, acc.ID, ref.ID)
	if err != nil {
		return err
	}
	if bound {
		acc.ReferrerID = &ref.ID
	}
	return nil
}

// Profile is the /me snapshot.
type Profile struct {
	*domain.Account
	EnergyMax           int  `json:"energyMax"`
	BoostActive         bool `json:"boostActive"`
	ActiveReferralCount int  `json:"activeReferralCount"`
	CanWithdrawTon      bool `json:"canWithdrawTon"`
	IsAdmin             bool `json:"isAdmin"`
}

// Me returns the caller's account with regenerated energy persisted.
func (s *AccountService) Me(ctx context.Context, accountID int64) (*Profile, error) {
	now := s.now()
	var acc *domain.Account
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		var err error
		acc, err = loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		energy, at := s.rules.Regen(acc.Energy, acc.EnergyUpdatedAt, now)
		if energy == acc.Energy && at.Equal(acc.EnergyUpdatedAt) {
			return nil
		}
		acc.Energy, acc.EnergyUpdatedAt = energy, at
		return r.SaveAccount(ctx, acc)
	})
	if err != nil {
		return nil, err
	}

	active, err := s.store.CountActiveReferrals(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Account:             acc,
		EnergyMax:           s.rules.EnergyMax,
		BoostActive:         acc.BoostActiveUntil != nil && acc.BoostActiveUntil.After(now),
		ActiveReferralCount: active,
		CanWithdrawTon:      active >= s.rules.WithdrawNeedReferrals,
		IsAdmin:             s.IsAdmin(acc.TgID),
	}, nil
}

// SetWallet registers the wallet purchases are expected to be paid from.
func (s *AccountService) SetWallet(ctx context.Context, accountID int64, address string) (string, error) {
	address = strings.TrimSpace(address)
	if !ton.ValidateAddress(address) {
		return "", ErrInvalidAddress
	}

	now := s.now()
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		acc.TonWalletAddress = &address
		acc.TonWalletUpdatedAt = &now
		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		return r.LogAction(ctx, accountID, domain.ActionWalletSet, map[string]any{"address": address}, now)
	})
	if err != nil {
		return "", err
	}
	return address, nil
}

type ReferralInfo struct {
	Payload             string `json:"payload"`
	Link                string `json:"link,omitempty"`
	ReferralCount       int    `json:"referralCount"`
	ActiveReferralCount int    `json:"activeReferralCount"`
}

func (s *AccountService) Referral(ctx context.Context, accountID int64) (*ReferralInfo, error) {
	acc, err := loadAccount(ctx, s.store, accountID, false)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountReferrals(ctx, accountID)
	if err != nil {
		return nil, err
	}
	active, err := s.store.CountActiveReferrals(ctx, accountID)
	if err != nil {
		return nil, err
	}

	info := &ReferralInfo{
		Payload:             telegram.RefPayload(acc.TgID),
		ReferralCount:       total,
		ActiveReferralCount: active,
	}
	if s.cfg.BotUsername != "" {
		info.Link = telegram.ReferralLink(s.cfg.BotUsername, acc.TgID)
	}
	return info, nil
}
