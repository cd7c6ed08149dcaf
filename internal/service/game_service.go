package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/game"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"
)

// GameService runs the shot lifecycle: start a session, fire it once.
type GameService struct {
	store Store
	guard *Guard
	rules economy.Rules
	rnd   game.Rand
	now   Clock
	log   *slog.Logger
}

func NewGameService(store Store, guard *Guard, rules economy.Rules, rnd game.Rand) *GameService {
	if rnd == nil {
		rnd = game.CryptoRand{}
	}
	return &GameService{
		store: store,
		guard: guard,
		rules: rules,
		rnd:   rnd,
		now:   systemClock,
		log:   logger.With("component", "game"),
	}
}

type StartResult struct {
	SessionID       string `json:"sessionId"`
	ServerStartedAt int64  `json:"serverStartedAt"` // unix ms
	game.Params
	EnergyCost int `json:"energyCost"`
	Energy     int `json:"energy"`
}

type FireResult struct {
	Hit        bool            `json:"hit"`
	Pos        float64         `json:"pos"`
	ZoneCenter float64         `json:"zoneCenter"`
	ZoneWidth  float64         `json:"zoneWidth"`
	ElapsedMs  int64           `json:"elapsedMs"`
	Drifted    bool            `json:"drifted"`
	CoinsAward int64           `json:"coinsAward"`
	EnergyCost int             `json:"energyCost"`
	Energy     int             `json:"energy"`
	Difficulty int             `json:"difficulty"`
	Balances   domain.Balances `json:"balances"`
}

func noEnergy(energy, cost int) error {
	return withDetails(ErrNoEnergy, map[string]any{"energy": energy, "cost": cost})
}

// Start creates a shot session for the account's current streak.
func (s *GameService) Start(ctx context.Context, accountID int64) (*StartResult, error) {
	if _, err := s.guard.Check(ctx, accountID); err != nil {
		return nil, err
	}

	now := s.now()
	var res *StartResult
	var short error
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		acc.Energy, acc.EnergyUpdatedAt = s.rules.Regen(acc.Energy, acc.EnergyUpdatedAt, now)
		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}

		cost := economy.EnergyCost(acc.WeaponLevel, acc.RangeLevel)
		if acc.Energy < cost {
			// regen is still committed
			short = noEnergy(acc.Energy, cost)
			return nil
		}

		p := game.DifficultyToParams(acc.Difficulty, s.rnd)
		sess := &domain.ShotSession{
			ID:            repository.NewID(),
			AccountID:     acc.ID,
			Difficulty:    p.Difficulty,
			ZoneCenter:    p.ZoneCenter,
			ZoneWidth:     p.ZoneWidth,
			Speed:         p.Speed,
			ZoneMoves:     p.ZoneMoves,
			ZonePhase:     p.ZonePhase,
			BaseStartedAt: now,
		}
		if err := r.CreateShotSession(ctx, sess); err != nil {
			return err
		}
		if err := r.LogAction(ctx, acc.ID, domain.ActionShotStart, map[string]any{
			"sessionId":  sess.ID,
			"difficulty": p.Difficulty,
		}, now); err != nil {
			return err
		}

		res = &StartResult{
			SessionID:       sess.ID,
			ServerStartedAt: now.UnixMilli(),
			Params:          p,
			EnergyCost:      cost,
			Energy:          acc.Energy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if short != nil {
		return nil, short
	}
	return res, nil
}

// Fire consumes a session and settles the shot. The session is marked used
// even when the shot is refused for lack of energy.
func (s *GameService) Fire(ctx context.Context, accountID int64, sessionID string, clientElapsed time.Duration) (*FireResult, error) {
	if clientElapsed < 0 || clientElapsed > game.MaxClientElapsed {
		return nil, ErrInvalidInput
	}
	if _, err := s.guard.Check(ctx, accountID); err != nil {
		return nil, err
	}

	now := s.now()
	var res *FireResult
	var short error
	var rewarded *int64
	err := s.store.InTx(ctx, func(r repository.Repo) error {
		sess, err := r.GetShotSessionForUpdate(ctx, sessionID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && sess.AccountID != accountID) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if sess.Used {
			return ErrSessionUsed
		}
		if err := r.MarkShotSessionUsed(ctx, sess.ID); err != nil {
			return err
		}

		elapsed, drifted := game.ResolveElapsed(now.Sub(sess.BaseStartedAt), clientElapsed, game.MaxDrift)
		if drifted {
			// counts toward the score but never blocks by itself
			if _, _, err := r.AddSuspicion(ctx, accountID, 0); err != nil {
				return err
			}
		}

		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		acc.Energy, acc.EnergyUpdatedAt = s.rules.Regen(acc.Energy, acc.EnergyUpdatedAt, now)
		cost := economy.EnergyCost(acc.WeaponLevel, acc.RangeLevel)
		if acc.Energy < cost {
			if err := r.SaveAccount(ctx, acc); err != nil {
				return err
			}
			short = noEnergy(acc.Energy, cost)
			return nil
		}

		params := game.Params{
			Difficulty: sess.Difficulty,
			ZoneCenter: sess.ZoneCenter,
			ZoneWidth:  sess.ZoneWidth,
			Speed:      sess.Speed,
			ZoneMoves:  sess.ZoneMoves,
			ZonePhase:  sess.ZonePhase,
		}
		out := params.Resolve(elapsed)

		var award int64
		if acc.Energy >= s.rules.EnergyMax {
			// regen counts from the first point spent
			acc.EnergyUpdatedAt = now
		}
		acc.Energy -= cost
		acc.ShotsCount++
		if out.Hit {
			award = economy.CoinsForHit(acc.WeaponLevel, acc.RangeLevel)
			acc.Coins += award
			acc.HitsCount++
			acc.Difficulty++
		} else {
			acc.Difficulty = 0
		}

		rewarded, err = s.evaluateReferral(ctx, r, acc, now)
		if err != nil {
			return err
		}
		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := r.LogAction(ctx, acc.ID, domain.ActionShotFire, map[string]any{
			"sessionId": sess.ID,
			"hit":       out.Hit,
			"elapsedMs": elapsed.Milliseconds(),
			"drifted":   drifted,
			"award":     award,
		}, now); err != nil {
			return err
		}

		res = &FireResult{
			Hit:        out.Hit,
			Pos:        out.Pos,
			ZoneCenter: out.ZoneCenter,
			ZoneWidth:  sess.ZoneWidth,
			ElapsedMs:  elapsed.Milliseconds(),
			Drifted:    drifted,
			CoinsAward: award,
			EnergyCost: cost,
			Energy:     acc.Energy,
			Difficulty: acc.Difficulty,
			Balances:   acc.Balances(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if short != nil {
		ShotsTotal.WithLabelValues("no_energy").Inc()
		return nil, short
	}

	if res.Hit {
		ShotsTotal.WithLabelValues("hit").Inc()
	} else {
		ShotsTotal.WithLabelValues("miss").Inc()
	}
	if rewarded != nil {
		ReferralRewards.Inc()
		s.log.Info("referral rewarded", "referrer_id", *rewarded, "invitee_id", accountID)
	}
	return res, nil
}
