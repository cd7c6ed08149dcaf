package service

import (
	"context"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/repository"
)

// evaluateReferral stamps qualification and pays the referrer when the daily
// cap allows. It runs on the post-shot counters and mutates acc in place; the
// caller saves acc. Returns the rewarded referrer id, nil if nothing was paid.
//
// A qualified but unrewarded invitee is retried on every later shot.
func (s *GameService) evaluateReferral(ctx context.Context, r repository.Repo, acc *domain.Account, now time.Time) (*int64, error) {
	if acc.ReferrerID == nil {
		return nil, nil
	}

	if acc.ReferralQualifiedAt == nil {
		inWindow := now.Sub(acc.CreatedAt) <= s.rules.ReferralActiveWindow
		if !inWindow || acc.ShotsCount < s.rules.ReferralActiveShots || acc.HitsCount < s.rules.ReferralActiveHits {
			return nil, nil
		}
		at := now
		acc.ReferralQualifiedAt = &at
	}
	if acc.ReferralRewardedAt != nil {
		return nil, nil
	}

	referrerID := *acc.ReferrerID
	// lock the referrer so parallel invitees see each other's rewards
	if _, err := r.GetAccountForUpdate(ctx, referrerID); err != nil {
		return nil, err
	}
	n, err := r.CountReferralRewardsSince(ctx, referrerID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	if n >= s.rules.ReferralDailyCap {
		return nil, nil
	}

	at := now
	acc.ReferralRewardedAt = &at
	if err := r.CreditCoins(ctx, referrerID, s.rules.ReferralRewardCoins); err != nil {
		return nil, err
	}
	if err := r.LogAction(ctx, acc.ID, domain.ActionReferralReward, map[string]any{
		"referrerId": referrerID,
		"coins":      s.rules.ReferralRewardCoins,
	}, now); err != nil {
		return nil, err
	}
	return &referrerID, nil
}
