package repository

import (
	"context"
	"time"

	"ton_shooter/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), created_at,
	coins, crystals, ton_balance::text, weapon_level, range_level, energy, energy_updated_at,
	difficulty, shots_count, hits_count, suspicion_score, is_bot_blocked,
	boost_cooldown_until, boost_active_until, last_withdrawal_at,
	referrer_id, referral_qualified_at, referral_rewarded_at,
	ton_wallet_address, ton_wallet_updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var ton string
	if err := row.Scan(
		&a.ID, &a.TgID, &a.Username, &a.FirstName, &a.LastName, &a.CreatedAt,
		&a.Coins, &a.Crystals, &ton, &a.WeaponLevel, &a.RangeLevel, &a.Energy, &a.EnergyUpdatedAt,
		&a.Difficulty, &a.ShotsCount, &a.HitsCount, &a.SuspicionScore, &a.IsBotBlocked,
		&a.BoostCooldownUntil, &a.BoostActiveUntil, &a.LastWithdrawalAt,
		&a.ReferrerID, &a.ReferralQualifiedAt, &a.ReferralRewardedAt,
		&a.TonWalletAddress, &a.TonWalletUpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	d, err := decimal.NewFromString(ton)
	if err != nil {
		return nil, err
	}
	a.TonBalance = d
	return &a, nil
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return scanAccount(q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (q *Queries) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	return scanAccount(q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) GetAccountByTgID(ctx context.Context, tgID int64) (*domain.Account, error) {
	return scanAccount(q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tg_id = $1`, tgID))
}

// UpsertAccount creates the account on first login and refreshes the profile
// afterwards. created is true only for the inserting call.
func (q *Queries) UpsertAccount(ctx context.Context, p domain.TelegramProfile, energy int, now time.Time) (*domain.Account, bool, error) {
	var id int64
	var created bool
	err := q.db.QueryRow(ctx, `
		INSERT INTO accounts (tg_id, username, first_name, last_name, energy, energy_updated_at, created_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $6)
		ON CONFLICT (tg_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
		RETURNING id, (xmax = 0)
	`, p.TgID, p.Username, p.FirstName, p.LastName, energy, now).Scan(&id, &created)
	if err != nil {
		return nil, false, err
	}
	a, err := q.GetAccount(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return a, created, nil
}

// BindReferrer sets the referrer once. Returns false when one was already set.
func (q *Queries) BindReferrer(ctx context.Context, accountID, referrerID int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE accounts SET referrer_id = $2
		WHERE id = $1 AND referrer_id IS NULL AND id <> $2
	`, accountID, referrerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SaveAccount writes the mutable game state. Antibot fields and the referrer
// have their own statements.
func (q *Queries) SaveAccount(ctx context.Context, a *domain.Account) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE accounts SET
			coins = $2,
			crystals = $3,
			ton_balance = $4::text::numeric,
			weapon_level = $5,
			range_level = $6,
			energy = $7,
			energy_updated_at = $8,
			difficulty = $9,
			shots_count = $10,
			hits_count = $11,
			boost_cooldown_until = $12,
			boost_active_until = $13,
			last_withdrawal_at = $14,
			referral_qualified_at = $15,
			referral_rewarded_at = $16,
			ton_wallet_address = $17,
			ton_wallet_updated_at = $18
		WHERE id = $1
	`, a.ID, a.Coins, a.Crystals, a.TonBalance.String(), a.WeaponLevel, a.RangeLevel,
		a.Energy, a.EnergyUpdatedAt, a.Difficulty, a.ShotsCount, a.HitsCount,
		a.BoostCooldownUntil, a.BoostActiveUntil, a.LastWithdrawalAt,
		a.ReferralQualifiedAt, a.ReferralRewardedAt, a.TonWalletAddress, a.TonWalletUpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSuspicion adds one point and blocks the account once the score reaches
// blockAt. blockAt <= 0 only counts.
func (q *Queries) AddSuspicion(ctx context.Context, accountID int64, blockAt int) (int, bool, error) {
	var score int
	var blocked bool
	err := q.db.QueryRow(ctx, `
		UPDATE accounts SET
			suspicion_score = suspicion_score + 1,
			is_bot_blocked = is_bot_blocked OR ($2 > 0 AND suspicion_score + 1 >= $2)
		WHERE id = $1
		RETURNING suspicion_score, is_bot_blocked
	`, accountID, blockAt).Scan(&score, &blocked)
	if err != nil {
		return 0, false, notFound(err)
	}
	return score, blocked, nil
}

func (q *Queries) ResetAntibot(ctx context.Context, accountID int64) error {
	_, err := q.db.Exec(ctx, `UPDATE accounts SET suspicion_score = 0, is_bot_blocked = FALSE WHERE id = $1`, accountID)
	return err
}

func (q *Queries) CreditCoins(ctx context.Context, accountID, amount int64) error {
	tag, err := q.db.Exec(ctx, `UPDATE accounts SET coins = coins + $2 WHERE id = $1`, accountID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) CountReferrals(ctx context.Context, referrerID int64) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE referrer_id = $1`, referrerID).Scan(&n)
	return n, err
}

// CountActiveReferrals counts invitees whose referral reward was paid.
func (q *Queries) CountActiveReferrals(ctx context.Context, referrerID int64) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM accounts
		WHERE referrer_id = $1 AND referral_rewarded_at IS NOT NULL
	`, referrerID).Scan(&n)
	return n, err
}

func (q *Queries) CountReferralRewardsSince(ctx context.Context, referrerID int64, since time.Time) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM accounts
		WHERE referrer_id = $1 AND referral_rewarded_at >= $2
	`, referrerID, since).Scan(&n)
	return n, err
}
