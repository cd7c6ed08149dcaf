package repository

import (
	"context"

	"ton_shooter/internal/domain"

	"github.com/shopspring/decimal"
)

func (q *Queries) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO withdrawals (id, account_id, amount_ton, address, fee_ton, created_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5::text::numeric, $6)
		RETURNING created_at
	`, w.ID, w.AccountID, w.AmountTon.String(), w.Address, w.FeeTon.String(), w.CreatedAt).Scan(&w.CreatedAt)
}

// ListWithdrawals returns an account's payouts, newest first.
func (q *Queries) ListWithdrawals(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, account_id, amount_ton::text, address, fee_ton::text, created_at
		FROM withdrawals
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		var amount, fee string
		if err := rows.Scan(&w.ID, &w.AccountID, &amount, &w.Address, &fee, &w.CreatedAt); err != nil {
			return nil, err
		}
		if w.AmountTon, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if w.FeeTon, err = decimal.NewFromString(fee); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}
