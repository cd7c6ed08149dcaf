package repository

import (
	"context"
	"time"

	"ton_shooter/internal/domain"

	"github.com/jackc/pgx/v5"
)

const purchaseColumns = `id, account_id, item, amount_nano, receiver, comment, status, sender, tx_hash, paid_at, created_at`

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var p domain.Purchase
	if err := row.Scan(&p.ID, &p.AccountID, &p.Item, &p.AmountNano, &p.Receiver, &p.Comment,
		&p.Status, &p.Sender, &p.TxHash, &p.PaidAt, &p.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (q *Queries) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO purchases (id, account_id, item, amount_nano, receiver, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, p.ID, p.AccountID, p.Item, p.AmountNano, p.Receiver, p.Comment, p.Status).Scan(&p.CreatedAt)
}

func (q *Queries) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	return scanPurchase(q.db.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id))
}

func (q *Queries) GetPurchaseForUpdate(ctx context.Context, id string) (*domain.Purchase, error) {
	return scanPurchase(q.db.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id))
}

// MarkPurchasePaid flips PENDING to PAID. A purchase that is not pending is
// left alone and ErrNotFound is returned. A tx hash already used by another
// purchase gives ErrAlreadyExists.
func (q *Queries) MarkPurchasePaid(ctx context.Context, id string, sender, txHash *string, at time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE purchases SET status = 'PAID', sender = $2, tx_hash = $3, paid_at = $4
		WHERE id = $1 AND status = 'PENDING'
	`, id, sender, txHash, at)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
