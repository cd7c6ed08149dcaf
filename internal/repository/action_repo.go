package repository

import (
	"context"
	"encoding/json"
	"time"

	"ton_shooter/internal/domain"
)

// LogAction appends to the action log
func (q *Queries) LogAction(ctx context.Context, accountID int64, typ domain.ActionType, meta map[string]any, at time.Time) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil || meta == nil {
		metaJSON = []byte("{}")
	}

	_, err = q.db.Exec(ctx, `
		INSERT INTO action_logs (account_id, type, meta, created_at)
		VALUES ($1, $2, $3, $4)
	`, accountID, typ, metaJSON, at)
	return err
}

// LastActionAt returns nil when the account has no logged actions
func (q *Queries) LastActionAt(ctx context.Context, accountID int64) (*time.Time, error) {
	var at *time.Time
	err := q.db.QueryRow(ctx, `SELECT MAX(created_at) FROM action_logs WHERE account_id = $1`, accountID).Scan(&at)
	return at, err
}
