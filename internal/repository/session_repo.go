package repository

import (
	"context"

	"ton_shooter/internal/domain"
)

func (q *Queries) CreateShotSession(ctx context.Context, s *domain.ShotSession) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO shot_sessions (id, account_id, difficulty, zone_center, zone_width, speed, zone_moves, zone_phase, base_started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, s.ID, s.AccountID, s.Difficulty, s.ZoneCenter, s.ZoneWidth, s.Speed, s.ZoneMoves, s.ZonePhase, s.BaseStartedAt).
		Scan(&s.CreatedAt)
}

func (q *Queries) GetShotSessionForUpdate(ctx context.Context, id string) (*domain.ShotSession, error) {
	var s domain.ShotSession
	err := q.db.QueryRow(ctx, `
		SELECT id, account_id, difficulty, zone_center, zone_width, speed, zone_moves, zone_phase, base_started_at, used, created_at
		FROM shot_sessions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&s.ID, &s.AccountID, &s.Difficulty, &s.ZoneCenter, &s.ZoneWidth, &s.Speed,
		&s.ZoneMoves, &s.ZonePhase, &s.BaseStartedAt, &s.Used, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (q *Queries) MarkShotSessionUsed(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `UPDATE shot_sessions SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
