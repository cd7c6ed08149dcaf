package repository

import (
	"context"
	"time"

	"ton_shooter/internal/domain"

	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, title, COALESCE(description, ''), chat_id, url, cap, completed_count,
	reward_type, reward_value, require_subscription_check, is_active, created_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ChatID, &t.URL, &t.Cap, &t.CompletedCount,
		&t.RewardType, &t.RewardValue, &t.RequireSubscriptionCheck, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTasks returns tasks newest first. limit <= 0 means no limit.
func (q *Queries) ListTasks(ctx context.Context, activeOnly bool, limit int) ([]domain.Task, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE (NOT $1::boolean OR is_active)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, activeOnly, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (q *Queries) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return scanTask(q.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (q *Queries) GetTaskForUpdate(ctx context.Context, id int64) (*domain.Task, error) {
	return scanTask(q.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) CreateTask(ctx context.Context, t *domain.Task) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO tasks (title, description, chat_id, url, cap, reward_type, reward_value, require_subscription_check, is_active)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, t.Title, t.Description, t.ChatID, t.URL, t.Cap, t.RewardType, t.RewardValue,
		t.RequireSubscriptionCheck, t.IsActive).Scan(&t.ID, &t.CreatedAt)
}

func (q *Queries) SetTaskActive(ctx context.Context, id int64, active bool) error {
	tag, err := q.db.Exec(ctx, `UPDATE tasks SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementTaskCompleted counts one claim and switches the task off when its
// cap is hit.
func (q *Queries) IncrementTaskCompleted(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `
		UPDATE tasks SET
			completed_count = completed_count + 1,
			is_active = CASE WHEN cap > 0 AND completed_count + 1 >= cap THEN FALSE ELSE is_active END
		WHERE id = $1
	`, id)
	return err
}

func (q *Queries) UpsertTaskOpen(ctx context.Context, o *domain.TaskOpen) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO task_opens (account_id, task_id, open_token, open_token_expires_at, opened_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, task_id) DO UPDATE SET
			open_token = EXCLUDED.open_token,
			open_token_expires_at = EXCLUDED.open_token_expires_at,
			opened_at = EXCLUDED.opened_at
	`, o.AccountID, o.TaskID, o.OpenToken, o.OpenTokenExpiresAt, o.OpenedAt)
	return err
}

func (q *Queries) GetTaskOpen(ctx context.Context, accountID, taskID int64) (*domain.TaskOpen, error) {
	var o domain.TaskOpen
	err := q.db.QueryRow(ctx, `
		SELECT account_id, task_id, open_token, open_token_expires_at, opened_at
		FROM task_opens
		WHERE account_id = $1 AND task_id = $2
	`, accountID, taskID).Scan(&o.AccountID, &o.TaskID, &o.OpenToken, &o.OpenTokenExpiresAt, &o.OpenedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (q *Queries) ClearTaskOpenToken(ctx context.Context, accountID, taskID int64) error {
	_, err := q.db.Exec(ctx, `
		UPDATE task_opens SET open_token = NULL, open_token_expires_at = NULL
		WHERE account_id = $1 AND task_id = $2
	`, accountID, taskID)
	return err
}

func (q *Queries) HasTaskClaim(ctx context.Context, accountID, taskID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM task_claims WHERE account_id = $1 AND task_id = $2)
	`, accountID, taskID).Scan(&exists)
	return exists, err
}

// CreateTaskClaim returns ErrAlreadyExists if the pair was claimed before.
func (q *Queries) CreateTaskClaim(ctx context.Context, accountID, taskID int64, at time.Time) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO task_claims (account_id, task_id, claimed_at) VALUES ($1, $2, $3)
	`, accountID, taskID, at)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (q *Queries) ListOpenedTaskIDs(ctx context.Context, accountID int64) ([]int64, error) {
	return q.taskIDs(ctx, `SELECT task_id FROM task_opens WHERE account_id = $1`, accountID)
}

func (q *Queries) ListClaimedTaskIDs(ctx context.Context, accountID int64) ([]int64, error) {
	return q.taskIDs(ctx, `SELECT task_id FROM task_claims WHERE account_id = $1`, accountID)
}

func (q *Queries) taskIDs(ctx context.Context, sql string, accountID int64) ([]int64, error) {
	rows, err := q.db.Query(ctx, sql, accountID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
