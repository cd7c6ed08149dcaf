package domain

import "time"

type RewardType string

const (
	RewardCoins    RewardType = "COINS"
	RewardCrystals RewardType = "CRYSTALS"
)

func (r RewardType) Valid() bool {
	return r == RewardCoins || r == RewardCrystals
}

// Task is an admin-defined "do something, get a reward" unit, usually a
// channel subscription.
type Task struct {
	ID                       int64      `db:"id" json:"id"`
	Title                    string     `db:"title" json:"title"`
	Description              string     `db:"description" json:"description"`
	ChatID                   string     `db:"chat_id" json:"chatId"`
	URL                      string     `db:"url" json:"url"`
	Cap                      int        `db:"cap" json:"cap"` // 0 = unlimited
	CompletedCount           int        `db:"completed_count" json:"completedCount"`
	RewardType               RewardType `db:"reward_type" json:"rewardType"`
	RewardValue              int64      `db:"reward_value" json:"rewardValue"`
	RequireSubscriptionCheck bool       `db:"require_subscription_check" json:"requireSubscriptionCheck"`
	IsActive                 bool       `db:"is_active" json:"isActive"`
	CreatedAt                time.Time  `db:"created_at" json:"createdAt"`
}

// CapReached reports whether a capped task has no claims left.
func (t *Task) CapReached() bool {
	return t.Cap > 0 && t.CompletedCount >= t.Cap
}

// TaskOpen proves the player opened the task link before claiming.
type TaskOpen struct {
	AccountID          int64      `db:"account_id"`
	TaskID             int64      `db:"task_id"`
	OpenToken          *string    `db:"open_token"`
	OpenTokenExpiresAt *time.Time `db:"open_token_expires_at"`
	OpenedAt           time.Time  `db:"opened_at"`
}

// Accepts reports whether token is the live open token at now.
func (o *TaskOpen) Accepts(token string, now time.Time) bool {
	if o == nil || o.OpenToken == nil || *o.OpenToken != token {
		return false
	}
	return o.OpenTokenExpiresAt == nil || !o.OpenTokenExpiresAt.Before(now)
}

// TaskView is a task as listed for one player.
type TaskView struct {
	Task
	Opened  bool `json:"opened"`
	Claimed bool `json:"claimed"`
}
