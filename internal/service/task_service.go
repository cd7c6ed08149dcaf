package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"

	"github.com/google/uuid"
)

// MembershipChecker answers whether a Telegram user is in a chat. A false
// result with nil error means "not a member"; errors are transient.
type MembershipChecker interface {
	IsMember(ctx context.Context, chatID string, tgUserID int64) (bool, error)
}

type TaskService struct {
	store   Store
	guard   *Guard
	members MembershipChecker
	rules   economy.Rules
	now     Clock
	log     *slog.Logger
}

func NewTaskService(store Store, guard *Guard, members MembershipChecker, rules economy.Rules) *TaskService {
	return &TaskService{store: store, guard: guard, members: members, rules: rules, now: systemClock, log: logger.With("component", "tasks")}
}

type OpenResult struct {
	TaskID    int64     `json:"taskId"`
	OpenToken string    `json:"openToken"`
	ExpiresAt time.Time `json:"expiresAt"`
	URL       string    `json:"url"`
}

type ClaimResult struct {
	TaskID      int64             `json:"taskId"`
	RewardType  domain.RewardType `json:"rewardType"`
	RewardValue int64             `json:"rewardValue"`
	Balances    domain.Balances   `json:"balances"`
}

// List returns active tasks, newest first, with the caller's progress.
func (s *TaskService) List(ctx context.Context, accountID int64) ([]domain.TaskView, error) {
	tasks, err := s.store.ListTasks(ctx, true, 0)
	if err != nil {
		return nil, err
	}
	opened, err := s.store.ListOpenedTaskIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	claimed, err := s.store.ListClaimedTaskIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}

	openedSet := make(map[int64]bool, len(opened))
	for _, id := range opened {
		openedSet[id] = true
	}
	claimedSet := make(map[int64]bool, len(claimed))
	for _, id := range claimed {
		claimedSet[id] = true
	}

	views := make([]domain.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, domain.TaskView{Task: t, Opened: openedSet[t.ID], Claimed: claimedSet[t.ID]})
	}
	return views, nil
}

func (s *TaskService) getTask(ctx context.Context, r repository.Repo, taskID int64, forUpdate bool) (*domain.Task, error) {
	var t *domain.Task
	var err error
	if forUpdate {
		t, err = r.GetTaskForUpdate(ctx, taskID)
	} else {
		t, err = r.GetTask(ctx, taskID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Open issues a fresh single-use token. Opening again replaces the old one.
func (s *TaskService) Open(ctx context.Context, accountID, taskID int64) (*OpenResult, error) {
	t, err := s.getTask(ctx, s.store, taskID, false)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTaskNotFound
	}

	now := s.now()
	token := uuid.NewString()
	expires := now.Add(s.rules.TaskOpenTTL)
	if err := s.store.UpsertTaskOpen(ctx, &domain.TaskOpen{
		AccountID:          accountID,
		TaskID:             taskID,
		OpenToken:          &token,
		OpenTokenExpiresAt: &expires,
		OpenedAt:           now,
	}); err != nil {
		return nil, err
	}
	return &OpenResult{TaskID: taskID, OpenToken: token, ExpiresAt: expires, URL: t.URL}, nil
}

// Claim pays a task reward once per account. The membership check runs before
// the transaction; everything else is re-checked under the task lock.
func (s *TaskService) Claim(ctx context.Context, accountID, taskID int64, openToken string) (*ClaimResult, error) {
	acc, err := s.guard.Check(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t, err := s.getTask(ctx, s.store, taskID, false)
	if err != nil {
		return nil, err
	}
	claimed, err := s.store.HasTaskClaim(ctx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, ErrAlreadyClaimed
	}
	if t.CapReached() {
		return nil, ErrTaskLimitReached
	}
	if !t.IsActive {
		return nil, ErrTaskNotFound
	}
	if err := checkOpen(ctx, s.store, accountID, taskID, openToken, now); err != nil {
		return nil, err
	}

	if t.RequireSubscriptionCheck && s.members != nil {
		ok, err := s.members.IsMember(ctx, t.ChatID, acc.TgID)
		if err != nil {
			s.log.Warn("membership check failed", "task_id", taskID, "chat", t.ChatID, "error", err)
			return nil, ErrMembershipCheckFailed
		}
		if !ok {
			return nil, ErrNotSubscribed
		}
	}

	var res *ClaimResult
	err = s.store.InTx(ctx, func(r repository.Repo) error {
		t, err := s.getTask(ctx, r, taskID, true)
		if err != nil {
			return err
		}
		claimed, err := r.HasTaskClaim(ctx, accountID, taskID)
		if err != nil {
			return err
		}
		if claimed {
			return ErrAlreadyClaimed
		}
		if t.CapReached() {
			return ErrTaskLimitReached
		}
		if !t.IsActive {
			return ErrTaskNotFound
		}
		if err := checkOpen(ctx, r, accountID, taskID, openToken, now); err != nil {
			return err
		}

		if err := r.CreateTaskClaim(ctx, accountID, taskID, now); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyClaimed
			}
			return err
		}
		if err := r.IncrementTaskCompleted(ctx, taskID); err != nil {
			return err
		}
		if err := r.ClearTaskOpenToken(ctx, accountID, taskID); err != nil {
			return err
		}

		acc, err := loadAccount(ctx, r, accountID, true)
		if err != nil {
			return err
		}
		switch t.RewardType {
		case domain.RewardCrystals:
			acc.Crystals += t.RewardValue
		default:
			acc.Coins += t.RewardValue
		}
		if err := r.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := r.LogAction(ctx, accountID, domain.ActionTaskClaim, map[string]any{
			"taskId":      taskID,
			"rewardType":  string(t.RewardType),
			"rewardValue": t.RewardValue,
		}, now); err != nil {
			return err
		}

		res = &ClaimResult{TaskID: taskID, RewardType: t.RewardType, RewardValue: t.RewardValue, Balances: acc.Balances()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	TaskClaims.Inc()
	return res, nil
}

func checkOpen(ctx context.Context, r repository.Repo, accountID, taskID int64, token string, now time.Time) error {
	o, err := r.GetTaskOpen(ctx, accountID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNeedOpenFirst
	}
	if err != nil {
		return err
	}
	if !o.Accepts(token, now) {
		return ErrNeedOpenFirst
	}
	return nil
}
