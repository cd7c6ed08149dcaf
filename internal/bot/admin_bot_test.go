package bot

import (
	"context"
	"strings"
	"testing"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/service"
)

func TestParseTaskAdd(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		wantErr bool
		check   func(in service.TaskInput) bool
	}{
		{
			name: "channel username",
			args: "Подпишись | @ton_news | COINS | 5000 | Новости проекта",
			check: func(in service.TaskInput) bool {
				return in.Title == "Подпишись" && in.URL == "https://t.me/ton_news" &&
					in.RewardType == domain.RewardCoins && in.RewardValue == 5000 &&
					in.Cap == defaultTaskCap && in.RequireSubscriptionCheck
			},
		},
		{
			name: "numeric chat with crystals and cap",
			args: "Группа | -1001234567 | crystals | 3 | Чат | 0",
			check: func(in service.TaskInput) bool {
				return in.URL == "https://t.me/c/1234567" && in.RewardType == domain.RewardCrystals && in.Cap == 0
			},
		},
		{name: "too few parts", args: "title | @chat | COINS | 5", wantErr: true},
		{name: "bad chat", args: "t | chat | COINS | 5 | d", wantErr: true},
		{name: "zero value", args: "t | @chat | COINS | 0 | d", wantErr: true},
		{name: "negative cap", args: "t | @chat | COINS | 5 | d | -2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := parseTaskAdd(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTaskAdd: %v", err)
			}
			if !tt.check(in) {
				t.Fatalf("unexpected input %+v", in)
			}
		})
	}
}

type fakeAdmin struct {
	tasks     map[int64]*domain.Task
	unblocked []int64
}

func (f *fakeAdmin) Tasks(ctx context.Context) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeAdmin) CreateTask(ctx context.Context, in service.TaskInput) (*domain.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := &domain.Task{ID: int64(len(f.tasks) + 1), Title: in.Title, ChatID: in.ChatID, IsActive: true}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeAdmin) ToggleTask(ctx context.Context, id int64) (bool, error) {
	t, ok := f.tasks[id]
	if !ok {
		return false, service.ErrTaskNotFound
	}
	t.IsActive = !t.IsActive
	return t.IsActive, nil
}

func (f *fakeAdmin) UserByTgID(ctx context.Context, tgID int64) (*domain.Account, error) {
	if tgID != 42 {
		return nil, service.ErrAccountNotFound
	}
	return &domain.Account{ID: 1, TgID: 42, Username: "sniper", IsBotBlocked: true}, nil
}

func (f *fakeAdmin) Unblock(ctx context.Context, tgID int64) error {
	if tgID != 42 {
		return service.ErrAccountNotFound
	}
	f.unblocked = append(f.unblocked, tgID)
	return nil
}

func TestRespond(t *testing.T) {
	admin := &fakeAdmin{tasks: map[int64]*domain.Task{}}
	b := &AdminBot{admin: admin, adminIDs: []int64{1}}
	ctx := context.Background()

	if got := b.respond(ctx, 2, "task_list", ""); !strings.Contains(got, "Нет прав") {
		t.Fatalf("non-admin got %q", got)
	}
	if got := b.respond(ctx, 2, "help", ""); got != helpMessage {
		t.Fatalf("help is public, got %q", got)
	}

	if got := b.respond(ctx, 1, "task_list", ""); got != "Заданий нет." {
		t.Fatalf("empty list: %q", got)
	}
	if got := b.respond(ctx, 1, "task_add", "Канал | @ton_news | COINS | 100 | Подпишись"); !strings.Contains(got, "#1") {
		t.Fatalf("task_add: %q", got)
	}
	if got := b.respond(ctx, 1, "task_list", ""); !strings.Contains(got, "#1") || !strings.Contains(got, "@ton_news") {
		t.Fatalf("task_list: %q", got)
	}
	if got := b.respond(ctx, 1, "task_toggle", "1"); !strings.Contains(got, "inactive") {
		t.Fatalf("task_toggle: %q", got)
	}
	if got := b.respond(ctx, 1, "task_toggle", "9"); !strings.Contains(got, "Не найдено") {
		t.Fatalf("task_toggle unknown: %q", got)
	}

	if got := b.respond(ctx, 1, "user", "42"); !strings.Contains(got, "@sniper") || !strings.Contains(got, "блок: да") {
		t.Fatalf("user: %q", got)
	}
	if got := b.respond(ctx, 1, "unblock", "42"); !strings.Contains(got, "разблокирован") || len(admin.unblocked) != 1 {
		t.Fatalf("unblock: %q", got)
	}
	if got := b.respond(ctx, 1, "unblock", "abc"); !strings.Contains(got, "Использование") {
		t.Fatalf("unblock usage: %q", got)
	}
	if got := b.respond(ctx, 1, "ban", "42"); !strings.Contains(got, "Неизвестная команда") {
		t.Fatalf("unknown command: %q", got)
	}
}
