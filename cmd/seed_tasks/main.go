package main

import (
	"context"
	"os"

	"ton_shooter/internal/db"
	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"
	"ton_shooter/internal/service"

	"github.com/joho/godotenv"
)

// Example subscription tasks, created only into an empty tasks table.
var seed = []service.TaskInput{
	{
		Title:                    "Подпишись на канал партнёра #1",
		Description:              "Подпишись и получи награду.",
		ChatID:                   "@example_channel_1",
		URL:                      "https://t.me/example_channel_1",
		RewardType:               domain.RewardCoins,
		RewardValue:              150_000,
		RequireSubscriptionCheck: true,
	},
	{
		Title:                    "Подпишись на канал партнёра #2",
		Description:              "Подпишись и получи кристаллы.",
		ChatID:                   "@example_channel_2",
		URL:                      "https://t.me/example_channel_2",
		RewardType:               domain.RewardCrystals,
		RewardValue:              5,
		RequireSubscriptionCheck: true,
	},
}

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	pool := db.MustConnect(dsn)
	defer pool.Close()

	ctx := context.Background()
	admin := service.NewAdminService(repository.NewStore(pool), economy.DefaultRules())

	existing, err := admin.Tasks(ctx)
	if err != nil {
		logger.Fatal("list tasks", "error", err)
	}
	if len(existing) > 0 {
		logger.Info("tasks already present, nothing to seed", "count", len(existing))
		return
	}

	for _, in := range seed {
		t, err := admin.CreateTask(ctx, in)
		if err != nil {
			logger.Fatal("create task", "title", in.Title, "error", err)
		}
		logger.Info("task seeded", "task_id", t.ID, "chat_id", t.ChatID)
	}
}
