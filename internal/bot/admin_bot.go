package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminOps is the part of service.AdminService the bot drives.
type AdminOps interface {
	Tasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, in service.TaskInput) (*domain.Task, error)
	ToggleTask(ctx context.Context, id int64) (bool, error)
	UserByTgID(ctx context.Context, tgID int64) (*domain.Account, error)
	Unblock(ctx context.Context, tgID int64) error
}

// AdminBot handles admin commands via Telegram
type AdminBot struct {
	bot      *tgbotapi.BotAPI
	admin    AdminOps
	adminIDs []int64 // Telegram user IDs who can use admin commands
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

// NewAdminBot creates a new admin bot
func NewAdminBot(token string, admin AdminOps, adminIDs []int64) (*AdminBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", bot.Self.UserName)

	return &AdminBot{
		bot:      bot,
		admin:    admin,
		adminIDs: adminIDs,
		stopCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start starts listening for commands
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() || update.Message.From == nil {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	// Wait for pending handlers with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response := b.respond(ctx, msg.From.ID, msg.Command(), msg.CommandArguments())

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// respond builds the reply text for one command.
func (b *AdminBot) respond(ctx context.Context, fromID int64, command, args string) string {
	if command == "start" || command == "help" {
		return helpMessage
	}
	if !b.isAdmin(fromID) {
		return "⛔️ Нет прав."
	}

	switch command {
	case "task_list":
		return b.handleTaskList(ctx)
	case "task_add":
		return b.handleTaskAdd(ctx, args)
	case "task_toggle":
		return b.handleTaskToggle(ctx, args)
	case "user":
		return b.handleUser(ctx, args)
	case "unblock":
		return b.handleUnblock(ctx, args)
	default:
		return "❌ Неизвестная команда. Используйте /help для списка команд."
	}
}

const helpMessage = `<b>🤖 Админ-бот TON Shooter</b>

<b>📋 Задания:</b>
/task_list - Список заданий
/task_add title | @channel | COINS|CRYSTALS | value | description [| cap] - Создать задание
/task_toggle &lt;id&gt; - Включить/выключить

<b>👤 Пользователи:</b>
/user &lt;tg_id&gt; - Информация о пользователе
/unblock &lt;tg_id&gt; - Снять антибот-блокировку`

func (b *AdminBot) handleTaskList(ctx context.Context) string {
	tasks, err := b.admin.Tasks(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if len(tasks) == 0 {
		return "Заданий нет."
	}
	if len(tasks) > 30 {
		tasks = tasks[:30]
	}

	var sb strings.Builder
	for _, t := range tasks {
		status := "✅"
		if !t.IsActive {
			status = "⛔️"
		}
		limit := "∞"
		if t.Cap > 0 {
			limit = strconv.Itoa(t.Cap)
		}
		fmt.Fprintf(&sb, "• <b>#%d</b> %s %s\n  chat: %s\n  reward: %s %d\n  done: %d/%s\n\n",
			t.ID, status, html.EscapeString(t.Title), html.EscapeString(t.ChatID),
			t.RewardType, t.RewardValue, t.CompletedCount, limit)
	}
	return sb.String()
}

const taskAddUsage = "❌ Формат:\n/task_add title | @channel | COINS|CRYSTALS | value | description [| cap]"

const defaultTaskCap = 1000

var numericChat = regexp.MustCompile(`^-?[0-9]+$`)

// parseTaskAdd разбирает аргументы /task_add
func parseTaskAdd(args string) (service.TaskInput, error) {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 5 {
		return service.TaskInput{}, errors.New(taskAddUsage)
	}

	in := service.TaskInput{
		Title:                    parts[0],
		ChatID:                   parts[1],
		RewardType:               domain.RewardCoins,
		Description:              parts[4],
		Cap:                      defaultTaskCap,
		RequireSubscriptionCheck: true,
	}
	if strings.EqualFold(parts[2], string(domain.RewardCrystals)) {
		in.RewardType = domain.RewardCrystals
	}

	switch {
	case strings.HasPrefix(in.ChatID, "@"):
		in.URL = "https://t.me/" + in.ChatID[1:]
	case numericChat.MatchString(in.ChatID):
		in.URL = "https://t.me/c/" + strings.TrimPrefix(strings.TrimPrefix(in.ChatID, "-100"), "-")
	default:
		return service.TaskInput{}, errors.New("❌ chat должен быть @channelusername или числовой id")
	}

	value, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || value <= 0 {
		return service.TaskInput{}, errors.New("❌ value должен быть > 0")
	}
	in.RewardValue = value

	if len(parts) > 5 && parts[5] != "" {
		limit, err := strconv.Atoi(parts[5])
		if err != nil || limit < 0 {
			return service.TaskInput{}, errors.New("❌ cap должен быть числом ≥ 0")
		}
		in.Cap = limit
	}
	return in, nil
}

func (b *AdminBot) handleTaskAdd(ctx context.Context, args string) string {
	in, err := parseTaskAdd(args)
	if err != nil {
		return err.Error()
	}
	task, err := b.admin.CreateTask(ctx, in)
	if errors.Is(err, service.ErrInvalidInput) {
		return taskAddUsage
	}
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Создано: #%d", task.ID)
}

func parseID(args string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	return id, err == nil && id > 0
}

func (b *AdminBot) handleTaskToggle(ctx context.Context, args string) string {
	id, ok := parseID(args)
	if !ok {
		return "❌ Использование: /task_toggle <id>"
	}
	active, err := b.admin.ToggleTask(ctx, id)
	if errors.Is(err, service.ErrTaskNotFound) {
		return "❌ Не найдено."
	}
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if active {
		return "Теперь: ✅ active"
	}
	return "Теперь: ⛔️ inactive"
}

func (b *AdminBot) handleUser(ctx context.Context, args string) string {
	tgID, ok := parseID(args)
	if !ok {
		return "❌ Использование: /user <tg_id>"
	}
	user, err := b.admin.UserByTgID(ctx, tgID)
	if errors.Is(err, service.ErrAccountNotFound) {
		return "❌ Пользователь не найден"
	}
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	blocked := "нет"
	if user.IsBotBlocked {
		blocked = "да"
	}
	return fmt.Sprintf(`<b>👤 Информация о пользователе</b>

• ID: %d
• Telegram ID: %d
• Username: @%s
• Имя: %s
• 🪙 Коины: %d
• 💎 Кристаллы: %d
• TON: %s
• 🔫 Оружие/дальность: %d/%d
• ⚡️ Энергия: %d
• 🎯 Выстрелов/попаданий: %d/%d
• 🤖 Подозрение: %d (блок: %s)
• 📅 Регистрация: %s`,
		user.ID,
		user.TgID,
		html.EscapeString(user.Username),
		html.EscapeString(user.FirstName),
		user.Coins,
		user.Crystals,
		user.TonBalance.String(),
		user.WeaponLevel, user.RangeLevel,
		user.Energy,
		user.ShotsCount, user.HitsCount,
		user.SuspicionScore, blocked,
		user.CreatedAt.Format("02.01.2006 15:04"),
	)
}

func (b *AdminBot) handleUnblock(ctx context.Context, args string) string {
	tgID, ok := parseID(args)
	if !ok {
		return "❌ Использование: /unblock <tg_id>"
	}
	err := b.admin.Unblock(ctx, tgID)
	if errors.Is(err, service.ErrAccountNotFound) {
		return "❌ Пользователь не найден"
	}
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Пользователь %d разблокирован", tgID)
}

// NotifyAdminsNewWithdrawal notifies all admins about a new withdrawal request
func (b *AdminBot) NotifyAdminsNewWithdrawal(w domain.Withdrawal) {
	message := fmt.Sprintf(`🔔 <b>Новый запрос на вывод!</b>

👤 Аккаунт: %d
💰 Сумма: %s TON (комиссия %s)
💳 Кошелек: <code>%s</code>

ID: <code>%s</code>`,
		w.AccountID, w.AmountTon.String(), w.FeeTon.String(), html.EscapeString(w.Address), w.ID)

	for _, adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = "HTML"
		if _, err := b.bot.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}
