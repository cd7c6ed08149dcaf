package handlers

import (
	"context"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/http/middleware"
	"ton_shooter/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// The handlers depend on these views of the services so they can be tested
// with small stubs.

type Accounts interface {
	Authenticate(ctx context.Context, initData string) (string, *domain.Account, error)
	Me(ctx context.Context, accountID int64) (*service.Profile, error)
	SetWallet(ctx context.Context, accountID int64, address string) (string, error)
	Referral(ctx context.Context, accountID int64) (*service.ReferralInfo, error)
	IsAdmin(tgID int64) bool
}

type Game interface {
	Start(ctx context.Context, accountID int64) (*service.StartResult, error)
	Fire(ctx context.Context, accountID int64, sessionID string, clientElapsed time.Duration) (*service.FireResult, error)
}

type Economy interface {
	Upgrade(ctx context.Context, accountID int64, which economy.Track) (*service.UpgradeResult, error)
	Exchange(ctx context.Context, accountID int64, dir service.Direction, amount int64) (*domain.Balances, error)
	BuyBoost(ctx context.Context, accountID int64, method string) (*service.BoostResult, error)
	Info() service.Info
}

type Tasks interface {
	List(ctx context.Context, accountID int64) ([]domain.TaskView, error)
	Open(ctx context.Context, accountID, taskID int64) (*service.OpenResult, error)
	Claim(ctx context.Context, accountID, taskID int64, openToken string) (*service.ClaimResult, error)
}

type Purchases interface {
	Intent(ctx context.Context, accountID int64, kind domain.PurchaseKind) (*service.IntentResult, error)
	Confirm(ctx context.Context, accountID int64, purchaseID string) (*service.ConfirmResult, error)
	Mock(ctx context.Context, accountID int64, kind domain.PurchaseKind) (*service.ConfirmResult, error)
}

type Withdrawals interface {
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal, address string) (*service.WithdrawResult, error)
	History(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error)
}

type Admin interface {
	FillEnergy(ctx context.Context, accountID, byTg int64) (int, error)
	Grant(ctx context.Context, selfID, byTg int64, g service.Grant) (*domain.Account, error)
	Tasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, in service.TaskInput) (*domain.Task, error)
	SetTaskActive(ctx context.Context, id int64, active bool) error
}

type Handler struct {
	Accounts    Accounts
	Game        Game
	Economy     Economy
	Tasks       Tasks
	Purchases   Purchases
	Withdrawals Withdrawals
	Admin       Admin
}

// getAccountID извлекает id аккаунта из контекста Gin (ставит middleware.JWT)
func getAccountID(c *gin.Context) (int64, bool) {
	id := c.GetInt64(middleware.KeyAccountID)
	return id, id > 0
}

func getTgID(c *gin.Context) int64 {
	return c.GetInt64(middleware.KeyTgID)
}

// authed runs fn for an authenticated account or answers 401.
func authed(c *gin.Context, fn func(accountID int64)) {
	id, ok := getAccountID(c)
	if !ok {
		respondError(c, errUnauthorized)
		return
	}
	fn(id)
}
