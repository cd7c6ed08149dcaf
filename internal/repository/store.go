package repository

import (
	"context"
	"errors"
	"time"

	"ton_shooter/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo is every query the game needs. The ForUpdate variants lock the row and
// are only meaningful inside InTx.
type Repo interface {
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByTgID(ctx context.Context, tgID int64) (*domain.Account, error)
	UpsertAccount(ctx context.Context, p domain.TelegramProfile, energy int, now time.Time) (*domain.Account, bool, error)
	BindReferrer(ctx context.Context, accountID, referrerID int64) (bool, error)
	SaveAccount(ctx context.Context, a *domain.Account) error
	AddSuspicion(ctx context.Context, accountID int64, blockAt int) (int, bool, error)
	ResetAntibot(ctx context.Context, accountID int64) error
	CreditCoins(ctx context.Context, accountID, amount int64) error
	CountReferrals(ctx context.Context, referrerID int64) (int, error)
	CountActiveReferrals(ctx context.Context, referrerID int64) (int, error)
	CountReferralRewardsSince(ctx context.Context, referrerID int64, since time.Time) (int, error)

	CreateShotSession(ctx context.Context, s *domain.ShotSession) error
	GetShotSessionForUpdate(ctx context.Context, id string) (*domain.ShotSession, error)
	MarkShotSessionUsed(ctx context.Context, id string) error

	ListTasks(ctx context.Context, activeOnly bool, limit int) ([]domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	GetTaskForUpdate(ctx context.Context, id int64) (*domain.Task, error)
	CreateTask(ctx context.Context, t *domain.Task) error
	SetTaskActive(ctx context.Context, id int64, active bool) error
	IncrementTaskCompleted(ctx context.Context, id int64) error
	UpsertTaskOpen(ctx context.Context, o *domain.TaskOpen) error
	GetTaskOpen(ctx context.Context, accountID, taskID int64) (*domain.TaskOpen, error)
	ClearTaskOpenToken(ctx context.Context, accountID, taskID int64) error
	HasTaskClaim(ctx context.Context, accountID, taskID int64) (bool, error)
	CreateTaskClaim(ctx context.Context, accountID, taskID int64, at time.Time) error
	ListOpenedTaskIDs(ctx context.Context, accountID int64) ([]int64, error)
	ListClaimedTaskIDs(ctx context.Context, accountID int64) ([]int64, error)

	CreatePurchase(ctx context.Context, p *domain.Purchase) error
	GetPurchase(ctx context.Context, id string) (*domain.Purchase, error)
	GetPurchaseForUpdate(ctx context.Context, id string) (*domain.Purchase, error)
	MarkPurchasePaid(ctx context.Context, id string, sender, txHash *string, at time.Time) error

	CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	ListWithdrawals(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error)

	LogAction(ctx context.Context, accountID int64, typ domain.ActionType, meta map[string]any, at time.Time) error
	LastActionAt(ctx context.Context, accountID int64) (*time.Time, error)
}

// Queries implements Repo on top of a pool or a transaction.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// Store owns the pool and runs transactions.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: NewQueries(pool), pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// InTx runs fn in a single transaction. Any error from fn rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(Repo) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewQueries(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
