package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(migDir, name))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
}

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	return repository.NewStore(db)
}

// uniqueTg keeps runs against a shared database apart.
func uniqueTg(offset int64) int64 {
	return time.Now().UnixNano()/1000 + offset
}

func TestStore_AccountsAndReferrals(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	inviter, created, err := store.UpsertAccount(ctx, domain.TelegramProfile{TgID: uniqueTg(0), Username: "inviter"}, 100, now)
	if err != nil || !created {
		t.Fatalf("upsert inviter: created=%v err=%v", created, err)
	}
	again, created, err := store.UpsertAccount(ctx, domain.TelegramProfile{TgID: inviter.TgID, Username: "renamed"}, 100, now)
	if err != nil || created || again.ID != inviter.ID || again.Username != "renamed" {
		t.Fatalf("second upsert: %+v created=%v err=%v", again, created, err)
	}

	invitee, _, err := store.UpsertAccount(ctx, domain.TelegramProfile{TgID: uniqueTg(1)}, 100, now)
	if err != nil {
		t.Fatalf("upsert invitee: %v", err)
	}
	if ok, err := store.BindReferrer(ctx, invitee.ID, inviter.ID); err != nil || !ok {
		t.Fatalf("bind referrer: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.BindReferrer(ctx, invitee.ID, invitee.ID); ok {
		t.Fatalf("referrer rebound")
	}
	if n, err := store.CountReferrals(ctx, inviter.ID); err != nil || n != 1 {
		t.Fatalf("count referrals: %d %v", n, err)
	}

	// a failing transaction leaves no trace
	boom := errors.New("boom")
	err = store.InTx(ctx, func(r repository.Repo) error {
		if err := r.CreditCoins(ctx, inviter.ID, 500); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v", err)
	}
	got, err := store.GetAccount(ctx, inviter.ID)
	if err != nil || got.Coins != 0 {
		t.Fatalf("rolled back credit leaked: %+v %v", got, err)
	}

	if _, err := store.GetAccount(ctx, -1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing account err = %v", err)
	}
}

func TestStore_ShotSessionSingleUse(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc, _, err := store.UpsertAccount(ctx, domain.TelegramProfile{TgID: uniqueTg(2)}, 100, now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s := &domain.ShotSession{ID: repository.NewID(), AccountID: acc.ID, ZoneCenter: 0.5, ZoneWidth: 0.2, Speed: 1, BaseStartedAt: now}
	if err := store.CreateShotSession(ctx, s); err != nil {
		t.Fatalf("create session: %v", err)
	}

	err = store.InTx(ctx, func(r repository.Repo) error {
		got, err := r.GetShotSessionForUpdate(ctx, s.ID)
		if err != nil {
			return err
		}
		if got.Used || got.AccountID != acc.ID {
			t.Fatalf("unexpected session %+v", got)
		}
		return r.MarkShotSessionUsed(ctx, s.ID)
	})
	if err != nil {
		t.Fatalf("use session: %v", err)
	}
	if err := store.MarkShotSessionUsed(ctx, s.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second use err = %v", err)
	}
}

func TestStore_PurchaseTxHashUnique(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc, _, err := store.UpsertAccount(ctx, domain.TelegramProfile{TgID: uniqueTg(3)}, 100, now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	newPurchase := func() *domain.Purchase {
		p := &domain.Purchase{
			ID:         repository.NewID(),
			AccountID:  acc.ID,
			Item:       domain.ItemBoost,
			AmountNano: 1_000_000_000,
			Receiver:   "0:01",
			Comment:    "TS-" + repository.NewID(),
			Status:     domain.PurchasePending,
		}
		if err := store.CreatePurchase(ctx, p); err != nil {
			t.Fatalf("create purchase: %v", err)
		}
		return p
	}
	first, second := newPurchase(), newPurchase()

	hash := "hash-" + first.ID
	if err := store.MarkPurchasePaid(ctx, first.ID, nil, &hash, now); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if err := store.MarkPurchasePaid(ctx, first.ID, nil, &hash, now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second mark err = %v", err)
	}
	if err := store.MarkPurchasePaid(ctx, second.ID, nil, &hash, now); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("reused hash err = %v", err)
	}
}
