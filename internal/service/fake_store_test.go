package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/repository"
)

type pair struct{ a, b int64 }

type fakeState struct {
	nextAccount int64
	nextTask    int64
	accounts    map[int64]domain.Account
	sessions    map[string]domain.ShotSession
	tasks       map[int64]domain.Task
	opens       map[pair]domain.TaskOpen
	claims      map[pair]time.Time
	purchases   map[string]domain.Purchase
	withdrawals []domain.Withdrawal
	actions     []domain.ActionLog
}

func (s *fakeState) clone() fakeState {
	c := *s
	c.accounts = make(map[int64]domain.Account, len(s.accounts))
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.sessions = make(map[string]domain.ShotSession, len(s.sessions))
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	c.tasks = make(map[int64]domain.Task, len(s.tasks))
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	c.opens = make(map[pair]domain.TaskOpen, len(s.opens))
	for k, v := range s.opens {
		c.opens[k] = v
	}
	c.claims = make(map[pair]time.Time, len(s.claims))
	for k, v := range s.claims {
		c.claims[k] = v
	}
	c.purchases = make(map[string]domain.Purchase, len(s.purchases))
	for k, v := range s.purchases {
		c.purchases[k] = v
	}
	c.withdrawals = append([]domain.Withdrawal(nil), s.withdrawals...)
	c.actions = append([]domain.ActionLog(nil), s.actions...)
	return c
}

// fakeStore is an in-memory Store. InTx serializes transactions and restores
// the previous state when fn fails, like a rollback.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   fakeState
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{st: fakeState{
		accounts:  map[int64]domain.Account{},
		sessions:  map[string]domain.ShotSession{},
		tasks:     map[int64]domain.Task{},
		opens:     map[pair]domain.TaskOpen{},
		claims:    map[pair]time.Time{},
		purchases: map[string]domain.Purchase{},
	}}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(repository.Repo) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	snapshot := f.st.clone()
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.st = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

// addAccount inserts a fully specified account, assigning the next id.
func (f *fakeStore) addAccount(a domain.Account) *domain.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.nextAccount++
	a.ID = f.st.nextAccount
	if a.WeaponLevel == 0 {
		a.WeaponLevel = 1
	}
	if a.RangeLevel == 0 {
		a.RangeLevel = 1
	}
	f.st.accounts[a.ID] = a
	return &a
}

func (f *fakeStore) account(id int64) domain.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st.accounts[id]
}

func (f *fakeStore) actionsOf(id int64, typ domain.ActionType) []domain.ActionLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ActionLog
	for _, a := range f.st.actions {
		if a.AccountID == id && a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeStore) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.st.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f *fakeStore) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	return f.GetAccount(ctx, id)
}

func (f *fakeStore) GetAccountByTgID(ctx context.Context, tgID int64) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.st.accounts {
		if a.TgID == tgID {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UpsertAccount(ctx context.Context, p domain.TelegramProfile, energy int, now time.Time) (*domain.Account, bool, error) {
	if a, err := f.GetAccountByTgID(ctx, p.TgID); err == nil {
		f.mu.Lock()
		a.Username, a.FirstName, a.LastName = p.Username, p.FirstName, p.LastName
		f.st.accounts[a.ID] = *a
		f.mu.Unlock()
		return a, false, nil
	}
	a := f.addAccount(domain.Account{
		TgID:            p.TgID,
		Username:        p.Username,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Energy:          energy,
		EnergyUpdatedAt: now,
		CreatedAt:       now,
	})
	return a, true, nil
}

func (f *fakeStore) BindReferrer(ctx context.Context, accountID, referrerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.st.accounts[accountID]
	if !ok || a.ReferrerID != nil || accountID == referrerID {
		return false, nil
	}
	a.ReferrerID = &referrerID
	f.st.accounts[accountID] = a
	return true, nil
}

func (f *fakeStore) SaveAccount(ctx context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.st.accounts[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *a
	next.SuspicionScore = cur.SuspicionScore
	next.IsBotBlocked = cur.IsBotBlocked
	next.ReferrerID = cur.ReferrerID
	next.TgID = cur.TgID
	next.CreatedAt = cur.CreatedAt
	f.st.accounts[a.ID] = next
	return nil
}

func (f *fakeStore) AddSuspicion(ctx context.Context, accountID int64, blockAt int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.st.accounts[accountID]
	if !ok {
		return 0, false, repository.ErrNotFound
	}
	a.SuspicionScore++
	if blockAt > 0 && a.SuspicionScore >= blockAt {
		a.IsBotBlocked = true
	}
	f.st.accounts[accountID] = a
	return a.SuspicionScore, a.IsBotBlocked, nil
}

func (f *fakeStore) ResetAntibot(ctx context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.st.accounts[accountID]
	a.SuspicionScore = 0
	a.IsBotBlocked = false
	f.st.accounts[accountID] = a
	return nil
}

func (f *fakeStore) CreditCoins(ctx context.Context, accountID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.st.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	a.Coins += amount
	f.st.accounts[accountID] = a
	return nil
}

func (f *fakeStore) countReferrals(referrerID int64, keep func(domain.Account) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.st.accounts {
		if a.ReferrerID != nil && *a.ReferrerID == referrerID && keep(a) {
			n++
		}
	}
	return n
}

func (f *fakeStore) CountReferrals(ctx context.Context, referrerID int64) (int, error) {
	return f.countReferrals(referrerID, func(domain.Account) bool { return true }), nil
}

func (f *fakeStore) CountActiveReferrals(ctx context.Context, referrerID int64) (int, error) {
	return f.countReferrals(referrerID, func(a domain.Account) bool { return a.ReferralRewardedAt != nil }), nil
}

func (f *fakeStore) CountReferralRewardsSince(ctx context.Context, referrerID int64, since time.Time) (int, error) {
	return f.countReferrals(referrerID, func(a domain.Account) bool {
		return a.ReferralRewardedAt != nil && !a.ReferralRewardedAt.Before(since)
	}), nil
}

func (f *fakeStore) CreateShotSession(ctx context.Context, s *domain.ShotSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.sessions[s.ID] = *s
	return nil
}

func (f *fakeStore) GetShotSessionForUpdate(ctx context.Context, id string) (*domain.ShotSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.st.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStore) MarkShotSessionUsed(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.st.sessions[id]
	if !ok || s.Used {
		return repository.ErrNotFound
	}
	s.Used = true
	f.st.sessions[id] = s
	return nil
}

func (f *fakeStore) ListTasks(ctx context.Context, activeOnly bool, limit int) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, t := range f.st.tasks {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.st.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (f *fakeStore) GetTaskForUpdate(ctx context.Context, id int64) (*domain.Task, error) {
	return f.GetTask(ctx, id)
}

func (f *fakeStore) CreateTask(ctx context.Context, t *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.nextTask++
	t.ID = f.st.nextTask
	t.CreatedAt = time.Now()
	f.st.tasks[t.ID] = *t
	return nil
}

func (f *fakeStore) SetTaskActive(ctx context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.st.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsActive = active
	f.st.tasks[id] = t
	return nil
}

func (f *fakeStore) IncrementTaskCompleted(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.st.tasks[id]
	t.CompletedCount++
	if t.Cap > 0 && t.CompletedCount >= t.Cap {
		t.IsActive = false
	}
	f.st.tasks[id] = t
	return nil
}

func (f *fakeStore) UpsertTaskOpen(ctx context.Context, o *domain.TaskOpen) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.opens[pair{o.AccountID, o.TaskID}] = *o
	return nil
}

func (f *fakeStore) GetTaskOpen(ctx context.Context, accountID, taskID int64) (*domain.TaskOpen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.st.opens[pair{accountID, taskID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeStore) ClearTaskOpenToken(ctx context.Context, accountID, taskID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := pair{accountID, taskID}
	if o, ok := f.st.opens[k]; ok {
		o.OpenToken = nil
		o.OpenTokenExpiresAt = nil
		f.st.opens[k] = o
	}
	return nil
}

func (f *fakeStore) HasTaskClaim(ctx context.Context, accountID, taskID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.st.claims[pair{accountID, taskID}]
	return ok, nil
}

func (f *fakeStore) CreateTaskClaim(ctx context.Context, accountID, taskID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := pair{accountID, taskID}
	if _, ok := f.st.claims[k]; ok {
		return repository.ErrAlreadyExists
	}
	f.st.claims[k] = at
	return nil
}

func (f *fakeStore) ListOpenedTaskIDs(ctx context.Context, accountID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for k := range f.st.opens {
		if k.a == accountID {
			ids = append(ids, k.b)
		}
	}
	return ids, nil
}

func (f *fakeStore) ListClaimedTaskIDs(ctx context.Context, accountID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for k := range f.st.claims {
		if k.a == accountID {
			ids = append(ids, k.b)
		}
	}
	return ids, nil
}

func (f *fakeStore) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.st.purchases {
		if other.Comment == p.Comment {
			return repository.ErrAlreadyExists
		}
	}
	p.CreatedAt = time.Now()
	f.st.purchases[p.ID] = *p
	return nil
}

func (f *fakeStore) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.st.purchases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) GetPurchaseForUpdate(ctx context.Context, id string) (*domain.Purchase, error) {
	return f.GetPurchase(ctx, id)
}

func (f *fakeStore) MarkPurchasePaid(ctx context.Context, id string, sender, txHash *string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.st.purchases[id]
	if !ok || p.Status != domain.PurchasePending {
		return repository.ErrNotFound
	}
	if txHash != nil {
		for _, other := range f.st.purchases {
			if other.TxHash != nil && *other.TxHash == *txHash {
				return repository.ErrAlreadyExists
			}
		}
	}
	p.Status = domain.PurchasePaid
	p.Sender, p.TxHash, p.PaidAt = sender, txHash, &at
	f.st.purchases[id] = p
	return nil
}

func (f *fakeStore) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.withdrawals = append(f.st.withdrawals, *w)
	return nil
}

func (f *fakeStore) ListWithdrawals(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Withdrawal
	for i := len(f.st.withdrawals) - 1; i >= 0; i-- {
		if f.st.withdrawals[i].AccountID == accountID {
			out = append(out, f.st.withdrawals[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) LogAction(ctx context.Context, accountID int64, typ domain.ActionType, meta map[string]any, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.actions = append(f.st.actions, domain.ActionLog{
		ID:        int64(len(f.st.actions) + 1),
		AccountID: accountID,
		Type:      typ,
		Meta:      meta,
		CreatedAt: at,
	})
	return nil
}

func (f *fakeStore) LastActionAt(ctx context.Context, accountID int64) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *time.Time
	for i := range f.st.actions {
		a := f.st.actions[i]
		if a.AccountID == accountID && (last == nil || a.CreatedAt.After(*last)) {
			t := a.CreatedAt
			last = &t
		}
	}
	return last, nil
}
