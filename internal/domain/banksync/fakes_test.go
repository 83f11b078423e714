package banksync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"finboard/internal/domain/account"
	"finboard/internal/domain/institution"
	"finboard/internal/domain/transaction"
	"finboard/internal/infrastructure/plaid"
)

// MockClient implements plaid.ClientInterface
type MockClient struct {
	CreateLinkTokenFunc           func(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicTokenFunc       func(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error)
	GetAccountsFunc               func(ctx context.Context, accessToken string) ([]plaid.Account, error)
	SyncTransactionsFunc          func(ctx context.Context, accessToken, cursor string) (*plaid.SyncPage, error)
	RemoveItemFunc                func(ctx context.Context, accessToken string) error
	GetInvestmentHoldingsFunc     func(ctx context.Context, accessToken string) (*plaid.HoldingsResponse, error)
	GetInvestmentTransactionsFunc func(ctx context.Context, accessToken string, start, end time.Time) (*plaid.InvestmentTransactionsResponse, error)
}

func (m *MockClient) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	return m.CreateLinkTokenFunc(ctx, clientUserID)
}
func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
	return m.ExchangePublicTokenFunc(ctx, publicToken)
}
func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error) {
	return m.GetAccountsFunc(ctx, accessToken)
}
func (m *MockClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*plaid.SyncPage, error) {
	return m.SyncTransactionsFunc(ctx, accessToken, cursor)
}
func (m *MockClient) RemoveItem(ctx context.Context, accessToken string) error {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, accessToken)
	}
	return nil
}
func (m *MockClient) GetInvestmentHoldings(ctx context.Context, accessToken string) (*plaid.HoldingsResponse, error) {
	return m.GetInvestmentHoldingsFunc(ctx, accessToken)
}
func (m *MockClient) GetInvestmentTransactions(ctx context.Context, accessToken string, start, end time.Time) (*plaid.InvestmentTransactionsResponse, error) {
	return m.GetInvestmentTransactionsFunc(ctx, accessToken, start, end)
}

// ledger is an in-memory store shared by the repository fakes below.
// Transactions are keyed by external transaction id.
type ledger struct {
	mu           sync.Mutex
	institutions map[string]*institution.Institution
	accounts     map[string]*account.Account
	transactions map[string]*transaction.Transaction

	failUpsertFor string
}

func newLedger() *ledger {
	return &ledger{
		institutions: make(map[string]*institution.Institution),
		accounts:     make(map[string]*account.Account),
		transactions: make(map[string]*transaction.Transaction),
	}
}

func (l *ledger) addInstitution(id string, userID int64, cursor *string) {
	l.institutions[id] = &institution.Institution{
		ID:              id,
		UserID:          userID,
		AccessToken:     "access-" + id,
		ItemID:          "item-" + id,
		InstitutionName: "Bank " + id,
		Cursor:          cursor,
	}
}

func (l *ledger) addAccount(id, institutionID string, userID int64, externalID string) {
	l.accounts[id] = &account.Account{
		ID:            id,
		InstitutionID: institutionID,
		UserID:        userID,
		AccountID:     externalID,
		Type:          account.TypeDepository,
	}
}

func (l *ledger) cursor(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.institutions[id].CursorValue()
}

func (l *ledger) txn(externalID string) (transaction.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.transactions[externalID]
	if !ok {
		return transaction.Transaction{}, false
	}
	return *t, true
}

func (l *ledger) txnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.transactions)
}

type snapshot struct {
	institutions map[string]institution.Institution
	accounts     map[string]account.Account
	transactions map[string]transaction.Transaction
}

func (l *ledger) snapshot() snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := snapshot{
		institutions: make(map[string]institution.Institution),
		accounts:     make(map[string]account.Account),
		transactions: make(map[string]transaction.Transaction),
	}
	for k, v := range l.institutions {
		s.institutions[k] = *v
	}
	for k, v := range l.accounts {
		s.accounts[k] = *v
	}
	for k, v := range l.transactions {
		s.transactions[k] = *v
	}
	return s
}

func (l *ledger) restore(s snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.institutions = make(map[string]*institution.Institution)
	for k, v := range s.institutions {
		l.institutions[k] = &v
	}
	l.accounts = make(map[string]*account.Account)
	for k, v := range s.accounts {
		l.accounts[k] = &v
	}
	l.transactions = make(map[string]*transaction.Transaction)
	for k, v := range s.transactions {
		l.transactions[k] = &v
	}
}

// fakeTx rolls the ledger back when fn fails. It counts transactions begun
// outside a lock context.
type fakeTx struct {
	ledger   *ledger
	commits  int
	unlocked int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(lockKey{}) == nil {
		f.ledger.mu.Lock()
		f.unlocked++
		f.ledger.mu.Unlock()
	}
	snap := f.ledger.snapshot()
	if err := fn(ctx); err != nil {
		f.ledger.restore(snap)
		return err
	}
	f.ledger.mu.Lock()
	f.commits++
	f.ledger.mu.Unlock()
	return nil
}

type memInstitutions struct{ *ledger }

func (r memInstitutions) Create(ctx context.Context, p institution.CreateParams) (*institution.Institution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.institutions {
		if existing.ItemID == p.ItemID {
			return nil, institution.ErrAlreadyLinked
		}
	}
	inst := &institution.Institution{
		ID:              p.ID,
		UserID:          p.UserID,
		AccessToken:     p.AccessToken,
		ItemID:          p.ItemID,
		InstitutionID:   p.InstitutionID,
		InstitutionName: p.InstitutionName,
	}
	r.institutions[p.ID] = inst
	cp := *inst
	return &cp, nil
}

func (r memInstitutions) GetByID(ctx context.Context, userID int64, id string) (*institution.Institution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.institutions[id]
	if !ok || inst.UserID != userID {
		return nil, institution.ErrInstitutionNotFound
	}
	cp := *inst
	return &cp, nil
}

func (r memInstitutions) ListByUserID(ctx context.Context, userID int64) ([]*institution.Institution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*institution.Institution
	for _, inst := range r.institutions {
		if inst.UserID == userID {
			cp := *inst
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memInstitutions) ListUserIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]struct{})
	var out []int64
	for _, inst := range r.institutions {
		if _, ok := seen[inst.UserID]; !ok {
			seen[inst.UserID] = struct{}{}
			out = append(out, inst.UserID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r memInstitutions) UpdateCursor(ctx context.Context, userID int64, id, cursor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.institutions[id]
	if !ok || inst.UserID != userID {
		return institution.ErrInstitutionNotFound
	}
	inst.Cursor = &cursor
	return nil
}

func (r memInstitutions) Delete(ctx context.Context, userID int64, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.institutions[id]
	if !ok || inst.UserID != userID {
		return institution.ErrInstitutionNotFound
	}
	delete(r.institutions, id)
	for accID, acc := range r.accounts {
		if acc.InstitutionID != id {
			continue
		}
		delete(r.accounts, accID)
		for extID, t := range r.transactions {
			if t.AccountID == accID {
				delete(r.transactions, extID)
			}
		}
	}
	return nil
}

type memAccounts struct{ *ledger }

func (r memAccounts) Upsert(ctx context.Context, p account.UpsertParams) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if acc.InstitutionID == p.InstitutionID && acc.AccountID == p.AccountID {
			p.ID = acc.ID
		}
	}
	acc := &account.Account{
		ID:               p.ID,
		InstitutionID:    p.InstitutionID,
		UserID:           p.UserID,
		AccountID:        p.AccountID,
		Name:             p.Name,
		OfficialName:     p.OfficialName,
		Type:             p.Type,
		Subtype:          p.Subtype,
		Mask:             p.Mask,
		CurrentBalance:   p.CurrentBalance,
		AvailableBalance: p.AvailableBalance,
		IsoCurrencyCode:  p.IsoCurrencyCode,
	}
	r.accounts[p.ID] = acc
	cp := *acc
	return &cp, nil
}

func (r memAccounts) GetByID(ctx context.Context, userID int64, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok || acc.UserID != userID {
		return nil, account.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r memAccounts) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*account.Account
	for _, acc := range r.accounts {
		if acc.UserID == userID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAccounts) ExternalIDMap(ctx context.Context, institutionID string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := make(map[string]string)
	for _, acc := range r.accounts {
		if acc.InstitutionID == institutionID {
			m[acc.AccountID] = acc.ID
		}
	}
	return m, nil
}

func (r memAccounts) UpdateBalances(ctx context.Context, userID int64, u account.BalanceUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if acc.UserID == userID && acc.InstitutionID == u.InstitutionID && acc.AccountID == u.AccountID {
			acc.CurrentBalance = u.Current
			acc.AvailableBalance = u.Available
			return true, nil
		}
	}
	return false, nil
}

type memTransactions struct{ *ledger }

func (r memTransactions) Upsert(ctx context.Context, p transaction.UpsertParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.TransactionID == r.failUpsertFor {
		return false, errors.New("disk full")
	}
	id := p.ID
	if existing, ok := r.transactions[p.TransactionID]; ok {
		if existing.UserID != p.UserID {
			return false, nil
		}
		id = existing.ID
	}
	category := p.Category
	r.transactions[p.TransactionID] = &transaction.Transaction{
		ID:              id,
		AccountID:       p.AccountID,
		UserID:          p.UserID,
		TransactionID:   p.TransactionID,
		Amount:          p.Amount,
		Date:            p.Date,
		Name:            p.Name,
		MerchantName:    p.MerchantName,
		Category:        &category,
		CategoryID:      p.CategoryID,
		Pending:         p.Pending,
		IsoCurrencyCode: p.IsoCurrencyCode,
	}
	return true, nil
}

func (r memTransactions) ApplyModification(ctx context.Context, p transaction.ModifyParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[p.TransactionID]
	if !ok || t.UserID != p.UserID {
		return false, nil
	}
	category := p.Category
	t.Amount = p.Amount
	t.Date = p.Date
	t.Name = p.Name
	t.MerchantName = p.MerchantName
	t.Category = &category
	t.Pending = p.Pending
	return true, nil
}

func (r memTransactions) DeleteByExternalID(ctx context.Context, userID int64, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[transactionID]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.transactions, transactionID)
	return true, nil
}

func (r memTransactions) List(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, int, error) {
	return nil, 0, nil
}

func (r memTransactions) GetByID(ctx context.Context, userID int64, id string) (*transaction.Transaction, error) {
	return nil, transaction.ErrTransactionNotFound
}

func (r memTransactions) UpdateCategory(ctx context.Context, userID int64, id, category string) (*transaction.Transaction, error) {
	return nil, transaction.ErrTransactionNotFound
}

func (r memTransactions) DistinctCategories(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []SyncCompletedEvent
}

func (p *recordingPublisher) PublishSyncCompleted(ctx context.Context, e SyncCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type lockKey struct{}

// MemoryLocker is a process-local Locker. The returned context carries the
// held key.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string) (context.Context, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, nil, ErrSyncInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return context.WithValue(ctx, lockKey{}, key), func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
