package service_test

import (
	"context"
	"sync"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/port"
)

// --- Mocks ---

type mockUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User // by id

	getErr    error
	createErr error
	updateErr error

	updates map[string]any // last UpdateUser payload
}

func newMockUserStore(users ...*domain.User) *mockUserStore {
	m := &mockUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return u, nil
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (m *mockUserStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, userID string, updates map[string]any) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	m.updates = updates
	if premium, ok := updates["is_premium"].(bool); ok {
		u.IsPremium = premium
	}
	if name, ok := updates["name"].(string); ok {
		u.Name = name
	}
	return u, nil
}

func (m *mockUserStore) CountUsers(_ context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total, premium := 0, 0
	for _, u := range m.users {
		total++
		if u.IsPremium {
			premium++
		}
	}
	return total, premium, nil
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]domain.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AdminUser, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, domain.AdminUser{ID: u.ID, Name: u.Name, Email: u.Email, IsPremium: u.IsPremium})
	}
	return out, nil
}

func (m *mockUserStore) SetPremium(_ context.Context, userID string, premium bool) (*domain.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u.IsPremium = premium
	return &domain.AdminUser{ID: u.ID, Name: u.Name, Email: u.Email, IsPremium: u.IsPremium}, nil
}

type mockTransactionStore struct {
	mu sync.Mutex

	transactions []domain.Transaction
	sums         map[string]float64
	monthly      []domain.MonthlyTotal
	typeSums     map[string]float64

	listErr   error
	sumErr    error
	createErr error

	created    []domain.Transaction
	lastFilter domain.TransactionFilter // filter seen by SumByCategory
	sumCalls   int
}

func (m *mockTransactionStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, *tx)
	return tx, nil
}

func (m *mockTransactionStore) ListTransactions(_ context.Context, _ string, _ domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions, m.listErr
}

func (m *mockTransactionStore) UpdateTransaction(_ context.Context, _, txID string, _ map[string]any) (*domain.Transaction, error) {
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
}

func (m *mockTransactionStore) DeleteTransaction(_ context.Context, _, txID string) error {
	return &domain.ErrNotFound{Resource: "transaction", ID: txID}
}

func (m *mockTransactionStore) SumByCategory(_ context.Context, _ string, filter domain.TransactionFilter) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	m.sumCalls++
	return m.sums, m.sumErr
}

func (m *mockTransactionStore) MonthlyTotals(_ context.Context, _ string, _ int) ([]domain.MonthlyTotal, error) {
	return m.monthly, nil
}

func (m *mockTransactionStore) SumByType(_ context.Context) (map[string]float64, error) {
	return m.typeSums, nil
}

func (m *mockTransactionStore) createdTransactions() []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Transaction, len(m.created))
	copy(out, m.created)
	return out
}

type mockBudgetStore struct {
	budgets []domain.Budget
	listErr error

	upserted  *domain.Budget
	listMonth int
	listYear  int
}

func (m *mockBudgetStore) UpsertBudget(_ context.Context, b *domain.Budget) (*domain.Budget, error) {
	m.upserted = b
	return b, nil
}

func (m *mockBudgetStore) ListBudgets(_ context.Context, _ string, month, year int) ([]domain.Budget, error) {
	m.listMonth, m.listYear = month, year
	return m.budgets, m.listErr
}

func (m *mockBudgetStore) UpdateBudget(_ context.Context, _, budgetID string, _ map[string]any) (*domain.Budget, error) {
	return nil, &domain.ErrNotFound{Resource: "budget", ID: budgetID}
}

func (m *mockBudgetStore) DeleteBudget(_ context.Context, _, budgetID string) error {
	return &domain.ErrNotFound{Resource: "budget", ID: budgetID}
}

// mockBillStore keeps bills in memory and honours the paid=false guard in
// MarkBillPaid, same as the real conditional update.
type mockBillStore struct {
	mu    sync.Mutex
	bills map[string]*domain.Bill

	createErr error
	created   []domain.Bill
}

func newMockBillStore(bills ...*domain.Bill) *mockBillStore {
	m := &mockBillStore{bills: make(map[string]*domain.Bill)}
	for _, b := range bills {
		m.bills[b.ID] = b
	}
	return m
}

func (m *mockBillStore) CreateBill(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.bills[bill.ID] = bill
	m.created = append(m.created, *bill)
	return bill, nil
}

func (m *mockBillStore) ListBills(_ context.Context, userID string) ([]domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Bill, 0, len(m.bills))
	for _, b := range m.bills {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBillStore) GetBill(_ context.Context, userID, billID string) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	cp := *b
	return &cp, nil
}

func (m *mockBillStore) MarkBillPaid(_ context.Context, userID, billID string) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.UserID != userID || b.Paid {
		return nil, nil
	}
	b.Paid = true
	cp := *b
	return &cp, nil
}

func (m *mockBillStore) UpdateBill(_ context.Context, userID, billID string, _ map[string]any) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	cp := *b
	return &cp, nil
}

func (m *mockBillStore) DeleteBill(_ context.Context, userID, billID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.UserID != userID {
		return &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	delete(m.bills, billID)
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mockMailer struct {
	sent chan sentMail
	err  error
}

func newMockMailer() *mockMailer {
	return &mockMailer{sent: make(chan sentMail, 16)}
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent <- sentMail{To: to, Subject: subject, Body: body}
	return nil
}

type mockCompleter struct {
	mu         sync.Mutex
	completion *domain.ChatCompletion
	err        error

	calls    int
	messages []port.ChatMessage
}

func (m *mockCompleter) Complete(_ context.Context, messages []port.ChatMessage) (*domain.ChatCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = messages
	return m.completion, m.err
}

type mockGateway struct {
	order *domain.PaymentOrder
	err   error

	amount   int64
	currency string
	receipt  string
}

func (m *mockGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*domain.PaymentOrder, error) {
	m.amount = amount
	m.currency = currency
	m.receipt = receipt
	return m.order, m.err
}
