package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/handler"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/service"
)

const testAdminSecret = "test-admin-secret"

// --- In-memory stores ---

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (m *memUserStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return u, nil
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (m *memUserStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUserStore) UpdateUser(_ context.Context, userID string, updates map[string]any) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if name, ok := updates["name"].(string); ok {
		u.Name = name
	}
	return u, nil
}

func (m *memUserStore) CountUsers(_ context.Context) (int, int, error) {
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

func (m *memUserStore) ListUsers(_ context.Context) ([]domain.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AdminUser, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, domain.AdminUser{ID: u.ID, Name: u.Name, Email: u.Email, IsPremium: u.IsPremium})
	}
	return out, nil
}

func (m *memUserStore) SetPremium(_ context.Context, userID string, premium bool) (*domain.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u.IsPremium = premium
	return &domain.AdminUser{ID: u.ID, Name: u.Name, Email: u.Email, IsPremium: u.IsPremium}, nil
}

type memTransactionStore struct {
	mu           sync.Mutex
	transactions map[string]*domain.Transaction
}

func newMemTransactionStore() *memTransactionStore {
	return &memTransactionStore{transactions: make(map[string]*domain.Transaction)}
}

func (m *memTransactionStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return tx, nil
}

func (m *memTransactionStore) ListTransactions(_ context.Context, userID string, _ domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (m *memTransactionStore) UpdateTransaction(_ context.Context, userID, txID string, _ map[string]any) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok || tx.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return tx, nil
}

func (m *memTransactionStore) DeleteTransaction(_ context.Context, userID, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok || tx.UserID != userID {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	delete(m.transactions, txID)
	return nil
}

func (m *memTransactionStore) SumByCategory(_ context.Context, userID string, _ domain.TransactionFilter) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := make(map[string]float64)
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			sums[tx.Category] += tx.Amount
		}
	}
	return sums, nil
}

func (m *memTransactionStore) MonthlyTotals(_ context.Context, _ string, _ int) ([]domain.MonthlyTotal, error) {
	return []domain.MonthlyTotal{}, nil
}

func (m *memTransactionStore) SumByType(_ context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := make(map[string]float64)
	for _, tx := range m.transactions {
		sums[tx.Type] += tx.Amount
	}
	return sums, nil
}

type memBillStore struct {
	mu    sync.Mutex
	bills map[string]*domain.Bill
}

func newMemBillStore() *memBillStore {
	return &memBillStore{bills: make(map[string]*domain.Bill)}
}

func (m *memBillStore) CreateBill(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[bill.ID] = bill
	return bill, nil
}

func (m *memBillStore) ListBills(_ context.Context, userID string) ([]domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Bill, 0)
	for _, b := range m.bills {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBillStore) GetBill(_ context.Context, userID, billID string) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	cp := *b
	return &cp, nil
}

func (m *memBillStore) MarkBillPaid(_ context.Context, userID, billID string) (*domain.Bill, error) {
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

func (m *memBillStore) UpdateBill(_ context.Context, userID, billID string, _ map[string]any) (*domain.Bill, error) {
	return m.GetBill(context.Background(), userID, billID)
}

func (m *memBillStore) DeleteBill(_ context.Context, userID, billID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billID]
	if !ok || b.UserID != userID {
		return &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	delete(m.bills, billID)
	return nil
}

// --- Harness ---

type testEnv struct {
	router http.Handler
	users  *memUserStore
	bills  *memBillStore
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	users := newMemUserStore()
	transactions := newMemTransactionStore()
	bills := newMemBillStore()

	authSvc := service.NewAuthService(users, "router-test-secret", time.Hour, logger)
	txSvc := service.NewTransactionService(transactions, logger)
	billSvc := service.NewBillService(bills, transactions, logger)
	adminSvc := service.NewAdminService(users, transactions, metrics, logger)

	router := handler.NewRouter(handler.Deps{
		Auth:         authSvc,
		Transactions: txSvc,
		Bills:        billSvc,
		Admin:        adminSvc,

		Metrics:        metrics,
		Logger:         logger,
		AdminSecret:    testAdminSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	return &testEnv{router: router, users: users, bills: bills}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerUser(t *testing.T, email string) (userID, token string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/signup", "", domain.RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.User.ID, resp.Token
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv()
	userID, _ := env.registerUser(t, "flow@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
		Email:    "flow@example.com",
		Password: "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var login domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var me domain.User
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != userID {
		t.Errorf("expected user %q, got %q", userID, me.ID)
	}
}

func TestRegister_NoToken(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", domain.RegisterRequest{
		Name:     "Test User",
		Email:    "plain@example.com",
		Password: "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if _, ok := body["token"]; ok {
		t.Error("register must not issue a token, only signup does")
	}
	for _, field := range []string{"id", "name", "email"} {
		if v, ok := body[field].(string); !ok || v == "" {
			t.Errorf("expected non-empty %q in register response, got %v", field, body[field])
		}
	}
}

func TestLogin_BadPassword(t *testing.T) {
	env := newTestEnv()
	env.registerUser(t, "bad@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
		Email:    "bad@example.com",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newTestEnv()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/transactions/"},
		{http.MethodGet, "/api/bills/"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/admin/overview"},
	}
	for _, p := range paths {
		rec := env.do(t, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv()
	_, token := env.registerUser(t, "tx@example.com")

	rec := env.do(t, http.MethodPost, "/api/transactions/", token, domain.TransactionInput{
		Type:     "expense",
		Category: "food",
		Amount:   450,
		Date:     "2026-08-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/api/transactions/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Transactions) != 1 || listed.Transactions[0].ID != created.ID {
		t.Errorf("unexpected listing: %+v", listed.Transactions)
	}

	rec = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestCreateTransaction_Invalid(t *testing.T) {
	env := newTestEnv()
	_, token := env.registerUser(t, "invalid@example.com")

	rec := env.do(t, http.MethodPost, "/api/transactions/", token, domain.TransactionInput{
		Type:     "transfer",
		Category: "food",
		Amount:   100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPayBill_Conflict(t *testing.T) {
	env := newTestEnv()
	userID, token := env.registerUser(t, "bill@example.com")

	env.bills.CreateBill(context.Background(), &domain.Bill{
		ID:        "b-1",
		UserID:    userID,
		Name:      "Internet",
		Amount:    799,
		DueDate:   time.Now(),
		Category:  "utilities",
		Recurring: domain.RecurrenceOneTime,
	})

	rec := env.do(t, http.MethodPost, "/api/bills/b-1/pay", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first pay: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/bills/b-1/pay", token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second pay: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/bills/missing/pay", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing bill: expected 404, got %d", rec.Code)
	}
}

func TestAdminRoutes_Gated(t *testing.T) {
	env := newTestEnv()
	_, token := env.registerUser(t, "user@example.com")

	rec := env.do(t, http.MethodGet, "/api/admin/overview", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/overview", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Admin-Token", testAdminSecret)
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin token, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var overview domain.AdminOverview
	if err := json.NewDecoder(recorder.Body).Decode(&overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if overview.TotalUsers != 1 {
		t.Errorf("expected 1 user, got %d", overview.TotalUsers)
	}
}

func TestAdminRoutes_RoleClaim(t *testing.T) {
	env := newTestEnv()
	userID, _ := env.registerUser(t, "admin@example.com")

	// Promote and sign a fresh token carrying the admin role.
	env.users.mu.Lock()
	env.users.users[userID].Role = "admin"
	env.users.mu.Unlock()

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	var login domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/users", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin role, got %d: %s", rec.Code, rec.Body.String())
	}
}
