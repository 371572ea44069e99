// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/expensio-app/expensio-go/internal/domain"
)

// UserStore defines user account persistence.
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, updates map[string]any) (*domain.User, error)

	// Admin views
	CountUsers(ctx context.Context) (total, premium int, err error)
	ListUsers(ctx context.Context) ([]domain.AdminUser, error)
	SetPremium(ctx context.Context, userID string, premium bool) (*domain.AdminUser, error)
}

// TransactionStore defines owner-scoped transaction persistence plus the
// aggregations the analytics layer needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, txID string, updates map[string]any) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID string) error

	// SumByCategory aggregates amount per category, optionally restricted by
	// kind and, when month/year are non-zero, by period.
	SumByCategory(ctx context.Context, userID string, filter domain.TransactionFilter) (map[string]float64, error)

	// MonthlyTotals returns income/expense sums per month of the given year.
	MonthlyTotals(ctx context.Context, userID string, year int) ([]domain.MonthlyTotal, error)

	// SumByType aggregates amount per transaction type across all users
	// (admin overview).
	SumByType(ctx context.Context) (map[string]float64, error)
}

// BudgetStore defines budget persistence with upsert-by-unique-key.
type BudgetStore interface {
	// UpsertBudget inserts or, when a row for (user, category, month, year)
	// exists, overwrites it. Atomic at the row level.
	UpsertBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error)
	// ListBudgets filters on month and year only when they are non-zero.
	ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, updates map[string]any) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
}

// BillStore defines bill persistence including the conditional paid
// transition used to guard against double payment.
type BillStore interface {
	CreateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error)
	ListBills(ctx context.Context, userID string) ([]domain.Bill, error)
	GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error)

	// MarkBillPaid flips paid=false -> true and sets paidDate, but only if the
	// bill is currently unpaid; returns the updated bill, or nil when the
	// conditional update matched no row.
	MarkBillPaid(ctx context.Context, userID, billID string) (*domain.Bill, error)

	UpdateBill(ctx context.Context, userID, billID string, updates map[string]any) (*domain.Bill, error)
	DeleteBill(ctx context.Context, userID, billID string) error
}

// PlanStore defines subscription plan persistence.
type PlanStore interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, planID string, updates map[string]any) (*domain.Plan, error)
	DeletePlan(ctx context.Context, planID string) error
}

// Mailer sends notification email. Implementations are best-effort for
// alerting paths: callers decide whether a failure is fatal.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ChatCompleter invokes the LLM chat provider.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage) (*domain.ChatCompletion, error)
}

// ChatMessage is one turn of an LLM conversation.
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// PaymentGateway creates payment orders with the external processor.
// Signature verification stays in the service (it is a local HMAC check).
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*domain.PaymentOrder, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
