// Package domain defines the core business entities for Expensio.
// These models are independent of external services and represent the
// canonical data structures used throughout the API.
package domain

import "time"

// ============================================================
// Users
// ============================================================

// User represents a registered account holder.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsPremium    bool      `json:"is_premium"`
	Role         string    `json:"role,omitempty"` // "" or "admin"
	CreatedAt    time.Time `json:"created_at"`
}

// ============================================================
// Transactions
// ============================================================

// Transaction kinds.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Transaction represents a single income or expense entry.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"` // income, expense
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionInput is the payload to create a transaction.
type TransactionInput struct {
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"` // YYYY-MM-DD or RFC3339, empty = now
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Month    int    // 1-12, 0 = no month filter
	Year     int    // 0 = no year filter
	Type     string // income, expense, "" = both
	Category string
}

// ============================================================
// Budgets
// ============================================================

// Budget is a per-category spending ceiling for one calendar month.
// Unique per (user, category, month, year); a second submission for the
// same key overwrites the limit rather than creating a duplicate row.
type Budget struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	Category string  `json:"category"`
	Month    int     `json:"month"` // 1-12
	Year     int     `json:"year"`
	Limit    float64 `json:"limit"`
}

// BudgetInput is the payload to create or upsert a budget.
type BudgetInput struct {
	Category string  `json:"category"`
	Month    int     `json:"month"`
	Year     int     `json:"year"`
	Limit    float64 `json:"limit"`
}

// ============================================================
// Bills
// ============================================================

// Bill recurrence values.
const (
	RecurrenceOneTime = "one-time"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)

// Bill due-status values (computed at query time, never persisted).
const (
	DueStatusOverdue = "overdue"
	DueStatusDueSoon = "due-soon"
)

// Bill is a scheduled obligation to pay, optionally recurring. It stays
// distinct from a Transaction until paid.
type Bill struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Amount    float64    `json:"amount"`
	DueDate   time.Time  `json:"due_date"`
	Category  string     `json:"category"`
	Recurring string     `json:"recurring"` // one-time, weekly, monthly, yearly
	Paid      bool       `json:"paid"`
	PaidDate  *time.Time `json:"paid_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// DueStatus is derived when listing: overdue, due-soon or empty.
	DueStatus string `json:"due_status,omitempty"`
}

// BillInput is the payload to create a bill.
type BillInput struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	DueDate   string  `json:"due_date"`
	Category  string  `json:"category"`
	Recurring string  `json:"recurring,omitempty"` // default one-time
}

// PayBillResult is returned after a successful bill payment.
type PayBillResult struct {
	Bill        *Bill        `json:"bill"`
	Transaction *Transaction `json:"transaction"`
}

// ============================================================
// Analytics
// ============================================================

// Category status values, mutually exclusive.
const (
	StatusNoBudget  = "no-budget"
	StatusGood      = "good"
	StatusWarning   = "warning"
	StatusOverspent = "overspent"
)

// CategoryStatus is the derived reconciliation record for one category:
// actual spend versus the budgeted limit for the period.
type CategoryStatus struct {
	Category   string  `json:"category"`
	Spent      float64 `json:"spent"`
	Budget     float64 `json:"budget"`
	Remaining  float64 `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// MonthlyTotal is one row of the monthly income/expense series.
type MonthlyTotal struct {
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// ============================================================
// Plans & Subscription
// ============================================================

// Plan is a purchasable subscription plan shown on the pricing page.
type Plan struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Duration  string   `json:"duration"` // monthly, yearly
	Features  []string `json:"features"`
	IsPopular bool     `json:"is_popular"`
}

// PlanInput is the payload to create or update a plan.
type PlanInput struct {
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Duration  string   `json:"duration"`
	Features  []string `json:"features"`
	IsPopular bool     `json:"is_popular"`
}

// CreateOrderRequest is the body for POST /api/subscription/create-order.
type CreateOrderRequest struct {
	Plan string `json:"plan"` // monthly, yearly
}

// OrderResponse is returned after creating a payment order.
type OrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"` // smallest currency unit (paise)
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// PaymentOrder is the gateway's order record.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// VerifyPaymentRequest is the body for POST /api/subscription/verify.
type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

// ============================================================
// Chatbot
// ============================================================

// ChatRequest is the body for POST /api/chatbot.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ChatResponse is returned by the chatbot endpoint.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ChatCompletion is the LLM provider's reply plus token accounting.
type ChatCompletion struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// ============================================================
// Admin
// ============================================================

// AdminOverview aggregates platform-wide counters for the admin dashboard.
type AdminOverview struct {
	TotalUsers   int     `json:"totalUsers"`
	PremiumUsers int     `json:"premiumUsers"`
	FreeUsers    int     `json:"freeUsers"`
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
}

// AdminUser is the reduced user view for the admin user list.
type AdminUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsPremium bool   `json:"isPremium"`
}

// HowToSection is one block of the editable how-to-use content.
type HowToSection struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ServiceMetrics is the counters snapshot for GET /api/admin/metrics.
type ServiceMetrics struct {
	TotalRequests       int64   `json:"totalRequests"`
	ErrorRate           float64 `json:"errorRate"`
	AvgTokensPerRequest float64 `json:"avgTokensPerRequest"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	OverspendAlerts     int64   `json:"overspendAlerts"`
	Period              string  `json:"period"`
}

// ============================================================
// Auth request/response types
// ============================================================

// RegisterRequest is the body for POST /api/auth/register and /signup.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInfo is the public user shape embedded in auth responses.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResponse is returned by login and signup.
type LoginResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
}

// UpdateProfileRequest is the body for PUT /api/auth/update-profile.
type UpdateProfileRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// ContactRequest is the body for POST /api/contact.
type ContactRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SuccessResponse wraps a successful mutation with no richer payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ============================================================
// Health
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}
