package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/resilience"
)

// ============================================================
// Transactions
// ============================================================

// supabaseTransaction maps the transactions table columns.
type supabaseTransaction struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"created_at"`
}

func (t supabaseTransaction) toDomain() domain.Transaction {
	date := parseDate(t.Date)
	created, _ := time.Parse(time.RFC3339, t.CreatedAt)
	return domain.Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        t.Type,
		Category:    t.Category,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        date,
		CreatedAt:   created,
	}
}

func parseDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, _ = time.Parse("2006-01-02", s)
	}
	return t
}

// periodRange returns the half-open [from, to) date filter clause for a
// month/year pair. Year alone covers the full year.
func periodRange(month, year int) string {
	if year == 0 {
		return ""
	}
	var from, to time.Time
	if month == 0 {
		from = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(1, 0, 0)
	} else {
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	}
	return fmt.Sprintf("&date=gte.%s&date=lt.%s",
		from.Format(time.RFC3339), to.Format(time.RFC3339))
}

// CreateTransaction inserts a transaction row.
func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", tx.UserID))

	var created *domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "transactions", map[string]any{
				"id":          tx.ID,
				"user_id":     tx.UserID,
				"type":        tx.Type,
				"category":    tx.Category,
				"amount":      tx.Amount,
				"description": tx.Description,
				"date":        tx.Date.Format(time.RFC3339),
				"created_at":  tx.CreatedAt.Format(time.RFC3339),
			})
			if err != nil {
				return err
			}

			var rows []supabaseTransaction
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode created transaction: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("insert returned no row")
			}

			t := rows[0].toDomain()
			created = &t
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return created, nil
}

// ListTransactions fetches a user's transactions, most recent first.
func (c *Client) ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("transactions?user_id=eq.%s&order=date.desc", url.QueryEscape(userID))
	if filter.Type != "" {
		path += "&type=eq." + url.QueryEscape(filter.Type)
	}
	if filter.Category != "" {
		path += "&category=eq." + url.QueryEscape(filter.Category)
	}
	path += periodRange(filter.Month, filter.Year)

	var transactions []domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				transactions = []domain.Transaction{}
				return nil
			}

			var rows []supabaseTransaction
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode transactions: %w", err)
			}

			transactions = make([]domain.Transaction, 0, len(rows))
			for _, r := range rows {
				transactions = append(transactions, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return transactions, nil
}

// UpdateTransaction patches a transaction owned by userID.
func (c *Client) UpdateTransaction(ctx context.Context, userID, txID string, updates map[string]any) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	var updated *domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s",
				url.QueryEscape(txID), url.QueryEscape(userID))
			body, err := c.doPatchReturning(ctx, path, updates)
			if err != nil {
				return err
			}

			var rows []supabaseTransaction
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode updated transaction: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "transaction", ID: txID}
			}

			t := rows[0].toDomain()
			updated = &t
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return updated, nil
}

// DeleteTransaction removes a transaction owned by userID.
func (c *Client) DeleteTransaction(ctx context.Context, userID, txID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s",
				url.QueryEscape(txID), url.QueryEscape(userID))
			body, err := c.doDelete(ctx, path)
			if err != nil {
				return err
			}
			if len(body) == 0 || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "transaction", ID: txID}
			}
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return nil
}

// SumByCategory aggregates transaction amounts per category for one user.
// Aggregation happens client-side; PostgREST only ships the two columns.
func (c *Client) SumByCategory(ctx context.Context, userID string, filter domain.TransactionFilter) (map[string]float64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SumByCategory")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("transactions?user_id=eq.%s&select=category,amount", url.QueryEscape(userID))
	if filter.Type != "" {
		path += "&type=eq." + url.QueryEscape(filter.Type)
	}
	path += periodRange(filter.Month, filter.Year)

	sums := make(map[string]float64)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return nil
			}

			var rows []struct {
				Category string  `json:"category"`
				Amount   float64 `json:"amount"`
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode category sums: %w", err)
			}

			for _, r := range rows {
				sums[r.Category] += r.Amount
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return sums, nil
}

// MonthlyTotals aggregates income and expense per calendar month of a year.
func (c *Client) MonthlyTotals(ctx context.Context, userID string, year int) ([]domain.MonthlyTotal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.MonthlyTotals")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("year", year))

	path := fmt.Sprintf("transactions?user_id=eq.%s&select=type,amount,date", url.QueryEscape(userID))
	path += periodRange(0, year)

	totals := make([]domain.MonthlyTotal, 12)
	for i := range totals {
		totals[i].Month = i + 1
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return nil
			}

			var rows []struct {
				Type   string  `json:"type"`
				Amount float64 `json:"amount"`
				Date   string  `json:"date"`
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode monthly totals: %w", err)
			}

			for _, r := range rows {
				m := int(parseDate(r.Date).Month())
				if m < 1 || m > 12 {
					continue
				}
				switch r.Type {
				case domain.KindIncome:
					totals[m-1].Income += r.Amount
				case domain.KindExpense:
					totals[m-1].Expense += r.Amount
				}
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return totals, nil
}

// SumByType aggregates transaction amounts per type across all users.
func (c *Client) SumByType(ctx context.Context) (map[string]float64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SumByType")
	defer span.End()

	sums := make(map[string]float64)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "transactions?select=type,amount")
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return nil
			}

			var rows []struct {
				Type   string  `json:"type"`
				Amount float64 `json:"amount"`
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode type sums: %w", err)
			}

			for _, r := range rows {
				sums[r.Type] += r.Amount
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return sums, nil
}

// ============================================================
// Budgets
// ============================================================

// supabaseBudget maps the budgets table columns. The limit lives in
// limit_amount because "limit" is reserved in SQL.
type supabaseBudget struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	Category string  `json:"category"`
	Month    int     `json:"month"`
	Year     int     `json:"year"`
	Limit    float64 `json:"limit_amount"`
}

func (b supabaseBudget) toDomain() domain.Budget {
	return domain.Budget{
		ID:       b.ID,
		UserID:   b.UserID,
		Category: b.Category,
		Month:    b.Month,
		Year:     b.Year,
		Limit:    b.Limit,
	}
}

// UpsertBudget inserts a budget or overwrites the existing row for the same
// (user, category, month, year). The conflict resolution happens in a single
// request, so concurrent submissions cannot create duplicates.
func (c *Client) UpsertBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertBudget")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", budget.UserID),
		attribute.String("budget.category", budget.Category),
	)

	var saved *domain.Budget

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doUpsert(ctx, "budgets?on_conflict=user_id,category,month,year", map[string]any{
				"id":           budget.ID,
				"user_id":      budget.UserID,
				"category":     budget.Category,
				"month":        budget.Month,
				"year":         budget.Year,
				"limit_amount": budget.Limit,
			})
			if err != nil {
				return err
			}

			var rows []supabaseBudget
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode upserted budget: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("upsert returned no row")
			}

			b := rows[0].toDomain()
			saved = &b
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}

	return saved, nil
}

// ListBudgets fetches a user's budgets. Month and year of zero mean no
// filter on that column.
func (c *Client) ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := "budgets?user_id=eq." + url.QueryEscape(userID)
	if month != 0 {
		path += fmt.Sprintf("&month=eq.%d", month)
	}
	if year != 0 {
		path += fmt.Sprintf("&year=eq.%d", year)
	}
	path += "&order=year.desc,month.desc,category.asc"

	var budgets []domain.Budget

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				budgets = []domain.Budget{}
				return nil
			}

			var rows []supabaseBudget
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode budgets: %w", err)
			}

			budgets = make([]domain.Budget, 0, len(rows))
			for _, r := range rows {
				budgets = append(budgets, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}

	return budgets, nil
}

// UpdateBudget patches a budget owned by userID.
func (c *Client) UpdateBudget(ctx context.Context, userID, budgetID string, updates map[string]any) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBudget")
	defer span.End()
	span.SetAttributes(attribute.String("budget.id", budgetID))

	var updated *domain.Budget

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("budgets?id=eq.%s&user_id=eq.%s",
				url.QueryEscape(budgetID), url.QueryEscape(userID))
			body, err := c.doPatchReturning(ctx, path, updates)
			if err != nil {
				return err
			}

			var rows []supabaseBudget
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode updated budget: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "budget", ID: budgetID}
			}

			b := rows[0].toDomain()
			updated = &b
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}

	return updated, nil
}

// DeleteBudget removes a budget owned by userID.
func (c *Client) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBudget")
	defer span.End()
	span.SetAttributes(attribute.String("budget.id", budgetID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("budgets?id=eq.%s&user_id=eq.%s",
				url.QueryEscape(budgetID), url.QueryEscape(userID))
			body, err := c.doDelete(ctx, path)
			if err != nil {
				return err
			}
			if len(body) == 0 || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "budget", ID: budgetID}
			}
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}

	return nil
}

// ============================================================
// Bills
// ============================================================

// supabaseBill maps the bills table columns.
type supabaseBill struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	DueDate   string  `json:"due_date"`
	Category  string  `json:"category"`
	Recurring string  `json:"recurring"`
	Paid      bool    `json:"paid"`
	PaidDate  *string `json:"paid_date"`
	CreatedAt string  `json:"created_at"`
}

func (b supabaseBill) toDomain() domain.Bill {
	created, _ := time.Parse(time.RFC3339, b.CreatedAt)
	bill := domain.Bill{
		ID:        b.ID,
		UserID:    b.UserID,
		Name:      b.Name,
		Amount:    b.Amount,
		DueDate:   parseDate(b.DueDate),
		Category:  b.Category,
		Recurring: b.Recurring,
		Paid:      b.Paid,
		CreatedAt: created,
	}
	if b.PaidDate != nil {
		pd := parseDate(*b.PaidDate)
		bill.PaidDate = &pd
	}
	return bill
}

// CreateBill inserts a bill row.
func (c *Client) CreateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBill")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", bill.UserID))

	var created *domain.Bill

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "bills", map[string]any{
				"id":         bill.ID,
				"user_id":    bill.UserID,
				"name":       bill.Name,
				"amount":     bill.Amount,
				"due_date":   bill.DueDate.Format(time.RFC3339),
				"category":   bill.Category,
				"recurring":  bill.Recurring,
				"paid":       bill.Paid,
				"created_at": bill.CreatedAt.Format(time.RFC3339),
			})
			if err != nil {
				return err
			}

			var rows []supabaseBill
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode created bill: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("insert returned no row")
			}

			b := rows[0].toDomain()
			created = &b
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bills", Err: err}
	}

	return created, nil
}

// ListBills fetches a user's bills ordered by due date.
func (c *Client) ListBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBills")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("bills?user_id=eq.%s&order=due_date.asc", url.QueryEscape(userID))

	var bills []domain.Bill

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				bills = []domain.Bill{}
				return nil
			}

			var rows []supabaseBill
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode bills: %w", err)
			}

			bills = make([]domain.Bill, 0, len(rows))
			for _, r := range rows {
				bills = append(bills, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bills", Err: err}
	}

	return bills, nil
}

// GetBill fetches a single bill owned by userID.
func (c *Client) GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	var bill *domain.Bill

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("bills?id=eq.%s&user_id=eq.%s&limit=1",
				url.QueryEscape(billID), url.QueryEscape(userID))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "bill", ID: billID}
			}

			var rows []supabaseBill
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode bill: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "bill", ID: billID}
			}

			b := rows[0].toDomain()
			bill = &b
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bills", Err: err}
	}

	return bill, nil
}

// MarkBillPaid performs a conditional update: the paid flag flips only when
// the row is still unpaid. The paid=eq.false filter makes the transition a
// compare-and-set, so two concurrent payments cannot both succeed. A nil
// bill with nil error means the condition matched no row.
func (c *Client) MarkBillPaid(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.MarkBillPaid")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	var bill *domain.Bill

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("bills?id=eq.%s&user_id=eq.%s&paid=eq.false",
				url.QueryEscape(billID), url.QueryEscape(userID))
			body, err := c.doPatchReturning(ctx, path, map[string]any{
				"paid":      true,
				"paid_date": time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				return err
			}

			var rows []supabaseBill
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode paid bill: %w", err)
			}
			if len(rows) == 0 {
				bill = nil // already paid or absent; caller decides which
				return nil
			}

			b := rows[0].toDomain()
			bill = &b
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bills", Err: err}
	}

	return bill, nil
}

// UpdateBill patches a bill owned by userID.
func (c *Client) UpdateBill(ctx context.Context, userID, billID string, updates map[string]any) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	var updated *domain.Bill

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("bills?id=eq.%s&user_id=eq.%s",
				url.QueryEscape(billID), url.QueryEscape(userID))
			body, err := c.doPatchReturning(ctx, path, updates)
			if err != nil {
				return err
			}

			var rows []supabaseBill
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode updated bill: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "bill", ID: billID}
			}

			b := rows[0].toDomain()
			updated = &b
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bills", Err: err}
	}

	return updated, nil
}

// DeleteBill removes a bill owned by userID.
func (c *Client) DeleteBill(ctx context.Context, userID, billID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("bills?id=eq.%s&user_id=eq.%s",
				url.QueryEscape(billID), url.QueryEscape(userID))
			body, err := c.doDelete(ctx, path)
			if err != nil {
				return err
			}
			if len(body) == 0 || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "bill", ID: billID}
			}
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/bills", Err: err}
	}

	return nil
}
