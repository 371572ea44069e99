package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/service"
)

func newAnalytics(tx *mockTransactionStore, budgets *mockBudgetStore, users *mockUserStore, mailer *mockMailer, scope string) *service.AnalyticsService {
	return service.NewAnalyticsService(tx, budgets, users, mailer, observability.NewMetrics(), zap.NewNop(), scope)
}

func waitForMail(t *testing.T, mailer *mockMailer) sentMail {
	t.Helper()
	select {
	case m := <-mailer.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert email")
		return sentMail{}
	}
}

func TestCategoryReport_Reconciles(t *testing.T) {
	tx := &mockTransactionStore{sums: map[string]float64{"food": 500, "transport": 200}}
	budgets := &mockBudgetStore{budgets: []domain.Budget{
		{Category: "food", Limit: 1000},
	}}

	svc := newAnalytics(tx, budgets, newMockUserStore(), newMockMailer(), service.SpendScopeLifetime)

	report, err := svc.CategoryReport(context.Background(), "u-1", "", 0, 0)
	if err != nil {
		t.Fatalf("category report: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(report))
	}

	// Highest spend first.
	if report[0].Category != "food" || report[0].Status != domain.StatusGood {
		t.Errorf("unexpected first row: %+v", report[0])
	}
	if report[1].Category != "transport" || report[1].Status != domain.StatusNoBudget {
		t.Errorf("unexpected second row: %+v", report[1])
	}

	// Empty kind defaults to expense.
	if tx.lastFilter.Type != domain.KindExpense {
		t.Errorf("expected expense filter, got %q", tx.lastFilter.Type)
	}
}

func TestCategoryReport_SpendScope(t *testing.T) {
	t.Run("lifetime leaves the period open", func(t *testing.T) {
		tx := &mockTransactionStore{sums: map[string]float64{}}
		svc := newAnalytics(tx, &mockBudgetStore{}, newMockUserStore(), newMockMailer(), service.SpendScopeLifetime)

		if _, err := svc.CategoryReport(context.Background(), "u-1", "expense", 6, 2026); err != nil {
			t.Fatalf("category report: %v", err)
		}
		if tx.lastFilter.Month != 0 || tx.lastFilter.Year != 0 {
			t.Errorf("expected no period filter, got month=%d year=%d", tx.lastFilter.Month, tx.lastFilter.Year)
		}
	})

	t.Run("period restricts spend to the month", func(t *testing.T) {
		tx := &mockTransactionStore{sums: map[string]float64{}}
		svc := newAnalytics(tx, &mockBudgetStore{}, newMockUserStore(), newMockMailer(), service.SpendScopePeriod)

		if _, err := svc.CategoryReport(context.Background(), "u-1", "expense", 6, 2026); err != nil {
			t.Fatalf("category report: %v", err)
		}
		if tx.lastFilter.Month != 6 || tx.lastFilter.Year != 2026 {
			t.Errorf("expected month=6 year=2026, got month=%d year=%d", tx.lastFilter.Month, tx.lastFilter.Year)
		}
	})
}

func TestCategoryReport_InvalidInput(t *testing.T) {
	svc := newAnalytics(&mockTransactionStore{}, &mockBudgetStore{}, newMockUserStore(), newMockMailer(), service.SpendScopeLifetime)

	if _, err := svc.CategoryReport(context.Background(), "u-1", "transfer", 0, 0); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := svc.CategoryReport(context.Background(), "u-1", "expense", 13, 2026); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestCategoryReport_OverspendAlert(t *testing.T) {
	tx := &mockTransactionStore{sums: map[string]float64{"food": 1200}}
	budgets := &mockBudgetStore{budgets: []domain.Budget{{Category: "food", Limit: 1000}}}
	users := newMockUserStore(&domain.User{ID: "u-1", Email: "priya@example.com"})
	mailer := newMockMailer()

	svc := newAnalytics(tx, budgets, users, mailer, service.SpendScopeLifetime)

	if _, err := svc.CategoryReport(context.Background(), "u-1", "expense", 0, 0); err != nil {
		t.Fatalf("category report: %v", err)
	}

	mail := waitForMail(t, mailer)
	if mail.To != "priya@example.com" {
		t.Errorf("expected alert to account email, got %q", mail.To)
	}
	if !strings.Contains(mail.Subject, "Food") {
		t.Errorf("expected category in subject, got %q", mail.Subject)
	}
	if !strings.Contains(mail.Body, "200.00") {
		t.Errorf("expected overage amount in body, got %q", mail.Body)
	}
}

func TestCategoryReport_NoAlertWhenWithinBudget(t *testing.T) {
	tx := &mockTransactionStore{sums: map[string]float64{"food": 900}}
	budgets := &mockBudgetStore{budgets: []domain.Budget{{Category: "food", Limit: 1000}}}
	mailer := newMockMailer()

	svc := newAnalytics(tx, budgets, newMockUserStore(), mailer, service.SpendScopeLifetime)

	if _, err := svc.CategoryReport(context.Background(), "u-1", "expense", 0, 0); err != nil {
		t.Fatalf("category report: %v", err)
	}

	select {
	case m := <-mailer.sent:
		t.Errorf("unexpected alert email: %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCategoryReport_MailerFailureDoesNotBreakReport(t *testing.T) {
	tx := &mockTransactionStore{sums: map[string]float64{"food": 1200}}
	budgets := &mockBudgetStore{budgets: []domain.Budget{{Category: "food", Limit: 1000}}}
	users := newMockUserStore(&domain.User{ID: "u-1", Email: "priya@example.com"})
	mailer := newMockMailer()
	mailer.err = errors.New("smtp down")

	svc := newAnalytics(tx, budgets, users, mailer, service.SpendScopeLifetime)

	report, err := svc.CategoryReport(context.Background(), "u-1", "expense", 0, 0)
	if err != nil {
		t.Fatalf("expected report despite mailer failure, got %v", err)
	}
	if len(report) != 1 || report[0].Status != domain.StatusOverspent {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestCategoryReport_StoreError(t *testing.T) {
	tx := &mockTransactionStore{sumErr: errors.New("connection refused")}
	svc := newAnalytics(tx, &mockBudgetStore{}, newMockUserStore(), newMockMailer(), service.SpendScopeLifetime)

	if _, err := svc.CategoryReport(context.Background(), "u-1", "expense", 0, 0); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestMonthlyReport(t *testing.T) {
	tx := &mockTransactionStore{monthly: []domain.MonthlyTotal{
		{Month: 1, Income: 50000, Expense: 32000},
		{Month: 2},
	}}
	svc := newAnalytics(tx, &mockBudgetStore{}, newMockUserStore(), newMockMailer(), service.SpendScopeLifetime)

	months, err := svc.MonthlyReport(context.Background(), "u-1", 2026)
	if err != nil {
		t.Fatalf("monthly report: %v", err)
	}
	if len(months) != 2 || months[0].Income != 50000 {
		t.Errorf("unexpected months: %+v", months)
	}
}
