package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/port"
)

// SpendScope values for the category report.
const (
	SpendScopeLifetime = "lifetime"
	SpendScopePeriod   = "period"
)

// AnalyticsService derives spending reports and budget reconciliation.
type AnalyticsService struct {
	transactions port.TransactionStore
	budgets      port.BudgetStore
	users        port.UserStore
	mailer       port.Mailer
	metrics      *observability.Metrics
	logger       *zap.Logger

	// spendScope selects whether category spend covers the user's full
	// history or only the queried month. Budgets are always period-scoped.
	spendScope string
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(
	transactions port.TransactionStore,
	budgets port.BudgetStore,
	users port.UserStore,
	mailer port.Mailer,
	metrics *observability.Metrics,
	logger *zap.Logger,
	spendScope string,
) *AnalyticsService {
	if spendScope != SpendScopePeriod {
		spendScope = SpendScopeLifetime
	}
	return &AnalyticsService{
		transactions: transactions,
		budgets:      budgets,
		users:        users,
		mailer:       mailer,
		metrics:      metrics,
		logger:       logger,
		spendScope:   spendScope,
	}
}

// CategoryReport aggregates per-category totals of the given kind and, for
// expenses, reconciles them against the period's budgets. Month and year
// default to the current period. Overspent categories trigger an alert
// email in the background; mail failures never affect the response.
func (s *AnalyticsService) CategoryReport(ctx context.Context, userID, kind string, month, year int) ([]domain.CategoryStatus, error) {
	ctx, span := tracer.Start(ctx, "Analytics.CategoryReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("kind", kind),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("analytics_category", time.Since(start))
	}()

	if kind == "" {
		kind = domain.KindExpense
	}
	if kind != domain.KindIncome && kind != domain.KindExpense {
		return nil, &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
	}

	now := time.Now().UTC()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "month must be between 1 and 12"}
	}

	spendFilter := domain.TransactionFilter{Type: kind}
	if s.spendScope == SpendScopePeriod {
		spendFilter.Month = month
		spendFilter.Year = year
	}

	var (
		spend   map[string]float64
		budgets []domain.Budget
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := s.transactions.SumByCategory(gCtx, userID, spendFilter)
		if err != nil {
			s.metrics.IncrExternalError("transactions")
			return fmt.Errorf("spend fetch: %w", err)
		}
		spend = m
		return nil
	})

	g.Go(func() error {
		b, err := s.budgets.ListBudgets(gCtx, userID, month, year)
		if err != nil {
			s.metrics.IncrExternalError("budgets")
			return fmt.Errorf("budgets fetch: %w", err)
		}
		budgets = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := reconcile(spend, budgets)

	if kind == domain.KindExpense {
		s.dispatchOverspendAlerts(userID, report)
	}

	return report, nil
}

// dispatchOverspendAlerts emails the user about each overspent category.
// Runs detached from the request so a slow or failing mailer cannot delay
// or break the report.
func (s *AnalyticsService) dispatchOverspendAlerts(userID string, report []domain.CategoryStatus) {
	overspent := make([]domain.CategoryStatus, 0)
	for _, cs := range report {
		if cs.Status == domain.StatusOverspent {
			overspent = append(overspent, cs)
		}
	}
	if len(overspent) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			s.logger.Warn("overspend alert: user lookup failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return
		}

		for _, cs := range overspent {
			over := cs.Spent - cs.Budget
			subject := fmt.Sprintf("Budget alert: %s", titleCase(cs.Category))
			body := fmt.Sprintf("%s over by ₹%.2f", titleCase(cs.Category), over)

			if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
				s.logger.Warn("overspend alert: send failed",
					zap.String("user_id", userID),
					zap.String("category", cs.Category),
					zap.Error(err),
				)
				s.metrics.IncrExternalError("mailer")
				continue
			}
			s.metrics.IncrOverspendAlert()
			s.logger.Info("overspend alert sent",
				zap.String("user_id", userID),
				zap.String("category", cs.Category),
				zap.Float64("over", over),
			)
		}
	}()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// MonthlyReport returns income and expense totals per month of a year,
// defaulting to the current year. All twelve months are present even when
// empty.
func (s *AnalyticsService) MonthlyReport(ctx context.Context, userID string, year int) ([]domain.MonthlyTotal, error) {
	ctx, span := tracer.Start(ctx, "Analytics.MonthlyReport")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if year == 0 {
		year = time.Now().UTC().Year()
	}

	return s.transactions.MonthlyTotals(ctx, userID, year)
}
