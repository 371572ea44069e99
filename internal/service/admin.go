package service

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/port"
)

// AdminService backs the admin panel: platform counters, user management
// and the editable how-to-use content.
type AdminService struct {
	users        port.UserStore
	transactions port.TransactionStore
	metrics      *observability.Metrics
	logger       *zap.Logger

	mu    sync.RWMutex
	howTo []domain.HowToSection
}

// NewAdminService creates the admin service with the default how-to content.
func NewAdminService(users port.UserStore, transactions port.TransactionStore, metrics *observability.Metrics, logger *zap.Logger) *AdminService {
	return &AdminService{
		users:        users,
		transactions: transactions,
		metrics:      metrics,
		logger:       logger,
		howTo:        defaultHowTo(),
	}
}

func defaultHowTo() []domain.HowToSection {
	return []domain.HowToSection{
		{ID: 1, Title: "Track your money", Body: "Add income and expenses as they happen; the dashboard updates instantly."},
		{ID: 2, Title: "Set category budgets", Body: "Give each spending category a monthly limit and watch the progress bars."},
		{ID: 3, Title: "Never miss a bill", Body: "Add recurring bills and pay them from the app; the next one is scheduled automatically."},
		{ID: 4, Title: "Ask the assistant", Body: "The chatbot answers questions about your own spending and budgets."},
	}
}

// Overview aggregates platform-wide counters for the dashboard. User counts
// and transaction sums come from independent queries, fetched concurrently.
func (s *AdminService) Overview(ctx context.Context) (*domain.AdminOverview, error) {
	ctx, span := tracer.Start(ctx, "Admin.Overview")
	defer span.End()

	var (
		total, premium int
		sums           map[string]float64
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, p, err := s.users.CountUsers(gCtx)
		if err != nil {
			return fmt.Errorf("user counts: %w", err)
		}
		total, premium = t, p
		return nil
	})

	g.Go(func() error {
		m, err := s.transactions.SumByType(gCtx)
		if err != nil {
			return fmt.Errorf("transaction sums: %w", err)
		}
		sums = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.AdminOverview{
		TotalUsers:   total,
		PremiumUsers: premium,
		FreeUsers:    total - premium,
		TotalIncome:  sums[domain.KindIncome],
		TotalExpense: sums[domain.KindExpense],
	}, nil
}

// ListUsers returns every account in the reduced admin view.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.AdminUser, error) {
	ctx, span := tracer.Start(ctx, "Admin.ListUsers")
	defer span.End()

	return s.users.ListUsers(ctx)
}

// SetSubscription switches a user between the free and pro tiers.
func (s *AdminService) SetSubscription(ctx context.Context, userID, plan string) (*domain.AdminUser, error) {
	ctx, span := tracer.Start(ctx, "Admin.SetSubscription")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("plan", plan))

	if plan != "pro" && plan != "free" {
		return nil, &domain.ErrValidation{Field: "plan", Message: "plan must be free or pro"}
	}

	user, err := s.users.SetPremium(ctx, userID, plan == "pro")
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription changed by admin",
		zap.String("user_id", userID),
		zap.String("plan", plan),
	)
	return user, nil
}

// HowTo returns the current how-to-use sections.
func (s *AdminService) HowTo(_ context.Context) []domain.HowToSection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.HowToSection, len(s.howTo))
	copy(out, s.howTo)
	return out
}

// UpdateHowTo replaces the how-to-use content. Kept in memory; the content
// is seeded on startup and edited rarely.
func (s *AdminService) UpdateHowTo(_ context.Context, sections []domain.HowToSection) error {
	if len(sections) == 0 {
		return &domain.ErrValidation{Field: "sections", Message: "at least one section is required"}
	}
	for _, sec := range sections {
		if sec.Title == "" {
			return &domain.ErrValidation{Field: "title", Message: "section title is required"}
		}
	}

	s.mu.Lock()
	s.howTo = make([]domain.HowToSection, len(sections))
	copy(s.howTo, sections)
	s.mu.Unlock()

	s.logger.Info("how-to content updated", zap.Int("sections", len(sections)))
	return nil
}

// Metrics returns the service counters snapshot.
func (s *AdminService) Metrics(_ context.Context) *domain.ServiceMetrics {
	return s.metrics.GetSnapshot()
}
