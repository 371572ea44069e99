package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/port"
)

// BudgetService handles per-category monthly spending limits.
type BudgetService struct {
	store  port.BudgetStore
	logger *zap.Logger
}

// NewBudgetService creates the budget service.
func NewBudgetService(store port.BudgetStore, logger *zap.Logger) *BudgetService {
	return &BudgetService{store: store, logger: logger}
}

// Set creates the budget for (category, month, year) or overwrites the limit
// if one already exists. Month and year default to the current period.
func (s *BudgetService) Set(ctx context.Context, userID string, in *domain.BudgetInput) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Budgets.Set")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if in.Category == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "category is required"}
	}
	if in.Limit <= 0 {
		return nil, &domain.ErrValidation{Field: "limit", Message: "limit must be positive"}
	}

	now := time.Now().UTC()
	month, year := in.Month, in.Year
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "month must be between 1 and 12"}
	}

	budget, err := s.store.UpsertBudget(ctx, &domain.Budget{
		ID:       uuid.NewString(),
		UserID:   userID,
		Category: in.Category,
		Month:    month,
		Year:     year,
		Limit:    in.Limit,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("budget set",
		zap.String("user_id", userID),
		zap.String("category", budget.Category),
		zap.Int("month", budget.Month),
		zap.Int("year", budget.Year),
	)
	return budget, nil
}

// List returns the user's budgets. Month and year narrow the list when
// given; without them every period is returned.
func (s *BudgetService) List(ctx context.Context, userID string, month, year int) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Budgets.List")
	defer span.End()

	if month != 0 && (month < 1 || month > 12) {
		return nil, &domain.ErrValidation{Field: "month", Message: "month must be between 1 and 12"}
	}

	return s.store.ListBudgets(ctx, userID, month, year)
}

// Update changes the limit (and optionally category) of a budget.
func (s *BudgetService) Update(ctx context.Context, userID, budgetID string, in *domain.BudgetInput) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Budgets.Update")
	defer span.End()

	updates := make(map[string]any)
	if in.Category != "" {
		updates["category"] = in.Category
	}
	if in.Limit != 0 {
		if in.Limit < 0 {
			return nil, &domain.ErrValidation{Field: "limit", Message: "limit must be positive"}
		}
		updates["limit_amount"] = in.Limit
	}
	if in.Month != 0 {
		if in.Month < 1 || in.Month > 12 {
			return nil, &domain.ErrValidation{Field: "month", Message: "month must be between 1 and 12"}
		}
		updates["month"] = in.Month
	}
	if in.Year != 0 {
		updates["year"] = in.Year
	}

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "nothing to update"}
	}

	return s.store.UpdateBudget(ctx, userID, budgetID, updates)
}

// Delete removes a budget owned by the user.
func (s *BudgetService) Delete(ctx context.Context, userID, budgetID string) error {
	ctx, span := tracer.Start(ctx, "Budgets.Delete")
	defer span.End()

	return s.store.DeleteBudget(ctx, userID, budgetID)
}
