package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/port"
)

// PlanService manages the pricing-page plans. Listing is public; mutations
// are admin-gated at the router.
type PlanService struct {
	store  port.PlanStore
	logger *zap.Logger
}

// NewPlanService creates the plan service.
func NewPlanService(store port.PlanStore, logger *zap.Logger) *PlanService {
	return &PlanService{store: store, logger: logger}
}

// List returns all plans, cheapest first.
func (s *PlanService) List(ctx context.Context) ([]domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Plans.List")
	defer span.End()

	return s.store.ListPlans(ctx)
}

// Create adds a plan.
func (s *PlanService) Create(ctx context.Context, in *domain.PlanInput) (*domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Plans.Create")
	defer span.End()

	if in.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if in.Price < 0 {
		return nil, &domain.ErrValidation{Field: "price", Message: "price cannot be negative"}
	}
	if in.Duration != "monthly" && in.Duration != "yearly" {
		return nil, &domain.ErrValidation{Field: "duration", Message: "duration must be monthly or yearly"}
	}

	plan, err := s.store.CreatePlan(ctx, &domain.Plan{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Price:     in.Price,
		Duration:  in.Duration,
		Features:  in.Features,
		IsPopular: in.IsPopular,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan created", zap.String("plan_id", plan.ID), zap.String("name", plan.Name))
	return plan, nil
}

// Update modifies a plan.
func (s *PlanService) Update(ctx context.Context, planID string, in *domain.PlanInput) (*domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Plans.Update")
	defer span.End()

	updates := make(map[string]any)
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if in.Price != 0 {
		if in.Price < 0 {
			return nil, &domain.ErrValidation{Field: "price", Message: "price cannot be negative"}
		}
		updates["price"] = in.Price
	}
	if in.Duration != "" {
		if in.Duration != "monthly" && in.Duration != "yearly" {
			return nil, &domain.ErrValidation{Field: "duration", Message: "duration must be monthly or yearly"}
		}
		updates["duration"] = in.Duration
	}
	if in.Features != nil {
		updates["features"] = in.Features
	}
	updates["is_popular"] = in.IsPopular

	return s.store.UpdatePlan(ctx, planID, updates)
}

// Delete removes a plan.
func (s *PlanService) Delete(ctx context.Context, planID string) error {
	ctx, span := tracer.Start(ctx, "Plans.Delete")
	defer span.End()

	return s.store.DeletePlan(ctx, planID)
}
