package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/resilience"
)

// supabasePlan maps the plans table columns. Features is a jsonb array.
type supabasePlan struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Duration  string   `json:"duration"`
	Features  []string `json:"features"`
	IsPopular bool     `json:"is_popular"`
}

func (p supabasePlan) toDomain() domain.Plan {
	return domain.Plan{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Duration:  p.Duration,
		Features:  p.Features,
		IsPopular: p.IsPopular,
	}
}

// ListPlans fetches all subscription plans, cheapest first.
func (c *Client) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPlans")
	defer span.End()

	var plans []domain.Plan

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "plans?order=price.asc")
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				plans = []domain.Plan{}
				return nil
			}

			var rows []supabasePlan
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode plans: %w", err)
			}

			plans = make([]domain.Plan, 0, len(rows))
			for _, r := range rows {
				plans = append(plans, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/plans", Err: err}
	}

	return plans, nil
}

// CreatePlan inserts a plan row.
func (c *Client) CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePlan")
	defer span.End()

	var created *domain.Plan

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "plans", map[string]any{
				"id":         plan.ID,
				"name":       plan.Name,
				"price":      plan.Price,
				"duration":   plan.Duration,
				"features":   plan.Features,
				"is_popular": plan.IsPopular,
			})
			if err != nil {
				return err
			}

			var rows []supabasePlan
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode created plan: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("insert returned no row")
			}

			p := rows[0].toDomain()
			created = &p
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/plans", Err: err}
	}

	return created, nil
}

// UpdatePlan patches a plan and returns the updated row.
func (c *Client) UpdatePlan(ctx context.Context, planID string, updates map[string]any) (*domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePlan")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", planID))

	var updated *domain.Plan

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("plans?id=eq.%s", url.QueryEscape(planID))
			body, err := c.doPatchReturning(ctx, path, updates)
			if err != nil {
				return err
			}

			var rows []supabasePlan
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode updated plan: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "plan", ID: planID}
			}

			p := rows[0].toDomain()
			updated = &p
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/plans", Err: err}
	}

	return updated, nil
}

// DeletePlan removes a plan.
func (c *Client) DeletePlan(ctx context.Context, planID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePlan")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", planID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("plans?id=eq.%s", url.QueryEscape(planID))
			body, err := c.doDelete(ctx, path)
			if err != nil {
				return err
			}
			if len(body) == 0 || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "plan", ID: planID}
			}
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/plans", Err: err}
	}

	return nil
}
