package service

import (
	"sort"

	"github.com/expensio-app/expensio-go/internal/domain"
)

// reconcile merges actual spend per category with the budgeted limits for
// the period and derives a status record per category. The union of both
// key sets is covered: spend without a budget surfaces as no-budget, and an
// untouched budget shows up with zero spend.
//
// Status thresholds are strict: exactly 80% is still good, exactly 100% is
// still warning.
func reconcile(spend map[string]float64, budgets []domain.Budget) []domain.CategoryStatus {
	limits := make(map[string]float64, len(budgets))
	for _, b := range budgets {
		limits[b.Category] = b.Limit
	}

	categories := make(map[string]struct{}, len(spend)+len(limits))
	for c := range spend {
		categories[c] = struct{}{}
	}
	for c := range limits {
		categories[c] = struct{}{}
	}

	out := make([]domain.CategoryStatus, 0, len(categories))
	for c := range categories {
		spent := spend[c]
		budget := limits[c]

		cs := domain.CategoryStatus{
			Category:  c,
			Spent:     spent,
			Budget:    budget,
			Remaining: budget - spent,
		}

		switch {
		case budget <= 0:
			cs.Status = domain.StatusNoBudget
		default:
			cs.Percentage = spent / budget * 100
			switch {
			case cs.Percentage > 100:
				cs.Status = domain.StatusOverspent
			case cs.Percentage > 80:
				cs.Status = domain.StatusWarning
			default:
				cs.Status = domain.StatusGood
			}
		}

		out = append(out, cs)
	}

	// Highest spend first; category name breaks ties deterministically.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spent != out[j].Spent {
			return out[i].Spent > out[j].Spent
		}
		return out[i].Category < out[j].Category
	})

	return out
}
