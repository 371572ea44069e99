package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/port"
)

// dueSoonWindow is how far ahead a bill counts as due-soon.
const dueSoonWindow = 7 * 24 * time.Hour

// BillService handles recurring bill lifecycle: creation, due tracking,
// payment and successor scheduling.
type BillService struct {
	bills        port.BillStore
	transactions port.TransactionStore
	logger       *zap.Logger
}

// NewBillService creates the bill service.
func NewBillService(bills port.BillStore, transactions port.TransactionStore, logger *zap.Logger) *BillService {
	return &BillService{bills: bills, transactions: transactions, logger: logger}
}

func validRecurrence(r string) bool {
	switch r {
	case domain.RecurrenceOneTime, domain.RecurrenceWeekly, domain.RecurrenceMonthly, domain.RecurrenceYearly:
		return true
	}
	return false
}

// Create records a new unpaid bill.
func (s *BillService) Create(ctx context.Context, userID string, in *domain.BillInput) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Bills.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if in.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if in.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if in.Category == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "category is required"}
	}
	if in.DueDate == "" {
		return nil, &domain.ErrValidation{Field: "due_date", Message: "due_date is required"}
	}
	dueDate, err := parseInputDate(in.DueDate)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "due_date", Message: "due_date must be YYYY-MM-DD or RFC3339"}
	}
	recurring := in.Recurring
	if recurring == "" {
		recurring = domain.RecurrenceOneTime
	}
	if !validRecurrence(recurring) {
		return nil, &domain.ErrValidation{Field: "recurring", Message: "recurring must be one-time, weekly, monthly or yearly"}
	}

	bill, err := s.bills.CreateBill(ctx, &domain.Bill{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		Amount:    in.Amount,
		DueDate:   dueDate,
		Category:  in.Category,
		Recurring: recurring,
		Paid:      false,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bill created",
		zap.String("user_id", userID),
		zap.String("bill_id", bill.ID),
		zap.String("recurring", bill.Recurring),
	)
	return bill, nil
}

// List returns the user's bills with the due status derived for unpaid
// ones: overdue when past due, due-soon within the next seven days.
func (s *BillService) List(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Bills.List")
	defer span.End()

	bills, err := s.bills.ListBills(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range bills {
		bills[i].DueStatus = dueStatus(&bills[i], now)
	}
	return bills, nil
}

func dueStatus(bill *domain.Bill, now time.Time) string {
	if bill.Paid {
		return ""
	}
	until := bill.DueDate.Sub(now)
	switch {
	case until < 0:
		return domain.DueStatusOverdue
	case until <= dueSoonWindow:
		return domain.DueStatusDueSoon
	}
	return ""
}

// Pay marks a bill paid exactly once, records the matching expense
// transaction, and for recurring bills schedules the next occurrence. The
// store's conditional update is the only gate: a second concurrent payment
// sees no matching row and gets a conflict.
func (s *BillService) Pay(ctx context.Context, userID, billID string) (*domain.PayBillResult, error) {
	ctx, span := tracer.Start(ctx, "Bills.Pay")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	bill, err := s.bills.MarkBillPaid(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		// The conditional update matched nothing: either the bill is gone
		// or it was already paid. Look it up to tell the two apart.
		existing, err := s.bills.GetBill(ctx, userID, billID)
		if err != nil {
			return nil, err
		}
		if existing.Paid {
			return nil, &domain.ErrConflict{Message: "bill already paid"}
		}
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}

	tx, err := s.transactions.CreateTransaction(ctx, &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        domain.KindExpense,
		Category:    bill.Category,
		Amount:      bill.Amount,
		Description: fmt.Sprintf("Paid bill: %s", bill.Name),
		Date:        time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		// The payment itself is committed; surface the bookkeeping failure.
		s.logger.Error("bill paid but expense record failed",
			zap.String("bill_id", billID),
			zap.Error(err),
		)
		return nil, err
	}

	if bill.Recurring != domain.RecurrenceOneTime {
		next := &domain.Bill{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      bill.Name,
			Amount:    bill.Amount,
			DueDate:   nextDueDate(bill.DueDate, bill.Recurring),
			Category:  bill.Category,
			Recurring: bill.Recurring,
			Paid:      false,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := s.bills.CreateBill(ctx, next); err != nil {
			// Payment and expense stand; only the next occurrence is lost.
			s.logger.Error("failed to schedule next bill occurrence",
				zap.String("bill_id", billID),
				zap.Error(err),
			)
		} else {
			s.logger.Info("next bill occurrence scheduled",
				zap.String("bill_id", next.ID),
				zap.Time("due_date", next.DueDate),
			)
		}
	}

	return &domain.PayBillResult{Bill: bill, Transaction: tx}, nil
}

// nextDueDate advances from the bill's current due date, not from the
// payment date, so an early or late payment never shifts the schedule.
func nextDueDate(due time.Time, recurrence string) time.Time {
	switch recurrence {
	case domain.RecurrenceWeekly:
		return due.AddDate(0, 0, 7)
	case domain.RecurrenceYearly:
		return due.AddDate(1, 0, 0)
	default: // monthly
		return due.AddDate(0, 1, 0)
	}
}

// Update modifies fields of an unpaid or paid bill owned by the user.
func (s *BillService) Update(ctx context.Context, userID, billID string, in *domain.BillInput) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Bills.Update")
	defer span.End()

	updates := make(map[string]any)
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if in.Amount != 0 {
		if in.Amount < 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
		}
		updates["amount"] = in.Amount
	}
	if in.Category != "" {
		updates["category"] = in.Category
	}
	if in.DueDate != "" {
		dueDate, err := parseInputDate(in.DueDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "due_date", Message: "due_date must be YYYY-MM-DD or RFC3339"}
		}
		updates["due_date"] = dueDate.Format(time.RFC3339)
	}
	if in.Recurring != "" {
		if !validRecurrence(in.Recurring) {
			return nil, &domain.ErrValidation{Field: "recurring", Message: "recurring must be one-time, weekly, monthly or yearly"}
		}
		updates["recurring"] = in.Recurring
	}

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "nothing to update"}
	}

	return s.bills.UpdateBill(ctx, userID, billID, updates)
}

// Delete removes a bill owned by the user.
func (s *BillService) Delete(ctx context.Context, userID, billID string) error {
	ctx, span := tracer.Start(ctx, "Bills.Delete")
	defer span.End()

	return s.bills.DeleteBill(ctx, userID, billID)
}
