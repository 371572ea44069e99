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

// TransactionService handles CRUD for income and expense entries.
type TransactionService struct {
	store  port.TransactionStore
	logger *zap.Logger
}

// NewTransactionService creates the transaction service.
func NewTransactionService(store port.TransactionStore, logger *zap.Logger) *TransactionService {
	return &TransactionService{store: store, logger: logger}
}

func validateTransactionInput(in *domain.TransactionInput) error {
	if in.Type != domain.KindIncome && in.Type != domain.KindExpense {
		return &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
	}
	if in.Category == "" {
		return &domain.ErrValidation{Field: "category", Message: "category is required"}
	}
	if in.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	return nil
}

// parseInputDate accepts RFC3339 or plain YYYY-MM-DD; empty means now.
func parseInputDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: "date", Message: "date must be YYYY-MM-DD or RFC3339"}
	}
	return t, nil
}

// Create records a new transaction for the user.
func (s *TransactionService) Create(ctx context.Context, userID string, in *domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Transactions.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := validateTransactionInput(in); err != nil {
		return nil, err
	}
	date, err := parseInputDate(in.Date)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.CreateTransaction(ctx, &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        in.Type,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("user_id", userID),
		zap.String("transaction_id", tx.ID),
		zap.String("type", tx.Type),
	)
	return tx, nil
}

// List returns the user's transactions, newest first, honoring the filter.
func (s *TransactionService) List(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Transactions.List")
	defer span.End()

	if filter.Month < 0 || filter.Month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "month must be between 1 and 12"}
	}
	if filter.Month != 0 && filter.Year == 0 {
		// A month alone is ambiguous; anchor it to the current year.
		filter.Year = time.Now().UTC().Year()
	}
	if filter.Type != "" && filter.Type != domain.KindIncome && filter.Type != domain.KindExpense {
		return nil, &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
	}

	return s.store.ListTransactions(ctx, userID, filter)
}

// Update modifies fields of an existing transaction owned by the user.
func (s *TransactionService) Update(ctx context.Context, userID, txID string, in *domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Transactions.Update")
	defer span.End()

	updates := make(map[string]any)
	if in.Type != "" {
		if in.Type != domain.KindIncome && in.Type != domain.KindExpense {
			return nil, &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
		}
		updates["type"] = in.Type
	}
	if in.Category != "" {
		updates["category"] = in.Category
	}
	if in.Amount != 0 {
		if in.Amount < 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
		}
		updates["amount"] = in.Amount
	}
	if in.Description != "" {
		updates["description"] = in.Description
	}
	if in.Date != "" {
		date, err := parseInputDate(in.Date)
		if err != nil {
			return nil, err
		}
		updates["date"] = date.Format(time.RFC3339)
	}

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "nothing to update"}
	}

	return s.store.UpdateTransaction(ctx, userID, txID, updates)
}

// Delete removes a transaction owned by the user.
func (s *TransactionService) Delete(ctx context.Context, userID, txID string) error {
	ctx, span := tracer.Start(ctx, "Transactions.Delete")
	defer span.End()

	return s.store.DeleteTransaction(ctx, userID, txID)
}

// ProcessReceipt records a transaction from an uploaded receipt. Receipt
// parsing is not implemented; the endpoint returns a fixed placeholder
// expense so the client flow can be exercised end to end.
func (s *TransactionService) ProcessReceipt(ctx context.Context, userID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Transactions.ProcessReceipt")
	defer span.End()

	return s.Create(ctx, userID, &domain.TransactionInput{
		Type:        domain.KindExpense,
		Category:    "food",
		Amount:      100,
		Description: "Receipt upload",
	})
}
