package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/port"
)

// maxContextTransactions caps how many recent entries are fed to the model.
const maxContextTransactions = 20

// ChatbotService answers finance questions grounded in the user's own data.
type ChatbotService struct {
	transactions port.TransactionStore
	budgets      port.BudgetStore
	completer    port.ChatCompleter
	cache        port.Cache[string]
	metrics      *observability.Metrics
	logger       *zap.Logger
	spendScope   string
}

// NewChatbotService creates the chatbot service.
func NewChatbotService(
	transactions port.TransactionStore,
	budgets port.BudgetStore,
	completer port.ChatCompleter,
	cache port.Cache[string],
	metrics *observability.Metrics,
	logger *zap.Logger,
	spendScope string,
) *ChatbotService {
	if spendScope != SpendScopePeriod {
		spendScope = SpendScopeLifetime
	}
	return &ChatbotService{
		transactions: transactions,
		budgets:      budgets,
		completer:    completer,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		spendScope:   spendScope,
	}
}

// Chat sends the user's message to the model together with a summary of
// their recent transactions and budget standing.
func (s *ChatbotService) Chat(ctx context.Context, userID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Chatbot.Chat")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chatbot", time.Since(start))
	}()

	if strings.TrimSpace(req.Message) == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "message is required"}
	}

	finContext, err := s.financialContext(ctx, userID)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	completion, err := s.completer.Complete(ctx, []port.ChatMessage{
		{Role: "system", Content: systemPrompt(finContext)},
		{Role: "user", Content: req.Message},
	})
	if err != nil {
		s.logger.Error("chat completion failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("openrouter")
		s.metrics.IncrRequest("error")
		return nil, err
	}

	s.metrics.RecordTokens(completion.PromptTokens, completion.CompletionTokens)
	s.metrics.IncrRequest("success")

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	return &domain.ChatResponse{
		Response:       completion.Content,
		ConversationID: conversationID,
	}, nil
}

// financialContext builds (or reuses) the model-facing summary of the
// user's data. Transactions and budgets are fetched concurrently.
func (s *ChatbotService) financialContext(ctx context.Context, userID string) (string, error) {
	cacheKey := fmt.Sprintf("chat_context:%s", userID)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("chat_context")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("chat_context")

	now := time.Now().UTC()
	month, year := int(now.Month()), now.Year()

	spendFilter := domain.TransactionFilter{Type: domain.KindExpense}
	if s.spendScope == SpendScopePeriod {
		spendFilter.Month = month
		spendFilter.Year = year
	}

	var (
		recent  []domain.Transaction
		spend   map[string]float64
		budgets []domain.Budget
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.transactions.ListTransactions(gCtx, userID, domain.TransactionFilter{})
		if err != nil {
			s.metrics.IncrExternalError("transactions")
			return fmt.Errorf("transactions fetch: %w", err)
		}
		recent = t
		return nil
	})

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
		return "", err
	}

	summary := buildContextSummary(recent, reconcile(spend, budgets))
	s.cache.Set(cacheKey, summary)
	return summary, nil
}

func buildContextSummary(recent []domain.Transaction, report []domain.CategoryStatus) string {
	var b strings.Builder

	b.WriteString("Recent transactions:\n")
	if len(recent) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, t := range recent {
		if i >= maxContextTransactions {
			break
		}
		fmt.Fprintf(&b, "  %s %s %s ₹%.2f %s\n",
			t.Date.Format("2006-01-02"), t.Type, t.Category, t.Amount, t.Description)
	}

	b.WriteString("Budget standing by category:\n")
	if len(report) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, cs := range report {
		fmt.Fprintf(&b, "  %s: spent ₹%.2f of ₹%.2f (%s)\n",
			cs.Category, cs.Spent, cs.Budget, cs.Status)
	}

	return b.String()
}

func systemPrompt(finContext string) string {
	return "You are Expensio's personal finance assistant. Answer briefly and " +
		"practically, using Indian Rupees. Base every answer on the user's own " +
		"data below; say so when the data cannot answer the question.\n\n" + finContext
}
