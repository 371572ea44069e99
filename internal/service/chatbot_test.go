package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/cache"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/service"
)

func newChatbot(tx *mockTransactionStore, budgets *mockBudgetStore, completer *mockCompleter) *service.ChatbotService {
	return service.NewChatbotService(
		tx,
		budgets,
		completer,
		cache.New[string](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
		service.SpendScopeLifetime,
	)
}

func TestChat_Success(t *testing.T) {
	tx := &mockTransactionStore{
		transactions: []domain.Transaction{
			{Type: "expense", Category: "food", Amount: 450, Description: "Lunch", Date: time.Now()},
		},
		sums: map[string]float64{"food": 450},
	}
	budgets := &mockBudgetStore{budgets: []domain.Budget{{Category: "food", Limit: 2000}}}
	completer := &mockCompleter{completion: &domain.ChatCompletion{
		Content:          "You spent ₹450 on food this month.",
		PromptTokens:     320,
		CompletionTokens: 40,
	}}

	svc := newChatbot(tx, budgets, completer)

	resp, err := svc.Chat(context.Background(), "u-1", &domain.ChatRequest{Message: "How much did I spend on food?"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Response != "You spent ₹450 on food this month." {
		t.Errorf("unexpected response: %q", resp.Response)
	}
	if resp.ConversationID == "" {
		t.Error("expected a generated conversation id")
	}

	// The model gets a system prompt grounded in the user's data plus the
	// user message.
	if len(completer.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(completer.messages))
	}
	if completer.messages[0].Role != "system" || !strings.Contains(completer.messages[0].Content, "food") {
		t.Errorf("system message missing financial context: %q", completer.messages[0].Content)
	}
	if completer.messages[1].Role != "user" {
		t.Errorf("expected user message second, got role %q", completer.messages[1].Role)
	}
}

func TestChat_ConversationIDPassthrough(t *testing.T) {
	completer := &mockCompleter{completion: &domain.ChatCompletion{Content: "ok"}}
	svc := newChatbot(&mockTransactionStore{}, &mockBudgetStore{}, completer)

	resp, err := svc.Chat(context.Background(), "u-1", &domain.ChatRequest{
		Message:        "hello",
		ConversationID: "conv-42",
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.ConversationID != "conv-42" {
		t.Errorf("expected conversation id passthrough, got %q", resp.ConversationID)
	}
}

func TestChat_ContextCached(t *testing.T) {
	tx := &mockTransactionStore{sums: map[string]float64{}}
	completer := &mockCompleter{completion: &domain.ChatCompletion{Content: "ok"}}
	svc := newChatbot(tx, &mockBudgetStore{}, completer)

	for i := 0; i < 3; i++ {
		if _, err := svc.Chat(context.Background(), "u-1", &domain.ChatRequest{Message: "hi"}); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}

	// Store hit once, model hit every time.
	tx.mu.Lock()
	sumCalls := tx.sumCalls
	tx.mu.Unlock()
	if sumCalls != 1 {
		t.Errorf("expected 1 context build, got %d store calls", sumCalls)
	}
	if completer.calls != 3 {
		t.Errorf("expected 3 completions, got %d", completer.calls)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	svc := newChatbot(&mockTransactionStore{}, &mockBudgetStore{}, &mockCompleter{})

	_, err := svc.Chat(context.Background(), "u-1", &domain.ChatRequest{Message: "   "})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChat_CompleterError(t *testing.T) {
	completer := &mockCompleter{err: errors.New("model unavailable")}
	svc := newChatbot(&mockTransactionStore{}, &mockBudgetStore{}, completer)

	if _, err := svc.Chat(context.Background(), "u-1", &domain.ChatRequest{Message: "hi"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestChat_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newChatbot(&mockTransactionStore{}, &mockBudgetStore{}, &mockCompleter{completion: &domain.ChatCompletion{Content: "ok"}})

	if _, err := svc.Chat(ctx, "u-1", &domain.ChatRequest{Message: "hi"}); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
