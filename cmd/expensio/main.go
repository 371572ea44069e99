package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/config"
	"github.com/expensio-app/expensio-go/internal/handler"
	"github.com/expensio-app/expensio-go/internal/infra/cache"
	"github.com/expensio-app/expensio-go/internal/infra/client"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/infra/resilience"
	"github.com/expensio-app/expensio-go/internal/infra/supabase"
	"github.com/expensio-app/expensio-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_ttl", cfg.JWTTTL),
		zap.String("spend_scope", cfg.SpendScope),
		zap.Bool("dev_seed", cfg.DevSeed),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), "expensio-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	contextCache := cache.New[string](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	storeCB := resilience.NewCircuitBreaker("supabase")
	externalCB := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		storeCB,
		resilienceCfg,
		logger,
	)

	chatClient := client.NewOpenRouterClient(httpClient, cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.ChatModel, cfg.AppURL, externalCB, resilienceCfg)
	mailer := client.NewSendGridClient(httpClient, "https://api.sendgrid.com", cfg.SendGridAPIKey, cfg.FromEmail, externalCB, resilienceCfg)
	payments := client.NewRazorpayClient(httpClient, cfg.RazorpayURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, externalCB, resilienceCfg)

	// --- Services ---
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTTTL, logger)
	txSvc := service.NewTransactionService(store, logger)
	budgetSvc := service.NewBudgetService(store, logger)
	analyticsSvc := service.NewAnalyticsService(store, store, store, mailer, metrics, logger, cfg.SpendScope)
	billSvc := service.NewBillService(store, store, logger)
	chatbotSvc := service.NewChatbotService(store, store, chatClient, contextCache, metrics, logger, cfg.SpendScope)
	subscriptionSvc := service.NewSubscriptionService(payments, store, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger)
	planSvc := service.NewPlanService(store, logger)
	adminSvc := service.NewAdminService(store, store, metrics, logger)
	contactSvc := service.NewContactService(store, mailer, cfg.ContactInbox, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Auth:         authSvc,
		Transactions: txSvc,
		Budgets:      budgetSvc,
		Analytics:    analyticsSvc,
		Bills:        billSvc,
		Chatbot:      chatbotSvc,
		Subscription: subscriptionSvc,
		Plans:        planSvc,
		Admin:        adminSvc,
		Contact:      contactSvc,

		Store:   store,
		Metrics: metrics,
		Logger:  logger,

		AdminSecret:    cfg.AdminSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		DevSeed:        cfg.DevSeed,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
