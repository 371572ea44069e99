// Package handler wires the HTTP surface: routing, middleware, request
// decoding and error mapping.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/observability"
	"github.com/expensio-app/expensio-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router needs.
type Deps struct {
	Auth         *service.AuthService
	Transactions *service.TransactionService
	Budgets      *service.BudgetService
	Analytics    *service.AnalyticsService
	Bills        *service.BillService
	Chatbot      *service.ChatbotService
	Subscription *service.SubscriptionService
	Plans        *service.PlanService
	Admin        *service.AdminService
	Contact      *service.ContactService

	Store   Pinger
	Metrics *observability.Metrics
	Logger  *zap.Logger

	AdminSecret    string
	AllowedOrigins []string
	DevSeed        bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Store))
	r.Get("/readyz", readyzHandler())
	r.Get("/api/health", healthzHandler(d.Store))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API ---
	r.Route("/api", func(r chi.Router) {

		// Auth (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(d.Auth, d.Logger))
			r.Post("/signup", authSignupHandler(d.Auth, d.Logger))
			r.Post("/login", authLoginHandler(d.Auth, d.Logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(d.Auth, d.Logger))
				r.Get("/me", authMeHandler(d.Auth, d.Logger))
				r.Put("/update-profile", authUpdateProfileHandler(d.Auth, d.Logger))
			})
		})

		// Plans (listing is public, mutations are admin-only below)
		r.Get("/plans", listPlansHandler(d.Plans, d.Logger))

		// Authenticated API
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.Auth, d.Logger))

			// Transactions
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", listTransactionsHandler(d.Transactions, d.Logger))
				r.Post("/", createTransactionHandler(d.Transactions, d.Logger))
				r.Post("/upload-receipt", uploadReceiptHandler(d.Transactions, d.Logger))
				r.Put("/{transactionId}", updateTransactionHandler(d.Transactions, d.Logger))
				r.Delete("/{transactionId}", deleteTransactionHandler(d.Transactions, d.Logger))
			})

			// Budgets
			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", listBudgetsHandler(d.Budgets, d.Logger))
				r.Post("/", setBudgetHandler(d.Budgets, d.Logger))
				r.Put("/{budgetId}", updateBudgetHandler(d.Budgets, d.Logger))
				r.Delete("/{budgetId}", deleteBudgetHandler(d.Budgets, d.Logger))
			})

			// Analytics
			r.Get("/analytics/category", categoryReportHandler(d.Analytics, d.Logger))
			r.Get("/analytics/monthly", monthlyReportHandler(d.Analytics, d.Logger))

			// Bills
			r.Route("/bills", func(r chi.Router) {
				r.Get("/", listBillsHandler(d.Bills, d.Logger))
				r.Post("/", createBillHandler(d.Bills, d.Logger))
				r.Post("/{billId}/pay", payBillHandler(d.Bills, d.Logger))
				r.Put("/{billId}/pay", payBillHandler(d.Bills, d.Logger))
				r.Put("/{billId}", updateBillHandler(d.Bills, d.Logger))
				r.Delete("/{billId}", deleteBillHandler(d.Bills, d.Logger))
			})

			// Receipt upload alias kept for older clients.
			r.Post("/upload-receipt", uploadReceiptHandler(d.Transactions, d.Logger))

			// Chatbot
			r.Post("/chatbot", chatbotHandler(d.Chatbot, d.Logger))

			// Subscription
			r.Post("/subscription/create-order", createOrderHandler(d.Subscription, d.Logger))
			r.Post("/subscription/verify", verifyPaymentHandler(d.Subscription, d.Logger))

			// Contact
			r.Post("/contact", contactHandler(d.Contact, d.Logger))

			// Dev helper, disabled unless explicitly enabled
			if d.DevSeed {
				r.Post("/dev/seed", devSeedHandler(d.Transactions, d.Logger))
			}

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(AdminMiddleware(d.AdminSecret, d.Logger))

				r.Get("/admin/overview", adminOverviewHandler(d.Admin, d.Logger))
				r.Get("/admin/users", adminUsersHandler(d.Admin, d.Logger))
				r.Put("/admin/users/{userId}/subscription", adminSetSubscriptionHandler(d.Admin, d.Logger))
				r.Get("/admin/how-to-use", adminGetHowToHandler(d.Admin))
				r.Put("/admin/how-to-use", adminUpdateHowToHandler(d.Admin, d.Logger))
				r.Get("/admin/metrics", adminMetricsHandler(d.Admin))

				r.Post("/plans", createPlanHandler(d.Plans, d.Logger))
				r.Put("/plans/{planId}", updatePlanHandler(d.Plans, d.Logger))
				r.Delete("/plans/{planId}", deletePlanHandler(d.Plans, d.Logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "expensio-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// devSeedHandler creates a handful of sample transactions for the caller.
func devSeedHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	samples := []domain.TransactionInput{
		{Type: domain.KindIncome, Category: "salary", Amount: 50000, Description: "Monthly salary"},
		{Type: domain.KindExpense, Category: "food", Amount: 1200, Description: "Groceries"},
		{Type: domain.KindExpense, Category: "transport", Amount: 450, Description: "Metro card"},
		{Type: domain.KindExpense, Category: "entertainment", Amount: 799, Description: "Streaming"},
		{Type: domain.KindExpense, Category: "utilities", Amount: 2100, Description: "Electricity"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/dev/seed")
		defer span.End()

		userID := UserIDFromContext(ctx)
		created := 0
		for i := range samples {
			in := samples[i]
			if _, err := svc.Create(ctx, userID, &in); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			created++
		}

		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "created": created})
	}
}
