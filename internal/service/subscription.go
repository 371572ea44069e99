package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/port"
)

// Order amounts in paise per plan.
const (
	monthlyPlanAmount = 100
	yearlyPlanAmount  = 1000
)

// SubscriptionService drives the premium upgrade flow: order creation with
// the payment gateway and local signature verification.
type SubscriptionService struct {
	gateway   port.PaymentGateway
	users     port.UserStore
	keyID     string
	keySecret string
	logger    *zap.Logger
}

// NewSubscriptionService creates the subscription service.
func NewSubscriptionService(gateway port.PaymentGateway, users port.UserStore, keyID, keySecret string, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		gateway:   gateway,
		users:     users,
		keyID:     keyID,
		keySecret: keySecret,
		logger:    logger,
	}
}

// CreateOrder registers a payment order for the chosen plan and returns
// what the checkout widget needs.
func (s *SubscriptionService) CreateOrder(ctx context.Context, userID string, req *domain.CreateOrderRequest) (*domain.OrderResponse, error) {
	ctx, span := tracer.Start(ctx, "Subscription.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("plan", req.Plan),
	)

	var amount int64
	switch req.Plan {
	case "monthly":
		amount = monthlyPlanAmount
	case "yearly":
		amount = yearlyPlanAmount
	default:
		return nil, &domain.ErrValidation{Field: "plan", Message: "plan must be monthly or yearly"}
	}

	receipt := fmt.Sprintf("rec_%d", time.Now().UnixMilli())
	order, err := s.gateway.CreateOrder(ctx, amount, "INR", receipt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment order created",
		zap.String("user_id", userID),
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount),
	)

	return &domain.OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Key:      s.keyID,
	}, nil
}

// VerifyPayment checks the gateway signature for an order/payment pair and,
// when valid, upgrades the user to premium. The check is a local HMAC over
// "orderId|paymentId" with the key secret; no gateway round trip needed.
func (s *SubscriptionService) VerifyPayment(ctx context.Context, userID string, req *domain.VerifyPaymentRequest) error {
	ctx, span := tracer.Start(ctx, "Subscription.VerifyPayment")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return &domain.ErrValidation{Field: "body", Message: "orderId, paymentId and signature are required"}
	}

	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(req.OrderID + "|" + req.PaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		s.logger.Warn("payment signature mismatch",
			zap.String("user_id", userID),
			zap.String("order_id", req.OrderID),
		)
		return &domain.ErrUnauthorized{Message: "invalid payment signature"}
	}

	if _, err := s.users.UpdateUser(ctx, userID, map[string]any{"is_premium": true}); err != nil {
		return err
	}

	s.logger.Info("user upgraded to premium",
		zap.String("user_id", userID),
		zap.String("order_id", req.OrderID),
	)
	return nil
}
