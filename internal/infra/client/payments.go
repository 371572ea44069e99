package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/resilience"
)

// RazorpayClient creates payment orders via the Razorpay Orders API.
type RazorpayClient struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewRazorpayClient creates a new RazorpayClient. baseURL is overridable for
// tests; production uses https://api.razorpay.com.
func NewRazorpayClient(httpClient *http.Client, baseURL, keyID, keySecret string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *RazorpayClient {
	return &RazorpayClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		cb:         cb,
		cfg:        cfg,
	}
}

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"` // smallest currency unit
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers a new order with the gateway.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*domain.PaymentOrder, error) {
	ctx, span := tracer.Start(ctx, "RazorpayClient.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.amount", amount),
		attribute.String("order.currency", currency),
	)

	var order domain.PaymentOrder

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(razorpayOrderRequest{
				Amount:   amount,
				Currency: currency,
				Receipt:  receipt,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/orders", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.SetBasicAuth(c.keyID, c.keySecret)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("razorpay API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&order)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &order, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "razorpay", Err: err}
	}

	return result.(*domain.PaymentOrder), nil
}
