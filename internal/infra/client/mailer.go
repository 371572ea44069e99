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

// SendGridClient sends mail through the SendGrid v3 API.
type SendGridClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	fromEmail  string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewSendGridClient creates a new SendGridClient. baseURL is overridable for
// tests; production uses https://api.sendgrid.com.
func NewSendGridClient(httpClient *http.Client, baseURL, apiKey, fromEmail string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *SendGridClient {
	return &SendGridClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		cb:         cb,
		cfg:        cfg,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridMail struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendGridAddress `json:"from"`
	Subject string          `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func newSendGridMail(from, to, subject, body string) *sendGridMail {
	m := &sendGridMail{
		From:    sendGridAddress{Email: from},
		Subject: subject,
	}
	m.Personalizations = []struct {
		To []sendGridAddress `json:"to"`
	}{{To: []sendGridAddress{{Email: to}}}}
	m.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/plain", Value: body}}
	return m
}

// Send delivers one plain-text email.
func (c *SendGridClient) Send(ctx context.Context, to, subject, body string) error {
	ctx, span := tracer.Start(ctx, "SendGridClient.Send")
	defer span.End()
	span.SetAttributes(attribute.String("mail.subject", subject))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			payload, err := json.Marshal(newSendGridMail(c.fromEmail, to, subject, body))
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v3/mail/send", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			// SendGrid answers 202 Accepted on success.
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("sendgrid API returned status %d", resp.StatusCode)
			}
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "sendgrid", Err: err}
	}

	return nil
}
