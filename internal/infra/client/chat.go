// Package client provides HTTP clients for external services:
// the OpenRouter LLM gateway, SendGrid mail and the Razorpay
// payments API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/resilience"
	"github.com/expensio-app/expensio-go/internal/port"
)

var tracer = otel.Tracer("client")

// OpenRouterClient calls the OpenRouter chat completions API.
type OpenRouterClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	referer    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewOpenRouterClient creates a new OpenRouterClient. referer is sent as the
// HTTP-Referer header, which OpenRouter uses for app attribution.
func NewOpenRouterClient(httpClient *http.Client, baseURL, apiKey, model, referer string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *OpenRouterClient {
	return &OpenRouterClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		referer:    referer,
		cb:         cb,
		cfg:        cfg,
	}
}

type chatCompletionRequest struct {
	Model    string             `json:"model"`
	Messages []port.ChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends the conversation to the model and returns its reply.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []port.ChatMessage) (*domain.ChatCompletion, error) {
	ctx, span := tracer.Start(ctx, "OpenRouterClient.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	var completion domain.ChatCompletion

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(chatCompletionRequest{
				Model:    c.model,
				Messages: messages,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
			httpReq.Header.Set("HTTP-Referer", c.referer)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("openrouter API returned status %d", resp.StatusCode)
			}

			var decoded chatCompletionResponse
			if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
				return err
			}
			if len(decoded.Choices) == 0 {
				return fmt.Errorf("openrouter returned no choices")
			}

			completion = domain.ChatCompletion{
				Content:          decoded.Choices[0].Message.Content,
				PromptTokens:     decoded.Usage.PromptTokens,
				CompletionTokens: decoded.Usage.CompletionTokens,
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &completion, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "openrouter", Err: err}
	}

	return result.(*domain.ChatCompletion), nil
}
