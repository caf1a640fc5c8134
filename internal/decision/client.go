// Package decision talks to the external payment decision service.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	errors "github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
	"github.com/frahmantamala/paynow/internal/idempotency"
)

const (
	DecidePath   = "/payments/decide"
	APIKeyHeader = "X-API-Key"

	maxErrorBody = 64 << 10
)

type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds one round trip. Zero leaves the transport default.
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	keys       *idempotency.Generator
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithKeyGenerator(g *idempotency.Generator) Option {
	return func(c *Client) {
		c.keys = g
	}
}

func NewClient(config Config, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		keys:   idempotency.NewGenerator(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends one decision request for data. Each call carries a fresh
// idempotency key and is never retried here. Every failure is returned as a
// RequestFailed *errors.AppError whose message is safe to show to the user.
func (c *Client) Submit(ctx context.Context, data payment.PaymentFormData) (*payment.PaymentResponse, error) {
	req := payment.NewPaymentRequest(data, c.keys.Generate())

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewRequestFailedError("failed to encode payment request", 0, err)
	}

	url := c.baseURL + DecidePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewRequestFailedError("failed to create decision request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(APIKeyHeader, c.apiKey)

	c.logger.Info("sending decision request",
		"url", url,
		"idempotency_key", req.IdempotencyKey,
		"currency", req.Currency,
		"amount", req.Amount)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("decision request failed", "error", err, "idempotency_key", req.IdempotencyKey)
		return nil, errors.NewRequestFailedError(fmt.Sprintf("decision service unreachable: %v", err), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := errorMessage(raw, resp.StatusCode)
		c.logger.Warn("decision service returned error",
			"status", resp.StatusCode,
			"message", message,
			"idempotency_key", req.IdempotencyKey)
		return nil, errors.NewRequestFailedError(message, resp.StatusCode, nil)
	}

	var decision payment.PaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		c.logger.Error("failed to decode decision response", "error", err, "idempotency_key", req.IdempotencyKey)
		return nil, errors.NewRequestFailedError("invalid response from decision service", 0, err)
	}

	c.logger.Info("decision received",
		"request_id", decision.RequestID,
		"decision", decision.Decision,
		"reasons", len(decision.Reasons),
		"idempotency_key", req.IdempotencyKey)

	return &decision, nil
}

// Ping checks that the decision service answers HTTP at all. Any status
// counts as reachable; the decide endpoint needs a body and a key.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.Body.Close()
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

// errorMessage extracts a readable message from an error response body,
// falling back to one naming the status code.
func errorMessage(raw []byte, status int) string {
	fallback := fmt.Sprintf("decision service returned status %d", status)

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}

	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil && detail != "" {
			return detail
		}
		var fields []fieldError
		if err := json.Unmarshal(body.Detail, &fields); err == nil {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				if f.Msg != "" {
					msgs = append(msgs, f.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	return fallback
}
