// Package rates implements the exchange-rate provider client.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/infra/resilience"
)

var tracer = otel.Tracer("infra/rates")

const serviceName = "exchange-rates"

// Client fetches exchange rates from an external HTTP provider.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a rate provider client. The timeout bounds each
// individual request; retries are the caller's concern.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker(serviceName),
		logger:  logger,
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// FetchRate returns the conversion rate from base to target.
func (c *Client) FetchRate(ctx context.Context, base, target string) (float64, error) {
	ctx, span := tracer.Start(ctx, "rates.FetchRate")
	defer span.End()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchLatest(ctx, base)
	})
	if err != nil {
		c.logger.Warn("rate fetch failed",
			zap.String("base", base),
			zap.String("target", target),
			zap.Error(err))
		return 0, &domain.ErrExternalService{Service: serviceName, Err: err}
	}

	rates := result.(map[string]float64)
	rate, ok := rates[target]
	if !ok {
		return 0, &domain.ErrExternalService{
			Service: serviceName,
			Err:     fmt.Errorf("no rate for %s in %s response", target, base),
		}
	}
	return rate, nil
}

func (c *Client) fetchLatest(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/latest/%s", c.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("provider returned empty rates for %s", base)
	}
	return body.Rates, nil
}
