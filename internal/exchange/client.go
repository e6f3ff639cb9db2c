package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
)

const defaultBaseURL = "https://api.exchangerate-api.com/v4"

// Client is a client for the exchangerate-api.com latest rates endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type latestResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewClient creates a rate lookup client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// LatestRates fetches the rate table quoted against base.
func (c *Client) LatestRates(ctx context.Context, base string) (RateTable, error) {
	from := normalizeCode(base)
	if from == "" {
		return RateTable{}, apperror.New(apperror.ValidationError, "Base currency is required")
	}

	endpoint := fmt.Sprintf("%s/latest/%s", c.baseURL, url.PathEscape(from))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RateTable{}, fmt.Errorf("failed to create rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return RateTable{}, apperror.Wrap(apperror.Timeout, err, "Rate lookup timed out")
		}
		return RateTable{}, apperror.Wrap(apperror.UpstreamError, err, "Rate lookup failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return RateTable{}, apperror.Newf(apperror.UpstreamError, "Rate lookup returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload latestResponse
	if err := decoder.Decode(&payload); err != nil {
		return RateTable{}, apperror.Wrap(apperror.UpstreamError, err, "Failed to decode rate response")
	}

	table := RateTable{
		Base:  from,
		Rates: make(map[string]decimal.Decimal, len(payload.Rates)),
	}
	for code, raw := range payload.Rates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil || !rate.IsPositive() {
			continue
		}
		table.Rates[normalizeCode(code)] = rate
	}
	if d, err := time.Parse("2006-01-02", payload.Date); err == nil {
		table.RateDate = d
	} else {
		table.RateDate = time.Now().UTC()
	}

	return table, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
