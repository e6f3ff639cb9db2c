package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
)

func TestClient_LatestRates(t *testing.T) {
	t.Parallel()

	t.Run("fetches rate table", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/latest/USD", r.URL.Path)
			_, _ = w.Write([]byte(`{"base":"USD","date":"2026-02-14","rates":{"USD":1,"SGD":1.35,"EUR":0.92}}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		table, err := client.LatestRates(context.Background(), "usd")
		require.NoError(t, err)
		require.Equal(t, "USD", table.Base)
		require.Equal(t, "2026-02-14", table.RateDate.Format("2006-01-02"))

		rate, ok := table.Rate("sgd")
		require.True(t, ok)
		require.True(t, decimal.RequireFromString("1.35").Equal(rate))
	})

	t.Run("non 200 is an upstream error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewClient(server.URL, time.Second).LatestRates(context.Background(), "USD")
		require.ErrorIs(t, err, apperror.UpstreamError)
		require.Contains(t, err.Error(), "status 502")
	})

	t.Run("slow upstream is a timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, 20*time.Millisecond).LatestRates(context.Background(), "USD")
		require.ErrorIs(t, err, apperror.Timeout)
		require.True(t, apperror.IsRetryable(err))
	})

	t.Run("malformed body is an upstream error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, time.Second).LatestRates(context.Background(), "USD")
		require.ErrorIs(t, err, apperror.UpstreamError)
	})

	t.Run("requires base currency", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("", time.Second).LatestRates(context.Background(), " ")
		require.ErrorIs(t, err, apperror.ValidationError)
	})
}
