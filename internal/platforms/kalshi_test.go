package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// newKalshiTestAdapter points the adapter at a test server with fixed
// credentials.
func newKalshiTestAdapter(serverURL string) *KalshiAdapter {
	return &KalshiAdapter{
		logger:   zap.NewNop(),
		client:   resty.New().SetBaseURL(serverURL),
		limiter:  rate.NewLimiter(rate.Inf, 1),
		email:    "trader@example.com",
		password: "hunter2",
	}
}

// kalshiLoginHandler serves /login once and counts how often it is hit.
func kalshiLoginHandler(t *testing.T, logins *atomic.Int64) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		logins.Add(1)
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "trader@example.com", creds.Email)
		assert.Equal(t, "hunter2", creds.Password)
		fmt.Fprint(w, `{"token":"session-token-1"}`)
	}
}

func TestKalshiTokenReuse(t *testing.T) {
	// Arrange
	var logins atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/login", kalshiLoginHandler(t, &logins))
	mux.HandleFunc("/portfolio/balance", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "Bearer session-token-1", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"balance":12550}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter := newKalshiTestAdapter(server.URL)

	// Act: several authenticated calls share one session.
	first := adapter.GetBalance(context.Background(), "")
	second := adapter.GetBalance(context.Background(), "")

	// Assert: cents become dollars and login happened exactly once.
	assert.Equal(t, map[string]float64{"USD": 125.50}, first)
	assert.Equal(t, map[string]float64{"USD": 125.50}, second)
	assert.Equal(t, int64(1), logins.Load())

	// Close drops the session; the next call authenticates again.
	require.NoError(t, adapter.Close())
	adapter.GetBalance(context.Background(), "")
	assert.Equal(t, int64(2), logins.Load())
}

func TestKalshiExecuteTrade(t *testing.T) {
	var logins atomic.Int64
	var lastOrder map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/login", kalshiLoginHandler(t, &logins))
	mux.HandleFunc("/portfolio/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastOrder))
		fmt.Fprint(w, `{"order":{"order_id":"ord-1","status":"executed","quantity":10,"yes_price":45,"fee":2}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Run("MarketBuy", func(t *testing.T) {
		adapter := newKalshiTestAdapter(server.URL)
		result := adapter.ExecuteTrade(context.Background(), &models.TradeRequest{
			Platform:  models.PlatformKalshi,
			TradeType: models.TradeTypeBuy,
			Symbol:    "PRES-2028",
			Amount:    10,
			Slippage:  0.01,
		})

		assert.Equal(t, models.StatusCompleted, result.Status)
		assert.Equal(t, "ord-1", result.TradeID)
		assert.Equal(t, 10.0, result.ExecutedAmount)
		assert.Equal(t, 0.45, result.ExecutedPrice) // 45 cents
		assert.Equal(t, 0.02, result.Fee)

		assert.Equal(t, "PRES-2028", lastOrder["ticker"])
		assert.Equal(t, "buy", lastOrder["action"])
		assert.Equal(t, "market", lastOrder["type"])
		assert.Equal(t, "yes", lastOrder["side"])
		assert.Equal(t, 10.0, lastOrder["count"])
	})

	t.Run("LimitSellNoSide", func(t *testing.T) {
		adapter := newKalshiTestAdapter(server.URL)
		price := 0.60
		result := adapter.ExecuteTrade(context.Background(), &models.TradeRequest{
			Platform:  models.PlatformKalshi,
			TradeType: models.TradeTypeSell,
			Symbol:    "PRES-2028",
			Amount:    5,
			Price:     &price,
			Slippage:  0.01,
			Metadata:  map[string]any{"side": "no"},
		})

		assert.Equal(t, models.StatusCompleted, result.Status)
		assert.Equal(t, "limit", lastOrder["type"])
		assert.Equal(t, 60.0, lastOrder["yes_price"]) // dollars to cents
		assert.Equal(t, "no", lastOrder["side"])
	})

	t.Run("SwapRejected", func(t *testing.T) {
		adapter := newKalshiTestAdapter(server.URL)
		result := adapter.ExecuteTrade(context.Background(), &models.TradeRequest{
			Platform:  models.PlatformKalshi,
			TradeType: models.TradeTypeSwap,
			Symbol:    "PRES-2028",
			Amount:    1,
			Slippage:  0.01,
		})
		assert.Equal(t, models.StatusFailed, result.Status)
		assert.Contains(t, result.Error, "not supported")
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		adapter := newKalshiTestAdapter(server.URL)

		result := adapter.ExecuteTrade(context.Background(), &models.TradeRequest{
			Platform:  models.PlatformKalshi,
			TradeType: models.TradeTypeBuy,
			Symbol:    "PRES-2028",
			Amount:    0,
			Slippage:  0.01,
		})
		assert.Equal(t, models.StatusFailed, result.Status)
		assert.Contains(t, result.Error, "amount must be positive")

		result = adapter.ExecuteTrade(context.Background(), &models.TradeRequest{
			Platform:  models.PlatformKalshi,
			TradeType: models.TradeTypeBuy,
			Symbol:    "PRES-2028",
			Amount:    1,
			Slippage:  -0.5,
		})
		assert.Equal(t, models.StatusFailed, result.Status)
		assert.Contains(t, result.Error, "slippage")
	})
}

func TestKalshiExecuteTrade_VenueRejection(t *testing.T) {
	var logins atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/login", kalshiLoginHandler(t, &logins))
	mux.HandleFunc("/portfolio/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"insufficient balance"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter := newKalshiTestAdapter(server.URL)
	result := adapter.ExecuteTrade(context.Background(), &models.TradeRequest{
		Platform:  models.PlatformKalshi,
		TradeType: models.TradeTypeBuy,
		Symbol:    "PRES-2028",
		Amount:    10,
		Slippage:  0.01,
	})

	// The venue's rejection text surfaces in the failed result.
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "insufficient balance")
}

func TestKalshiLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := newKalshiTestAdapter(server.URL)

	assert.Empty(t, adapter.GetBalance(context.Background(), ""))
	assert.Equal(t, 0.0, adapter.GetPrice(context.Background(), "PRES-2028"))

	result := adapter.ExecuteTrade(context.Background(), &models.TradeRequest{
		Platform:  models.PlatformKalshi,
		TradeType: models.TradeTypeBuy,
		Symbol:    "PRES-2028",
		Amount:    1,
		Slippage:  0.01,
	})
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "login rejected")
}

func TestKalshiGetPrice(t *testing.T) {
	var logins atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/login", kalshiLoginHandler(t, &logins))
	mux.HandleFunc("/markets/PRES-2028", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"market":{"ticker":"PRES-2028","last_price":62}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter := newKalshiTestAdapter(server.URL)

	assert.Equal(t, 0.62, adapter.GetPrice(context.Background(), "PRES-2028"))
}

func TestKalshiCancelOrder(t *testing.T) {
	var logins atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/login", kalshiLoginHandler(t, &logins))
	mux.HandleFunc("/portfolio/orders/ord-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodDelete:
			fmt.Fprint(w, `{"order":{"order_id":"ord-1","status":"canceled"}}`)
		case http.MethodGet:
			fmt.Fprint(w, `{"order":{"order_id":"ord-1","status":"resting"}}`)
		}
	})
	mux.HandleFunc("/portfolio/orders/ord-2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"order":{"order_id":"ord-2","status":"executed"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter := newKalshiTestAdapter(server.URL)

	assert.True(t, adapter.CancelOrder(context.Background(), "ord-1"))
	// An order that already executed cannot be cancelled.
	assert.False(t, adapter.CancelOrder(context.Background(), "ord-2"))

	status := adapter.GetOrderStatus(context.Background(), "ord-1")
	order, ok := status["order"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "resting", order["status"])
}
