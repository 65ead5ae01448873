package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

const kalshiBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

// KalshiAdapter trades on Kalshi's order book. Authentication is session
// based: the adapter logs in lazily before the first authenticated call and
// reuses the token afterward. Venue prices travel in cents; the adapter
// converts to dollars at the boundary in both directions.
type KalshiAdapter struct {
	logger  *zap.Logger
	client  *resty.Client
	limiter *rate.Limiter

	email    string
	password string

	mu    sync.Mutex
	token string
}

var _ Adapter = (*KalshiAdapter)(nil)

// NewKalshiAdapter builds the adapter from API credentials.
func NewKalshiAdapter(creds *models.PlatformCredentials, logger *zap.Logger) *KalshiAdapter {
	return &KalshiAdapter{
		logger:   logger,
		client:   resty.New().SetBaseURL(kalshiBaseURL),
		limiter:  rate.NewLimiter(rate.Limit(10), 5),
		email:    creds.APIKey,
		password: creds.PrivateKey,
	}
}

// Platform implements Adapter.
func (a *KalshiAdapter) Platform() models.Platform { return models.PlatformKalshi }

// ensureToken performs the login once and caches the session token. A 401 on
// a later call does not trigger re-authentication.
func (a *KalshiAdapter) ensureToken(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" {
		return nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	var login struct {
		Token string `json:"token"`
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": a.email, "password": a.password}).
		SetResult(&login).
		Post("/login")
	if err != nil {
		return fmt.Errorf("kalshi login failed: %w", err)
	}
	if resp.IsError() || login.Token == "" {
		return fmt.Errorf("kalshi login rejected with status %s", resp.Status())
	}
	a.token = login.Token
	return nil
}

// do performs an authenticated request and decodes the JSON response into
// out. Venue rejections are surfaced verbatim in the returned error.
func (a *KalshiAdapter) do(ctx context.Context, method, path string, body, out any) error {
	if err := a.ensureToken(ctx); err != nil {
		return err
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	req := a.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("kalshi %s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("kalshi %s %s failed with status %s: %s", method, path, resp.Status(), resp.String())
	}
	return nil
}

// kalshiOrder is the order object inside Kalshi's responses. Monetary fields
// are in cents.
type kalshiOrder struct {
	OrderID  string  `json:"order_id"`
	Status   string  `json:"status"`
	Quantity float64 `json:"quantity"`
	YesPrice float64 `json:"yes_price"`
	Fee      float64 `json:"fee"`
}

// ExecuteTrade implements Adapter. Amounts are whole contracts; a price
// turns the order into a limit order.
func (a *KalshiAdapter) ExecuteTrade(ctx context.Context, trade *models.TradeRequest) *models.TradeResult {
	if ok, reason := validateTrade(trade); !ok {
		return models.FailedResult(models.PlatformKalshi, reason)
	}
	if trade.TradeType != models.TradeTypeBuy && trade.TradeType != models.TradeTypeSell {
		return models.FailedResult(models.PlatformKalshi,
			fmt.Sprintf("trade type %s not supported", trade.TradeType))
	}

	side := "yes"
	if s, ok := trade.Metadata["side"].(string); ok && s != "" {
		side = s
	}

	order := map[string]any{
		"ticker": trade.Symbol,
		"action": string(trade.TradeType),
		"count":  int(trade.Amount),
		"type":   "market",
		"side":   side,
	}
	if trade.Price != nil {
		order["type"] = "limit"
		order["yes_price"] = int(math.Round(*trade.Price * 100))
	}

	var created struct {
		Order *kalshiOrder `json:"order"`
	}
	if err := a.do(ctx, "POST", "/portfolio/orders", order, &created); err != nil {
		a.logger.Warn("Kalshi order failed", zap.String("ticker", trade.Symbol), zap.Error(err))
		return models.FailedResult(models.PlatformKalshi, err.Error())
	}
	if created.Order == nil {
		return models.FailedResult(models.PlatformKalshi, "no order in response")
	}

	return &models.TradeResult{
		TradeID:        created.Order.OrderID,
		Platform:       models.PlatformKalshi,
		Status:         models.StatusCompleted,
		ExecutedAmount: created.Order.Quantity,
		ExecutedPrice:  created.Order.YesPrice / 100,
		Fee:            created.Order.Fee / 100,
		Timestamp:      time.Now().UTC(),
	}
}

// GetBalance implements Adapter; the venue reports a single USD balance in
// cents.
func (a *KalshiAdapter) GetBalance(ctx context.Context, token string) map[string]float64 {
	var balance struct {
		Balance float64 `json:"balance"`
	}
	if err := a.do(ctx, "GET", "/portfolio/balance", nil, &balance); err != nil {
		a.logger.Warn("Kalshi balance failed", zap.Error(err))
		return map[string]float64{}
	}
	return map[string]float64{"USD": balance.Balance / 100}
}

// GetPrice implements Adapter using the market's last trade price.
func (a *KalshiAdapter) GetPrice(ctx context.Context, symbol string) float64 {
	var market struct {
		Market struct {
			LastPrice float64 `json:"last_price"`
		} `json:"market"`
	}
	if err := a.do(ctx, "GET", "/markets/"+symbol, nil, &market); err != nil {
		return 0
	}
	return market.Market.LastPrice / 100
}

// GetOrderStatus implements Adapter.
func (a *KalshiAdapter) GetOrderStatus(ctx context.Context, orderID string) map[string]any {
	var status map[string]json.RawMessage
	if err := a.do(ctx, "GET", "/portfolio/orders/"+orderID, nil, &status); err != nil {
		return map[string]any{"error": err.Error()}
	}
	out := make(map[string]any, len(status))
	for k, v := range status {
		var decoded any
		if err := json.Unmarshal(v, &decoded); err == nil {
			out[k] = decoded
		}
	}
	return out
}

// CancelOrder implements Adapter.
func (a *KalshiAdapter) CancelOrder(ctx context.Context, orderID string) bool {
	var cancelled struct {
		Order *kalshiOrder `json:"order"`
	}
	if err := a.do(ctx, "DELETE", "/portfolio/orders/"+orderID, nil, &cancelled); err != nil {
		return false
	}
	return cancelled.Order != nil && cancelled.Order.Status == "canceled"
}

// Close implements Adapter; the session token is dropped so a reopened
// adapter would authenticate again.
func (a *KalshiAdapter) Close() error {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
	return nil
}
