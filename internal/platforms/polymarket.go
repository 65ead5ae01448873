package platforms

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

const polymarketBaseURL = "https://api.polymarket.com"

// PolymarketAdapter trades on Polymarket's REST API. Every request, reads
// included, carries an HMAC-SHA256 signature over timestamp+method+path+body
// in the POLY-* headers.
type PolymarketAdapter struct {
	logger  *zap.Logger
	client  *resty.Client
	limiter *rate.Limiter

	apiKey     string
	secret     string
	passphrase string
}

var _ Adapter = (*PolymarketAdapter)(nil)

// NewPolymarketAdapter builds the adapter from API credentials.
func NewPolymarketAdapter(creds *models.PlatformCredentials, logger *zap.Logger) *PolymarketAdapter {
	return &PolymarketAdapter{
		logger:     logger,
		client:     resty.New().SetBaseURL(polymarketBaseURL),
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		apiKey:     creds.APIKey,
		secret:     creds.Secret,
		passphrase: creds.Passphrase,
	}
}

// Platform implements Adapter.
func (a *PolymarketAdapter) Platform() models.Platform { return models.PlatformPolymarket }

// sign computes the request signature over timestamp + method + path + body.
func (a *PolymarketAdapter) sign(timestamp, method, path, body string) string {
	h := hmac.New(sha256.New, []byte(a.secret))
	h.Write([]byte(timestamp + method + path + body))
	return hex.EncodeToString(h.Sum(nil))
}

// do performs a signed request and decodes the JSON response into out. The
// body is marshalled once so the bytes signed are the bytes sent.
func (a *PolymarketAdapter) do(ctx context.Context, method, path string, body, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("polymarket %s %s encode failed: %w", method, path, err)
		}
		payload = string(raw)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req := a.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"POLY-API-KEY":    a.apiKey,
			"POLY-SIGNATURE":  a.sign(timestamp, method, path, payload),
			"POLY-TIMESTAMP":  timestamp,
			"POLY-PASSPHRASE": a.passphrase,
			"Content-Type":    "application/json",
		})
	if payload != "" {
		req.SetBody(payload)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("polymarket %s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("polymarket %s %s failed with status %s: %s", method, path, resp.Status(), resp.String())
	}
	return nil
}

// ExecuteTrade implements Adapter. Order size is in outcome shares, prices
// in dollars.
func (a *PolymarketAdapter) ExecuteTrade(ctx context.Context, trade *models.TradeRequest) *models.TradeResult {
	if ok, reason := validateTrade(trade); !ok {
		return models.FailedResult(models.PlatformPolymarket, reason)
	}
	if trade.TradeType != models.TradeTypeBuy && trade.TradeType != models.TradeTypeSell {
		return models.FailedResult(models.PlatformPolymarket,
			fmt.Sprintf("trade type %s not supported", trade.TradeType))
	}

	side := "BUY"
	if trade.TradeType == models.TradeTypeSell {
		side = "SELL"
	}
	orderType := "MARKET"
	if trade.Price != nil {
		orderType = "LIMIT"
	}
	order := map[string]any{
		"market": trade.Symbol,
		"side":   side,
		"size":   trade.Amount,
		"type":   orderType,
	}
	if trade.Price != nil {
		order["price"] = *trade.Price
	}

	var created struct {
		Success         bool    `json:"success"`
		OrderID         string  `json:"orderId"`
		TransactionHash string  `json:"transactionHash"`
		ExecutedPrice   float64 `json:"executedPrice"`
		Fee             float64 `json:"fee"`
		Error           string  `json:"error"`
	}
	if err := a.do(ctx, "POST", "/orders", order, &created); err != nil {
		a.logger.Warn("Polymarket order failed", zap.String("market", trade.Symbol), zap.Error(err))
		return models.FailedResult(models.PlatformPolymarket, err.Error())
	}
	if !created.Success {
		reason := created.Error
		if reason == "" {
			reason = "unknown error"
		}
		return models.FailedResult(models.PlatformPolymarket, reason)
	}

	return &models.TradeResult{
		TradeID:         created.OrderID,
		Platform:        models.PlatformPolymarket,
		Status:          models.StatusCompleted,
		TransactionHash: created.TransactionHash,
		ExecutedAmount:  trade.Amount,
		ExecutedPrice:   created.ExecutedPrice,
		Fee:             created.Fee,
		Timestamp:       time.Now().UTC(),
	}
}

// GetBalance implements Adapter.
func (a *PolymarketAdapter) GetBalance(ctx context.Context, token string) map[string]float64 {
	var resp struct {
		Success  bool               `json:"success"`
		Balances map[string]float64 `json:"balances"`
	}
	if err := a.do(ctx, "GET", "/balances", nil, &resp); err != nil {
		a.logger.Warn("Polymarket balances failed", zap.Error(err))
		return map[string]float64{}
	}
	if !resp.Success || resp.Balances == nil {
		return map[string]float64{}
	}
	if token == "" {
		return resp.Balances
	}
	wanted := strings.ToUpper(token)
	if v, ok := resp.Balances[wanted]; ok {
		return map[string]float64{wanted: v}
	}
	return map[string]float64{}
}

// GetPrice implements Adapter using the market's last trade price.
func (a *PolymarketAdapter) GetPrice(ctx context.Context, symbol string) float64 {
	var resp struct {
		Success   bool    `json:"success"`
		LastPrice float64 `json:"lastPrice"`
	}
	if err := a.do(ctx, "GET", "/markets/"+symbol, nil, &resp); err != nil {
		return 0
	}
	if !resp.Success {
		return 0
	}
	return resp.LastPrice
}

// GetOrderStatus implements Adapter.
func (a *PolymarketAdapter) GetOrderStatus(ctx context.Context, orderID string) map[string]any {
	var status map[string]json.RawMessage
	if err := a.do(ctx, "GET", "/orders/"+orderID, nil, &status); err != nil {
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
func (a *PolymarketAdapter) CancelOrder(ctx context.Context, orderID string) bool {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := a.do(ctx, "DELETE", "/orders/"+orderID, nil, &resp); err != nil {
		return false
	}
	return resp.Success
}

// Close implements Adapter.
func (a *PolymarketAdapter) Close() error {
	return nil
}
