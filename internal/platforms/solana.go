package platforms

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

const (
	defaultSolanaRPCURL = "https://api.mainnet-beta.solana.com"
	jupiterQuoteURL     = "https://quote-api.jup.ag/v6"
	jupiterPriceURL     = "https://lite-api.jup.ag/price/v2"

	lamportsPerSOL = 1e9
)

// mintInfo maps a token symbol to its SPL mint address and decimals. Jupiter
// speaks raw integer amounts; the adapter converts to whole tokens at the
// boundary.
type mintInfo struct {
	Address  string
	Decimals int
}

var knownMints = map[string]mintInfo{
	"SOL":  {"So11111111111111111111111111111111111111112", 9},
	"USDC": {"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 6},
	"USDT": {"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", 6},
}

// solanaWallet holds the signing key decoded from the base58 credential.
type solanaWallet struct {
	privateKey ed25519.PrivateKey
	publicKey  string
}

// signTransaction signs a base64-encoded serialized transaction as the fee
// payer. The wire layout is a shortvec signature count, the signature slots,
// then the message bytes the signatures cover.
func (w *solanaWallet) signTransaction(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid transaction encoding: %w", err)
	}

	numSigs, sigStart, err := decodeShortvec(raw)
	if err != nil {
		return "", err
	}
	msgStart := sigStart + numSigs*ed25519.SignatureSize
	if numSigs == 0 || msgStart > len(raw) {
		return "", fmt.Errorf("malformed transaction: %d signature slots in %d bytes", numSigs, len(raw))
	}

	signature := ed25519.Sign(w.privateKey, raw[msgStart:])
	copy(raw[sigStart:sigStart+ed25519.SignatureSize], signature)
	return base64.StdEncoding.EncodeToString(raw), nil
}

// decodeShortvec reads Solana's compact-u16 length prefix, returning the
// value and the number of bytes consumed.
func decodeShortvec(b []byte) (int, int, error) {
	value, n := 0, 0
	for shift := 0; ; shift += 7 {
		if n >= len(b) || shift > 14 {
			return 0, 0, fmt.Errorf("malformed shortvec prefix")
		}
		c := b[n]
		n++
		value |= int(c&0x7f) << shift
		if c&0x80 == 0 {
			return value, n, nil
		}
	}
}

// SolanaAdapter trades on Solana through the Jupiter aggregator. Only swap
// orders are supported; settled on-chain transactions cannot be cancelled.
type SolanaAdapter struct {
	logger  *zap.Logger
	rpcURL  string
	quote   *resty.Client
	price   *resty.Client
	rpc     *resty.Client
	wallet  *solanaWallet
	limiter *rate.Limiter
}

var _ Adapter = (*SolanaAdapter)(nil)

// NewSolanaAdapter builds the adapter. A missing private key is allowed and
// leaves the adapter in a read-only state where every trade fails fast.
func NewSolanaAdapter(creds *models.PlatformCredentials, logger *zap.Logger) (*SolanaAdapter, error) {
	rpcURL := creds.RPCURL
	if rpcURL == "" {
		rpcURL = defaultSolanaRPCURL
	}

	var wallet *solanaWallet
	if creds.PrivateKey != "" {
		raw, err := base58.Decode(creds.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid solana private key: %w", err)
		}
		if len(raw) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("invalid solana private key: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
		}
		priv := ed25519.PrivateKey(raw)
		wallet = &solanaWallet{
			privateKey: priv,
			publicKey:  base58.Encode(priv.Public().(ed25519.PublicKey)),
		}
	}

	return &SolanaAdapter{
		logger:  logger,
		rpcURL:  rpcURL,
		quote:   resty.New().SetBaseURL(jupiterQuoteURL),
		price:   resty.New().SetBaseURL(jupiterPriceURL),
		rpc:     resty.New().SetBaseURL(rpcURL),
		wallet:  wallet,
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}, nil
}

// Platform implements Adapter.
func (a *SolanaAdapter) Platform() models.Platform { return models.PlatformSolana }

// jupiterQuote is the subset of Jupiter's quote response the adapter uses.
// Amounts are raw integer strings in mint-native units.
type jupiterQuote struct {
	InAmount      string          `json:"inAmount"`
	OutAmount     string          `json:"outAmount"`
	PlatformFee   json.RawMessage `json:"platformFee,omitempty"`
	RoutePlan     json.RawMessage `json:"routePlan,omitempty"`
	InputMint     string          `json:"inputMint"`
	OutputMint    string          `json:"outputMint"`
	SlippageBps   int             `json:"slippageBps"`
	PriceImpact   string          `json:"priceImpactPct"`
	ContextSlot   int64           `json:"contextSlot,omitempty"`
	TimeTakenSecs float64         `json:"timeTaken,omitempty"`
}

// ExecuteTrade implements Adapter. Symbols take the form "SOL/USDC": amount
// is denominated in the input token.
func (a *SolanaAdapter) ExecuteTrade(ctx context.Context, trade *models.TradeRequest) *models.TradeResult {
	if a.wallet == nil {
		return models.FailedResult(models.PlatformSolana, "wallet not initialized")
	}
	if ok, reason := validateTrade(trade); !ok {
		return models.FailedResult(models.PlatformSolana, reason)
	}
	if trade.TradeType != models.TradeTypeSwap {
		return models.FailedResult(models.PlatformSolana,
			fmt.Sprintf("trade type %s not supported", trade.TradeType))
	}

	inMint, outMint, err := parsePair(trade.Symbol)
	if err != nil {
		return models.FailedResult(models.PlatformSolana, err.Error())
	}

	quote, err := a.getQuote(ctx, inMint, outMint, trade.Amount, trade.Slippage)
	if err != nil {
		a.logger.Warn("Jupiter quote failed", zap.String("symbol", trade.Symbol), zap.Error(err))
		return models.FailedResult(models.PlatformSolana, fmt.Sprintf("failed to get quote: %v", err))
	}

	inTokens := rawToTokens(quote.InAmount, inMint.Decimals)
	outTokens := rawToTokens(quote.OutAmount, outMint.Decimals)
	price := 0.0
	if inTokens > 0 {
		price = outTokens / inTokens
	}

	signature, err := a.executeSwap(ctx, quote)
	if err != nil {
		a.logger.Warn("Jupiter swap failed", zap.String("symbol", trade.Symbol), zap.Error(err))
		return models.FailedResult(models.PlatformSolana, err.Error())
	}

	return &models.TradeResult{
		TradeID:         signature,
		Platform:        models.PlatformSolana,
		Status:          models.StatusCompleted,
		TransactionHash: signature,
		ExecutedAmount:  trade.Amount,
		ExecutedPrice:   price,
		Timestamp:       time.Now().UTC(),
		Metadata:        map[string]any{"route": "jupiter"},
	}
}

// getQuote asks Jupiter for a swap route.
func (a *SolanaAdapter) getQuote(ctx context.Context, in, out mintInfo, amount, slippage float64) (*jupiterQuote, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var quote jupiterQuote
	resp, err := a.quote.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"inputMint":   in.Address,
			"outputMint":  out.Address,
			"amount":      strconv.FormatInt(tokensToRaw(amount, in.Decimals), 10),
			"slippageBps": strconv.Itoa(int(slippage * 10000)),
		}).
		SetResult(&quote).
		Get("/quote")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quote request failed with status %s: %s", resp.Status(), resp.String())
	}
	if quote.OutAmount == "" {
		return nil, fmt.Errorf("no route for pair")
	}
	return &quote, nil
}

// executeSwap obtains the swap transaction from Jupiter and submits it
// through the RPC node, returning the transaction signature.
func (a *SolanaAdapter) executeSwap(ctx context.Context, quote *jupiterQuote) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var swap struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	resp, err := a.quote.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"quoteResponse":    quote,
			"userPublicKey":    a.wallet.publicKey,
			"wrapAndUnwrapSol": true,
		}).
		SetResult(&swap).
		Post("/swap")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("swap request failed with status %s: %s", resp.Status(), resp.String())
	}
	if swap.SwapTransaction == "" {
		return "", fmt.Errorf("no swap transaction returned")
	}

	signed, err := a.wallet.signTransaction(swap.SwapTransaction)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	var signature string
	if err := a.rpcCall(ctx, "sendTransaction", []any{signed, map[string]string{"encoding": "base64"}}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// GetBalance implements Adapter. Only the native SOL balance is reported;
// the wallet must be configured.
func (a *SolanaAdapter) GetBalance(ctx context.Context, token string) map[string]float64 {
	if a.wallet == nil {
		return map[string]float64{}
	}

	var result struct {
		Value int64 `json:"value"`
	}
	if err := a.rpcCall(ctx, "getBalance", []any{a.wallet.publicKey}, &result); err != nil {
		a.logger.Warn("getBalance failed", zap.Error(err))
		return map[string]float64{}
	}

	balances := map[string]float64{"SOL": float64(result.Value) / lamportsPerSOL}
	if token == "" {
		return balances
	}
	if v, ok := balances[strings.ToUpper(token)]; ok {
		return map[string]float64{strings.ToUpper(token): v}
	}
	return map[string]float64{}
}

// GetPrice implements Adapter using Jupiter's price API. Accepts either a
// bare token symbol or a pair; a pair is priced by its base token.
func (a *SolanaAdapter) GetPrice(ctx context.Context, symbol string) float64 {
	base := strings.ToUpper(strings.SplitN(symbol, "/", 2)[0])
	mint, ok := knownMints[base]
	if !ok {
		return 0
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return 0
	}

	var priceResp struct {
		Data map[string]struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	resp, err := a.price.R().
		SetContext(ctx).
		SetQueryParam("ids", mint.Address).
		SetResult(&priceResp).
		Get("")
	if err != nil || resp.IsError() {
		return 0
	}
	entry, ok := priceResp.Data[mint.Address]
	if !ok {
		return 0
	}
	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0
	}
	return price
}

// GetOrderStatus implements Adapter; order IDs are transaction signatures.
func (a *SolanaAdapter) GetOrderStatus(ctx context.Context, orderID string) map[string]any {
	var result struct {
		Value []*struct {
			Slot               int64  `json:"slot"`
			ConfirmationStatus string `json:"confirmationStatus"`
		} `json:"value"`
	}
	if err := a.rpcCall(ctx, "getSignatureStatuses", []any{[]string{orderID}}, &result); err != nil {
		return map[string]any{"status": "error", "error": err.Error()}
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return map[string]any{"status": "not_found"}
	}
	return map[string]any{
		"status":    result.Value[0].ConfirmationStatus,
		"signature": orderID,
		"slot":      result.Value[0].Slot,
	}
}

// CancelOrder implements Adapter. Settled on-chain transactions are not
// cancellable.
func (a *SolanaAdapter) CancelOrder(ctx context.Context, orderID string) bool {
	return false
}

// Close implements Adapter.
func (a *SolanaAdapter) Close() error {
	return nil
}

// rpcCall performs a Solana JSON-RPC request and decodes the result field
// into out.
func (a *SolanaAdapter) rpcCall(ctx context.Context, method string, params []any, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	resp, err := a.rpc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  method,
			"params":  params,
		}).
		SetResult(&envelope).
		Post("")
	if err != nil {
		return fmt.Errorf("rpc %s failed: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("rpc %s failed with status %s", method, resp.Status())
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc %s error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("rpc %s decode failed: %w", method, err)
		}
	}
	return nil
}

// parsePair resolves a "BASE/QUOTE" symbol to its input and output mints.
func parsePair(symbol string) (mintInfo, mintInfo, error) {
	parts := strings.SplitN(strings.ToUpper(symbol), "/", 2)
	if len(parts) != 2 {
		return mintInfo{}, mintInfo{}, fmt.Errorf("symbol %q is not a BASE/QUOTE pair", symbol)
	}
	in, ok := knownMints[parts[0]]
	if !ok {
		return mintInfo{}, mintInfo{}, fmt.Errorf("unknown token %q", parts[0])
	}
	out, ok := knownMints[parts[1]]
	if !ok {
		return mintInfo{}, mintInfo{}, fmt.Errorf("unknown token %q", parts[1])
	}
	return in, out, nil
}

func tokensToRaw(amount float64, decimals int) int64 {
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	// Round instead of truncate: representation error must not shave a raw
	// unit off the quoted amount.
	return int64(math.Round(amount * scale))
}

func rawToTokens(raw string, decimals int) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return v / scale
}
