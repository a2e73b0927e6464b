package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Claw16z/claw16z-trading-agent/internal/solana"
	"github.com/Claw16z/claw16z-trading-agent/internal/wallet"
)

// DefaultSwapBaseURL is the public Jupiter-compatible aggregator endpoint.
const DefaultSwapBaseURL = "https://quote-api.jup.ag/v6"

// maxSubmitAttempts bounds how many times one signed transaction is
// resubmitted before the swap is declared failed.
const maxSubmitAttempts = 3

// SwapClient executes swaps through a Jupiter-style aggregator: quote,
// build, sign, submit over RPC, confirm over WebSocket.
type SwapClient struct {
	baseURL        string
	client         *http.Client
	wallet         *wallet.Wallet
	rpc            solana.RPCClient
	confirmer      solana.Confirmer
	decimals       *solana.DecimalsResolver
	maxSlippageBps int
	logger         *log.Logger
}

// SwapClientOption configures SwapClient.
type SwapClientOption func(*SwapClient)

// WithSwapBaseURL overrides the aggregator endpoint.
func WithSwapBaseURL(u string) SwapClientOption {
	return func(c *SwapClient) {
		c.baseURL = u
	}
}

// WithSwapHTTPClient sets a custom http.Client.
func WithSwapHTTPClient(client *http.Client) SwapClientOption {
	return func(c *SwapClient) {
		c.client = client
	}
}

// WithMaxSlippagePct sets the slippage tolerance in percent.
func WithMaxSlippagePct(pct float64) SwapClientOption {
	return func(c *SwapClient) {
		c.maxSlippageBps = int(math.Round(pct * 100))
	}
}

// NewSwapClient creates a live swap executor.
func NewSwapClient(w *wallet.Wallet, rpc solana.RPCClient, confirmer solana.Confirmer,
	decimals *solana.DecimalsResolver, logger *log.Logger, opts ...SwapClientOption) *SwapClient {
	if logger == nil {
		logger = log.Default()
	}
	c := &SwapClient{
		baseURL:        DefaultSwapBaseURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		wallet:         w,
		rpc:            rpc,
		confirmer:      confirmer,
		decimals:       decimals,
		maxSlippageBps: 100,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Executor = (*SwapClient)(nil)

// Swap executes the request end to end. Any failure before confirmation
// returns ErrExecution and leaves nothing for the caller to unwind.
func (c *SwapClient) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	start := time.Now()

	inDecimals, err := c.decimals.Decimals(ctx, req.InputMint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	outDecimals, err := c.decimals.Decimals(ctx, req.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	amountBase := uiToBase(req.Amount, inDecimals)
	if amountBase == 0 {
		return nil, fmt.Errorf("%w: amount %f rounds to zero base units", ErrExecution, req.Amount)
	}

	quote, err := c.quote(ctx, req.InputMint, req.OutputMint, amountBase)
	if err != nil {
		return nil, fmt.Errorf("%w: quote: %v", ErrExecution, err)
	}

	txBase64, err := c.buildSwapTx(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("%w: build swap: %v", ErrExecution, err)
	}

	signed, err := signTransaction(c.wallet, txBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %v", ErrExecution, err)
	}

	signature, err := c.submit(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("%w: submit: %v", ErrExecution, err)
	}

	if err := c.confirmer.ConfirmSignature(ctx, signature); err != nil {
		return nil, fmt.Errorf("%w: confirm %s: %v", ErrExecution, signature, err)
	}

	outBase, err := strconv.ParseUint(quote.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse outAmount %q: %v", ErrExecution, quote.OutAmount, err)
	}
	impact, _ := strconv.ParseFloat(quote.PriceImpactPct, 64)

	res := &SwapResult{
		Signature:    signature,
		OutputAmount: baseToUI(outBase, outDecimals),
		PriceImpact:  impact,
		Elapsed:      time.Since(start),
	}
	c.logger.Printf("swap confirmed %s -> %s: in=%f out=%f impact=%.4f%% sig=%s",
		req.InputMint, req.OutputMint, req.Amount, res.OutputAmount, impact, signature)
	return res, nil
}

// quoteResponse carries the fields the agent reads plus the raw body, which
// is echoed back verbatim in the swap build request.
type quoteResponse struct {
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`

	raw json.RawMessage
}

func (c *SwapClient) quote(ctx context.Context, inputMint, outputMint string, amountBase uint64) (*quoteResponse, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amountBase, 10))
	q.Set("slippageBps", strconv.Itoa(c.maxSlippageBps))

	body, err := c.get(ctx, c.baseURL+"/quote?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var quote quoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("unmarshal quote: %w", err)
	}
	if quote.OutAmount == "" {
		return nil, fmt.Errorf("quote has no outAmount")
	}
	quote.raw = body
	return &quote, nil
}

// buildSwapTx asks the aggregator to assemble an unsigned transaction for
// the quoted route.
func (c *SwapClient) buildSwapTx(ctx context.Context, quote *quoteResponse) (string, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"quoteResponse":             quote.raw,
		"userPublicKey":             c.wallet.PublicKey(),
		"wrapAndUnwrapSol":          true,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
	})
	if err != nil {
		return "", fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var swapResp struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(body, &swapResp); err != nil {
		return "", fmt.Errorf("unmarshal swap response: %w", err)
	}
	if swapResp.SwapTransaction == "" {
		return "", fmt.Errorf("swap response has no transaction")
	}
	return swapResp.SwapTransaction, nil
}

func (c *SwapClient) submit(ctx context.Context, txBase64 string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		signature, err := c.rpc.SendTransaction(ctx, txBase64)
		if err == nil {
			return signature, nil
		}
		lastErr = err
		c.logger.Printf("sendTransaction attempt %d/%d failed: %v", attempt, maxSubmitAttempts, err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return "", lastErr
}

func (c *SwapClient) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func uiToBase(amount float64, decimals uint8) uint64 {
	return uint64(math.Round(amount * math.Pow10(int(decimals))))
}

func baseToUI(amount uint64, decimals uint8) float64 {
	return float64(amount) / math.Pow10(int(decimals))
}

// signTransaction places the wallet's signature into the first signature
// slot of a serialized (versioned or legacy) transaction. Layout: a
// compact-u16 signature count, the 64-byte signatures, then the message.
func signTransaction(w *wallet.Wallet, txBase64 string) (string, error) {
	tx, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}

	numSigs, offset, err := decodeCompactU16(tx)
	if err != nil {
		return "", fmt.Errorf("parse signature count: %w", err)
	}
	if numSigs == 0 {
		return "", fmt.Errorf("transaction reserves no signature slots")
	}

	msgStart := offset + numSigs*64
	if msgStart >= len(tx) {
		return "", fmt.Errorf("transaction truncated: %d bytes, message starts at %d", len(tx), msgStart)
	}

	sig := w.Sign(tx[msgStart:])
	copy(tx[offset:offset+64], sig)
	return base64.StdEncoding.EncodeToString(tx), nil
}

// decodeCompactU16 reads a Solana compact-u16 length prefix.
func decodeCompactU16(b []byte) (value, bytesRead int, err error) {
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("buffer too short")
		}
		value |= int(b[i]&0x7f) << (7 * i)
		if b[i]&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("malformed compact-u16")
}
