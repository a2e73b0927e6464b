package executor

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Claw16z/claw16z-trading-agent/internal/solana"
	"github.com/Claw16z/claw16z-trading-agent/internal/wallet"
)

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	w, err := wallet.FromBytes(append(priv.Seed(), pub...))
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// buildUnsignedTx assembles a serialized transaction with one empty
// signature slot followed by the message.
func buildUnsignedTx(message []byte) string {
	tx := append([]byte{1}, make([]byte, 64)...)
	tx = append(tx, message...)
	return base64.StdEncoding.EncodeToString(tx)
}

func TestSignTransaction(t *testing.T) {
	w := testWallet(t)
	message := []byte("transaction message bytes")

	signed, err := signTransaction(w, buildUnsignedTx(message))
	if err != nil {
		t.Fatalf("signTransaction: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(signed)
	if err != nil {
		t.Fatalf("decode signed tx: %v", err)
	}
	if raw[0] != 1 {
		t.Fatalf("signature count changed: %d", raw[0])
	}
	sig := raw[1:65]
	if string(raw[65:]) != string(message) {
		t.Error("message bytes changed during signing")
	}
	want := w.Sign(message)
	if string(sig) != string(want) {
		t.Error("signature slot does not hold the wallet signature")
	}
}

func TestSignTransactionRejectsMalformed(t *testing.T) {
	w := testWallet(t)

	if _, err := signTransaction(w, "not-base64!!"); err == nil {
		t.Error("invalid base64 should fail")
	}
	// Zero signature slots.
	if _, err := signTransaction(w, base64.StdEncoding.EncodeToString([]byte{0})); err == nil {
		t.Error("zero signature slots should fail")
	}
	// Truncated: claims one signature but has no message.
	short := append([]byte{1}, make([]byte, 32)...)
	if _, err := signTransaction(w, base64.StdEncoding.EncodeToString(short)); err == nil {
		t.Error("truncated transaction should fail")
	}
}

func TestDecodeCompactU16(t *testing.T) {
	tests := []struct {
		in        []byte
		wantValue int
		wantRead  int
	}{
		{[]byte{0x01}, 1, 1},
		{[]byte{0x7f}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xff, 0x01}, 255, 2},
	}
	for _, tt := range tests {
		v, n, err := decodeCompactU16(tt.in)
		if err != nil || v != tt.wantValue || n != tt.wantRead {
			t.Errorf("decodeCompactU16(%v) = (%d, %d, %v), want (%d, %d, nil)",
				tt.in, v, n, err, tt.wantValue, tt.wantRead)
		}
	}
	if _, _, err := decodeCompactU16(nil); err == nil {
		t.Error("empty buffer should fail")
	}
}

// stubRPC accepts any transaction and returns a fixed signature.
type stubRPC struct {
	signature string
	sendErr   error
	decimals  map[string]uint8
}

func (s *stubRPC) SendTransaction(context.Context, string) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return s.signature, nil
}

func (s *stubRPC) GetTokenSupply(_ context.Context, mint string) (*solana.TokenSupply, error) {
	return &solana.TokenSupply{Decimals: s.decimals[mint]}, nil
}

func (s *stubRPC) GetHealth(context.Context) error { return nil }

type stubConfirmer struct{ err error }

func (s stubConfirmer) ConfirmSignature(context.Context, string) error { return s.err }

func TestSwapClientEndToEnd(t *testing.T) {
	w := testWallet(t)
	message := []byte("swap message")

	var quoteQuery, swapBody string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			quoteQuery = r.URL.RawQuery
			json.NewEncoder(rw).Encode(map[string]interface{}{
				"outAmount":      "2000000000",
				"priceImpactPct": "0.12",
			})
		case "/swap":
			body, _ := io.ReadAll(r.Body)
			swapBody = string(body)
			json.NewEncoder(rw).Encode(map[string]string{"swapTransaction": buildUnsignedTx(message)})
		default:
			http.NotFound(rw, r)
		}
	}))
	defer srv.Close()

	rpc := &stubRPC{
		signature: "live-sig",
		decimals:  map[string]uint8{"USDC": 6, "mint-1": 9},
	}
	client := NewSwapClient(w, rpc, stubConfirmer{}, stubDecimals(rpc), nil,
		WithSwapBaseURL(srv.URL), WithMaxSlippagePct(1.5))

	res, err := client.Swap(context.Background(), SwapRequest{
		Side:       SideBuy,
		InputMint:  "USDC",
		OutputMint: "mint-1",
		Amount:     10,
		QuotePrice: 0.5,
	})
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if res.Signature != "live-sig" {
		t.Errorf("signature = %q", res.Signature)
	}
	// 2000000000 base units at 9 decimals is 2 tokens.
	if res.OutputAmount != 2 {
		t.Errorf("output = %f, want 2", res.OutputAmount)
	}
	if res.PriceImpact != 0.12 {
		t.Errorf("impact = %f, want 0.12", res.PriceImpact)
	}

	// 10 USDC at 6 decimals is 10000000 base units; 1.5% is 150 bps.
	if want := "amount=10000000"; !strings.Contains(quoteQuery, want) {
		t.Errorf("quote query %q missing %q", quoteQuery, want)
	}
	if want := "slippageBps=150"; !strings.Contains(quoteQuery, want) {
		t.Errorf("quote query %q missing %q", quoteQuery, want)
	}
	if !strings.Contains(swapBody, w.PublicKey()) {
		t.Error("swap build request should carry the wallet public key")
	}
}

func TestSwapClientFailuresWrapErrExecution(t *testing.T) {
	w := testWallet(t)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "quote unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	rpc := &stubRPC{decimals: map[string]uint8{"USDC": 6, "mint-1": 9}}
	client := NewSwapClient(w, rpc, stubConfirmer{}, stubDecimals(rpc), nil, WithSwapBaseURL(srv.URL))

	_, err := client.Swap(context.Background(), SwapRequest{
		Side: SideBuy, InputMint: "USDC", OutputMint: "mint-1", Amount: 10, QuotePrice: 0.5,
	})
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("Swap = %v, want ErrExecution", err)
	}
}

func stubDecimals(rpc solana.RPCClient) *solana.DecimalsResolver {
	return solana.NewDecimalsResolver(rpc)
}
