package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfirmerConfig configures WebSocket confirmation behavior.
type WSConfirmerConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// ConfirmTimeout bounds the wait for a signature notification.
	ConfirmTimeout time.Duration
	// WriteTimeout bounds subscription writes.
	WriteTimeout time.Duration
}

// DefaultWSConfirmerConfig returns default confirmation configuration.
func DefaultWSConfirmerConfig() WSConfirmerConfig {
	return WSConfirmerConfig{
		HandshakeTimeout: 10 * time.Second,
		ConfirmTimeout:   60 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSConfirmer confirms transaction signatures over a Solana WebSocket
// endpoint. Each confirmation opens a fresh connection, issues a single
// signatureSubscribe, and closes; the node drops the subscription itself
// after the one-shot notification fires.
type WSConfirmer struct {
	endpoint string
	config   WSConfirmerConfig
}

// NewWSConfirmer creates a confirmer for the given WebSocket endpoint.
func NewWSConfirmer(endpoint string, config *WSConfirmerConfig) *WSConfirmer {
	cfg := DefaultWSConfirmerConfig()
	if config != nil {
		cfg = *config
	}
	return &WSConfirmer{endpoint: endpoint, config: cfg}
}

var _ Confirmer = (*WSConfirmer)(nil)

// ConfirmSignature blocks until the signature is confirmed on chain.
func (c *WSConfirmer) ConfirmSignature(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConfirmTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	// Unblock the read loop when the context expires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("confirmation timeout for %s: %w", signature, ctx.Err())
			}
			return fmt.Errorf("websocket read: %w", err)
		}

		notif, errResp, ok := parseSignatureMessage(message)
		if !ok {
			continue
		}
		if errResp != nil {
			return fmt.Errorf("signatureSubscribe rejected: RPC error %d: %s", errResp.Code, errResp.Message)
		}
		if notif.Err != nil {
			return fmt.Errorf("transaction %s failed on chain: %v", signature, notif.Err)
		}
		return nil
	}
}

// parseSignatureMessage classifies an incoming message. ok is false for
// subscription confirmations and anything else that is not a terminal answer.
func parseSignatureMessage(message []byte) (*signatureValue, *rpcError, bool) {
	var errResp struct {
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		return nil, errResp.Error, true
	}

	var notif wsSignatureNotification
	if err := json.Unmarshal(message, &notif); err == nil &&
		notif.Method == "signatureNotification" && notif.Params != nil {
		return &notif.Params.Result.Value, nil, true
	}

	return nil, nil, false
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSignatureNotification struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  *wsSignatureParams `json:"params"`
}

type wsSignatureParams struct {
	Subscription int64             `json:"subscription"`
	Result       wsSignatureResult `json:"result"`
}

type wsSignatureResult struct {
	Context *wsContext     `json:"context"`
	Value   signatureValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type signatureValue struct {
	Err interface{} `json:"err"`
}
