package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// wsServer runs a test WebSocket endpoint that answers one
// signatureSubscribe with the given notification value.
func wsServer(t *testing.T, respond func(conn *websocket.Conn, signature string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var req struct {
			ID     uint64        `json:"id"`
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Method != "signatureSubscribe" {
			t.Errorf("method = %s", req.Method)
			return
		}
		sig, _ := req.Params[0].(string)

		// Subscription confirmation, then the notification.
		conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": 42})
		respond(conn, sig)

		// Hold the connection until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func notify(conn *websocket.Conn, txErr interface{}) {
	conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "signatureNotification",
		"params": map[string]interface{}{
			"subscription": 42,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1000},
				"value":   map[string]interface{}{"err": txErr},
			},
		},
	})
}

func TestConfirmSignatureSuccess(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, sig string) {
		if sig != "sig-1" {
			t.Errorf("subscribed signature = %q", sig)
		}
		notify(conn, nil)
	})
	defer srv.Close()

	c := NewWSConfirmer(wsURL(srv), nil)
	if err := c.ConfirmSignature(context.Background(), "sig-1"); err != nil {
		t.Errorf("ConfirmSignature: %v", err)
	}
}

func TestConfirmSignatureOnChainFailure(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, sig string) {
		notify(conn, map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}})
	})
	defer srv.Close()

	c := NewWSConfirmer(wsURL(srv), nil)
	err := c.ConfirmSignature(context.Background(), "sig-1")
	if err == nil || !strings.Contains(err.Error(), "failed on chain") {
		t.Errorf("ConfirmSignature = %v, want on-chain failure", err)
	}
}

func TestConfirmSignatureSubscribeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req struct {
			ID uint64 `json:"id"`
		}
		raw, _ := json.Marshal(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32602, "message": "invalid signature"},
		})
		conn.ReadMessage()
		conn.WriteMessage(websocket.TextMessage, raw)
		conn.ReadMessage()
	}))
	defer srv.Close()

	c := NewWSConfirmer(wsURL(srv), nil)
	err := c.ConfirmSignature(context.Background(), "bad-sig")
	if err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Errorf("ConfirmSignature = %v, want rejection", err)
	}
}

func TestConfirmSignatureTimeout(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, sig string) {
		// Never notify.
	})
	defer srv.Close()

	cfg := DefaultWSConfirmerConfig()
	cfg.ConfirmTimeout = 100 * time.Millisecond
	c := NewWSConfirmer(wsURL(srv), &cfg)

	start := time.Now()
	err := c.ConfirmSignature(context.Background(), "sig-1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout took too long")
	}
}
