package marketdata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// newTestFeed serves one fake exchange stream: it records the
// subscription, then pushes the given raw messages.
func newTestFeed(t *testing.T, messages []string, subscribed chan<- string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var sub subscribeMessage
		if err := conn.ReadJSON(&sub); err != nil {
			// The hijacked websocket outlives server.Close, so this read
			// can fail after the test has completed; calling t.Errorf here
			// would panic. Tests that require a subscription assert it via
			// the subscribed channel and their own timeouts.
			return
		}
		if subscribed != nil {
			subscribed <- sub.Channel
		}

		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestStreamDeliversBookTops(t *testing.T) {
	update := `{"channel":"order_book/ETH","market":"ETH","order_book":{"bids":[{"price":1850.5,"size":3}],"asks":[{"price":1851,"size":2}]}}`
	subscribed := make(chan string, 1)
	server := newTestFeed(t, []string{update}, subscribed)
	defer server.Close()

	config := DefaultConfig()
	config.WSURL = wsURL(server)
	config.Markets = []string{"ETH"}
	config.EnableLogging = false

	stream := NewStream(config)
	tops := make(chan BookTop, 1)
	stream.SetBookCallback(func(top BookTop) { tops <- top })

	if err := stream.Start(); err != nil {
		t.Fatalf("failed to start stream: %v", err)
	}
	defer stream.Stop()

	select {
	case channel := <-subscribed:
		if channel != "order_book/ETH" {
			t.Errorf("subscribed to %s, want order_book/ETH", channel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription received")
	}

	select {
	case top := <-tops:
		if top.Market != "ETH" || top.BestBid != 1850.5 || top.BestAsk != 1851 {
			t.Errorf("unexpected top: %+v", top)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no book update received")
	}

	latest, ok := stream.GetLatest("ETH")
	if !ok || latest.BestBid != 1850.5 {
		t.Errorf("cached top missing or stale: %+v", latest)
	}

	status := stream.GetConnectionStatus()
	if !status.IsConnected || status.MessageCount == 0 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestStreamIgnoresMalformedMessages(t *testing.T) {
	messages := []string{
		`not-json`,
		`{"channel":"order_book/ETH"}`,
		`{"channel":"order_book/ETH","market":"ETH","order_book":{"bids":[{"price":10,"size":1}],"asks":[]}}`,
	}
	server := newTestFeed(t, messages, nil)
	defer server.Close()

	config := DefaultConfig()
	config.WSURL = wsURL(server)
	config.Markets = []string{"ETH"}
	config.EnableLogging = false

	stream := NewStream(config)
	tops := make(chan BookTop, 4)
	stream.SetBookCallback(func(top BookTop) { tops <- top })

	if err := stream.Start(); err != nil {
		t.Fatalf("failed to start stream: %v", err)
	}
	defer stream.Stop()

	select {
	case top := <-tops:
		// Only the one well-formed update makes it through.
		if top.BestBid != 10 {
			t.Errorf("unexpected top: %+v", top)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("well-formed update not delivered")
	}
}

func TestDialAloneDoesNotResetReconnectBudget(t *testing.T) {
	server := newTestFeed(t, nil, nil)
	defer server.Close()

	config := DefaultConfig()
	config.WSURL = wsURL(server)
	config.Markets = []string{"ETH"}
	config.EnableLogging = false

	stream := NewStream(config)
	stream.reconnectAttempts = 4
	if err := stream.connect(); err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer stream.conn.Close()

	// A successful dial without a subscription must not refill the
	// budget, or a subscribe failure could retry forever.
	if stream.reconnectAttempts != 4 {
		t.Errorf("reconnect budget counter = %d after dial, want 4", stream.reconnectAttempts)
	}
}

func TestReconnectBudgetExhausts(t *testing.T) {
	config := DefaultConfig()
	config.WSURL = "ws://127.0.0.1:1/stream"
	config.ReconnectInterval = time.Millisecond
	config.MaxReconnects = 3
	config.EnableLogging = false

	stream := NewStream(config)
	if stream.tryReconnect() {
		t.Fatal("reconnect reported success with no server listening")
	}
	if stream.reconnectAttempts <= config.MaxReconnects {
		t.Errorf("gave up after %d attempts, want more than %d", stream.reconnectAttempts, config.MaxReconnects)
	}
}

func TestStreamStartFailsWithoutServer(t *testing.T) {
	config := DefaultConfig()
	config.WSURL = "ws://127.0.0.1:1/stream"
	config.EnableLogging = false

	stream := NewStream(config)
	if err := stream.Start(); err == nil {
		stream.Stop()
		t.Fatal("expected connection error")
	}
}
