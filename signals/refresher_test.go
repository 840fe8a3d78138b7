package signals

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marketmind/marketmind/market"
)

func candleServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Steady uptrend so every refresh produces a buy signal.
		w.Write([]byte(`[[1,100,101,99,100],[2,0,0,0,110],[3,0,0,0,121],[4,0,0,0,133],[5,0,0,0,146],[6,0,0,0,160]]`))
	}))
}

func TestRefresher_RefreshAllPopulatesLatest(t *testing.T) {
	server := candleServer(t)
	defer server.Close()

	generator := NewGenerator(&market.Client{BaseURL: server.URL, HTTPClient: server.Client()})
	refresher := NewRefresher(generator, []string{"bitcoin", "ethereum"}, time.Minute, nil)

	refresher.refreshAll()

	latest := refresher.Latest()
	if len(latest) != 2 {
		t.Fatalf("Expected signals for 2 tokens, got %d", len(latest))
	}
	for _, signal := range latest {
		if signal.Direction != DirectionBuy {
			t.Errorf("Expected buy signal for uptrend, got %s for %s", signal.Direction, signal.TokenID)
		}
	}

	if got := refresher.Get("bitcoin"); got == nil {
		t.Error("Expected signal for bitcoin")
	}
	if got := refresher.Get("dogecoin"); got != nil {
		t.Error("Expected nil for token never refreshed")
	}
}

func TestRefresher_UnknownTokenSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	generator := NewGenerator(&market.Client{BaseURL: server.URL, HTTPClient: server.Client()})
	refresher := NewRefresher(generator, []string{"no-such-token"}, time.Minute, nil)

	refresher.refreshAll()

	if len(refresher.Latest()) != 0 {
		t.Error("Expected no signals for unknown token")
	}
}

func TestRefresher_StartStopLifecycle(t *testing.T) {
	server := candleServer(t)
	defer server.Close()

	generator := NewGenerator(&market.Client{BaseURL: server.URL, HTTPClient: server.Client()})
	refresher := NewRefresher(generator, []string{"bitcoin"}, time.Minute, nil)

	if err := refresher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := refresher.Start(); err == nil {
		t.Error("Expected error starting twice")
	}
	refresher.Stop()

	// Stopping again is a no-op, restarting works.
	refresher.Stop()
	if err := refresher.Start(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	refresher.Stop()
}
