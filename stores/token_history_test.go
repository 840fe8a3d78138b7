package stores

import (
	"path/filepath"
	"testing"
)

func TestTokenHistory_RecordAndList(t *testing.T) {
	h, err := NewTokenHistory("")
	if err != nil {
		t.Fatalf("Failed to create token history: %v", err)
	}

	h.Record("bitcoin", "btc", "Bitcoin")
	h.Record("ethereum", "eth", "Ethereum")

	items := h.List()
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ID != "ethereum" {
		t.Errorf("Expected newest entry first, got %s", items[0].ID)
	}
}

func TestTokenHistory_DedupeMovesToFront(t *testing.T) {
	h, _ := NewTokenHistory("")
	h.Record("bitcoin", "btc", "Bitcoin")
	h.Record("ethereum", "eth", "Ethereum")
	h.Record("bitcoin", "btc", "Bitcoin")

	items := h.List()
	if len(items) != 2 {
		t.Fatalf("Expected dedupe to keep 2 items, got %d", len(items))
	}
	if items[0].ID != "bitcoin" {
		t.Errorf("Expected re-recorded token at front, got %s", items[0].ID)
	}
}

func TestTokenHistory_CapsAtLimit(t *testing.T) {
	h, _ := NewTokenHistory("")
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, id := range ids {
		h.Record(id, id, id)
	}

	items := h.List()
	if len(items) != DefaultTokenHistoryLimit {
		t.Fatalf("Expected history capped at %d, got %d", DefaultTokenHistoryLimit, len(items))
	}
	if items[0].ID != "l" {
		t.Errorf("Expected most recent token first, got %s", items[0].ID)
	}
	// Oldest entries fall off the end
	for _, item := range items {
		if item.ID == "a" || item.ID == "b" {
			t.Errorf("Expected oldest entries to be evicted, found %s", item.ID)
		}
	}
}

func TestTokenHistory_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token_history.json")

	h, err := NewTokenHistory(path)
	if err != nil {
		t.Fatalf("Failed to create token history: %v", err)
	}
	h.Record("solana", "sol", "Solana")

	reloaded, err := NewTokenHistory(path)
	if err != nil {
		t.Fatalf("Failed to reload token history: %v", err)
	}
	items := reloaded.List()
	if len(items) != 1 {
		t.Fatalf("Expected 1 item after reload, got %d", len(items))
	}
	if items[0].Symbol != "sol" {
		t.Errorf("Expected symbol 'sol', got %q", items[0].Symbol)
	}
}

func TestTokenHistory_Clear(t *testing.T) {
	h, _ := NewTokenHistory("")
	h.Record("bitcoin", "btc", "Bitcoin")
	h.Clear()

	if len(h.List()) != 0 {
		t.Error("Expected empty history after Clear")
	}
}
