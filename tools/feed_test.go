package tools

import (
	"testing"
)

func TestFeed_ConnectAndData(t *testing.T) {
	feed := NewFeed()
	defer feed.Close()

	if err := feed.Connect("bitcoin"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ticks, connected := feed.Data("bitcoin")
	if !connected {
		t.Fatal("Expected bitcoin to be connected")
	}
	if len(ticks) == 0 {
		t.Fatal("Expected at least one tick immediately after connect")
	}
	if ticks[0].Token != "bitcoin" || ticks[0].Price <= 0 {
		t.Errorf("Unexpected tick: %+v", ticks[0])
	}
}

func TestFeed_ConnectTwiceIsIdempotent(t *testing.T) {
	feed := NewFeed()
	defer feed.Close()

	if err := feed.Connect("bitcoin"); err != nil {
		t.Fatalf("First connect failed: %v", err)
	}
	if err := feed.Connect("bitcoin"); err != nil {
		t.Fatalf("Second connect failed: %v", err)
	}
	if len(feed.Connected()) != 1 {
		t.Errorf("Expected 1 connection, got %d", len(feed.Connected()))
	}
}

func TestFeed_EmptyTokenRejected(t *testing.T) {
	feed := NewFeed()
	if err := feed.Connect(""); err == nil {
		t.Error("Expected error for empty token")
	}
}

func TestFeed_Disconnect(t *testing.T) {
	feed := NewFeed()
	defer feed.Close()

	feed.Connect("ethereum")
	if err := feed.Disconnect("ethereum"); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if _, connected := feed.Data("ethereum"); connected {
		t.Error("Expected ethereum to be disconnected")
	}
	if err := feed.Disconnect("ethereum"); err == nil {
		t.Error("Expected error disconnecting an unconnected token")
	}
}

func TestFeed_DataForUnknownToken(t *testing.T) {
	feed := NewFeed()
	if _, connected := feed.Data("unknown"); connected {
		t.Error("Expected no data for unknown token")
	}
}

func TestFeed_DeterministicSeed(t *testing.T) {
	a := NewFeed()
	b := NewFeed()
	defer a.Close()
	defer b.Close()

	a.Connect("bitcoin")
	b.Connect("bitcoin")

	ticksA, _ := a.Data("bitcoin")
	ticksB, _ := b.Data("bitcoin")
	if ticksA[0].Price != ticksB[0].Price {
		t.Errorf("Expected seeded walk to start at the same price, got %f vs %f",
			ticksA[0].Price, ticksB[0].Price)
	}
}

func TestFeed_Close(t *testing.T) {
	feed := NewFeed()
	feed.Connect("bitcoin")
	feed.Connect("ethereum")
	feed.Close()

	if len(feed.Connected()) != 0 {
		t.Errorf("Expected no connections after Close, got %d", len(feed.Connected()))
	}
}
