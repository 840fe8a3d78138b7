package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_ListTimeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/timeline" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		w.Write([]byte(`{"posts":[{"id":"1","author":"Trader","handle":"@trader","content":"BTC looking strong","likes":10}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123")
	posts, err := client.ListTimeline(context.Background(), "bitcoin", 10)
	if err != nil {
		t.Fatalf("ListTimeline failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(posts))
	}
	if posts[0].Author != "Trader" {
		t.Errorf("Unexpected post: %+v", posts[0])
	}
}

func TestClient_SearchPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "ethereum" {
			t.Errorf("Expected query 'ethereum', got %q", got)
		}
		w.Write([]byte(`{"posts":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.SearchPosts(context.Background(), "ethereum", 5); err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
}

func TestClient_NoProviderConfigured(t *testing.T) {
	client := NewClient("", "")
	if _, err := client.ListTimeline(context.Background(), "bitcoin", 5); err == nil {
		t.Error("Expected error with no base URL configured")
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-token")
	if _, err := client.ListTimeline(context.Background(), "bitcoin", 5); err == nil {
		t.Error("Expected error for 401 response")
	}
}

func TestSamplePosts(t *testing.T) {
	posts := SamplePosts()
	if len(posts) == 0 {
		t.Fatal("Expected sample posts")
	}
	for _, p := range posts {
		if p.ID == "" || p.Content == "" {
			t.Errorf("Sample post missing fields: %+v", p)
		}
	}
}
