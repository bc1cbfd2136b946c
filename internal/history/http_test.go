package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chats/chat-1/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ClientTempID != "tmp-1" || req.Content != "hello" {
			t.Fatalf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(submitResponse{
			SavedID: &SubmitResult{SystemTempIDs: []string{"sys-1"}},
			RunID:   "run-1",
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "token", 5*time.Second)
	result, err := client.Submit(context.Background(), "chat-1", "hello", "tmp-1")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(result.SystemTempIDs) != 1 || result.SystemTempIDs[0] != "sys-1" {
		t.Fatalf("unexpected system temp ids %v", result.SystemTempIDs)
	}
	if result.RunID != "run-1" {
		t.Fatalf("unexpected run id %q", result.RunID)
	}
}

func TestSubmitQuotaStatusCodes(t *testing.T) {
	for _, status := range []int{http.StatusPaymentRequired, http.StatusTooManyRequests} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		client := NewHTTPClient(srv.URL, "", 5*time.Second)
		_, err := client.Submit(context.Background(), "c", "hi", "tmp-1")
		srv.Close()
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("status %d should map to ErrQuotaExceeded, got %v", status, err)
		}
	}
}

func TestSubmitQuotaErrorCodeInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{Error: "plan limit reached", Code: "quota_exceeded"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", 5*time.Second)
	_, err := client.Submit(context.Background(), "c", "hi", "tmp-1")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("quota error code should map to ErrQuotaExceeded, got %v", err)
	}
}

func TestFetchHistoryValidatesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(historyResponse{Messages: []RawMessage{
			{ID: "m-1", Role: "robot", Content: "hi", Timestamp: time.Now()},
		}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", 5*time.Second)
	if _, err := client.FetchHistory(context.Background(), "c"); err == nil {
		t.Fatal("unknown role must fail loudly, not map silently")
	}
}

func TestFetchHistoryRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("missing auth header")
		}
		json.NewEncoder(w).Encode(historyResponse{Messages: []RawMessage{
			{ID: "m-1", Role: RoleUser, Content: "hello", Timestamp: now, ClientTempID: "tmp-1"},
			{ID: "m-2", Role: RoleAssistant, Content: "hi!", Timestamp: now.Add(time.Second)},
		}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "token", 5*time.Second)
	rows, err := client.FetchHistory(context.Background(), "c")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ClientTempID != "tmp-1" {
		t.Fatal("echoed client temp id should survive decoding")
	}
}

func TestSafeURLRejectsBadSchemes(t *testing.T) {
	client := NewHTTPClient("ftp://example.com", "", time.Second)
	if _, err := client.Submit(context.Background(), "c", "hi", "tmp"); err == nil {
		t.Fatal("non-http scheme should be rejected")
	}
}
