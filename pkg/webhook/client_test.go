package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_SendAlertPostsJSON(t *testing.T) {
	var got Alert
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewWebhookClient(server.URL, time.Second)

	err := client.SendAlert(context.Background(), Alert{
		Alert:               "consecutive_all_fail",
		RunNumber:           7,
		ConsecutiveFailures: 3,
		MessagesInBatch:     2,
		Timestamp:           time.Now(),
	})
	if err != nil {
		t.Fatalf("SendAlert: %v", err)
	}

	if got.RunNumber != 7 || got.ConsecutiveFailures != 3 {
		t.Errorf("unexpected alert payload: %+v", got)
	}
}

func TestClient_SendAlertRejectsUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewWebhookClient(server.URL, time.Second)

	if err := client.SendAlert(context.Background(), Alert{Alert: "x"}); err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if client.GetURL() != server.URL {
		t.Errorf("expected URL %q, got %q", server.URL, client.GetURL())
	}
}
