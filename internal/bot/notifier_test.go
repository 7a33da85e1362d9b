package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramNotifier_SendText(t *testing.T) {
	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN123/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier("TOKEN123", WithAPIURL(server.URL+"/"))
	if err := n.SendText(context.Background(), -1001, "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if got.ChatID != -1001 || got.Text != "hello" || !got.DisableWebPagePreview {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestTelegramNotifier_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked"}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier("TOKEN123", WithAPIURL(server.URL))
	err := n.SendText(context.Background(), 7, "hi")
	if err == nil || !strings.Contains(err.Error(), "bot was kicked") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestTelegramNotifier_TransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	n := NewTelegramNotifier("SECRET-TOKEN", WithAPIURL(url))
	err := n.SendText(context.Background(), 7, "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "SECRET-TOKEN") {
		t.Errorf("error leaks the bot token: %v", err)
	}
}
