package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckASRReportsHealthyOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("expected /health, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker()
	status := c.CheckASR(context.Background(), srv.URL)
	if !status.Healthy {
		t.Errorf("expected healthy, got %+v", status)
	}
	if status.Name != "asr" {
		t.Errorf("expected name asr, got %q", status.Name)
	}
}

func TestCheckChatReportsUnhealthyOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewChecker()
	status := c.CheckChat(context.Background(), srv.URL)
	if status.Healthy {
		t.Error("expected unhealthy on 503")
	}
	if status.Error == "" {
		t.Error("expected error detail to be set")
	}
}

func TestCheckAllReturnsBothInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker()
	statuses := c.CheckAll(context.Background(), srv.URL, "")
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "asr" || statuses[1].Name != "chat" {
		t.Errorf("expected [asr, chat] order, got [%s, %s]", statuses[0].Name, statuses[1].Name)
	}
	if statuses[1].Healthy {
		t.Error("expected chat unhealthy when URL is empty")
	}
}
