package calendar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"getmoredone/internal/calendar"
)

func TestPublish(t *testing.T) {
	var got calendar.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cal.example/ev/42"})
	}))
	defer srv.Close()

	p := calendar.NewHTTPPublisher(srv.URL, time.Second)
	ref, err := p.Publish(context.Background(), calendar.Event{
		Title: "Deep work", Date: "2026-01-13", StartTime: "09:00", EndTime: "09:50",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ref != "https://cal.example/ev/42" {
		t.Fatalf("ref = %q", ref)
	}
	if got.Title != "Deep work" || got.Date != "2026-01-13" {
		t.Fatalf("posted event = %+v", got)
	}
}

func TestPublishServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := calendar.NewHTTPPublisher(srv.URL, time.Second)
	if _, err := p.Publish(context.Background(), calendar.Event{Title: "x"}); err == nil {
		t.Fatal("expected error on 500")
	}
}
