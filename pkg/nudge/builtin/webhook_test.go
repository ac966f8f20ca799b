package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/focusloop/attention-budget/pkg/nudge"
)

func TestWebhookSinkDelivers(t *testing.T) {
	var received nudge.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewWebhookSink(nudge.SinkConfig{
		ID:         "hook",
		Type:       TypeWebhook,
		Enabled:    true,
		Parameters: map[string]interface{}{"url": srv.URL},
	})
	if err != nil {
		t.Fatalf("NewWebhookSink failed: %v", err)
	}

	ev := nudge.NewEvent("user1", nudge.KindSpiral, nudge.LevelNudge1, "", time.Now())
	ev.Channel = "ch"
	if err := sink.Deliver(context.Background(), ev); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if received.ID != ev.ID || received.Channel != "ch" {
		t.Errorf("received = %+v", received)
	}
}

func TestWebhookSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink, err := NewWebhookSink(nudge.SinkConfig{
		ID:         "hook",
		Parameters: map[string]interface{}{"url": srv.URL},
	})
	if err != nil {
		t.Fatalf("NewWebhookSink failed: %v", err)
	}

	ev := nudge.NewEvent("user1", nudge.KindSpiral, nudge.LevelNudge1, "", time.Now())
	if err := sink.Deliver(context.Background(), ev); err == nil {
		t.Fatal("5xx response should surface as a delivery error")
	}
}

func TestWebhookSinkRequiresURL(t *testing.T) {
	if _, err := NewWebhookSink(nudge.SinkConfig{ID: "hook"}); err == nil {
		t.Fatal("missing url parameter should fail")
	}
}

func TestLogSinkDelivers(t *testing.T) {
	sink, err := NewLogSink(nudge.SinkConfig{ID: "log"})
	if err != nil {
		t.Fatalf("NewLogSink failed: %v", err)
	}
	ev := nudge.NewEvent("user1", nudge.KindBehaviorLoop, nudge.LevelBreak, "", time.Now())
	if err := sink.Deliver(context.Background(), ev); err != nil {
		t.Errorf("Deliver failed: %v", err)
	}
}

func TestRegisterSinkTypes(t *testing.T) {
	RegisterSinkTypes()

	s, err := nudge.CreateSink(nudge.SinkConfig{ID: "l", Type: TypeLog, Enabled: true})
	if err != nil || s == nil {
		t.Fatalf("log sink creation = (%v, %v)", s, err)
	}
	if s.ID() != "l" {
		t.Errorf("ID = %s", s.ID())
	}
}
