package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/focusloop/attention-budget/pkg/behavior"
	"github.com/focusloop/attention-budget/pkg/classify"
	"github.com/focusloop/attention-budget/pkg/engine"
	"github.com/focusloop/attention-budget/pkg/nudge"
	"github.com/focusloop/attention-budget/pkg/plan"
	"github.com/focusloop/attention-budget/pkg/spiral"
	"github.com/focusloop/attention-budget/pkg/state"
	"github.com/focusloop/attention-budget/pkg/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := state.NewStore(storage.NewMemoryKV())
	eng := engine.New(
		store,
		plan.DefaultTable(),
		spiral.NewDetector(store, spiral.DefaultConfig()),
		behavior.NewTracker(store, behavior.DefaultConfig()),
		classify.Static{Category: state.CategoryNeutral},
		nudge.NewDispatcher(nudge.NewRegistry()),
	)

	s := NewHTTPServer(0, eng)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	srv := httptest.NewServer(s.server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDecisionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/decision", engine.PageContext{
		UserID: "user1",
		Page:   "SEARCH",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var res engine.PageResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Decision.Blocked {
		t.Errorf("first search should be allowed: %+v", res.Decision)
	}
	if res.Tier != plan.TierFree {
		t.Errorf("Tier = %v, want free default", res.Tier)
	}
}

func TestFailOpenResultStaysInEnums(t *testing.T) {
	data, err := json.Marshal(failOpenResult())
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var got struct {
		Decision struct {
			Blocked bool   `json:"blocked"`
			Scope   string `json:"scope"`
			Reason  string `json:"reason"`
		} `json:"decision"`
		Tier string `json:"tier"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if got.Decision.Blocked {
		t.Error("degraded response must allow")
	}
	if got.Decision.Scope != "none" || got.Decision.Reason != "ok" {
		t.Errorf("degraded response = %+v, want scope none / reason ok", got.Decision)
	}
	if got.Tier != "free" {
		t.Errorf("degraded tier = %q, want free", got.Tier)
	}
}

func TestDecisionEndpointMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/decision", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDecisionEndpointMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/decision")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestWatchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/watch", map[string]interface{}{
		"userId": "user1",
		"entry": state.WatchHistoryEntry{
			Channel:      "ch",
			VideoID:      "v1",
			WatchSeconds: 300,
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var res spiral.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Record.WeekSeconds != 300 {
		t.Errorf("record = %+v", res.Record)
	}
}

func TestTickEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/tick", engine.TickRequest{
		UserID:  "user1",
		VideoID: "v1",
		Channel: "ch",
		State:   behavior.StatePlaying,
		Audible: true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var res engine.TickResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !res.Classification.Known {
		t.Errorf("classification = %+v", res.Classification)
	}
}

func TestDismissEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/dismiss", map[string]string{
		"userId":  "user1",
		"channel": "ch",
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
