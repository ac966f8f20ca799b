package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/common"
	"github.com/focusloop/attention-budget/pkg/decision"
	"github.com/focusloop/attention-budget/pkg/engine"
	"github.com/focusloop/attention-budget/pkg/plan"
	"github.com/focusloop/attention-budget/pkg/state"
)

// HTTPServer serves the engine API the browser extension talks to.
type HTTPServer struct {
	server *http.Server
	port   int
	engine *engine.Engine
}

// NewHTTPServer creates the API server.
func NewHTTPServer(port int, eng *engine.Engine) *HTTPServer {
	return &HTTPServer{port: port, engine: eng}
}

// Setup builds the route table.
func (s *HTTPServer) Setup() error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/decision", s.handleDecision)
	mux.HandleFunc("POST /v1/watch", s.handleWatch)
	mux.HandleFunc("POST /v1/tick", s.handleTick)
	mux.HandleFunc("POST /v1/dismiss", s.handleDismiss)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return nil
}

// Start begins serving in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("API server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("API server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("API server stopped")
	return nil
}

func (s *HTTPServer) handleDecision(w http.ResponseWriter, r *http.Request) {
	scope := common.NewScope(r.Context(), "decision")
	defer scope.Finish()

	var pc engine.PageContext
	if !decodeRequest(w, r, scope, &pc) {
		return
	}
	scope.AddBaggage("user_id", pc.UserID)
	scope.AddBaggage("page_type", string(pc.Page))

	res, err := s.engine.EvaluatePage(scope.Ctx, pc, time.Now())
	if err != nil {
		// The engine degrades internally; an error here means even the
		// degraded path failed. Fail open with a bare allow.
		scope.TraceError(err)
		scope.Log.Errorf("decision evaluation failed for user %s: %v", pc.UserID, err)
		writeJSON(w, http.StatusOK, failOpenResult())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// failOpenResult is the degraded decision response: an explicit allow whose
// scope and reason stay inside their closed enums.
func failOpenResult() engine.PageResult {
	return engine.PageResult{
		Decision: decision.Decision{
			Blocked: false,
			Scope:   decision.ScopeNone,
			Reason:  decision.ReasonOK,
		},
		Tier: plan.TierFree,
	}
}

func (s *HTTPServer) handleWatch(w http.ResponseWriter, r *http.Request) {
	scope := common.NewScope(r.Context(), "watch")
	defer scope.Finish()

	var req struct {
		UserID string                  `json:"userId"`
		Entry  state.WatchHistoryEntry `json:"entry"`
	}
	if !decodeRequest(w, r, scope, &req) {
		return
	}
	scope.AddBaggage("user_id", req.UserID)

	res, err := s.engine.RecordWatch(scope.Ctx, req.UserID, req.Entry)
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("watch record failed for user %s: %v", req.UserID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleTick(w http.ResponseWriter, r *http.Request) {
	scope := common.NewScope(r.Context(), "tick")
	defer scope.Finish()

	var req engine.TickRequest
	if !decodeRequest(w, r, scope, &req) {
		return
	}
	scope.AddBaggage("user_id", req.UserID)

	res, err := s.engine.PlaybackTick(scope.Ctx, req, time.Now())
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("tick failed for user %s: %v", req.UserID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleDismiss(w http.ResponseWriter, r *http.Request) {
	scope := common.NewScope(r.Context(), "dismiss")
	defer scope.Finish()

	var req struct {
		UserID  string `json:"userId"`
		Channel string `json:"channel"`
	}
	if !decodeRequest(w, r, scope, &req) {
		return
	}

	if err := s.engine.DismissSpiral(scope.Ctx, req.UserID, req.Channel, time.Now()); err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("dismiss failed for user %s: %v", req.UserID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, scope *common.Scope, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		scope.TraceError(err)
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to encode response: %v", err)
	}
}
