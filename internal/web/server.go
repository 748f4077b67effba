// Package web provides the HTTP control and status surface for the
// blind-control daemon.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sweeney/blind-control/internal/control"
	"github.com/sweeney/blind-control/internal/position"
	"github.com/sweeney/blind-control/internal/status"
)

// Server serves the control API and status page over HTTP.
type Server struct {
	httpServer *http.Server
	dispatcher *control.Dispatcher
	tracker    *status.Tracker
}

// New creates a Server. metrics, if non-nil, is mounted at /metrics.
func New(addr string, dispatcher *control.Dispatcher, tracker *status.Tracker, metrics http.Handler) *Server {
	s := &Server{dispatcher: dispatcher, tracker: tracker}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/sync", s.handleSync)
	mux.HandleFunc("/actions", s.handleActions)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatJSON(snap))
}

// handleState returns the flat nr -> position mapping.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := s.dispatcher.State()
	out := make(map[string]int, len(state))
	for nr, pos := range state {
		out[strconv.Itoa(nr)] = pos
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// handleSync overwrites one channel's position estimate.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Nr == nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "both 'nr' and 'value' are required")
		return
	}

	if err := s.dispatcher.Sync(*req.Nr, *req.Value); err != nil {
		s.tracker.RecordRejected()
		writeError(w, errorStatus(err), err.Error())
		return
	}

	log.Printf("web: channel %d manually synced to %d", *req.Nr, *req.Value)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SyncResponse{
		Status:   "synchronized",
		Nr:       *req.Nr,
		Position: *req.Value,
	})
}

// handleActions dispatches a batch of commands and reports per-entry results.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var entries []ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON array of actions: "+err.Error())
		return
	}

	commands := make([]control.Command, 0, len(entries))
	parseErrs := make([]error, len(entries))
	for i, e := range entries {
		action, err := position.ParseAction(e.Action)
		if err != nil {
			parseErrs[i] = err
			commands = append(commands, control.Command{Nr: e.Nr, Action: ""})
			continue
		}
		cmd := control.Command{Nr: e.Nr, Action: action}
		if e.DurationMs != nil {
			cmd.Delay = time.Duration(*e.DurationMs) * time.Millisecond
		}
		commands = append(commands, cmd)
	}

	results := s.dispatcher.ApplyBatch(commands)

	resp := ActionsResponse{Results: make([]ActionResult, len(results))}
	failed := 0
	for i, res := range results {
		ar := ActionResult{Nr: res.Nr, Action: string(res.Action)}
		err := res.Err
		if parseErrs[i] != nil {
			err = parseErrs[i]
			ar.Action = entries[i].Action
		}
		if err != nil {
			failed++
			ar.Error = err.Error()
			s.tracker.RecordRejected()
		} else {
			pos := res.Position
			ar.Position = &pos
		}
		resp.Results[i] = ar
	}
	resp.Status = batchStatus(len(results), failed)

	code := http.StatusOK
	if len(results) > 0 && failed == len(results) {
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func batchStatus(total, failed int) string {
	switch {
	case failed == 0:
		return "completed"
	case failed == total:
		return "failed"
	default:
		return "partial"
	}
}

// errorStatus maps dispatcher errors onto HTTP status codes.
func errorStatus(err error) int {
	var hwErr *control.HardwareError
	switch {
	case errors.Is(err, control.ErrUnknownChannel):
		return http.StatusNotFound
	case errors.Is(err, control.ErrUnknownAction), errors.Is(err, control.ErrOutOfRange), errors.Is(err, control.ErrBadDelay):
		return http.StatusBadRequest
	case errors.As(err, &hwErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
