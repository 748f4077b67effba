package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/blind-control/internal/control"
	"github.com/sweeney/blind-control/internal/metrics"
	"github.com/sweeney/blind-control/internal/position"
	"github.com/sweeney/blind-control/internal/relay"
	"github.com/sweeney/blind-control/internal/status"
	"github.com/sweeney/blind-control/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *control.Dispatcher, *status.Tracker) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	cfg := control.Config{
		Channels: map[int]control.Pins{
			1: {Up: 3, Down: 15, Stop: 4},
			2: {Up: 5, Down: 6, Stop: 7},
		},
		Params:    position.Params{Max: 100, Step: 5, FullTravel: 20 * time.Second, StopEstimate: position.StopInterpolate},
		Press:     time.Millisecond,
		StepPress: time.Millisecond,
	}
	dispatcher := control.New(cfg, relay.NewFake(), st, nil)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker := status.NewTracker(start, status.Config{
		HTTPAddr:    ":4000",
		Broker:      "tcp://192.168.1.200:1883",
		StateFile:   st.Path(),
		MaxPosition: 100,
	})
	dispatcher.SetEventSink(func(ev control.Event) {
		tracker.RecordCommand(ev.Nr, ev.Action, ev.Position, ev.Timestamp)
	})

	srv := New(":0", dispatcher, tracker, metrics.NewPrometheus().Handler())
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, dispatcher, tracker
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStateEndpoint(t *testing.T) {
	ts, dispatcher, _ := newTestServer(t)

	if err := dispatcher.Sync(1, 40); err != nil {
		t.Fatalf("sync: %v", err)
	}

	resp, err := http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var state map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state["1"] != 40 {
		t.Errorf("channel 1: got %d, want 40", state["1"])
	}
	if state["2"] != 0 {
		t.Errorf("channel 2: got %d, want 0", state["2"])
	}
}

func TestStateMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/state", "{}")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestSyncEndpoint(t *testing.T) {
	ts, dispatcher, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/sync", `{"nr": 1, "value": 75}`)
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var sr SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sr.Status != "synchronized" || sr.Nr != 1 || sr.Position != 75 {
		t.Errorf("response: got %+v", sr)
	}

	if got := dispatcher.State()[1]; got != 75 {
		t.Errorf("dispatcher state: got %d, want 75", got)
	}
}

func TestSyncValidation(t *testing.T) {
	ts, dispatcher, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing value", `{"nr": 1}`, 400},
		{"missing nr", `{"value": 10}`, 400},
		{"not json", `hello`, 400},
		{"out of range high", `{"nr": 1, "value": 101}`, 400},
		{"out of range negative", `{"nr": 1, "value": -1}`, 400},
		{"unknown channel", `{"nr": 42, "value": 10}`, 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/sync", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	if got := dispatcher.State()[1]; got != 0 {
		t.Errorf("position after rejected syncs: got %d, want 0", got)
	}
}

func TestActionsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/actions", `[
		{"nr": 1, "action": "UP"},
		{"nr": 2, "action": "increase"},
		{"nr": 9, "action": "DOWN"},
		{"nr": 1, "action": "WIGGLE"}
	]`)
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200 (partial failure)", resp.StatusCode)
	}

	var ar ActionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ar.Status != "partial" {
		t.Errorf("batch status: got %q, want partial", ar.Status)
	}
	if len(ar.Results) != 4 {
		t.Fatalf("results: got %d, want 4", len(ar.Results))
	}

	if ar.Results[0].Error != "" || ar.Results[0].Position == nil || *ar.Results[0].Position != 100 {
		t.Errorf("entry 0: got %+v", ar.Results[0])
	}
	if ar.Results[1].Position == nil || *ar.Results[1].Position != 5 {
		t.Errorf("entry 1: got %+v", ar.Results[1])
	}
	if ar.Results[2].Error == "" {
		t.Error("entry 2: expected unknown channel error")
	}
	if ar.Results[3].Error == "" || !strings.Contains(ar.Results[3].Error, "WIGGLE") {
		t.Errorf("entry 3: got %+v", ar.Results[3])
	}
}

func TestActionsAllFailed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/actions", `[{"nr": 9, "action": "UP"}]`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}

	var ar ActionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ar.Status != "failed" {
		t.Errorf("batch status: got %q, want failed", ar.Status)
	}
}

func TestActionsMalformedBody(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/actions", `{"nr": 1, "action": "UP"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestIndexJSON(t *testing.T) {
	ts, dispatcher, tracker := newTestServer(t)
	tracker.SetMQTTConnected(true)

	if err := dispatcher.Sync(2, 60); err != nil {
		t.Fatalf("sync: %v", err)
	}

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("broker: got %q", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Commands != 1 {
		t.Errorf("commands: got %d, want 1", sj.Status.Counts.Commands)
	}

	found := false
	for _, ch := range sj.Status.Channels {
		if ch.Nr == 2 {
			found = true
			if ch.Position != 60 || ch.LastAction != "SYNC" {
				t.Errorf("channel 2: got %+v", ch)
			}
		}
	}
	if !found {
		t.Error("channel 2 missing from status")
	}
}

func TestIndexHTML(t *testing.T) {
	ts, dispatcher, _ := newTestServer(t)

	if err := dispatcher.Sync(1, 50); err != nil {
		t.Fatalf("sync: %v", err)
	}

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	body := buf.String()
	if !strings.Contains(body, "Blind Control") {
		t.Error("page title missing")
	}
	if !strings.Contains(body, "SYNC") {
		t.Error("last action missing from page")
	}
}

func TestIndexUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}
