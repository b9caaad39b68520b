package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFallbackRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/run_task" {
			t.Errorf("got %s %s, want POST /run_task", r.Method, r.URL.Path)
		}
		var req TaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Task != "ping" || req.Model != "model-a" {
			t.Errorf("request = %+v, want task=ping model=model-a", req)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status": "COMPLETED",
			"result": "pong",
		})
	}))
	defer srv.Close()

	f, err := NewHTTPFallback(srv.URL, srv.Client(), testLogger())
	if err != nil {
		t.Fatalf("NewHTTPFallback: %v", err)
	}

	got, err := f.Run(context.Background(), "ping", "model-a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "pong" {
		t.Errorf("result = %q, want %q", got, "pong")
	}
}

func TestFallbackRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantIn  string
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "swarm offline", http.StatusServiceUnavailable)
			},
			wantIn: "agent error",
		},
		{
			name: "task reports failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{
					"status": "FAILED",
					"error":  "no model loaded",
				})
			},
			wantIn: "no model loaded",
		},
		{
			name: "error field set despite ok status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{
					"status": "COMPLETED",
					"error":  "partial failure",
				})
			},
			wantIn: "partial failure",
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			},
			wantIn: "unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f, err := NewHTTPFallback(srv.URL, srv.Client(), testLogger())
			if err != nil {
				t.Fatalf("NewHTTPFallback: %v", err)
			}

			_, err = f.Run(context.Background(), "ping", "m")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantIn)
			}
		})
	}
}

func TestFallbackRunRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	f, err := NewHTTPFallback(srv.URL, srv.Client(), testLogger())
	if err != nil {
		t.Fatalf("NewHTTPFallback: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Run(ctx, "ping", "m"); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
