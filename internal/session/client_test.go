package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// archiveStub is an in-memory stand-in for the backend conversation archive.
type archiveStub struct {
	mu       sync.Mutex
	sessions map[string][]Message
	names    map[string]string
	nextID   int
	failAll  bool
}

func newArchiveStub() *archiveStub {
	return &archiveStub{
		sessions: make(map[string][]Message),
		names:    make(map[string]string),
	}
}

func (a *archiveStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat/save", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.failAll {
			http.Error(w, `{"detail":"archive down"}`, http.StatusInternalServerError)
			return
		}
		var req struct {
			Messages []Message `json:"messages"`
			Name     string    `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode save body: %v", err)
		}
		a.nextID++
		id := "sess-" + strconv.Itoa(a.nextID)
		name := req.Name
		if name == "" {
			name = "Untitled"
		}
		a.sessions[id] = req.Messages
		a.names[id] = name
		json.NewEncoder(w).Encode(map[string]string{"session_id": id, "name": name})
	})

	mux.HandleFunc("GET /chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.failAll {
			http.Error(w, `{"detail":"archive down"}`, http.StatusInternalServerError)
			return
		}
		list := []Session{}
		for id, msgs := range a.sessions {
			list = append(list, Session{
				ID:           id,
				Name:         a.names[id],
				CreatedAt:    "2026-09-01T10:00:00.000000",
				MessageCount: len(msgs),
			})
		}
		json.NewEncoder(w).Encode(map[string][]Session{"sessions": list})
	})

	mux.HandleFunc("GET /chat/load/{id}", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		msgs, ok := a.sessions[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string][]Message{"messages": msgs})
	})

	mux.HandleFunc("DELETE /chat/session/{id}", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		id := r.PathValue("id")
		if _, ok := a.sessions[id]; !ok {
			http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
			return
		}
		delete(a.sessions, id)
		delete(a.names, id)
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	})

	return mux
}

func newTestClient(t *testing.T, stub *archiveStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, srv.Client(), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func sampleConversation() []Message {
	return []Message{
		{Role: RoleUser, Content: "hello", Timestamp: time.Now().UTC()},
		{Role: RoleAssistant, Content: "hi there", Timestamp: time.Now().UTC()},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	c := newTestClient(t, newArchiveStub())
	ctx := context.Background()

	result, err := c.Save(ctx, sampleConversation(), "My chat")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if result.SessionID == "" || result.Name != "My chat" {
		t.Errorf("save result = %+v, want id and the given name", result)
	}

	// Save refreshes the cached list.
	list := c.Sessions()
	if len(list) != 1 {
		t.Fatalf("cached sessions = %d, want 1", len(list))
	}
	if list[0].MessageCount != 2 {
		t.Errorf("message count = %d, want 2", list[0].MessageCount)
	}

	msgs, err := c.Load(ctx, result.SessionID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "hello" || msgs[1].Role != RoleAssistant {
		t.Errorf("loaded messages = %+v, want the saved conversation", msgs)
	}
}

func TestSaveDefaultsName(t *testing.T) {
	c := newTestClient(t, newArchiveStub())

	result, err := c.Save(context.Background(), sampleConversation(), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if result.Name != "Untitled" {
		t.Errorf("name = %q, want archive-assigned default", result.Name)
	}
}

func TestSaveFailureLeavesCacheUntouched(t *testing.T) {
	stub := newArchiveStub()
	c := newTestClient(t, stub)
	ctx := context.Background()

	if _, err := c.Save(ctx, sampleConversation(), "keep me"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before := c.Sessions()

	stub.mu.Lock()
	stub.failAll = true
	stub.mu.Unlock()

	if _, err := c.Save(ctx, sampleConversation(), "lost"); err == nil {
		t.Fatal("expected save error")
	}

	after := c.Sessions()
	if len(after) != len(before) {
		t.Errorf("cache changed on failed save: %d -> %d entries", len(before), len(after))
	}
}

func TestRefreshFailureKeepsStaleList(t *testing.T) {
	stub := newArchiveStub()
	c := newTestClient(t, stub)
	ctx := context.Background()

	if _, err := c.Save(ctx, sampleConversation(), "survivor"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stub.mu.Lock()
	stub.failAll = true
	stub.mu.Unlock()

	if err := c.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}

	list := c.Sessions()
	if len(list) != 1 || list[0].Name != "survivor" {
		t.Errorf("stale list = %+v, want the previously cached entry", list)
	}
}

func TestDeleteDropsCacheEntryAfterSuccess(t *testing.T) {
	c := newTestClient(t, newArchiveStub())
	ctx := context.Background()

	first, err := c.Save(ctx, sampleConversation(), "first")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := c.Save(ctx, sampleConversation(), "second"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := c.Delete(ctx, first.SessionID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, s := range c.Sessions() {
		if s.ID == first.SessionID {
			t.Errorf("deleted session %s still in cache", s.ID)
		}
	}
	if got := len(c.Sessions()); got != 1 {
		t.Errorf("cached sessions = %d, want 1", got)
	}

	if _, err := c.Load(ctx, first.SessionID); err == nil {
		t.Error("expected load of deleted session to fail")
	}
}

func TestDeleteFailureKeepsCacheEntry(t *testing.T) {
	c := newTestClient(t, newArchiveStub())
	ctx := context.Background()

	saved, err := c.Save(ctx, sampleConversation(), "sticky")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := c.Delete(ctx, "nope"); err == nil {
		t.Fatal("expected delete of unknown session to fail")
	}

	list := c.Sessions()
	if len(list) != 1 || list[0].ID != saved.SessionID {
		t.Errorf("cache = %+v, want the saved entry untouched", list)
	}
}

func TestLoadUnknownSession(t *testing.T) {
	c := newTestClient(t, newArchiveStub())
	if _, err := c.Load(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}
