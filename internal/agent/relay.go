package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"nexusctl/internal/session"

	"go.opentelemetry.io/otel/metric"
)

// Transport is the duplex channel the relay prefers for submitting tasks.
// *Connector satisfies it; tests substitute fakes.
type Transport interface {
	Send(req TaskRequest) error
	Connected() bool
}

// Relay is the single source of truth for a live conversation: the message
// list, the processing flag, the cached session list and the last surfaced
// error. The transport path and the fallback path are mutually exclusive per
// submitted turn, and the relay itself rejects a second turn while one is in
// flight rather than trusting the caller to gate input.
type Relay struct {
	transport Transport
	fallback  TaskRunner
	sessions  *session.Client
	logger    *slog.Logger
	meter     metric.Meter
	onUpdate  func()

	mu         sync.Mutex
	messages   []session.Message
	processing bool
	lastErr    string
	acc        Accumulator
}

// RelayOpts holds parameters for creating a Relay.
type RelayOpts struct {
	Transport Transport       // optional; fallback-only when nil
	Fallback  TaskRunner      // optional; transport-only when nil
	Sessions  *session.Client // optional; session operations fail without it
	Logger    *slog.Logger
	Meter     metric.Meter // optional
	OnUpdate  func()       // optional; called after every state change
}

// NewRelay creates a Relay.
func NewRelay(opts RelayOpts) (*Relay, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Relay{
		transport: opts.Transport,
		fallback:  opts.Fallback,
		sessions:  opts.Sessions,
		logger:    opts.Logger,
		meter:     opts.Meter,
		onUpdate:  opts.OnUpdate,
	}, nil
}

// SetTransport wires the duplex channel after construction. The connector
// needs the relay as its frame handler, so the two are built in sequence.
func (r *Relay) SetTransport(t Transport) {
	r.mu.Lock()
	r.transport = t
	r.mu.Unlock()
}

// Submit starts a new turn. Empty or whitespace-only text is a no-op, as is
// submitting while a turn is already processing. The user message is
// appended immediately; the reply arrives either as streamed frames through
// HandleFrame or, when the channel is down, synchronously via the fallback.
func (r *Relay) Submit(ctx context.Context, text, model string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	r.mu.Lock()
	if r.processing {
		r.mu.Unlock()
		return nil
	}
	r.messages = append(r.messages, session.Message{
		Role:      session.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	r.processing = true
	r.lastErr = ""
	r.acc.Reset()
	transport := r.transport
	r.mu.Unlock()
	r.notify()

	if transport != nil && transport.Connected() {
		if err := transport.Send(TaskRequest{Task: text, Model: model}); err != nil {
			r.mu.Lock()
			r.processing = false
			r.lastErr = fmt.Sprintf("failed to send task: %v", err)
			r.mu.Unlock()
			r.notify()
			return err
		}
		return nil
	}

	return r.runFallback(ctx, text, model)
}

// runFallback performs the one-shot HTTP exchange and appends the finalized
// reply. It never retries.
func (r *Relay) runFallback(ctx context.Context, text, model string) error {
	if r.fallback == nil {
		r.mu.Lock()
		r.processing = false
		r.lastErr = "no fallback path configured"
		r.mu.Unlock()
		r.notify()
		return fmt.Errorf("no fallback path configured")
	}

	result, err := r.fallback.Run(ctx, text, model)

	r.mu.Lock()
	r.processing = false
	if err != nil {
		r.lastErr = "connection failed: websocket disconnected and HTTP fallback failed"
		r.mu.Unlock()
		r.notify()
		r.logger.Error("fallback task failed", "error", err)
		return err
	}
	r.messages = append(r.messages, session.Message{
		Role:      session.RoleAssistant,
		Content:   result,
		Timestamp: time.Now(),
	})
	r.mu.Unlock()
	r.notify()
	return nil
}

// HandleFrame applies one inbound frame to the conversation. Frames arriving
// after teardown or with no turn open degrade to no-ops.
func (r *Relay) HandleFrame(f Frame) {
	r.mu.Lock()
	switch f.Type {
	case FrameStatus:
		r.processing = f.Status == StatusThinking

	case FrameToken:
		res := r.acc.Feed(f.Token, f.Done)
		switch {
		case res.Ignored:
			r.mu.Unlock()
			return
		case res.Finalized:
			r.finalizeOpenLocked()
			r.processing = false
		case res.Opened:
			r.messages = append(r.messages, session.Message{
				Role:       session.RoleAssistant,
				Content:    res.Content,
				Timestamp:  time.Now(),
				InProgress: true,
			})
			r.count("relay.tokens.received", 1)
		default:
			if last := len(r.messages) - 1; last >= 0 && r.messages[last].InProgress {
				r.messages[last].Content = res.Content
			} else {
				r.messages = append(r.messages, session.Message{
					Role:       session.RoleAssistant,
					Content:    res.Content,
					Timestamp:  time.Now(),
					InProgress: true,
				})
			}
			r.count("relay.tokens.received", 1)
		}

	case FrameError:
		r.lastErr = f.Error
		r.processing = false
		r.finalizeOpenLocked()
		r.acc.Reset()

	default:
		r.logger.Warn("ignoring frame with unknown type", "type", f.Type)
	}
	r.mu.Unlock()
	r.notify()
}

// HandleDisconnect reacts to a channel drop. A message still streaming is
// finalized with whatever content arrived so the conversation never carries
// a permanently unfinished message; the interruption is surfaced through the
// error slot.
func (r *Relay) HandleDisconnect() {
	r.mu.Lock()
	r.count("relay.reconnects", 1)
	interrupted := r.acc.Open()
	if interrupted {
		r.finalizeOpenLocked()
		r.acc.Reset()
		r.processing = false
		r.lastErr = "stream interrupted: connection to agent lost"
	}
	r.mu.Unlock()
	if interrupted {
		r.logger.Warn("stream interrupted by disconnect")
		r.notify()
	}
}

// finalizeOpenLocked flips the trailing in-progress message, if any, to its
// immutable finalized state. Caller holds the lock.
func (r *Relay) finalizeOpenLocked() {
	if last := len(r.messages) - 1; last >= 0 && r.messages[last].InProgress {
		r.messages[last].InProgress = false
	}
}

// Clear empties the conversation and resets the accumulation buffer. Saved
// sessions in the archive are unaffected.
func (r *Relay) Clear() {
	r.mu.Lock()
	r.messages = nil
	r.acc.Reset()
	r.mu.Unlock()
	r.notify()
}

// Messages returns a copy of the conversation.
func (r *Relay) Messages() []session.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Processing reports whether a turn is in flight.
func (r *Relay) Processing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processing
}

// LastError returns the most recent surfaced error, empty when none. Only
// the latest error is retained.
func (r *Relay) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// SaveSession snapshots the conversation into the remote archive. Failures
// land in the error slot and propagate to the caller.
func (r *Relay) SaveSession(ctx context.Context, name string) (session.SaveResult, error) {
	if r.sessions == nil {
		return session.SaveResult{}, fmt.Errorf("no session archive configured")
	}
	result, err := r.sessions.Save(ctx, r.Messages(), name)
	if err != nil {
		r.setError("failed to save chat")
		return session.SaveResult{}, err
	}
	return result, nil
}

// Sessions returns the cached archive session list.
func (r *Relay) Sessions() []session.Session {
	if r.sessions == nil {
		return nil
	}
	return r.sessions.Sessions()
}

// RefreshSessions re-fetches the archive session list. On failure the stale
// cached list stays available.
func (r *Relay) RefreshSessions(ctx context.Context) error {
	if r.sessions == nil {
		return fmt.Errorf("no session archive configured")
	}
	return r.sessions.Refresh(ctx)
}

// LoadSession replaces the active conversation with a stored one. On failure
// the current conversation is untouched.
func (r *Relay) LoadSession(ctx context.Context, sessionID string) error {
	if r.sessions == nil {
		return fmt.Errorf("no session archive configured")
	}
	messages, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		r.setError("failed to load session")
		return err
	}

	r.mu.Lock()
	r.messages = messages
	r.acc.Reset()
	r.mu.Unlock()
	r.notify()
	return nil
}

// DeleteSession removes a stored session from the archive.
func (r *Relay) DeleteSession(ctx context.Context, sessionID string) error {
	if r.sessions == nil {
		return fmt.Errorf("no session archive configured")
	}
	if err := r.sessions.Delete(ctx, sessionID); err != nil {
		r.setError("failed to delete session")
		return err
	}
	r.notify()
	return nil
}

func (r *Relay) setError(msg string) {
	r.mu.Lock()
	r.lastErr = msg
	r.mu.Unlock()
	r.notify()
}

func (r *Relay) notify() {
	if r.onUpdate != nil {
		r.onUpdate()
	}
}

// count records a counter increment the way the rest of the app does,
// silently skipping when telemetry is disabled.
func (r *Relay) count(name string, n int64) {
	if r.meter == nil {
		return
	}
	counter, err := r.meter.Int64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), n)
}
