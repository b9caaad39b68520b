package agent

import "strings"

// Accumulator reassembles incrementally delivered token fragments into
// exactly one finalized assistant message per generation turn. It holds no
// reference to the conversation itself; the relay applies the returned
// result under its own lock.
type Accumulator struct {
	open bool
	buf  strings.Builder
}

// FeedResult describes what a token frame did to the current turn.
type FeedResult struct {
	// Opened is true when this fragment started a new turn.
	Opened bool
	// Finalized is true when this frame carried the done flag and closed
	// an open turn.
	Finalized bool
	// Ignored is true for a done frame arriving with no open turn, which
	// is a no-op rather than an error.
	Ignored bool
	// Content is the full accumulated content for the turn so far.
	Content string
}

// Feed consumes one token frame. Fragments concatenate in arrival order with
// no delimiter. A done frame closes the turn; further fragments start a new
// one.
func (a *Accumulator) Feed(token string, done bool) FeedResult {
	if done {
		if !a.open {
			return FeedResult{Ignored: true}
		}
		content := a.buf.String()
		a.Reset()
		return FeedResult{Finalized: true, Content: content}
	}

	opened := !a.open
	a.open = true
	a.buf.WriteString(token)
	return FeedResult{Opened: opened, Content: a.buf.String()}
}

// Open reports whether a turn is currently accumulating.
func (a *Accumulator) Open() bool {
	return a.open
}

// Reset discards any partially accumulated turn.
func (a *Accumulator) Reset() {
	a.open = false
	a.buf.Reset()
}
