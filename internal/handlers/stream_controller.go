package handlers

import (
	"context"
	"sync"
)

// streamPhase tracks where a conversation's in-flight answer is in its lifecycle.
type streamPhase int

const (
	// streamIdle means no answer is in flight and a new question may start.
	streamIdle streamPhase = iota
	// streamRequesting means the upstream request is sent but no fragment has arrived.
	streamRequesting
	// streamStreaming means fragments are arriving.
	streamStreaming
	// streamCompleted means the last answer settled normally.
	streamCompleted
	// streamCancelled means the last answer was cut short by the user.
	streamCancelled
)

func (p streamPhase) inFlight() bool {
	return p == streamRequesting || p == streamStreaming
}

type stream struct {
	phase     streamPhase
	messageID string
	cancel    context.CancelFunc
}

// streamController enforces the one-answer-at-a-time rule per conversation. A question is
// admitted only when nothing is in flight for that session; later questions are rejected,
// not queued. Cancelling releases the upstream request through its context and frees the
// slot for the next question.
type streamController struct {
	mu      sync.Mutex
	streams map[string]*stream
}

func newStreamController() *streamController {
	return &streamController{
		streams: make(map[string]*stream),
	}
}

// begin claims the session's answer slot and returns the context that drives the upstream
// request. It reports false, without side effects, when an answer is already in flight.
// The context is detached from the originating HTTP request so navigation does not kill
// the answer; only cancel and cancelAll end it early.
func (c *streamController) begin(sessionID, messageID string) (context.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.streams[sessionID]; ok && s.phase.inFlight() {
		return nil, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.streams[sessionID] = &stream{
		phase:     streamRequesting,
		messageID: messageID,
		cancel:    cancel,
	}
	return ctx, true
}

// setMessage records which stored message the in-flight answer is assembling into, once
// the store has assigned its ID.
func (c *streamController) setMessage(sessionID, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.streams[sessionID]; ok && s.phase.inFlight() {
		s.messageID = messageID
	}
}

// markStreaming records the arrival of the first fragment.
func (c *streamController) markStreaming(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.streams[sessionID]; ok && s.phase == streamRequesting {
		s.phase = streamStreaming
	}
}

// finish settles the session's answer slot after the stream ends, whether the answer
// completed or was interrupted upstream. Finishing after a cancel keeps the cancelled
// phase.
func (c *streamController) finish(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.streams[sessionID]
	if !ok || !s.phase.inFlight() {
		return
	}
	s.phase = streamCompleted
	s.cancel = nil
}

// cancel ends the session's in-flight answer, if any. Cancelling an idle or already
// settled session is a no-op, so double-clicks and races with natural completion are
// harmless.
func (c *streamController) cancel(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.streams[sessionID]
	if !ok || !s.phase.inFlight() {
		return false
	}
	s.phase = streamCancelled
	s.cancel()
	s.cancel = nil
	return true
}

// cancelAll ends every in-flight answer; used on shutdown.
func (c *streamController) cancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.streams {
		if s.phase.inFlight() {
			s.phase = streamCancelled
			s.cancel()
			s.cancel = nil
		}
	}
}

// phase reports the session's current answer phase.
func (c *streamController) phase(sessionID string) streamPhase {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.streams[sessionID]
	if !ok {
		return streamIdle
	}
	return s.phase
}

// activeMessage returns the ID of the message currently being streamed for the session.
func (c *streamController) activeMessage(sessionID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.streams[sessionID]
	if !ok || !s.phase.inFlight() {
		return "", false
	}
	return s.messageID, true
}

// cancelled reports whether the session's last answer ended by cancellation. The answer
// loop uses it to tell a user-initiated stop from an upstream failure.
func (c *streamController) cancelled(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.streams[sessionID]
	return ok && s.phase == streamCancelled
}
