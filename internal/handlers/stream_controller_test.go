package handlers

import "testing"

func TestStreamControllerLifecycle(t *testing.T) {
	c := newStreamController()

	if got := c.phase("s1"); got != streamIdle {
		t.Fatalf("initial phase = %v, want %v", got, streamIdle)
	}

	ctx, ok := c.begin("s1", "")
	if !ok {
		t.Fatal("begin() on idle session rejected")
	}
	if got := c.phase("s1"); got != streamRequesting {
		t.Errorf("phase after begin = %v, want %v", got, streamRequesting)
	}

	if _, ok := c.begin("s1", ""); ok {
		t.Error("begin() admitted a second answer while one is in flight")
	}

	c.setMessage("s1", "m-1")
	if id, ok := c.activeMessage("s1"); !ok || id != "m-1" {
		t.Errorf("activeMessage() = %q, %v, want m-1, true", id, ok)
	}

	c.markStreaming("s1")
	if got := c.phase("s1"); got != streamStreaming {
		t.Errorf("phase after first fragment = %v, want %v", got, streamStreaming)
	}
	// A second markStreaming is a no-op once streaming.
	c.markStreaming("s1")
	if got := c.phase("s1"); got != streamStreaming {
		t.Errorf("phase after repeated markStreaming = %v, want %v", got, streamStreaming)
	}

	c.finish("s1")
	if got := c.phase("s1"); got != streamCompleted {
		t.Errorf("phase after finish = %v, want %v", got, streamCompleted)
	}
	select {
	case <-ctx.Done():
		t.Error("context cancelled by natural completion")
	default:
	}

	if _, ok := c.activeMessage("s1"); ok {
		t.Error("activeMessage() reports a settled answer as active")
	}

	if _, ok := c.begin("s1", ""); !ok {
		t.Error("begin() rejected after previous answer settled")
	}
}

func TestStreamControllerCancel(t *testing.T) {
	c := newStreamController()

	if c.cancel("s1") {
		t.Error("cancel() on idle session reported success")
	}

	ctx, ok := c.begin("s1", "m-1")
	if !ok {
		t.Fatal("begin() rejected")
	}
	c.markStreaming("s1")

	if !c.cancel("s1") {
		t.Error("cancel() on streaming session reported no-op")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("cancel() did not cancel the answer context")
	}
	if !c.cancelled("s1") {
		t.Error("cancelled() = false after cancel")
	}

	// The answer goroutine's deferred finish must not overwrite the cancelled phase.
	c.finish("s1")
	if got := c.phase("s1"); got != streamCancelled {
		t.Errorf("phase after finish on cancelled = %v, want %v", got, streamCancelled)
	}

	if c.cancel("s1") {
		t.Error("second cancel() reported success")
	}

	if _, ok := c.begin("s1", "m-2"); !ok {
		t.Error("begin() rejected after cancellation freed the slot")
	}
	if c.cancelled("s1") {
		t.Error("cancelled() still true after a new answer began")
	}
}

func TestStreamControllerCancelAll(t *testing.T) {
	c := newStreamController()

	ctx1, _ := c.begin("s1", "m-1")
	ctx2, _ := c.begin("s2", "m-2")
	c.finish("s2")
	ctx3, _ := c.begin("s3", "m-3")

	c.cancelAll()

	select {
	case <-ctx1.Done():
	default:
		t.Error("s1 context not cancelled")
	}
	select {
	case <-ctx2.Done():
		t.Error("settled s2 context cancelled")
	default:
	}
	select {
	case <-ctx3.Done():
	default:
		t.Error("s3 context not cancelled")
	}

	if got := c.phase("s2"); got != streamCompleted {
		t.Errorf("s2 phase = %v, want %v", got, streamCompleted)
	}
	if got := c.phase("s3"); got != streamCancelled {
		t.Errorf("s3 phase = %v, want %v", got, streamCancelled)
	}
}
