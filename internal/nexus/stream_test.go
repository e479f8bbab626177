package nexus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chunkedReader delivers its data in fixed-size pieces so tests can split the
// stream at arbitrary byte offsets.
type chunkedReader struct {
	data []byte
	size int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := min(r.size, len(r.data), len(p))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

// failingReader drains its data and then fails with err instead of io.EOF.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := min(len(r.data), len(p))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func collectStream(t *testing.T, r io.Reader) ([]StreamEvent, error) {
	t.Helper()

	var events []StreamEvent
	for ev, err := range decodeStream(r, discardLogger()) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func TestDecodeStream(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantEvents []StreamEvent
	}{
		{
			name: "Chunks then done",
			input: "data: {\"chunk\": \"Hel\", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": \"lo, \", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": \"world!\", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": null, \"done\": true, \"source\": null}\n",
			wantEvents: []StreamEvent{
				{Fragment: "Hel"},
				{Fragment: "lo, "},
				{Fragment: "world!"},
				{Done: true},
			},
		},
		{
			name: "Done record carries final chunk and source",
			input: "data: {\"chunk\": \"Answer\", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": \" end\", \"done\": true, \"source\": \"handbook.pdf\"}\n",
			wantEvents: []StreamEvent{
				{Fragment: "Answer"},
				{Fragment: " end", Source: "handbook.pdf", Done: true},
			},
		},
		{
			name: "Malformed lines are skipped",
			input: "data: {\"chunk\": \"keep \", \"done\": false, \"source\": null}\n" +
				"this line is not a record\n" +
				"data: {broken json\n" +
				"data: [1, 2, 3]\n" +
				"data: {\"chunk\": \"these\", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": null, \"done\": true, \"source\": null}\n",
			wantEvents: []StreamEvent{
				{Fragment: "keep "},
				{Fragment: "these"},
				{Done: true},
			},
		},
		{
			name: "Record without prefix is skipped",
			input: "{\"chunk\": \"drop me\", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": \"kept\", \"done\": true, \"source\": null}\n",
			wantEvents: []StreamEvent{
				{Fragment: "kept", Done: true},
			},
		},
		{
			name: "Blank lines and CRLF endings",
			input: "data: {\"chunk\": \"one\", \"done\": false, \"source\": null}\r\n" +
				"\r\n" +
				"\n" +
				"data: {\"chunk\": \"two\", \"done\": true, \"source\": null}\r\n",
			wantEvents: []StreamEvent{
				{Fragment: "one"},
				{Fragment: "two", Done: true},
			},
		},
		{
			name:  "No space after prefix",
			input: "data:{\"chunk\":\"tight\",\"done\":true,\"source\":null}\n",
			wantEvents: []StreamEvent{
				{Fragment: "tight", Done: true},
			},
		},
		{
			name: "Stream end without done settles",
			input: "data: {\"chunk\": \"partial \", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": \"answer\", \"done\": false, \"source\": null}\n",
			wantEvents: []StreamEvent{
				{Fragment: "partial "},
				{Fragment: "answer"},
				{Done: true},
			},
		},
		{
			name:       "Empty stream settles",
			input:      "",
			wantEvents: []StreamEvent{{Done: true}},
		},
		{
			name: "Final line without newline is processed",
			input: "data: {\"chunk\": \"first\", \"done\": false, \"source\": null}\n" +
				"data: {\"chunk\": null, \"done\": true, \"source\": null}",
			wantEvents: []StreamEvent{
				{Fragment: "first"},
				{Done: true},
			},
		},
		{
			name:  "Source only record",
			input: "data: {\"chunk\": null, \"done\": false, \"source\": \"policy.docx\"}\n",
			wantEvents: []StreamEvent{
				{Source: "policy.docx"},
				{Done: true},
			},
		},
		{
			name:  "Error frame",
			input: "data: {\"chunk\": \"Error: model unavailable\", \"done\": true, \"source\": \"error\"}\n",
			wantEvents: []StreamEvent{
				{Fragment: "Error: model unavailable", Source: "error", Done: true},
			},
		},
		{
			name: "Records after done are ignored",
			input: "data: {\"chunk\": \"all\", \"done\": true, \"source\": null}\n" +
				"data: {\"chunk\": \"late\", \"done\": false, \"source\": null}\n",
			wantEvents: []StreamEvent{
				{Fragment: "all", Done: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := collectStream(t, strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("decodeStream() error = %v", err)
			}
			if !slices.Equal(events, tt.wantEvents) {
				t.Errorf("decodeStream() events = %+v, want %+v", events, tt.wantEvents)
			}
		})
	}
}

func TestDecodeStreamChunkBoundaries(t *testing.T) {
	input := "data: {\"chunk\": \"The vacation \", \"done\": false, \"source\": null}\n" +
		"data: {\"chunk\": \"policy allows \", \"done\": false, \"source\": null}\n" +
		"data: {\"chunk\": \"20 days.\", \"done\": false, \"source\": null}\n" +
		"data: {\"chunk\": null, \"done\": true, \"source\": \"handbook.pdf\"}\n"
	const wantContent = "The vacation policy allows 20 days."

	for _, size := range []int{1, 2, 3, 5, 8, 13, 64, len(input)} {
		t.Run(fmt.Sprintf("Read size %d", size), func(t *testing.T) {
			events, err := collectStream(t, &chunkedReader{data: []byte(input), size: size})
			if err != nil {
				t.Fatalf("decodeStream() error = %v", err)
			}

			var content strings.Builder
			for _, ev := range events {
				content.WriteString(ev.Fragment)
			}
			if content.String() != wantContent {
				t.Errorf("decodeStream() content = %q, want %q", content.String(), wantContent)
			}

			last := events[len(events)-1]
			if !last.Done {
				t.Error("decodeStream() last event should be done")
			}
			if last.Source != "handbook.pdf" {
				t.Errorf("decodeStream() source = %q, want %q", last.Source, "handbook.pdf")
			}
		})
	}
}

func TestDecodeStreamReadError(t *testing.T) {
	cause := errors.New("connection reset")
	r := &failingReader{
		data: []byte("data: {\"chunk\": \"before\", \"done\": false, \"source\": null}\n"),
		err:  cause,
	}

	events, err := collectStream(t, r)
	if !errors.Is(err, cause) {
		t.Fatalf("decodeStream() error = %v, want %v", err, cause)
	}
	wantEvents := []StreamEvent{{Fragment: "before"}}
	if !slices.Equal(events, wantEvents) {
		t.Errorf("decodeStream() events = %+v, want %+v", events, wantEvents)
	}
}

func TestStreamAnswer(t *testing.T) {
	var (
		gotAuth    string
		gotQuery   string
		gotStream  string
		gotHistory string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.FormValue("query")
		gotStream = r.FormValue("stream")
		gotHistory = r.FormValue("history")

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"chunk\": \"From \", \"done\": false, \"source\": null}\n")
		fmt.Fprint(w, "data: {\"chunk\": \"the handbook\", \"done\": false, \"source\": null}\n")
		fmt.Fprint(w, "data: {\"chunk\": null, \"done\": true, \"source\": \"handbook.pdf\"}\n")
	}))
	defer srv.Close()

	history := make([]models.Message, 0, models.ContextLimit+5)
	for i := 0; i < models.ContextLimit+5; i++ {
		history = append(history, models.Message{
			Role:    models.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		})
	}

	client := NewClient(srv.URL, discardLogger())
	sess := Session{Token: "test-token"}

	var events []StreamEvent
	for ev, err := range client.StreamAnswer(context.Background(), sess, "vacation days?", history) {
		if err != nil {
			t.Fatalf("StreamAnswer() error = %v", err)
		}
		events = append(events, ev)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("StreamAnswer() auth header = %q, want %q", gotAuth, "Bearer test-token")
	}
	if gotQuery != "vacation days?" {
		t.Errorf("StreamAnswer() query = %q, want %q", gotQuery, "vacation days?")
	}
	if gotStream != "true" {
		t.Errorf("StreamAnswer() stream field = %q, want %q", gotStream, "true")
	}

	var wire []historyMessage
	if err := json.Unmarshal([]byte(gotHistory), &wire); err != nil {
		t.Fatalf("history field is not valid JSON: %v", err)
	}
	if len(wire) != models.ContextLimit {
		t.Errorf("StreamAnswer() forwarded %d history messages, want %d", len(wire), models.ContextLimit)
	}
	if wire[0].Content != "message 5" {
		t.Errorf("StreamAnswer() first history message = %q, want %q", wire[0].Content, "message 5")
	}
	if wire[len(wire)-1].Content != fmt.Sprintf("message %d", models.ContextLimit+4) {
		t.Errorf("StreamAnswer() last history message = %q", wire[len(wire)-1].Content)
	}

	wantEvents := []StreamEvent{
		{Fragment: "From "},
		{Fragment: "the handbook"},
		{Source: "handbook.pdf", Done: true},
	}
	if !slices.Equal(events, wantEvents) {
		t.Errorf("StreamAnswer() events = %+v, want %+v", events, wantEvents)
	}
}

func TestStreamAnswerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"detail": "assistant overloaded"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, discardLogger())

	var events []StreamEvent
	var streamErr error
	for ev, err := range client.StreamAnswer(context.Background(), Session{Token: "t"}, "q", nil) {
		if err != nil {
			streamErr = err
			break
		}
		events = append(events, ev)
	}

	var apiErr *APIError
	if !errors.As(streamErr, &apiErr) {
		t.Fatalf("StreamAnswer() error = %v, want *APIError", streamErr)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("StreamAnswer() status = %d, want %d", apiErr.Status, http.StatusServiceUnavailable)
	}
	if apiErr.Detail != "assistant overloaded" {
		t.Errorf("StreamAnswer() detail = %q, want %q", apiErr.Detail, "assistant overloaded")
	}
	if len(events) != 0 {
		t.Errorf("StreamAnswer() yielded %d events before error, want 0", len(events))
	}
}

func TestStreamAnswerCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"chunk\": \"partial\", \"done\": false, \"source\": null}\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(srv.URL, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events []StreamEvent
	for ev, err := range client.StreamAnswer(ctx, Session{Token: "t"}, "q", nil) {
		if err != nil {
			t.Fatalf("StreamAnswer() error after cancel = %v", err)
		}
		events = append(events, ev)
		cancel()
	}

	wantEvents := []StreamEvent{{Fragment: "partial"}}
	if !slices.Equal(events, wantEvents) {
		t.Errorf("StreamAnswer() events = %+v, want %+v", events, wantEvents)
	}
}
