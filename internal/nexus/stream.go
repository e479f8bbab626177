package nexus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// StreamEvent is one decoded record from the assistant's answer stream.
// Fragment carries a piece of answer text, Source names the document the
// answer drew from, and Done marks the end of the answer. A record may set
// any combination of the three.
type StreamEvent struct {
	Fragment string
	Source   string
	Done     bool
}

// streamRecord mirrors the wire shape of one answer stream line.
type streamRecord struct {
	Chunk  *string `json:"chunk"`
	Done   bool    `json:"done"`
	Source *string `json:"source"`
}

// historyMessage is the wire shape the backend expects for prior turns.
type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	streamPrefix = "data:"

	// maxStreamLine bounds a single stream line; answers are delivered in
	// small fragments, so a line this long means a broken peer.
	maxStreamLine = 1024 * 1024
)

// StreamAnswer sends a question to the assistant and returns an iterator over
// the decoded answer stream. Only the trailing models.ContextLimit entries of
// history are forwarded as conversation context. The iterator stops silently
// when ctx is cancelled; the partial answer yielded so far is all there is.
func (c *Client) StreamAnswer(
	ctx context.Context,
	s Session,
	query string,
	history []models.Message,
) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		resp, err := c.openStream(ctx, s, query, history)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield(StreamEvent{}, fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		for ev, err := range decodeStream(resp.Body, c.logger) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				yield(StreamEvent{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
			if ev.Done {
				return
			}
		}
	}
}

// decodeStream splits r into lines and yields one StreamEvent per well-formed
// record. Lines that fail classification are dropped without disturbing the
// rest of the stream. A stream that ends before a done record yields a
// synthetic completion, so a dropped connection settles the answer instead of
// wedging it.
func decodeStream(r io.Reader, logger *slog.Logger) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

		for scanner.Scan() {
			ev, ok := parseStreamLine(scanner.Bytes(), logger)
			if !ok {
				continue
			}
			if !yield(ev, nil) {
				return
			}
			if ev.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(StreamEvent{}, fmt.Errorf("error reading stream: %w", err))
			return
		}

		logger.Debug("Stream ended without done record, settling answer")
		yield(StreamEvent{Done: true}, nil)
	}
}

// parseStreamLine classifies one line of the answer stream. A well-formed
// line is the data prefix followed by a JSON record; everything else is
// dropped. Drops are logged at debug level because the backend interleaves
// keep-alive noise with real records and silence would hide genuine framing
// bugs.
func parseStreamLine(line []byte, logger *slog.Logger) (StreamEvent, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return StreamEvent{}, false
	}

	payload, found := bytes.CutPrefix(line, []byte(streamPrefix))
	if !found {
		logger.Debug("Dropping stream line without data prefix",
			slog.String("line", string(line)),
		)
		return StreamEvent{}, false
	}

	var rec streamRecord
	if err := json.Unmarshal(bytes.TrimSpace(payload), &rec); err != nil {
		logger.Debug("Dropping malformed stream record",
			slog.String("line", string(line)),
			slog.String("error", err.Error()),
		)
		return StreamEvent{}, false
	}

	ev := StreamEvent{Done: rec.Done}
	if rec.Chunk != nil {
		ev.Fragment = *rec.Chunk
	}
	if rec.Source != nil {
		ev.Source = *rec.Source
	}
	return ev, true
}

func (c *Client) openStream(
	ctx context.Context,
	s Session,
	query string,
	history []models.Message,
) (*http.Response, error) {
	window := models.ContextWindow(history)
	wire := make([]historyMessage, 0, len(window))
	for _, msg := range window {
		wire = append(wire, historyMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	historyJSON, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("error marshaling history: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("query", query); err != nil {
		return nil, fmt.Errorf("error writing query field: %w", err)
	}
	if err := form.WriteField("history", string(historyJSON)); err != nil {
		return nil, fmt.Errorf("error writing history field: %w", err)
	}
	if err := form.WriteField("stream", "true"); err != nil {
		return nil, fmt.Errorf("error writing stream field: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("error closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", &buf)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	return resp, nil
}
