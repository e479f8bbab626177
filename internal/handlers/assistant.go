package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
	"github.com/tmaxmax/go-sse"
)

// message is the view model for one conversation entry.
type message struct {
	ID        string
	Role      string
	Content   template.HTML
	Source    string
	Timestamp time.Time

	StreamState string
}

// SSE event types for real-time updates.
var messagesSSEType = sse.Type("messages")

type assistantPage struct {
	basePage

	Messages []message

	// StreamingMessageID is set when an answer is in flight, so a reloaded page
	// re-subscribes to its updates instead of showing a wedged spinner.
	StreamingMessageID string
}

// HandleAssistant renders the conversation page with the session's full local history.
func (m Main) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	sessionID := currentSessionID(r.Context())

	stored, err := m.store.Messages(r.Context(), sessionID)
	if err != nil {
		m.renderError(w, "Failed to get messages", err, http.StatusInternalServerError)
		return
	}

	msgs := make([]message, len(stored))
	for i := range stored {
		msgs[i], err = m.messageView(stored[i])
		if err != nil {
			m.renderError(w, "Failed to render message", err, http.StatusInternalServerError)
			return
		}
	}

	page := assistantPage{
		basePage: m.basePage(r, "Assistant", "assistant"),
		Messages: msgs,
	}
	if id, ok := m.streams.activeMessage(sessionID); ok {
		page.StreamingMessageID = id
	}

	if err := m.templates.ExecuteTemplate(w, "assistant.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleAsk accepts a question through form data, stores the user message and an empty
// assistant placeholder, and starts the answer stream in the background. While an answer
// is in flight further questions are rejected, not queued.
//
// For successful requests it renders the two new message partials; the browser then
// follows the placeholder's updates over SSE.
func (m Main) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		m.logger.Error("Query is required")
		http.Error(w, "Query is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	sessionID := currentSessionID(r.Context())

	ctx, ok := m.streams.begin(sessionID, "")
	if !ok {
		http.Error(w, "An answer is already in progress", http.StatusConflict)
		return
	}

	history, err := m.store.Messages(r.Context(), sessionID)
	if err != nil {
		m.streams.finish(sessionID)
		m.renderError(w, "Failed to get messages", err, http.StatusInternalServerError)
		return
	}

	um := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   query,
		Timestamp: time.Now(),
	}
	userMsgID, err := m.store.AddMessage(r.Context(), sessionID, um)
	if err != nil {
		m.streams.finish(sessionID)
		m.logger.Error("Failed to add user message",
			slog.String("message", fmt.Sprintf("%+v", um)),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	um.ID = userMsgID

	// Initialize empty assistant message to be streamed later
	am := models.Message{
		ID:          uuid.New().String(),
		Role:        models.RoleAssistant,
		Timestamp:   time.Now(),
		StreamState: models.StreamStateLoading,
	}
	aiMsgID, err := m.store.AddMessage(r.Context(), sessionID, am)
	if err != nil {
		m.streams.finish(sessionID)
		m.logger.Error("Failed to add assistant message",
			slog.String("message", fmt.Sprintf("%+v", am)),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	am.ID = aiMsgID
	m.streams.setMessage(sessionID, aiMsgID)

	go m.answer(ctx, sessionID, sess, am, query, history)

	userView, err := m.messageView(um)
	if err != nil {
		m.renderError(w, "Failed to render message", err, http.StatusInternalServerError)
		return
	}
	if err := m.templates.ExecuteTemplate(w, "user_message", userView); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	aiView, err := m.messageView(am)
	if err != nil {
		m.renderError(w, "Failed to render message", err, http.StatusInternalServerError)
		return
	}
	if err := m.templates.ExecuteTemplate(w, "assistant_message", aiView); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleAskCancel stops the in-flight answer, keeping whatever content already arrived.
// Cancelling when nothing is in flight does nothing.
func (m Main) HandleAskCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.streams.cancel(currentSessionID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// HandleConversationClear stops any in-flight answer and drops the conversation.
func (m Main) HandleConversationClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := currentSessionID(r.Context())
	m.streams.cancel(sessionID)
	if err := m.store.ClearMessages(r.Context(), sessionID); err != nil {
		m.renderError(w, "Failed to clear messages", err, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/assistant", http.StatusSeeOther)
}

// answer consumes the backend's answer stream and assembles it into the stored assistant
// message: the first fragment flips the placeholder to streaming, every fragment appends,
// and the done record freezes the message. Each step persists the message and publishes
// the re-rendered partial to the message's SSE topic.
//
// The stream settling without a done record still completes the message; a cancelled
// context or an upstream failure leaves it interrupted with its partial content intact.
func (m Main) answer(
	ctx context.Context,
	sessionID string,
	sess nexus.Session,
	aiMsg models.Message,
	query string,
	history []models.Message,
) {
	// Ensure SSE connection cleanup on function exit
	defer func() {
		m.streams.finish(sessionID)

		e := &sse.Message{Type: sse.Type("closeMessage")}
		e.AppendData("bye")
		_ = m.sseSrv.Publish(e, messageIDTopic(aiMsg.ID))
	}()

	completed := false
	for ev, err := range m.api.StreamAnswer(ctx, sess, query, history) {
		if err != nil {
			m.logger.Error("Error from answer stream", slog.String(errLoggerKey, err.Error()))
			aiMsg.StreamState = models.StreamStateInterrupted
			m.persistAndPublish(sessionID, aiMsg)
			return
		}

		m.logger.Debug("Stream event", slog.String("event", fmt.Sprintf("%+v", ev)))

		if ev.Fragment != "" {
			if aiMsg.StreamState != models.StreamStateStreaming {
				aiMsg.StreamState = models.StreamStateStreaming
				m.streams.markStreaming(sessionID)
			}
			aiMsg.Content += ev.Fragment
		}
		if ev.Source != "" {
			aiMsg.Source = ev.Source
		}
		if ev.Done {
			aiMsg.StreamState = models.StreamStateEnded
			completed = true
		}

		m.persistAndPublish(sessionID, aiMsg)

		if completed {
			return
		}
	}

	// The iterator ended without a done record, which only happens when the context was
	// cancelled mid-answer.
	if !completed {
		if m.streams.cancelled(sessionID) {
			m.logger.Debug("Answer cancelled, keeping partial content",
				slog.String("messageID", aiMsg.ID))
		}
		aiMsg.StreamState = models.StreamStateInterrupted
		m.persistAndPublish(sessionID, aiMsg)
	}
}

func (m Main) persistAndPublish(sessionID string, aiMsg models.Message) {
	if err := m.store.UpdateMessage(context.Background(), sessionID, aiMsg); err != nil {
		m.logger.Error("Failed to update message",
			slog.String("message", fmt.Sprintf("%+v", aiMsg)),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	view, err := m.messageView(aiMsg)
	if err != nil {
		m.logger.Error("Failed to render message",
			slog.String("message", fmt.Sprintf("%+v", aiMsg)),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "assistant_message", view); err != nil {
		m.logger.Error("Failed to execute assistant_message template",
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: messagesSSEType}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, messageIDTopic(aiMsg.ID)); err != nil {
		m.logger.Error("Failed to publish message",
			slog.String("messageID", aiMsg.ID),
			slog.String(errLoggerKey, err.Error()))
	}
}

func (m Main) messageView(msg models.Message) (message, error) {
	content, err := models.RenderMarkdown(msg.Content)
	if err != nil {
		return message{}, fmt.Errorf("failed to render markdown: %w", err)
	}
	return message{
		ID:          msg.ID,
		Role:        string(msg.Role),
		Content:     content,
		Source:      msg.Source,
		Timestamp:   msg.Timestamp,
		StreamState: string(msg.StreamState),
	}, nil
}
