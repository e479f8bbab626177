package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	nexuswebui "github.com/hrnexus/nexus-web-ui"
	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
	"github.com/tmaxmax/go-sse"
)

const errLoggerKey = "err"

// Store defines the interface for the console's server-side state: login sessions, each
// session's assistant conversation, and per-user preferences. The backend API owns all HR
// data; nothing here duplicates it.
type Store interface {
	Session(ctx context.Context, id string) (nexus.Session, error)
	PutSession(ctx context.Context, id string, sess nexus.Session) error
	DeleteSession(ctx context.Context, id string) error

	Messages(ctx context.Context, sessionID string) ([]models.Message, error)
	AddMessage(ctx context.Context, sessionID string, message models.Message) (string, error)
	UpdateMessage(ctx context.Context, sessionID string, message models.Message) error
	ClearMessages(ctx context.Context, sessionID string) error

	Preferences(ctx context.Context, userID string) (models.Preferences, error)
	PutPreferences(ctx context.Context, userID string, prefs models.Preferences) error
}

// Main handles the core functionality of the console, managing server-sent events, HTML
// templates, and interactions between the backend API and the Store.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	api   *nexus.Client
	store Store

	streams *streamController

	logger *slog.Logger
}

// NewMain creates a new Main instance with the provided backend client and Store
// implementation. It initializes the SSE server with default configurations and parses the
// required HTML templates from the embedded filesystem. The SSE server is configured to
// handle both default events and message-specific topics.
func NewMain(api *nexus.Client, store Store, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money": func(amount float64) string {
			return fmt.Sprintf("$%.2f", amount)
		},
	}).ParseFS(
		nexuswebui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}

				// We create a message-specific topic if the client requests updates for a particular message
				messageID := s.Req.URL.Query().Get("message_id")
				if messageID != "" {
					topics = append(topics, messageIDTopic(messageID))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates: tmpl,
		api:       api,
		store:     store,
		streams:   newStreamController(),
		logger:    logger.With(slog.String("module", "handlers")),
	}, nil
}

func messageIDTopic(messageID string) string {
	return fmt.Sprintf("message-%s", messageID)
}

// HandleSSE serves the event stream that pushes assistant updates to the browser.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance's SSE server. It broadcasts a close
// message to all connected clients and waits up to 5 seconds for connections to terminate.
// After the timeout, any remaining connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	m.streams.cancelAll()

	e := &sse.Message{Type: sse.Type("closeSession")}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// renderError logs err and sends the failure to the browser. For page handlers the status
// text is enough; partial handlers surface the backend detail so the form shows it.
func (m Main) renderError(w http.ResponseWriter, msg string, err error, status int) {
	m.logger.Error(msg, slog.String(errLoggerKey, err.Error()))
	http.Error(w, err.Error(), status)
}

// flashError logs err and returns to location with the user-facing explanation in the
// error query parameter, which basePage surfaces as a banner. Used by form handlers so a
// failed mutation leaves the page, and its state, intact.
func (m Main) flashError(w http.ResponseWriter, r *http.Request, location, msg string, err error) {
	m.logger.Error(msg, slog.String(errLoggerKey, err.Error()))

	sep := "?"
	if strings.Contains(location, "?") {
		sep = "&"
	}
	http.Redirect(w, r, location+sep+"error="+url.QueryEscape(userFacingError(err)), http.StatusSeeOther)
}
