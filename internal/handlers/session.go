package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hrnexus/nexus-web-ui/internal/nexus"
)

// sessionCookie is the opaque browser handle for a server-side session record. The access
// token itself never reaches the browser.
const sessionCookie = "nexus_session"

type contextKey int

const (
	sessionContextKey contextKey = iota
	sessionIDContextKey
)

// currentSession returns the authenticated session placed on the context by
// RequireSession.
func currentSession(ctx context.Context) (nexus.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(nexus.Session)
	return sess, ok && sess.Token != ""
}

// currentSessionID returns the opaque session ID placed on the context by RequireSession.
// It keys the session's conversation in the store.
func currentSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey).(string)
	return id
}

// RequireSession resolves the session cookie into an authenticated session and makes it
// available to next via the request context. Requests without a valid session are sent to
// the login page.
func (m Main) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sess, err := m.store.Session(r.Context(), cookie.Value)
		if err != nil {
			m.renderError(w, "Failed to load session", err, http.StatusInternalServerError)
			return
		}
		if sess.Token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if sess.Expired() {
			if err := m.store.DeleteSession(r.Context(), cookie.Value); err != nil {
				m.logger.Error("Failed to delete expired session", slog.String(errLoggerKey, err.Error()))
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		ctx = context.WithValue(ctx, sessionIDContextKey, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin rejects sessions whose organization role is not admin. It must run inside
// RequireSession.
func (m Main) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r.Context())
		if !ok || !sess.Role.Admin() {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// basePage carries the fields every page template needs: who is signed in, which nav entry
// is active, and the sidebar preference.
type basePage struct {
	Title  string
	Active string
	Email  string
	Role   string
	Admin  bool

	SidebarCollapsed bool

	Error string
}

func (m Main) basePage(r *http.Request, title, active string) basePage {
	page := basePage{
		Title:  title,
		Active: active,
		// Failed form submissions land back on the page with their explanation here.
		Error: r.URL.Query().Get("error"),
	}

	sess, ok := currentSession(r.Context())
	if !ok {
		return page
	}
	page.Email = sess.Email
	page.Role = string(sess.Role)
	page.Admin = sess.Role.Admin()

	prefs, err := m.store.Preferences(r.Context(), sess.UserID)
	if err != nil {
		m.logger.Error("Failed to load preferences", slog.String(errLoggerKey, err.Error()))
		return page
	}
	page.SidebarCollapsed = prefs.SidebarCollapsed

	return page
}

// HandleSidebarToggle flips the sidebar preference for the signed-in user.
func (m Main) HandleSidebarToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := currentSession(r.Context())
	if !ok {
		http.Error(w, "Session required", http.StatusUnauthorized)
		return
	}

	prefs, err := m.store.Preferences(r.Context(), sess.UserID)
	if err != nil {
		m.renderError(w, "Failed to load preferences", err, http.StatusInternalServerError)
		return
	}
	prefs.SidebarCollapsed = !prefs.SidebarCollapsed
	if err := m.store.PutPreferences(r.Context(), sess.UserID, prefs); err != nil {
		m.renderError(w, "Failed to save preferences", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
