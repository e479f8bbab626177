package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
)

type authPage struct {
	basePage

	Email string
}

type verifyPage struct {
	basePage

	Verified bool
}

// HandleLogin renders the login form and exchanges submitted credentials for a backend
// session. Successful logins receive an opaque session cookie; the access token stays
// server-side.
func (m Main) HandleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		m.renderAuthPage(w, "login.html", authPage{basePage: basePage{Title: "Sign in"}}, http.StatusOK)
	case http.MethodPost:
		email := r.FormValue("email")
		password := r.FormValue("password")
		if email == "" || password == "" {
			m.renderAuthPage(w, "login.html", authPage{
				basePage: basePage{Title: "Sign in", Error: "Email and password are required"},
				Email:    email,
			}, http.StatusBadRequest)
			return
		}

		sess, err := m.api.Login(r.Context(), email, password)
		if err != nil {
			m.logger.Error("Login failed", slog.String(errLoggerKey, err.Error()))
			m.renderAuthPage(w, "login.html", authPage{
				basePage: basePage{Title: "Sign in", Error: userFacingError(err)},
				Email:    email,
			}, errorStatus(err))
			return
		}

		if err := m.openSession(w, r, sess); err != nil {
			m.renderError(w, "Failed to open session", err, http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSignup registers a new organization with its first admin account and signs the
// new user straight in.
func (m Main) HandleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		m.renderAuthPage(w, "signup.html", authPage{basePage: basePage{Title: "Create organization"}}, http.StatusOK)
	case http.MethodPost:
		req := nexus.SignupRequest{
			Email:            r.FormValue("email"),
			Password:         r.FormValue("password"),
			FullName:         r.FormValue("full_name"),
			OrganizationName: r.FormValue("organization_name"),
		}
		if req.Email == "" || req.Password == "" {
			m.renderAuthPage(w, "signup.html", authPage{
				basePage: basePage{Title: "Create organization", Error: "Email and password are required"},
				Email:    req.Email,
			}, http.StatusBadRequest)
			return
		}

		sess, err := m.api.Signup(r.Context(), req)
		if err != nil {
			m.logger.Error("Signup failed", slog.String(errLoggerKey, err.Error()))
			m.renderAuthPage(w, "signup.html", authPage{
				basePage: basePage{Title: "Create organization", Error: userFacingError(err)},
				Email:    req.Email,
			}, errorStatus(err))
			return
		}

		if err := m.openSession(w, r, sess); err != nil {
			m.renderError(w, "Failed to open session", err, http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleVerify redeems an emailed verification token and reports the outcome.
func (m Main) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Verification token is required", http.StatusBadRequest)
		return
	}

	page := verifyPage{basePage: basePage{Title: "Email verification"}, Verified: true}
	if err := m.api.VerifyEmail(r.Context(), token); err != nil {
		m.logger.Error("Email verification failed", slog.String(errLoggerKey, err.Error()))
		page.Verified = false
		page.Error = userFacingError(err)
	}

	if err := m.templates.ExecuteTemplate(w, "verify.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleLogout drops the server-side session and clears the cookie.
func (m Main) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		m.streams.cancel(cookie.Value)
		if err := m.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			m.logger.Error("Failed to delete session", slog.String(errLoggerKey, err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// openSession stores the backend session under a fresh opaque ID and hands that ID to the
// browser.
func (m Main) openSession(w http.ResponseWriter, r *http.Request, sess nexus.Session) error {
	id := uuid.New().String()
	if err := m.store.PutSession(r.Context(), id, sess); err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if !sess.ExpiresAt.IsZero() {
		cookie.MaxAge = int(time.Until(sess.ExpiresAt).Seconds())
	}
	http.SetCookie(w, cookie)
	return nil
}

func (m Main) renderAuthPage(w http.ResponseWriter, name string, page authPage, status int) {
	w.WriteHeader(status)
	if err := m.templates.ExecuteTemplate(w, name, page); err != nil {
		m.logger.Error("Failed to render page",
			slog.String("template", name),
			slog.String(errLoggerKey, err.Error()))
	}
}

// userFacingError extracts the backend's explanation when there is one; transport failures
// get a generic line instead of Go error chains.
func userFacingError(err error) string {
	var apiErr *nexus.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return "The HR Nexus backend is unreachable. Try again in a moment."
}

func errorStatus(err error) int {
	var apiErr *nexus.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
