package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nexuswebui "github.com/hrnexus/nexus-web-ui"
	"github.com/hrnexus/nexus-web-ui/internal/handlers"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is a development convenience; real environment variables win.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.slogLevel(),
	}))

	store, err := cfg.Store.store(context.Background())
	if err != nil {
		log.Fatal(fmt.Errorf("error opening session store: %w", err))
	}

	api := nexus.NewClient(cfg.backendURL(), logger)

	m, err := handlers.NewMain(api, store, logger)
	if err != nil {
		panic(err)
	}

	// Serve static files
	staticFS, err := fs.Sub(nexuswebui.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	// Create custom mux
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))

	// Auth pages stay outside the session gate
	mux.HandleFunc("/login", m.HandleLogin)
	mux.HandleFunc("/signup", m.HandleSignup)
	mux.HandleFunc("/verify", m.HandleVerify)
	mux.HandleFunc("/logout", m.HandleLogout)

	mux.HandleFunc("/", m.RequireSession(m.HandleHome))

	mux.HandleFunc("/tasks", m.RequireSession(m.HandleTasks))
	mux.HandleFunc("/tasks/create", m.RequireSession(m.HandleTaskCreate))
	mux.HandleFunc("/tasks/update", m.RequireSession(m.HandleTaskUpdate))
	mux.HandleFunc("/tasks/status", m.RequireSession(m.HandleTaskStatus))
	mux.HandleFunc("/tasks/delete", m.RequireSession(m.HandleTaskDelete))

	mux.HandleFunc("/documents", m.RequireSession(m.HandleDocuments))
	mux.HandleFunc("/documents/status", m.RequireSession(m.HandleDocumentStatus))
	mux.HandleFunc("/documents/open", m.RequireSession(m.HandleDocumentOpen))
	mux.HandleFunc("/documents/delete", m.RequireSession(m.HandleDocumentDelete))

	mux.HandleFunc("/candidates", m.RequireSession(m.HandleCandidates))
	mux.HandleFunc("/candidates/create", m.RequireSession(m.HandleCandidateCreate))
	mux.HandleFunc("/candidates/update", m.RequireSession(m.HandleCandidateUpdate))
	mux.HandleFunc("/candidates/stage", m.RequireSession(m.HandleCandidateStage))
	mux.HandleFunc("/candidates/delete", m.RequireSession(m.HandleCandidateDelete))

	mux.HandleFunc("/payroll", m.RequireSession(m.HandlePayroll))
	mux.HandleFunc("/payroll/run", m.RequireSession(m.RequireAdmin(m.HandlePayrollRun)))

	mux.HandleFunc("/benefits", m.RequireSession(m.HandleBenefits))
	mux.HandleFunc("/benefits/enroll", m.RequireSession(m.HandleBenefitEnroll))
	mux.HandleFunc("/benefits/unenroll", m.RequireSession(m.HandleBenefitUnenroll))

	mux.HandleFunc("/settings", m.RequireSession(m.RequireAdmin(m.HandleSettings)))
	mux.HandleFunc("/settings/organization", m.RequireSession(m.RequireAdmin(m.HandleOrganizationUpdate)))
	mux.HandleFunc("/settings/members/role", m.RequireSession(m.RequireAdmin(m.HandleMemberRole)))
	mux.HandleFunc("/settings/members/remove", m.RequireSession(m.RequireAdmin(m.HandleMemberRemove)))
	mux.HandleFunc("/settings/invitations", m.RequireSession(m.RequireAdmin(m.HandleInvite)))
	mux.HandleFunc("/settings/invitations/revoke", m.RequireSession(m.RequireAdmin(m.HandleInviteRevoke)))

	mux.HandleFunc("/assistant", m.RequireSession(m.HandleAssistant))
	mux.HandleFunc("/assistant/ask", m.RequireSession(m.HandleAsk))
	mux.HandleFunc("/assistant/cancel", m.RequireSession(m.HandleAskCancel))
	mux.HandleFunc("/assistant/clear", m.RequireSession(m.HandleConversationClear))

	mux.HandleFunc("/preferences/sidebar", m.RequireSession(m.HandleSidebarToggle))

	mux.HandleFunc("/sse/messages", m.RequireSession(m.HandleSSE))

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.port(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown sse server: %v", err)
		}
		if err := store.Close(); err != nil {
			log.Printf("Failed to close session store: %v", err)
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Println("Server starting on :" + cfg.port())
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		log.Printf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Start shutdown, signal: %v", sig)

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("Forcing server close: %v", err)
			}
		}
	}
}
