package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
	"github.com/hrnexus/nexus-web-ui/internal/services"
)

// store is the subset of the handlers.Store contract exercised here, so the same test
// body runs against every implementation.
type store interface {
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

func testStores(t *testing.T) map[string]store {
	t.Helper()

	boltStore, err := services.NewBoltDB(filepath.Join(t.TempDir(), "nexus.db"))
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	t.Cleanup(func() {
		if err := boltStore.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	return map[string]store{
		"bolt":   boltStore,
		"memory": services.NewMemory(),
	}
}

func TestStoreSessions(t *testing.T) {
	ctx := context.Background()

	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			sess, err := s.Session(ctx, "missing")
			if err != nil {
				t.Fatalf("Session() error = %v", err)
			}
			if sess.Token != "" {
				t.Errorf("Session() for unknown id = %+v, want zero", sess)
			}

			want := nexus.Session{
				Token:          "tok",
				Email:          "ana@example.com",
				UserID:         "u-1",
				OrganizationID: "org-1",
				Role:           models.RoleAdmin,
				ExpiresAt:      time.Now().Add(time.Hour).UTC().Truncate(time.Second),
			}
			if err := s.PutSession(ctx, "sid-1", want); err != nil {
				t.Fatalf("PutSession() error = %v", err)
			}

			got, err := s.Session(ctx, "sid-1")
			if err != nil {
				t.Fatalf("Session() error = %v", err)
			}
			if got.Token != want.Token || got.Email != want.Email || got.Role != want.Role {
				t.Errorf("Session() = %+v, want %+v", got, want)
			}
			if !got.ExpiresAt.Equal(want.ExpiresAt) {
				t.Errorf("Session() expires = %v, want %v", got.ExpiresAt, want.ExpiresAt)
			}

			if err := s.DeleteSession(ctx, "sid-1"); err != nil {
				t.Fatalf("DeleteSession() error = %v", err)
			}
			got, err = s.Session(ctx, "sid-1")
			if err != nil {
				t.Fatalf("Session() error = %v", err)
			}
			if got.Token != "" {
				t.Error("Session() after delete should be zero")
			}
		})
	}
}

func TestStoreMessages(t *testing.T) {
	ctx := context.Background()
	const sessionID = "sid-1"

	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.PutSession(ctx, sessionID, nexus.Session{Token: "tok"}); err != nil {
				t.Fatalf("PutSession() error = %v", err)
			}

			// Past ten messages, unpadded sequence keys would iterate out of order.
			const count = 12
			ids := make([]string, 0, count)
			for i := 0; i < count; i++ {
				id, err := s.AddMessage(ctx, sessionID, models.Message{
					ID:      fmt.Sprintf("m-%d", i),
					Role:    models.RoleUser,
					Content: fmt.Sprintf("message %d", i),
				})
				if err != nil {
					t.Fatalf("AddMessage() error = %v", err)
				}
				ids = append(ids, id)
			}

			messages, err := s.Messages(ctx, sessionID)
			if err != nil {
				t.Fatalf("Messages() error = %v", err)
			}
			if len(messages) != count {
				t.Fatalf("Messages() returned %d messages, want %d", len(messages), count)
			}
			for i, msg := range messages {
				if msg.Content != fmt.Sprintf("message %d", i) {
					t.Errorf("Messages()[%d] = %q, want %q", i, msg.Content, fmt.Sprintf("message %d", i))
				}
			}

			updated := messages[3]
			updated.Content = "rewritten"
			updated.StreamState = models.StreamStateEnded
			if err := s.UpdateMessage(ctx, sessionID, updated); err != nil {
				t.Fatalf("UpdateMessage() error = %v", err)
			}
			messages, err = s.Messages(ctx, sessionID)
			if err != nil {
				t.Fatalf("Messages() error = %v", err)
			}
			if messages[3].Content != "rewritten" {
				t.Errorf("Messages()[3] = %q, want %q", messages[3].Content, "rewritten")
			}
			if messages[3].ID != ids[3] {
				t.Errorf("Messages()[3] id = %q, want %q", messages[3].ID, ids[3])
			}

			if err := s.UpdateMessage(ctx, sessionID, models.Message{ID: "ghost", Content: "x"}); err != nil {
				t.Errorf("UpdateMessage() for unknown id error = %v", err)
			}

			if err := s.ClearMessages(ctx, sessionID); err != nil {
				t.Fatalf("ClearMessages() error = %v", err)
			}
			messages, err = s.Messages(ctx, sessionID)
			if err != nil {
				t.Fatalf("Messages() error = %v", err)
			}
			if len(messages) != 0 {
				t.Errorf("Messages() after clear returned %d messages", len(messages))
			}
		})
	}
}

func TestStorePreferences(t *testing.T) {
	ctx := context.Background()

	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			prefs, err := s.Preferences(ctx, "u-1")
			if err != nil {
				t.Fatalf("Preferences() error = %v", err)
			}
			if prefs.SidebarCollapsed {
				t.Error("Preferences() default should not collapse the sidebar")
			}

			if err := s.PutPreferences(ctx, "u-1", models.Preferences{SidebarCollapsed: true, TaskSort: "priority"}); err != nil {
				t.Fatalf("PutPreferences() error = %v", err)
			}
			prefs, err = s.Preferences(ctx, "u-1")
			if err != nil {
				t.Fatalf("Preferences() error = %v", err)
			}
			if !prefs.SidebarCollapsed || prefs.TaskSort != "priority" {
				t.Errorf("Preferences() = %+v", prefs)
			}
		})
	}
}
