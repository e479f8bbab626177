package nexus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTasksCategoryFilter(t *testing.T) {
	tests := []struct {
		name     string
		category string
		wantURL  string
	}{
		{name: "No filter", category: "", wantURL: "/tasks"},
		{name: "All means no filter", category: "All", wantURL: "/tasks"},
		{name: "Category filter", category: "Payroll", wantURL: "/tasks?category=Payroll"},
		{name: "Category with underscore", category: "Learning_Development", wantURL: "/tasks?category=Learning_Development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotURL, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotURL = r.URL.String()
				gotAuth = r.Header.Get("Authorization")
				fmt.Fprint(w, `[{"id": "t-1", "title": "Review offer letter", "status": "Pending"}]`)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, discardLogger())
			tasks, err := client.Tasks(context.Background(), Session{Token: "tok"}, tt.category)
			if err != nil {
				t.Fatalf("Tasks() error = %v", err)
			}

			if gotURL != tt.wantURL {
				t.Errorf("Tasks() url = %q, want %q", gotURL, tt.wantURL)
			}
			if gotAuth != "Bearer tok" {
				t.Errorf("Tasks() auth header = %q, want %q", gotAuth, "Bearer tok")
			}
			if len(tasks) != 1 || tasks[0].ID != "t-1" {
				t.Errorf("Tasks() = %+v", tasks)
			}
		})
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	var gotMethod, gotPath, gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotStatus = r.URL.Query().Get("status")
		fmt.Fprint(w, `{"id": "t-1", "status": "Completed"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, discardLogger())
	if err := client.UpdateTaskStatus(context.Background(), Session{Token: "tok"}, "t-1", "Completed"); err != nil {
		t.Fatalf("UpdateTaskStatus() error = %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("UpdateTaskStatus() method = %q, want %q", gotMethod, http.MethodPatch)
	}
	if gotPath != "/tasks/t-1/status" {
		t.Errorf("UpdateTaskStatus() path = %q, want %q", gotPath, "/tasks/t-1/status")
	}
	if gotStatus != "Completed" {
		t.Errorf("UpdateTaskStatus() status = %q, want %q", gotStatus, "Completed")
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "Detail field",
			status:     http.StatusNotFound,
			body:       `{"detail": "Task not found"}`,
			wantDetail: "Task not found",
		},
		{
			name:       "Plain text body",
			status:     http.StatusBadGateway,
			body:       "upstream timed out",
			wantDetail: "upstream timed out",
		},
		{
			name:       "Empty body falls back to status text",
			status:     http.StatusForbidden,
			body:       "",
			wantDetail: "Forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, discardLogger())
			_, err := client.Organization(context.Background(), Session{Token: "tok"})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Organization() error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Organization() status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("Organization() detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
			want := fmt.Sprintf("nexus: %s (status %d)", tt.wantDetail, tt.status)
			if apiErr.Error() != want {
				t.Errorf("Error() = %q, want %q", apiErr.Error(), want)
			}
		})
	}
}

func TestUploadDocument(t *testing.T) {
	var (
		gotFilename string
		gotCategory string
		gotContent  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			return
		}
		gotCategory = r.FormValue("category")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		content, _ := io.ReadAll(file)
		gotContent = string(content)

		fmt.Fprint(w, `{"id": "d-1", "filename": "handbook.pdf", "category": "Benefits"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, discardLogger())
	doc, err := client.UploadDocument(context.Background(), Session{Token: "tok"},
		"handbook.pdf", strings.NewReader("pdf bytes"), "Benefits")
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}

	if gotFilename != "handbook.pdf" {
		t.Errorf("UploadDocument() filename = %q, want %q", gotFilename, "handbook.pdf")
	}
	if gotCategory != "Benefits" {
		t.Errorf("UploadDocument() category = %q, want %q", gotCategory, "Benefits")
	}
	if gotContent != "pdf bytes" {
		t.Errorf("UploadDocument() content = %q, want %q", gotContent, "pdf bytes")
	}
	if doc.ID != "d-1" {
		t.Errorf("UploadDocument() id = %q, want %q", doc.ID, "d-1")
	}
}
