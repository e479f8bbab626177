package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

type documentsPage struct {
	basePage

	Documents  []models.Document
	Categories []string
	Category   string
}

// uploadExtensions are the file types the backend can index.
var uploadExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

const maxUploadMemory = 32 << 20

// HandleDocuments lists the knowledge base on GET and accepts a new upload on POST. The
// upload is streamed through to the backend, which owns parsing and indexing; this side
// only rejects extensions the backend would refuse anyway.
func (m Main) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	sess, _ := currentSession(r.Context())

	switch r.Method {
	case http.MethodGet:
		category := r.URL.Query().Get("category")
		docs, err := m.api.Documents(r.Context(), sess, category)
		if err != nil {
			m.renderError(w, "Failed to get documents", err, http.StatusBadGateway)
			return
		}

		page := documentsPage{
			basePage:   m.basePage(r, "Documents", "documents"),
			Documents:  docs,
			Categories: models.TaskCategories,
			Category:   category,
		}
		if err := m.templates.ExecuteTemplate(w, "documents.html", page); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	case http.MethodPost:
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			http.Error(w, "Invalid upload", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "A file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !slices.Contains(uploadExtensions, ext) {
			http.Error(w, fmt.Sprintf("Unsupported file type %s", ext), http.StatusBadRequest)
			return
		}

		category := r.FormValue("category")
		if _, err := m.api.UploadDocument(r.Context(), sess, header.Filename, file, category); err != nil {
			m.flashError(w, r, "/documents", "Failed to upload document", err)
			return
		}

		http.Redirect(w, r, "/documents", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDocumentStatus renders the indexing progress partial for one document; the
// documents page polls it while an upload is being processed.
func (m Main) HandleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Document id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	status, err := m.api.DocumentStatus(r.Context(), sess, id)
	if err != nil {
		m.renderError(w, "Failed to get document status", err, http.StatusBadGateway)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "document_status", status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleDocumentOpen proxies the document bytes from the backend, inline for viewing or
// as an attachment for download.
func (m Main) HandleDocumentOpen(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Document id is required", http.StatusBadRequest)
		return
	}
	download := r.URL.Query().Get("download") == "1"

	sess, _ := currentSession(r.Context())
	doc, err := m.api.OpenDocument(r.Context(), sess, id, download)
	if err != nil {
		m.renderError(w, "Failed to open document", err, http.StatusBadGateway)
		return
	}
	defer doc.Body.Close()

	if doc.ContentType != "" {
		w.Header().Set("Content-Type", doc.ContentType)
	}
	if doc.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.Size))
	}
	disposition := "inline"
	if download {
		disposition = "attachment"
	}
	if doc.Filename != "" {
		disposition = fmt.Sprintf("%s; filename=%q", disposition, doc.Filename)
	}
	w.Header().Set("Content-Disposition", disposition)

	if _, err := io.Copy(w, doc.Body); err != nil {
		m.logger.Error("Failed to stream document", slog.String(errLoggerKey, err.Error()))
	}
}

// HandleDocumentDelete removes a document and its index entries.
func (m Main) HandleDocumentDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Document id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.DeleteDocument(r.Context(), sess, id); err != nil {
		m.flashError(w, r, "/documents", "Failed to delete document", err)
		return
	}

	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}
