package nexus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// DocumentFile is an opened backend file, streamed through the console to the browser. The
// caller owns Body and must close it.
type DocumentFile struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Documents lists uploaded documents, optionally narrowed to one category.
func (c *Client) Documents(ctx context.Context, s Session, category string) ([]models.Document, error) {
	path := "/documents"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var docs []models.Document
	if err := c.do(ctx, http.MethodGet, path, s.Token, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument sends a file to the backend for indexing. The backend accepts pdf, docx,
// doc, and txt and reports indexing progress via DocumentStatus.
func (c *Client) UploadDocument(
	ctx context.Context,
	s Session,
	filename string,
	file io.Reader,
	category string,
) (models.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return models.Document{}, fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return models.Document{}, fmt.Errorf("error copying file: %w", err)
	}
	if category != "" {
		if err := mw.WriteField("category", category); err != nil {
			return models.Document{}, fmt.Errorf("error writing category field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return models.Document{}, fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/upload", &buf)
	if err != nil {
		return models.Document{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Document{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Document{}, decodeAPIError(resp)
	}

	var doc models.Document
	if err := decodeJSON(resp.Body, &doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// DocumentStatus reports backend indexing progress for one document.
func (c *Client) DocumentStatus(ctx context.Context, s Session, id string) (models.DocumentStatus, error) {
	var status models.DocumentStatus
	path := "/documents/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodGet, path, s.Token, nil, &status); err != nil {
		return models.DocumentStatus{}, err
	}
	return status, nil
}

// OpenDocument fetches a document's bytes for inline viewing or download. The returned
// file's Body streams directly from the backend.
func (c *Client) OpenDocument(ctx context.Context, s Session, id string, download bool) (*DocumentFile, error) {
	mode := "view"
	if download {
		mode = "download"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/documents/"+url.PathEscape(id)+"/"+mode, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	file := &DocumentFile{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		file.Filename = params["filename"]
	}
	return file, nil
}

// DeleteDocument removes a document and its indexed chunks.
func (c *Client) DeleteDocument(ctx context.Context, s Session, id string) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), s.Token, nil, nil)
}
