package nexus

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// CandidateDraft carries the fields for creating or editing a candidate.
type CandidateDraft struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	PositionApplied string `json:"position_applied"`
	Notes           string `json:"notes,omitempty"`
}

// Candidates lists the pipeline, optionally filtered by stage.
func (c *Client) Candidates(ctx context.Context, s Session, stage string) ([]models.Candidate, error) {
	path := "/candidates"
	if stage != "" && stage != "All" {
		path += "?status=" + url.QueryEscape(stage)
	}
	var candidates []models.Candidate
	if err := c.do(ctx, http.MethodGet, path, s.Token, nil, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// CreateCandidate registers an applicant at the start of the pipeline.
func (c *Client) CreateCandidate(ctx context.Context, s Session, draft CandidateDraft) (models.Candidate, error) {
	var candidate models.Candidate
	if err := c.do(ctx, http.MethodPost, "/candidates", s.Token, draft, &candidate); err != nil {
		return models.Candidate{}, err
	}
	return candidate, nil
}

// UpdateCandidate replaces a candidate's editable fields.
func (c *Client) UpdateCandidate(ctx context.Context, s Session, id string, draft CandidateDraft) (models.Candidate, error) {
	var candidate models.Candidate
	if err := c.do(ctx, http.MethodPut, "/candidates/"+url.PathEscape(id), s.Token, draft, &candidate); err != nil {
		return models.Candidate{}, err
	}
	return candidate, nil
}

// UpdateCandidateStage moves a candidate to another pipeline stage.
func (c *Client) UpdateCandidateStage(ctx context.Context, s Session, id, stage string) error {
	path := "/candidates/" + url.PathEscape(id) + "/status?status=" + url.QueryEscape(stage)
	return c.do(ctx, http.MethodPatch, path, s.Token, nil, nil)
}

// DeleteCandidate removes a candidate from the pipeline.
func (c *Client) DeleteCandidate(ctx context.Context, s Session, id string) error {
	return c.do(ctx, http.MethodDelete, "/candidates/"+url.PathEscape(id), s.Token, nil, nil)
}
