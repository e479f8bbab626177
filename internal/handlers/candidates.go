package handlers

import (
	"net/http"
	"strings"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
)

type candidatesPage struct {
	basePage

	Candidates []models.Candidate
	Stages     []string
	Stage      string
}

// HandleCandidates renders the recruiting pipeline, optionally narrowed to one stage.
func (m Main) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	sess, _ := currentSession(r.Context())

	stage := r.URL.Query().Get("stage")
	candidates, err := m.api.Candidates(r.Context(), sess, stage)
	if err != nil {
		m.renderError(w, "Failed to get candidates", err, http.StatusBadGateway)
		return
	}

	page := candidatesPage{
		basePage:   m.basePage(r, "Candidates", "candidates"),
		Candidates: candidates,
		Stages:     models.CandidateStages,
		Stage:      stage,
	}
	if err := m.templates.ExecuteTemplate(w, "candidates.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleCandidateCreate registers an applicant at the start of the pipeline.
func (m Main) HandleCandidateCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	draft := nexus.CandidateDraft{
		FullName:        strings.TrimSpace(r.FormValue("full_name")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Phone:           r.FormValue("phone"),
		PositionApplied: strings.TrimSpace(r.FormValue("position")),
		Notes:           r.FormValue("notes"),
	}
	if draft.FullName == "" || draft.Email == "" {
		http.Error(w, "Name and email are required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if _, err := m.api.CreateCandidate(r.Context(), sess, draft); err != nil {
		m.flashError(w, r, "/candidates", "Failed to create candidate", err)
		return
	}

	http.Redirect(w, r, "/candidates", http.StatusSeeOther)
}

// HandleCandidateStage moves a candidate along the pipeline. The form either names the
// target stage or asks for the next one; rejection is just a move to Rejected.
func (m Main) HandleCandidateStage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Candidate id is required", http.StatusBadRequest)
		return
	}

	stage := r.FormValue("stage")
	if stage == "" {
		current := r.FormValue("current")
		stage = models.NextCandidateStage(current)
		if stage == "" {
			http.Error(w, "Candidate is already at a terminal stage", http.StatusBadRequest)
			return
		}
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.UpdateCandidateStage(r.Context(), sess, id, stage); err != nil {
		m.flashError(w, r, "/candidates", "Failed to update candidate stage", err)
		return
	}

	http.Redirect(w, r, "/candidates", http.StatusSeeOther)
}

// HandleCandidateUpdate replaces a candidate's editable fields.
func (m Main) HandleCandidateUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Candidate id is required", http.StatusBadRequest)
		return
	}

	draft := nexus.CandidateDraft{
		FullName:        strings.TrimSpace(r.FormValue("full_name")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Phone:           r.FormValue("phone"),
		PositionApplied: strings.TrimSpace(r.FormValue("position")),
		Notes:           r.FormValue("notes"),
	}

	sess, _ := currentSession(r.Context())
	if _, err := m.api.UpdateCandidate(r.Context(), sess, id, draft); err != nil {
		m.flashError(w, r, "/candidates", "Failed to update candidate", err)
		return
	}

	http.Redirect(w, r, "/candidates", http.StatusSeeOther)
}

// HandleCandidateDelete removes a candidate from the pipeline.
func (m Main) HandleCandidateDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Candidate id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.DeleteCandidate(r.Context(), sess, id); err != nil {
		m.flashError(w, r, "/candidates", "Failed to delete candidate", err)
		return
	}

	http.Redirect(w, r, "/candidates", http.StatusSeeOther)
}
