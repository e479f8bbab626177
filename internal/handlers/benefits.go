package handlers

import (
	"net/http"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/sourcegraph/conc"
)

type benefitsPage struct {
	basePage

	Plans       []models.BenefitPlan
	Enrollments []models.Enrollment

	// Enrolled marks the plans the user is signed up for, keyed by plan ID.
	Enrolled map[string]bool
}

// HandleBenefits renders the plan catalog alongside the user's enrollments.
func (m Main) HandleBenefits(w http.ResponseWriter, r *http.Request) {
	sess, _ := currentSession(r.Context())
	ctx := r.Context()

	var (
		plans       []models.BenefitPlan
		planErr     error
		enrollments []models.Enrollment
		enrollErr   error
	)
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		plans, planErr = m.api.BenefitPlans(ctx, sess)
	})
	wg.Go(func() {
		enrollments, enrollErr = m.api.Enrollments(ctx, sess)
	})
	wg.Wait()

	for _, err := range []error{planErr, enrollErr} {
		if err != nil {
			m.renderError(w, "Failed to load benefits", err, http.StatusBadGateway)
			return
		}
	}

	enrolled := make(map[string]bool, len(enrollments))
	for _, e := range enrollments {
		if e.Status != "cancelled" {
			enrolled[e.PlanID] = true
		}
	}

	page := benefitsPage{
		basePage:    m.basePage(r, "Benefits", "benefits"),
		Plans:       plans,
		Enrollments: enrollments,
		Enrolled:    enrolled,
	}
	if err := m.templates.ExecuteTemplate(w, "benefits.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleBenefitEnroll signs the user up for a plan.
func (m Main) HandleBenefitEnroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	planID := r.FormValue("plan_id")
	if planID == "" {
		http.Error(w, "Plan id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if _, err := m.api.Enroll(r.Context(), sess, planID); err != nil {
		m.flashError(w, r, "/benefits", "Failed to enroll", err)
		return
	}

	http.Redirect(w, r, "/benefits", http.StatusSeeOther)
}

// HandleBenefitUnenroll withdraws the user from a plan.
func (m Main) HandleBenefitUnenroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	planID := r.FormValue("plan_id")
	if planID == "" {
		http.Error(w, "Plan id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.Unenroll(r.Context(), sess, planID); err != nil {
		m.flashError(w, r, "/benefits", "Failed to unenroll", err)
		return
	}

	http.Redirect(w, r, "/benefits", http.StatusSeeOther)
}
