package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/sourcegraph/conc"
)

type homePage struct {
	basePage

	OrgName string
	Stats   models.OrganizationStats

	Tasks     []models.Task
	Documents []models.Document
}

const homeListLimit = 5

// HandleHome renders the dashboard. The four backend reads are independent, so they run
// concurrently and the page waits for the slowest one. A failed read degrades its own card
// to empty instead of taking the page down.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sess, _ := currentSession(r.Context())
	ctx := r.Context()

	var (
		org     models.Organization
		orgErr  error
		stats   models.OrganizationStats
		statErr error
		tasks   []models.Task
		taskErr error
		docs    []models.Document
		docErr  error
	)

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		org, orgErr = m.api.Organization(ctx, sess)
	})
	wg.Go(func() {
		stats, statErr = m.api.OrganizationStats(ctx, sess)
	})
	wg.Go(func() {
		tasks, taskErr = m.api.Tasks(ctx, sess, "")
	})
	wg.Go(func() {
		docs, docErr = m.api.Documents(ctx, sess, "")
	})
	wg.Wait()

	page := homePage{
		basePage:  m.basePage(r, "Dashboard", "home"),
		OrgName:   org.Name,
		Stats:     stats,
		Tasks:     tasks,
		Documents: docs,
	}
	if page.OrgName == "" {
		page.OrgName = "Dashboard"
	}
	for _, err := range []error{orgErr, statErr, taskErr, docErr} {
		if err != nil {
			m.logger.Error("Failed to load dashboard section", slog.String(errLoggerKey, err.Error()))
			page.Error = "Some dashboard data could not be loaded."
		}
	}

	slices.SortFunc(page.Tasks, func(a, b models.Task) int {
		return models.PriorityRank(a.Priority) - models.PriorityRank(b.Priority)
	})
	if len(page.Tasks) > homeListLimit {
		page.Tasks = page.Tasks[:homeListLimit]
	}
	if len(page.Documents) > homeListLimit {
		page.Documents = page.Documents[:homeListLimit]
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
