package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
)

type tasksPage struct {
	basePage

	Tasks      []models.Task
	Categories []string
	Statuses   []string
	Priorities []string

	Category string
	Sort     string
}

var taskStatuses = []string{
	models.TaskStatusPending,
	models.TaskStatusInProgress,
	models.TaskStatusCompleted,
}

var taskPriorities = []string{"High", "Medium", "Low"}

// HandleTasks renders the task board, filtered by category on the backend and ordered
// locally. The chosen ordering is remembered per user.
func (m Main) HandleTasks(w http.ResponseWriter, r *http.Request) {
	sess, _ := currentSession(r.Context())

	category := r.URL.Query().Get("category")
	tasks, err := m.api.Tasks(r.Context(), sess, category)
	if err != nil {
		m.renderError(w, "Failed to get tasks", err, http.StatusBadGateway)
		return
	}

	sortKey := r.URL.Query().Get("sort")
	prefs, err := m.store.Preferences(r.Context(), sess.UserID)
	if err != nil {
		m.renderError(w, "Failed to load preferences", err, http.StatusInternalServerError)
		return
	}
	if sortKey == "" {
		sortKey = prefs.TaskSort
	} else if sortKey != prefs.TaskSort {
		prefs.TaskSort = sortKey
		if err := m.store.PutPreferences(r.Context(), sess.UserID, prefs); err != nil {
			m.logger.Error("Failed to save preferences", slog.String(errLoggerKey, err.Error()))
		}
	}
	sortTasks(tasks, sortKey)

	page := tasksPage{
		basePage:   m.basePage(r, "Tasks", "tasks"),
		Tasks:      tasks,
		Categories: models.TaskCategories,
		Statuses:   taskStatuses,
		Priorities: taskPriorities,
		Category:   category,
		Sort:       sortKey,
	}
	if err := m.templates.ExecuteTemplate(w, "tasks.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func sortTasks(tasks []models.Task, sortKey string) {
	switch sortKey {
	case "priority":
		slices.SortStableFunc(tasks, func(a, b models.Task) int {
			return models.PriorityRank(a.Priority) - models.PriorityRank(b.Priority)
		})
	case "status":
		slices.SortStableFunc(tasks, func(a, b models.Task) int {
			return slices.Index(taskStatuses, a.Status) - slices.Index(taskStatuses, b.Status)
		})
	}
}

// HandleTaskCreate adds a task from form data and returns to the board.
func (m Main) HandleTaskCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, _ := currentSession(r.Context())
	draft := nexus.TaskDraft{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Priority:    r.FormValue("priority"),
	}
	if draft.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	if _, err := m.api.CreateTask(r.Context(), sess, draft); err != nil {
		m.flashError(w, r, tasksLocation(r), "Failed to create task", err)
		return
	}

	http.Redirect(w, r, tasksLocation(r), http.StatusSeeOther)
}

// HandleTaskUpdate replaces a task's editable fields.
func (m Main) HandleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Task id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	draft := nexus.TaskDraft{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Priority:    r.FormValue("priority"),
	}
	if _, err := m.api.UpdateTask(r.Context(), sess, id, draft); err != nil {
		m.flashError(w, r, tasksLocation(r), "Failed to update task", err)
		return
	}

	http.Redirect(w, r, tasksLocation(r), http.StatusSeeOther)
}

// HandleTaskStatus moves a task to another status column.
func (m Main) HandleTaskStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	status := r.FormValue("status")
	if id == "" || status == "" {
		http.Error(w, "Task id and status are required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.UpdateTaskStatus(r.Context(), sess, id, status); err != nil {
		m.flashError(w, r, tasksLocation(r), "Failed to update task status", err)
		return
	}

	http.Redirect(w, r, tasksLocation(r), http.StatusSeeOther)
}

// HandleTaskDelete removes a task.
func (m Main) HandleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Task id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.DeleteTask(r.Context(), sess, id); err != nil {
		m.flashError(w, r, tasksLocation(r), "Failed to delete task", err)
		return
	}

	http.Redirect(w, r, tasksLocation(r), http.StatusSeeOther)
}

// tasksLocation is the board URL keeping the category filter the form carried.
func tasksLocation(r *http.Request) string {
	loc := "/tasks"
	if filter := r.FormValue("filter"); filter != "" {
		loc += "?category=" + url.QueryEscape(filter)
	}
	return loc
}
