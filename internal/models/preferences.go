package models

// Preferences holds per-session UI conveniences. Absence of a stored value means defaults;
// losing them is harmless.
type Preferences struct {
	SidebarCollapsed bool   `json:"sidebar_collapsed"`
	TaskSort         string `json:"task_sort,omitempty"`
}
