package models

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp wraps time.Time to accept the backend's ISO-8601 datetimes, which omit the
// timezone suffix when the server stores naive UTC values.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON parses the backend datetime formats, treating absent values as zero.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON emits RFC 3339, which the backend accepts on writes.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

// MemberRole is the role a user holds inside an organization. It arrives with the
// authenticated session and gates admin-only screens; it is never a security boundary here.
type MemberRole string

const (
	RoleAdmin    MemberRole = "admin"
	RoleEmployee MemberRole = "employee"
)

// Admin reports whether the role unlocks organization management screens.
func (r MemberRole) Admin() bool { return r == RoleAdmin }

// Task is an HR work item owned by the organization.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	OwnerID     string    `json:"owner_id,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// TaskCategories lists the backend's task category enum in display order.
var TaskCategories = []string{
	"Recruiting",
	"Onboarding",
	"Payroll",
	"Benefits",
	"Learning_Development",
	"Employee_Relations",
	"Performance",
	"Offboarding",
}

// Task statuses understood by the status endpoint.
const (
	TaskStatusPending    = "Pending"
	TaskStatusInProgress = "In Progress"
	TaskStatusCompleted  = "Completed"
)

// PriorityRank orders priorities for sorting, highest first.
func PriorityRank(priority string) int {
	switch priority {
	case "High":
		return 0
	case "Medium":
		return 1
	case "Low":
		return 2
	}
	return 3
}

// Document is a knowledge-base file the assistant answers from.
type Document struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	UploadedAt       Timestamp `json:"uploaded_at"`
	Category         string    `json:"category,omitempty"`
}

// DocumentStatus reports backend indexing progress for an uploaded document.
type DocumentStatus struct {
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	NumChunks int    `json:"num_chunks,omitempty"`
}

// Organization is the tenant the session belongs to.
type Organization struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	LogoURL   string         `json:"logo_url,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt Timestamp      `json:"created_at"`
	IsActive  bool           `json:"is_active"`
}

// OrganizationStats is the dashboard summary the backend computes per tenant.
type OrganizationStats struct {
	ActiveUsers    int `json:"active_users"`
	TotalDocuments int `json:"total_documents"`
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
}

// Member is a user account within the organization.
type Member struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name,omitempty"`
	Role       MemberRole `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  Timestamp  `json:"created_at"`
}

// Invitation is a pending offer to join the organization.
type Invitation struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      MemberRole `json:"role"`
	Status    string     `json:"status"`
	InvitedBy string     `json:"invited_by,omitempty"`
	ExpiresAt Timestamp  `json:"expires_at"`
	CreatedAt Timestamp  `json:"created_at"`
}

// Candidate is an applicant in the recruiting pipeline.
type Candidate struct {
	ID              string    `json:"id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	PositionApplied string    `json:"position_applied"`
	Status          string    `json:"status"`
	AppliedDate     Timestamp `json:"applied_date"`
	Notes           string    `json:"notes,omitempty"`
}

// CandidateStages lists the pipeline stages in progression order.
var CandidateStages = []string{
	"Applied",
	"Screening",
	"Interview",
	"Offer",
	"Hired",
	"Rejected",
}

// NextCandidateStage returns the stage that follows the given one, or "" when the stage is
// terminal or unknown.
func NextCandidateStage(stage string) string {
	for i, s := range CandidateStages {
		if s != stage {
			continue
		}
		// Hired and Rejected are terminal; Offer advances to Hired.
		if s == "Hired" || s == "Rejected" {
			return ""
		}
		if i+1 < len(CandidateStages) {
			return CandidateStages[i+1]
		}
	}
	return ""
}

// PayrollEntry is one employee line in a pay period. Amounts are backend-calculated; the
// console only displays them.
type PayrollEntry struct {
	ID           string    `json:"id"`
	EmployeeName string    `json:"employee_name"`
	Period       string    `json:"period"`
	GrossPay     float64   `json:"gross_pay"`
	Deductions   float64   `json:"deductions"`
	Taxes        float64   `json:"taxes"`
	NetPay       float64   `json:"net_pay"`
	Status       string    `json:"status"`
	PayDate      Timestamp `json:"pay_date"`
}

// BenefitPlan is an offering employees can enroll in.
type BenefitPlan struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Provider    string  `json:"provider"`
	Kind        string  `json:"kind"`
	MonthlyCost float64 `json:"monthly_cost"`
	Description string  `json:"description,omitempty"`
}

// Enrollment ties the signed-in user to a benefit plan.
type Enrollment struct {
	ID         string    `json:"id"`
	PlanID     string    `json:"plan_id"`
	PlanName   string    `json:"plan_name"`
	Status     string    `json:"status"`
	EnrolledAt Timestamp `json:"enrolled_at"`
}
