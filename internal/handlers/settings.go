package handlers

import (
	"net/http"
	"strings"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
	"github.com/sourcegraph/conc"
)

type settingsPage struct {
	basePage

	Org         models.Organization
	Members     []models.Member
	Invitations []models.Invitation

	Roles []models.MemberRole
}

var memberRoles = []models.MemberRole{models.RoleAdmin, models.RoleEmployee}

// HandleSettings renders organization administration: the tenant profile, its members,
// and pending invitations.
func (m Main) HandleSettings(w http.ResponseWriter, r *http.Request) {
	sess, _ := currentSession(r.Context())
	ctx := r.Context()

	var (
		org         models.Organization
		orgErr      error
		members     []models.Member
		membersErr  error
		invitations []models.Invitation
		invitesErr  error
	)
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		org, orgErr = m.api.Organization(ctx, sess)
	})
	wg.Go(func() {
		members, membersErr = m.api.Members(ctx, sess)
	})
	wg.Go(func() {
		invitations, invitesErr = m.api.Invitations(ctx, sess)
	})
	wg.Wait()

	for _, err := range []error{orgErr, membersErr, invitesErr} {
		if err != nil {
			m.renderError(w, "Failed to load settings", err, http.StatusBadGateway)
			return
		}
	}

	page := settingsPage{
		basePage:    m.basePage(r, "Settings", "settings"),
		Org:         org,
		Members:     members,
		Invitations: invitations,
		Roles:       memberRoles,
	}
	if err := m.templates.ExecuteTemplate(w, "settings.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleOrganizationUpdate changes the tenant profile.
func (m Main) HandleOrganizationUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Organization name is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	update := nexus.OrganizationUpdate{
		Name:    name,
		LogoURL: strings.TrimSpace(r.FormValue("logo_url")),
	}
	if _, err := m.api.UpdateOrganization(r.Context(), sess, update); err != nil {
		m.flashError(w, r, "/settings", "Failed to update organization", err)
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// HandleMemberRole switches a member between admin and employee.
func (m Main) HandleMemberRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.FormValue("user_id")
	role := models.MemberRole(r.FormValue("role"))
	if userID == "" || (role != models.RoleAdmin && role != models.RoleEmployee) {
		http.Error(w, "User id and a valid role are required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if userID == sess.UserID {
		http.Error(w, "You cannot change your own role", http.StatusBadRequest)
		return
	}

	if err := m.api.UpdateMemberRole(r.Context(), sess, userID, role); err != nil {
		m.flashError(w, r, "/settings", "Failed to update member role", err)
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// HandleMemberRemove deactivates a member's account.
func (m Main) HandleMemberRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		http.Error(w, "User id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if userID == sess.UserID {
		http.Error(w, "You cannot remove yourself", http.StatusBadRequest)
		return
	}

	if err := m.api.RemoveMember(r.Context(), sess, userID); err != nil {
		m.flashError(w, r, "/settings", "Failed to remove member", err)
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// HandleInvite sends an invitation email.
func (m Main) HandleInvite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	role := models.MemberRole(r.FormValue("role"))
	if email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}
	if role != models.RoleAdmin && role != models.RoleEmployee {
		role = models.RoleEmployee
	}

	sess, _ := currentSession(r.Context())
	if _, err := m.api.Invite(r.Context(), sess, nexus.InvitationRequest{Email: email, Role: role}); err != nil {
		m.flashError(w, r, "/settings", "Failed to send invitation", err)
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// HandleInviteRevoke withdraws a pending invitation.
func (m Main) HandleInviteRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Invitation id is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.RevokeInvitation(r.Context(), sess, id); err != nil {
		m.flashError(w, r, "/settings", "Failed to revoke invitation", err)
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}
