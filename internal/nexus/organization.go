package nexus

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// OrganizationUpdate carries the organization fields an admin may change.
type OrganizationUpdate struct {
	Name     string         `json:"name,omitempty"`
	LogoURL  string         `json:"logo_url,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// InvitationRequest invites an email address into the organization with a role.
type InvitationRequest struct {
	Email string            `json:"email"`
	Role  models.MemberRole `json:"role"`
}

// Organization fetches the session's tenant.
func (c *Client) Organization(ctx context.Context, s Session) (models.Organization, error) {
	var org models.Organization
	if err := c.do(ctx, http.MethodGet, "/organizations/me", s.Token, nil, &org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// OrganizationStats fetches the tenant's dashboard counters.
func (c *Client) OrganizationStats(ctx context.Context, s Session) (models.OrganizationStats, error) {
	var stats models.OrganizationStats
	if err := c.do(ctx, http.MethodGet, "/organizations/me/stats", s.Token, nil, &stats); err != nil {
		return models.OrganizationStats{}, err
	}
	return stats, nil
}

// UpdateOrganization changes the tenant's profile and returns the stored record.
func (c *Client) UpdateOrganization(ctx context.Context, s Session, update OrganizationUpdate) (models.Organization, error) {
	var org models.Organization
	if err := c.do(ctx, http.MethodPut, "/organizations/me", s.Token, update, &org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// Members lists the organization's user accounts.
func (c *Client) Members(ctx context.Context, s Session) ([]models.Member, error) {
	var members []models.Member
	if err := c.do(ctx, http.MethodGet, "/users", s.Token, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMemberRole switches a member between admin and employee.
func (c *Client) UpdateMemberRole(ctx context.Context, s Session, userID string, role models.MemberRole) error {
	path := "/users/" + url.PathEscape(userID) + "/role"
	body := struct {
		Role models.MemberRole `json:"role"`
	}{Role: role}
	return c.do(ctx, http.MethodPatch, path, s.Token, body, nil)
}

// RemoveMember deactivates a member's account.
func (c *Client) RemoveMember(ctx context.Context, s Session, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), s.Token, nil, nil)
}

// Invitations lists the organization's invitations, newest first per the backend's ordering.
func (c *Client) Invitations(ctx context.Context, s Session) ([]models.Invitation, error) {
	var invitations []models.Invitation
	if err := c.do(ctx, http.MethodGet, "/invitations", s.Token, nil, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// Invite sends an invitation email; the backend rejects duplicates for the same address.
func (c *Client) Invite(ctx context.Context, s Session, req InvitationRequest) (models.Invitation, error) {
	var invitation models.Invitation
	if err := c.do(ctx, http.MethodPost, "/invitations", s.Token, req, &invitation); err != nil {
		return models.Invitation{}, err
	}
	return invitation, nil
}

// RevokeInvitation withdraws a pending invitation.
func (c *Client) RevokeInvitation(ctx context.Context, s Session, id string) error {
	return c.do(ctx, http.MethodDelete, "/invitations/"+url.PathEscape(id), s.Token, nil, nil)
}
