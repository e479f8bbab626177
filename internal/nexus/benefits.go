package nexus

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// BenefitPlans lists the plans the organization offers.
func (c *Client) BenefitPlans(ctx context.Context, s Session) ([]models.BenefitPlan, error) {
	var plans []models.BenefitPlan
	if err := c.do(ctx, http.MethodGet, "/benefits/plans", s.Token, nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Enrollments lists the session user's benefit enrollments.
func (c *Client) Enrollments(ctx context.Context, s Session) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := c.do(ctx, http.MethodGet, "/benefits/enrollments", s.Token, nil, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Enroll signs the session user up for a plan.
func (c *Client) Enroll(ctx context.Context, s Session, planID string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := c.do(ctx, http.MethodPost, "/benefits/enrollments", s.Token, struct {
		PlanID string `json:"plan_id"`
	}{PlanID: planID}, &enrollment); err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// Unenroll withdraws the session user from a plan.
func (c *Client) Unenroll(ctx context.Context, s Session, planID string) error {
	return c.do(ctx, http.MethodDelete, "/benefits/enrollments/"+url.PathEscape(planID), s.Token, nil, nil)
}
