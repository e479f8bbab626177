package nexus

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// PayrollEntries lists pay records, optionally narrowed to one period like "2026-08".
func (c *Client) PayrollEntries(ctx context.Context, s Session, period string) ([]models.PayrollEntry, error) {
	path := "/payroll"
	if period != "" {
		path += "?period=" + url.QueryEscape(period)
	}
	var entries []models.PayrollEntry
	if err := c.do(ctx, http.MethodGet, path, s.Token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PayrollPeriods lists the periods that have at least one pay record, newest first.
func (c *Client) PayrollPeriods(ctx context.Context, s Session) ([]string, error) {
	var periods []string
	if err := c.do(ctx, http.MethodGet, "/payroll/periods", s.Token, nil, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// RunPayroll asks the backend to process all pending entries for a period.
func (c *Client) RunPayroll(ctx context.Context, s Session, period string) error {
	path := "/payroll/run?period=" + url.QueryEscape(period)
	return c.do(ctx, http.MethodPost, path, s.Token, nil, nil)
}
