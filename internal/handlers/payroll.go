package handlers

import (
	"net/http"
	"net/url"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

type payrollPage struct {
	basePage

	Entries []models.PayrollEntry
	Periods []string
	Period  string

	Totals payrollTotals
}

type payrollTotals struct {
	Gross      float64
	Deductions float64
	Taxes      float64
	Net        float64
}

// HandlePayroll renders pay records for a period with a totals row. Without an explicit
// period it shows the most recent one.
func (m Main) HandlePayroll(w http.ResponseWriter, r *http.Request) {
	sess, _ := currentSession(r.Context())
	ctx := r.Context()

	periods, err := m.api.PayrollPeriods(ctx, sess)
	if err != nil {
		m.renderError(w, "Failed to get payroll periods", err, http.StatusBadGateway)
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" && len(periods) > 0 {
		period = periods[0]
	}

	var entries []models.PayrollEntry
	if period != "" {
		entries, err = m.api.PayrollEntries(ctx, sess, period)
		if err != nil {
			m.renderError(w, "Failed to get payroll entries", err, http.StatusBadGateway)
			return
		}
	}

	var totals payrollTotals
	for _, e := range entries {
		totals.Gross += e.GrossPay
		totals.Deductions += e.Deductions
		totals.Taxes += e.Taxes
		totals.Net += e.NetPay
	}

	page := payrollPage{
		basePage: m.basePage(r, "Payroll", "payroll"),
		Entries:  entries,
		Periods:  periods,
		Period:   period,
		Totals:   totals,
	}
	if err := m.templates.ExecuteTemplate(w, "payroll.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandlePayrollRun asks the backend to process the period's pending entries.
func (m Main) HandlePayrollRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	period := r.FormValue("period")
	if period == "" {
		http.Error(w, "Period is required", http.StatusBadRequest)
		return
	}

	sess, _ := currentSession(r.Context())
	if err := m.api.RunPayroll(r.Context(), sess, period); err != nil {
		m.flashError(w, r, "/payroll", "Failed to run payroll", err)
		return
	}

	http.Redirect(w, r, "/payroll?period="+url.QueryEscape(period), http.StatusSeeOther)
}
