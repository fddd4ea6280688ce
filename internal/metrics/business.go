package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Workflow collects workflow engine and notification metrics. A nil
// *Workflow is valid and records nothing.
type Workflow struct {
	runsFinished *prometheus.CounterVec
	runRetries   *prometheus.CounterVec
	emailsSent   *prometheus.CounterVec
}

// NewWorkflow registers the workflow metrics on reg.
func NewWorkflow(reg prometheus.Registerer) *Workflow {
	m := &Workflow{
		runsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pm_workflow_runs_finished_total",
				Help: "Workflow runs that reached a terminal or suspended state.",
			},
			[]string{"function", "status"},
		),
		runRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pm_workflow_run_retries_total",
				Help: "Workflow run attempts that failed and were rescheduled.",
			},
			[]string{"function"},
		),
		emailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pm_emails_sent_total",
				Help: "Notification e-mails handed to the mail provider.",
			},
			[]string{"kind", "result"},
		),
	}
	reg.MustRegister(m.runsFinished, m.runRetries, m.emailsSent)
	return m
}

func (m *Workflow) RunFinished(function, status string) {
	if m == nil {
		return
	}
	m.runsFinished.WithLabelValues(function, status).Inc()
}

func (m *Workflow) RunRetried(function string) {
	if m == nil {
		return
	}
	m.runRetries.WithLabelValues(function).Inc()
}

func (m *Workflow) EmailSent(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.emailsSent.WithLabelValues(kind, result).Inc()
}
