package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()

	r := gin.New()
	r.Use(HTTPMiddleware(reg))
	r.GET("/api/tasks/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "pm_http_requests_total" {
			continue
		}
		found = true
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, float64(2), mf.GetMetric()[0].GetCounter().GetValue())
		for _, l := range mf.GetMetric()[0].GetLabel() {
			if l.GetName() == "route" {
				assert.Equal(t, "/api/tasks/:id", l.GetValue())
			}
		}
	}
	assert.True(t, found)
}

func TestHTTPMiddleware_NilRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMiddleware(nil))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkflowMetrics(t *testing.T) {
	m := NewWorkflow(prometheus.NewRegistry())

	m.RunFinished("fn", "COMPLETED")
	m.RunRetried("fn")
	m.EmailSent("assigned", nil)
	m.EmailSent("assigned", errors.New("smtp down"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsFinished.WithLabelValues("fn", "COMPLETED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runRetries.WithLabelValues("fn")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.emailsSent.WithLabelValues("assigned", "error")))

	var nilMetrics *Workflow
	assert.NotPanics(t, func() {
		nilMetrics.RunFinished("fn", "FAILED")
		nilMetrics.EmailSent("reminder", nil)
	})
}
