package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ExposesNotifierCollectors(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	m.Dispatched("calendar", "success", 20*time.Millisecond)
	m.SchedulerEntries(3)

	r := gin.New()
	r.GET("/metrics", NewMetricsHandler(logging.NewNoOpLogger(), reg).Metrics)
	w := httptest.NewRecorder()

	// Act
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `notifier_dispatch_total{origin="calendar",status="success"} 1`)
	assert.Contains(t, body, "notifier_scheduler_entries 3")
}
