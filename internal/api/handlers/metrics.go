package handlers

import (
	"net/http"

	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsHandler exposes the prometheus registry.
type MetricsHandler struct {
	logger  logging.Logger
	handler http.Handler
}

// NewMetricsHandler creates a metrics handler over gatherer.
func NewMetricsHandler(logger logging.Logger, gatherer prometheus.Gatherer) *MetricsHandler {
	logger = logger.With(zap.String("handler", "metrics"))
	return &MetricsHandler{
		logger: logger,
		handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			ErrorLog:      promErrorLog{logger: logger},
			ErrorHandling: promhttp.ContinueOnError,
		}),
	}
}

// Metrics godoc
// @Summary Prometheus metrics
// @Description Dispatch, scheduler and webhook counters in the Prometheus text format
// @Tags System
// @Produce plain
// @Success 200 {string} string "metrics"
// @Router /metrics [get]
func (h *MetricsHandler) Metrics(c *gin.Context) {
	h.handler.ServeHTTP(c.Writer, c.Request)
}

type promErrorLog struct {
	logger logging.Logger
}

func (l promErrorLog) Println(v ...interface{}) {
	l.logger.Warn("metrics gather error", zap.Any("details", v))
}
