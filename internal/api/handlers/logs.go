package handlers

import (
	"context"

	"github.com/dhima/feishu-notifier/internal/api/response"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogService reads and clears execution logs.
type LogService interface {
	Recent(ctx context.Context, limit int) ([]models.ExecutionLogView, error)
	Clear(ctx context.Context) (int64, error)
}

// LogHandler serves the execution log feed.
type LogHandler struct {
	logger  logging.Logger
	service LogService
}

// NewLogHandler creates a new log handler.
func NewLogHandler(logger logging.Logger, service LogService) *LogHandler {
	return &LogHandler{
		logger:  logger.With(zap.String("handler", "log")),
		service: service,
	}
}

// ClearLogsResponse reports how many logs were removed.
type ClearLogsResponse struct {
	Deleted int64 `json:"deleted" example:"42"`
} // @name ClearLogsResponse

// ListLogs godoc
// @Summary Recent execution logs
// @Description Newest first; the task name is resolved at read time.
// @Tags Logs
// @Produce json
// @Param limit query int false "Max logs" default(100) minimum(1) maximum(1000)
// @Success 200 {array} models.ExecutionLogView
// @Failure 400 {object} response.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/logs [get]
func (h *LogHandler) ListLogs(c *gin.Context) {
	var query models.ListLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("invalid list logs query",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid query parameters", err.Error())
		return
	}

	logs, err := h.service.Recent(c.Request.Context(), query.Limit)
	if err != nil {
		h.logger.Error("list logs failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "internal server error")
		return
	}
	response.OK(c, logs)
}

// ClearLogs godoc
// @Summary Clear execution logs
// @Tags Logs
// @Produce json
// @Success 200 {object} ClearLogsResponse
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/logs [delete]
func (h *LogHandler) ClearLogs(c *gin.Context) {
	deleted, err := h.service.Clear(c.Request.Context())
	if err != nil {
		h.logger.Error("clear logs failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "internal server error")
		return
	}

	h.logger.Info("execution logs cleared",
		zap.Int64("deleted", deleted),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.OK(c, ClearLogsResponse{Deleted: deleted})
}
