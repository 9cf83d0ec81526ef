package handlers

import (
	"context"
	"errors"

	"github.com/dhima/feishu-notifier/internal/api/response"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/internal/storage"
	"github.com/dhima/feishu-notifier/internal/tasks"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExecutionStarted is the acknowledgement of a manual run.
const ExecutionStarted = "任务已开始执行"

// TaskService is the task management surface used by the handler.
type TaskService interface {
	CreateTask(ctx context.Context, req models.TaskRequest) (*models.TaskResponse, error)
	ListTasks(ctx context.Context) ([]models.TaskResponse, error)
	GetTask(ctx context.Context, taskID string) (*models.TaskResponse, error)
	UpdateTask(ctx context.Context, taskID string, req models.TaskRequest) (*models.TaskResponse, error)
	DeleteTask(ctx context.Context, taskID string) error
	ExecuteTask(ctx context.Context, taskID string) (*models.Task, error)
	Stats(ctx context.Context) (models.TaskStats, error)
}

// TaskHandler handles task management requests.
type TaskHandler struct {
	logger  logging.Logger
	service TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(logger logging.Logger, service TaskService) *TaskHandler {
	return &TaskHandler{
		logger:  logger.With(zap.String("handler", "task")),
		service: service,
	}
}

// CreateTask godoc
// @Summary Create a task
// @Description Creates a calendar or repository-event task and reinstalls the timers.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param task body models.TaskRequest true "Task configuration"
// @Success 201 {object} models.TaskResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create task request",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.service.CreateTask(c.Request.Context(), req)
	if h.handleServiceError(c, err, "create task") {
		return
	}

	h.logger.Info("task created",
		zap.String("task_id", result.ID),
		zap.String("kind", string(result.Kind)),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.Created(c, result, "task created successfully")
}

// ListTasks godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Success 200 {array} models.TaskResponse
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	result, err := h.service.ListTasks(c.Request.Context())
	if h.handleServiceError(c, err, "list tasks") {
		return
	}
	response.OK(c, result)
}

// GetTask godoc
// @Summary Get task details
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.TaskResponse
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	result, err := h.service.GetTask(c.Request.Context(), c.Param("id"))
	if h.handleServiceError(c, err, "get task") {
		return
	}
	response.OK(c, result)
}

// UpdateTask godoc
// @Summary Replace a task
// @Description Replaces the task configuration. Omitted secret and api_key keep their stored values.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param task body models.TaskRequest true "Task configuration"
// @Success 200 {object} models.TaskResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update task request",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	taskID := c.Param("id")
	result, err := h.service.UpdateTask(c.Request.Context(), taskID, req)
	if h.handleServiceError(c, err, "update task") {
		return
	}

	h.logger.Info("task updated",
		zap.String("task_id", taskID),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.OK(c, result)
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Removes the task and its timer. A fire already in progress still completes.
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204 "Task deleted"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID := c.Param("id")
	if h.handleServiceError(c, h.service.DeleteTask(c.Request.Context(), taskID), "delete task") {
		return
	}

	h.logger.Info("task deleted",
		zap.String("task_id", taskID),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.NoContent(c)
}

// ExecuteTask godoc
// @Summary Run a task now
// @Description Starts the task immediately in the background, ignoring its weekday mask.
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 202 {object} response.SuccessResponse "Execution started"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id}/execute [post]
func (h *TaskHandler) ExecuteTask(c *gin.Context) {
	task, err := h.service.ExecuteTask(c.Request.Context(), c.Param("id"))
	if h.handleServiceError(c, err, "execute task") {
		return
	}

	h.logger.Info("manual execution started",
		zap.String("task_id", task.ID),
		zap.String("task_name", task.Name),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.Accepted(c, ExecutionStarted)
}

// Stats godoc
// @Summary Task statistics
// @Description Total and enabled task counts plus the soonest calendar fire ("暂无" when none).
// @Tags Tasks
// @Produce json
// @Success 200 {object} models.TaskStats
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if h.handleServiceError(c, err, "task stats") {
		return
	}
	response.OK(c, stats)
}

func (h *TaskHandler) handleServiceError(c *gin.Context, err error, operation string) bool {
	if err == nil {
		return false
	}

	var validationErr tasks.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, "validation failed", validationErr.Error())
	case errors.Is(err, storage.ErrTaskNotFound):
		response.NotFound(c, "task not found")
	default:
		h.logger.Error(operation+" failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "internal server error")
	}
	return true
}
