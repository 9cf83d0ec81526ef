package actions

import (
	"fmt"

	"github.com/dhima/feishu-notifier/internal/models"
)

// ResolutionError reports that a task's action could not produce notification text.
// Message is the operator-facing text recorded in the execution log.
type ResolutionError struct {
	Kind    models.TaskKind
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	return e.Message
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func resolutionFailed(kind models.TaskKind, err error, format string, args ...interface{}) error {
	return &ResolutionError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// UnknownKindError is returned for a task kind without a registered handler.
type UnknownKindError struct {
	Kind models.TaskKind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("未知任务类型: %s", e.Kind)
}
